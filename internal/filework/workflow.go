// Package filework runs the attachment workflow for one student record:
// validate and upload batches, refresh from the server, confirmed deletes and
// two-step downloads.
package filework

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/logger"
	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

var (
	ErrBusy      = errors.New("filework: another file operation is in progress")
	ErrCancelled = errors.New("filework: cancelled by user")
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateUploading
	StateError
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateUploading:
		return "uploading"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// API is the part of the backend client the workflow needs.
type API interface {
	ListFiles(ctx context.Context, sess *session.Session, studentID int64) (apiclient.ListResult[student.File], error)
	UploadFile(ctx context.Context, sess *session.Session, studentID int64, filename string, content io.Reader) (apiclient.UploadResult, error)
	DeleteFile(ctx context.Context, sess *session.Session, fileID int64) error
	FileDownloadRef(ctx context.Context, sess *session.Session, fileID int64) (apiclient.DownloadRef, error)
	FetchDownload(ctx context.Context, sess *session.Session, ref apiclient.DownloadRef) (apiclient.Blob, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

type Workflow struct {
	api       API
	studentID int64
	policy    Policy
	log       zerolog.Logger

	mu           sync.Mutex
	state        State
	busy         bool
	files        []student.File
	onTransition func(State)
}

func New(api API, studentID int64, policy Policy) *Workflow {
	return &Workflow{
		api:       api,
		studentID: studentID,
		policy:    policy,
		log:       logger.WithField("student_id", studentID),
	}
}

// OnTransition registers a callback invoked on every state change.
func (w *Workflow) OnTransition(fn func(State)) {
	w.mu.Lock()
	w.onTransition = fn
	w.mu.Unlock()
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Files is the last list fetched from the server.
func (w *Workflow) Files() []student.File {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]student.File, len(w.files))
	copy(out, w.files)
	return out
}

func (w *Workflow) set(s State) {
	w.mu.Lock()
	w.state = s
	fn := w.onTransition
	w.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (w *Workflow) begin() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	w.busy = true
	return nil
}

func (w *Workflow) end() {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
}

func (w *Workflow) Refresh(ctx context.Context, sess *session.Session) ([]student.File, error) {
	res, err := w.api.ListFiles(ctx, sess, w.studentID)
	if err != nil {
		return w.Files(), err
	}
	w.mu.Lock()
	w.files = res.Items
	w.mu.Unlock()
	return w.Files(), nil
}

// UploadBatch processes files in order; a failure never stops the rest. The
// list is always re-read from the server afterwards, and a refresh error is
// returned alongside the report.
func (w *Workflow) UploadBatch(ctx context.Context, sess *session.Session, uploads []Upload) (BatchReport, error) {
	if err := w.begin(); err != nil {
		return BatchReport{}, err
	}
	defer w.end()

	report := BatchReport{Total: len(uploads)}
	for _, up := range uploads {
		if err := w.uploadOne(ctx, sess, up); err != nil {
			report.Failures = append(report.Failures, Failure{
				Name:    up.Name,
				Message: failureMessage(err),
				Err:     err,
			})
			continue
		}
		report.Succeeded++
	}

	files, err := w.Refresh(ctx, sess)
	report.Files = files
	w.log.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed()).
		Msg("upload batch finished")
	return report, err
}

func (w *Workflow) uploadOne(ctx context.Context, sess *session.Session, up Upload) error {
	w.set(StateValidating)
	if err := w.policy.Check(up.Name, up.Size); err != nil {
		w.fail()
		return err
	}

	w.set(StateUploading)
	content, err := up.Open()
	if err != nil {
		w.fail()
		return err
	}
	defer content.Close()

	if _, err := w.api.UploadFile(ctx, sess, w.studentID, up.Name, content); err != nil {
		w.log.Warn().Err(err).Str("file", up.Name).Msg("upload failed")
		w.fail()
		return err
	}
	w.set(StateIdle)
	return nil
}

func (w *Workflow) fail() {
	w.set(StateError)
	w.set(StateIdle)
}

func failureMessage(err error) string {
	var reject *RejectError
	if errors.As(err, &reject) {
		return reject.Message
	}
	return apiclient.UserMessage(err, "Upload failed")
}

func DeletePrompt(name string) string {
	return `Are you sure you want to delete "` + name + `"?`
}

// Delete removes a file only after the confirmer agrees.
func (w *Workflow) Delete(ctx context.Context, sess *session.Session, file student.File, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(DeletePrompt(file.OriginalFilename)) {
		return ErrCancelled
	}
	if err := w.begin(); err != nil {
		return err
	}
	defer w.end()

	if err := w.api.DeleteFile(ctx, sess, file.ID); err != nil {
		return err
	}
	w.log.Info().Int64("file_id", file.ID).Msg("file deleted")
	_, err := w.Refresh(ctx, sess)
	return err
}

type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Download resolves the short-lived reference and fetches the bytes. The name
// comes from the server's answer.
func (w *Workflow) Download(ctx context.Context, sess *session.Session, fileID int64) (Download, error) {
	ref, err := w.api.FileDownloadRef(ctx, sess, fileID)
	if err != nil {
		return Download{}, err
	}
	blob, err := w.api.FetchDownload(ctx, sess, ref)
	if err != nil {
		return Download{}, err
	}

	name := ref.Filename
	if name == "" {
		name = blob.Filename
	}
	if name == "" {
		for _, f := range w.Files() {
			if f.ID == fileID {
				name = f.OriginalFilename
			}
		}
	}
	if name == "" {
		name = "file-" + strconv.FormatInt(fileID, 10)
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Download{Filename: name, ContentType: contentType, Data: blob.Data}, nil
}
