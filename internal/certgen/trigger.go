// Package certgen asks the backend for certificates and summaries and hands
// the resulting documents to a Sink. Rendering happens entirely server side.
package certgen

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/logger"
	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

var (
	ErrBusy        = errors.New("certgen: a generation request is already running")
	ErrNoSelection = errors.New("certgen: no certificate kinds selected")
)

type API interface {
	GenerateCertificate(ctx context.Context, sess *session.Session, slug string, st student.Student) (apiclient.Blob, error)
	GenerateAll(ctx context.Context, sess *session.Session, st student.Student) (apiclient.Blob, error)
	GenerateSummary(ctx context.Context, sess *session.Session, studentID int64) (apiclient.SummaryResult, error)
}

// Result is the outcome for one requested kind.
type Result struct {
	Kind Kind
	File File
	Err  error
}

type Results []Result

func (r Results) Failed() Results {
	var out Results
	for _, res := range r {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

func (r Results) Succeeded() Results {
	var out Results
	for _, res := range r {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

// Summary names every failed kind with its reason.
func (r Results) Summary() string {
	failed := r.Failed()
	if len(failed) == 0 {
		return fmt.Sprintf("%d certificate(s) generated.", len(r))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d certificate(s) failed:", len(failed), len(r))
	for _, res := range failed {
		b.WriteString("\n" + res.Kind.Label() + ": " + apiclient.UserMessage(res.Err, "generation failed"))
	}
	return b.String()
}

type Trigger struct {
	api  API
	sink Sink
	log  zerolog.Logger

	mu   sync.Mutex
	busy bool
}

func NewTrigger(api API, sink Sink) *Trigger {
	return &Trigger{api: api, sink: sink, log: logger.WithField("component", "certgen")}
}

func (t *Trigger) begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy {
		return ErrBusy
	}
	t.busy = true
	return nil
}

func (t *Trigger) end() {
	t.mu.Lock()
	t.busy = false
	t.mu.Unlock()
}

// GenerateSelected issues one request per selected kind, in order. Each kind
// succeeds or fails on its own.
func (t *Trigger) GenerateSelected(ctx context.Context, sess *session.Session, st student.Student, sel Selection) (Results, error) {
	kinds := sel.Kinds()
	if len(kinds) == 0 {
		return nil, ErrNoSelection
	}
	if err := t.begin(); err != nil {
		return nil, err
	}
	defer t.end()

	results := make(Results, 0, len(kinds))
	for _, kind := range kinds {
		res := Result{Kind: kind}
		blob, err := t.api.GenerateCertificate(ctx, sess, kind.Slug(), st)
		if err == nil {
			res.File = File{
				Name:        fmt.Sprintf("%s_%s.pdf", st.FileStem(), kind.Slug()),
				ContentType: pdfType(blob.ContentType),
				Data:        blob.Data,
			}
			err = t.sink.Deliver(res.File)
		}
		if err != nil {
			res.Err = err
			t.log.Warn().Err(err).Str("kind", kind.Slug()).Int64("student_id", st.ID).Msg("certificate failed")
		}
		results = append(results, res)
	}
	return results, nil
}

// GenerateAll requests the combined document.
func (t *Trigger) GenerateAll(ctx context.Context, sess *session.Session, st student.Student) (File, error) {
	if err := t.begin(); err != nil {
		return File{}, err
	}
	defer t.end()

	blob, err := t.api.GenerateAll(ctx, sess, st)
	if err != nil {
		return File{}, err
	}
	f := File{
		Name:        st.FileStem() + "_Certificates_Master.pdf",
		ContentType: pdfType(blob.ContentType),
		Data:        blob.Data,
	}
	return f, t.sink.Deliver(f)
}

// GenerateSummary saves a document as-is and wraps text into one.
func (t *Trigger) GenerateSummary(ctx context.Context, sess *session.Session, st student.Student) (File, error) {
	if err := t.begin(); err != nil {
		return File{}, err
	}
	defer t.end()

	res, err := t.api.GenerateSummary(ctx, sess, st.ID)
	if err != nil {
		return File{}, err
	}
	var f File
	switch res.Kind {
	case apiclient.SummaryDocument:
		f = File{
			Name:        res.Document.Filename,
			ContentType: pdfType(res.Document.ContentType),
			Data:        res.Document.Data,
		}
		if f.Name == "" {
			f.Name = st.FileStem() + "_ai_summary.pdf"
		}
	case apiclient.SummaryText:
		f = WrapSummaryText(st, res.Text)
	default:
		return File{}, fmt.Errorf("certgen: unknown summary kind %d", res.Kind)
	}
	return f, t.sink.Deliver(f)
}

var markup = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// WrapSummaryText turns narrative text into a standalone document. Markup is
// kept as an HTML page; plain text becomes a .txt file.
func WrapSummaryText(st student.Student, text string) File {
	title := "AI Personality Summary: " + strings.TrimSpace(st.FullName)
	if markup.MatchString(text) {
		page := "<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>" + html.EscapeString(title) +
			"</title></head><body>\n<h1>" + html.EscapeString(title) + "</h1>\n" + text + "\n</body></html>\n"
		return File{Name: st.FileStem() + "_ai_summary.html", ContentType: "text/html; charset=utf-8", Data: []byte(page)}
	}
	body := title + "\n\n" + strings.TrimSpace(text) + "\n"
	return File{Name: st.FileStem() + "_ai_summary.txt", ContentType: "text/plain; charset=utf-8", Data: []byte(body)}
}

func pdfType(declared string) string {
	if declared == "" {
		return "application/pdf"
	}
	return declared
}
