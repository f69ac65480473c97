package clientapp

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/KaiSwain/hammer-portfolio-django/internal/apiclient"
	"github.com/KaiSwain/hammer-portfolio-django/internal/filework"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
	"github.com/KaiSwain/hammer-portfolio-django/internal/thumbnail"
)

func (s *server) uploadFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "studentID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	back := studentPath(id)
	sess := sessionFrom(r)
	done, ok := s.running.begin(sess, id, opUpload)
	if !ok {
		redirectWithError(w, r, back, busyMessage(opUpload))
		return
	}
	defer done()

	uploads, cleanup, err := readUploads(r, s.uploadPolicy.MaxBytes)
	defer cleanup()
	if err != nil {
		s.log.Warn().Err(err).Int64("student_id", id).Msg("read upload failed")
		redirectWithError(w, r, back, "Unable to read the upload. Please try again.")
		return
	}
	if len(uploads) == 0 {
		redirectWithError(w, r, back, "Choose at least one file to upload")
		return
	}

	work := filework.New(s.api, id, s.uploadPolicy)
	report, err := work.UploadBatch(r.Context(), sess, uploads)
	if !sess.Authenticated() {
		redirectWithError(w, r, "/login", "Your session has expired. Please log in again.")
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Int64("student_id", id).Msg("file list refresh failed")
	}
	if report.Failed() > 0 {
		redirectWithError(w, r, back, report.Summary())
		return
	}
	redirectWithMessage(w, r, back, report.Summary())
}

func (s *server) downloadFile(w http.ResponseWriter, r *http.Request) {
	id, fileID, ok := fileParams(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	work := filework.New(s.api, id, s.uploadPolicy)
	dl, err := work.Download(r.Context(), sessionFrom(r), fileID)
	if err != nil {
		s.fail(w, r, err, studentPath(id), "Download failed")
		return
	}
	sendAttachment(w, dl.Filename, dl.ContentType, dl.Data)
}

func (s *server) previewFile(w http.ResponseWriter, r *http.Request) {
	id, fileID, ok := fileParams(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	work := filework.New(s.api, id, s.uploadPolicy)
	dl, err := work.Download(r.Context(), sessionFrom(r), fileID)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			s.fail(w, r, err, "/login", "")
			return
		}
		http.Error(w, apiclient.UserMessage(err, "preview unavailable"), http.StatusBadGateway)
		return
	}
	img, err := thumbnail.Render(dl.Data, thumbnail.DefaultMaxSide)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, thumbnail.ErrUnsupported) {
			status = http.StatusUnsupportedMediaType
		}
		http.Error(w, "preview unavailable", status)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	_, _ = w.Write(img)
}

// deleteFilePage asks before anything reaches the backend. The file list link
// carries the name; a bare URL falls back to looking it up.
func (s *server) deleteFilePage(w http.ResponseWriter, r *http.Request) {
	id, fileID, ok := fileParams(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := sessionFrom(r)
	file, found, err := s.fileFromRequest(r, id, fileID)
	if err != nil {
		s.fail(w, r, err, studentPath(id), "Unable to load files")
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	s.render(w, s.confirmTmpl, pageData{
		Title:     "Delete file",
		CSRFField: csrf.TemplateField(r),
		Username:  sess.Username(),
		Confirm: &confirmView{
			Heading: "Delete file",
			Prompt:  filework.DeletePrompt(file.OriginalFilename),
			Action:  fileDeletePath(id, file),
			Cancel:  studentPath(id),
			Button:  "Delete file",
		},
	})
}

// deleteFile runs only from the confirmation form, so the confirmer agrees.
func (s *server) deleteFile(w http.ResponseWriter, r *http.Request) {
	id, fileID, ok := fileParams(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := sessionFrom(r)
	done, ok := s.running.begin(sess, id, opDeleteFile)
	if !ok {
		redirectWithError(w, r, studentPath(id), busyMessage(opDeleteFile))
		return
	}
	defer done()

	file, found, err := s.fileFromRequest(r, id, fileID)
	if err != nil {
		s.fail(w, r, err, studentPath(id), "Unable to load files")
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	work := filework.New(s.api, id, s.uploadPolicy)
	confirmed := filework.ConfirmFunc(func(string) bool { return true })
	if err := work.Delete(r.Context(), sess, file, confirmed); err != nil {
		s.fail(w, r, err, studentPath(id), "Delete failed")
		return
	}
	redirectWithMessage(w, r, studentPath(id), "File deleted")
}

func fileDeletePath(studentID int64, file student.File) string {
	return studentPath(studentID) + "/files/" + strconv.FormatInt(file.ID, 10) + "/delete?name=" + url.QueryEscape(file.OriginalFilename)
}

func (s *server) fileFromRequest(r *http.Request, studentID, fileID int64) (student.File, bool, error) {
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		return student.File{ID: fileID, OriginalFilename: name}, true, nil
	}
	return s.lookupFile(r, studentID, fileID)
}

func (s *server) lookupFile(r *http.Request, studentID, fileID int64) (student.File, bool, error) {
	work := filework.New(s.api, studentID, s.uploadPolicy)
	files, err := work.Refresh(r.Context(), sessionFrom(r))
	if err != nil {
		return student.File{}, false, err
	}
	for _, f := range files {
		if f.ID == fileID {
			return f, true, nil
		}
	}
	return student.File{}, false, nil
}

func fileParams(r *http.Request) (int64, int64, bool) {
	id, ok := pathInt64(r, "studentID")
	if !ok {
		return 0, 0, false
	}
	fileID, ok := pathInt64(r, "fileID")
	return id, fileID, ok
}
