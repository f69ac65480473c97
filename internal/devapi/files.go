package devapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

// Content types the upload endpoint refuses regardless of name.
var dangerousTypes = map[string]bool{
	"application/x-executable":    true,
	"application/x-msdownload":    true,
	"application/x-msdos-program": true,
	"application/x-sh":            true,
	"application/x-shellscript":   true,
	"text/x-shellscript":          true,
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "studentID")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if _, err := s.store.getStudent(id); err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, s.store.listFiles(id))
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "studentID")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if _, err := s.store.getStudent(id); err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusBadRequest, s.sizeMessage())
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		writeError(w, http.StatusBadRequest, s.sizeMessage())
		return
	}
	contentType := header.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if dangerousTypes[strings.ToLower(contentType)] {
		writeError(w, http.StatusBadRequest, "File type not allowed for security reasons")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "unable to read upload")
		return
	}
	if int64(len(data)) > s.maxUpload {
		writeError(w, http.StatusBadRequest, s.sizeMessage())
		return
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	fileID := s.store.addFile(id, student.File{
		OriginalFilename: header.Filename,
		ContentType:      contentType,
		UploadedByName:   userFromContext(r.Context()),
	}, data)
	s.log.Info().Int64("student_id", id).Int64("file_id", fileID).Str("name", header.Filename).Msg("file uploaded")
	writeJSON(w, http.StatusCreated, map[string]any{"id": fileID, "message": "File uploaded successfully"})
}

func (s *Server) sizeMessage() string {
	if s.maxUpload >= 1<<20 {
		return fmt.Sprintf("File size exceeds %dMB limit", s.maxUpload/(1<<20))
	}
	return fmt.Sprintf("File size exceeds %d byte limit", s.maxUpload)
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "fileID")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if err := s.store.deleteFile(id); err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	s.log.Info().Int64("file_id", id).Str("by", userFromContext(r.Context())).Msg("file deleted")
	w.WriteHeader(http.StatusNoContent)
}

// downloadRef hands out a short-lived signed link instead of the bytes.
func (s *Server) downloadRef(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "fileID")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	f, err := s.store.getFile(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	sig := s.store.grantDownload(id, downloadTTL)
	writeJSON(w, http.StatusOK, map[string]any{
		"download_url": "/api/files/" + strconv.FormatInt(id, 10) + "/raw/?sig=" + sig,
		"filename":     f.meta.OriginalFilename,
		"content_type": f.meta.ContentType,
		"size_bytes":   f.meta.FileSize,
	})
}

func (s *Server) rawDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "fileID")
	if !ok || !s.store.checkGrant(r.URL.Query().Get("sig"), id) {
		writeError(w, http.StatusForbidden, "download link is invalid or expired")
		return
	}
	f, err := s.store.getFile(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	contentType := f.meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.meta.OriginalFilename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.data)))
	_, _ = w.Write(f.data)
}
