package clientapp

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/KaiSwain/hammer-portfolio-django/internal/filework"
)

const (
	uploadField    = "files"
	maxUploadParts = 100
)

var (
	errTooManyParts = errors.New("too many files in one upload")
	errOversized    = errors.New("file was not kept: over the size limit")
)

// readUploads collects the "files" parts of a multipart request. Each part is
// spooled to a temporary file holding at most limit+1 bytes; a larger part is
// drained and returned with that truncated size so the batch rejects it alone.
// cleanup is never nil and removes every spooled file.
func readUploads(r *http.Request, limit int64) ([]filework.Upload, func(), error) {
	if r.MultipartForm != nil {
		var uploads []filework.Upload
		for _, h := range r.MultipartForm.File[uploadField] {
			uploads = append(uploads, filework.FromMultipart(h))
		}
		return uploads, func() { _ = r.MultipartForm.RemoveAll() }, nil
	}

	var spooled []string
	cleanup := func() {
		for _, p := range spooled {
			_ = os.Remove(p)
		}
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, cleanup, err
	}
	var uploads []filework.Upload
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return uploads, cleanup, nil
		}
		if err != nil {
			return nil, cleanup, err
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_, err := io.Copy(io.Discard, part)
			_ = part.Close()
			if err != nil {
				return nil, cleanup, err
			}
			continue
		}
		if len(uploads) == maxUploadParts {
			_ = part.Close()
			return nil, cleanup, errTooManyParts
		}
		up, path, err := spoolPart(part, limit)
		_ = part.Close()
		if path != "" {
			spooled = append(spooled, path)
		}
		if err != nil {
			return nil, cleanup, err
		}
		uploads = append(uploads, up)
	}
}

func spoolPart(part *multipart.Part, limit int64) (filework.Upload, string, error) {
	name := part.FileName()
	tmp, err := os.CreateTemp("", "hammer-upload-*")
	if err != nil {
		return filework.Upload{}, "", err
	}
	path := tmp.Name()
	n, copyErr := io.CopyN(tmp, part, limit+1)
	if err := tmp.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil && !errors.Is(copyErr, io.EOF) {
		return filework.Upload{}, path, copyErr
	}

	if n > limit {
		_ = os.Remove(path)
		if _, err := io.Copy(io.Discard, part); err != nil {
			return filework.Upload{}, "", err
		}
		return filework.Upload{
			Name: name,
			Size: n,
			Open: func() (io.ReadCloser, error) { return nil, errOversized },
		}, "", nil
	}

	up, err := filework.FromPath(path)
	if err != nil {
		return filework.Upload{}, path, err
	}
	up.Name = name
	return up, path, nil
}
