package apiclient

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

// DownloadRef is the short-lived pointer the backend hands out for a file.
type DownloadRef struct {
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type UploadResult struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func filePath(id int64) string {
	return "/api/files/" + strconv.FormatInt(id, 10) + "/"
}

func (c *Client) ListFiles(ctx context.Context, sess *session.Session, studentID int64) (ListResult[student.File], error) {
	raw, err := c.doRaw(ctx, sess, request{method: http.MethodGet, path: studentPath(studentID) + "files/"})
	if err != nil {
		return ListResult[student.File]{}, err
	}
	return NormalizeList[student.File](raw), nil
}

func (c *Client) UploadFile(ctx context.Context, sess *session.Session, studentID int64, filename string, content io.Reader) (UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, errors.Wrap(err, "prepare upload")
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadResult{}, errors.Wrap(err, "read upload")
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, errors.Wrap(err, "finalize upload")
	}

	var out UploadResult
	err = c.doJSON(ctx, sess, request{
		method:      http.MethodPost,
		path:        studentPath(studentID) + "files/",
		body:        &body,
		contentType: writer.FormDataContentType(),
	}, &out)
	return out, err
}

func (c *Client) DeleteFile(ctx context.Context, sess *session.Session, fileID int64) error {
	return c.doJSON(ctx, sess, request{method: http.MethodDelete, path: filePath(fileID)}, nil)
}

func (c *Client) FileDownloadRef(ctx context.Context, sess *session.Session, fileID int64) (DownloadRef, error) {
	var out DownloadRef
	err := c.doJSON(ctx, sess, request{method: http.MethodGet, path: filePath(fileID) + "download/"}, &out)
	if err == nil && strings.TrimSpace(out.DownloadURL) == "" {
		return out, errors.New("api: download reference carried no url")
	}
	return out, err
}

// FetchDownload follows a reference. The token is only sent when the
// reference points back at the API host.
func (c *Client) FetchDownload(ctx context.Context, sess *session.Session, ref DownloadRef) (Blob, error) {
	target, err := c.resolve(ref.DownloadURL)
	if err != nil {
		return Blob{}, err
	}
	blob, err := c.doBlob(ctx, sess, request{method: http.MethodGet, path: target, absolute: true})
	if err != nil {
		return Blob{}, err
	}
	if blob.ContentType == "" {
		blob.ContentType = ref.ContentType
	}
	return blob, nil
}

func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", errors.Wrap(err, "parse download url")
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", errors.Wrap(err, "parse base url")
	}
	return base.ResolveReference(u).String(), nil
}
