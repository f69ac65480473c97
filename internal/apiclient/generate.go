package apiclient

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

type generateRequest struct {
	Student student.Student `json:"student"`
}

// GenerateCertificate renders one certificate kind, addressed by its endpoint slug.
func (c *Client) GenerateCertificate(ctx context.Context, sess *session.Session, slug string, st student.Student) (Blob, error) {
	req, err := jsonRequest(http.MethodPost, "/api/generate/"+slug+"/", generateRequest{Student: st})
	if err != nil {
		return Blob{}, err
	}
	blob, err := c.doBlob(ctx, sess, req)
	if err != nil {
		return Blob{}, err
	}
	if len(blob.Data) == 0 {
		return Blob{}, ErrEmptyBody
	}
	return blob, nil
}

// GenerateAll renders the combined all-in-one document.
func (c *Client) GenerateAll(ctx context.Context, sess *session.Session, st student.Student) (Blob, error) {
	return c.GenerateCertificate(ctx, sess, "all", st)
}

type SummaryKind int

const (
	SummaryDocument SummaryKind = iota + 1
	SummaryText
)

// SummaryResult is either a finished document or narrative text.
type SummaryResult struct {
	Kind     SummaryKind
	Document Blob
	Text     string
}

func (r SummaryResult) IsDocument() bool { return r.Kind == SummaryDocument }

// GenerateSummary asks for the AI personality summary of a student.
func (c *Client) GenerateSummary(ctx context.Context, sess *session.Session, studentID int64) (SummaryResult, error) {
	req, err := jsonRequest(http.MethodPost, studentPath(studentID)+"personality-summary/", map[string]int64{
		"student_id": studentID,
	})
	if err != nil {
		return SummaryResult{}, err
	}
	blob, err := c.doBlob(ctx, sess, req)
	if err != nil {
		return SummaryResult{}, err
	}
	return ClassifySummary(blob)
}

// ClassifySummary decides the variant from the declared content type.
// Binary types are documents; JSON is searched for a text field; text/* is
// text. When text handling yields nothing the bytes are kept as a document.
func ClassifySummary(blob Blob) (SummaryResult, error) {
	if len(blob.Data) == 0 {
		return SummaryResult{}, ErrEmptyBody
	}
	document := SummaryResult{Kind: SummaryDocument, Document: blob}

	mediaType, _, err := mime.ParseMediaType(blob.ContentType)
	if err != nil {
		return document, nil
	}
	switch {
	case mediaType == "application/json":
		if text, ok := summaryTextFromJSON(blob.Data); ok {
			return SummaryResult{Kind: SummaryText, Text: text}, nil
		}
		return document, nil
	case strings.HasPrefix(mediaType, "text/"):
		if text := strings.TrimSpace(string(blob.Data)); text != "" {
			return SummaryResult{Kind: SummaryText, Text: text}, nil
		}
		return document, nil
	default:
		return document, nil
	}
}

// summaryKeys are tried in order; the first non-blank string wins.
var summaryKeys = []string{"html_content", "summary", "text", "html", "content"}

func summaryTextFromJSON(raw []byte) (string, bool) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", false
	}
	for _, key := range summaryKeys {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}
