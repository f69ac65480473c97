package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrTransport marks failures where no HTTP response was received.
	ErrTransport = errors.New("api: service unavailable")
	ErrEmptyBody = errors.New("api: empty response body")
)

// HTTPError is any non-success response from the backend.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	msg := e.Message()
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.Status, msg)
}

// Message extracts a human readable reason from the body.
func (e *HTTPError) Message() string {
	var payload map[string]any
	if err := json.Unmarshal(e.Body, &payload); err == nil {
		for _, key := range []string{"error", "detail", "message"} {
			if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		for key, v := range payload {
			if list, ok := v.([]any); ok && len(list) > 0 {
				if s, ok := list[0].(string); ok {
					return key + ": " + s
				}
			}
		}
	}
	text := strings.TrimSpace(string(e.Body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}

func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}

func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// UserMessage maps an API error onto the text shown to a teacher.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	switch {
	case IsTransport(err):
		return "Service unavailable, please try again"
	case IsUnauthorized(err):
		return "Your session has expired, please sign in again"
	case errors.As(err, &httpErr):
		if msg := httpErr.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}

type transportError struct {
	op  string
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.op, ErrTransport, e.err)
}

func (e *transportError) Unwrap() []error {
	return []error{ErrTransport, e.err}
}
