package filework

import (
	"fmt"
	"path"
	"strings"
)

// DefaultMaxBytes is the upload ceiling: 100 MB.
const DefaultMaxBytes int64 = 100 << 20

// DeniedExtensions are refused whatever content type the browser declares.
var DeniedExtensions = []string{".exe", ".bat", ".cmd", ".scr", ".pif", ".com", ".vbs", ".js"}

type RejectReason int

const (
	ReasonTooLarge RejectReason = iota + 1
	ReasonDeniedType
)

// RejectError is returned before any network call for files the policy refuses.
type RejectError struct {
	Name    string
	Reason  RejectReason
	Message string
}

func (e *RejectError) Error() string {
	return e.Message
}

type Policy struct {
	MaxBytes         int64
	DeniedExtensions []string
}

func DefaultPolicy() Policy {
	return Policy{MaxBytes: DefaultMaxBytes, DeniedExtensions: DeniedExtensions}
}

func (p Policy) maxLabel() string {
	return fmt.Sprintf("%dMB", p.MaxBytes>>20)
}

// Check validates a file by name and size only.
func (p Policy) Check(name string, size int64) error {
	if size > p.MaxBytes {
		return &RejectError{
			Name:    name,
			Reason:  ReasonTooLarge,
			Message: "File size must be less than " + p.maxLabel(),
		}
	}
	ext := extension(name)
	for _, denied := range p.DeniedExtensions {
		if ext != "" && ext == denied {
			return &RejectError{
				Name:    name,
				Reason:  ReasonDeniedType,
				Message: "File type not allowed for security reasons",
			}
		}
	}
	return nil
}

// extension is the lower-cased text after the last dot of the base name.
func extension(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(base[i:]))
}
