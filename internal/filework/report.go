package filework

import (
	"fmt"
	"strings"

	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

const sampleFailures = 3

type Failure struct {
	Name    string
	Message string
	Err     error
}

type BatchReport struct {
	Total     int
	Succeeded int
	Failures  []Failure
	// Files is the list fetched from the server after the batch.
	Files []student.File
}

func (r BatchReport) Failed() int {
	return len(r.Failures)
}

// Summary is the message shown after a batch: a count plus at most three
// sample failures.
func (r BatchReport) Summary() string {
	if r.Failed() == 0 {
		return fmt.Sprintf("%d file(s) uploaded successfully.", r.Succeeded)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d file(s) failed to upload:\n", r.Failed())
	for i, f := range r.Failures {
		if i == sampleFailures {
			b.WriteString("\n...")
			break
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.Name + ": " + f.Message)
	}
	return b.String()
}
