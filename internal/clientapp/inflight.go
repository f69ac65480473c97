package clientapp

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/KaiSwain/hammer-portfolio-django/internal/session"
)

const (
	opUpload          = "upload"
	opDeleteFile      = "delete-file"
	opCertificates    = "certificates"
	opAllCertificates = "certificates-all"
	opSummary         = "summary"
)

// inflight tracks long operations per signed-in user, student and action.
// A second request for the same key is refused until the first returns.
type inflight struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{running: map[string]struct{}{}}
}

// begin claims the key. The returned func releases it; ok is false when the
// same operation is already running.
func (f *inflight) begin(sess *session.Session, studentID int64, op string) (func(), bool) {
	key := inflightKey(sess, studentID, op)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.running[key]; busy {
		return func() {}, false
	}
	f.running[key] = struct{}{}
	return func() {
		f.mu.Lock()
		delete(f.running, key)
		f.mu.Unlock()
	}, true
}

// inflightKey hashes the token so raw credentials are not kept as map keys.
func inflightKey(sess *session.Session, studentID int64, op string) string {
	sum := sha256.Sum256([]byte(sess.Token()))
	return hex.EncodeToString(sum[:8]) + "|" + strconv.FormatInt(studentID, 10) + "|" + op
}

func busyMessage(op string) string {
	switch op {
	case opUpload:
		return "An upload is already in progress for this student."
	case opDeleteFile:
		return "A file is already being deleted for this student."
	case opSummary:
		return "The AI summary is already being generated."
	default:
		return "Certificates are already being generated for this student."
	}
}
