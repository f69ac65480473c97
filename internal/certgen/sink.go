package certgen

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a generated document ready to hand to the user.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Sink receives each generated file exactly once.
type Sink interface {
	Deliver(File) error
}

type SinkFunc func(File) error

func (f SinkFunc) Deliver(file File) error { return f(file) }

// DirSink writes files into a directory, replacing same-named files.
type DirSink struct {
	Dir string
}

func (d DirSink) Deliver(f File) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", d.Dir, err)
	}
	target := filepath.Join(d.Dir, filepath.Base(f.Name))
	if err := os.WriteFile(target, f.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// MemorySink keeps delivered files, e.g. to bundle them afterwards.
type MemorySink struct {
	mu    sync.Mutex
	files []File
}

func (m *MemorySink) Deliver(f File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, f)
	return nil
}

func (m *MemorySink) Files() []File {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]File, len(m.files))
	copy(out, m.files)
	return out
}
