package certgen

import (
	"archive/tar"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"
)

// WriteBundle packs files into a tar stream compressed with xz.
func WriteBundle(w io.Writer, files []File) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)
	now := time.Now()
	for _, f := range files {
		hdr := &tar.Header{
			Name:    filepath.Base(f.Name),
			Mode:    0o644,
			Size:    int64(len(f.Data)),
			ModTime: now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("bundle header %s: %w", f.Name, err)
		}
		if _, err := tw.Write(f.Data); err != nil {
			return fmt.Errorf("bundle write %s: %w", f.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return xw.Close()
}

// ReadBundle lists the files inside a bundle produced by WriteBundle.
func ReadBundle(r io.Reader) ([]File, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	tr := tar.NewReader(xr)
	var out []File
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		out = append(out, File{Name: hdr.Name, Data: data, ContentType: contentTypeFor(hdr.Name)})
	}
}

func contentTypeFor(name string) string {
	switch filepath.Ext(name) {
	case ".pdf":
		return "application/pdf"
	case ".html":
		return "text/html; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}
