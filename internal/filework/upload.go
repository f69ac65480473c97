package filework

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Upload describes one file picked by the user. Open is only called once the
// file has passed the policy.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

func FromPath(p string) (Upload, error) {
	info, err := os.Stat(p)
	if err != nil {
		return Upload{}, err
	}
	return Upload{
		Name: filepath.Base(p),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(p) },
	}, nil
}

func FromMultipart(header *multipart.FileHeader) Upload {
	return Upload{
		Name: header.Filename,
		Size: header.Size,
		Open: func() (io.ReadCloser, error) { return header.Open() },
	}
}

func FromBytes(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}
