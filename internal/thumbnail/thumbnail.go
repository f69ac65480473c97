// Package thumbnail renders small PNG previews of image attachments.
package thumbnail

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const DefaultMaxSide = 256

// MaxSourceBytes bounds what we are willing to decode.
const MaxSourceBytes = 20 << 20

var (
	ErrUnsupported = errors.New("thumbnail: unsupported image type")
	ErrDecode      = errors.New("thumbnail: unable to decode image")
	ErrTooLarge    = errors.New("thumbnail: image too large to preview")
)

var supported = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Supported reports whether a declared content type can be previewed.
func Supported(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return supported[ct]
}

// Render decodes raw and returns a PNG whose longest side is at most maxSide.
// Images already small enough keep their size.
func Render(raw []byte, maxSide int) ([]byte, error) {
	if len(raw) > MaxSourceBytes {
		return nil, ErrTooLarge
	}
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	if !Supported(http.DetectContentType(raw)) {
		return nil, ErrUnsupported
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, webpErr := webp.Decode(bytes.NewReader(raw))
		if webpErr != nil {
			return nil, ErrDecode
		}
		img = decoded
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrDecode
	}
	tw, th := fit(w, h, maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func fit(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		nh := h * maxSide / w
		if nh < 1 {
			nh = 1
		}
		return maxSide, nh
	}
	nw := w * maxSide / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxSide
}
