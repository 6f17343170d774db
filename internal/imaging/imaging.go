// Package imaging normalizes uploaded part photos before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/erazemk/sparetrack/internal/model"
)

// Photo limits.
const (
	MaxUploadBytes = 5 << 20
	MaxDimension   = 1024
	JPEGQuality    = 85
)

// StoredMIME is the content type of every normalized photo.
const StoredMIME = "image/jpeg"

var decoders = map[string]func([]byte) (image.Image, error){
	"image/jpeg": func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) },
	"image/png":  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
}

// ErrUnsupportedFormat is returned for uploads that are neither JPEG nor PNG.
var ErrUnsupportedFormat = fmt.Errorf("photo must be JPEG or PNG: %w", model.ErrInvalidInput)

// NormalizePhoto sniffs the upload, fits it within MaxDimension and
// re-encodes it as JPEG on a white background.
func NormalizePhoto(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty photo: %w", model.ErrInvalidInput)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("photo exceeds %d bytes: %w", MaxUploadBytes, model.ErrInvalidInput)
	}

	decode, ok := decoders[http.DetectContentType(data)]
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	src, err := decode(data)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("decoding photo: %w", err), model.ErrInvalidInput)
	}

	dst := flatten(src, fit(src.Bounds(), MaxDimension))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}
	return buf.Bytes(), nil
}

// fit returns the target rectangle for b scaled down so neither side
// exceeds maxDim. Smaller images keep their size.
func fit(b image.Rectangle, maxDim int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return image.Rect(0, 0, w, h)
	}
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	return image.Rect(0, 0, w, h)
}

// flatten draws src scaled into a new opaque image of size r.
func flatten(src image.Image, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(r)
	draw.Draw(dst, r, image.NewUniform(color.White), image.Point{}, draw.Src)
	if r.Size() == src.Bounds().Size() {
		draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, r, src, src.Bounds(), draw.Over, nil)
	}
	return dst
}
