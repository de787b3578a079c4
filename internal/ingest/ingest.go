// Package ingest turns a user-supplied image file into the bytes the editor
// stores: checked to be an image, decoded, shrunk to fit MaxSide and
// re-encoded as PNG.
package ingest

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/webp" // decoder registration

	"tree-decor/internal/faults"
)

// MaxSide is the largest width or height kept after ingestion.
const MaxSide = 1024

// Result is a normalized image ready for the blob store.
type Result struct {
	Data   []byte
	Ext    string
	MIME   string
	Width  int
	Height int
}

// Normalize validates data as an image and returns it as PNG, scaled down so
// that neither side exceeds maxSide (MaxSide when maxSide <= 0). Smaller
// images keep their size.
func Normalize(data []byte, maxSide int) (Result, error) {
	if maxSide <= 0 {
		maxSide = MaxSide
	}
	if !filetype.IsImage(data) {
		return Result{}, fmt.Errorf("ingest: not an image: %w", faults.ErrMalformedInput)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("ingest: decode: %w: %w", faults.ErrMalformedInput, err)
	}
	w, h := Fit(img.Bounds().Dx(), img.Bounds().Dy(), maxSide)
	if w != img.Bounds().Dx() || h != img.Bounds().Dy() {
		img = transform.Resize(img, w, h, transform.Linear)
	}
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return Result{}, fmt.Errorf("ingest: encode %s as png: %w", format, err)
	}
	return Result{Data: buf.Bytes(), Ext: "png", MIME: "image/png", Width: w, Height: h}, nil
}

// Fit scales w×h down, keeping the aspect ratio, so the longer side is at
// most maxSide. Each side stays at least 1.
func Fit(w, h, maxSide int) (int, int) {
	longest := max(w, h)
	if longest <= maxSide || longest == 0 {
		return w, h
	}
	scale := float64(maxSide) / float64(longest)
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return nw, nh
}

// Extension reports the file extension matching the sniffed type of data,
// or fallback when unknown. JPEG data gets "jpg".
func Extension(data []byte, fallback string) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || kind.Extension == "" {
		return fallback
	}
	if kind.Extension == "jpeg" {
		return "jpg"
	}
	return kind.Extension
}
