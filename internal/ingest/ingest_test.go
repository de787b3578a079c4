package ingest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tree-decor/internal/faults"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 1024, 100, 50},
		{2048, 1024, 1024, 1024, 512},
		{1000, 3000, 1024, 341, 1024},
		{5000, 1, 1024, 1024, 1},
	}
	for _, tt := range tests {
		w, h := Fit(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w, "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, h, "%dx%d", tt.w, tt.h)
	}
}

func TestNormalizeShrinks(t *testing.T) {
	res, err := Normalize(pngOf(t, 64, 32), 16)
	require.NoError(t, err)
	assert.Equal(t, "png", res.Ext)
	assert.Equal(t, 16, res.Width)
	assert.Equal(t, 8, res.Height)

	cfg, err := png.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)
}

func TestNormalizeKeepsSmall(t *testing.T) {
	res, err := Normalize(pngOf(t, 10, 12), 0)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Width)
	assert.Equal(t, 12, res.Height)
}

func TestNormalizeRejectsNonImage(t *testing.T) {
	_, err := Normalize([]byte("definitely not a picture"), 0)
	assert.ErrorIs(t, err, faults.ErrMalformedInput)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "png", Extension(pngOf(t, 2, 2), "bin"))
	assert.Equal(t, "bin", Extension([]byte("plain"), "bin"))
	assert.Equal(t, "jpg", Extension([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0}, "bin"))
}
