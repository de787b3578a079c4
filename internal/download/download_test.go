package download

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSniffsImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	f, err := Fetch(context.Background(), srv.URL+"/toys/Red%20Ball.jpeg?v=2")
	require.NoError(t, err)
	assert.Equal(t, ".png", f.Ext)
	assert.Equal(t, "image/png", f.MIME)
	assert.Equal(t, "Red Ball", f.Name)
	assert.Equal(t, "Red Ball.png", f.FileName())
	assert.Equal(t, buf.Bytes(), f.Data)
}

func TestFetchContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		w.Header().Set("Content-Disposition", `attachment; filename="owl.webp"`)
		_, _ = w.Write([]byte("not really webp"))
	}))
	defer srv.Close()

	f, err := Fetch(context.Background(), srv.URL+"/get")
	require.NoError(t, err)
	assert.Equal(t, "owl", f.Name)
	assert.Equal(t, ".webp", f.Ext)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := Fetch(context.Background(), srv.URL+"/missing.png")
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/a.png"))
	assert.False(t, IsRemote("./assets/toys/a.png"))
	assert.False(t, IsRemote("idb:u_1"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "download", sanitizeFilename("  "))
	assert.Equal(t, "a_b", sanitizeFilename("a/b"))
	assert.Equal(t, "ёлка", sanitizeFilename("ёлка"))
}
