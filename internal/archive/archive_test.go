package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tree-decor/internal/blobstore"
	"tree-decor/internal/catalog"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = b
	}
	return files
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.New(blobstore.NewMemory())
	img := pngBytes(t)
	require.NoError(t, blobs.Put(ctx, "u_a", img))
	require.NoError(t, blobs.Put(ctx, "u_b", img))
	require.NoError(t, blobs.Put(ctx, "u_c", img))

	entries := []catalog.Entry{
		{ID: "ball", Name: "Ball", Image: catalog.External("./assets/toys/ball.webp"), DefaultScale: 0.2},
		{ID: "u_a", Name: "Owl", Image: catalog.Stored("u_a"), DefaultScale: 0.3, ExportFilename: "owl.png"},
		{ID: "u_b", Name: "  ", Attribution: "Ann Lee", Image: catalog.Stored("u_b"), DefaultScale: 0.3, ExportFilename: "b.webp"},
		{ID: "u_c", Name: "Owl", Image: catalog.Stored("u_c"), DefaultScale: 0.3, ExportFilename: "owl.png"},
		{ID: "u_gone", Name: "Gone", Image: catalog.Stored("u_gone"), DefaultScale: 0.3},
	}
	decor := []byte(`[{"catalogId":"u_a","attribution":null,"note":null,"position":{"x":1,"y":2,"z":3},"scale":0.3}]`)

	var buf bytes.Buffer
	rep, err := Export{Catalog: entries, Decor: decor, Blobs: blobs}.Write(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Entries)
	assert.Equal(t, []string{"u_gone"}, rep.Skipped)
	assert.Equal(t, []string{
		"assets/toys/owl.png",
		"assets/toys/Ann_Lee-u_b.png",
		"assets/toys/owl-u_c.png",
	}, rep.Assets)

	files := readZip(t, buf.Bytes())
	assert.JSONEq(t, string(decor), string(files["decor.json"]))
	assert.Equal(t, img, files["assets/toys/owl.png"])

	list, err := catalog.Decode(files["catalog.json"])
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "./assets/toys/ball.webp", list[0].Image.String())
	assert.Equal(t, "./assets/toys/owl.png", list[1].Image.String())
	assert.False(t, list[1].Image.IsStored())
	assert.Equal(t, "owl.png", list[1].ExportFilename)
	assert.Equal(t, "Ann_Lee-u_b.png", list[2].ExportFilename)
	assert.Equal(t, "owl-u_c.png", list[3].ExportFilename)

	// Input entries are not modified.
	assert.True(t, entries[1].Image.IsStored())
}

func TestExportEmptyDecor(t *testing.T) {
	var buf bytes.Buffer
	_, err := Export{Catalog: []catalog.Entry{{ID: "a", Image: catalog.External("a.png")}}}.Write(context.Background(), &buf)
	require.NoError(t, err)
	files := readZip(t, buf.Bytes())
	assert.Equal(t, "[]", string(files["decor.json"]))
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(files["catalog.json"], &raw))
	assert.Len(t, raw, 1)
}

func TestWriteFileThenUnzip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blobs := blobstore.New(blobstore.NewMemory())
	require.NoError(t, blobs.Put(ctx, "u_a", pngBytes(t)))

	zipPath := filepath.Join(dir, "out", "tree-export.zip")
	_, err := Export{
		Catalog: []catalog.Entry{{ID: "u_a", Name: "Owl", Image: catalog.Stored("u_a")}},
		Decor:   []byte(`[]`),
		Blobs:   blobs,
	}.WriteFile(ctx, zipPath)
	require.NoError(t, err)

	content := filepath.Join(dir, "content")
	files, err := Unzip(zipPath, content)
	require.NoError(t, err)
	assert.Len(t, files, 3)
	_, err = os.Stat(filepath.Join(content, "assets", "toys", "Owl-u_a.png"))
	assert.NoError(t, err)
	_, err = catalog.LoadBase(filepath.Join(content, "catalog.json"))
	assert.NoError(t, err)
}

func TestUnzipSkipsEscapes(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range []string{"../escape.txt", "ok/inside.txt"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, _ = w.Write([]byte("x"))
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	files, err := Unzip(zipPath, filepath.Join(dir, "dest"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}
