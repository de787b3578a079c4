package textures

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tree-decor/internal/blobstore"
	"tree-decor/internal/catalog"
	"tree-decor/internal/faults"
)

func pngBytes(t *testing.T, w int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, w))))
	return buf.Bytes()
}

type gatedFetcher struct {
	gate  chan struct{}
	data  []byte
	fail  atomic.Bool
	calls atomic.Int32
}

func (g *gatedFetcher) Fetch(ctx context.Context, _ catalog.ImageRef) ([]byte, error) {
	g.calls.Add(1)
	<-g.gate
	if g.fail.Load() {
		return nil, errors.New("boom")
	}
	return g.data, nil
}

func lookupAll(id string) (catalog.Entry, bool) {
	if id == "unknown" {
		return catalog.Entry{}, false
	}
	return catalog.Entry{ID: id, Image: catalog.Stored(id)}, true
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	f := &gatedFetcher{gate: make(chan struct{}), data: pngBytes(t, 3)}
	c := NewCache(lookupAll, f, nil)

	var wg sync.WaitGroup
	imgs := make([]image.Image, 8)
	for i := range imgs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, err := c.Load(context.Background(), "ball")
			assert.NoError(t, err)
			imgs[i] = img
		}(i)
	}
	require.Eventually(t, func() bool {
		_, st := c.Peek("ball")
		return st == Pending
	}, time.Second, time.Millisecond)
	c.Request("ball")
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, int64(1), c.Fetches())
	for _, img := range imgs {
		assert.Same(t, imgs[0], img)
	}
	img, st := c.Peek("ball")
	assert.Equal(t, Ready, st)
	assert.Equal(t, 3, img.Bounds().Dx())

	// Ready images are served without another fetch.
	_, err := c.Load(context.Background(), "ball")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestFailureIsRetriedByLoad(t *testing.T) {
	f := &gatedFetcher{gate: make(chan struct{}), data: pngBytes(t, 2)}
	close(f.gate)
	f.fail.Store(true)
	c := NewCache(lookupAll, f, nil)

	_, err := c.Load(context.Background(), "ball")
	require.Error(t, err)
	_, st := c.Peek("ball")
	assert.Equal(t, Failed, st)

	c.Request("ball")
	assert.Equal(t, int32(1), f.calls.Load(), "Request leaves failed ids alone")

	f.fail.Store(false)
	_, err = c.Load(context.Background(), "ball")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestForgetDropsImage(t *testing.T) {
	f := &gatedFetcher{gate: make(chan struct{}), data: pngBytes(t, 2)}
	close(f.gate)
	c := NewCache(lookupAll, f, nil)
	_, err := c.Load(context.Background(), "ball")
	require.NoError(t, err)

	c.Forget("ball")
	_, st := c.Peek("ball")
	assert.Equal(t, Missing, st)
	_, err = c.Load(context.Background(), "ball")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestAspect(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 4))))
	f := &gatedFetcher{gate: make(chan struct{}), data: buf.Bytes()}
	close(f.gate)
	c := NewCache(lookupAll, f, nil)
	assert.Equal(t, float32(1), c.Aspect("wide"))
	_, err := c.Load(context.Background(), "wide")
	require.NoError(t, err)
	assert.Equal(t, float32(2), c.Aspect("wide"))
}

func TestUnknownIDAndBadBytes(t *testing.T) {
	f := &gatedFetcher{gate: make(chan struct{}), data: []byte("garbage")}
	close(f.gate)
	c := NewCache(lookupAll, f, nil)

	_, err := c.Load(context.Background(), "unknown")
	assert.ErrorIs(t, err, faults.ErrNotFound)
	_, err = c.Load(context.Background(), "ball")
	assert.ErrorIs(t, err, faults.ErrMalformedInput)
}

func TestLoadHonoursContext(t *testing.T) {
	f := &gatedFetcher{gate: make(chan struct{}), data: pngBytes(t, 2)}
	defer close(f.gate)
	c := NewCache(lookupAll, f, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Load(ctx, "ball")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSourceFetch(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets", "toys"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "toys", "ball.png"), []byte("file"), 0o644))
	blobs := blobstore.New(blobstore.NewMemory())
	require.NoError(t, blobs.Put(ctx, "u_1", []byte("blob")))
	src := Source{Blobs: blobs, Root: root}

	got, err := src.Fetch(ctx, catalog.ParseImageRef("./assets/toys/ball.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("file"), got)

	got, err = src.Fetch(ctx, catalog.ParseImageRef("idb:u_1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), got)

	_, err = src.Fetch(ctx, catalog.ParseImageRef("./assets/toys/none.png"))
	assert.ErrorIs(t, err, faults.ErrNotFound)
}
