// Package textures resolves what a decoration looks like: it fetches the
// image behind a catalog entry (blob store, content directory or the web)
// and decodes it off the render goroutine. GPU upload is left to the
// renderer, which polls Peek each frame.
package textures

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	_ "golang.org/x/image/webp" // decoder registration

	"tree-decor/internal/blobstore"
	"tree-decor/internal/catalog"
	"tree-decor/internal/download"
	"tree-decor/internal/faults"
)

// Status describes a cache slot.
type Status int

const (
	Missing Status = iota // never requested or forgotten
	Pending               // fetch in flight
	Ready
	Failed
)

// Fetcher returns the encoded image bytes behind ref.
type Fetcher interface {
	Fetch(ctx context.Context, ref catalog.ImageRef) ([]byte, error)
}

// Source is the default Fetcher: stored refs come from the blob store,
// http(s) refs are downloaded and everything else is read relative to Root.
type Source struct {
	Blobs *blobstore.Store
	Root  string
}

func (s Source) Fetch(ctx context.Context, ref catalog.ImageRef) ([]byte, error) {
	if ref.IsStored() {
		if s.Blobs == nil {
			return nil, fmt.Errorf("textures: %s: no blob store: %w", ref, faults.ErrNotFound)
		}
		return s.Blobs.Get(ctx, ref.Key())
	}
	if download.IsRemote(ref.Value) {
		f, err := download.Fetch(ctx, ref.Value)
		if err != nil {
			return nil, err
		}
		return f.Data, nil
	}
	p := filepath.FromSlash(strings.TrimPrefix(ref.Value, "./"))
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.Root, p)
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("textures: %s: %w", p, faults.ErrNotFound)
	}
	return data, err
}

type call struct {
	done chan struct{}
	img  image.Image
	err  error
}

// Cache memoizes decoded images per catalog id. At most one fetch per id is
// in flight; every concurrent caller shares its result. The first successful
// load is kept for the session until Forget. Failures are remembered for
// Peek but not cached: the next Load retries.
type Cache struct {
	mu       sync.Mutex
	lookup   func(id string) (catalog.Entry, bool)
	fetch    Fetcher
	log      *slog.Logger
	ready    map[string]image.Image
	inflight map[string]*call
	failed   map[string]error
	fetches  atomic.Int64
}

// NewCache returns a cache resolving ids through lookup and bytes through fetch.
func NewCache(lookup func(id string) (catalog.Entry, bool), fetch Fetcher, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		lookup:   lookup,
		fetch:    fetch,
		log:      log,
		ready:    make(map[string]image.Image),
		inflight: make(map[string]*call),
		failed:   make(map[string]error),
	}
}

// SetLookup replaces the id resolver, e.g. after the catalog was re-merged.
func (c *Cache) SetLookup(lookup func(id string) (catalog.Entry, bool)) {
	c.mu.Lock()
	c.lookup = lookup
	c.mu.Unlock()
}

// Load returns the decoded image for id, fetching it if needed. It blocks
// until the image is available or ctx is done. Cancelling ctx does not
// cancel a fetch other callers may be waiting on.
func (c *Cache) Load(ctx context.Context, id string) (image.Image, error) {
	c.mu.Lock()
	if img, ok := c.ready[id]; ok {
		c.mu.Unlock()
		return img, nil
	}
	cl, ok := c.inflight[id]
	if !ok {
		cl = &call{done: make(chan struct{})}
		c.inflight[id] = cl
		delete(c.failed, id)
		lookup := c.lookup
		c.mu.Unlock()
		go c.run(context.WithoutCancel(ctx), id, lookup, cl)
	} else {
		c.mu.Unlock()
	}
	select {
	case <-cl.done:
		return cl.img, cl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Request starts loading id without waiting. Ids that are ready, pending or
// failed are left alone.
func (c *Cache) Request(id string) {
	c.mu.Lock()
	_, ready := c.ready[id]
	_, pending := c.inflight[id]
	_, failed := c.failed[id]
	if ready || pending || failed {
		c.mu.Unlock()
		return
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[id] = cl
	lookup := c.lookup
	c.mu.Unlock()
	go c.run(context.Background(), id, lookup, cl)
}

// Peek returns the image for id if it is ready, plus the slot status. It never blocks.
func (c *Cache) Peek(id string) (image.Image, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if img, ok := c.ready[id]; ok {
		return img, Ready
	}
	if _, ok := c.inflight[id]; ok {
		return nil, Pending
	}
	if _, ok := c.failed[id]; ok {
		return nil, Failed
	}
	return nil, Missing
}

// Aspect returns width/height of the ready image for id, or 1 while the
// image is not ready.
func (c *Cache) Aspect(id string) float32 {
	img, st := c.Peek(id)
	if st != Ready {
		return 1
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return 1
	}
	return float32(b.Dx()) / float32(b.Dy())
}

// Forget drops everything known about id. A fetch still in flight for it
// completes for its waiters but is not stored.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	delete(c.ready, id)
	delete(c.inflight, id)
	delete(c.failed, id)
	c.mu.Unlock()
}

// Fetches returns how many fetches were started.
func (c *Cache) Fetches() int64 { return c.fetches.Load() }

func (c *Cache) run(ctx context.Context, id string, lookup func(string) (catalog.Entry, bool), cl *call) {
	c.fetches.Add(1)
	cl.img, cl.err = c.fetchDecode(ctx, id, lookup)

	c.mu.Lock()
	if c.inflight[id] == cl {
		delete(c.inflight, id)
		if cl.err == nil {
			if _, ok := c.ready[id]; !ok {
				c.ready[id] = cl.img
			}
		} else {
			c.failed[id] = cl.err
		}
	}
	c.mu.Unlock()
	close(cl.done)

	if cl.err != nil {
		c.log.Warn("texture load failed", "id", id, "err", cl.err)
	} else {
		c.log.Debug("texture ready", "id", id)
	}
}

func (c *Cache) fetchDecode(ctx context.Context, id string, lookup func(string) (catalog.Entry, bool)) (image.Image, error) {
	if lookup == nil {
		return nil, fmt.Errorf("textures: %q: %w", id, faults.ErrNotFound)
	}
	entry, ok := lookup(id)
	if !ok {
		return nil, fmt.Errorf("textures: catalog id %q: %w", id, faults.ErrNotFound)
	}
	data, err := c.fetch.Fetch(ctx, entry.Image)
	if err != nil {
		return nil, fmt.Errorf("textures: %q: %w", id, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("textures: decode %q: %w: %w", id, faults.ErrMalformedInput, err)
	}
	return img, nil
}
