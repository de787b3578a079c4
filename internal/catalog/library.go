package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tree-decor/internal/blobstore"
	"tree-decor/internal/faults"
	"tree-decor/internal/ingest"
	"tree-decor/internal/state"
)

// CustomKey is the state key of the user's own catalog entries.
const CustomKey = "tree_custom_catalog_v1"

// Upload describes an image the user wants to add as a new decoration type.
type Upload struct {
	FileName     string
	Data         []byte
	Name         string
	Attribution  string
	Note         string
	DefaultScale float32
}

// Library owns the custom entry list and the merged catalog built from it.
// It is used from the render goroutine only.
type Library struct {
	base   []Entry
	custom []Entry
	merged *Catalog

	state state.Store
	blobs *blobstore.Store
	log   *slog.Logger

	now  func() time.Time
	rand *rand.Rand
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithLibraryLogger sets the logger.
func WithLibraryLogger(l *slog.Logger) LibraryOption {
	return func(lib *Library) {
		if l != nil {
			lib.log = l
		}
	}
}

// WithClock overrides time and randomness used for new entry ids.
func WithClock(now func() time.Time, r *rand.Rand) LibraryOption {
	return func(lib *Library) {
		if now != nil {
			lib.now = now
		}
		if r != nil {
			lib.rand = r
		}
	}
}

// NewLibrary merges base with nothing yet; call Load to pull in the user's
// entries. st or blobs may be nil for a read-only (view mode) library.
func NewLibrary(base []Entry, st state.Store, blobs *blobstore.Store, opts ...LibraryOption) (*Library, error) {
	merged, err := Merge(base, nil)
	if err != nil {
		return nil, err
	}
	lib := &Library{
		base:   base,
		merged: merged,
		state:  st,
		blobs:  blobs,
		log:    slog.New(slog.DiscardHandler),
		now:    time.Now,
		rand:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x7ee)),
	}
	for _, o := range opts {
		o(lib)
	}
	return lib, nil
}

// Catalog returns the current merged view.
func (l *Library) Catalog() *Catalog { return l.merged }

// Custom returns the user's entries in insertion order.
func (l *Library) Custom() []Entry { return l.custom }

// Load reads the custom list from the state store and re-merges. A missing
// or malformed list leaves the library with base entries only.
func (l *Library) Load(ctx context.Context) error {
	if l.state == nil {
		return nil
	}
	data, err := l.state.Get(ctx, CustomKey)
	if errors.Is(err, faults.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("catalog: load custom: %w", err)
	}
	custom, err := Decode(data)
	if err != nil {
		l.log.Warn("custom catalog ignored", "err", err)
		return nil
	}
	return l.setCustom(custom)
}

func (l *Library) setCustom(custom []Entry) error {
	merged, err := Merge(l.base, custom)
	if err != nil {
		return err
	}
	l.custom = custom
	l.merged = merged
	return nil
}

func (l *Library) persist(ctx context.Context, custom []Entry) error {
	if custom == nil {
		custom = []Entry{}
	}
	data, err := json.Marshal(custom)
	if err != nil {
		return fmt.Errorf("catalog: encode custom: %w", err)
	}
	if err := l.state.Put(ctx, CustomKey, data); err != nil {
		return fmt.Errorf("catalog: save custom: %w", err)
	}
	return nil
}

// AddCustom ingests an uploaded image: the image is normalized, written to
// the blob store under a fresh id, and a new entry referencing it is appended
// to the custom list, persisted and merged. Nothing changes on error.
func (l *Library) AddCustom(ctx context.Context, up Upload) (Entry, error) {
	if l.state == nil || l.blobs == nil {
		return Entry{}, fmt.Errorf("catalog: add: library is read-only")
	}
	img, err := ingest.Normalize(up.Data, ingest.MaxSide)
	if err != nil {
		return Entry{}, fmt.Errorf("catalog: add: %w", err)
	}
	id := l.newID()
	ref := Stored(id)
	if err := l.blobs.Put(ctx, ref.Key(), img.Data); err != nil {
		return Entry{}, fmt.Errorf("catalog: add: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(up.FileName), filepath.Ext(up.FileName))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	name := strings.TrimSpace(up.Name)
	if name == "" {
		name = base
	}
	if name == "" {
		name = "Decoration"
	}
	scale := up.DefaultScale
	if scale <= 0 {
		scale = DefaultScale
	}
	entry := Entry{
		ID:             id,
		Name:           name,
		Image:          ref,
		DefaultScale:   scale,
		Attribution:    strings.TrimSpace(up.Attribution),
		Note:           strings.TrimSpace(up.Note),
		ExportFilename: SafeFilePart(base) + "." + img.Ext,
	}

	custom := append(append([]Entry(nil), l.custom...), entry)
	if err := l.persist(ctx, custom); err != nil {
		_ = l.blobs.Delete(ctx, ref.Key())
		return Entry{}, err
	}
	if err := l.setCustom(custom); err != nil {
		return Entry{}, err
	}
	l.log.Info("custom decoration added", "id", id, "name", name, "bytes", len(img.Data))
	return entry, nil
}

// RemoveCustom drops a user entry and its blob. Placed decorations that use
// it stop resolving on the next restore.
func (l *Library) RemoveCustom(ctx context.Context, id string) error {
	if l.state == nil {
		return fmt.Errorf("catalog: remove: library is read-only")
	}
	idx := -1
	for i, e := range l.custom {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("catalog: remove %q: %w", id, faults.ErrNotFound)
	}
	removed := l.custom[idx]
	custom := append(append([]Entry(nil), l.custom[:idx]...), l.custom[idx+1:]...)
	if err := l.persist(ctx, custom); err != nil {
		return err
	}
	if err := l.setCustom(custom); err != nil {
		return err
	}
	if removed.Image.IsStored() && l.blobs != nil {
		if err := l.blobs.Delete(ctx, removed.Image.Key()); err != nil {
			l.log.Warn("blob not removed", "id", id, "err", err)
		}
	}
	return nil
}

// newID returns "u_<base36 unix millis>_<5 base36 chars>".
func (l *Library) newID() string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var suffix [5]byte
	for i := range suffix {
		suffix[i] = digits[l.rand.IntN(len(digits))]
	}
	return "u_" + strconv.FormatInt(l.now().UnixMilli(), 36) + "_" + string(suffix[:])
}
