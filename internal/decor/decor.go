// Package decor owns the list of placed decorations and its persisted form.
//
// The list is the source of truth: renderers and hit tests read List() every
// frame. Every mutation is followed by Persist, which replaces the whole
// stored document.
package decor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"tree-decor/internal/faults"
	"tree-decor/internal/state"
)

const (
	// StateKey is where build mode keeps the arrangement.
	StateKey = "tree_decor_v1"

	// MinScale and MaxScale bound every decoration's scale.
	MinScale float32 = 0.06
	MaxScale float32 = 1.20
)

// Decoration is one placed billboard.
type Decoration struct {
	CatalogID   string
	Position    rl.Vector3
	Scale       float32
	Attribution string
	Note        string
}

// Clamp limits s to [MinScale, MaxScale].
func Clamp(s float32) float32 {
	return rl.Clamp(s, MinScale, MaxScale)
}

// Store holds the ordered decoration list. Decorations are addressed by
// pointer; a pointer stays valid until the decoration is removed.
type Store struct {
	items    []*Decoration
	state    state.Store
	key      string
	readOnly bool
	log      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithKey overrides the state key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// ReadOnly makes Persist and Clear leave the medium untouched (view mode).
func ReadOnly() Option {
	return func(s *Store) { s.readOnly = true }
}

// NewStore returns an empty list backed by st.
func NewStore(st state.Store, opts ...Option) *Store {
	s := &Store{state: st, key: StateKey, log: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns the decorations in placement order. The slice must not be modified.
func (s *Store) List() []*Decoration { return s.items }

// Len returns the number of decorations.
func (s *Store) Len() int { return len(s.items) }

// Add appends d with its scale clamped and returns it.
func (s *Store) Add(d Decoration) *Decoration {
	d.Scale = Clamp(d.Scale)
	p := &d
	s.items = append(s.items, p)
	return p
}

// Remove drops d from the list. It reports false if d is not in the list.
func (s *Store) Remove(d *Decoration) bool {
	i := s.IndexOf(d)
	if i < 0 {
		return false
	}
	copy(s.items[i:], s.items[i+1:])
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return true
}

// IndexOf returns the position of d in the list or -1.
func (s *Store) IndexOf(d *Decoration) int {
	for i, it := range s.items {
		if it == d {
			return i
		}
	}
	return -1
}

// At returns the decoration at index i, or nil when out of range.
func (s *Store) At(i int) *Decoration {
	if i < 0 || i >= len(s.items) {
		return nil
	}
	return s.items[i]
}

// Clear empties the list and deletes the persisted form.
func (s *Store) Clear(ctx context.Context) error {
	s.items = nil
	if s.readOnly || s.state == nil {
		return nil
	}
	if err := s.state.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("decor: clear: %w", err)
	}
	return nil
}

// Persist writes the whole list, replacing what was stored. In-memory state
// is never rolled back on failure.
func (s *Store) Persist(ctx context.Context) error {
	if s.readOnly || s.state == nil {
		return nil
	}
	data, err := Encode(s.items)
	if err != nil {
		return err
	}
	if err := s.state.Put(ctx, s.key, data); err != nil {
		s.log.Warn("persist failed", "key", s.key, "count", len(s.items), "err", err)
		return fmt.Errorf("decor: persist: %w", err)
	}
	s.log.Debug("persisted", "key", s.key, "count", len(s.items))
	return nil
}

// Resolver reports whether a catalog id exists.
type Resolver func(catalogID string) bool

// Restore replaces the list with the persisted one. Missing or malformed
// data gives an empty list; records whose catalog id does not resolve are
// dropped; scales are clamped and records without a scale use defaultScale.
// Only a medium failure is an error, and it leaves the list empty.
func (s *Store) Restore(ctx context.Context, resolve Resolver, defaultScale float32) ([]*Decoration, error) {
	s.items = nil
	if s.state == nil {
		return s.items, nil
	}
	data, err := s.state.Get(ctx, s.key)
	if errors.Is(err, faults.ErrNotFound) {
		return s.items, nil
	}
	if err != nil {
		return s.items, fmt.Errorf("decor: restore: %w", err)
	}
	list, err := Decode(data, defaultScale)
	if err != nil {
		s.log.Warn("saved arrangement ignored", "key", s.key, "err", err)
		return s.items, nil
	}
	dropped := 0
	for _, d := range list {
		if resolve != nil && !resolve(d.CatalogID) {
			dropped++
			continue
		}
		s.Add(d)
	}
	if dropped > 0 {
		s.log.Info("dropped decorations with unknown catalog ids", "count", dropped)
	}
	return s.items, nil
}
