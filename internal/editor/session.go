// Package editor is the placement state machine: it turns pointer events and
// editing commands into changes of the decoration list.
package editor

import (
	"tree-decor/internal/catalog"
	"tree-decor/internal/decor"
)

// Session is the editing context of one open arrangement: which catalog is
// in view, which entry new decorations use, the scale they get, the current
// selection and whether editing is allowed at all.
type Session struct {
	Catalog        *catalog.Catalog
	ActiveID       string
	PlacementScale float32
	Selected       *decor.Decoration
	Editing        bool
	closed         bool
}

// NewSession starts a session over cat. The first catalog entry becomes the
// active one and its default scale the placement scale.
func NewSession(cat *catalog.Catalog, editing bool) *Session {
	s := &Session{Editing: editing, PlacementScale: catalog.DefaultScale}
	s.SetCatalog(cat)
	if first, ok := cat.First(); ok && first.DefaultScale > 0 {
		s.PlacementScale = decor.Clamp(first.DefaultScale)
	}
	return s
}

// SetCatalog swaps in a new merged catalog, e.g. after a custom entry was
// added. The active id is kept when it still resolves.
func (s *Session) SetCatalog(cat *catalog.Catalog) {
	s.Catalog = cat
	if s.ActiveID != "" && cat.Has(s.ActiveID) {
		return
	}
	s.ActiveID = ""
	if first, ok := cat.First(); ok {
		s.ActiveID = first.ID
	}
}

// SelectCatalog makes id the entry used for new placements. Unknown ids are ignored.
func (s *Session) SelectCatalog(id string) bool {
	if !s.Catalog.Has(id) {
		return false
	}
	s.ActiveID = id
	return true
}

// Active returns the entry used for new placements.
func (s *Session) Active() (catalog.Entry, bool) {
	if s.ActiveID == "" {
		return catalog.Entry{}, false
	}
	return s.Catalog.Lookup(s.ActiveID)
}

// Close ends the session. Further events are ignored.
func (s *Session) Close() {
	s.Selected = nil
	s.Editing = false
	s.closed = true
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed }
