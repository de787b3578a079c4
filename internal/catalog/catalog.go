// Package catalog holds the decoration types a user can place: a built-in
// list shipped with the content plus the entries the user added. Merge
// combines the two; Library owns the user's list and its persistence.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"tree-decor/internal/faults"
)

// DefaultScale is used for entries that do not carry a positive defaultScale.
const DefaultScale float32 = 0.26

// Entry is one decoration type.
type Entry struct {
	ID             string
	Name           string
	Image          ImageRef
	DefaultScale   float32
	Attribution    string
	Note           string
	ExportFilename string
}

type entryJSON struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Image          *ImageRef `json:"imageRef,omitempty"`
	URL            *ImageRef `json:"url,omitempty"`
	DefaultScale   float32   `json:"defaultScale"`
	Attribution    *string   `json:"attribution"`
	By             *string   `json:"by,omitempty"`
	Note           *string   `json:"note"`
	ExportFilename *string   `json:"exportFilename"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (e Entry) MarshalJSON() ([]byte, error) {
	img := e.Image
	return json.Marshal(entryJSON{
		ID:             e.ID,
		Name:           e.Name,
		Image:          &img,
		DefaultScale:   e.DefaultScale,
		Attribution:    nullable(e.Attribution),
		Note:           nullable(e.Note),
		ExportFilename: nullable(e.ExportFilename),
	})
}

// UnmarshalJSON accepts the current field names and the older "url"/"by".
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Entry{
		ID:             raw.ID,
		Name:           raw.Name,
		DefaultScale:   raw.DefaultScale,
		Attribution:    deref(raw.Attribution),
		Note:           deref(raw.Note),
		ExportFilename: deref(raw.ExportFilename),
	}
	switch {
	case raw.Image != nil:
		out.Image = *raw.Image
	case raw.URL != nil:
		out.Image = *raw.URL
	}
	if out.Attribution == "" {
		out.Attribution = deref(raw.By)
	}
	if out.DefaultScale <= 0 {
		out.DefaultScale = DefaultScale
	}
	*e = out
	return nil
}

// Catalog is a merged, ordered view of entries with lookup by id.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// Merge returns base followed by custom, keyed by id. A custom entry with an
// id already present replaces that entry in place; entries without an id
// are skipped. A base without a single usable entry is a malformed catalog.
func Merge(base, custom []Entry) (*Catalog, error) {
	if len(base) == 0 {
		return nil, fmt.Errorf("catalog: base catalog is empty: %w", faults.ErrMalformedInput)
	}
	c := &Catalog{
		entries: make([]Entry, 0, len(base)+len(custom)),
		index:   make(map[string]int, len(base)+len(custom)),
	}
	for i, list := range [2][]Entry{base, custom} {
		if i == 1 && len(c.entries) == 0 {
			return nil, fmt.Errorf("catalog: base catalog has no ids: %w", faults.ErrMalformedInput)
		}
		for _, e := range list {
			if e.ID == "" {
				continue
			}
			if i, ok := c.index[e.ID]; ok {
				c.entries[i] = e
				continue
			}
			c.index[e.ID] = len(c.entries)
			c.entries = append(c.entries, e)
		}
	}
	return c, nil
}

// Entries returns the merged entries in order. The slice must not be modified.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return c.entries
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Lookup returns the entry with the given id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Has reports whether id resolves.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// First returns the first entry, if any.
func (c *Catalog) First() (Entry, bool) {
	if c.Len() == 0 {
		return Entry{}, false
	}
	return c.entries[0], true
}

// Decode parses a JSON (or JSONC) array of entries. Anything that is not an
// array of objects fails with faults.ErrMalformedInput.
func Decode(data []byte) ([]Entry, error) {
	var list []Entry
	if err := json.Unmarshal(jsonc.ToJSON(data), &list); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w: %w", faults.ErrMalformedInput, err)
	}
	return list, nil
}

// LoadBase reads the built-in catalog file. Comments and trailing commas are
// allowed. A missing file wraps faults.ErrNotFound.
func LoadBase(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("catalog: %s: %w", path, faults.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	list, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("catalog: %s is empty: %w", path, faults.ErrMalformedInput)
	}
	return list, nil
}
