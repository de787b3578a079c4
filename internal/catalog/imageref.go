package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"tree-decor/internal/blobstore"
)

// RefKind tells where an entry's image lives.
type RefKind int

const (
	// RefExternal is a path or URL readable without the blob store.
	RefExternal RefKind = iota
	// RefStored is a key into the blob store.
	RefStored
)

// ImageRef is either External(path) or Stored(key). It is parsed once when a
// catalog is decoded: strings carrying the blobstore tag prefix become Stored
// with the bare key, everything else External.
type ImageRef struct {
	Kind  RefKind
	Value string
}

// External returns a reference to an image outside the blob store.
func External(path string) ImageRef { return ImageRef{Kind: RefExternal, Value: path} }

// Stored returns a reference to a blob-store key. Either key spelling is accepted.
func Stored(key string) ImageRef { return ImageRef{Kind: RefStored, Value: blobstore.Bare(key)} }

// ParseImageRef classifies the string form of a reference.
func ParseImageRef(s string) ImageRef {
	if strings.HasPrefix(s, blobstore.TagPrefix) {
		return Stored(s)
	}
	return External(s)
}

// IsStored reports whether the image lives in the blob store.
func (r ImageRef) IsStored() bool { return r.Kind == RefStored }

// Key returns the canonical blob key of a Stored reference.
func (r ImageRef) Key() string { return blobstore.Canonical(r.Value) }

// String returns the persisted form: "idb:<key>" or the external path.
func (r ImageRef) String() string {
	if r.IsStored() {
		return r.Key()
	}
	return r.Value
}

func (r ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *ImageRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("catalog: image reference must be a string: %w", err)
	}
	*r = ParseImageRef(s)
	return nil
}
