// Package faults holds the error kinds shared by the editor's storage, catalog
// and interaction layers. Packages wrap these with their own prefix, e.g.
//
//	fmt.Errorf("blobstore: get %q: %w", key, faults.ErrNotFound)
//
// and callers branch with errors.Is.
package faults

import "errors"

var (
	// ErrNotFound: a catalog id, blob key or asset is absent. Recovered by
	// skipping the affected item.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable: the persistence or blob medium could not be opened
	// or a transaction failed. The operation is abandoned, in-memory state is
	// kept as last known-good.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMalformedInput: persisted JSON that does not parse or has the wrong
	// shape. Recovered by treating the source as empty.
	ErrMalformedInput = errors.New("malformed input")

	// ErrGeometryMiss: a ray missed its target plane or mesh. Never reported.
	ErrGeometryMiss = errors.New("geometry miss")
)
