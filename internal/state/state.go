// Package state is the small key/value medium the editor keeps its JSON
// documents in (the placed decoration list, the custom catalog). Every write
// replaces the whole value for a key.
package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tree-decor/internal/faults"
)

// ErrReadOnly is returned by Put and Delete on a read-only store.
var ErrReadOnly = errors.New("state: read-only")

// Store reads and writes whole documents by key. Get returns an error wrapping
// faults.ErrNotFound when the key has never been written.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process Store, used in tests and as a scratch store.
type Memory struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("state: %q: %w", key, faults.ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.docs[key] = cp
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

// Dir is a read-only Store over plain files in a directory: the published
// content of a finished arrangement (catalog.json, decor.json). Files maps
// state keys to file names under Root; unmapped keys are not found.
type Dir struct {
	Root  string
	Files map[string]string
}

// NewDir returns a read-only store serving the given key→file mapping from root.
func NewDir(root string, files map[string]string) *Dir {
	return &Dir{Root: root, Files: files}
}

func (d *Dir) Get(_ context.Context, key string) ([]byte, error) {
	name, ok := d.Files[key]
	if !ok {
		return nil, fmt.Errorf("state: %q: %w", key, faults.ErrNotFound)
	}
	data, err := os.ReadFile(filepath.Join(d.Root, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("state: %s: %w", name, faults.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("state: %s: %w: %w", name, faults.ErrStoreUnavailable, err)
	}
	return data, nil
}

func (d *Dir) Put(context.Context, string, []byte) error { return ErrReadOnly }

func (d *Dir) Delete(context.Context, string) error { return ErrReadOnly }
