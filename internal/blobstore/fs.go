package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"tree-decor/internal/faults"
)

// FS stores each blob as one file under a root directory. Keys are
// query-escaped into file names, so ':' and '/' never reach the filesystem.
type FS struct {
	root string
}

// NewFS returns a filesystem driver rooted at root, creating it if needed.
func NewFS(root string) (*FS, error) {
	if root == "" {
		root = "./blobdata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("fs: %w: %w", faults.ErrStoreUnavailable, err)
	}
	return &FS{root: root}, nil
}

func (s *FS) Name() string { return DriverFS }

func (s *FS) pathFor(key string) (string, error) {
	if strings.TrimSpace(key) == "" || key == "." || key == ".." {
		return "", fmt.Errorf("fs: invalid key %q", key)
	}
	return filepath.Join(s.root, url.QueryEscape(key)), nil
}

func (s *FS) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("fs: %q: %w", key, faults.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put writes to a temp file in the same directory and renames it into place,
// so a reader never sees a half-written blob.
func (s *FS) Put(_ context.Context, key string, data []byte) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (s *FS) Delete(_ context.Context, key string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
