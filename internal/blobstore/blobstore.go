// Package blobstore keeps user-supplied decoration images by key.
//
// Keys come in two spellings: the tagged form "idb:<id>" and the bare form
// "<id>". Store always writes the tagged (canonical) form and, on a lookup
// miss, retries with the other spelling, so data written before or after the
// key format change resolves either way. Payloads are stored as given.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tree-decor/internal/faults"
)

// TagPrefix marks a catalog image reference as a blob-store key.
const TagPrefix = "idb:"

// Driver names the built-in backends.
const (
	DriverSQLite = "sqlite"
	DriverFS     = "fs"
	DriverMemory = "memory"
)

// Driver is a raw key/bytes backend. Get returns an error wrapping
// faults.ErrNotFound on a miss; any other error means the medium failed.
// Drivers do no key rewriting.
type Driver interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Name() string
}

// Canonical returns the tagged spelling of key.
func Canonical(key string) string {
	if strings.HasPrefix(key, TagPrefix) {
		return key
	}
	return TagPrefix + key
}

// Bare returns key without the tag prefix.
func Bare(key string) string {
	return strings.TrimPrefix(key, TagPrefix)
}

// Alternate returns the other spelling of key.
func Alternate(key string) string {
	if strings.HasPrefix(key, TagPrefix) {
		return Bare(key)
	}
	return TagPrefix + key
}

// Store is the canonicalizing front of a Driver.
type Store struct {
	drv Driver
	log *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a Store over drv.
func New(drv Driver, opts ...Option) *Store {
	s := &Store{drv: drv, log: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Driver returns the backend name.
func (s *Store) Driver() string { return s.drv.Name() }

// Put stores data under the canonical spelling of key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if Bare(key) == "" {
		return fmt.Errorf("blobstore: put: empty key: %w", faults.ErrMalformedInput)
	}
	k := Canonical(key)
	if err := s.drv.Put(ctx, k, data); err != nil {
		s.log.Warn("blob put failed", "key", k, "driver", s.drv.Name(), "err", err)
		return fmt.Errorf("blobstore: put %q: %w: %w", k, faults.ErrStoreUnavailable, err)
	}
	s.log.Debug("blob stored", "key", k, "bytes", len(data))
	return nil
}

// Get returns the payload stored under key, trying the requested spelling
// first and the other one second. A miss on both returns an error wrapping
// faults.ErrNotFound; a backend failure wraps faults.ErrStoreUnavailable.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if Bare(key) == "" {
		return nil, fmt.Errorf("blobstore: get: empty key: %w", faults.ErrNotFound)
	}
	for _, k := range [2]string{key, Alternate(key)} {
		data, err := s.drv.Get(ctx, k)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, faults.ErrNotFound) {
			s.log.Warn("blob get failed", "key", k, "driver", s.drv.Name(), "err", err)
			return nil, fmt.Errorf("blobstore: get %q: %w: %w", k, faults.ErrStoreUnavailable, err)
		}
	}
	return nil, fmt.Errorf("blobstore: get %q: %w", key, faults.ErrNotFound)
}

// Delete removes both spellings of key.
func (s *Store) Delete(ctx context.Context, key string) error {
	for _, k := range [2]string{Canonical(key), Bare(key)} {
		if err := s.drv.Delete(ctx, k); err != nil {
			return fmt.Errorf("blobstore: delete %q: %w: %w", k, faults.ErrStoreUnavailable, err)
		}
	}
	return nil
}
