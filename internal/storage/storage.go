// Package storage is the editor's local database: one SQLite file holding the
// JSON state documents and the user-supplied image blobs.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"tree-decor/internal/blobstore"
	"tree-decor/internal/faults"
)

// DB wraps the SQLite handle. It implements state.Store directly; Blobs
// returns the blob table as a blobstore.Driver.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and makes sure both tables
// exist. Failures wrap faults.ErrStoreUnavailable.
func Open(path string) (*DB, error) {
	if path == "" {
		path = "data/decorator.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("storage: create dirs: %w: %w", faults.ErrStoreUnavailable, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w: %w", faults.ErrStoreUnavailable, err)
	}
	// One writer; the render loop and the export goroutine share the handle.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create state table: %w: %w", faults.ErrStoreUnavailable, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create blobs table: %w: %w", faults.ErrStoreUnavailable, err)
	}
	return &DB{db: db, path: path}, nil
}

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// Close releases the database handle.
func (d *DB) Close() error { return d.db.Close() }

func (d *DB) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, d.db, `SELECT payload FROM state WHERE key = ?`, key)
}

// Put replaces the whole document stored under key.
func (d *DB) Put(ctx context.Context, key string, data []byte) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO state(key, payload) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`, key, data)
	if err != nil {
		return fmt.Errorf("storage: put %q: %w: %w", key, faults.ErrStoreUnavailable, err)
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, key string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("storage: delete %q: %w: %w", key, faults.ErrStoreUnavailable, err)
	}
	return nil
}

// Blobs returns the blob table of the same database.
func (d *DB) Blobs() *BlobTable { return &BlobTable{db: d.db} }

// BlobTable is the blobstore.Driver over the blobs table.
type BlobTable struct {
	db *sql.DB
}

var _ blobstore.Driver = (*BlobTable)(nil)

func (b *BlobTable) Name() string { return blobstore.DriverSQLite }

func (b *BlobTable) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, b.db, `SELECT payload FROM blobs WHERE key = ?`, key)
}

func (b *BlobTable) Put(ctx context.Context, key string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO blobs(key, payload, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("storage: put blob %q: %w", key, err)
	}
	return nil
}

func (b *BlobTable) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("storage: delete blob %q: %w", key, err)
	}
	return nil
}

// keys lists every blob key, oldest first.
func (b *BlobTable) keys(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT key FROM blobs ORDER BY updated_at, key`)
	if err != nil {
		return nil, fmt.Errorf("storage: list blobs: %w: %w", faults.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func get(ctx context.Context, db *sql.DB, query, key string) ([]byte, error) {
	var payload []byte
	err := db.QueryRowContext(ctx, query, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: %q: %w", key, faults.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %q: %w: %w", key, faults.ErrStoreUnavailable, err)
	}
	return payload, nil
}
