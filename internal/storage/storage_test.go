package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tree-decor/internal/blobstore"
	"tree-decor/internal/faults"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	_, err := db.Get(ctx, "tree_decor_v1")
	assert.ErrorIs(t, err, faults.ErrNotFound)

	require.NoError(t, db.Put(ctx, "tree_decor_v1", []byte(`[]`)))
	require.NoError(t, db.Put(ctx, "tree_decor_v1", []byte(`[{"catalogId":"a"}]`)))
	got, err := db.Get(ctx, "tree_decor_v1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"catalogId":"a"}]`, string(got))

	require.NoError(t, db.Delete(ctx, "tree_decor_v1"))
	_, err = db.Get(ctx, "tree_decor_v1")
	assert.ErrorIs(t, err, faults.ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keep.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Put(ctx, "k", []byte("v")))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestBlobTableBehindStore(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	table := db.Blobs()
	s := blobstore.New(table)
	assert.Equal(t, blobstore.DriverSQLite, s.Driver())

	// Blob written under the bare key by an older build.
	require.NoError(t, table.Put(ctx, "u_old", []byte("old")))
	got, err := s.Get(ctx, "idb:u_old")
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), got)

	require.NoError(t, s.Put(ctx, "u_new", []byte("new")))
	got, err = s.Get(ctx, "u_new")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	keys, err := table.keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u_old", "idb:u_new"}, keys)

	_, err = s.Get(ctx, "idb:none")
	assert.ErrorIs(t, err, faults.ErrNotFound)
}

func TestClosedDBIsUnavailable(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.Get(context.Background(), "k")
	assert.ErrorIs(t, err, faults.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, faults.ErrNotFound)
}
