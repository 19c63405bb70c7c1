package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) KV {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return NewSQLiteStore(db)
}

func openMemoryTestDB(t *testing.T) KV {
	t.Helper()
	db, err := OpenMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return NewSQLiteStore(db)
}

func backends(t *testing.T) map[string]KV {
	return map[string]KV{
		"memory":        NewMemoryStore(),
		"sqlite":        openTestDB(t),
		"sqlite-memory": openMemoryTestDB(t),
	}
}

func TestKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := kv.Load(ctx, "p1")
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			require.NoError(t, kv.Save(ctx, "p1", map[string]string{"a": "1", "b": `["x"]`}))
			require.NoError(t, kv.Save(ctx, "p1", map[string]string{"a": "2"}))
			require.NoError(t, kv.Save(ctx, "p2", map[string]string{"a": "other"}))

			got, err := kv.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"a": "2", "b": `["x"]`}, got)

			require.NoError(t, kv.Clear(ctx, "p1"))
			got, err = kv.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Empty(t, got)

			other, err := kv.Load(ctx, "p2")
			require.NoError(t, err)
			assert.Equal(t, "other", other["a"])
		})
	}
}

func TestMemoryLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	require.NoError(t, kv.Save(ctx, "p", map[string]string{"k": "v"}))
	got, _ := kv.Load(ctx, "p")
	got["k"] = "changed"
	again, _ := kv.Load(ctx, "p")
	assert.Equal(t, "v", again["k"])
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "twice.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, 3, n)
}
