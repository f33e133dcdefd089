package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/lightnote/internal/config"
	"github.com/TobiSchelling/lightnote/internal/database"
	"github.com/TobiSchelling/lightnote/internal/kv"
	"github.com/TobiSchelling/lightnote/internal/rollup"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "lightnote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCacheStoreSQLite(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	c := &config.Config{Storage: config.Storage{Backend: config.BackendSQLite}}

	s := cacheStore(c, db, rollup.Namespace)
	require.NoError(t, s.Put(ctx, "2026-W07", []byte("x")))

	got, err := db.Blobs(rollup.Namespace).Get(ctx, "2026-W07")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func TestCacheStoreFiles(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	dir := t.TempDir()
	c := &config.Config{Storage: config.Storage{Backend: config.BackendFiles, CacheDir: dir}}

	s := cacheStore(c, db, rollup.Namespace)
	require.NoError(t, s.Put(ctx, "2026-W07", []byte("x")))

	data, err := os.ReadFile(filepath.Join(dir, rollup.Namespace, "2026-W07"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	_, err = db.Blobs(rollup.Namespace).Get(ctx, "2026-W07")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}
