package kv

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoresRoundTrip(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemory(),
		"file":   NewFileStore(t.TempDir()),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Get(ctx, "rollups/2026-W06")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "rollups/2026-W06", []byte(`{"a":1}`)))
			require.NoError(t, s.Put(ctx, "rollups/2026-W07", []byte(`{"b":2}`)))
			require.NoError(t, s.Put(ctx, "rollups/2026-W06", []byte(`{"a":3}`)))

			got, err := s.Get(ctx, "rollups/2026-W06")
			require.NoError(t, err)
			assert.Equal(t, `{"a":3}`, string(got))

			other, err := s.Get(ctx, "rollups/2026-W07")
			require.NoError(t, err)
			assert.Equal(t, `{"b":2}`, string(other), "updating one week leaves the others intact")

			keys, err := s.(Lister).Keys(ctx)
			require.NoError(t, err)
			sort.Strings(keys)
			assert.Equal(t, []string{"rollups/2026-W06", "rollups/2026-W07"}, keys)
		})
	}
}

func TestFileStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "blob key is empty"},
		{name: "whitespace", key: "   ", wantErr: "blob key is empty"},
		{name: "absolute", key: "/absolute/path", wantErr: "invalid blob key"},
		{name: "traversal", key: "../escape", wantErr: "invalid blob key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.key, []byte("x"))
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestFileStorePermissions(t *testing.T) {
	root := t.TempDir()
	s := NewFileStore(root)
	require.NoError(t, s.Put(context.Background(), "themes/2026-W01", []byte("{}")))

	info, err := os.Stat(filepath.Join(root, "themes", "2026-W01"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(blobFileMode), info.Mode().Perm())
}

func TestPrefixedNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	rollups := WithPrefix(mem, "rollups.v1")
	themes := WithPrefix(mem, "themes.v1")

	require.NoError(t, rollups.Put(ctx, "2026-W06", []byte("r")))
	require.NoError(t, themes.Put(ctx, "2026-W06", []byte("t")))

	r, err := rollups.Get(ctx, "2026-W06")
	require.NoError(t, err)
	assert.Equal(t, "r", string(r))

	raw, err := mem.Get(ctx, "themes.v1/2026-W06")
	require.NoError(t, err)
	assert.Equal(t, "t", string(raw))
}
