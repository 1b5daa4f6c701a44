package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()

	local, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	sqlite, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "objects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Storage{
		"local":  local,
		"sqlite": sqlite,
		"memory": NewMemoryStorage(),
	}
}

func TestStorage_ReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Read(ctx, "content/missing.yaml")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Write(ctx, "content/a.yaml", []byte("a: 1")))
			data, err := s.Read(ctx, "content/a.yaml")
			require.NoError(t, err)
			assert.Equal(t, "a: 1", string(data))

			exists, err := s.Exists(ctx, "content/a.yaml")
			require.NoError(t, err)
			assert.True(t, exists)

			require.NoError(t, s.Delete(ctx, "content/a.yaml"))
			exists, err = s.Exists(ctx, "content/a.yaml")
			require.NoError(t, err)
			assert.False(t, exists)

			assert.ErrorIs(t, s.Delete(ctx, "content/a.yaml"), ErrNotFound)
		})
	}
}

func TestStorage_ListDirectChildren(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Write(ctx, "volunteers/b.yaml", []byte("b")))
			require.NoError(t, s.Write(ctx, "volunteers/a.yaml", []byte("a")))
			require.NoError(t, s.Write(ctx, "content/c.yaml", []byte("c")))

			paths, err := s.List(ctx, "volunteers")
			require.NoError(t, err)
			assert.Equal(t, []string{"volunteers/a.yaml", "volunteers/b.yaml"}, paths)

			paths, err = s.List(ctx, "nothing")
			require.NoError(t, err)
			assert.Empty(t, paths)
		})
	}
}

func TestStorage_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := s.CompareAndSwap(ctx, "content/x.yaml", nil, []byte("v1"))
			require.NoError(t, err)
			assert.True(t, ok, "create-if-absent should succeed")

			ok, err = s.CompareAndSwap(ctx, "content/x.yaml", nil, []byte("v1-again"))
			require.NoError(t, err)
			assert.False(t, ok, "create-if-absent must fail when the object exists")

			ok, err = s.CompareAndSwap(ctx, "content/x.yaml", []byte("stale"), []byte("v2"))
			require.NoError(t, err)
			assert.False(t, ok, "swap with a stale value must fail")

			ok, err = s.CompareAndSwap(ctx, "content/x.yaml", []byte("v1"), []byte("v2"))
			require.NoError(t, err)
			assert.True(t, ok)

			data, err := s.Read(ctx, "content/x.yaml")
			require.NoError(t, err)
			assert.Equal(t, "v2", string(data))

			ok, err = s.CompareAndSwap(ctx, "content/missing.yaml", []byte("v1"), []byte("v2"))
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}
