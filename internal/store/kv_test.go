package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/shopfront/internal/store"
	"github.com/HerbHall/shopfront/internal/testutil"
)

func kvBackends(t *testing.T) map[string]store.KV {
	t.Helper()
	sqliteKV, err := store.NewSQLiteKV(context.Background(), testutil.NewStore(t))
	require.NoError(t, err)
	fileKV, err := store.NewFileKV(filepath.Join(t.TempDir(), "kv"))
	require.NoError(t, err)
	return map[string]store.KV{
		"sqlite": sqliteKV,
		"memory": store.NewMemoryKV(),
		"file":   fileKV,
	}
}

func TestKV_GetMissing(t *testing.T) {
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := kv.Get(context.Background(), "favorites")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, v)
		})
	}
}

func TestKV_SetAndOverwrite(t *testing.T) {
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, "favorites", `[{"id":1}]`))
			require.NoError(t, kv.Set(ctx, "favorites", `[]`))

			v, ok, err := kv.Get(ctx, "favorites")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[]`, v)
		})
	}
}

func TestFileKV_RejectsPathKeys(t *testing.T) {
	kv, err := store.NewFileKV(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, kv.Set(context.Background(), "../escape", "x"))
	_, _, err = kv.Get(context.Background(), "a/b")
	assert.Error(t, err)
}

func TestSQLiteKV_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shopfront.db")

	s1, err := store.New(path)
	require.NoError(t, err)
	kv1, err := store.NewSQLiteKV(ctx, s1)
	require.NoError(t, err)
	require.NoError(t, kv1.Set(ctx, "favorites", `[{"id":7}]`))
	require.NoError(t, s1.Close())

	s2, err := store.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { s2.Close() })
	kv2, err := store.NewSQLiteKV(ctx, s2)
	require.NoError(t, err, "re-running migrations must be a no-op")

	v, ok, err := kv2.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":7}]`, v)
}
