package cache_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/cfcli/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteBackend_RoundTripAndUpsert(t *testing.T) {
	backend, err := cache.NewSQLiteBackend(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	_, found, err := backend.Get("k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, backend.Put("k", []byte(`{"v":1}`)))
	require.NoError(t, backend.Put("k", []byte(`{"v":2}`)))

	got, found, err := backend.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"v":2}`, string(got))
}

func TestSQLiteBackend_WithStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	clock := &fakeClock{t: time.Unix(9000, 0)}

	backend, err := cache.NewSQLiteBackend(path)
	require.NoError(t, err)
	newStore(backend, clock, nil).Put("user.info_a", []byte(`{"status":"OK"}`))
	require.NoError(t, backend.Close())

	reopened, err := cache.NewSQLiteBackend(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	store := newStore(reopened, clock, nil)
	clock.t = clock.t.Add(299 * time.Second)
	_, ok := store.Get("user.info_a")
	assert.True(t, ok)

	clock.t = clock.t.Add(2 * time.Second)
	_, ok = store.Get("user.info_a")
	assert.False(t, ok)
}
