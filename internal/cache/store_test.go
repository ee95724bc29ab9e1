package cache_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rohmanhakim/cfcli/internal/cache"
	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.t
}

// spySink records cache outcomes and error counts.
type spySink struct {
	metadata.NoopSink
	outcomes []metadata.CacheOutcome
	errors   int
}

func (s *spySink) RecordCache(outcome metadata.CacheOutcome, key string, attrs []metadata.Attribute) {
	s.outcomes = append(s.outcomes, outcome)
}

func (s *spySink) RecordError(observedAt time.Time, packageName, action string, cause metadata.ErrorCause, details string, attrs []metadata.Attribute) {
	s.errors++
}

// failingBackend fails every call.
type failingBackend struct{}

func (failingBackend) Get(string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func (failingBackend) Put(string, []byte) error {
	return errors.New("disk full")
}

func newStore(backend cache.Backend, clock *fakeClock, sink metadata.MetadataSink) *cache.Store {
	return cache.NewStore(backend, 300*time.Second, sink).WithClock(clock.Now)
}

func TestStore_TTLBoundary(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store := newStore(cache.NewMemoryBackend(), clock, nil)
	payload := []byte(`{"status":"OK","result":[]}`)

	store.Put("user.info_x", payload)

	clock.t = time.Unix(1_700_000_000+299, 0)
	got, ok := store.Get("user.info_x")
	require.True(t, ok, "entry must still be valid at T+299")
	assert.JSONEq(t, string(payload), string(got))

	clock.t = time.Unix(1_700_000_000+300, 0)
	_, ok = store.Get("user.info_x")
	assert.False(t, ok, "entry must be stale at exactly T+TTL")

	clock.t = time.Unix(1_700_000_000+301, 0)
	_, ok = store.Get("user.info_x")
	assert.False(t, ok, "entry must be stale at T+301")
}

func TestStore_RefreshOverwrites(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	backend := cache.NewMemoryBackend()
	store := newStore(backend, clock, nil)

	store.Put("k", []byte(`{"v":1}`))
	clock.t = clock.t.Add(400 * time.Second)
	store.Put("k", []byte(`{"v":2}`))

	got, ok := store.Get("k")
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(got))
	assert.Equal(t, 1, backend.Size())
}

func TestStore_MissWhenAbsent(t *testing.T) {
	sink := &spySink{}
	store := newStore(cache.NewMemoryBackend(), &fakeClock{t: time.Unix(0, 0)}, sink)

	_, ok := store.Get("missing")

	assert.False(t, ok)
	assert.Equal(t, []metadata.CacheOutcome{metadata.CacheMiss}, sink.outcomes)
}

func TestStore_CorruptEntryIsMiss(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"wrong key", `{"key":"other","payload":{"a":1},"storedAt":"2024-01-01T00:00:00Z"}`},
		{"no payload", `{"key":"k","storedAt":"2024-01-01T00:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := cache.NewMemoryBackend()
			require.NoError(t, backend.Put("k", []byte(tt.raw)))
			sink := &spySink{}
			store := newStore(backend, &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)}, sink)

			got, ok := store.Get("k")

			assert.False(t, ok)
			assert.Nil(t, got)
			assert.Equal(t, []metadata.CacheOutcome{metadata.CacheCorrupt}, sink.outcomes)
		})
	}
}

func TestStore_BackendFailuresAreNonFatal(t *testing.T) {
	sink := &spySink{}
	store := newStore(failingBackend{}, &fakeClock{t: time.Unix(0, 0)}, sink)

	assert.NotPanics(t, func() {
		store.Put("k", []byte(`{"a":1}`))
	})
	_, ok := store.Get("k")

	assert.False(t, ok)
	assert.Equal(t, 2, sink.errors)
	assert.Equal(t, []metadata.CacheOutcome{metadata.CacheWriteFailed, metadata.CacheMiss}, sink.outcomes)
}

func TestStore_InvalidPayloadIsNotStored(t *testing.T) {
	backend := cache.NewMemoryBackend()
	sink := &spySink{}
	store := newStore(backend, &fakeClock{t: time.Unix(0, 0)}, sink)

	store.Put("k", []byte(`not json`))

	assert.Equal(t, 0, backend.Size())
	assert.Equal(t, 1, sink.errors)
}

func TestNewStore_DefaultTTL(t *testing.T) {
	store := cache.NewStore(cache.NewMemoryBackend(), 0, nil)
	assert.Equal(t, cache.DefaultTTL, store.TTL())
}

func TestFingerprint_StableAcrossOrderings(t *testing.T) {
	a := map[string]string{}
	a["handles"] = "alice"
	a["checkHistoricHandles"] = "false"
	a["count"] = "10"

	b := map[string]string{}
	b["count"] = "10"
	b["handles"] = "alice"
	b["checkHistoricHandles"] = "false"

	assert.Equal(t, cache.Fingerprint("user.info", a), cache.Fingerprint("user.info", b))
	assert.Regexp(t, `^user\.info_[0-9a-f]{64}$`, cache.Fingerprint("user.info", a))
}

func TestFingerprint_Distinguishes(t *testing.T) {
	params := map[string]string{"handles": "alice"}

	assert.NotEqual(t, cache.Fingerprint("user.info", params), cache.Fingerprint("user.rating", params))
	assert.NotEqual(t,
		cache.Fingerprint("user.info", params),
		cache.Fingerprint("user.info", map[string]string{"handles": "bob"}),
	)
	assert.Equal(t, cache.Fingerprint("contest.list", nil), cache.Fingerprint("contest.list", map[string]string{}))
}

func TestFingerprint_SeparatorsInValuesDoNotCollide(t *testing.T) {
	assert.NotEqual(t,
		cache.Fingerprint("user.info", map[string]string{"a": "1&b=2"}),
		cache.Fingerprint("user.info", map[string]string{"a": "1", "b": "2"}),
	)
	assert.NotEqual(t,
		cache.Fingerprint("user.info", map[string]string{"a": "x=y"}),
		cache.Fingerprint("user.info", map[string]string{"a=x": "y"}),
	)
}
