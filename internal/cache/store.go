package cache

import (
	"encoding/json"
	"time"

	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/pkg/hashutil"
	"github.com/rohmanhakim/cfcli/pkg/timeutil"
	"github.com/rohmanhakim/cfcli/pkg/urlutil"
)

// DefaultTTL is how long a successful API response is served from cache.
const DefaultTTL = 300 * time.Second

// Entry is the envelope persisted for each cached payload.
type Entry struct {
	Key      string          `json:"key"`
	Payload  json.RawMessage `json:"payload"`
	StoredAt time.Time       `json:"storedAt"`
}

// Store layers expiry and error tolerance over a Backend.
// A read that fails for any reason is a miss; a write that fails is recorded
// and dropped.
type Store struct {
	backend Backend
	ttl     time.Duration
	now     timeutil.Clock
	sink    metadata.MetadataSink
}

func NewStore(backend Backend, ttl time.Duration, sink metadata.MetadataSink) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return &Store{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
		sink:    sink,
	}
}

func (s *Store) WithClock(now timeutil.Clock) *Store {
	s.now = now
	return s
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the payload stored under key while now - storedAt < TTL.
func (s *Store) Get(key string) ([]byte, bool) {
	raw, found, err := s.backend.Get(key)
	if err != nil {
		s.recordError("Get", &StoreError{Message: err.Error(), Cause: ErrCauseBackendRead}, key)
		s.sink.RecordCache(metadata.CacheMiss, key, nil)
		return nil, false
	}
	if !found {
		s.sink.RecordCache(metadata.CacheMiss, key, nil)
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Key != key || len(entry.Payload) == 0 {
		s.sink.RecordCache(metadata.CacheCorrupt, key, nil)
		return nil, false
	}

	if s.now().Sub(entry.StoredAt) >= s.ttl {
		s.sink.RecordCache(metadata.CacheStale, key, nil)
		return nil, false
	}

	s.sink.RecordCache(metadata.CacheHit, key, nil)
	return entry.Payload, true
}

// Put stores payload under key stamped with the current time. payload must be
// a JSON document.
func (s *Store) Put(key string, payload []byte) {
	raw, err := json.Marshal(Entry{
		Key:      key,
		Payload:  json.RawMessage(payload),
		StoredAt: s.now(),
	})
	if err != nil {
		s.recordError("Put", &StoreError{Message: err.Error(), Cause: ErrCauseEncode}, key)
		s.sink.RecordCache(metadata.CacheWriteFailed, key, nil)
		return
	}

	if err := s.backend.Put(key, raw); err != nil {
		s.recordError("Put", &StoreError{Message: err.Error(), Cause: ErrCauseBackendWrite}, key)
		s.sink.RecordCache(metadata.CacheWriteFailed, key, nil)
		return
	}
	s.sink.RecordCache(metadata.CacheStored, key, nil)
}

func (s *Store) recordError(action string, err *StoreError, key string) {
	s.sink.RecordError(
		s.now(),
		"cache",
		action,
		metadata.CauseStorageFailure,
		err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrField, key)},
	)
}

// Fingerprint derives the cache key for an API call: the method name followed
// by a BLAKE3 digest of the percent-encoded parameter list, keys sorted. Equal
// parameter sets always produce equal keys regardless of map iteration order,
// and separators inside values cannot make two sets collide.
func Fingerprint(method string, params map[string]string) string {
	return method + "_" + hashutil.Blake3Hex(urlutil.EncodeQuery(params))
}
