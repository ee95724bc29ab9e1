package cache

import "sync"

// MemoryBackend is an in-memory implementation of the Backend interface.
// It uses a map for storage and provides thread-safe operations via RWMutex.
// Entries live only as long as the process.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string][]byte),
	}
}

func (c *MemoryBackend) Get(key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, exists := c.data[key]
	if !exists {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (c *MemoryBackend) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	c.data[key] = stored
	return nil
}

// Clear removes all entries from the cache.
// This method is primarily useful for testing.
func (c *MemoryBackend) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string][]byte)
}

// Size returns the number of entries in the cache.
func (c *MemoryBackend) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}
