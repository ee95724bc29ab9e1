package cache

// Backend defines the port interface for persisting cache payloads.
// This interface follows the port-adapter pattern, allowing the in-memory,
// file and SQLite adapters to be swapped without changing the Store.
//
// Backends store opaque bytes. Expiry, serialization of the entry envelope
// and error tolerance are the Store's job.
type Backend interface {
	// Get retrieves a value by key.
	// Returns the value and true if found, nil and false if not found.
	Get(key string) ([]byte, bool, error)

	// Put stores a value, overwriting any previous value for key.
	Put(key string, value []byte) error
}
