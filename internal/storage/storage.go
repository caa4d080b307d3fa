// Package storage provides the durable local key-value stores used by
// the TTL cache and the active-collection snapshot. Keys are strings,
// values are opaque byte slices; there are no transactions across keys.
package storage

// KV is a durable string-keyed byte store.
type KV interface {
	// Get returns the value for key, or ok=false when absent.
	Get(key string) ([]byte, bool)

	// Set stores value under key, overwriting any existing value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys returns every stored key with the given prefix. An empty
	// prefix returns all keys.
	Keys(prefix string) []string
}
