package ports

// KVStore is durable client-local string storage, the Go stand-in for
// the browser's localStorage. Operations are synchronous.
type KVStore interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
}
