package localstore

import (
	"sync"

	"SidraStore/internal/core/ports"
)

// MemoryStore is a volatile KVStore. Used in tests and as a fallback
// when no on-disk path is configured.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

var _ ports.KVStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}
