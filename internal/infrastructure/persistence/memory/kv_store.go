// Package memory provides the in-memory key-value store. Values live as long
// as the process does.
package memory

import (
	"context"
	"sync"

	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
)

// Compile-time interface check.
var _ outbound.KeyValueStore = (*KVStore)(nil)

// KVStore implements outbound.KeyValueStore on a map.
type KVStore struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

// NewKVStore creates an empty in-memory store.
func NewKVStore() *KVStore {
	return &KVStore{
		data: make(map[string][]byte),
	}
}

// Get returns a copy of the value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return nil, outbound.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value under key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.data, key)
	return nil
}
