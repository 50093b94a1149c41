package tracker

import (
	"errors"
	"sync"
)

// ErrStorageUnavailable is returned by storages that are blocked or disabled,
// the equivalent of a browser in privacy mode.
var ErrStorageUnavailable = errors.New("local storage unavailable")

// Storage is client-local key/value persistence for the visitor identity.
// Get reports ok=false when the key is absent.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// MemoryStorage keeps values for the life of the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
