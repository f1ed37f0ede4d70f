package settings

import (
	"context"
	"sync"
)

// Store persists named settings blobs.
type Store interface {
	// Load returns the blob stored under name. ok is false when nothing is stored.
	Load(ctx context.Context, name string) (data []byte, ok bool, err error)
	// SaveAll writes every record in one step.
	SaveAll(ctx context.Context, records map[string][]byte) error
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// SaveAll implements Store.
func (s *MemoryStore) SaveAll(_ context.Context, records map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, data := range records {
		s.records[name] = append([]byte(nil), data...)
	}
	return nil
}
