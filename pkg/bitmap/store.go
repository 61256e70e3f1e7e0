package bitmap

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a Ref is not present in a Store.
var ErrNotFound = errors.New("bitmap not found")

// Store persists encoded image bytes by content hash.
type Store interface {
	// Put stores data and returns its Ref. Storing identical bytes twice is
	// a no-op that returns the same Ref.
	Put(ctx context.Context, data []byte) (Ref, error)

	// Get returns the bytes for ref, or ErrNotFound.
	Get(ctx context.Context, ref Ref) ([]byte, error)

	// Delete removes ref. Deleting a missing ref is not an error.
	Delete(ctx context.Context, ref Ref) error

	// Close releases resources held by the store.
	Close() error
}

// MemoryStore keeps bitmaps in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Ref][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Ref][]byte)}
}

// Put stores data.
func (s *MemoryStore) Put(ctx context.Context, data []byte) (Ref, error) {
	ref := Hash(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[ref]; !ok {
		s.data[ref] = append([]byte(nil), data...)
	}
	return ref, nil
}

// Get returns the stored bytes.
func (s *MemoryStore) Get(ctx context.Context, ref Ref) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[ref]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

// Delete removes ref.
func (s *MemoryStore) Delete(ctx context.Context, ref Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, ref)
	return nil
}

// Len returns the number of stored bitmaps.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
