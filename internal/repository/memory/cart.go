package memory

import (
	"context"
	"slices"
	"sync"
)

// CartStore keeps cart blobs in a map. Blobs are copied in and out.
type CartStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewCartStore creates an empty in-memory cart store.
func NewCartStore() *CartStore {
	return &CartStore{blobs: make(map[string][]byte)}
}

func (s *CartStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.blobs[sessionID]), nil
}

func (s *CartStore) Save(_ context.Context, sessionID string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[sessionID] = slices.Clone(blob)
	return nil
}

func (s *CartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, sessionID)
	return nil
}
