package memory

import (
	"context"
	"sync"
)

// Sequence is a per-day counter held in memory.
type Sequence struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewSequence creates an in-memory per-day counter.
func NewSequence() *Sequence {
	return &Sequence{values: make(map[string]int64)}
}

func (s *Sequence) Next(_ context.Context, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[day]++
	return s.values[day], nil
}
