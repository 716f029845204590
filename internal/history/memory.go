package history

import (
	"sync"
)

// MemoryStore implements Store using an in-memory ring buffer.
// This is used when HISTORY=memory or as a fallback when sqlite is
// unavailable.
type MemoryStore struct {
	mu      sync.RWMutex
	rows    []Invocation
	maxRows int
	head    int // next write position
	count   int
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(maxRows int) *MemoryStore {
	return &MemoryStore{
		rows:    make([]Invocation, maxRows),
		maxRows: maxRows,
	}
}

// Insert records a completed invocation, evicting the oldest row when full.
func (s *MemoryStore) Insert(inv *Invocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[s.head] = *inv
	s.head = (s.head + 1) % s.maxRows
	if s.count < s.maxRows {
		s.count++
	}
	return nil
}

// Recent returns up to limit invocations, newest first.
func (s *MemoryStore) Recent(limit int) ([]Invocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > s.count {
		limit = s.count
	}

	out := make([]Invocation, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.head - 1 - i + s.maxRows) % s.maxRows
		out = append(out, s.rows[idx])
	}
	return out, nil
}

// Count returns the number of stored invocations.
func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
