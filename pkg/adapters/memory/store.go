package memory

import (
	"context"
	"sync"
)

// HistoryStore implements ports.HistoryStore in memory.
// Safe for concurrent use.
type HistoryStore struct {
	entries []string
	mu      sync.RWMutex
}

// NewHistoryStore creates an empty in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Save replaces the stored history with a copy of entries.
func (s *HistoryStore) Save(ctx context.Context, entries []string) error {
	copied := make([]string, len(entries))
	copy(copied, entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = copied
	return nil
}

// Load returns a copy of the stored history.
func (s *HistoryStore) Load(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Copy on read so callers can't mutate the store through the slice
	ret := make([]string, len(s.entries))
	copy(ret, s.entries)
	return ret, nil
}
