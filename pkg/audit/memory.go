package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in memory. It is used in tests and for the demo
// server.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry

	// Err, if set, is returned from every Append.
	Err error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Backend returns "memory".
func (s *MemoryStore) Backend() string { return "memory" }

// Append stores e.
func (s *MemoryStore) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return NewStoreError("memory", "append", s.Err)
	}
	s.entries = append(s.entries, e)
	return nil
}

// Query returns matching entries in append order.
func (s *MemoryStore) Query(ctx context.Context, f Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if !f.Matches(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Entries returns a copy of all entries.
func (s *MemoryStore) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// ForTransaction returns the entries of one transaction in append order.
func (s *MemoryStore) ForTransaction(id string) []Entry {
	out, _ := s.Query(context.Background(), Filter{TransactionID: id})
	return out
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
