package session

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	state   State
	expires time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memEntry{}, now: time.Now}
}

// Put implements Store. Expired entries are swept on each write.
func (s *MemoryStore) Put(_ context.Context, id string, st State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = memEntry{state: st, expires: now.Add(ttl)}
	return nil
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, id string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	delete(s.entries, id)
	if !ok || !s.now().Before(e.expires) {
		return nil, ErrNotFound
	}
	st := e.state
	return &st, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
