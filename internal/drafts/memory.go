package drafts

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps drafts in process. Entries older than the TTL are
// treated as missing; a zero TTL keeps them forever.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	drafts map[string]Draft
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, drafts: make(map[string]Draft)}
}

func (s *MemoryStore) Save(_ context.Context, key string, data json.RawMessage) (Draft, error) {
	d := Draft{Key: key, Data: slices.Clone(data), SavedAt: s.now()}
	s.mu.Lock()
	s.drafts[key] = d
	s.mu.Unlock()
	return d, nil
}

func (s *MemoryStore) Load(_ context.Context, key string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[key]
	if !ok {
		return Draft{}, ErrNotFound
	}
	if s.ttl > 0 && s.now().Sub(d.SavedAt) > s.ttl {
		delete(s.drafts, key)
		return Draft{}, ErrNotFound
	}
	d.Data = slices.Clone(d.Data)
	return d, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.drafts, key)
	s.mu.Unlock()
	return nil
}
