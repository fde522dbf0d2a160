package session

import (
	"context"
	"sync"
	"time"

	"github.com/ellarises/ella-rises/internal/utils"
)

// MemoryStore is the fallback when Redis is unreachable at startup: local
// development keeps working, at the cost of sessions not surviving a
// restart. Expiry is checked lazily on read.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]memoryEntry
	flashes map[string]Flash
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		records: make(map[string]memoryEntry),
		flashes: make(map[string]Flash),
	}
}

// Create stores the record under a fresh id.
func (s *MemoryStore) Create(_ context.Context, rec Record) (string, error) {
	id, err := utils.RandomToken(32)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = memoryEntry{rec: rec, expiresAt: time.Now().Add(s.ttl)}
	return id, nil
}

// Get loads a live session record, expiring stale entries on the way.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.records, id)
		delete(s.flashes, id)
		return nil, ErrSessionNotFound
	}
	rec := entry.rec
	return &rec, nil
}

// Delete removes the session and any pending flash.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	delete(s.flashes, id)
	return nil
}

// SetFlash stores the one-shot notice.
func (s *MemoryStore) SetFlash(_ context.Context, id string, f Flash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes[id] = f
	return nil
}

// PopFlash returns and clears the notice.
func (s *MemoryStore) PopFlash(_ context.Context, id string) (*Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flashes[id]
	if !ok {
		return nil, nil
	}
	delete(s.flashes, id)
	return &f, nil
}
