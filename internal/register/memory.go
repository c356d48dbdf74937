package register

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests. It is not intended for
// production use.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Pending // keyed by id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Pending)}
}

func (s *MemoryStore) Create(_ context.Context, p *Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	for id, row := range s.rows {
		if row.Identity == p.Identity {
			delete(s.rows, id)
		}
	}
	s.rows[p.ID] = *p
	return nil
}

func (s *MemoryStore) FindByIdentity(_ context.Context, identity string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Identity == identity {
			out := row
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateCode(_ context.Context, id, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	row.Code = code
	row.CodeExpiresAt = expiresAt
	s.rows[id] = row
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *MemoryStore) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, row := range s.rows {
		if !row.Verified && row.CreatedAt.Before(cutoff) {
			delete(s.rows, id)
			n++
		}
	}
	return n, nil
}

// Len reports the number of live rows, for test assertions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
