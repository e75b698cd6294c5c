package repository

import (
	"context"
	"sync"

	"turista/internal/models"
)

// MemoryStore keeps reservations in process memory. Used for tests and the "memory" driver.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.Reservation
	ids     map[string]struct{}
}

// NewMemoryStore returns a store seeded with records.
func NewMemoryStore(records ...models.Reservation) *MemoryStore {
	s := &MemoryStore{ids: make(map[string]struct{})}
	for i := range records {
		s.records = append(s.records, records[i])
		s.ids[records[i].ID] = struct{}{}
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context) ([]models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Reservation, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[r.ID]; ok {
		return &PersistenceError{Op: "append", Err: ErrDuplicateID}
	}
	s.ids[r.ID] = struct{}{}
	s.records = append(s.records, *r)
	return nil
}

func (s *MemoryStore) PingContext(_ context.Context) error {
	return nil
}
