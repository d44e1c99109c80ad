package out

import (
	"context"
	"sync"

	"pagetrack/internal/modules/position/domain"
	apperrors "pagetrack/internal/platform/errors"
)

// MemoryStore is used when the database is unavailable.
type MemoryStore struct {
	mu        sync.RWMutex
	positions map[string]domain.Position
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{positions: map[string]domain.Position{}}
}

func (s *MemoryStore) Load(_ context.Context, documentID string) (domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[documentID]
	if !ok {
		return domain.Position{}, apperrors.ErrNotFound
	}
	return pos, nil
}

func (s *MemoryStore) SaveAll(_ context.Context, positions []domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pos := range positions {
		s.positions[pos.DocumentID] = pos
	}
	return nil
}
