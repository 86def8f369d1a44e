package memory

import (
	"context"
	"sync"

	"quest-service/internal/domain"
)

// ResultStore records scored attempts in memory.
type ResultStore struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) RecordAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *ResultStore) CountAttempts(_ context.Context, questID, playerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.attempts {
		if a.QuestID == questID && a.PlayerID == playerID {
			n++
		}
	}
	return n, nil
}

// Attempts returns the recorded attempts for a quest in submission order.
func (s *ResultStore) Attempts(_ context.Context, questID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, a := range s.attempts {
		if a.QuestID == questID {
			out = append(out, a)
		}
	}
	return out, nil
}
