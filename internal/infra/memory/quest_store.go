package memory

import (
	"context"
	"sort"
	"sync"

	"quest-service/internal/domain"
)

// QuestStore keeps quests and their content in process memory. It backs
// local runs and tests in place of Postgres.
type QuestStore struct {
	mu       sync.RWMutex
	quests   map[string]domain.Quest
	contents map[string]domain.QuestContent
}

func NewQuestStore() *QuestStore {
	return &QuestStore{
		quests:   make(map[string]domain.Quest),
		contents: make(map[string]domain.QuestContent),
	}
}

func (s *QuestStore) ListQuests(_ context.Context) ([]domain.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quest, 0, len(s.quests))
	for _, q := range s.quests {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActiveFrom.Equal(out[j].ActiveFrom) {
			return out[i].ID < out[j].ID
		}
		return out[i].ActiveFrom.Before(out[j].ActiveFrom)
	})
	return out, nil
}

func (s *QuestStore) GetQuest(_ context.Context, questID string) (domain.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quests[questID]
	if !ok {
		return domain.Quest{}, domain.ErrQuestNotFound
	}
	return q, nil
}

func (s *QuestStore) CreateQuest(_ context.Context, quest domain.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quests[quest.ID] = quest
	return nil
}

func (s *QuestStore) UpdateQuest(_ context.Context, quest domain.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quests[quest.ID]; !ok {
		return domain.ErrQuestNotFound
	}
	s.quests[quest.ID] = quest
	return nil
}

func (s *QuestStore) DeleteQuest(_ context.Context, questID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quests[questID]; !ok {
		return domain.ErrQuestNotFound
	}
	delete(s.quests, questID)
	delete(s.contents, questID)
	return nil
}

func (s *QuestStore) GetContent(_ context.Context, questID string) (domain.QuestContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contents[questID]
	if !ok {
		return domain.QuestContent{}, domain.ErrContentNotFound
	}
	c.Questions = domain.CloneQuestions(c.Questions)
	return c, nil
}

func (s *QuestStore) SaveContent(_ context.Context, questID string, c domain.QuestContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quests[questID]; !ok {
		return domain.ErrQuestNotFound
	}
	c.Questions = domain.CloneQuestions(c.Questions)
	s.contents[questID] = c
	return nil
}
