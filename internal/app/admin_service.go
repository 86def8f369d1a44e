package app

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quest-service/internal/content"
	"quest-service/internal/domain"
)

// QuestStore is the durable home of quests and their content.
type QuestStore interface {
	ListQuests(ctx context.Context) ([]domain.Quest, error)
	GetQuest(ctx context.Context, questID string) (domain.Quest, error)
	CreateQuest(ctx context.Context, quest domain.Quest) error
	UpdateQuest(ctx context.Context, quest domain.Quest) error
	DeleteQuest(ctx context.Context, questID string) error
	GetContent(ctx context.Context, questID string) (domain.QuestContent, error)
	SaveContent(ctx context.Context, questID string, c domain.QuestContent) error
}

// ContentInvalidator drops cached content after it changes.
type ContentInvalidator interface {
	Invalidate(ctx context.Context, questID string) error
}

// Filter narrows a quest listing by activity at the time of the call.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterActive   Filter = "active"
	FilterInactive Filter = "inactive"
)

// ParseFilter maps a query value onto a filter; anything unknown lists all.
func ParseFilter(raw string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(raw))) {
	case FilterActive:
		return FilterActive
	case FilterInactive:
		return FilterInactive
	}
	return FilterAll
}

// NewQuest carries the fields needed to create a quest.
type NewQuest struct {
	Title       string
	Description string
	ActiveFrom  time.Time
	ActiveTo    time.Time
}

// AdminService contains the quest management use cases.
type AdminService struct {
	store QuestStore
	cache ContentInvalidator
	now   func() time.Time
	log   *zap.Logger
}

// NewAdminService wires the admin use cases. cache may be nil.
func NewAdminService(store QuestStore, cache ContentInvalidator, now func() time.Time, log *zap.Logger) *AdminService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{store: store, cache: cache, now: now, log: log.Named("admin")}
}

// ListQuests returns quests ordered by window start, narrowed by filter.
func (s *AdminService) ListQuests(ctx context.Context, filter Filter) ([]domain.Quest, error) {
	all, err := s.store.ListQuests(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]domain.Quest, 0, len(all))
	for _, q := range all {
		active := domain.IsActive(q, now)
		switch filter {
		case FilterActive:
			if !active {
				continue
			}
		case FilterInactive:
			if active {
				continue
			}
		}
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ActiveFrom.Before(out[j].ActiveFrom)
	})
	return out, nil
}

// GetQuest returns a single quest.
func (s *AdminService) GetQuest(ctx context.Context, questID string) (domain.Quest, error) {
	return s.store.GetQuest(ctx, questID)
}

// CreateQuest validates the window and stores a new quest.
func (s *AdminService) CreateQuest(ctx context.Context, in NewQuest) (domain.Quest, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Quest{}, domain.ErrTitleRequired
	}
	if err := domain.ValidateWindow(in.ActiveFrom, in.ActiveTo); err != nil {
		return domain.Quest{}, err
	}
	now := s.now().UTC()
	quest := domain.Quest{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		ActiveFrom:  in.ActiveFrom.UTC(),
		ActiveTo:    in.ActiveTo.UTC(),
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	if err := s.store.CreateQuest(ctx, quest); err != nil {
		return domain.Quest{}, err
	}
	s.log.Info("quest created", zap.String("quest_id", quest.ID), zap.String("title", quest.Title))
	return quest, nil
}

// UpdateQuest applies a partial update and re-checks the window.
func (s *AdminService) UpdateQuest(ctx context.Context, questID string, patch domain.QuestPatch) (domain.Quest, error) {
	current, err := s.store.GetQuest(ctx, questID)
	if err != nil {
		return domain.Quest{}, err
	}
	updated := patch.Apply(current)
	if strings.TrimSpace(updated.Title) == "" {
		return domain.Quest{}, domain.ErrTitleRequired
	}
	if err := domain.ValidateWindow(updated.ActiveFrom, updated.ActiveTo); err != nil {
		return domain.Quest{}, err
	}
	now := s.now().UTC()
	updated.UpdatedAt = &now
	if err := s.store.UpdateQuest(ctx, updated); err != nil {
		return domain.Quest{}, err
	}
	s.log.Info("quest updated", zap.String("quest_id", questID))
	return updated, nil
}

// DeleteQuest removes a quest with its content.
func (s *AdminService) DeleteQuest(ctx context.Context, questID string) error {
	if err := s.store.DeleteQuest(ctx, questID); err != nil {
		return err
	}
	s.invalidate(ctx, questID)
	s.log.Info("quest deleted", zap.String("quest_id", questID))
	return nil
}

// GetContent returns the stored content for a quest. Without admin the
// answer keys and explanations are stripped. ErrContentNotFound is returned
// as is; callers decide whether to substitute the empty default.
func (s *AdminService) GetContent(ctx context.Context, questID string, admin bool) (domain.QuestContent, error) {
	if _, err := s.store.GetQuest(ctx, questID); err != nil {
		return domain.QuestContent{}, err
	}
	c, err := s.store.GetContent(ctx, questID)
	if err != nil {
		return domain.QuestContent{}, err
	}
	if !admin {
		c = PlayerContent(c)
	}
	return c, nil
}

// SaveContent validates and stores a quest's content, replacing what was there.
func (s *AdminService) SaveContent(ctx context.Context, questID string, c domain.QuestContent) (domain.QuestContent, error) {
	if _, err := s.store.GetQuest(ctx, questID); err != nil {
		return domain.QuestContent{}, err
	}
	if c.Questions == nil {
		c.Questions = []domain.Question{}
	}
	if err := content.ValidateContent(c); err != nil {
		return domain.QuestContent{}, err
	}
	c.Questions = content.Renumber(c.Questions)
	if err := s.store.SaveContent(ctx, questID, c); err != nil {
		return domain.QuestContent{}, err
	}
	s.invalidate(ctx, questID)
	s.log.Info("quest content saved", zap.String("quest_id", questID), zap.Int("questions", len(c.Questions)))
	return c, nil
}

func (s *AdminService) invalidate(ctx context.Context, questID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, questID); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("content cache invalidation failed", zap.String("quest_id", questID), zap.Error(err))
	}
}

// PlayerContent returns a copy of c with answer keys and explanations removed.
func PlayerContent(c domain.QuestContent) domain.QuestContent {
	out := domain.QuestContent{Settings: c.Settings, Questions: domain.CloneQuestions(c.Questions)}
	for i := range out.Questions {
		out.Questions[i].Correct = nil
		out.Questions[i].Explanation = ""
	}
	return out
}
