package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quest-service/internal/domain"
)

type attemptRecord struct {
	bun.BaseModel `bun:"table:quest_attempts,alias:qa"`

	ID          int64           `bun:"id,pk,autoincrement"`
	SessionID   string          `bun:"session_id,notnull,unique"`
	QuestID     string          `bun:"quest_id,notnull"`
	PlayerID    string          `bun:"player_id,notnull"`
	Mode        string          `bun:"mode,notnull"`
	Score       int             `bun:"score,notnull"`
	Total       int             `bun:"total,notnull"`
	Correct     map[string]bool `bun:"correct,type:jsonb,notnull"`
	Auto        bool            `bun:"auto,notnull"`
	SubmittedAt time.Time       `bun:"submitted_at,notnull"`
}

// ResultStore records scored attempts through bun.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

// RecordAttempt inserts the attempt once per session.
func (s *ResultStore) RecordAttempt(ctx context.Context, a domain.Attempt) error {
	rec := &attemptRecord{
		SessionID:   a.SessionID,
		QuestID:     a.QuestID,
		PlayerID:    a.PlayerID,
		Mode:        string(a.Mode),
		Score:       a.Result.Score,
		Total:       a.Result.Total,
		Correct:     a.Result.Correct,
		Auto:        a.Auto,
		SubmittedAt: a.SubmittedAt.UTC(),
	}
	if rec.Correct == nil {
		rec.Correct = map[string]bool{}
	}
	if _, err := s.db.NewInsert().Model(rec).On("CONFLICT (session_id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (s *ResultStore) CountAttempts(ctx context.Context, questID, playerID string) (int, error) {
	n, err := s.db.NewSelect().
		Model((*attemptRecord)(nil)).
		Where("quest_id = ?", questID).
		Where("player_id = ?", playerID).
		Where("mode = ?", string(domain.ModeScored)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

// Attempts lists a quest's recorded attempts oldest first.
func (s *ResultStore) Attempts(ctx context.Context, questID string) ([]domain.Attempt, error) {
	var recs []attemptRecord
	err := s.db.NewSelect().
		Model(&recs).
		Where("quest_id = ?", questID).
		OrderExpr("submitted_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.Attempt, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.Attempt{
			SessionID:   r.SessionID,
			QuestID:     r.QuestID,
			PlayerID:    r.PlayerID,
			Mode:        domain.Mode(r.Mode),
			Result:      domain.Result{Correct: r.Correct, Score: r.Score, Total: r.Total},
			Auto:        r.Auto,
			SubmittedAt: r.SubmittedAt.UTC(),
		})
	}
	return out, nil
}
