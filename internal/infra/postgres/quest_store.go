package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quest-service/internal/domain"
)

const questColumns = `id, title, description, active_from, active_to, created_at, updated_at`

// foreign_key_violation
const codeForeignKey = "23503"

// QuestStore keeps quest metadata in the quests table and content as JSONB in quest_contents.
type QuestStore struct {
	pool *pgxpool.Pool
}

func NewQuestStore(pool *pgxpool.Pool) *QuestStore {
	return &QuestStore{pool: pool}
}

func (s *QuestStore) ListQuests(ctx context.Context) ([]domain.Quest, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+questColumns+` FROM quests ORDER BY active_from, id`)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	defer rows.Close()

	quests := []domain.Quest{}
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		quests = append(quests, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	return quests, nil
}

func (s *QuestStore) GetQuest(ctx context.Context, questID string) (domain.Quest, error) {
	q, err := scanQuest(s.pool.QueryRow(ctx, `SELECT `+questColumns+` FROM quests WHERE id=$1`, questID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quest{}, domain.ErrQuestNotFound
	}
	if err != nil {
		return domain.Quest{}, fmt.Errorf("load quest: %w", err)
	}
	return q, nil
}

func (s *QuestStore) CreateQuest(ctx context.Context, q domain.Quest) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quests (`+questColumns+`) VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()), COALESCE($7, now()))`,
		q.ID, q.Title, q.Description, q.ActiveFrom.UTC(), q.ActiveTo.UTC(), q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create quest: %w", err)
	}
	return nil
}

func (s *QuestStore) UpdateQuest(ctx context.Context, q domain.Quest) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE quests SET title=$2, description=$3, active_from=$4, active_to=$5, updated_at=COALESCE($6, now()) WHERE id=$1`,
		q.ID, q.Title, q.Description, q.ActiveFrom.UTC(), q.ActiveTo.UTC(), q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update quest: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestNotFound
	}
	return nil
}

// DeleteQuest removes the quest; its content row goes with it via ON DELETE CASCADE.
func (s *QuestStore) DeleteQuest(ctx context.Context, questID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quests WHERE id=$1`, questID)
	if err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestNotFound
	}
	return nil
}

func (s *QuestStore) GetContent(ctx context.Context, questID string) (domain.QuestContent, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quest_contents WHERE quest_id=$1`, questID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestContent{}, domain.ErrContentNotFound
	}
	if err != nil {
		return domain.QuestContent{}, fmt.Errorf("load quest content: %w", err)
	}
	c := domain.EmptyContent()
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.QuestContent{}, fmt.Errorf("unmarshal quest content: %w", err)
	}
	if c.Questions == nil {
		c.Questions = []domain.Question{}
	}
	return c, nil
}

func (s *QuestStore) SaveContent(ctx context.Context, questID string, c domain.QuestContent) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal quest content: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quest_contents (quest_id, data, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (quest_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		questID, raw,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeForeignKey {
		return domain.ErrQuestNotFound
	}
	if err != nil {
		return fmt.Errorf("save quest content: %w", err)
	}
	return nil
}

func scanQuest(row pgx.Row) (domain.Quest, error) {
	var q domain.Quest
	if err := row.Scan(&q.ID, &q.Title, &q.Description, &q.ActiveFrom, &q.ActiveTo, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return domain.Quest{}, err
	}
	q.ActiveFrom = q.ActiveFrom.UTC()
	q.ActiveTo = q.ActiveTo.UTC()
	return q, nil
}
