package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quest-service/internal/domain"
)

// ContentLoader fetches quest content from a backing store (e.g., Postgres).
type ContentLoader interface {
	GetContent(ctx context.Context, questID string) (domain.QuestContent, error)
}

// ContentCache keeps quest content in Redis and falls back to a loader on cache miss.
// Content is stored as a JSON document: SET quest:{questID}:content {json} EX ttl
type ContentCache struct {
	client *redis.Client
	loader ContentLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewContentCache(client *redis.Client, loader ContentLoader, ttl time.Duration) *ContentCache {
	return &ContentCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ContentCache) GetContent(ctx context.Context, questID string) (domain.QuestContent, error) {
	if qc, ok := c.cached(ctx, questID); ok {
		return qc, nil
	}

	result, err, _ := c.sf.Do(questID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qc, ok := c.cached(ctx, questID); ok {
			return qc, nil
		}

		qc, err := c.loader.GetContent(ctx, questID)
		if err != nil {
			return domain.QuestContent{}, err
		}

		payload, err := json.Marshal(qc)
		if err != nil {
			return domain.QuestContent{}, fmt.Errorf("encode quest content: %w", err)
		}
		// best-effort: a failed write only costs the next reader a reload
		_ = c.client.Set(ctx, contentKey(questID), payload, c.ttlWithJitter()).Err()
		return qc, nil
	})
	if err != nil {
		return domain.QuestContent{}, err
	}
	qc := result.(domain.QuestContent)
	qc.Questions = domain.CloneQuestions(qc.Questions)
	return qc, nil
}

// Invalidate deletes the cached document.
func (c *ContentCache) Invalidate(ctx context.Context, questID string) error {
	c.sf.Forget(questID)
	if err := c.client.Del(ctx, contentKey(questID)).Err(); err != nil {
		return fmt.Errorf("invalidate quest content: %w", err)
	}
	return nil
}

func (c *ContentCache) cached(ctx context.Context, questID string) (domain.QuestContent, bool) {
	raw, err := c.client.Get(ctx, contentKey(questID)).Bytes()
	if err != nil {
		return domain.QuestContent{}, false
	}
	var qc domain.QuestContent
	if err := json.Unmarshal(raw, &qc); err != nil {
		return domain.QuestContent{}, false
	}
	if qc.Questions == nil {
		qc.Questions = []domain.Question{}
	}
	return qc, true
}

func contentKey(questID string) string {
	return "quest:" + questID + ":content"
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
