package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quest-service/internal/domain"
)

// ContentLoader fetches quest content from a backing store (e.g., Postgres).
type ContentLoader interface {
	GetContent(ctx context.Context, questID string) (domain.QuestContent, error)
}

// ContentCache caches quest content with TTL to avoid repeated DB hits.
type ContentCache struct {
	loader ContentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedContent
}

type cachedContent struct {
	content   domain.QuestContent
	expiresAt time.Time
}

func NewContentCache(loader ContentLoader, ttl time.Duration) *ContentCache {
	return &ContentCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedContent),
	}
}

// GetContent returns a private copy of the cached content, loading it on a
// miss. Concurrent misses for the same quest share one load; errors are not cached.
func (c *ContentCache) GetContent(ctx context.Context, questID string) (domain.QuestContent, error) {
	if qc, ok := c.lookup(questID); ok {
		return qc, nil
	}

	result, err, _ := c.sf.Do(questID, func() (interface{}, error) {
		if qc, ok := c.lookup(questID); ok {
			return qc, nil
		}
		qc, err := c.loader.GetContent(ctx, questID)
		if err != nil {
			return domain.QuestContent{}, err
		}

		c.mu.Lock()
		c.cache[questID] = cachedContent{
			content:   qc,
			expiresAt: c.clock().Add(c.ttlWithJitterLocked()),
		}
		c.mu.Unlock()
		return qc, nil
	})
	if err != nil {
		return domain.QuestContent{}, err
	}
	qc := result.(domain.QuestContent)
	qc.Questions = domain.CloneQuestions(qc.Questions)
	return qc, nil
}

// Invalidate drops the cached entry so the next read reloads it.
func (c *ContentCache) Invalidate(_ context.Context, questID string) error {
	c.mu.Lock()
	delete(c.cache, questID)
	c.mu.Unlock()
	c.sf.Forget(questID)
	return nil
}

func (c *ContentCache) lookup(questID string) (domain.QuestContent, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[questID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.QuestContent{}, false
	}
	qc := entry.content
	qc.Questions = domain.CloneQuestions(qc.Questions)
	return qc, true
}

func (c *ContentCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
