package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quest-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions own a timer goroutine and subscriber channels, so the live objects
// stay in a local map. Redis carries a liveness marker per session holding
// its quest id, which lets operators see active play across instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Save(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), key(session.ID()), session.QuestID(), s.ttl).Err()
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if ok {
		_ = s.client.Del(context.Background(), key(sessionID)).Err()
	}
}

// Refresh rewrites the markers of every local session with a fresh TTL.
func (s *SessionStore) Refresh(ctx context.Context) error {
	s.mu.RLock()
	markers := make(map[string]string, len(s.sessions))
	for id, session := range s.sessions {
		markers[id] = session.QuestID()
	}
	s.mu.RUnlock()
	if len(markers) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for id, questID := range markers {
		pipe.Set(ctx, key(id), questID, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// KeepAlive calls Refresh every half TTL until ctx is done, so sessions
// played for longer than the TTL stay visible to Live.
func (s *SessionStore) KeepAlive(ctx context.Context, log *zap.Logger) {
	if s.ttl <= 0 {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				log.Warn("refresh session markers failed", zap.Error(err))
			}
		}
	}
}

// Live counts liveness markers across every instance sharing the Redis.
func (s *SessionStore) Live(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "quest:session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

func key(sessionID string) string {
	return "quest:session:" + sessionID
}
