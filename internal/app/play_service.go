package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quest-service/internal/domain"
)

// SessionRepository abstracts where live play sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuestReader resolves quest metadata.
type QuestReader interface {
	GetQuest(ctx context.Context, questID string) (domain.Quest, error)
}

// ContentRepository loads quest content (from cache/backing store).
type ContentRepository interface {
	GetContent(ctx context.Context, questID string) (domain.QuestContent, error)
}

// ResultRecorder persists scored attempts and counts previous ones.
type ResultRecorder interface {
	RecordAttempt(ctx context.Context, attempt domain.Attempt) error
	CountAttempts(ctx context.Context, questID, playerID string) (int, error)
}

// PlayConfig tunes sessions created by the play service.
type PlayConfig struct {
	TickInterval  time.Duration
	RecordTimeout time.Duration
	Now           func() time.Time
}

// StartRequest asks for a new session on a quest.
type StartRequest struct {
	QuestID  string
	PlayerID string
	Practice bool
}

// PlayService contains the player-facing use cases.
type PlayService struct {
	sessions SessionRepository
	quests   QuestReader
	contents ContentRepository
	results  ResultRecorder
	cfg      PlayConfig
	log      *zap.Logger
}

// NewPlayService wires the play use cases. results may be nil, in which case
// attempts are neither counted nor recorded.
func NewPlayService(sessions SessionRepository, quests QuestReader, contents ContentRepository, results ResultRecorder, cfg PlayConfig, log *zap.Logger) *PlayService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PlayService{
		sessions: sessions,
		quests:   quests,
		contents: contents,
		results:  results,
		cfg:      cfg,
		log:      log.Named("play"),
	}
}

// Start opens a session on a quest. Missing content plays as an empty quest
// with default settings. The session is scored only inside the quest's
// active window, when practice was not requested and the player still has
// attempts left.
func (s *PlayService) Start(ctx context.Context, req StartRequest) (*Session, error) {
	quest, err := s.quests.GetQuest(ctx, req.QuestID)
	if err != nil {
		return nil, err
	}

	session := NewSession(uuid.NewString(), quest.ID, req.PlayerID, SessionOptions{
		Now:          s.cfg.Now,
		TickInterval: s.cfg.TickInterval,
		OnSubmit:     s.record,
	})
	s.sessions.Save(session)
	abort := func(err error) (*Session, error) {
		s.sessions.Delete(session.ID())
		session.Close()
		return nil, err
	}

	c, err := s.contents.GetContent(ctx, quest.ID)
	if errors.Is(err, domain.ErrContentNotFound) {
		c = domain.EmptyContent()
	} else if err != nil {
		return abort(err)
	}

	mode := s.modeFor(ctx, quest, c.Settings, req)
	if err := session.Begin(c, mode); err != nil {
		return abort(err)
	}
	s.log.Info("session started",
		zap.String("session_id", session.ID()),
		zap.String("quest_id", quest.ID),
		zap.String("player_id", req.PlayerID),
		zap.String("mode", string(mode)),
		zap.Int("questions", len(c.Questions)),
	)
	return session, nil
}

// Session returns a live session.
func (s *PlayService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Submit finalises a session and returns its result.
func (s *PlayService) Submit(sessionID string) (domain.Result, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.Result{}, err
	}
	return session.Submit()
}

// Leave discards a session, stopping its timer.
func (s *PlayService) Leave(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
}

func (s *PlayService) modeFor(ctx context.Context, quest domain.Quest, settings domain.QuestSettings, req StartRequest) domain.Mode {
	mode := domain.ModeAt(quest, s.cfg.Now())
	if req.Practice || mode == domain.ModePractice {
		return domain.ModePractice
	}
	if s.results == nil || req.PlayerID == "" {
		return mode
	}
	used, err := s.results.CountAttempts(ctx, quest.ID, req.PlayerID)
	if err != nil {
		s.log.Warn("count attempts failed", zap.String("quest_id", quest.ID), zap.Error(err))
		return mode
	}
	if used >= settings.AttemptsAllowed {
		s.log.Info("attempts exhausted, playing as practice",
			zap.String("quest_id", quest.ID),
			zap.String("player_id", req.PlayerID),
			zap.Int("attempts", used),
		)
		return domain.ModePractice
	}
	return mode
}

// record runs outside the session lock once a session is submitted.
func (s *PlayService) record(attempt domain.Attempt) {
	fields := []zap.Field{
		zap.String("session_id", attempt.SessionID),
		zap.String("quest_id", attempt.QuestID),
		zap.Int("score", attempt.Result.Score),
		zap.Int("total", attempt.Result.Total),
		zap.Bool("auto", attempt.Auto),
	}
	if attempt.Mode != domain.ModeScored || s.results == nil {
		s.log.Debug("practice session submitted", fields...)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RecordTimeout)
	defer cancel()
	if err := s.results.RecordAttempt(ctx, attempt); err != nil {
		s.log.Error("record attempt failed", append(fields, zap.Error(err))...)
		return
	}
	s.log.Info("session submitted", fields...)
}
