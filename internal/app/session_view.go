package app

import (
	"fmt"
	"time"

	"quest-service/internal/domain"
)

// EventType labels what changed in a session update.
type EventType string

const (
	EventState     EventType = "state"
	EventTick      EventType = "tick"
	EventSubmitted EventType = "submitted"
)

// Event is pushed to subscribers whenever the session changes.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot Snapshot  `json:"snapshot"`
}

// PlayerQuestion is a question as shown while playing; the key and the
// explanation are never part of it.
type PlayerQuestion struct {
	ID      string              `json:"id"`
	Type    domain.QuestionType `json:"type"`
	Text    string              `json:"text"`
	Options []domain.Option     `json:"options,omitempty"`
	Points  int                 `json:"points"`
}

// AnswerView renders an answer or a key in wire form. Exactly one field is set.
type AnswerView struct {
	Index   *string  `json:"index,omitempty"`
	Indexes []string `json:"indexes,omitempty"`
	Text    *string  `json:"text,omitempty"`
}

// ResultView is the frozen result plus its rendered percentage. Percentage is
// nil when the quest has no points.
type ResultView struct {
	Score      int             `json:"score"`
	Total      int             `json:"total"`
	Percentage *int            `json:"percentage"`
	Correct    map[string]bool `json:"correct"`
	Auto       bool            `json:"auto"`
}

// ReviewItem is one row of the post-submit review.
type ReviewItem struct {
	QuestionID  string          `json:"question_id"`
	Text        string          `json:"text"`
	Options     []domain.Option `json:"options,omitempty"`
	Points      int             `json:"points"`
	Correct     bool            `json:"correct"`
	Given       *AnswerView     `json:"given,omitempty"`
	Expected    *AnswerView     `json:"expected,omitempty"`
	Explanation string          `json:"explanation,omitempty"`
}

// Snapshot is a read-only view of a session suitable for sending to a player.
type Snapshot struct {
	SessionID        string          `json:"session_id"`
	QuestID          string          `json:"quest_id"`
	Mode             domain.Mode     `json:"mode"`
	State            string          `json:"state"`
	Index            int             `json:"index"`
	Count            int             `json:"count"`
	Answered         int             `json:"answered"`
	Question         *PlayerQuestion `json:"question,omitempty"`
	Answer           *AnswerView     `json:"answer,omitempty"`
	RemainingSeconds *int            `json:"remaining_seconds,omitempty"`
	Remaining        string          `json:"remaining,omitempty"`
	CanSubmit        bool            `json:"can_submit"`
	Result           *ResultView     `json:"result,omitempty"`
	Review           []ReviewItem    `json:"review,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- Event{Type: EventState, Snapshot: s.snapshotLocked()}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(t EventType) {
	if len(s.subscribers) == 0 {
		return
	}
	ev := Event{Type: t, Snapshot: s.snapshotLocked()}
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow readers only need the latest view.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		QuestID:   s.questID,
		Mode:      s.mode,
		State:     s.state.String(),
		Index:     s.cursor,
		Count:     len(s.questions),
		Answered:  s.answeredCountLocked(),
		UpdatedAt: s.now().UTC(),
	}
	snap.CanSubmit = s.state == StateInProgress && snap.Answered == snap.Count

	if s.state == StateInProgress && s.cursor < len(s.questions) {
		q := s.questions[s.cursor]
		snap.Question = &PlayerQuestion{
			ID:      q.ID,
			Type:    q.Type,
			Text:    q.Text,
			Options: append([]domain.Option(nil), q.Options...),
			Points:  q.Points,
		}
		snap.Answer = answerView(s.answers[q.ID])
	}
	if s.timed {
		remaining := s.remaining
		snap.RemainingSeconds = &remaining
		snap.Remaining = FormatRemaining(remaining)
	}

	if s.result != nil {
		rv := &ResultView{
			Score:   s.result.Score,
			Total:   s.result.Total,
			Correct: make(map[string]bool, len(s.result.Correct)),
			Auto:    s.auto,
		}
		for id, ok := range s.result.Correct {
			rv.Correct[id] = ok
		}
		if pct, ok := s.result.Percentage(); ok {
			rv.Percentage = &pct
		}
		snap.Result = rv
		if s.settings.ShowCorrectAnswers {
			snap.Review = s.reviewLocked()
		}
	}
	return snap
}

func (s *Session) reviewLocked() []ReviewItem {
	items := make([]ReviewItem, 0, len(s.questions))
	for _, q := range s.questions {
		item := ReviewItem{
			QuestionID:  q.ID,
			Text:        q.Text,
			Options:     append([]domain.Option(nil), q.Options...),
			Points:      q.Points,
			Correct:     s.result.Correct[q.ID],
			Given:       answerView(s.answers[q.ID]),
			Explanation: q.Explanation,
		}
		if key, ok := q.Key(); ok {
			item.Expected = keyView(key)
		}
		items = append(items, item)
	}
	return items
}

func answerView(a domain.Answer) *AnswerView {
	switch v := a.(type) {
	case domain.ChoiceAnswer:
		idx := v.Index
		return &AnswerView{Index: &idx}
	case domain.MultiAnswer:
		return &AnswerView{Indexes: append([]string{}, v.Indexes...)}
	case domain.TextAnswer:
		text := v.Text
		return &AnswerView{Text: &text}
	}
	return nil
}

func keyView(k domain.CorrectAnswer) *AnswerView {
	switch v := k.(type) {
	case domain.SingleKey:
		return answerView(domain.ChoiceAnswer{Index: v.Index})
	case domain.MultiKey:
		return answerView(domain.MultiAnswer{Indexes: v.Indexes})
	case domain.TextKey:
		return answerView(domain.TextAnswer{Text: v.Text})
	}
	return nil
}
