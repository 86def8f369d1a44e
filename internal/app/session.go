package app

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"quest-service/internal/content"
	"quest-service/internal/domain"
	"quest-service/internal/scoring"
)

// State is the lifecycle position of a play session.
type State int

const (
	StateLoading State = iota
	StateInProgress
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

// SessionOptions tunes a session. Zero values pick production behaviour,
// except TickInterval: zero disables the background ticker so the caller
// drives Tick itself.
type SessionOptions struct {
	Now          func() time.Time
	Shuffle      func(n int, swap func(i, j int))
	TickInterval time.Duration
	OnSubmit     func(domain.Attempt)
}

// Session is one player's attempt at a quest. All mutation goes through its
// transition methods; a mutex serialises them against the timer goroutine.
type Session struct {
	id        string
	questID   string
	playerID  string
	now       func() time.Time
	shuffle   func(n int, swap func(i, j int))
	tickEvery time.Duration
	onSubmit  func(domain.Attempt)

	mu          sync.RWMutex
	state       State
	mode        domain.Mode
	questions   []domain.Question
	settings    domain.QuestSettings
	answers     map[string]domain.Answer
	cursor      int
	timed       bool
	remaining   int
	stopTimer   func()
	result      *domain.Result
	auto        bool
	submittedAt time.Time
	closed      bool
	subscribers map[chan Event]struct{}
}

// NewSession creates a session in the Loading state.
func NewSession(id, questID, playerID string, opts SessionOptions) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Shuffle == nil {
		opts.Shuffle = rand.Shuffle
	}
	return &Session{
		id:          id,
		questID:     questID,
		playerID:    playerID,
		now:         opts.Now,
		shuffle:     opts.Shuffle,
		tickEvery:   opts.TickInterval,
		onSubmit:    opts.OnSubmit,
		state:       StateLoading,
		mode:        domain.ModePractice,
		answers:     make(map[string]domain.Answer),
		subscribers: make(map[chan Event]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// QuestID returns the quest this session plays.
func (s *Session) QuestID() string { return s.questID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Mode reports whether the session is scored or practice.
func (s *Session) Mode() domain.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Begin moves a loading session into progress with a private copy of the
// content. Questions are arranged by order and shuffled once if configured;
// a time limit starts the countdown.
func (s *Session) Begin(c domain.QuestContent, mode domain.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionNotFound
	}
	if s.state != StateLoading {
		return nil
	}

	questions := content.SortByOrder(c.Questions)
	if c.Settings.ShuffleQuestions && len(questions) > 1 {
		s.shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	s.questions = questions
	s.settings = c.Settings
	s.mode = mode
	s.cursor = 0
	s.state = StateInProgress

	if limit, ok := c.Settings.TimeLimit(); ok {
		s.timed = true
		s.remaining = int(limit / time.Second)
		s.startTimerLocked()
	}
	s.broadcastLocked(EventState)
	return nil
}

// Next moves the cursor forward, staying on the last question.
func (s *Session) Next() int { return s.move(func(i int) int { return i + 1 }) }

// Prev moves the cursor back, staying on the first question.
func (s *Session) Prev() int { return s.move(func(i int) int { return i - 1 }) }

// GoTo jumps to question i, clamped to the valid range.
func (s *Session) GoTo(i int) int { return s.move(func(int) int { return i }) }

func (s *Session) move(step func(int) int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateInProgress || len(s.questions) == 0 {
		return s.cursor
	}
	next := step(s.cursor)
	if next < 0 {
		next = 0
	}
	if last := len(s.questions) - 1; next > last {
		next = last
	}
	if next != s.cursor {
		s.cursor = next
		s.broadcastLocked(EventState)
	}
	return s.cursor
}

// SelectOption records option index as the answer to a single-choice question.
func (s *Session) SelectOption(questionID string, option int) error {
	return s.Record(questionID, domain.ChoiceAnswer{Index: strconv.Itoa(option)})
}

// ToggleOption adds or removes option index from a multiple-choice answer.
func (s *Session) ToggleOption(questionID string, option int, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.answerableLocked(questionID)
	if err != nil {
		return err
	}
	if q.Type != domain.MultipleChoice {
		return domain.ErrAnswerTypeMismatch
	}
	if option < 0 || option >= len(q.Options) {
		return domain.ErrOptionNotFound
	}
	var current []string
	if prev, ok := s.answers[questionID].(domain.MultiAnswer); ok {
		current = prev.Indexes
	}
	idx := strconv.Itoa(option)
	next := make([]string, 0, len(current)+1)
	for _, v := range current {
		if v != idx {
			next = append(next, v)
		}
	}
	if checked {
		next = append(next, idx)
	}
	s.answers[questionID] = domain.MultiAnswer{Indexes: next}
	s.broadcastLocked(EventState)
	return nil
}

// SetText records free text for a text question.
func (s *Session) SetText(questionID, text string) error {
	return s.Record(questionID, domain.TextAnswer{Text: text})
}

// Record overwrites the answer for a question. The answer shape must match
// the question type and choice indexes must name existing options; they are
// stored in canonical decimal form.
func (s *Session) Record(questionID string, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.answerableLocked(questionID)
	if err != nil {
		return err
	}
	if !domain.AnswerMatches(q.Type, answer) {
		return domain.ErrAnswerTypeMismatch
	}
	switch a := answer.(type) {
	case domain.ChoiceAnswer:
		idx, ok := optionIndex(q, a.Index)
		if !ok {
			return domain.ErrOptionNotFound
		}
		answer = domain.ChoiceAnswer{Index: idx}
	case domain.MultiAnswer:
		indexes := make([]string, 0, len(a.Indexes))
		seen := make(map[string]struct{}, len(a.Indexes))
		for _, raw := range a.Indexes {
			idx, ok := optionIndex(q, raw)
			if !ok {
				return domain.ErrOptionNotFound
			}
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			indexes = append(indexes, idx)
		}
		answer = domain.MultiAnswer{Indexes: indexes}
	}
	s.answers[questionID] = answer
	s.broadcastLocked(EventState)
	return nil
}

// IsAnswered reports whether the question has a usable answer: non-blank text,
// a selected option, or a non-empty selection.
func (s *Session) IsAnswered(questionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return answered(s.answers[questionID])
}

// CanSubmit reports whether manual submission is currently allowed.
func (s *Session) CanSubmit() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateInProgress && s.answeredCountLocked() == len(s.questions)
}

// Submit finalises the session after every question is answered. Calling it
// again after submission returns the frozen result unchanged.
func (s *Session) Submit() (domain.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Result{}, domain.ErrSessionNotFound
	}
	switch s.state {
	case StateLoading:
		s.mu.Unlock()
		return domain.Result{}, domain.ErrSessionNotReady
	case StateSubmitted:
		res := *s.result
		s.mu.Unlock()
		return res, nil
	}
	if s.answeredCountLocked() != len(s.questions) {
		s.mu.Unlock()
		return domain.Result{}, domain.ErrIncompleteAnswers
	}
	attempt := s.submitLocked(false)
	s.mu.Unlock()

	s.notifySubmit(attempt)
	return attempt.Result, nil
}

// Tick advances the countdown by one second. Reaching zero submits the
// session regardless of unanswered questions. Ticks outside InProgress or on
// untimed or closed sessions do nothing.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.closed || s.state != StateInProgress || !s.timed {
		s.mu.Unlock()
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		s.broadcastLocked(EventTick)
		s.mu.Unlock()
		return
	}
	attempt := s.submitLocked(true)
	s.mu.Unlock()

	s.notifySubmit(attempt)
}

// Result returns the frozen result once the session is submitted.
func (s *Session) Result() (domain.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return domain.Result{}, false
	}
	return *s.result, true
}

// Close tears the session down: the timer is cancelled and subscribers are
// released. The session keeps its state but publishes nothing further.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelTimerLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) submitLocked(auto bool) domain.Attempt {
	s.cancelTimerLocked()
	result := scoring.Score(s.questions, s.answers)
	s.result = &result
	s.auto = auto
	s.state = StateSubmitted
	s.submittedAt = s.now()
	s.broadcastLocked(EventSubmitted)
	return domain.Attempt{
		SessionID:   s.id,
		QuestID:     s.questID,
		PlayerID:    s.playerID,
		Mode:        s.mode,
		Result:      result,
		Auto:        auto,
		SubmittedAt: s.submittedAt,
	}
}

func (s *Session) notifySubmit(attempt domain.Attempt) {
	if s.onSubmit != nil {
		s.onSubmit(attempt)
	}
}

// startTimerLocked runs the one-second countdown as a task owned by the
// session. It is stopped by cancelTimerLocked on submit or Close.
func (s *Session) startTimerLocked() {
	if s.tickEvery <= 0 || s.stopTimer != nil {
		return
	}
	stop := make(chan struct{})
	var once sync.Once
	s.stopTimer = func() { once.Do(func() { close(stop) }) }

	ticker := time.NewTicker(s.tickEvery)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}

func (s *Session) cancelTimerLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

func (s *Session) answerableLocked(questionID string) (domain.Question, error) {
	if s.closed {
		return domain.Question{}, domain.ErrSessionNotFound
	}
	switch s.state {
	case StateLoading:
		return domain.Question{}, domain.ErrSessionNotReady
	case StateSubmitted:
		return domain.Question{}, domain.ErrSessionSubmitted
	}
	for _, q := range s.questions {
		if q.ID == questionID {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *Session) answeredCountLocked() int {
	n := 0
	for _, q := range s.questions {
		if answered(s.answers[q.ID]) {
			n++
		}
	}
	return n
}

func answered(a domain.Answer) bool {
	switch v := a.(type) {
	case domain.ChoiceAnswer:
		return v.Index != ""
	case domain.MultiAnswer:
		return len(v.Indexes) > 0
	case domain.TextAnswer:
		return strings.TrimSpace(v.Text) != ""
	}
	return false
}

// optionIndex resolves raw to an option of q and returns its canonical
// decimal form, so "01" and "1" are recorded alike.
func optionIndex(q domain.Question, raw string) (string, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || i < 0 || i >= len(q.Options) {
		return "", false
	}
	return strconv.Itoa(i), true
}
