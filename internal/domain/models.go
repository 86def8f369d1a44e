package domain

import (
	"math"
	"time"
)

// QuestionType is the closed set of question kinds.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	Text           QuestionType = "text"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoice, MultipleChoice, Text:
		return true
	}
	return false
}

// HasOptions reports whether questions of this type carry options.
func (t QuestionType) HasOptions() bool {
	return t == SingleChoice || t == MultipleChoice
}

// Option is one selectable choice of a choice question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CorrectAnswer is the expected answer of a question. The concrete variant
// must match the question type; a mismatched key behaves as unset.
type CorrectAnswer interface {
	keyType() QuestionType
}

// SingleKey is the correct option index (as a string) of a single-choice question.
type SingleKey struct{ Index string }

// MultiKey is the set of correct option indexes of a multiple-choice question.
type MultiKey struct{ Indexes []string }

// TextKey is the expected free-form answer of a text question.
type TextKey struct{ Text string }

func (SingleKey) keyType() QuestionType { return SingleChoice }
func (MultiKey) keyType() QuestionType  { return MultipleChoice }
func (TextKey) keyType() QuestionType   { return Text }

// Question is one evaluable unit of a quest.
type Question struct {
	ID          string
	Type        QuestionType
	Text        string
	Options     []Option
	Correct     CorrectAnswer
	Points      int
	Explanation string
	Order       int
}

// Key returns the correct answer if it is set and matches the question type.
func (q Question) Key() (CorrectAnswer, bool) {
	if q.Correct == nil || q.Correct.keyType() != q.Type {
		return nil, false
	}
	return q.Correct, true
}

// Clone returns a deep copy so edits never alias option or key slices.
func (q Question) Clone() Question {
	out := q
	if q.Options != nil {
		out.Options = append([]Option(nil), q.Options...)
	}
	if k, ok := q.Correct.(MultiKey); ok {
		out.Correct = MultiKey{Indexes: append([]string(nil), k.Indexes...)}
	}
	return out
}

// CloneQuestions deep-copies a question sequence.
func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}

// QuestSettings configures how a quest is played.
type QuestSettings struct {
	ShuffleQuestions   bool `json:"shuffle_questions" yaml:"shuffle_questions"`
	ShowCorrectAnswers bool `json:"show_correct_answers" yaml:"show_correct_answers"`
	AttemptsAllowed    int  `json:"attempts_allowed" yaml:"attempts_allowed"`
	TimeLimitMinutes   *int `json:"time_limit_minutes,omitempty" yaml:"time_limit_minutes,omitempty"`
}

// DefaultSettings is used when a quest has no stored content.
func DefaultSettings() QuestSettings {
	return QuestSettings{
		ShuffleQuestions:   false,
		ShowCorrectAnswers: true,
		AttemptsAllowed:    1,
	}
}

// TimeLimit returns the configured limit, or false when the quest is untimed.
func (s QuestSettings) TimeLimit() (time.Duration, bool) {
	if s.TimeLimitMinutes == nil || *s.TimeLimitMinutes <= 0 {
		return 0, false
	}
	return time.Duration(*s.TimeLimitMinutes) * time.Minute, true
}

// QuestContent is the question list and settings of a quest.
type QuestContent struct {
	Questions []Question    `json:"questions"`
	Settings  QuestSettings `json:"settings"`
}

// EmptyContent is what callers use in place of missing content.
func EmptyContent() QuestContent {
	return QuestContent{Questions: []Question{}, Settings: DefaultSettings()}
}

// Quest is the metadata of a quiz campaign.
type Quest struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ActiveFrom  time.Time  `json:"active_from"`
	ActiveTo    time.Time  `json:"active_to"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// QuestPatch carries a partial metadata update; nil fields are left untouched.
type QuestPatch struct {
	Title       *string
	Description *string
	ActiveFrom  *time.Time
	ActiveTo    *time.Time
}

// Apply returns q with the patch applied.
func (p QuestPatch) Apply(q Quest) Quest {
	if p.Title != nil {
		q.Title = *p.Title
	}
	if p.Description != nil {
		q.Description = *p.Description
	}
	if p.ActiveFrom != nil {
		q.ActiveFrom = p.ActiveFrom.UTC()
	}
	if p.ActiveTo != nil {
		q.ActiveTo = p.ActiveTo.UTC()
	}
	return q
}

// Answer is a captured player answer. The variant must match the question type.
type Answer interface {
	answerType() QuestionType
}

// ChoiceAnswer is the selected option index of a single-choice question.
type ChoiceAnswer struct{ Index string }

// MultiAnswer is the set of selected option indexes of a multiple-choice question.
type MultiAnswer struct{ Indexes []string }

// TextAnswer is free text typed for a text question.
type TextAnswer struct{ Text string }

func (ChoiceAnswer) answerType() QuestionType { return SingleChoice }
func (MultiAnswer) answerType() QuestionType  { return MultipleChoice }
func (TextAnswer) answerType() QuestionType   { return Text }

// AnswerMatches reports whether a is shaped for questions of type t.
func AnswerMatches(t QuestionType, a Answer) bool {
	return a != nil && a.answerType() == t
}

// Result is the outcome of a submitted session.
type Result struct {
	Correct map[string]bool `json:"correct"`
	Score   int             `json:"score"`
	Total   int             `json:"total"`
}

// Percentage returns round(score/total*100). The second value is false when
// the quest carries no points and a percentage is not applicable.
func (r Result) Percentage() (int, bool) {
	if r.Total <= 0 {
		return 0, false
	}
	return int(math.Round(float64(r.Score) / float64(r.Total) * 100)), true
}

// Mode tells whether a session counts toward scored record keeping.
type Mode string

const (
	ModeScored   Mode = "scored"
	ModePractice Mode = "practice"
)

// Attempt is a submitted scored session handed to record keeping.
type Attempt struct {
	SessionID   string    `json:"sessionId"`
	QuestID     string    `json:"questId"`
	PlayerID    string    `json:"playerId"`
	Mode        Mode      `json:"mode"`
	Result      Result    `json:"result"`
	Auto        bool      `json:"auto"`
	SubmittedAt time.Time `json:"submittedAt"`
}
