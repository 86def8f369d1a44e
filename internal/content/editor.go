package content

import (
	"sort"
	"strconv"

	"github.com/google/uuid"

	"quest-service/internal/domain"
)

// Every edit below returns a new question sequence and leaves its input untouched.
// Out-of-range indexes make an edit a no-op.

// NewID returns a fresh identifier for questions and options.
func NewID() string {
	return uuid.NewString()
}

// NewQuestion builds the authoring default: a single-choice question with four
// blank options, the first option marked correct and one point.
func NewQuestion(order int) domain.Question {
	options := make([]domain.Option, 4)
	for i := range options {
		options[i] = domain.Option{ID: NewID()}
	}
	return domain.Question{
		ID:      NewID(),
		Type:    domain.SingleChoice,
		Options: options,
		Correct: domain.SingleKey{Index: "0"},
		Points:  1,
		Order:   order,
	}
}

// AddQuestion appends q at the end of the sequence.
func AddQuestion(qs []domain.Question, q domain.Question) []domain.Question {
	out := domain.CloneQuestions(qs)
	q = q.Clone()
	q.Order = len(out)
	return append(out, q)
}

// ReplaceQuestion swaps the question at i for q, keeping its position.
func ReplaceQuestion(qs []domain.Question, i int, q domain.Question) []domain.Question {
	out := domain.CloneQuestions(qs)
	if !inRange(out, i) {
		return out
	}
	q = q.Clone()
	q.Order = i
	out[i] = q
	return out
}

// ChangeType switches the question at i to t. The correct answer is carried
// over where the shapes allow it and cleared otherwise.
func ChangeType(qs []domain.Question, i int, t domain.QuestionType) []domain.Question {
	out := domain.CloneQuestions(qs)
	if !inRange(out, i) || !t.Valid() || out[i].Type == t {
		return out
	}
	q := out[i]
	var key domain.CorrectAnswer
	switch k := q.Correct.(type) {
	case domain.SingleKey:
		if t == domain.MultipleChoice {
			key = domain.MultiKey{Indexes: []string{k.Index}}
		}
	case domain.MultiKey:
		if t == domain.SingleChoice && len(k.Indexes) > 0 {
			key = domain.SingleKey{Index: k.Indexes[0]}
		}
	}
	q.Type = t
	q.Correct = key
	if t.HasOptions() {
		for len(q.Options) < MinOptions {
			q.Options = append(q.Options, domain.Option{ID: NewID()})
		}
	}
	out[i] = q
	return out
}

// MoveUp swaps the question at i with its predecessor.
func MoveUp(qs []domain.Question, i int) []domain.Question {
	out := domain.CloneQuestions(qs)
	if i <= 0 || i >= len(out) {
		return out
	}
	out[i-1], out[i] = out[i], out[i-1]
	return renumber(out)
}

// MoveDown swaps the question at i with its successor.
func MoveDown(qs []domain.Question, i int) []domain.Question {
	out := domain.CloneQuestions(qs)
	if i < 0 || i >= len(out)-1 {
		return out
	}
	out[i], out[i+1] = out[i+1], out[i]
	return renumber(out)
}

// DeleteQuestion removes the question at i and closes the gap in order.
func DeleteQuestion(qs []domain.Question, i int) []domain.Question {
	out := domain.CloneQuestions(qs)
	if !inRange(out, i) {
		return out
	}
	out = append(out[:i], out[i+1:]...)
	return renumber(out)
}

// Renumber sets every question's order to its position.
func Renumber(qs []domain.Question) []domain.Question {
	return renumber(domain.CloneQuestions(qs))
}

// SortByOrder returns the questions arranged by their order field.
func SortByOrder(qs []domain.Question) []domain.Question {
	out := domain.CloneQuestions(qs)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Order < out[b].Order })
	return out
}

// AddOption appends a blank option to the question at qi.
func AddOption(qs []domain.Question, qi int) []domain.Question {
	out := domain.CloneQuestions(qs)
	if !inRange(out, qi) {
		return out
	}
	out[qi].Options = append(out[qi].Options, domain.Option{ID: NewID()})
	return out
}

// UpdateOption sets the text of option oi of question qi.
func UpdateOption(qs []domain.Question, qi, oi int, text string) []domain.Question {
	out := domain.CloneQuestions(qs)
	if !inRange(out, qi) || oi < 0 || oi >= len(out[qi].Options) {
		return out
	}
	out[qi].Options[oi].Text = text
	return out
}

// RemoveOption deletes option oi of question qi unless that would leave fewer
// than MinOptions. Correct-answer indexes are shifted to keep pointing at the
// same options; an index naming the removed option is dropped.
func RemoveOption(qs []domain.Question, qi, oi int) []domain.Question {
	out := domain.CloneQuestions(qs)
	if !inRange(out, qi) {
		return out
	}
	q := out[qi]
	if oi < 0 || oi >= len(q.Options) || len(q.Options) <= MinOptions {
		return out
	}
	q.Options = append(q.Options[:oi], q.Options[oi+1:]...)
	switch k := q.Correct.(type) {
	case domain.SingleKey:
		if idx, ok := shiftIndex(k.Index, oi); ok {
			q.Correct = domain.SingleKey{Index: idx}
		} else {
			q.Correct = nil
		}
	case domain.MultiKey:
		kept := make([]string, 0, len(k.Indexes))
		for _, raw := range k.Indexes {
			if idx, ok := shiftIndex(raw, oi); ok {
				kept = append(kept, idx)
			}
		}
		q.Correct = domain.MultiKey{Indexes: kept}
	}
	out[qi] = q
	return out
}

// SetCorrectAnswer replaces the correct answer of question qi.
func SetCorrectAnswer(qs []domain.Question, qi int, key domain.CorrectAnswer) []domain.Question {
	out := domain.CloneQuestions(qs)
	if !inRange(out, qi) {
		return out
	}
	out[qi].Correct = key
	return out
}

// ToggleCorrectOption marks or unmarks option oi as correct on a
// multiple-choice question.
func ToggleCorrectOption(qs []domain.Question, qi, oi int, checked bool) []domain.Question {
	out := domain.CloneQuestions(qs)
	if !inRange(out, qi) || out[qi].Type != domain.MultipleChoice || oi < 0 || oi >= len(out[qi].Options) {
		return out
	}
	var current []string
	if k, ok := out[qi].Correct.(domain.MultiKey); ok {
		current = k.Indexes
	}
	out[qi].Correct = domain.MultiKey{Indexes: toggle(current, strconv.Itoa(oi), checked)}
	return out
}

func toggle(set []string, v string, on bool) []string {
	out := make([]string, 0, len(set)+1)
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	if on {
		out = append(out, v)
	}
	return out
}

func shiftIndex(raw string, removed int) (string, bool) {
	i, err := strconv.Atoi(raw)
	if err != nil || i == removed {
		return "", false
	}
	if i > removed {
		i--
	}
	return strconv.Itoa(i), true
}

func renumber(qs []domain.Question) []domain.Question {
	for i := range qs {
		qs[i].Order = i
	}
	return qs
}

func inRange(qs []domain.Question, i int) bool {
	return i >= 0 && i < len(qs)
}
