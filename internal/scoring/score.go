// Package scoring turns captured answers into a deterministic result.
package scoring

import (
	"strings"

	"quest-service/internal/domain"
)

// Score evaluates every question against the captured answers. Unanswered
// questions are incorrect; nothing here returns an error.
func Score(questions []domain.Question, answers map[string]domain.Answer) domain.Result {
	result := domain.Result{Correct: make(map[string]bool, len(questions))}
	for _, q := range questions {
		correct := IsCorrect(q, answers[q.ID])
		result.Correct[q.ID] = correct
		result.Total += q.Points
		if correct {
			result.Score += q.Points
		}
	}
	return result
}

// IsCorrect scores a single question.
func IsCorrect(q domain.Question, answer domain.Answer) bool {
	key, ok := q.Key()
	if !ok || !domain.AnswerMatches(q.Type, answer) {
		return false
	}
	switch k := key.(type) {
	case domain.SingleKey:
		return answer.(domain.ChoiceAnswer).Index == k.Index
	case domain.MultiKey:
		return sameSet(answer.(domain.MultiAnswer).Indexes, k.Indexes)
	case domain.TextKey:
		return NormalizeText(answer.(domain.TextAnswer).Text) == NormalizeText(k.Text)
	}
	return false
}

// NormalizeText trims surrounding whitespace and case-folds.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sameSet(given, expected []string) bool {
	g := toSet(given)
	e := toSet(expected)
	if len(g) != len(e) {
		return false
	}
	for v := range e {
		if _, ok := g[v]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
