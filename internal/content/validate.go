// Package content validates and edits authored quest content. The edit
// operations are the authoring API shared by editor front ends and the
// `content edit` command; the server itself only validates and stores whole
// documents.
package content

import (
	"fmt"
	"strconv"
	"strings"

	"quest-service/internal/domain"
)

// MinOptions is the least number of options a choice question may have.
const MinOptions = 2

// Validate checks questions in order and stops at the first defect, which is
// returned as *domain.ValidationError.
func Validate(questions []domain.Question) error {
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if err := validateQuestion(q, seen); err != nil {
			return &domain.ValidationError{Index: i, QuestionID: q.ID, Reason: err}
		}
	}
	return nil
}

// ValidateContent validates the questions and then the settings.
func ValidateContent(c domain.QuestContent) error {
	if err := Validate(c.Questions); err != nil {
		return err
	}
	return ValidateSettings(c.Settings)
}

// ValidateSettings enforces the authoring constraints on quest settings.
func ValidateSettings(s domain.QuestSettings) error {
	if s.AttemptsAllowed < 1 {
		return fmt.Errorf("%w: attempts_allowed must be at least 1", domain.ErrInvalidSettings)
	}
	if s.TimeLimitMinutes != nil && *s.TimeLimitMinutes < 1 {
		return fmt.Errorf("%w: time_limit_minutes must be at least 1 when set", domain.ErrInvalidSettings)
	}
	return nil
}

func validateQuestion(q domain.Question, seen map[string]struct{}) error {
	id := strings.TrimSpace(q.ID)
	if id == "" {
		return domain.ErrDuplicateQuestionID
	}
	if _, dup := seen[id]; dup {
		return domain.ErrDuplicateQuestionID
	}
	seen[id] = struct{}{}

	if strings.TrimSpace(q.Text) == "" {
		return domain.ErrEmptyPrompt
	}
	if !q.Type.Valid() {
		return domain.ErrUnknownQuestionType
	}

	if q.Type.HasOptions() {
		if len(q.Options) < MinOptions {
			return domain.ErrTooFewOptions
		}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt.Text) == "" {
				return domain.ErrEmptyOption
			}
		}
		if err := validateKey(q); err != nil {
			return err
		}
	}

	if q.Points <= 0 {
		return domain.ErrInvalidPoints
	}
	return nil
}

func validateKey(q domain.Question) error {
	key, ok := q.Key()
	if !ok {
		return domain.ErrNoCorrectAnswer
	}
	switch k := key.(type) {
	case domain.SingleKey:
		if !validIndex(k.Index, len(q.Options)) {
			return domain.ErrInvalidCorrectAnswer
		}
	case domain.MultiKey:
		if len(k.Indexes) == 0 {
			return domain.ErrNoCorrectAnswer
		}
		for _, idx := range k.Indexes {
			if !validIndex(idx, len(q.Options)) {
				return domain.ErrInvalidCorrectAnswer
			}
		}
	}
	return nil
}

func validIndex(raw string, n int) bool {
	i, err := strconv.Atoi(raw)
	return err == nil && i >= 0 && i < n
}
