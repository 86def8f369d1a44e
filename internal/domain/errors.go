package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuestNotFound is returned when quest metadata does not exist.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrContentNotFound indicates a quest has no stored content; callers fall back to EmptyContent.
	ErrContentNotFound = errors.New("quest content not found")
	// ErrInvalidWindow is returned when active_from is after active_to.
	ErrInvalidWindow = errors.New("active_from must not be after active_to")
	// ErrTitleRequired is returned when a quest is created or renamed with a blank title.
	ErrTitleRequired = errors.New("title is required")
	// ErrInvalidTimestamp is returned for dates that are not ISO-8601.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrNetwork wraps any transport or non-2xx failure talking to the quest API.
	ErrNetwork = errors.New("quest api request failed")

	// ErrSessionNotFound is returned when a play session does not exist.
	ErrSessionNotFound = errors.New("quest session not found")
	// ErrSessionNotReady is returned when a session is still loading.
	ErrSessionNotReady = errors.New("quest session is still loading")
	// ErrSessionSubmitted is returned for answer changes after submission.
	ErrSessionSubmitted = errors.New("quest session already submitted")
	// ErrIncompleteAnswers blocks manual submission until every question is answered.
	ErrIncompleteAnswers = errors.New("every question must be answered before submitting")
	// ErrQuestionNotFound indicates a question ID that is not part of the session.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates an option index outside the question's options.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAnswerTypeMismatch indicates an answer shaped for a different question type.
	ErrAnswerTypeMismatch = errors.New("answer does not match question type")
)

// Reasons carried by ValidationError.
var (
	ErrEmptyPrompt          = errors.New("question text is empty")
	ErrUnknownQuestionType  = errors.New("unknown question type")
	ErrTooFewOptions        = errors.New("at least two options are required")
	ErrEmptyOption          = errors.New("every option needs text")
	ErrNoCorrectAnswer      = errors.New("correct answer is not set")
	ErrInvalidCorrectAnswer = errors.New("correct answer refers to a missing option")
	ErrInvalidPoints        = errors.New("points must be positive")
	ErrDuplicateQuestionID  = errors.New("question id is empty or repeated")
	ErrInvalidSettings      = errors.New("invalid quest settings")
)

// ValidationError points at the first question that failed authoring checks.
type ValidationError struct {
	Index      int
	QuestionID string
	Reason     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("question %d: %v", e.Index+1, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }
