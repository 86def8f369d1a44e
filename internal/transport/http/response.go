package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quest-service/internal/domain"
)

type errorBody struct {
	Error         string `json:"error"`
	QuestionIndex *int   `json:"question_index,omitempty"`
	QuestionID    string `json:"question_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func respondError(c *gin.Context, status int, err error) {
	body := errorBody{Error: "unknown error"}
	if err != nil {
		body.Error = err.Error()
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		idx := verr.Index
		body.QuestionIndex = &idx
		body.QuestionID = verr.QuestionID
		if verr.Reason != nil {
			body.Reason = verr.Reason.Error()
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// respondDomainError maps domain failures onto HTTP statuses.
func respondDomainError(c *gin.Context, err error) {
	respondError(c, statusFor(err), err)
}

func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrQuestNotFound),
		errors.Is(err, domain.ErrContentNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidTimestamp),
		errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIncompleteAnswers),
		errors.Is(err, domain.ErrSessionSubmitted),
		errors.Is(err, domain.ErrSessionNotReady):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
