package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/titto/titto-backend/internal/experience"
	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/qna"
	"github.com/titto/titto-backend/internal/storage"
	"github.com/titto/titto-backend/internal/users"
	"github.com/titto/titto-backend/pkg/logger"
)

type errorMapping struct {
	target error
	status int
	kind   string
}

// errorTable is checked in order with errors.Is.
var errorTable = []errorMapping{
	{users.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{qna.ErrQuestionNotFound, http.StatusNotFound, "question_not_found"},
	{qna.ErrAnswerNotFound, http.StatusNotFound, "answer_not_found"},
	{qna.ErrAuthorMismatch, http.StatusForbidden, "author_mismatch"},
	{qna.ErrAlreadyAcceptedAnswer, http.StatusConflict, "already_accepted_answer"},
	{qna.ErrDeleteNotAllowed, http.StatusConflict, "delete_not_allowed"},
	{qna.ErrInsufficientExperience, http.StatusUnprocessableEntity, "insufficient_experience"},
	{experience.ErrInsufficientBalance, http.StatusUnprocessableEntity, "insufficient_balance"},
	{experience.ErrInvalidAmount, http.StatusBadRequest, "invalid_request"},
	{qna.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{models.ErrUnknownDepartment, http.StatusBadRequest, "unknown_department"},
	{models.ErrUnknownStatus, http.StatusBadRequest, "unknown_status"},
	{storage.ErrUnsupportedImage, http.StatusUnsupportedMediaType, "unsupported_image"},
}

// statusFor maps a workflow error to its HTTP status and error kind.
func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.kind
		}
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(c *gin.Context, err error) {
	status, kind := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Errorw("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": msg})
}
