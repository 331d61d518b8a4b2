package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/short-answer-api/internal/models"
	"github.com/noah-isme/short-answer-api/internal/service"
	appErrors "github.com/noah-isme/short-answer-api/pkg/errors"
	"github.com/noah-isme/short-answer-api/pkg/response"
)

type submissionService interface {
	Submit(ctx context.Context, questionID, studentID string, req service.SubmitAnswerRequest) (*models.StudentRecord, error)
}

// SubmissionHandler accepts student answer submissions.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler constructs handler.
func NewSubmissionHandler(svc submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

// Submit godoc
// @Summary Submit an answer
// @Description Stores the caller's free-text answer for a question
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param payload body service.SubmitAnswerRequest true "Answer payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /questions/{id}/submission [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	record, err := h.service.Submit(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"record_id":   record.ID,
		"answer":      record.Answer,
		"answered_at": record.AnsweredAt,
	})
}
