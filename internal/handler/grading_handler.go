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

type gradingService interface {
	SubmitGrade(ctx context.Context, questionID string, req service.SubmitGradeRequest, actor *models.JWTClaims) (*service.GradeResponse, error)
	RemoveGrade(ctx context.Context, questionID string, req service.RemoveGradeRequest, actor *models.JWTClaims) error
	SetGradesPublished(ctx context.Context, questionID string, published bool, actor *models.JWTClaims) error
}

// GradingHandler exposes staff grading endpoints.
type GradingHandler struct {
	service gradingService
}

// NewGradingHandler constructs handler.
func NewGradingHandler(svc gradingService) *GradingHandler {
	return &GradingHandler{service: svc}
}

// SubmitGrade godoc
// @Summary Assign a score to a submission
// @Tags Grading
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param payload body service.SubmitGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /questions/{id}/grade [post]
func (h *GradingHandler) SubmitGrade(c *gin.Context) {
	var req service.SubmitGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}

	res, err := h.service.SubmitGrade(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// RemoveGrade godoc
// @Summary Remove a submission's score
// @Tags Grading
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param payload body service.RemoveGradeRequest true "Record reference"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /questions/{id}/grade/remove [post]
func (h *GradingHandler) RemoveGrade(c *gin.Context) {
	var req service.RemoveGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.RemoveGrade(c.Request.Context(), c.Param("id"), req, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"removed": true}, nil)
}

// SetGradesPublished godoc
// @Summary Toggle grade visibility for students
// @Tags Grading
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param payload body object true "Visibility payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /questions/{id}/grades-published [put]
func (h *GradingHandler) SetGradesPublished(c *gin.Context) {
	var payload struct {
		Published *bool `json:"grades_published"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if payload.Published == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingParameter, "missing grades_published parameter"))
		return
	}

	if err := h.service.SetGradesPublished(c.Request.Context(), c.Param("id"), *payload.Published, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"grades_published": *payload.Published}, nil)
}
