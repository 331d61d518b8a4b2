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

type questionService interface {
	Create(ctx context.Context, req service.CreateQuestionRequest, actor *models.JWTClaims) (*models.QuestionConfig, error)
	Edit(ctx context.Context, questionID string, updates models.QuestionFieldUpdates, actor *models.JWTClaims) (*models.QuestionConfig, error)
	StudentView(ctx context.Context, questionID string, claims *models.JWTClaims) (*service.StudentViewResponse, error)
}

// QuestionHandler exposes the authoring surface and the student view.
type QuestionHandler struct {
	service questionService
}

// NewQuestionHandler constructs handler.
func NewQuestionHandler(svc questionService) *QuestionHandler {
	return &QuestionHandler{service: svc}
}

// Create godoc
// @Summary Create a question
// @Tags Questions
// @Accept json
// @Produce json
// @Param payload body service.CreateQuestionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	var req service.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid question payload"))
		return
	}

	question, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, question)
}

// Edit godoc
// @Summary Edit question fields
// @Description Applies a partial update to an editable subset of question fields
// @Tags Questions
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param payload body models.QuestionFieldUpdates true "Field updates"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /questions/{id} [patch]
func (h *QuestionHandler) Edit(c *gin.Context) {
	var updates models.QuestionFieldUpdates
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	question, err := h.service.Edit(c.Request.Context(), c.Param("id"), updates, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, question)
}

// StudentView godoc
// @Summary Student-facing question view
// @Description Returns the question configuration plus the caller's own submission state
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /questions/{id} [get]
func (h *QuestionHandler) StudentView(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	view, err := h.service.StudentView(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}
