package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/short-answer-api/internal/models"
	"github.com/noah-isme/short-answer-api/pkg/response"
)

const csvAttachmentName = "short_answer_submissions.csv"

type rosterService interface {
	BuildReport(ctx context.Context, questionID string) ([]models.RosterRow, error)
	StreamCSV(ctx context.Context, questionID string, w io.Writer) error
	RenderPDF(ctx context.Context, questionID string) ([]byte, error)
}

// RosterHandler serves staff roster reports in JSON, CSV and PDF form.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler constructs handler.
func NewRosterHandler(svc rosterService) *RosterHandler {
	return &RosterHandler{service: svc}
}

// List godoc
// @Summary Roster report
// @Description One row per actively enrolled student with their answer and score
// @Tags Roster
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /questions/{id}/submissions [get]
func (h *RosterHandler) List(c *gin.Context) {
	rows, err := h.service.BuildReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, nil)
}

// DownloadCSV godoc
// @Summary Roster report as CSV download
// @Tags Roster
// @Produce text/csv
// @Param id path string true "Question ID"
// @Success 200 {string} string "CSV file"
// @Failure 404 {object} response.Envelope
// @Router /questions/{id}/submissions/csv [get]
func (h *RosterHandler) DownloadCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+csvAttachmentName+`"`)
	c.Header("Cache-Control", "no-store")

	if err := h.service.StreamCSV(c.Request.Context(), c.Param("id"), c.Writer); err != nil {
		// Headers may already be written; fall back to the envelope only
		// when nothing has gone out yet.
		if !c.Writer.Written() {
			c.Header("Content-Type", "application/json; charset=utf-8")
			c.Header("Content-Disposition", "")
			response.Error(c, err)
		}
		return
	}

	c.Status(http.StatusOK)
}

// DownloadPDF godoc
// @Summary Roster report as PDF download
// @Tags Roster
// @Produce application/pdf
// @Param id path string true "Question ID"
// @Success 200 {string} string "PDF file"
// @Failure 404 {object} response.Envelope
// @Router /questions/{id}/submissions/pdf [get]
func (h *RosterHandler) DownloadPDF(c *gin.Context) {
	data, err := h.service.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="short_answer_submissions.pdf"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", data)
}
