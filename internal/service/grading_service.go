package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/short-answer-api/internal/models"
	appErrors "github.com/noah-isme/short-answer-api/pkg/errors"
)

type gradingRecordRepo interface {
	FindByID(ctx context.Context, id string) (*models.StudentRecord, error)
	SetScore(ctx context.Context, id string, score, maxScore float64) error
	ClearScore(ctx context.Context, id string) error
}

type questionStore interface {
	FindByID(ctx context.Context, id string) (*models.QuestionConfig, error)
	SetGradesPublished(ctx context.Context, id string, published bool) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SubmitGradeRequest assigns a manual score to a student record. Score is a
// pointer so an explicit 0 is distinguishable from an absent field.
type SubmitGradeRequest struct {
	Score    *float64 `json:"score"`
	RecordID string   `json:"record_id"`
}

// RemoveGradeRequest resets a student record to ungraded.
type RemoveGradeRequest struct {
	RecordID string `json:"record_id"`
}

// GradeResponse echoes the stored score back for confirmation.
type GradeResponse struct {
	NewScore float64 `json:"new_score"`
}

// GradingService handles staff grading actions: scoring, grade removal and
// the grades visibility flag. Grading is never blocked by the due date.
type GradingService struct {
	questions questionStore
	records   gradingRecordRepo
	audits    auditWriter
	roster    rosterInvalidator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewGradingService constructs a GradingService.
func NewGradingService(questions questionStore, records gradingRecordRepo, audits auditWriter, roster rosterInvalidator, metrics *MetricsService, logger *zap.Logger) *GradingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{
		questions: questions,
		records:   records,
		audits:    audits,
		roster:    roster,
		metrics:   metrics,
		logger:    logger,
	}
}

// SubmitGrade validates and stores a manual score. The question's weight is
// stamped onto the record so the graded row carries the max in effect at
// grading time.
func (s *GradingService) SubmitGrade(ctx context.Context, questionID string, req SubmitGradeRequest, actor *models.JWTClaims) (*GradeResponse, error) {
	if req.Score == nil || req.RecordID == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingParameter, missingParamMessage(req.Score != nil, req.RecordID != ""))
	}

	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	score := *req.Score
	if score > question.MaxScore() {
		return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, "submitted score larger than the maximum allowed")
	}
	if score < 0 {
		return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, "submitted score below zero")
	}

	record, err := s.loadRecord(ctx, questionID, req.RecordID)
	if err != nil {
		return nil, err
	}

	if err := s.records.SetScore(ctx, record.ID, score, question.MaxScore()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store score")
	}

	s.invalidate(ctx, questionID)
	s.metrics.RecordGrading("submit")
	s.audit(ctx, actor, models.AuditActionGradeSubmit, record.ID, map[string]interface{}{"score": score, "max_score": question.MaxScore()})

	return &GradeResponse{NewScore: score}, nil
}

// RemoveGrade resets the record's score to ungraded. Calling it on an
// already-ungraded record is a no-op.
func (s *GradingService) RemoveGrade(ctx context.Context, questionID string, req RemoveGradeRequest, actor *models.JWTClaims) error {
	if req.RecordID == "" {
		return appErrors.Clone(appErrors.ErrMissingParameter, "missing record_id parameter")
	}

	record, err := s.loadRecord(ctx, questionID, req.RecordID)
	if err != nil {
		return err
	}

	if err := s.records.ClearScore(ctx, record.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove score")
	}

	s.invalidate(ctx, questionID)
	s.metrics.RecordGrading("remove")
	s.audit(ctx, actor, models.AuditActionGradeRemove, record.ID, nil)

	return nil
}

// SetGradesPublished toggles whether students may see their score.
func (s *GradingService) SetGradesPublished(ctx context.Context, questionID string, published bool, actor *models.JWTClaims) error {
	if _, err := s.questions.FindByID(ctx, questionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	if err := s.questions.SetGradesPublished(ctx, questionID, published); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update visibility")
	}

	s.invalidate(ctx, questionID)
	s.audit(ctx, actor, models.AuditActionGradesPublish, questionID, map[string]interface{}{"grades_published": published})

	return nil
}

func (s *GradingService) loadRecord(ctx context.Context, questionID, recordID string) (*models.StudentRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}
	if record.QuestionID != questionID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student record does not belong to question")
	}
	return record, nil
}

func (s *GradingService) invalidate(ctx context.Context, questionID string) {
	if s.roster != nil {
		s.roster.Invalidate(ctx, questionID)
	}
}

func (s *GradingService) audit(ctx context.Context, actor *models.JWTClaims, action, resourceID string, values map[string]interface{}) {
	if s.audits == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "student_record",
		ResourceID: &resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if actor != nil {
		entry.UserID = &actor.UserID
	}
	if values != nil {
		payload, err := json.Marshal(values)
		if err == nil {
			entry.NewValues = payload
		}
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record grading audit log", zap.Error(err))
	}
}

func missingParamMessage(hasScore, hasRecordID bool) string {
	switch {
	case !hasScore && !hasRecordID:
		return "missing score and record_id parameters"
	case !hasScore:
		return "missing score parameter"
	default:
		return "missing record_id parameter"
	}
}
