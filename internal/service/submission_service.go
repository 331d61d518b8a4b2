package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/short-answer-api/internal/models"
	appErrors "github.com/noah-isme/short-answer-api/pkg/errors"
)

type questionReader interface {
	FindByID(ctx context.Context, id string) (*models.QuestionConfig, error)
}

type submissionRecordRepo interface {
	GetOrCreate(ctx context.Context, questionID, studentID string, maxScore float64) (*models.StudentRecord, error)
	SaveSubmission(ctx context.Context, id, answer string, answeredAt time.Time) error
}

type rosterInvalidator interface {
	Invalidate(ctx context.Context, questionID string)
}

// SubmitAnswerRequest carries the student's free-text answer. Content is
// stored as-is; the deadline is the only gate.
type SubmitAnswerRequest struct {
	Submission string `json:"submission"`
}

// SubmissionService handles student answer submissions.
type SubmissionService struct {
	questions questionReader
	records   submissionRecordRepo
	roster    rosterInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(questions questionReader, records submissionRecordRepo, roster rosterInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		questions: questions,
		records:   records,
		roster:    roster,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores the student's answer and stamps the submission time,
// overwriting any earlier submission. Past the effective due date nothing is
// mutated and the caller receives a deadline error.
func (s *SubmissionService) Submit(ctx context.Context, questionID, studentID string, req SubmitAnswerRequest) (*models.StudentRecord, error) {
	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	record, err := s.records.GetOrCreate(ctx, questionID, studentID, question.MaxScore())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}

	now := s.now()
	if PastDue(now, EffectiveDueDate(question, record)) {
		return nil, appErrors.Clone(appErrors.ErrDeadlinePassed, "submission due date has passed")
	}

	if err := s.records.SaveSubmission(ctx, record.ID, req.Submission, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}

	record.Answer = req.Submission
	record.AnsweredAt = &now
	record.UpdatedAt = now

	if s.roster != nil {
		s.roster.Invalidate(ctx, questionID)
	}
	s.metrics.RecordSubmission()
	s.logger.Info("answer submitted",
		zap.String("question_id", questionID),
		zap.String("record_id", record.ID),
	)

	return record, nil
}
