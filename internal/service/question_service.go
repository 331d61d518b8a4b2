package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/short-answer-api/internal/models"
	appErrors "github.com/noah-isme/short-answer-api/pkg/errors"
)

type questionRepo interface {
	FindByID(ctx context.Context, id string) (*models.QuestionConfig, error)
	Create(ctx context.Context, question *models.QuestionConfig) error
	UpdateFields(ctx context.Context, id string, updates models.QuestionFieldUpdates) error
}

// CreateQuestionRequest describes a new question instance.
type CreateQuestionRequest struct {
	CourseID    string     `json:"course_id" validate:"required"`
	DisplayName string     `json:"display_name" validate:"required"`
	Description string     `json:"description"`
	Feedback    string     `json:"feedback"`
	Weight      *float64   `json:"weight" validate:"omitempty,gte=0"`
	Width       *int       `json:"width" validate:"omitempty,gt=0"`
	DueDate     *time.Time `json:"due_date"`
}

// StudentViewResponse is the payload backing the student-facing view:
// question configuration plus the caller's own submission state. Score is
// included only when grades are published or the caller is staff.
type StudentViewResponse struct {
	QuestionID      string     `json:"question_id"`
	DisplayName     string     `json:"display_name"`
	Description     string     `json:"description"`
	Feedback        string     `json:"feedback"`
	Width           int        `json:"width"`
	MaxScore        float64    `json:"max_score"`
	GradesPublished bool       `json:"grades_published"`
	PassedDue       bool       `json:"passed_due"`
	RecordID        string     `json:"record_id"`
	Answer          string     `json:"answer"`
	AnsweredAt      *time.Time `json:"answered_at,omitempty"`
	Score           *float64   `json:"score,omitempty"`
}

// QuestionService owns the authoring surface and the student view.
type QuestionService struct {
	questions questionRepo
	records   submissionRecordRepo
	audits    auditWriter
	roster    rosterInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(questions questionRepo, records submissionRecordRepo, audits auditWriter, roster rosterInvalidator, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		questions: questions,
		records:   records,
		audits:    audits,
		roster:    roster,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new question, applying the component defaults for any
// omitted authoring field.
func (s *QuestionService) Create(ctx context.Context, req CreateQuestionRequest, actor *models.JWTClaims) (*models.QuestionConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}

	question := &models.QuestionConfig{
		CourseID:    req.CourseID,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Feedback:    req.Feedback,
		Weight:      models.DefaultQuestionWeight,
		Width:       models.DefaultQuestionWidth,
		DueDate:     req.DueDate,
	}
	if question.Description == "" {
		question.Description = models.DefaultQuestionDescription
	}
	if question.Feedback == "" {
		question.Feedback = models.DefaultQuestionFeedback
	}
	if req.Weight != nil {
		question.Weight = *req.Weight
	}
	if req.Width != nil {
		question.Width = *req.Width
	}

	if err := s.questions.Create(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}

	s.audit(ctx, actor, models.AuditActionQuestionCreate, question.ID, map[string]interface{}{"course_id": question.CourseID})

	return question, nil
}

// Edit applies an authoring edit. Every key must be on the allow-list;
// unknown keys are rejected before anything is written, so a failed edit
// never partially mutates the question.
func (s *QuestionService) Edit(ctx context.Context, questionID string, updates models.QuestionFieldUpdates, actor *models.JWTClaims) (*models.QuestionConfig, error) {
	if _, err := s.questions.FindByID(ctx, questionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	coerced := make(models.QuestionFieldUpdates, len(updates))
	for field, value := range updates {
		if _, ok := models.EditableQuestionFields[field]; !ok {
			return nil, appErrors.Clone(appErrors.ErrUnknownField, fmt.Sprintf("unknown question field %q", field))
		}
		typed, err := coerceQuestionField(field, value)
		if err != nil {
			return nil, err
		}
		coerced[field] = typed
	}

	if err := s.questions.UpdateFields(ctx, questionID, coerced); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}

	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload question")
	}

	if s.roster != nil {
		s.roster.Invalidate(ctx, questionID)
	}
	s.audit(ctx, actor, models.AuditActionQuestionEdit, questionID, map[string]interface{}(coerced))

	return question, nil
}

// StudentView assembles the student-facing payload, lazily creating the
// caller's record the way the roster report does.
func (s *QuestionService) StudentView(ctx context.Context, questionID string, claims *models.JWTClaims) (*StudentViewResponse, error) {
	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	record, err := s.records.GetOrCreate(ctx, questionID, claims.UserID, question.MaxScore())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}

	view := &StudentViewResponse{
		QuestionID:      question.ID,
		DisplayName:     question.DisplayName,
		Description:     question.Description,
		Feedback:        question.Feedback,
		Width:           question.Width,
		MaxScore:        question.MaxScore(),
		GradesPublished: question.GradesPublished,
		PassedDue:       PastDue(s.now(), EffectiveDueDate(question, record)),
		RecordID:        record.ID,
		Answer:          record.Answer,
		AnsweredAt:      record.AnsweredAt,
	}
	if question.GradesPublished || claims.Role.IsStaff() {
		view.Score = record.Score
	}

	return view, nil
}

func (s *QuestionService) audit(ctx context.Context, actor *models.JWTClaims, action, resourceID string, values map[string]interface{}) {
	if s.audits == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "question",
		ResourceID: &resourceID,
		CreatedAt:  s.now(),
	}
	if actor != nil {
		entry.UserID = &actor.UserID
	}
	if values != nil {
		if payload, err := json.Marshal(values); err == nil {
			entry.NewValues = payload
		}
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record question audit log", zap.Error(err))
	}
}

// coerceQuestionField converts a decoded JSON value into the column type for
// an allow-listed field.
func coerceQuestionField(field string, value interface{}) (interface{}, error) {
	switch field {
	case "display_name", "description", "feedback":
		text, ok := value.(string)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("field %q expects a string", field))
		}
		return text, nil
	case "weight":
		number, ok := value.(float64)
		if !ok || number < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "field \"weight\" expects a non-negative number")
		}
		return number, nil
	case "width":
		number, ok := value.(float64)
		if !ok || number <= 0 || number != float64(int(number)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "field \"width\" expects a positive integer")
		}
		return int(number), nil
	case "due_date":
		if value == nil {
			return (*time.Time)(nil), nil
		}
		raw, ok := value.(string)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "field \"due_date\" expects an RFC 3339 timestamp or null")
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "field \"due_date\" expects an RFC 3339 timestamp or null")
		}
		return parsed.UTC(), nil
	default:
		return nil, appErrors.Clone(appErrors.ErrUnknownField, fmt.Sprintf("unknown question field %q", field))
	}
}
