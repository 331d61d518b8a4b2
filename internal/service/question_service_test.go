package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/short-answer-api/internal/models"
	appErrors "github.com/noah-isme/short-answer-api/pkg/errors"
)

type questionRepoStub struct {
	question      *models.QuestionConfig
	findErr       error
	created       *models.QuestionConfig
	updateCalled  bool
	updatedFields models.QuestionFieldUpdates
}

func (s *questionRepoStub) FindByID(ctx context.Context, id string) (*models.QuestionConfig, error) {
	return s.question, s.findErr
}

func (s *questionRepoStub) Create(ctx context.Context, question *models.QuestionConfig) error {
	question.ID = "q-1"
	s.created = question
	return nil
}

func (s *questionRepoStub) UpdateFields(ctx context.Context, id string, updates models.QuestionFieldUpdates) error {
	s.updateCalled = true
	s.updatedFields = updates
	return nil
}

func TestQuestionServiceCreateDefaults(t *testing.T) {
	repo := &questionRepoStub{}
	audits := &auditWriterStub{}

	svc := NewQuestionService(repo, &recordRepoStub{}, audits, nil, nil, nil)

	question, err := svc.Create(context.Background(), CreateQuestionRequest{
		CourseID:    "course-1",
		DisplayName: "Reading response",
	}, staffClaims())
	require.NoError(t, err)

	require.Equal(t, 100.0, question.Weight)
	require.Equal(t, 500, question.Width)
	require.Equal(t, models.DefaultQuestionDescription, question.Description)
	require.Equal(t, models.DefaultQuestionFeedback, question.Feedback)
	require.False(t, question.GradesPublished)
	require.Nil(t, question.DueDate)

	require.Len(t, audits.entries, 1)
	require.Equal(t, models.AuditActionQuestionCreate, audits.entries[0].Action)
}

func TestQuestionServiceCreateExplicitValues(t *testing.T) {
	repo := &questionRepoStub{}
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	weight := 50.0
	width := 800

	svc := NewQuestionService(repo, &recordRepoStub{}, nil, nil, nil, nil)

	question, err := svc.Create(context.Background(), CreateQuestionRequest{
		CourseID:    "course-1",
		DisplayName: "Essay",
		Description: "Write an essay.",
		Weight:      &weight,
		Width:       &width,
		DueDate:     &due,
	}, staffClaims())
	require.NoError(t, err)
	require.Equal(t, 50.0, question.Weight)
	require.Equal(t, 800, question.Width)
	require.Equal(t, "Write an essay.", question.Description)
	require.Equal(t, &due, question.DueDate)
}

func TestQuestionServiceCreateValidation(t *testing.T) {
	svc := NewQuestionService(&questionRepoStub{}, &recordRepoStub{}, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateQuestionRequest{CourseID: "course-1"}, staffClaims())
	require.Error(t, err)
	require.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestQuestionServiceEditUnknownFieldRejectedBeforeWrite(t *testing.T) {
	repo := &questionRepoStub{question: &models.QuestionConfig{ID: "q-1"}}

	svc := NewQuestionService(repo, &recordRepoStub{}, nil, nil, nil, nil)

	_, err := svc.Edit(context.Background(), "q-1", models.QuestionFieldUpdates{
		"display_name":     "New name",
		"grades_published": true,
	}, staffClaims())
	require.Error(t, err)
	require.Equal(t, "UNKNOWN_FIELD", appErrors.FromError(err).Code)
	require.False(t, repo.updateCalled)
}

func TestQuestionServiceEditCoercion(t *testing.T) {
	repo := &questionRepoStub{question: &models.QuestionConfig{ID: "q-1"}}
	roster := &invalidatorStub{}

	svc := NewQuestionService(repo, &recordRepoStub{}, nil, roster, nil, nil)

	// Values arrive as decoded JSON: numbers are float64, timestamps strings.
	_, err := svc.Edit(context.Background(), "q-1", models.QuestionFieldUpdates{
		"display_name": "Renamed",
		"weight":       float64(75),
		"width":        float64(600),
		"due_date":     "2026-04-01T00:00:00Z",
	}, staffClaims())
	require.NoError(t, err)
	require.True(t, repo.updateCalled)

	require.Equal(t, "Renamed", repo.updatedFields["display_name"])
	require.Equal(t, 75.0, repo.updatedFields["weight"])
	require.Equal(t, 600, repo.updatedFields["width"])
	require.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), repo.updatedFields["due_date"])
	require.Equal(t, []string{"q-1"}, roster.questionIDs)
}

func TestQuestionServiceEditClearDueDate(t *testing.T) {
	repo := &questionRepoStub{question: &models.QuestionConfig{ID: "q-1"}}

	svc := NewQuestionService(repo, &recordRepoStub{}, nil, nil, nil, nil)

	_, err := svc.Edit(context.Background(), "q-1", models.QuestionFieldUpdates{"due_date": nil}, staffClaims())
	require.NoError(t, err)
	require.Equal(t, (*time.Time)(nil), repo.updatedFields["due_date"])
}

func TestQuestionServiceEditInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		updates models.QuestionFieldUpdates
	}{
		{"negative weight", models.QuestionFieldUpdates{"weight": float64(-5)}},
		{"fractional width", models.QuestionFieldUpdates{"width": 2.5}},
		{"zero width", models.QuestionFieldUpdates{"width": float64(0)}},
		{"non-string name", models.QuestionFieldUpdates{"display_name": 42.0}},
		{"bad due date", models.QuestionFieldUpdates{"due_date": "next tuesday"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &questionRepoStub{question: &models.QuestionConfig{ID: "q-1"}}
			svc := NewQuestionService(repo, &recordRepoStub{}, nil, nil, nil, nil)

			_, err := svc.Edit(context.Background(), "q-1", tc.updates, staffClaims())
			require.Error(t, err)
			require.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
			require.False(t, repo.updateCalled)
		})
	}
}

func TestQuestionServiceEditQuestionNotFound(t *testing.T) {
	repo := &questionRepoStub{findErr: sql.ErrNoRows}

	svc := NewQuestionService(repo, &recordRepoStub{}, nil, nil, nil, nil)

	_, err := svc.Edit(context.Background(), "missing", models.QuestionFieldUpdates{"display_name": "x"}, staffClaims())
	require.Error(t, err)
	require.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestQuestionServiceStudentViewHidesUnpublishedScore(t *testing.T) {
	score := 88.0
	repo := &questionRepoStub{question: &models.QuestionConfig{ID: "q-1", Weight: 100}}
	records := &recordRepoStub{record: &models.StudentRecord{
		ID:         "rec-1",
		QuestionID: "q-1",
		StudentID:  "student-1",
		Answer:     "My answer",
		Score:      &score,
	}}

	svc := NewQuestionService(repo, records, nil, nil, nil, nil)

	view, err := svc.StudentView(context.Background(), "q-1", &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
	require.NoError(t, err)
	require.Nil(t, view.Score)
	require.Equal(t, "My answer", view.Answer)
	require.Equal(t, "rec-1", view.RecordID)
}

func TestQuestionServiceStudentViewShowsPublishedScore(t *testing.T) {
	score := 88.0
	repo := &questionRepoStub{question: &models.QuestionConfig{ID: "q-1", Weight: 100, GradesPublished: true}}
	records := &recordRepoStub{record: &models.StudentRecord{
		ID:         "rec-1",
		QuestionID: "q-1",
		StudentID:  "student-1",
		Score:      &score,
	}}

	svc := NewQuestionService(repo, records, nil, nil, nil, nil)

	view, err := svc.StudentView(context.Background(), "q-1", &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
	require.NoError(t, err)
	require.NotNil(t, view.Score)
	require.Equal(t, 88.0, *view.Score)
}

func TestQuestionServiceStudentViewStaffAlwaysSeesScore(t *testing.T) {
	score := 88.0
	repo := &questionRepoStub{question: &models.QuestionConfig{ID: "q-1", Weight: 100}}
	records := &recordRepoStub{record: &models.StudentRecord{
		ID:         "rec-1",
		QuestionID: "q-1",
		StudentID:  "staff-1",
		Score:      &score,
	}}

	svc := NewQuestionService(repo, records, nil, nil, nil, nil)

	view, err := svc.StudentView(context.Background(), "q-1", staffClaims())
	require.NoError(t, err)
	require.NotNil(t, view.Score)
}

func TestQuestionServiceStudentViewPassedDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	repo := &questionRepoStub{question: &models.QuestionConfig{ID: "q-1", Weight: 100, DueDate: &due}}

	svc := NewQuestionService(repo, &recordRepoStub{}, nil, nil, nil, nil)
	svc.now = fixedClock(now)

	view, err := svc.StudentView(context.Background(), "q-1", &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
	require.NoError(t, err)
	require.True(t, view.PassedDue)
}
