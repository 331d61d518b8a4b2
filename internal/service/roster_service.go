package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/short-answer-api/internal/models"
	appErrors "github.com/noah-isme/short-answer-api/pkg/errors"
	"github.com/noah-isme/short-answer-api/pkg/export"
)

type enrollmentLister interface {
	ListActiveStudents(ctx context.Context, courseID string) ([]models.EnrolledStudent, error)
}

type rosterRecordRepo interface {
	GetOrCreate(ctx context.Context, questionID, studentID string, maxScore float64) (*models.StudentRecord, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CSV header row of the submissions export, kept byte-compatible with the
// original component's download.
var rosterHeaders = []string{"Name", "Email", "Answer", "Answered at", "Score"}

// RosterService builds the staff-facing submissions report by joining the
// course roster with each student's submission and grade state.
type RosterService struct {
	questions   questionReader
	enrollments enrollmentLister
	records     rosterRecordRepo
	cache       cacheStore
	cacheTTL    time.Duration
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewRosterService constructs a RosterService. cache may be nil, in which
// case every report is built from the database.
func NewRosterService(questions questionReader, enrollments enrollmentLister, records rosterRecordRepo, cache cacheStore, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *RosterService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		questions:   questions,
		enrollments: enrollments,
		records:     records,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
		logger:      logger,
	}
}

// BuildReport returns one row per actively enrolled student, lazily creating
// ungraded records with the question's current weight. Rows follow the
// enrollment listing order (enrollment id ascending).
func (s *RosterService) BuildReport(ctx context.Context, questionID string) ([]models.RosterRow, error) {
	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	key := rosterCacheKey(questionID)
	if s.cache != nil {
		start := time.Now()
		var cached []models.RosterRow
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true, time.Since(start))
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("roster cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false, time.Since(start))
	}

	students, err := s.enrollments.ListActiveStudents(ctx, question.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	rows := make([]models.RosterRow, 0, len(students))
	for _, student := range students {
		record, err := s.records.GetOrCreate(ctx, questionID, student.UserID, question.MaxScore())
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
		}
		rows = append(rows, models.RosterRow{
			RecordID:   record.ID,
			FullName:   student.FullName,
			Email:      student.Email,
			Answer:     record.Answer,
			AnsweredAt: record.AnsweredAt,
			Score:      record.Score,
			MaxScore:   record.MaxScore,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rows, s.cacheTTL); err != nil {
			s.logger.Warn("roster cache write failed", zap.Error(err))
		}
	}

	return rows, nil
}

// Invalidate drops the cached report for a question. Called after every
// submission, grading or visibility write.
func (s *RosterService) Invalidate(ctx context.Context, questionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, rosterCacheKey(questionID)); err != nil {
		s.logger.Warn("roster cache invalidation failed", zap.Error(err))
	}
}

// StreamCSV writes the report to w one row at a time.
func (s *RosterService) StreamCSV(ctx context.Context, questionID string, w io.Writer) error {
	rows, err := s.BuildReport(ctx, questionID)
	if err != nil {
		return err
	}
	stream, err := export.NewCSVStream(w, rosterHeaders)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start csv export")
	}
	for _, row := range rows {
		if err := stream.WriteRow(rosterRowValues(row)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write csv row")
		}
	}
	return nil
}

// RenderPDF builds a tabular PDF of the report.
func (s *RosterService) RenderPDF(ctx context.Context, questionID string) ([]byte, error) {
	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	rows, err := s.BuildReport(ctx, questionID)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{Headers: rosterHeaders}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, rosterRowValues(row))
	}
	payload, err := export.NewPDFExporter().Render(dataset, question.DisplayName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return payload, nil
}

func rosterRowValues(row models.RosterRow) map[string]string {
	values := map[string]string{
		"Name":   row.FullName,
		"Email":  row.Email,
		"Answer": row.Answer,
	}
	if row.AnsweredAt != nil {
		values["Answered at"] = row.AnsweredAt.UTC().Format(time.RFC3339)
	}
	if row.Score != nil {
		values["Score"] = strconv.FormatFloat(*row.Score, 'f', -1, 64)
	}
	return values
}

func rosterCacheKey(questionID string) string {
	return fmt.Sprintf("roster:%s", questionID)
}
