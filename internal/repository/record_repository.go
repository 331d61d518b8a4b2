package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/short-answer-api/internal/models"
)

const recordColumns = `id, question_id, student_id, answer, answered_at, score, max_score, due_date_extension, created_at, updated_at`

// RecordRepository persists per-student submission and grading state.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// FindByID returns a student record by identifier.
func (r *RecordRepository) FindByID(ctx context.Context, id string) (*models.StudentRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_records WHERE id = $1 LIMIT 1`, recordColumns)
	var record models.StudentRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetOrCreate returns the record for a (question, student) pair, creating an
// ungraded one with the provided max score when none exists. The upsert is
// idempotent: an existing row is returned untouched.
func (r *RecordRepository) GetOrCreate(ctx context.Context, questionID, studentID string, maxScore float64) (*models.StudentRecord, error) {
	now := time.Now().UTC()
	record := &models.StudentRecord{
		ID:         uuid.NewString(),
		QuestionID: questionID,
		StudentID:  studentID,
		MaxScore:   maxScore,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	query := fmt.Sprintf(`INSERT INTO student_records (%s)
        VALUES (:id, :question_id, :student_id, :answer, :answered_at, :score, :max_score, :due_date_extension, :created_at, :updated_at)
        ON CONFLICT (question_id, student_id) DO NOTHING`, recordColumns)
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return nil, fmt.Errorf("create student record: %w", err)
	}
	lookup := fmt.Sprintf(`SELECT %s FROM student_records WHERE question_id = $1 AND student_id = $2 LIMIT 1`, recordColumns)
	var stored models.StudentRecord
	if err := r.db.GetContext(ctx, &stored, lookup, questionID, studentID); err != nil {
		return nil, fmt.Errorf("load student record: %w", err)
	}
	return &stored, nil
}

// SaveSubmission stores the answer text and submission timestamp,
// overwriting any prior submission (last write wins).
func (r *RecordRepository) SaveSubmission(ctx context.Context, id, answer string, answeredAt time.Time) error {
	const query = `UPDATE student_records SET answer = $2, answered_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, answer, answeredAt); err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

// SetScore assigns a grade and stamps the max score in effect at grading time.
func (r *RecordRepository) SetScore(ctx context.Context, id string, score, maxScore float64) error {
	const query = `UPDATE student_records SET score = $2, max_score = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, score, maxScore, time.Now().UTC()); err != nil {
		return fmt.Errorf("set score: %w", err)
	}
	return nil
}

// ClearScore resets the grade to ungraded. Safe on an already-ungraded row.
func (r *RecordRepository) ClearScore(ctx context.Context, id string) error {
	const query = `UPDATE student_records SET score = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear score: %w", err)
	}
	return nil
}
