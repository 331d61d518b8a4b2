package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/short-answer-api/internal/models"
)

// QuestionRepository persists question configurations.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository creates a new question repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// FindByID returns a question by identifier.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.QuestionConfig, error) {
	const query = `SELECT id, course_id, display_name, description, feedback, weight, width, grades_published, due_date, created_at, updated_at FROM questions WHERE id = $1 LIMIT 1`
	var question models.QuestionConfig
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		return nil, err
	}
	return &question, nil
}

// Create stores a new question configuration.
func (r *QuestionRepository) Create(ctx context.Context, question *models.QuestionConfig) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	question.CreatedAt = now
	question.UpdatedAt = now
	const query = `INSERT INTO questions (id, course_id, display_name, description, feedback, weight, width, grades_published, due_date, created_at, updated_at)
        VALUES (:id, :course_id, :display_name, :description, :feedback, :weight, :width, :grades_published, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// UpdateFields applies an authoring edit. Callers are expected to have
// validated the field names against the allow-list; the column list here is
// nonetheless fixed so arbitrary keys can never reach SQL.
func (r *QuestionRepository) UpdateFields(ctx context.Context, id string, updates models.QuestionFieldUpdates) error {
	if len(updates) == 0 {
		return nil
	}
	sets := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+2)
	args = append(args, id)
	for _, field := range []string{"display_name", "description", "feedback", "weight", "width", "due_date"} {
		value, ok := updates[field]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", field, len(args)+1))
		args = append(args, value)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())
	query := fmt.Sprintf("UPDATE questions SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update question fields: %w", err)
	}
	return nil
}

// SetGradesPublished toggles score visibility for students.
func (r *QuestionRepository) SetGradesPublished(ctx context.Context, id string, published bool) error {
	const query = `UPDATE questions SET grades_published = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, published, time.Now().UTC()); err != nil {
		return fmt.Errorf("set grades published: %w", err)
	}
	return nil
}
