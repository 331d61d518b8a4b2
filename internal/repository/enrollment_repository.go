package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/short-answer-api/internal/models"
)

// EnrollmentRepository handles persistence of course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListActiveStudents returns the roster for a course: active enrollments of
// student accounts, excluding staff and admin users. Rows are ordered by
// enrollment id ascending so the report order is stable across calls.
func (r *EnrollmentRepository) ListActiveStudents(ctx context.Context, courseID string) ([]models.EnrolledStudent, error) {
	const query = `SELECT e.id, e.course_id, e.user_id, e.active, e.joined_at, u.full_name, u.email
        FROM enrollments e
        JOIN users u ON u.id = e.user_id
        WHERE e.course_id = $1 AND e.active = TRUE AND u.role = $2
        ORDER BY e.id ASC`
	var students []models.EnrolledStudent
	if err := r.db.SelectContext(ctx, &students, query, courseID, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, course_id, user_id, active, joined_at FROM enrollments WHERE id = $1 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// IsActivelyEnrolled reports whether the user has an active enrollment in
// the course.
func (r *EnrollmentRepository) IsActivelyEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND user_id = $2 AND active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID, userID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return count > 0, nil
}
