package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/short-answer-api/internal/models"
)

func TestEnrollmentRepositoryListActiveStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "course_id", "user_id", "active", "joined_at", "full_name", "email"}).
		AddRow("enr-1", "course-1", "student-1", true, time.Now(), "Ada Lovelace", "ada@example.com").
		AddRow("enr-2", "course-1", "student-2", true, time.Now(), "Alan Turing", "alan@example.com")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.course_id, e.user_id")).
		WithArgs("course-1", models.RoleStudent).
		WillReturnRows(rows)

	students, err := repo.ListActiveStudents(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, "Ada Lovelace", students[0].FullName)
	require.Equal(t, "student-2", students[1].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListActiveStudentsEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.course_id, e.user_id")).
		WithArgs("course-1", models.RoleStudent).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "user_id", "active", "joined_at", "full_name", "email"}))

	students, err := repo.ListActiveStudents(context.Background(), "course-1")
	require.NoError(t, err)
	require.Empty(t, students)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryIsActivelyEnrolled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments")).
		WithArgs("course-1", "student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	enrolled, err := repo.IsActivelyEnrolled(context.Background(), "course-1", "student-1")
	require.NoError(t, err)
	require.True(t, enrolled)
	require.NoError(t, mock.ExpectationsWereMet())
}
