package models

import "time"

// Enrollment captures a student's registration to a course.
type Enrollment struct {
	ID       string    `db:"id" json:"id"`
	CourseID string    `db:"course_id" json:"course_id"`
	UserID   string    `db:"user_id" json:"user_id"`
	Active   bool      `db:"active" json:"active"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// EnrolledStudent enriches Enrollment with the student's identity, as needed
// by the roster report.
type EnrolledStudent struct {
	Enrollment
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}
