package models

import "time"

// StudentRecord is the per-student state for one question: the submitted
// answer plus the manually assigned grade. Records are created lazily on
// first submission or first roster load and are never hard-deleted; removing
// a grade resets Score to nil.
type StudentRecord struct {
	ID               string     `db:"id" json:"id"`
	QuestionID       string     `db:"question_id" json:"question_id"`
	StudentID        string     `db:"student_id" json:"student_id"`
	Answer           string     `db:"answer" json:"answer"`
	AnsweredAt       *time.Time `db:"answered_at" json:"answered_at,omitempty"`
	Score            *float64   `db:"score" json:"score,omitempty"`
	MaxScore         float64    `db:"max_score" json:"max_score"`
	DueDateExtension *time.Time `db:"due_date_extension" json:"due_date_extension,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Submitted reports whether the student has ever submitted an answer.
func (r *StudentRecord) Submitted() bool {
	return r.AnsweredAt != nil
}

// RosterRow is one line of the staff-facing submissions report.
type RosterRow struct {
	RecordID   string     `db:"record_id" json:"record_id"`
	FullName   string     `db:"full_name" json:"full_name"`
	Email      string     `db:"email" json:"email"`
	Answer     string     `db:"answer" json:"answer"`
	AnsweredAt *time.Time `db:"answered_at" json:"answered_at,omitempty"`
	Score      *float64   `db:"score" json:"score,omitempty"`
	MaxScore   float64    `db:"max_score" json:"max_score"`
}
