package models

import "time"

// QuestionConfig describes one short answer question embedded in a course.
// Students submit free text against it; staff grade the submissions.
type QuestionConfig struct {
	ID              string     `db:"id" json:"id"`
	CourseID        string     `db:"course_id" json:"course_id"`
	DisplayName     string     `db:"display_name" json:"display_name"`
	Description     string     `db:"description" json:"description"`
	Feedback        string     `db:"feedback" json:"feedback"`
	Weight          float64    `db:"weight" json:"weight"`
	Width           int        `db:"width" json:"width"`
	GradesPublished bool       `db:"grades_published" json:"grades_published"`
	DueDate         *time.Time `db:"due_date" json:"due_date,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Defaults applied when a question is created without explicit values,
// mirroring the component's original authoring form.
const (
	DefaultQuestionWeight      = 100
	DefaultQuestionWidth       = 500
	DefaultQuestionDescription = "Submit your questions and observations in 1-2 short paragraphs below."
	DefaultQuestionFeedback    = "Your answer was submitted successfully."
)

// MaxScore returns the configured ceiling for grading this question.
func (q *QuestionConfig) MaxScore() float64 {
	if q.Weight <= 0 {
		return DefaultQuestionWeight
	}
	return q.Weight
}

// QuestionFieldUpdates carries an authoring edit: field name to new value.
// Only allow-listed fields are applied; unknown keys are rejected.
type QuestionFieldUpdates map[string]interface{}

// EditableQuestionFields is the allow-list consumed by the authoring edit
// handler. Visibility is excluded on purpose: grades_published has its own
// endpoint with staff-side semantics.
var EditableQuestionFields = map[string]struct{}{
	"display_name": {},
	"description":  {},
	"feedback":     {},
	"weight":       {},
	"width":        {},
	"due_date":     {},
}
