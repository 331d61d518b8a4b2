package service

import (
	"time"

	"github.com/noah-isme/short-answer-api/internal/models"
)

// PastDue reports whether now is strictly after the due date. A nil due date
// means submissions are always accepted.
func PastDue(now time.Time, due *time.Time) bool {
	if due == nil {
		return false
	}
	return now.After(*due)
}

// EffectiveDueDate resolves the deadline for one student: a per-student
// extension overrides the question due date when granted.
func EffectiveDueDate(question *models.QuestionConfig, record *models.StudentRecord) *time.Time {
	if record != nil && record.DueDateExtension != nil {
		return record.DueDateExtension
	}
	if question == nil {
		return nil
	}
	return question.DueDate
}
