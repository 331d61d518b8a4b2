package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/short-answer-api/internal/models"
)

func TestPastDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.False(t, PastDue(now, nil))

	future := now.Add(time.Hour)
	require.False(t, PastDue(now, &future))

	past := now.Add(-time.Hour)
	require.True(t, PastDue(now, &past))

	exact := now
	require.False(t, PastDue(now, &exact))
}

func TestEffectiveDueDate(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	extension := due.Add(48 * time.Hour)

	question := &models.QuestionConfig{DueDate: &due}

	require.Nil(t, EffectiveDueDate(&models.QuestionConfig{}, &models.StudentRecord{}))
	require.Equal(t, &due, EffectiveDueDate(question, &models.StudentRecord{}))
	require.Equal(t, &due, EffectiveDueDate(question, nil))

	extended := &models.StudentRecord{DueDateExtension: &extension}
	require.Equal(t, &extension, EffectiveDueDate(question, extended))

	// An extension applies even when the question itself has no due date.
	require.Equal(t, &extension, EffectiveDueDate(&models.QuestionConfig{}, extended))
}
