package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/short-answer-api/internal/models"
	"github.com/noah-isme/short-answer-api/internal/service"
	appErrors "github.com/noah-isme/short-answer-api/pkg/errors"
)

type questionServiceMock struct {
	question *models.QuestionConfig
	view     *service.StudentViewResponse
	err      error
	updates  models.QuestionFieldUpdates
}

func (m *questionServiceMock) Create(ctx context.Context, req service.CreateQuestionRequest, actor *models.JWTClaims) (*models.QuestionConfig, error) {
	return m.question, m.err
}

func (m *questionServiceMock) Edit(ctx context.Context, questionID string, updates models.QuestionFieldUpdates, actor *models.JWTClaims) (*models.QuestionConfig, error) {
	m.updates = updates
	return m.question, m.err
}

func (m *questionServiceMock) StudentView(ctx context.Context, questionID string, claims *models.JWTClaims) (*service.StudentViewResponse, error) {
	return m.view, m.err
}

func TestQuestionHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &questionServiceMock{question: &models.QuestionConfig{ID: "q-1", CourseID: "course-1", DisplayName: "Essay", Weight: 100, Width: 500}}
	handler := NewQuestionHandler(mockSvc)

	payload, _ := json.Marshal(map[string]string{"course_id": "course-1", "display_name": "Essay"})
	c, w := newGinContext(http.MethodPost, "/questions", payload)
	staffContext(c)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	require.Equal(t, "q-1", data["id"])
	require.Equal(t, 100.0, data["weight"])
}

func TestQuestionHandlerEdit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &questionServiceMock{question: &models.QuestionConfig{ID: "q-1", DisplayName: "Renamed"}}
	handler := NewQuestionHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{"display_name": "Renamed", "weight": 75})
	c, w := newGinContext(http.MethodPatch, "/questions/q-1", payload)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	staffContext(c)

	handler.Edit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "Renamed", mockSvc.updates["display_name"])
	require.Equal(t, 75.0, mockSvc.updates["weight"])
}

func TestQuestionHandlerEditUnknownField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &questionServiceMock{err: appErrors.Clone(appErrors.ErrUnknownField, `unknown question field "grades_published"`)}
	handler := NewQuestionHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{"grades_published": true})
	c, w := newGinContext(http.MethodPatch, "/questions/q-1", payload)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	staffContext(c)

	handler.Edit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeEnvelope(t, w)
	errObj := envelope["error"].(map[string]interface{})
	require.Equal(t, "UNKNOWN_FIELD", errObj["code"])
}

func TestQuestionHandlerStudentView(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &questionServiceMock{view: &service.StudentViewResponse{
		QuestionID:  "q-1",
		DisplayName: "Essay",
		MaxScore:    100,
		RecordID:    "rec-1",
		Answer:      "draft",
	}}
	handler := NewQuestionHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/questions/q-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	studentContext(c)

	handler.StudentView(c)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	require.Equal(t, "q-1", data["question_id"])
	require.Equal(t, "draft", data["answer"])
	_, hasScore := data["score"]
	require.False(t, hasScore)
}

func TestQuestionHandlerStudentViewRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewQuestionHandler(&questionServiceMock{})

	c, w := newGinContext(http.MethodGet, "/questions/q-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}

	handler.StudentView(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
