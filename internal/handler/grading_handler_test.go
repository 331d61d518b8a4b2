package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/short-answer-api/internal/middleware"
	"github.com/noah-isme/short-answer-api/internal/models"
	"github.com/noah-isme/short-answer-api/internal/service"
	appErrors "github.com/noah-isme/short-answer-api/pkg/errors"
)

type gradingServiceMock struct {
	gradeResp      *service.GradeResponse
	gradeErr       error
	gradeReq       service.SubmitGradeRequest
	removeErr      error
	removedID      string
	published      *bool
	publishErr     error
	publishedQID   string
}

func (m *gradingServiceMock) SubmitGrade(ctx context.Context, questionID string, req service.SubmitGradeRequest, actor *models.JWTClaims) (*service.GradeResponse, error) {
	m.gradeReq = req
	return m.gradeResp, m.gradeErr
}

func (m *gradingServiceMock) RemoveGrade(ctx context.Context, questionID string, req service.RemoveGradeRequest, actor *models.JWTClaims) error {
	m.removedID = req.RecordID
	return m.removeErr
}

func (m *gradingServiceMock) SetGradesPublished(ctx context.Context, questionID string, published bool, actor *models.JWTClaims) error {
	m.published = &published
	m.publishedQID = questionID
	return m.publishErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func staffContext(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestGradingHandlerSubmitGrade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradingServiceMock{gradeResp: &service.GradeResponse{NewScore: 90}}
	handler := NewGradingHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{"score": 90, "record_id": "rec-1"})
	c, w := newGinContext(http.MethodPost, "/questions/q-1/grade", payload)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	staffContext(c)

	handler.SubmitGrade(c)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	require.Equal(t, 90.0, data["new_score"])

	require.NotNil(t, mockSvc.gradeReq.Score)
	require.Equal(t, 90.0, *mockSvc.gradeReq.Score)
	require.Equal(t, "rec-1", mockSvc.gradeReq.RecordID)
}

func TestGradingHandlerSubmitGradeMissingScore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradingServiceMock{gradeErr: appErrors.Clone(appErrors.ErrMissingParameter, "missing score parameter")}
	handler := NewGradingHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{"record_id": "rec-1"})
	c, w := newGinContext(http.MethodPost, "/questions/q-1/grade", payload)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	staffContext(c)

	handler.SubmitGrade(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeEnvelope(t, w)
	errObj := envelope["error"].(map[string]interface{})
	require.Equal(t, "MISSING_PARAMETER", errObj["code"])
}

func TestGradingHandlerRemoveGrade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradingServiceMock{}
	handler := NewGradingHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{"record_id": "rec-1"})
	c, w := newGinContext(http.MethodPost, "/questions/q-1/grade/remove", payload)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	staffContext(c)

	handler.RemoveGrade(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "rec-1", mockSvc.removedID)
}

func TestGradingHandlerSetGradesPublished(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradingServiceMock{}
	handler := NewGradingHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{"grades_published": true})
	c, w := newGinContext(http.MethodPut, "/questions/q-1/grades-published", payload)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	staffContext(c)

	handler.SetGradesPublished(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.published)
	require.True(t, *mockSvc.published)
	require.Equal(t, "q-1", mockSvc.publishedQID)
}

func TestGradingHandlerSetGradesPublishedMissingFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradingServiceMock{}
	handler := NewGradingHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{})
	c, w := newGinContext(http.MethodPut, "/questions/q-1/grades-published", payload)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	staffContext(c)

	handler.SetGradesPublished(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Nil(t, mockSvc.published)
}
