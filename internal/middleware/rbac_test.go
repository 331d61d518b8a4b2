package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/short-answer-api/internal/models"
)

func performRBAC(t *testing.T, claims *models.JWTClaims, roles ...models.UserRole) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/protected", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	RequireRoles(roles...)(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return w
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	w := performRBAC(t, &models.JWTClaims{UserID: "u-1", Role: models.RoleStaff}, models.RoleStaff, models.RoleAdmin)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRBACRejectsOtherRole(t *testing.T) {
	w := performRBAC(t, &models.JWTClaims{UserID: "u-1", Role: models.RoleStudent}, models.RoleStaff, models.RoleAdmin)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	w := performRBAC(t, nil, models.RoleStaff)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
