package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/short-answer-api/internal/models"
	"github.com/noah-isme/short-answer-api/internal/service"
)

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func performJWT(t *testing.T, authorization string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	authSvc := service.NewAuthService(nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Minute,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		c.Request.Header.Set("Authorization", authorization)
	}

	JWT(authSvc)(c)
	return c, w
}

func TestJWTMiddlewareAcceptsBearerToken(t *testing.T) {
	c, _ := performJWT(t, "Bearer "+signedToken(t, "test-secret"))
	require.False(t, c.IsAborted())

	value, exists := c.Get(ContextUserKey)
	require.True(t, exists)
	claims := value.(*models.JWTClaims)
	require.Equal(t, "user-1", claims.UserID)
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	c, w := performJWT(t, "")
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsMalformedHeader(t *testing.T) {
	c, w := performJWT(t, "Token abc")
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsWrongSecret(t *testing.T) {
	c, w := performJWT(t, "Bearer "+signedToken(t, "other-secret"))
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
