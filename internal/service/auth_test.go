package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthRouter(auth *AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(auth.AuthMiddleware())
	r.GET("/api/v1/posts", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	r := newAuthRouter(NewAuthService(zap.NewNop(), ""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequiresValidToken(t *testing.T) {
	auth := NewAuthService(zap.NewNop(), "")
	secret, err := auth.GenerateSecret("tests")
	require.NoError(t, err)
	auth = NewAuthService(zap.NewNop(), secret)
	r := newAuthRouter(auth)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set(OTPHeader, code)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/posts?otp="+code, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGenerateQRCode(t *testing.T) {
	auth := NewAuthService(zap.NewNop(), "")
	secret, err := auth.GenerateSecret("ops")
	require.NoError(t, err)

	url, err := auth.GenerateQRCode("PostPilot", "ops", secret)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "otpauth://totp/"))
	assert.Contains(t, url, "secret="+secret)
}
