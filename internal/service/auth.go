package service

import (
	"encoding/base32"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
)

const (
	OTPHeader = "X-OTP"
	OTPQuery  = "otp"
)

// AuthService guards the API with a time-based one-time password. With no
// secret configured every request passes.
type AuthService struct {
	logger     *zap.Logger
	totpSecret string
}

func NewAuthService(logger *zap.Logger, totpSecret string) *AuthService {
	return &AuthService{
		logger:     logger,
		totpSecret: totpSecret,
	}
}

func (a *AuthService) Enabled() bool {
	return a.totpSecret != ""
}

func (a *AuthService) GenerateSecret(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "PostPilot",
		AccountName: accountName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	return key.Secret(), nil
}

// GenerateQRCode returns the otpauth:// URL authenticator apps import.
func (a *AuthService) GenerateQRCode(issuer, accountName, secret string) (string, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("secret is not base32: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Secret:      raw,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	return key.URL(), nil
}

func (a *AuthService) ValidateToken(token string) bool {
	if !a.Enabled() {
		return true
	}
	valid := token != "" && totp.Validate(token, a.totpSecret)
	if !valid {
		a.logger.Warn("TOTP token validation failed")
	}
	return valid
}

// TokenFrom reads the password from the header, falling back to the query
// string for websocket upgrades where browsers cannot set headers.
func TokenFrom(r *http.Request) string {
	if token := r.Header.Get(OTPHeader); token != "" {
		return token
	}
	return r.URL.Query().Get(OTPQuery)
}

func (a *AuthService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		if !a.ValidateToken(TokenFrom(c.Request)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		c.Next()
	}
}
