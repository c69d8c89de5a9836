package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "famledger/internal/errors"
)

// AdminAuth creates a Gin middleware that validates the X-API-Key header
// against the configured admin API key. With no key configured every admin
// endpoint answers 503. Rejections are left on the context for ErrorHandler.
func AdminAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			_ = c.Error(apperrors.ErrAdminNotConfigured)
			c.Abort()
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			_ = c.Error(apperrors.ErrInvalidAPIKey)
			c.Abort()
			return
		}
		c.Next()
	}
}
