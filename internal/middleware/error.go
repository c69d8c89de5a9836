package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "famledger/internal/errors"
	"famledger/internal/logger"
)

// ErrorHandler renders the last error a handler or middleware left on the
// Gin context as the JSON error envelope. AppErrors keep their code and
// message; anything else becomes a generic internal error. Causes are only
// logged, never returned.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		log := logger.Named("admin").With(
			"request_id", RequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			log.Errorw("unexpected error", "error", err.Error())
			appErr = apperrors.ErrInternalServer
		} else {
			logAppError(log, appErr)
		}

		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}

func logAppError(log *zap.SugaredLogger, appErr *apperrors.AppError) {
	switch {
	case appErr.Internal != nil:
		log.Errorw("request failed", "code", appErr.Code, "internal", appErr.Internal.Error())
	case appErr.StatusCode == http.StatusUnauthorized || appErr.StatusCode == http.StatusServiceUnavailable:
		log.Warnw("admin request rejected", "code", appErr.Code)
	default:
		log.Infow("request rejected", "code", appErr.Code, "message", appErr.Message)
	}
}
