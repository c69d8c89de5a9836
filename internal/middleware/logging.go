package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"famledger/internal/logger"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	healthPath      = "/api/health"
)

// An upstream proxy's id is reused only when it cannot corrupt log lines.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestLogging tags each admin request with an id and logs its outcome on
// the "http" logger. An acceptable X-Request-ID from the caller is kept so
// famctl and proxy logs can be correlated.
func RequestLogging() gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if !validRequestID.MatchString(requestID) {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		if ce := log.Desugar().Check(levelFor(status, c.Request.URL.Path), "request"); ce != nil {
			ce.Write(
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Int64("latency_ms", time.Since(start).Milliseconds()),
				zap.String("client_ip", c.ClientIP()),
			)
		}
	}
}

// RequestID returns the id RequestLogging assigned to c.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// levelFor picks the log level for a finished request. Health checks are
// polled constantly and only show at debug.
func levelFor(status int, path string) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	case path == healthPath:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
