package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs every request once it has been handled. The level follows the status
// class: errors for 5xx, warnings for 4xx, info otherwise.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now() // Record start time of the request

		// Copy path and query before handlers run; they may rewrite the request.
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process the request first so status and latency are known.
		c.Next()

		// Prepare log fields for structured logging.
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status_code", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		// Add query parameters if they exist.
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if session := GetSession(c); session.SignedIn() {
			fields = append(fields, zap.String("user", session.UserID))
		}
		// Errors attached by handlers through c.Error.
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("gin_errors", c.Errors.String()))
		}

		// Log with different levels based on status code.
		switch {
		case status >= http.StatusInternalServerError: // 500 and above
			logger.Error("Incoming Request", fields...)
		case status >= http.StatusBadRequest: // 400 to 499
			logger.Warn("Incoming Request", fields...)
		default: // 1xx, 2xx, 3xx
			logger.Info("Incoming Request", fields...)
		}
	}
}
