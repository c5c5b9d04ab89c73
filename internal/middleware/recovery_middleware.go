package middleware

import (
	"net/http"
	"runtime/debug" // For logging stack trace

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a handler panic into a logged 500 response.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// Log the panic with the stack of the panicking goroutine.
			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.ByteString("stack", debug.Stack()),
			}
			if session := GetSession(c); session.SignedIn() {
				fields = append(fields, zap.String("user", session.UserID))
			}
			logger.Error("Handler panicked", fields...)

			// Only answer when no handler has started the response.
			if !c.Writer.Written() {
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
			}
			// Stop any remaining handlers in the chain.
			c.Abort()
		}()

		// Call the next handler in the chain.
		c.Next()
	}
}
