// internal/middleware/logging_middleware.go
package middleware

import (
	"serial-service/internal/utils"
	"time"

	"github.com/gin-gonic/gin"
)

func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		logger.LogAPIRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.GetString(utils.RequestIDKey),
			c.ClientIP(),
			c.Writer.Status(),
			time.Since(startTime),
		)
	}
}
