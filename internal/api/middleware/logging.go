package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/logger"
)

// RequestLogger logs every request with zap once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if p, ok := PrincipalFrom(c); ok {
			fields = append(fields, "role", p.Role, "subject_id", p.SubjectID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.L().Errorw("Request", fields...)
		case status >= 400:
			logger.L().Warnw("Request", fields...)
		default:
			logger.L().Infow("Request", fields...)
		}
	}
}
