package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"cms-backend/pkg/logger"
)

// Logger ghi access log bằng request-scoped logger (có correlation_id)
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		l := logger.FromContext(c.Request.Context())
		evt := l.Info()
		switch {
		case status >= 500:
			evt = l.Error()
		case status >= 400:
			evt = l.Warn()
		}

		evt.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency_ms", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP Request")
	}
}
