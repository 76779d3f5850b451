package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cms-backend/internal/shared"
	"cms-backend/pkg/logger"
)

// chỉ nhận correlation id ngắn, an toàn để log và echo lại
var correlationPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// CorrelationID đọc X-Correlation-Id (hoặc sinh mới), echo lại trên response
// và gắn vào request logger cùng request id.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(shared.CorrelationHeader)
		if !correlationPattern.MatchString(id) {
			id = uuid.NewString()
		}
		requestID := uuid.NewString()

		c.Set(shared.CorrelationIDKey, id)
		c.Set(shared.RequestIDKey, requestID)
		c.Header(shared.CorrelationHeader, id)
		c.Header(shared.RequestIDHeader, requestID)

		ctx := shared.WithCorrelationID(c.Request.Context(), id)
		l := logger.FromContext(ctx).With().
			Str(shared.CorrelationIDKey, id).
			Str(shared.RequestIDKey, requestID).
			Logger()
		c.Request = c.Request.WithContext(l.WithContext(ctx))

		c.Next()
	}
}
