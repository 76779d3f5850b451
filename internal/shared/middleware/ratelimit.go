package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cms-backend/internal/shared/response"
	"cms-backend/internal/shared/utils"
	"cms-backend/pkg/logger"
	"cms-backend/pkg/ratelimit"
)

// RateLimit giới hạn request theo client IP, vượt quá -> 429 + Retry-After
func RateLimit(limiter *ratelimit.KeyedRateLimiter, trustProxyHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := utils.ExtractClientIP(c, trustProxyHeaders)
		if limiter.Allow(ip) {
			c.Next()
			return
		}

		retry := limiter.RetryAfter(ip)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		logger.FromContext(c.Request.Context()).Warn().Str("ip", ip).Msg("rate limit exceeded")
		response.WriteProblem(c, http.StatusTooManyRequests, "too many requests, retry later", nil)
	}
}
