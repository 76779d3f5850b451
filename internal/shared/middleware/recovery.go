package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cms-backend/internal/shared/response"
	"cms-backend/pkg/logger"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.FromContext(c.Request.Context()).Error().
					Interface("panic", err).
					Str("path", c.Request.URL.Path).
					Msg("Panic recovered")

				response.WriteProblem(c, http.StatusInternalServerError, "An unexpected error occurred.", nil)
			}
		}()

		c.Next()
	}
}
