package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cms-backend/internal/shared"
	"cms-backend/internal/shared/response"
	"cms-backend/pkg/jwt"
	"cms-backend/pkg/logger"
)

// TokenValidator là phần của jwt.Manager mà middleware cần
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware - xác thực Bearer token, set claims vào context.
// Thiếu token hoặc token không hợp lệ -> 401.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Lấy token từ Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		// 2. Extract token từ "Bearer <token>"
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		// 3. Verify signature, issuer, audience, lifetime
		claims, err := validator.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			logger.FromContext(c.Request.Context()).Debug().Err(err).Msg("token rejected")
			unauthorized(c, "invalid token")
			return
		}

		// 4. Set claims vào context
		c.Set(shared.ClaimsKey, claims)
		l := logger.FromContext(c.Request.Context()).With().Str("sub", claims.Subject).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()
	}
}

// ClaimsFrom lấy claims đã được AuthMiddleware set
func ClaimsFrom(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(shared.ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", `Bearer`)
	response.WriteProblem(c, http.StatusUnauthorized, detail, nil)
}
