package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cms-backend/internal/shared/response"
)

const (
	RoleAdmin   = "Admin"
	RoleEditor  = "Editor"
	RoleWriter  = "Writer"
	RoleAuthor  = "Author"
	RoleService = "Service"

	ScopeUsersRead = "s2s:users.read"
)

// RequireRoles cho qua nếu token có ít nhất một role. Phải đứng sau AuthMiddleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return RequireRoleOrScope("", roles...)
}

// RequireRoleOrScope cho qua nếu token có một trong các roles hoặc có scope.
func RequireRoleOrScope(scope string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			unauthorized(c, "authentication required")
			return
		}

		if claims.HasRole(roles...) || (scope != "" && claims.HasScope(scope)) {
			c.Next()
			return
		}

		response.WriteProblem(c, http.StatusForbidden, "insufficient permissions", nil)
	}
}
