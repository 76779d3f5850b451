package main

import (
	"github.com/gin-gonic/gin"

	"cms-backend/internal/shared/middleware"
	"cms-backend/internal/shared/server"
	"cms-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := server.NewEngine(c.Config.App.Environment, c.Config.App.RequestTimeout)

	server.RegisterHealthRoutes(router, "users", c.Config.App.Version, c.ReadinessChecks)

	v1 := router.Group("/api/v1")
	{
		server.RegisterHealthRoutes(v1, "users", c.Config.App.Version, c.ReadinessChecks)

		setupAuthRoutes(v1, c)
		setupUserRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login",
			middleware.RateLimit(c.LoginLimiter, c.Config.RateLimit.TrustProxyHeaders),
			c.UserHandler.Login,
		)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	authn := middleware.AuthMiddleware(c.JWTManager)

	users := v1.Group("/users")
	{
		// Public
		users.GET("", c.UserHandler.List)

		// Authenticated
		users.GET("/:id", authn, c.UserHandler.Get)

		// Machine-to-machine
		users.GET("/:id/brief",
			authn,
			middleware.RequireRoleOrScope(middleware.ScopeUsersRead, middleware.RoleAdmin, middleware.RoleService),
			c.UserHandler.GetBrief,
		)

		// Admin only
		admin := users.Group("", authn, middleware.RequireRoles(middleware.RoleAdmin))
		{
			admin.POST("", c.UserHandler.Create)
			admin.PUT("/:id", c.UserHandler.Update)
			admin.DELETE("/:id", c.UserHandler.Delete)
		}
	}
}
