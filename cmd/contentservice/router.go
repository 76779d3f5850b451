package main

import (
	"github.com/gin-gonic/gin"

	"cms-backend/internal/shared/middleware"
	"cms-backend/internal/shared/server"
	"cms-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := server.NewEngine(c.Config.App.Environment, c.Config.App.RequestTimeout)

	server.RegisterHealthRoutes(router, "contents", c.Config.App.Version, c.ReadinessChecks)

	v1 := router.Group("/api/v1")
	{
		server.RegisterHealthRoutes(v1, "contents", c.Config.App.Version, c.ReadinessChecks)

		setupContentRoutes(v1, c)
	}

	return router
}

// ========================================
// CONTENT ROUTES
// ========================================
func setupContentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	contents := v1.Group("/contents")
	{
		// Public
		contents.GET("", c.ContentHandler.List)
		contents.GET("/by-slug/:slug", c.ContentHandler.GetBySlug)
		contents.GET("/:id", c.ContentHandler.Get)

		// Người viết nội dung
		writers := contents.Group("",
			middleware.AuthMiddleware(c.JWTManager),
			middleware.RequireRoles(
				middleware.RoleAdmin,
				middleware.RoleEditor,
				middleware.RoleWriter,
				middleware.RoleAuthor,
			),
		)
		{
			writers.POST("", c.ContentHandler.Create)
			writers.PUT("/:id", c.ContentHandler.Update)
			writers.DELETE("/:id", c.ContentHandler.Delete)
		}
	}
}
