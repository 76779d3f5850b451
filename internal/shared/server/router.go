package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cms-backend/internal/shared/middleware"
)

// ReadinessFunc trả trạng thái từng dependency, ok=false -> 503
type ReadinessFunc func(ctx context.Context) (checks map[string]string, ok bool)

// NewEngine tạo gin engine với middleware chung của cả hai service.
// CorrelationID đứng đầu để access log và problem document đều có id.
// requestTimeout > 0 gắn deadline cho context của mỗi request.
func NewEngine(env string, requestTimeout time.Duration) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		middleware.CorrelationID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.RequestTimeout(requestTimeout),
	)
	return r
}

// RegisterHealthRoutes gắn /health, /ready, /ping lên group (root và /api/v1)
func RegisterHealthRoutes(g gin.IRoutes, service, version string, ready ReadinessFunc) {
	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   service,
			"version":   version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	g.GET("/ready", func(c *gin.Context) {
		checks, ok := ready(c.Request.Context())
		status, code := "ready", http.StatusOK
		if !ok {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "checks": checks})
	})

	g.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
}
