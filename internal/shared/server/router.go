package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/indexing"
	"careercoach-backend/internal/search"
	"careercoach-backend/internal/services/health"
	"careercoach-backend/internal/shared/config"
	"careercoach-backend/internal/shared/server/middleware"
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	IndexingHandler *indexing.Handler
	SearchHandler   *search.Handler
}

// NewRouter builds the gin engine with shared middleware and all routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(deps.Config.CORSAllowOrigin))

	v1 := r.Group("/api/v1")
	v1.GET("/health", func(c *gin.Context) {
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	})

	// Document retrieval routes require a resolved user identity; the
	// upstream gateway authenticates and forwards X-User-Id.
	rag := v1.Group("/rag")
	rag.Use(middleware.Identity())
	deps.IndexingHandler.Register(rag)
	deps.SearchHandler.Register(rag)

	return r
}

// Addr normalizes a port value into a listen address.
func Addr(port string) string {
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
