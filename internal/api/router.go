package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opencouncil/councilsearch/internal/api/admin"
	"github.com/opencouncil/councilsearch/internal/api/middleware"
	"github.com/opencouncil/councilsearch/internal/api/search"
	"github.com/opencouncil/councilsearch/internal/ratelimit"
	"github.com/opencouncil/councilsearch/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	BaseURL      string
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	searchService *service.SearchService,
	streamService *service.StreamService,
	ingestService *service.IngestService,
	results service.ResultStore,
	limiter ratelimit.Limiter,
	logger *zap.Logger,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public search API
	searchHandler := search.NewHandler(searchService, streamService, results, limiter, cfg.BaseURL, logger)
	searchGroup := r.Group("/api")
	searchHandler.RegisterRoutes(searchGroup)

	// Admin API (requires API key)
	adminHandler := admin.NewHandler(ingestService)
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.Auth(cfg.APIKey))
	adminHandler.RegisterRoutes(adminGroup)

	return r
}
