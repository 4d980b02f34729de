// Package api wires the HTTP surface: routes, middleware, handlers.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sectify/api/handler"
	"github.com/use-agent/sectify/api/middleware"
	"github.com/use-agent/sectify/cache"
	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/pipeline"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoints are intentionally outside auth so monitoring probes
// always work.
func NewRouter(p *pipeline.Pipeline, sp handler.StatsProvider, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	// Liveness probe.
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// Health, no auth required.
	v1.GET("/health", handler.Health(sp, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Scrape
	protected.POST("/scrape", handler.Scrape(p, cc))

	// Batch
	protected.POST("/batch/scrape", handler.PostBatch(p, cfg.Browser.MaxPages, cfg.Webhook.Secret))
	protected.GET("/batch/:id", handler.GetBatch())

	return r
}
