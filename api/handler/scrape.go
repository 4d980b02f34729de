// Package handler contains the gin HTTP handlers.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/sectify/cache"
	"github.com/use-agent/sectify/models"
	"github.com/use-agent/sectify/pipeline"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Flow:
//  1. Parse & validate request.
//  2. Cache lookup (only when max_age > 0).
//  3. Pipeline.Run, which always yields a result, even on total failure.
//  4. Cache store, respond 200.
//
// Scrape-stage failures never produce non-200 responses; they appear in
// result.errors. Only invalid input is a 400.
func Scrape(p *pipeline.Pipeline, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.URL, req.Selector, req.IncludeMarkdown)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				c.JSON(http.StatusOK, models.ScrapeResponse{
					Result:      cached,
					CacheStatus: "hit",
				})
				return
			}
		}

		// ── 3. Run the pipeline ─────────────────────────────────────
		result := p.Run(c.Request.Context(), req.URL, pipeline.Options{
			Selector:        req.Selector,
			IncludeMarkdown: req.IncludeMarkdown,
		})

		// ── 4. Cache store + respond ────────────────────────────────
		resp := models.ScrapeResponse{Result: result}
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, result)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}
