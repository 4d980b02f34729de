package models

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the target page to scrape. Must be an absolute http(s) URL.
	URL string `json:"url" binding:"required,url"`

	// Selector is an optional CSS selector applied to the captured DOM
	// before noise filtering and segmentation. When it matches nothing the
	// full document is used.
	Selector string `json:"selector,omitempty"`

	// IncludeMarkdown adds a Markdown rendering of each section's HTML.
	IncludeMarkdown bool `json:"include_markdown,omitempty"`

	// MaxAge enables the response cache: a cached result younger than
	// MaxAge milliseconds is returned without re-scraping. 0 disables.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// ScrapeResponse wraps a ScrapeResult for the API, adding cache status.
type ScrapeResponse struct {
	Result *ScrapeResult `json:"result"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only for API-level failures (invalid input, auth,
	// rate limiting). Scrape-stage failures appear in Result.Errors.
	Error *ErrorDetail `json:"error,omitempty"`
}

// BatchRequest is the payload for POST /api/v1/batch/scrape.
type BatchRequest struct {
	// URLs is the list of target pages to scrape. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=50,dive,url"`

	// Options contains shared scrape options applied to all URLs.
	Options BatchOptions `json:"options"`

	// WebhookURL, when set, receives a signed notification once the
	// batch finishes.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}

// BatchOptions are the shared settings applied to every URL in a batch.
type BatchOptions struct {
	Selector        string `json:"selector,omitempty"`
	IncludeMarkdown bool   `json:"include_markdown,omitempty"`
}

// BatchResponse is the immediate response for POST /api/v1/batch/scrape.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Results   []*ScrapeResult `json:"results,omitempty"`
}

// BatchJob tracks an in-progress batch scrape.
type BatchJob struct {
	ID        string
	Status    string // "processing", "completed", "partial", "failed"
	Total     int
	Completed int
	Results   []*ScrapeResult
	CreatedAt int64 // unix timestamp
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
