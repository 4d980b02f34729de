package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/models"
)

// keyedLimiters tracks one token bucket per caller identity (API key or
// client IP). Identities idle for an hour are evicted by a background
// loop so the map stays bounded.
type keyedLimiters struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiters(cfg config.RateLimitConfig) *keyedLimiters {
	k := &keyedLimiters{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
	}
	go k.evictLoop()
	return k
}

func (k *keyedLimiters) get(identity string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, ok := k.entries[identity]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(k.rps, k.burst)}
		k.entries[identity] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (k *keyedLimiters) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		k.mu.Lock()
		for id, entry := range k.entries {
			if entry.lastSeen.Before(cutoff) {
				delete(k.entries, id)
			}
		}
		k.mu.Unlock()
	}
}

// RateLimit returns per-identity token-bucket rate limiting middleware
// powered by golang.org/x/time/rate. The identity is the API key set by
// the auth middleware when present, the client IP otherwise.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	limiters := newKeyedLimiters(cfg)

	return func(c *gin.Context) {
		identity, exists := c.Get("api_key")
		if !exists {
			identity = c.ClientIP()
		}

		if !limiters.get(identity.(string)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ScrapeResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
