package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 5, cfg.Browser.MaxPages)

	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 500, cfg.Fallback.MinTextLength)

	assert.Equal(t, 30*time.Second, cfg.Render.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Render.SettleDelay)

	assert.Equal(t, 3, cfg.Interact.MaxPagesVisited)
	assert.Equal(t, 3, cfg.Interact.MaxScrolls)
	assert.Equal(t, 5, cfg.Interact.MaxTabClicks)
	assert.Equal(t, 5*time.Second, cfg.Interact.InteractionTimeout)

	assert.Equal(t, 5000, cfg.Limits.TextCap)
	assert.Equal(t, 5000, cfg.Limits.HTMLCap)
	assert.Equal(t, 50, cfg.Limits.MaxLinks)
	assert.Equal(t, 20, cfg.Limits.MaxImages)
	assert.Equal(t, 10, cfg.Limits.MaxLists)
	assert.Equal(t, 5, cfg.Limits.MaxTables)

	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, 500, cfg.Cache.MaxEntries)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SECTIFY_PORT", "9090")
	t.Setenv("SECTIFY_HEADLESS", "false")
	t.Setenv("SECTIFY_FETCH_TIMEOUT", "3s")
	t.Setenv("SECTIFY_MAX_SCROLLS", "7")
	t.Setenv("SECTIFY_API_KEYS", "key-one, key-two")
	t.Setenv("SECTIFY_RATE_RPS", "2.5")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 7, cfg.Interact.MaxScrolls)
	assert.Equal(t, []string{"key-one", "key-two"}, cfg.Auth.APIKeys)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("SECTIFY_PORT", "not-a-number")
	t.Setenv("SECTIFY_HEADLESS", "maybe")
	t.Setenv("SECTIFY_FETCH_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
}
