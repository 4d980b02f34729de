package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Fallback  FallbackConfig
	Render    RenderConfig
	Interact  InteractConfig
	Limits    LimitsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 5

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects anti-bot-detection JS before navigation.
	Stealth bool // default: false
}

// FetchConfig controls the static HTTP fetcher.
type FetchConfig struct {
	// Timeout is the deadline for the single static GET. No retries.
	Timeout time.Duration // default: 10s

	// MaxBodySize caps the response body read, in bytes.
	MaxBodySize int64 // default: 10 MB
}

// FallbackConfig controls the static-vs-render decision.
type FallbackConfig struct {
	// MinTextLength is the visible-text threshold below which the page is
	// considered too thin and a browser render is triggered.
	MinTextLength int // default: 500
}

// RenderConfig controls browser rendering.
type RenderConfig struct {
	// NavigationTimeout bounds navigation plus the wait strategy, per page.
	NavigationTimeout time.Duration // default: 30s

	// SettleDelay is the fixed pause after navigation before the
	// interactive crawl starts, giving late JS a chance to render.
	SettleDelay time.Duration // default: 2s
}

// InteractConfig controls the interactive crawl on a rendered page.
type InteractConfig struct {
	// MaxPagesVisited caps pagination; the starting page counts as one.
	MaxPagesVisited int // default: 3

	// MaxScrolls caps scroll-to-bottom operations across all visited pages.
	MaxScrolls int // default: 3

	// MaxLoadMoreRounds caps "load more" click rounds per page.
	MaxLoadMoreRounds int // default: 3

	// MaxTabClicks caps tab clicks per page.
	MaxTabClicks int // default: 5

	// InteractionTimeout bounds each individual click, scroll or
	// pagination navigation.
	InteractionTimeout time.Duration // default: 5s

	// ClickSettle is the pause after a tab or load-more click.
	ClickSettle time.Duration // default: 1s

	// ScrollSettle is the pause after each scroll, letting lazy-loaded
	// content arrive.
	ScrollSettle time.Duration // default: 2s
}

// LimitsConfig holds the per-section size and count caps.
type LimitsConfig struct {
	TextCap     int // default: 5000 characters
	HTMLCap     int // default: 5000 characters (before the "..." marker)
	LabelCap    int // default: 100 characters
	MaxLinks    int // default: 50
	MaxImages   int // default: 20
	MaxLists    int // default: 10
	MaxTables   int // default: 5
	MaxHeadings int // default: 10
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 500
}

// WebhookConfig controls outgoing webhook notifications.
type WebhookConfig struct {
	// Secret signs webhook payloads with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SECTIFY_HOST", "0.0.0.0"),
			Port: envIntOr("SECTIFY_PORT", 8080),
			Mode: envOr("SECTIFY_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("SECTIFY_HEADLESS", true),
			MaxPages:   envIntOr("SECTIFY_MAX_PAGES", 5),
			NoSandbox:  envBoolOr("SECTIFY_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SECTIFY_BROWSER_BIN"),
			Stealth:    envBoolOr("SECTIFY_STEALTH", false),
		},
		Fetch: FetchConfig{
			Timeout:     envDurationOr("SECTIFY_FETCH_TIMEOUT", 10*time.Second),
			MaxBodySize: int64(envIntOr("SECTIFY_FETCH_MAX_BODY", 10<<20)),
		},
		Fallback: FallbackConfig{
			MinTextLength: envIntOr("SECTIFY_FALLBACK_MIN_TEXT", 500),
		},
		Render: RenderConfig{
			NavigationTimeout: envDurationOr("SECTIFY_NAV_TIMEOUT", 30*time.Second),
			SettleDelay:       envDurationOr("SECTIFY_SETTLE_DELAY", 2*time.Second),
		},
		Interact: InteractConfig{
			MaxPagesVisited:    envIntOr("SECTIFY_MAX_PAGES_VISITED", 3),
			MaxScrolls:         envIntOr("SECTIFY_MAX_SCROLLS", 3),
			MaxLoadMoreRounds:  envIntOr("SECTIFY_MAX_LOADMORE_ROUNDS", 3),
			MaxTabClicks:       envIntOr("SECTIFY_MAX_TAB_CLICKS", 5),
			InteractionTimeout: envDurationOr("SECTIFY_INTERACTION_TIMEOUT", 5*time.Second),
			ClickSettle:        envDurationOr("SECTIFY_CLICK_SETTLE", 1*time.Second),
			ScrollSettle:       envDurationOr("SECTIFY_SCROLL_SETTLE", 2*time.Second),
		},
		Limits: LimitsConfig{
			TextCap:     envIntOr("SECTIFY_TEXT_CAP", 5000),
			HTMLCap:     envIntOr("SECTIFY_HTML_CAP", 5000),
			LabelCap:    envIntOr("SECTIFY_LABEL_CAP", 100),
			MaxLinks:    envIntOr("SECTIFY_MAX_LINKS", 50),
			MaxImages:   envIntOr("SECTIFY_MAX_IMAGES", 20),
			MaxLists:    envIntOr("SECTIFY_MAX_LISTS", 10),
			MaxTables:   envIntOr("SECTIFY_MAX_TABLES", 5),
			MaxHeadings: envIntOr("SECTIFY_MAX_HEADINGS", 10),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SECTIFY_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SECTIFY_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SECTIFY_RATE_RPS", 5.0),
			Burst:             envIntOr("SECTIFY_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SECTIFY_CACHE_MAX_ENTRIES", 500),
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("SECTIFY_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("SECTIFY_LOG_LEVEL", "info"),
			Format: envOr("SECTIFY_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
