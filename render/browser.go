// Package render drives a headless browser to capture pages that the
// static fetcher cannot, including the interactive crawl that exposes
// tab, load-more, infinite-scroll and paginated content.
package render

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/models"
)

// Engine manages the global browser lifecycle and the page pool.
// It is safe for concurrent use.
type Engine struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	browserCfg  config.BrowserConfig
	renderCfg   config.RenderConfig
	interactCfg config.InteractConfig
	activePages atomic.Int32
	startTime   time.Time
}

// NewEngine launches a headless browser and initialises the reusable
// page pool.
func NewEngine(browserCfg config.BrowserConfig, renderCfg config.RenderConfig, interactCfg config.InteractConfig) (*Engine, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewStageError(
			models.StageRender,
			models.ErrCodeRender,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewStageError(
			models.StageRender,
			models.ErrCodeRender,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(browserCfg.MaxPages)
	slog.Info("page pool created", "maxPages", browserCfg.MaxPages)

	return &Engine{
		browser:     browser,
		pagePool:    pool,
		browserCfg:  browserCfg,
		renderCfg:   renderCfg,
		interactCfg: interactCfg,
		startTime:   time.Now(),
	}, nil
}

// Stats returns a snapshot of the pool's current state.
func (e *Engine) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    e.browserCfg.MaxPages,
		ActivePages: int(e.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (e *Engine) Close() {
	slog.Info("render engine shutting down: draining page pool")
	e.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("render engine shutting down: closing browser")
	e.browser.MustClose()
	slog.Info("render engine shutdown complete")
}
