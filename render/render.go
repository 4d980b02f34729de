package render

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/sectify/models"
)

// Render navigates a pooled page to targetURL, runs the interactive
// crawl, and captures the final DOM.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard          – hard deadline on navigation plus settle
//  2. Acquire page           – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup         – about:blank + return to pool (leak prevention)
//  4. Stealth injection      – mask navigator.webdriver etc. (before navigation!)
//  5. Context binding        – propagate timeout to all Rod operations
//  6. Navigate               – triggers page load
//  7. Wait + settle          – DOM stable, then a fixed pause for late JS
//  8. Interactive crawl      – tabs, load-more, scroll, pagination
//  9. Capture                – page.HTML() of the final DOM
//
// Steps 1-7 failing is fatal and returns an error. Step 8 failures are
// recorded on the snapshot and never abort the render: whatever DOM
// exists at capture time is still worth extracting.
func (e *Engine) Render(ctx context.Context, targetURL string) (*models.RenderResult, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	navCtx, cancel := context.WithTimeout(ctx, e.renderCfg.NavigationTimeout)
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	e.activePages.Add(1)
	defer e.activePages.Add(-1)

	page, acquireErr := e.pagePool.Get(func() (*rod.Page, error) {
		return e.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewStageError(
			models.StageRender,
			models.ErrCodeRender,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 3. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	// Uses the original page reference (no request context), so cleanup
	// succeeds even after the request context has expired.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank",
				"error", navErr,
			)
		}
		e.pagePool.Put(page)
	}()

	// ── 4. Stealth injection ──────────────────────────────────────────
	// Must happen before Navigate: the injected JS only takes effect for
	// navigations after it is installed.
	if e.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 4b. Referer header ────────────────────────────────────────────
	if u, parseErr := url.Parse(targetURL); parseErr == nil {
		referer := "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{"Referer": gson.New(referer)},
		}.Call(page)
	}

	// ── 5. Bind request context to page ───────────────────────────────
	p := page.Context(navCtx)

	// ── 6. Navigate ───────────────────────────────────────────────────
	if navErr := p.Navigate(targetURL); navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}

	// ── 7. Wait strategy + settle delay ───────────────────────────────
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}
	if waitErr := sleepCtx(navCtx, e.renderCfg.SettleDelay); waitErr != nil {
		return nil, categorizeError(waitErr, "render settle interrupted")
	}

	// ── 7b. Status code via navigation timing (best-effort) ───────────
	var statusCode int
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	// ── 8. Interactive crawl ──────────────────────────────────────────
	// The crawl binds its own per-interaction timeouts; the parent ctx
	// (not navCtx) bounds it so a slow page load does not starve it.
	c := newCrawler(e.interactCfg, targetURL)
	cp := newRodCrawlPage(page, e.interactCfg.InteractionTimeout, e.renderCfg.NavigationTimeout)
	interactions, issues := c.run(ctx, cp)

	// ── 9. Capture final DOM ──────────────────────────────────────────
	rawHTML, htmlErr := page.Context(ctx).HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	status := models.SnapshotSuccess
	if len(issues) > 0 {
		status = models.SnapshotPartial
	}

	return &models.RenderResult{
		Snapshot: models.PageSnapshot{
			URL:        targetURL,
			HTML:       rawHTML,
			Status:     status,
			StatusCode: statusCode,
			Issues:     issues,
		},
		Interactions: interactions,
	}, nil
}

// sleepCtx pauses for d unless the context expires first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// categorizeError wraps raw errors into typed StageErrors so the
// pipeline can record them with a meaningful stage and code.
func categorizeError(err error, msg string) *models.StageError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewStageError(models.StageRender, models.ErrCodeRender, msg+": timeout", err)
	case errors.Is(err, context.Canceled):
		return models.NewStageError(models.StageRender, models.ErrCodeRender, "render canceled", err)
	default:
		return models.NewStageError(models.StageRender, models.ErrCodeRender, msg, err)
	}
}
