package render

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/models"
	"github.com/use-agent/sectify/simhash"
)

// Crawl phases, in the order they run on each visited page.
type crawlPhase int

const (
	phaseClickTabs crawlPhase = iota
	phaseClickLoadMore
	phaseScroll
	phasePaginate
	phaseDone
)

const (
	tabSelector      = `[role="tab"], [class*="tab"]`
	loadMoreSelector = `button, a, [role="button"]`
	nextLinkSelector = `a[rel="next"], [class*="pagination"] a, [class*="next"] a, a[class*="next"]`

	// simhashThreshold is the Hamming distance below which two DOM
	// fingerprints count as the same content, i.e. no progress.
	simhashThreshold = 3
)

var (
	reLoadMore = regexp.MustCompile(`(?i)\b(load|show|view|see)\s*more\b`)
	reNextText = regexp.MustCompile(`(?i)^\s*(next|older|more)\b|^\s*[›»]\s*$`)
)

// crawlPage is the surface of page operations the crawler drives,
// implemented over rod by rodCrawlPage. Keeping the phase machine
// behind it means the budget logic runs the same against a fake.
type crawlPage interface {
	Elements(ctx context.Context, selector string) ([]crawlElement, error)
	ScrollToBottom(ctx context.Context) error
	WaitLoad(ctx context.Context) error
	HTML(ctx context.Context) (string, error)
}

// crawlElement is one interactable element on a crawlPage.
type crawlElement interface {
	Text() string
	Attr(name string) (string, bool)
	Click(ctx context.Context) error
}

// crawler walks a rendered page through the interaction phases, bounded
// by hard caps so it always terminates: pages visited, total scrolls,
// tab clicks and load-more rounds are all monotonic counters checked
// against the configured maxima, and every individual interaction has
// its own timeout.
type crawler struct {
	cfg     config.InteractConfig
	origin  *url.URL
	visited map[string]bool
	scrolls int
	clicks  []string
	pages   []string
	issues  []models.ErrorRecord

	lastHash uint64

	// scrollStalled records that the last scroll phase ended without new
	// content arriving. Pagination is only allowed once scrolling has
	// visibly run dry.
	scrollStalled bool
}

func newCrawler(cfg config.InteractConfig, startURL string) *crawler {
	origin, _ := url.Parse(startURL)
	return &crawler{
		cfg:     cfg,
		origin:  origin,
		visited: map[string]bool{startURL: true},
		pages:   []string{startURL},
	}
}

// run executes the phase sequence, moving to the next page when
// pagination succeeds and stopping at the configured caps. Failures in
// any phase are recorded as issues and never abort the crawl.
func (c *crawler) run(ctx context.Context, page crawlPage) (models.Interactions, []models.ErrorRecord) {
	c.lastHash = c.fingerprint(ctx, page)

	for phase := phaseClickTabs; phase != phaseDone; {
		if ctx.Err() != nil {
			c.issue("crawl aborted: %v", ctx.Err())
			break
		}

		switch phase {
		case phaseClickTabs:
			c.clickTabs(ctx, page)
			phase = phaseClickLoadMore
		case phaseClickLoadMore:
			c.clickLoadMore(ctx, page)
			phase = phaseScroll
		case phaseScroll:
			c.scroll(ctx, page)
			phase = phasePaginate
		case phasePaginate:
			// Only leave a page once scrolling stopped producing new
			// content; a page that is still loading keeps priority over
			// the next one.
			if c.scrollStalled && c.paginate(ctx, page) {
				// New page: restart the click phases there.
				phase = phaseClickTabs
			} else {
				phase = phaseDone
			}
		}
	}

	return models.Interactions{
		Clicks:  c.clicks,
		Scrolls: c.scrolls,
		Pages:   c.pages,
	}, c.issues
}

// clickTabs clicks each tab-like element once so hidden tab panels end
// up rendered into the DOM.
func (c *crawler) clickTabs(ctx context.Context, page crawlPage) {
	tabs, err := page.Elements(ctx, tabSelector)
	if err != nil || len(tabs) == 0 {
		return
	}

	clicked := 0
	for _, tab := range tabs {
		if clicked >= c.cfg.MaxTabClicks {
			break
		}
		label := elementLabel(tab, tabSelector)
		if err := tab.Click(ctx); err != nil {
			c.issue("tab click %q failed: %v", label, err)
			continue
		}
		c.clicks = append(c.clicks, label)
		clicked++
		if err := sleepCtx(ctx, c.cfg.ClickSettle); err != nil {
			return
		}
	}
}

// clickLoadMore repeatedly clicks a load-more style control until the
// round cap is hit or a click stops producing new content.
func (c *crawler) clickLoadMore(ctx context.Context, page crawlPage) {
	for round := 0; round < c.cfg.MaxLoadMoreRounds; round++ {
		btn, label := c.findLoadMore(ctx, page)
		if btn == nil {
			return
		}
		if err := btn.Click(ctx); err != nil {
			c.issue("load-more click %q failed: %v", label, err)
			return
		}
		c.clicks = append(c.clicks, label)
		if err := sleepCtx(ctx, c.cfg.ClickSettle); err != nil {
			return
		}
		if !c.contentGrew(ctx, page) {
			return
		}
	}
}

// findLoadMore returns the first control whose text or class marks it
// as a load-more trigger.
func (c *crawler) findLoadMore(ctx context.Context, page crawlPage) (crawlElement, string) {
	candidates, err := page.Elements(ctx, loadMoreSelector)
	if err != nil {
		return nil, ""
	}
	for _, el := range candidates {
		text := el.Text()
		if reLoadMore.MatchString(text) {
			return el, strings.TrimSpace(text)
		}
		if class, ok := el.Attr("class"); ok {
			lower := strings.ToLower(class)
			if strings.Contains(lower, "load-more") || strings.Contains(lower, "show-more") {
				return el, elementLabel(el, "load-more")
			}
		}
	}
	return nil, ""
}

// scroll jumps to the bottom of the document until the global scroll cap
// is hit or the DOM stops changing, and records whether the phase ended
// with content no longer growing.
func (c *crawler) scroll(ctx context.Context, page crawlPage) {
	c.scrollStalled = false
	for c.scrolls < c.cfg.MaxScrolls {
		if err := page.ScrollToBottom(ctx); err != nil {
			c.issue("scroll failed: %v", err)
			return
		}
		c.scrolls++
		if err := sleepCtx(ctx, c.cfg.ScrollSettle); err != nil {
			return
		}
		if !c.contentGrew(ctx, page) {
			c.scrollStalled = true
			return
		}
	}
}

// paginate follows one next-page link. Only same-origin targets count,
// and each URL is visited at most once. Returns true when a new page
// was loaded.
func (c *crawler) paginate(ctx context.Context, page crawlPage) bool {
	if len(c.pages) >= c.cfg.MaxPagesVisited {
		return false
	}

	links, err := page.Elements(ctx, nextLinkSelector)
	if err != nil || len(links) == 0 {
		return false
	}

	for _, link := range links {
		href, ok := link.Attr("href")
		if !ok || href == "" {
			continue
		}
		nextURL, ok := c.resolveSameOrigin(href)
		if !ok || c.visited[nextURL] {
			continue
		}
		rel, hasRel := link.Attr("rel")
		if (!hasRel || rel != "next") && !reNextText.MatchString(link.Text()) {
			continue
		}

		if err := link.Click(ctx); err != nil {
			c.issue("pagination to %s failed: %v", nextURL, err)
			return false
		}
		// The page load after a pagination click gets the full
		// navigation timeout, not the per-interaction one.
		if err := page.WaitLoad(ctx); err != nil {
			c.issue("pagination to %s did not settle: %v", nextURL, err)
		}

		c.visited[nextURL] = true
		c.pages = append(c.pages, nextURL)
		c.lastHash = c.fingerprint(ctx, page)
		return true
	}
	return false
}

// contentGrew fingerprints the current DOM and reports whether it moved
// beyond the similarity threshold since the last check.
func (c *crawler) contentGrew(ctx context.Context, page crawlPage) bool {
	h := c.fingerprint(ctx, page)
	if h == 0 {
		return false
	}
	grew := !simhash.Similar(h, c.lastHash, simhashThreshold)
	c.lastHash = h
	return grew
}

func (c *crawler) fingerprint(ctx context.Context, page crawlPage) uint64 {
	html, err := page.HTML(ctx)
	if err != nil {
		return 0
	}
	return simhash.FingerprintPage(html)
}

func (c *crawler) resolveSameOrigin(href string) (string, bool) {
	if c.origin == nil {
		return "", false
	}
	resolved, err := c.origin.Parse(href)
	if err != nil {
		return "", false
	}
	if resolved.Scheme != c.origin.Scheme || resolved.Host != c.origin.Host {
		return "", false
	}
	return resolved.String(), true
}

func (c *crawler) issue(format string, args ...any) {
	c.issues = append(c.issues, models.ErrorRecord{
		Stage:   models.StageInteraction,
		Message: fmt.Sprintf(format, args...),
	})
}

// elementLabel describes a clicked element for the interaction summary:
// its visible text when present, the matching selector otherwise.
func elementLabel(el crawlElement, fallback string) string {
	if trimmed := strings.TrimSpace(el.Text()); trimmed != "" {
		return trimmed
	}
	return fallback
}
