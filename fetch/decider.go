package fetch

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/models"
)

// contentIndicators are selectors whose presence marks a page as carrying
// recognizable main content. The set covers every landmark element the
// segmenter produces sections from, so a landmark-rich static page never
// triggers a render. Absence of all of them is one of the signals that
// the page is a JS shell needing a real render.
const contentIndicators = "main, article, section, header, nav, footer, [role=main], #content, .content"

var reNoscriptJS = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// Decision is the outcome of the fallback check, with the winning reason
// kept for logging.
type Decision struct {
	NeedsRender bool
	Reason      string
}

// Decider judges, exactly once per request, whether the static snapshot is
// sufficient or the browser must render the page.
type Decider struct {
	minTextLength int
}

// NewDecider creates a Decider with the configured visible-text threshold.
func NewDecider(cfg config.FallbackConfig) *Decider {
	return &Decider{minTextLength: cfg.MinTextLength}
}

// Decide inspects the static snapshot. Rendering is required when any of
// these holds: the fetch failed, the visible text is below the threshold,
// or no main-content indicator can be found in the document.
func (d *Decider) Decide(snap *models.PageSnapshot) Decision {
	if snap == nil || snap.Status == models.SnapshotFailed {
		return Decision{NeedsRender: true, Reason: "static fetch failed"}
	}

	if n := len(VisibleText(snap.HTML)); n < d.minTextLength {
		return Decision{NeedsRender: true, Reason: "visible text below threshold"}
	}

	if !hasContentIndicator(snap.HTML) {
		return Decision{NeedsRender: true, Reason: "no main-content indicator"}
	}

	return Decision{}
}

// hasContentIndicator reports whether the document carries a recognizable
// main-content region. Pages that nominally match but show classic SPA
// shell symptoms (empty root container, "enable javascript" noscript,
// script-heavy with thin text) are treated as having no indicator.
func hasContentIndicator(rawHTML string) bool {
	lower := strings.ToLower(rawHTML)

	if strings.Contains(lower, `<div id="root"></div>`) ||
		strings.Contains(lower, `<div id="app"></div>`) ||
		strings.Contains(lower, `<div id="__next"></div>`) {
		return false
	}

	if reNoscriptJS.MatchString(lower) {
		return false
	}

	if strings.Count(lower, "<script") > 10 && len(VisibleText(rawHTML)) < 1000 {
		return false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return false
	}
	return doc.Find(contentIndicators).Length() > 0
}
