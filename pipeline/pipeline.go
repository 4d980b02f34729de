// Package pipeline orchestrates one scrape end to end: static fetch,
// render fallback decision, optional browser render with interactive
// crawl, and extraction of the final DOM into sections. A run never
// fails; whatever could not be captured is reported in the result's
// error list.
package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/extract"
	"github.com/use-agent/sectify/fetch"
	"github.com/use-agent/sectify/models"
)

// Renderer is the browser rendering dependency. It is an interface so
// the pipeline can run without a browser: a nil Renderer degrades every
// render fallback into a recorded error.
type Renderer interface {
	Render(ctx context.Context, targetURL string) (*models.RenderResult, error)
}

// Options are the per-request knobs.
type Options struct {
	// Selector optionally narrows extraction to matching elements.
	Selector string

	// IncludeMarkdown adds a Markdown rendering of each section.
	IncludeMarkdown bool
}

// Pipeline wires the scrape stages together. Safe for concurrent use.
type Pipeline struct {
	fetcher   *fetch.Fetcher
	decider   *fetch.Decider
	renderer  Renderer
	segmenter *extract.Segmenter
}

// New builds a Pipeline from configuration. renderer may be nil when no
// browser is available; static-only scrapes still work.
func New(cfg *config.Config, renderer Renderer) *Pipeline {
	return &Pipeline{
		fetcher:   fetch.NewFetcher(cfg.Fetch),
		decider:   fetch.NewDecider(cfg.Fallback),
		renderer:  renderer,
		segmenter: extract.NewSegmenter(cfg.Limits),
	}
}

// Run scrapes targetURL and always returns a result. Total failure is a
// result with zero sections and the errors explaining why.
func (p *Pipeline) Run(ctx context.Context, targetURL string, opts Options) *models.ScrapeResult {
	scrapedAt := time.Now().UTC().Format(time.RFC3339)
	col := newCollector()

	// ── 1. Static fetch ──────────────────────────────────────────────
	snap := p.fetcher.Fetch(ctx, targetURL)
	col.extend(snap.Issues)

	// ── 2. Fallback decision (made exactly once) ─────────────────────
	decision := p.decider.Decide(snap)

	var interactions models.Interactions
	if decision.NeedsRender {
		slog.Debug("render fallback triggered", "url", targetURL, "reason", decision.Reason)
		rendered, ria := p.render(ctx, targetURL, col)
		interactions = ria
		if rendered != nil {
			snap = rendered
		}
	}

	// ── 3. Extraction ────────────────────────────────────────────────
	var (
		sections []models.Section
		meta     = models.MetaInfo{Language: "en"}
	)
	if snap.Status != models.SnapshotFailed && snap.HTML != "" {
		sections, meta = p.extractSections(snap.HTML, targetURL, opts, col)
	}

	// ── 4. Assemble (never fails) ────────────────────────────────────
	return assemble(targetURL, scrapedAt, meta, sections, interactions, col.all())
}

// render runs the browser fallback. On any failure it records the error
// and returns a nil snapshot so the caller keeps the static one.
func (p *Pipeline) render(ctx context.Context, targetURL string, col *collector) (*models.PageSnapshot, models.Interactions) {
	if p.renderer == nil {
		col.add(models.StageRender, "browser rendering unavailable")
		return nil, models.Interactions{}
	}

	res, err := p.renderer.Render(ctx, targetURL)
	if err != nil {
		col.addErr(models.StageRender, err)
		return nil, models.Interactions{}
	}
	col.extend(res.Snapshot.Issues)
	return &res.Snapshot, res.Interactions
}

// extractSections parses the captured HTML and produces the final
// section list plus metadata. Parse-stage failures are recorded and the
// extraction degrades rather than aborts.
func (p *Pipeline) extractSections(rawHTML, targetURL string, opts Options, col *collector) ([]models.Section, models.MetaInfo) {
	if opts.Selector != "" {
		scoped, err := extract.ScopeHTML(rawHTML, opts.Selector)
		if err != nil {
			col.add(models.StageParse, "selector %q rejected: %v", opts.Selector, err)
		} else {
			rawHTML = scoped
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		col.add(models.StageParse, "document parse failed: %v", err)
		return nil, models.MetaInfo{Language: "en"}
	}

	base, err := url.Parse(targetURL)
	if err != nil {
		base = &url.URL{}
	}

	meta := extract.ExtractMeta(rawHTML, doc, base)
	extract.RemoveNoise(doc)
	sections := p.segmenter.Segment(doc, base, extract.SegmentOptions{
		IncludeMarkdown: opts.IncludeMarkdown,
	})
	return sections, meta
}

// assemble normalizes the result so serialization is stable: slices are
// never nil and the field set is identical for success and failure.
func assemble(targetURL, scrapedAt string, meta models.MetaInfo, sections []models.Section, interactions models.Interactions, errs []models.ErrorRecord) *models.ScrapeResult {
	if sections == nil {
		sections = []models.Section{}
	}
	if interactions.Clicks == nil {
		interactions.Clicks = []string{}
	}
	if interactions.Pages == nil {
		interactions.Pages = []string{}
	}
	for i := range sections {
		normalizeSection(&sections[i])
	}

	return &models.ScrapeResult{
		URL:          targetURL,
		ScrapedAt:    scrapedAt,
		Meta:         meta,
		Sections:     sections,
		Interactions: interactions,
		Errors:       errs,
	}
}

func normalizeSection(sec *models.Section) {
	if sec.Headings == nil {
		sec.Headings = []string{}
	}
	if sec.Links == nil {
		sec.Links = []string{}
	}
	if sec.Images == nil {
		sec.Images = []string{}
	}
	if sec.Lists == nil {
		sec.Lists = [][]string{}
	}
	if sec.Tables == nil {
		sec.Tables = [][][]string{}
	}
}
