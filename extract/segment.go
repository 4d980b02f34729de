package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/models"
)

const (
	landmarkSelector = "header, nav, main, section, footer, article"
	headingSelector  = "h1, h2, h3, h4, h5, h6"

	// minParagraphLen filters trivially short <p> texts; minBlockLen is the
	// stricter filter for the div/span fallback.
	minParagraphLen = 10
	minBlockLen     = 20

	// maxTextParts bounds how many text blocks are joined into the
	// section's text before the character cap applies.
	maxTextParts = 10

	// labelWords bounds the fallback label taken from leading text.
	labelWords = 7

	defaultLabel = "Section"
)

// Segmenter partitions a cleaned DOM into sections using a three-tier
// strategy: landmark elements, then headings, then the whole body. The
// first tier that yields at least one boundary wins.
type Segmenter struct {
	limiter *Limiter
	md      *converter.Converter
}

// NewSegmenter creates a Segmenter applying the given caps.
func NewSegmenter(limits config.LimitsConfig) *Segmenter {
	return &Segmenter{
		limiter: NewLimiter(limits),
		md:      NewMarkdownConverter(),
	}
}

// SegmentOptions control optional per-request extraction behavior.
type SegmentOptions struct {
	// IncludeMarkdown renders each section's HTML as Markdown.
	IncludeMarkdown bool
}

// Segment extracts sections from an already noise-filtered document.
// Returned sections are final: classified, labeled, and capped.
func (s *Segmenter) Segment(doc *goquery.Document, base *url.URL, opts SegmentOptions) []models.Section {
	sections := s.landmarkTier(doc, base, opts)
	if len(sections) == 0 {
		sections = s.headingTier(doc, base, opts)
	}
	if len(sections) == 0 {
		sections = s.bodyTier(doc, base, opts)
	}
	return sections
}

// landmarkTier emits one section per semantic landmark element, in
// document order.
func (s *Segmenter) landmarkTier(doc *goquery.Document, base *url.URL, opts SegmentOptions) []models.Section {
	var sections []models.Section
	doc.Find(landmarkSelector).Each(func(_ int, el *goquery.Selection) {
		class, _ := el.Attr("class")
		id, _ := el.Attr("id")
		sec := s.buildSection(el, goquery.NodeName(el), class, id, len(sections), base, opts)
		sections = append(sections, sec)
	})
	return sections
}

// headingTier splits the document at each heading: the heading plus its
// following siblings up to the next heading form one section.
func (s *Segmenter) headingTier(doc *goquery.Document, base *url.URL, opts SegmentOptions) []models.Section {
	var sections []models.Section
	doc.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
		group := h.AddSelection(h.NextUntil(headingSelector))

		var frag strings.Builder
		group.Each(func(_ int, node *goquery.Selection) {
			if html, err := goquery.OuterHtml(node); err == nil {
				frag.WriteString(html)
			}
		})

		wrapped, err := goquery.NewDocumentFromReader(
			strings.NewReader("<div>" + frag.String() + "</div>"))
		if err != nil {
			return
		}
		root := wrapped.Find("body > div").First()

		// Class hints come from the heading's container, which is where
		// authors put "faq"/"pricing"-style markers.
		class, _ := h.Parent().Attr("class")
		id, _ := h.Parent().Attr("id")

		sec := s.buildSection(root, "", class, id, len(sections), base, opts)
		sections = append(sections, sec)
	})
	return sections
}

// bodyTier wraps the entire cleaned body into a single section.
func (s *Segmenter) bodyTier(doc *goquery.Document, base *url.URL, opts SegmentOptions) []models.Section {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	class, _ := body.Attr("class")
	id, _ := body.Attr("id")
	sec := s.buildSection(body, "body", class, id, 0, base, opts)
	return []models.Section{sec}
}

// buildSection extracts all content of one DOM boundary and finalizes it
// through the limiter.
func (s *Segmenter) buildSection(el *goquery.Selection, tag, classAttr, idAttr string, idx int, base *url.URL, opts SegmentOptions) models.Section {
	headings := extractHeadings(el)
	text := extractText(el)

	sec := models.Section{
		Type:      Classify(tag, classAttr, idAttr, text),
		SourceURL: base.String(),
		Headings:  headings,
		Text:      text,
		Links:     extractLinks(el, base),
		Images:    extractImages(el, base),
		Lists:     extractLists(el),
		Tables:    extractTables(el),
	}
	sec.ID = fmt.Sprintf("%s-%d", sec.Type, idx)
	sec.Label = deriveLabel(headings, text)

	if html, err := goquery.OuterHtml(el); err == nil {
		sec.RawHTML = html
	}

	// Markdown converts from the uncapped HTML so truncation does not
	// leave broken markup mid-conversion.
	if opts.IncludeMarkdown && sec.RawHTML != "" {
		md, err := SectionMarkdown(s.md, sec.RawHTML, base.String())
		if err != nil {
			slog.Debug("markdown conversion failed", "section", sec.ID, "error", err)
		} else {
			sec.Markdown = md
		}
	}

	s.limiter.Apply(&sec)
	return sec
}

// deriveLabel picks the first heading, else the first few words of the
// text, else the literal default.
func deriveLabel(headings []string, text string) string {
	if len(headings) > 0 {
		return headings[0]
	}
	if words := strings.Fields(text); len(words) > 0 {
		if len(words) > labelWords {
			words = words[:labelWords]
		}
		return strings.Join(words, " ")
	}
	return defaultLabel
}

func extractHeadings(el *goquery.Selection) []string {
	var headings []string
	el.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
		if text := strings.TrimSpace(h.Text()); text != "" {
			headings = append(headings, text)
		}
	})
	return headings
}

// extractText gathers paragraph text. When paragraphs are sparse it falls
// back to div/span blocks with a stricter length filter, so pages built
// entirely from styled divs still yield text.
func extractText(el *goquery.Selection) string {
	var parts []string
	el.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); len(text) > minParagraphLen {
			parts = append(parts, text)
		}
	})

	if len(parts) < 2 {
		seen := make(map[string]struct{}, len(parts))
		for _, p := range parts {
			seen[p] = struct{}{}
		}
		el.Find("div, span").Each(func(_ int, d *goquery.Selection) {
			text := strings.TrimSpace(d.Text())
			if len(text) <= minBlockLen {
				return
			}
			if _, dup := seen[text]; dup {
				return
			}
			seen[text] = struct{}{}
			parts = append(parts, text)
		})
	}

	if len(parts) > maxTextParts {
		parts = parts[:maxTextParts]
	}
	return strings.Join(parts, " ")
}

func extractLinks(el *goquery.Selection, base *url.URL) []string {
	var links []string
	seen := make(map[string]struct{})
	el.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs, ok := absoluteURL(base, href)
		if !ok {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links
}

func extractImages(el *goquery.Selection, base *url.URL) []string {
	var images []string
	seen := make(map[string]struct{})
	el.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			// Lazy-loading setups park the real URL in data-src.
			src, _ = img.Attr("data-src")
		}
		abs, ok := absoluteURL(base, src)
		if !ok {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		images = append(images, abs)
	})
	return images
}

func extractLists(el *goquery.Selection) [][]string {
	var lists [][]string
	el.Find("ul, ol").Each(func(_ int, list *goquery.Selection) {
		var items []string
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			if text := strings.TrimSpace(li.Text()); text != "" {
				items = append(items, text)
			}
		})
		if len(items) > 0 {
			lists = append(lists, items)
		}
	})
	return lists
}

func extractTables(el *goquery.Selection) [][][]string {
	var tables [][][]string
	el.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows [][]string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var row []string
			tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				row = append(row, strings.TrimSpace(cell.Text()))
			})
			if len(row) > 0 {
				rows = append(rows, row)
			}
		})
		if len(rows) > 0 {
			tables = append(tables, rows)
		}
	})
	return tables
}
