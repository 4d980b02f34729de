package models

// SectionType classifies a content section by its structural role.
type SectionType string

const (
	TypeNav     SectionType = "nav"
	TypeHeader  SectionType = "header"
	TypeFooter  SectionType = "footer"
	TypeHero    SectionType = "hero"
	TypeFAQ     SectionType = "faq"
	TypePricing SectionType = "pricing"
	TypeSection SectionType = "section"
	TypeUnknown SectionType = "unknown"
)

// Section is one structured content block extracted from a page.
// A Section is created per DOM boundary found by the segmenter and is
// immutable after the content limiter has applied its caps.
type Section struct {
	// ID is a stable per-result identifier, e.g. "hero-2".
	ID string `json:"id"`

	// Type is the classified section type.
	Type SectionType `json:"type"`

	// Label is a short human-readable name for the section.
	Label string `json:"label"`

	// SourceURL is the page the section was extracted from.
	SourceURL string `json:"sourceUrl"`

	// Headings lists the heading texts found inside the section, in order.
	Headings []string `json:"headings"`

	// Text is the section's paragraph text, capped.
	Text string `json:"text"`

	// RawHTML is the section's outer HTML, capped. When the source exceeded
	// the cap it ends with "..." and Truncated is true.
	RawHTML   string `json:"rawHtml"`
	Truncated bool   `json:"truncated"`

	// Links and Images hold absolute URLs in discovery order, capped.
	Links  []string `json:"links"`
	Images []string `json:"images"`

	// Lists holds the items of each <ul>/<ol> found, capped.
	Lists [][]string `json:"lists"`

	// Tables holds the cell rows of each <table> found, capped.
	Tables [][][]string `json:"tables"`

	// Markdown is the section HTML rendered as Markdown. Only populated
	// when the request asked for it.
	Markdown string `json:"markdown,omitempty"`
}

// MetaInfo holds page-level metadata derived from the final DOM snapshot.
// Open-Graph tags take precedence over generic meta tags.
type MetaInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Canonical   string `json:"canonical,omitempty"`
}

// Interactions summarizes what the interactive crawl did on a rendered page.
type Interactions struct {
	// Clicks lists the selectors or labels of elements that were clicked.
	Clicks []string `json:"clicks"`

	// Scrolls is the number of scroll-to-bottom operations performed.
	Scrolls int `json:"scrolls"`

	// Pages lists every URL visited, starting with the request URL.
	Pages []string `json:"pages"`
}
