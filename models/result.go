package models

// ScrapeResult is the final output of one scrape request. It is assembled
// once and never mutated afterwards.
//
// Emptiness of Sections combined with a non-empty Errors list signals total
// failure; populated Sections with non-empty Errors signals partial success.
type ScrapeResult struct {
	// URL is the request URL.
	URL string `json:"url"`

	// ScrapedAt is the RFC 3339 UTC timestamp of when the scrape started.
	ScrapedAt string `json:"scrapedAt"`

	// Meta holds page-level metadata from the final DOM snapshot.
	Meta MetaInfo `json:"meta"`

	// Sections are the extracted content blocks in document order.
	Sections []Section `json:"sections"`

	// Interactions summarizes the interactive crawl (zero-valued when the
	// render engine never ran).
	Interactions Interactions `json:"interactions"`

	// Errors lists every non-fatal failure, in the order it occurred.
	Errors []ErrorRecord `json:"errors"`
}
