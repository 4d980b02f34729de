package extract

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/sectify/models"
)

const defaultLanguage = "en"

// ExtractMeta builds page-level metadata from the raw HTML. Open Graph
// tags win over generic ones for title and description; the <html lang>
// attribute wins for language; canonical comes from <link rel=canonical>
// resolved against the base URL. A readability pass fills whatever is
// still missing. Every field degrades independently, so a page with no
// metadata at all still yields a usable MetaInfo.
func ExtractMeta(rawHTML string, doc *goquery.Document, base *url.URL) models.MetaInfo {
	meta := models.MetaInfo{Language: defaultLanguage}

	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(rawHTML)); err == nil {
		meta.Title = strings.TrimSpace(og.Title)
		meta.Description = strings.TrimSpace(og.Description)
	}

	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if meta.Description == "" {
		if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
			meta.Description = strings.TrimSpace(desc)
		}
	}

	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		lang = strings.TrimSpace(lang)
		if len(lang) >= 2 {
			meta.Language = strings.ToLower(lang[:2])
		}
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if abs, valid := absoluteURL(base, href); valid {
			meta.Canonical = abs
		}
	}

	if meta.Title == "" || meta.Description == "" {
		fillFromReadability(&meta, rawHTML, base)
	}
	return meta
}

// fillFromReadability is the last resort for title and description: the
// readability heuristics can recover them from pages that set neither OG
// tags nor standard meta elements.
func fillFromReadability(meta *models.MetaInfo, rawHTML string, base *url.URL) {
	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		slog.Debug("meta: readability fallback failed", "url", base.String(), "error", err)
		return
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(article.Title)
	}
	if meta.Description == "" {
		meta.Description = strings.TrimSpace(article.Excerpt)
	}
}
