package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractMetaFrom(t *testing.T, rawHTML, baseURL string) (title, desc, lang, canonical string) {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	require.NoError(t, err)
	meta := ExtractMeta(rawHTML, doc, mustURL(t, baseURL))
	return meta.Title, meta.Description, meta.Language, meta.Canonical
}

func TestExtractMeta_OpenGraphWins(t *testing.T) {
	page := `<html lang="de"><head>
		<title>Generic Title</title>
		<meta name="description" content="generic description">
		<meta property="og:title" content="OG Title">
		<meta property="og:description" content="OG description">
	</head><body></body></html>`

	title, desc, lang, _ := extractMetaFrom(t, page, "https://example.com/")

	assert.Equal(t, "OG Title", title)
	assert.Equal(t, "OG description", desc)
	assert.Equal(t, "de", lang)
}

func TestExtractMeta_GenericFallback(t *testing.T) {
	page := `<html><head>
		<title>Plain Title</title>
		<meta name="description" content="plain description">
	</head><body></body></html>`

	title, desc, lang, _ := extractMetaFrom(t, page, "https://example.com/")

	assert.Equal(t, "Plain Title", title)
	assert.Equal(t, "plain description", desc)
	assert.Equal(t, "en", lang, "language defaults to en when the lang attribute is absent")
}

func TestExtractMeta_LanguageNormalized(t *testing.T) {
	page := `<html lang="fr-CA"><head><title>x</title></head><body></body></html>`

	_, _, lang, _ := extractMetaFrom(t, page, "https://example.com/")

	assert.Equal(t, "fr", lang)
}

func TestExtractMeta_CanonicalResolved(t *testing.T) {
	page := `<html><head>
		<title>x</title>
		<link rel="canonical" href="/pricing">
	</head><body></body></html>`

	_, _, _, canonical := extractMetaFrom(t, page, "https://example.com/some/page")

	assert.Equal(t, "https://example.com/pricing", canonical)
}

func TestExtractMeta_NothingAvailable(t *testing.T) {
	page := `<html><body><p>just text</p></body></html>`

	title, _, lang, canonical := extractMetaFrom(t, page, "https://example.com/")

	assert.Empty(t, title)
	assert.Equal(t, "en", lang)
	assert.Empty(t, canonical)
}
