package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchNoise(t *testing.T) {
	tests := []struct {
		name     string
		class    string
		id       string
		category string
		noisy    bool
	}{
		{"cookie class", "cookie-consent", "", "consent", true},
		{"modal class", "modal fade", "", "dialog", true},
		{"popup id", "", "newsletter-popup", "dialog", true},
		{"overlay class", "page-overlay", "", "dialog", true},
		{"banner id", "", "promo-banner", "promo", true},
		{"case insensitive", "Cookie-Notice", "", "consent", true},
		{"clean element", "article-body", "content", "", false},
		{"empty attrs", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, noisy := MatchNoise(tt.class, tt.id)
			assert.Equal(t, tt.noisy, noisy)
			assert.Equal(t, tt.category, category)
		})
	}
}

func TestRemoveNoise(t *testing.T) {
	page := `<html><head><style>.x{}</style></head><body>
		<script>alert("hi")</script>
		<noscript>enable javascript</noscript>
		<div class="cookie-banner">We use cookies</div>
		<div id="signup-modal">Subscribe now</div>
		<main><p>Actual content stays intact.</p></main>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	RemoveNoise(doc)

	html, err := doc.Html()
	require.NoError(t, err)

	assert.NotContains(t, html, "alert")
	assert.NotContains(t, html, "enable javascript")
	assert.NotContains(t, html, "We use cookies")
	assert.NotContains(t, html, "Subscribe now")
	assert.Contains(t, html, "Actual content stays intact.")
}

func TestRemoveNoise_KeepsNonMatchingClasses(t *testing.T) {
	page := `<html><body>
		<div class="content-main"><p>Keep me around please.</p></div>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	RemoveNoise(doc)

	assert.Equal(t, 1, doc.Find("div.content-main").Length())
}
