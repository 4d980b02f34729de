package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeHTML_Match(t *testing.T) {
	page := `<html><body>
		<div class="keep"><p>wanted</p></div>
		<div class="drop"><p>unwanted</p></div>
	</body></html>`

	got, err := ScopeHTML(page, ".keep")
	require.NoError(t, err)

	assert.Contains(t, got, "wanted")
	assert.NotContains(t, got, "unwanted")
}

func TestScopeHTML_MultipleMatches(t *testing.T) {
	page := `<html><body>
		<section><p>one</p></section>
		<section><p>two</p></section>
	</body></html>`

	got, err := ScopeHTML(page, "section")
	require.NoError(t, err)

	assert.Contains(t, got, "one")
	assert.Contains(t, got, "two")
}

func TestScopeHTML_NoMatchReturnsOriginal(t *testing.T) {
	page := `<html><body><p>everything</p></body></html>`

	got, err := ScopeHTML(page, ".does-not-exist")
	require.NoError(t, err)

	assert.Equal(t, page, got)
}

func TestScopeHTML_InvalidSelector(t *testing.T) {
	_, err := ScopeHTML("<p>x</p>", "div[[[")
	assert.Error(t, err)
}
