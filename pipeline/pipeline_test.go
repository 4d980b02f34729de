package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Fetch: config.FetchConfig{
			Timeout:     2 * time.Second,
			MaxBodySize: 1 << 20,
		},
		Fallback: config.FallbackConfig{MinTextLength: 500},
		Limits: config.LimitsConfig{
			TextCap:     5000,
			HTMLCap:     5000,
			LabelCap:    100,
			MaxLinks:    50,
			MaxImages:   20,
			MaxLists:    10,
			MaxTables:   5,
			MaxHeadings: 10,
		},
	}
}

// fakeRenderer satisfies Renderer without a browser.
type fakeRenderer struct {
	result *models.RenderResult
	err    error
	calls  int
}

func (f *fakeRenderer) Render(ctx context.Context, targetURL string) (*models.RenderResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func staticRichPage() string {
	filler := strings.Repeat("plenty of static words to stay above the threshold ", 15)
	return `<html lang="en"><head><title>Static Page</title></head><body>
		<header><h1>Site</h1></header>
		<main><h2>Body</h2><p>` + filler + `</p></main>
		<footer><p>Footer text that is long enough to matter here.</p></footer>
	</body></html>`
}

func TestRun_StaticSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(staticRichPage()))
	}))
	defer srv.Close()

	fr := &fakeRenderer{}
	p := New(testConfig(), fr)
	result := p.Run(context.Background(), srv.URL, Options{})

	require.NotNil(t, result)
	assert.Equal(t, srv.URL, result.URL)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 0, fr.calls, "rich static pages must not trigger a render")

	require.Len(t, result.Sections, 3)
	assert.Equal(t, models.TypeHeader, result.Sections[0].Type)
	assert.Equal(t, models.TypeSection, result.Sections[1].Type)
	assert.Equal(t, models.TypeFooter, result.Sections[2].Type)

	assert.Equal(t, "Static Page", result.Meta.Title)
	assert.Equal(t, "en", result.Meta.Language)

	_, err := time.Parse(time.RFC3339, result.ScrapedAt)
	assert.NoError(t, err)
}

func TestRun_TotalFailureStillReturnsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// No renderer: the fallback is recorded as unavailable.
	p := New(testConfig(), nil)
	result := p.Run(context.Background(), srv.URL, Options{})

	require.NotNil(t, result)
	assert.Empty(t, result.Sections)
	assert.NotNil(t, result.Sections, "sections must serialize as [], not null")

	require.Len(t, result.Errors, 2)
	assert.Equal(t, models.StageFetch, result.Errors[0].Stage)
	assert.Equal(t, models.StageRender, result.Errors[1].Stage)
	assert.Contains(t, result.Errors[1].Message, "unavailable")
}

func TestRun_RenderFallbackUsed(t *testing.T) {
	// Static page is a thin JS shell; the fake renderer supplies the
	// full DOM.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div id="root"></div></body></html>`))
	}))
	defer srv.Close()

	renderedHTML := staticRichPage()
	fr := &fakeRenderer{
		result: &models.RenderResult{
			Snapshot: models.PageSnapshot{
				URL:    srv.URL,
				HTML:   renderedHTML,
				Status: models.SnapshotSuccess,
			},
			Interactions: models.Interactions{
				Clicks:  []string{"Load more"},
				Scrolls: 2,
				Pages:   []string{srv.URL},
			},
		},
	}

	p := New(testConfig(), fr)
	result := p.Run(context.Background(), srv.URL, Options{})

	assert.Equal(t, 1, fr.calls)
	require.Len(t, result.Sections, 3)
	assert.Equal(t, []string{"Load more"}, result.Interactions.Clicks)
	assert.Equal(t, 2, result.Interactions.Scrolls)
	assert.Empty(t, result.Errors)
}

func TestRun_RenderFailureFallsBackToStatic(t *testing.T) {
	// The static capture is thin but present; when the render fails the
	// pipeline still extracts what it has.
	thin := `<html><body><main><p>short but real content here</p></main></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(thin))
	}))
	defer srv.Close()

	fr := &fakeRenderer{err: models.NewStageError(
		models.StageRender, models.ErrCodeRender, "navigation to target URL failed", errors.New("boom"))}

	p := New(testConfig(), fr)
	result := p.Run(context.Background(), srv.URL, Options{})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, models.StageRender, result.Errors[0].Stage)
	require.Len(t, result.Sections, 1)
	assert.Contains(t, result.Sections[0].Text, "short but real")
}

func TestRun_SelectorScopesExtraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filler := strings.Repeat("long enough body text for the static threshold ", 15)
		w.Write([]byte(`<html><body>
			<main><section class="keep"><p>` + filler + `</p></section>
			<section class="drop"><p>should not appear in the output at all</p></section></main>
		</body></html>`))
	}))
	defer srv.Close()

	p := New(testConfig(), nil)
	result := p.Run(context.Background(), srv.URL, Options{Selector: ".keep"})

	require.NotEmpty(t, result.Sections)
	for _, sec := range result.Sections {
		assert.NotContains(t, sec.Text, "should not appear")
	}
}

func TestRun_InvalidSelectorRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(staticRichPage()))
	}))
	defer srv.Close()

	p := New(testConfig(), nil)
	result := p.Run(context.Background(), srv.URL, Options{Selector: "div[[["})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, models.StageParse, result.Errors[0].Stage)
	// The bad selector degrades to full-document extraction.
	assert.NotEmpty(t, result.Sections)
}

func TestRun_MarkdownOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(staticRichPage()))
	}))
	defer srv.Close()

	p := New(testConfig(), nil)
	result := p.Run(context.Background(), srv.URL, Options{IncludeMarkdown: true})

	require.Len(t, result.Sections, 3)
	assert.Contains(t, result.Sections[1].Markdown, "## Body")
}
