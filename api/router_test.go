package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sectify/cache"
	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/models"
	"github.com/use-agent/sectify/pipeline"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Fetch: config.FetchConfig{
			Timeout:     2 * time.Second,
			MaxBodySize: 1 << 20,
		},
		Fallback: config.FallbackConfig{MinTextLength: 500},
		Browser:  config.BrowserConfig{MaxPages: 2},
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
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		Cache:     config.CacheConfig{MaxEntries: 10},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	p := pipeline.New(cfg, nil)
	cc := cache.New(cfg.Cache.MaxEntries)
	return NewRouter(p, nil, cfg, cc, time.Now())
}

func contentServer() *httptest.Server {
	filler := strings.Repeat("static words to clear the visible text threshold ", 15)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html lang="en"><head><title>Page</title></head><body>
			<header><h1>Site</h1></header>
			<main><p>` + filler + `</p></main>
		</body></html>`))
	}))
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(testConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealth_NoBrowser(t *testing.T) {
	router := newTestRouter(testConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Zero(t, resp.PoolStats.MaxPages)
}

func TestScrape_InvalidBody(t *testing.T) {
	router := newTestRouter(testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(`{"url":"not a url"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ScrapeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeInvalidInput, resp.Error.Code)
}

func TestScrape_Success(t *testing.T) {
	target := contentServer()
	defer target.Close()

	router := newTestRouter(testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape",
		strings.NewReader(`{"url":"`+target.URL+`"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ScrapeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Equal(t, target.URL, resp.Result.URL)
	assert.NotEmpty(t, resp.Result.Sections)
	assert.Empty(t, resp.Result.Errors)
}

func TestScrape_CacheRoundTrip(t *testing.T) {
	target := contentServer()
	defer target.Close()

	router := newTestRouter(testConfig())
	body := `{"url":"` + target.URL + `","max_age":60000}`

	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(body))
	req1.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w1, req1)

	require.Equal(t, http.StatusOK, w1.Code)
	var resp1 models.ScrapeResponse
	require.NoError(t, json.Unmarshal(w1.Body.Bytes(), &resp1))
	assert.Equal(t, "miss", resp1.CacheStatus)

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(body))
	req2.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w2, req2)

	require.Equal(t, http.StatusOK, w2.Code)
	var resp2 models.ScrapeResponse
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &resp2))
	assert.Equal(t, "hit", resp2.CacheStatus)
}

func TestAuth_MissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"valid-key"}}
	router := newTestRouter(cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(`{"url":"https://example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_HealthBypassesAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"valid-key"}}
	router := newTestRouter(cfg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBatch_Lifecycle(t *testing.T) {
	target := contentServer()
	defer target.Close()

	router := newTestRouter(testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch/scrape",
		strings.NewReader(`{"urls":["`+target.URL+`"]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var created models.BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Total)

	// Poll until the background job finishes.
	var status models.BatchStatusResponse
	deadline := time.Now().Add(5 * time.Second)
	for {
		wp := httptest.NewRecorder()
		router.ServeHTTP(wp, httptest.NewRequest(http.MethodGet, "/api/v1/batch/"+created.ID, nil))
		require.Equal(t, http.StatusOK, wp.Code)
		require.NoError(t, json.Unmarshal(wp.Body.Bytes(), &status))
		if status.Status != "processing" || time.Now().After(deadline) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, 1, status.Completed)
	require.Len(t, status.Results, 1)
	assert.NotEmpty(t, status.Results[0].Sections)
}

func TestBatch_NotFound(t *testing.T) {
	router := newTestRouter(testConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/batch/batch-missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
