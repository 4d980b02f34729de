// Command sectify-mcp exposes the Sectify HTTP API as MCP tools over
// stdio, so agent runtimes can pull structured page sections directly.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the Sectify API request model.
type scrapeRequest struct {
	URL             string `json:"url"`
	Selector        string `json:"selector,omitempty"`
	IncludeMarkdown bool   `json:"include_markdown,omitempty"`
}

// scrapeResponse mirrors the Sectify API response model.
type scrapeResponse struct {
	Result *struct {
		URL  string `json:"url"`
		Meta struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Language    string `json:"language"`
		} `json:"meta"`
		Sections []struct {
			ID       string   `json:"id"`
			Type     string   `json:"type"`
			Label    string   `json:"label"`
			Text     string   `json:"text"`
			Headings []string `json:"headings"`
			Markdown string   `json:"markdown"`
		} `json:"sections"`
		Errors []struct {
			Stage   string `json:"stage"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"result"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// batchResponse mirrors the Sectify batch API response.
type batchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// batchStatusResponse mirrors the Sectify batch status API response.
type batchStatusResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Results   []json.RawMessage `json:"results"`
}

func main() {
	apiURL := os.Getenv("SECTIFY_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SECTIFY_API_KEY")

	s := server.NewMCPServer(
		"sectify",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeSectionsTool := mcp.NewTool("scrape_sections",
		mcp.WithDescription("Scrape a web page and return its content split into typed sections (nav, hero, faq, pricing, ...) with text, headings, links, lists and tables. Falls back to a headless browser for JavaScript-heavy pages."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithString("selector",
			mcp.Description("Optional CSS selector to narrow extraction to matching elements"),
		),
		mcp.WithBoolean("include_markdown",
			mcp.Description("Include a Markdown rendering of each section"),
		),
	)
	s.AddTool(scrapeSectionsTool, handleScrapeSections(apiURL, apiKey))

	batchScrapeTool := mcp.NewTool("batch_scrape",
		mcp.WithDescription("Scrape multiple URLs in parallel and return the extracted sections of each. Useful for gathering content from many pages at once."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of URLs to scrape"),
		),
		mcp.WithString("selector",
			mcp.Description("Optional CSS selector applied to every page"),
		),
	)
	s.AddTool(batchScrapeTool, handleBatchScrape(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Sectify API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJobCompletion polls a job endpoint until status is no longer "processing" or context is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}
			if apiKey != "" {
				req.Header.Set("X-API-Key", apiKey)
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}

			if status.Status != "processing" {
				return body, nil
			}
		}
	}
}

func handleScrapeSections(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := scrapeRequest{
			URL:             url,
			Selector:        request.GetString("selector", ""),
			IncludeMarkdown: request.GetBool("include_markdown", false),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var scrapeResp scrapeResponse
		if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if scrapeResp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", scrapeResp.Error.Code, scrapeResp.Error.Message)), nil
		}
		if scrapeResp.Result == nil {
			return mcp.NewToolResultError("scrape returned no result"), nil
		}

		return mcp.NewToolResultText(formatResult(&scrapeResp)), nil
	}
}

func handleBatchScrape(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		payload := map[string]interface{}{
			"urls": urls,
			"options": map[string]interface{}{
				"selector": request.GetString("selector", ""),
			},
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/batch/scrape", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}

		var batchResp batchResponse
		if err := json.Unmarshal(respBody, &batchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch response: %v", err)), nil
		}

		if batchResp.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		resultBody, err := pollJobCompletion(ctx, client, apiURL, apiKey, "/api/v1/batch/"+batchResp.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}

		var statusResp batchStatusResponse
		if err := json.Unmarshal(resultBody, &statusResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch status: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Batch %s: %s (%d/%d completed)\n\n", statusResp.ID, statusResp.Status, statusResp.Completed, statusResp.Total))

		for i, raw := range statusResp.Results {
			var result scrapeResponse
			wrapped := json.RawMessage(`{"result":` + string(raw) + `}`)
			if err := json.Unmarshal(wrapped, &result); err != nil || result.Result == nil {
				sb.WriteString(fmt.Sprintf("--- [%d] parse error ---\n\n", i+1))
				continue
			}
			sb.WriteString(fmt.Sprintf("--- [%d] %s ---\n%s\n", i+1, result.Result.URL, formatResult(&result)))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

// formatResult renders a scrape result as readable text: a metadata
// header, then each section's label, type and content.
func formatResult(resp *scrapeResponse) string {
	r := resp.Result

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title: %s\nSource: %s\n\n", r.Meta.Title, r.URL))

	for _, sec := range r.Sections {
		sb.WriteString(fmt.Sprintf("## [%s] %s\n", sec.Type, sec.Label))
		if sec.Markdown != "" {
			sb.WriteString(sec.Markdown)
		} else {
			sb.WriteString(sec.Text)
		}
		sb.WriteString("\n\n")
	}

	if len(r.Errors) > 0 {
		sb.WriteString("---\nIssues:\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", e.Stage, e.Message))
		}
	}

	return sb.String()
}
