// Package fetch implements the static half of the capture pipeline: a
// single-shot HTTP fetcher with a Chrome TLS fingerprint, and the decider
// that judges whether the static capture is good enough or a full browser
// render is required.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/use-agent/sectify/config"
	"github.com/use-agent/sectify/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only. Computed once at init time and reused per connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Lock ALPN to http/1.1 so the server never negotiates HTTP/2, which
	// Go's http.Transport cannot frame over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// Fetcher performs the single static GET for a scrape request.
// It is safe for concurrent use.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	maxBody int64
}

// NewFetcher creates a Fetcher with a Chrome-like TLS fingerprint and the
// configured timeout. One failed attempt is final; the fallback decision
// handles the rest.
func NewFetcher(cfg config.FetchConfig) *Fetcher {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: cfg.Timeout}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("fetch: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		timeout: cfg.Timeout,
		maxBody: cfg.MaxBodySize,
	}
}

// Fetch issues one GET with browser-like headers and returns a snapshot.
// The snapshot is always non-nil: failures come back as Status=failed with
// the cause recorded in Issues, never as a bare error.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) *models.PageSnapshot {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return failedSnapshot(targetURL, 0, "building request failed", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := f.client.Do(req)
	if err != nil {
		return failedSnapshot(targetURL, 0, "static fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failedSnapshot(targetURL, resp.StatusCode,
			fmt.Sprintf("static fetch returned HTTP %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return failedSnapshot(targetURL, resp.StatusCode, "reading response body failed", err)
	}

	return &models.PageSnapshot{
		URL:        targetURL,
		HTML:       string(body),
		Status:     models.SnapshotSuccess,
		StatusCode: resp.StatusCode,
	}
}

func failedSnapshot(targetURL string, status int, msg string, err error) *models.PageSnapshot {
	rec := models.NewStageError(models.StageFetch, models.ErrCodeFetch, msg, err).Record()
	return &models.PageSnapshot{
		URL:        targetURL,
		Status:     models.SnapshotFailed,
		StatusCode: status,
		Issues:     []models.ErrorRecord{rec},
	}
}
