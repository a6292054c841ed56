package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"inmo_scrooper/config"
	"inmo_scrooper/logging"
)

// maxBodySize caps a page body; larger pages are rejected, not truncated.
var maxBodySize int64 = 10 * 1024 * 1024

var (
	ErrProxyStatus    = errors.New("proxy returned non-200 status")
	ErrUpstreamStatus = errors.New("upstream returned non-200 status")
	ErrBodyTooLarge   = errors.New("response body too large")
)

// Fetcher returns the raw body of a page. Any error means "no data" to the
// caller; nothing here is fatal.
type Fetcher interface {
	Fetch(ctx context.Context, target string) ([]byte, error)
}

type Clients struct {
	Proxy  *http.Client // talks to the scraping proxy API
	Direct *http.Client // talks to the listing site
}

func NewClients(proxyCfg *config.ProxyConfig, fetchCfg *config.FetchConfig) *Clients {
	return &Clients{
		Proxy:  &http.Client{Timeout: proxyCfg.Timeout},
		Direct: &http.Client{Timeout: fetchCfg.Timeout},
	}
}

// Client fetches through the proxy when one is configured and falls back to a
// direct GET on any proxy failure.
type Client struct {
	clients       *Clients
	proxy         config.ProxyConfig
	directTimeout time.Duration
	limiter       *rate.Limiter
}

// NewClient builds a Client. interval is the minimum spacing between
// requests; zero disables rate limiting.
func NewClient(proxyCfg config.ProxyConfig, fetchCfg config.FetchConfig, interval time.Duration) *Client {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Client{
		clients:       NewClients(&proxyCfg, &fetchCfg),
		proxy:         proxyCfg,
		directTimeout: fetchCfg.Timeout,
		limiter:       rate.NewLimiter(limit, 1),
	}
}

func (c *Client) Fetch(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	if c.proxy.Active() {
		body, err := c.fetchViaProxy(ctx, target)
		if err == nil {
			return body, nil
		}
		logging.Warnf("transport", "Warning: proxy fetch failed, trying direct: %v", err)
	}

	return c.fetchDirect(ctx, target)
}

func (c *Client) fetchViaProxy(ctx context.Context, target string) ([]byte, error) {
	params := url.Values{}
	params.Set("apikey", c.proxy.APIKey)
	params.Set("url", target)

	body, status, err := c.get(ctx, c.clients.Proxy, c.proxy.Endpoint+"?"+params.Encode(), c.proxy.Timeout)
	if err != nil {
		return nil, fmt.Errorf("proxy: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrProxyStatus, status)
	}
	return body, nil
}

func (c *Client) fetchDirect(ctx context.Context, target string) ([]byte, error) {
	body, status, err := c.get(ctx, c.clients.Direct, target, c.directTimeout)
	if err != nil {
		return nil, fmt.Errorf("direct: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: %d for %s", ErrUpstreamStatus, status, target)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, client *http.Client, target string, timeout time.Duration) ([]byte, int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	setBrowserHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBodySize {
		return nil, resp.StatusCode, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, maxBodySize)
	}
	return body, resp.StatusCode, nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-PY,es;q=0.9,en;q=0.8")
}
