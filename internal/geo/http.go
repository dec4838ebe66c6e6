package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 5 * time.Second

// ProviderOptions configures an HTTP provider.
type ProviderOptions struct {
	BaseURL   string
	UserAgent string
	// Timeout bounds each request, including the wait for the rate limiter.
	Timeout time.Duration
	// Rate and Burst configure the provider's limiter. Zero Rate selects the
	// provider default.
	Rate   rate.Limit
	Burst  int
	Client *http.Client
}

// httpClient is the shared request path of every provider.
type httpClient struct {
	name      string
	baseURL   string
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
	client    *http.Client
}

func newHTTPClient(name string, opts ProviderOptions, defaultRate rate.Limit, defaultBurst int) *httpClient {
	c := &httpClient{
		name:      name,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		client:    opts.Client,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	limit, burst := opts.Rate, opts.Burst
	if limit == 0 {
		limit = defaultRate
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	c.limiter = rate.NewLimiter(limit, burst)
	return c
}

// getJSON issues a GET to baseURL+path and decodes a 200 response into out.
func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, header http.Header, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", c.name, err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: unexpected status %d: %s", c.name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

// toMinutes converts a duration in seconds to whole minutes, at least 1 for
// any positive duration.
func toMinutes(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	m := int(math.Round(seconds / 60))
	if m < 1 {
		m = 1
	}
	return m
}
