// Package api is a client for the bibliographic analytics REST API: author
// networks, publication search, keyword trends, rising stars and database
// metadata.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/ritzau/aip-explorer/pkg/authorgraph"
	"github.com/ritzau/aip-explorer/pkg/logging"
	"github.com/ritzau/aip-explorer/pkg/metrics"
)

const (
	// DefaultBaseURL is where the analytics backend listens in development.
	DefaultBaseURL = "http://localhost:8000/api/"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the number of requests per second sent to the backend.
	DefaultRateLimit = 10.0

	// DefaultCacheSize is the number of author graphs kept in memory.
	DefaultCacheSize = 128
)

// Client is a rate-limited HTTP client for the analytics API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    *url.URL
	timeout    time.Duration
	cacheSize  int
	cache      *lru.Cache[string, *authorgraph.Snapshot]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit sets the maximum requests per second. Zero or less removes the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithCacheSize sets how many author graph lookups are cached. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(c *Client) {
		c.cacheSize = n
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	// Endpoints are resolved relative to the base, which needs a trailing slash
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    base,
		timeout:    DefaultTimeout,
		cacheSize:  DefaultCacheSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cacheSize > 0 {
		c.cache, err = lru.New[string, *authorgraph.Snapshot](c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating author graph cache: %w", err)
		}
	}

	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// endpointURL resolves an endpoint path and query against the base URL
func (c *Client) endpointURL(endpoint string, query url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: endpoint})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// get performs a GET against endpoint and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	start := time.Now()
	err := c.fetch(ctx, endpoint, query, out)
	duration := time.Since(start)

	metrics.APICallDuration.WithLabelValues(endpoint, outcome(err)).Observe(duration.Seconds())
	if err != nil {
		logging.DebugContext(ctx, "api call failed",
			"endpoint", endpoint, "durationMs", duration.Milliseconds(), "error", err)
		return err
	}
	logging.DebugContext(ctx, "api call",
		"endpoint", endpoint, "durationMs", duration.Milliseconds())
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(endpoint, query), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, endpoint); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrMalformedResponse, endpoint, err)
	}
	return nil
}

func outcome(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &apiErr):
		return "status"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "network"
	}
}
