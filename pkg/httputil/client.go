// Package httputil provides the resilient HTTP fetch client shared by all
// platform integrations: per-attempt timeouts, selective retry with
// exponential backoff, and cache-backed response reuse.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/projmd/projmd/pkg/cache"
	"github.com/projmd/projmd/pkg/observability"
)

// Default request settings, applied by [RequestConfig.WithDefaults].
const (
	DefaultTimeout  = 5 * time.Second
	DefaultRetries  = 2
	DefaultCacheTTL = time.Hour
)

// Sentinel errors for classified HTTP failures.
var (
	// ErrNotFound is returned for 404 responses. Never retried.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited is returned for 403 responses, which on the supported
	// APIs almost always indicate rate limiting. Never retried.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrTimeout is returned when a request exceeds its timeout. A timeout
	// terminates the whole fetch call rather than a single attempt.
	ErrTimeout = errors.New("request timed out")

	// ErrNetwork is returned for transport failures and retryable HTTP
	// statuses once the retry budget is exhausted.
	ErrNetwork = errors.New("network error")
)

// RequestConfig holds per-call resolved request settings.
type RequestConfig struct {
	Timeout     time.Duration     // per-call timeout (enforced per attempt)
	Retries     int               // additional attempts after the first failure
	CacheKey    string            // cache key; empty disables caching for the call
	CacheTTL    time.Duration     // TTL for a cached response
	EnableCache bool              // whether to consult/populate the cache
	Headers     map[string]string // extra request headers
}

// WithDefaults fills unset fields with package defaults. Retries below zero
// are clamped to the default rather than treated as "no retries"; pass 0
// explicitly to disable retrying.
func (c RequestConfig) WithDefaults() RequestConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Retries < 0 {
		c.Retries = DefaultRetries
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	return c
}

// Client fetches JSON documents with caching, timeout cancellation, and
// retry with exponential backoff. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	headers map[string]string
	logf    func(format string, args ...any)
}

// NewClient creates a Client backed by the given cache. Default headers are
// applied to every request; pass nil if none are needed. The logf function
// receives retry and rate-limit warnings; pass nil to discard them.
func NewClient(backend cache.Cache, headers map[string]string, logf func(string, ...any)) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Client{
		// The HTTP client carries no timeout of its own; per-attempt
		// deadlines come from the request context.
		http:    &http.Client{},
		cache:   backend,
		headers: headers,
		logf:    logf,
	}
}

// FetchJSON retrieves url and decodes the response body into v.
//
// If caching is enabled and the key hits, v is populated from the cache and
// no network call is made; the first return value reports whether the data
// came from the cache. Otherwise the request runs under cfg's timeout and
// retry policy, and a successful response body is stored in the cache.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, cfg RequestConfig, v any) (bool, error) {
	cfg = cfg.WithDefaults()

	if cfg.EnableCache && cfg.CacheKey != "" {
		if data, ok, err := c.cache.Get(ctx, cfg.CacheKey); err == nil && ok {
			if err := json.Unmarshal(data, v); err == nil {
				return true, nil
			}
			// Undecodable cache entry: drop it and fall through to the network.
			_ = c.cache.Delete(ctx, cfg.CacheKey)
		}
	}

	var body []byte
	err := Retry(ctx, cfg.Retries, func() error {
		var attemptErr error
		body, attemptErr = c.doAttempt(ctx, rawURL, cfg)
		return attemptErr
	})
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", rawURL, err)
	}

	if cfg.EnableCache && cfg.CacheKey != "" {
		_ = c.cache.Set(ctx, cfg.CacheKey, body, cfg.CacheTTL)
	}
	return false, nil
}

func (c *Client) doAttempt(ctx context.Context, rawURL string, cfg RequestConfig) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}
	for k, val := range cfg.Headers {
		req.Header.Set(k, val)
	}

	host, path := requestTarget(req)
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
		// A fired timeout fails the whole call, not just this attempt.
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %s", ErrTimeout, cfg.Timeout, rawURL)
		}
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()

	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := c.checkStatus(resp, rawURL); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %s", ErrTimeout, cfg.Timeout, rawURL)
		}
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	return body, nil
}

func (c *Client) checkStatus(resp *http.Response, rawURL string) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w (404): %s", ErrNotFound, rawURL)
	case code == http.StatusForbidden:
		c.logf("rate limited (403), reset in ~%ds: %s", rateLimitResetSeconds(resp), rawURL)
		return fmt.Errorf("%w (403): %s", ErrRateLimited, rawURL)
	default:
		return Retryable(fmt.Errorf("%w: status %d: %s", ErrNetwork, code, rawURL))
	}
}

// rateLimitResetSeconds estimates the seconds until the rate limit resets
// from the X-RateLimit-Reset header (unix epoch seconds). Falls back to 60
// when the header is absent or malformed.
func rateLimitResetSeconds(resp *http.Response) int {
	reset := resp.Header.Get("X-RateLimit-Reset")
	if reset == "" {
		return 60
	}
	unix, err := strconv.ParseInt(reset, 10, 64)
	if err != nil {
		return 60
	}
	wait := time.Until(time.Unix(unix, 0))
	if wait < 0 {
		return 0
	}
	return int(wait.Round(time.Second) / time.Second)
}

func requestTarget(req *http.Request) (host, path string) {
	var u *url.URL = req.URL
	return u.Host, u.Path
}
