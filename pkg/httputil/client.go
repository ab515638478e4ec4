package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vup-linux/vuru/pkg/cache"
	"github.com/vup-linux/vuru/pkg/observability"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a requested resource doesn't exist (HTTP 404).
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for
// repository requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// Client provides shared HTTP functionality for the index and template
// fetchers. It handles caching, retry logic, and common request headers.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	headers map[string]string
}

// NewClient creates a Client backed by the given cache. Cached responses
// expire after ttl. Headers are applied to all requests; pass nil if no
// default headers are needed.
func NewClient(c cache.Cache, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    NewHTTPClient(),
		cache:   c,
		ttl:     ttl,
		headers: headers,
	}
}

// Cached retrieves a JSON value from cache or executes fetch and caches the
// result. If refresh is true, the cache is bypassed and fetch is always
// called. The fetch function should populate v; on success, v is stored.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		if data, hit, _ := c.cache.Get(ctx, key); hit {
			if err := json.Unmarshal(data, v); err == nil {
				observability.CacheHooks().OnHit(ctx, key)
				return nil
			}
		}
		observability.CacheHooks().OnMiss(ctx, key)
	}
	if err := RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
		observability.CacheHooks().OnSet(ctx, key, len(data))
	}
	return nil
}

// CachedText retrieves a plain-text document from cache or fetches it.
func (c *Client) CachedText(ctx context.Context, key string, refresh bool, fetch func() (string, error)) (string, error) {
	if !refresh {
		if data, hit, _ := c.cache.Get(ctx, key); hit {
			observability.CacheHooks().OnHit(ctx, key)
			return string(data), nil
		}
		observability.CacheHooks().OnMiss(ctx, key)
	}

	var text string
	err := RetryWithBackoff(ctx, func() error {
		var ferr error
		text, ferr = fetch()
		return ferr
	})
	if err != nil {
		return "", err
	}

	_ = c.cache.Set(ctx, key, []byte(text), c.ttl)
	observability.CacheHooks().OnSet(ctx, key, len(text))
	return text, nil
}

// GetJSON performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.doRequest(ctx, url, nil)
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

// GetText performs an HTTP GET request and returns the response body as a
// string. Useful for non-JSON endpoints like raw template files.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.doRequest(ctx, url, nil)
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	return string(data), err
}

// ConditionalResult is the outcome of a conditional GET.
type ConditionalResult struct {
	Body        []byte
	ETag        string
	NotModified bool
}

// GetConditional performs an HTTP GET with an If-None-Match header.
// A 304 response yields NotModified=true with no body; a 200 response
// yields the body and the new ETag (if the server sent one).
func (c *Client) GetConditional(ctx context.Context, url, etag string) (*ConditionalResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTPHooks().OnError(ctx, http.MethodGet, url, err)
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	observability.HTTPHooks().OnResponse(ctx, http.MethodGet, url, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNotModified {
		return &ConditionalResult{ETag: etag, NotModified: true}, nil
	}
	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	return &ConditionalResult{Body: body, ETag: resp.Header.Get("ETag")}, nil
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTPHooks().OnError(ctx, http.MethodGet, url, err)
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	observability.HTTPHooks().OnResponse(ctx, http.MethodGet, url, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500 || code == http.StatusTooManyRequests:
		return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
