// Package atlassian provides the REST client shared by the Confluence
// and Jira connectors: basic auth with an API token, JSON decoding and
// client-side rate limiting with 429 backoff.
package atlassian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond keeps well below Atlassian Cloud limits.
	DefaultRequestsPerSecond = 5.0

	// DefaultBurstSize is the token bucket burst size.
	DefaultBurstSize = 10

	defaultBackoff = 60 * time.Second
)

// APIError is a non-2xx response from an Atlassian API.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("atlassian: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound reports whether the error is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether the error is a 401 or 403 response.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// Client is a rate-limited Atlassian Cloud REST client.
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
}

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL, username, apiToken string) (*Client, error) {
	trimmed := strings.TrimRight(baseURL, "/")
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("atlassian: invalid base url %q", baseURL)
	}
	return &Client{
		baseURL:    trimmed,
		username:   username,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurstSize),
	}, nil
}

// BaseURL returns the configured instance URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// GetJSON performs a rate-limited GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("atlassian: decode response: %w", err)
	}
	return nil
}

// GetRaw performs a rate-limited GET and returns the raw response bytes.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (io.ReadCloser, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("atlassian: build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("atlassian: request %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.recordBackoff(resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(message)),
			URL:        endpoint,
		}
	}
	return resp.Body, nil
}

// wait blocks for the token bucket and any active 429 backoff.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	retryAt := c.retryAt
	c.mu.Unlock()

	if until := time.Until(retryAt); until > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(until):
		}
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) recordBackoff(retryAfter string) {
	backoff := defaultBackoff
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		backoff = time.Duration(seconds) * time.Second
	}
	c.mu.Lock()
	c.retryAt = time.Now().Add(backoff)
	c.mu.Unlock()
}
