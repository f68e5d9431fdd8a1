// Package fetcher retrieves raw resource bytes over HTTP.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/scipunch/articleviewer/config"
)

// ErrBodyTooLarge is returned when a response exceeds the configured limit
var ErrBodyTooLarge = errors.New("response body too large")

// Fetcher retrieves the payload behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPError holds a non-2xx response
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// HTTPFetcher performs plain GET requests without retries.
// Requests to one host are spaced by the configured interval.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	contentType  string
	maxBodyBytes int64

	intervals map[string]int
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
}

type Option func(*HTTPFetcher)

// WithContentType declares the expected payload type in Accept and Content-Type
func WithContentType(contentType string) Option {
	return func(f *HTTPFetcher) { f.contentType = contentType }
}

// WithHTTPClient replaces the underlying client
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = client }
}

// NewHTTPFetcher creates a fetcher from the network settings
func NewHTTPFetcher(settings config.NetworkConfig, opts ...Option) *HTTPFetcher {
	timeout := time.Duration(settings.TimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	f := &HTTPFetcher{
		client:       &http.Client{Timeout: timeout},
		userAgent:    settings.UserAgent,
		maxBodyBytes: settings.MaxBodyBytes,
		intervals:    settings.PerHostIntervalMillis,
		limiters:     make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the body of the given URL
func (f *HTTPFetcher) Fetch(ctx context.Context, reqURL string) ([]byte, error) {
	parsedURL, err := url.Parse(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse request URL %s: %w", reqURL, err)
	}

	if err := f.limiterFor(parsedURL.Hostname()).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request for %s: %w", reqURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.contentType != "" {
		req.Header.Set("Accept", f.contentType)
		req.Header.Set("Content-Type", f.contentType)
	}

	slog.Debug("fetching", "url", reqURL)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s failed with %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	body := io.Reader(resp.Body)
	if f.maxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBodyBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body of %s: %w", reqURL, err)
	}
	if f.maxBodyBytes > 0 && int64(len(data)) > f.maxBodyBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, reqURL, f.maxBodyBytes)
	}

	slog.Debug("fetched", "url", reqURL, "size", len(data))
	return data, nil
}

// limiterFor returns the limiter of a host, creating it on first use.
// Hosts without a configured interval are not limited.
func (f *HTTPFetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limiter, ok := f.limiters[host]; ok {
		return limiter
	}

	limit := rate.Inf
	if millis, ok := f.intervals[host]; ok && millis > 0 {
		limit = rate.Every(time.Duration(millis) * time.Millisecond)
	}
	limiter := rate.NewLimiter(limit, 1)
	f.limiters[host] = limiter
	return limiter
}

var _ Fetcher = (*HTTPFetcher)(nil)
