// Package http provides the HTTP edges of the reading-list service:
// a Fetcher for retrieving pages from the network, and the Server
// exposing the service's own API surface.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/readinglist"
)

// DefaultFetchTimeout is the default timeout for page retrieval,
// measured from request start.
const DefaultFetchTimeout = 10 * time.Second

// DefaultUserAgent is the identifying client header sent with every
// page request.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Ensure Fetcher implements readinglist.Fetcher at compile time.
var _ readinglist.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs using plain HTTP requests.
// It operates on raw markup only; JavaScript is never executed.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for page requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with page requests.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{}
	}

	return f
}

// Fetch retrieves the raw HTML content from the given URL with a
// single GET bounded by the fetcher's timeout. No retries are
// performed at this layer.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := readinglist.ValidateURL(rawURL); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", readinglist.Errorf(readinglist.EINVALID, "Invalid URL format")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			// Caller cancellation, not a failure of the item.
			return "", err
		case errors.Is(err, context.DeadlineExceeded):
			return "", readinglist.Errorf(readinglist.ETIMEOUT, "Request timeout - URL took too long to load")
		}
		return "", readinglist.Errorf(readinglist.EUNAVAILABLE, "Failed to fetch URL: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", readinglist.UpstreamErrorf(resp.StatusCode, "Failed to fetch URL: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return "", err
		case errors.Is(err, context.DeadlineExceeded):
			return "", readinglist.Errorf(readinglist.ETIMEOUT, "Request timeout - URL took too long to load")
		}
		return "", readinglist.Errorf(readinglist.EUNAVAILABLE, "Failed to read response body: %s", err)
	}

	return string(body), nil
}
