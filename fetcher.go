package readinglist

import "context"

// Fetcher retrieves raw HTML from URLs.
type Fetcher interface {
	// Fetch issues a single GET for the URL and returns the raw
	// response body unmodified. The context controls timeout and
	// cancellation. Malformed URLs fail with EINVALID before any
	// network attempt; non-2xx responses fail with EUPSTREAM carrying
	// the response status; timing out fails with ETIMEOUT.
	Fetch(ctx context.Context, url string) (html string, err error)
}
