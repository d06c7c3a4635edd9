package mock

import (
	"context"

	"github.com/fwojciec/readinglist"
)

var _ readinglist.Fetcher = (*Fetcher)(nil)

type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
}

func (m *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return m.FetchFn(ctx, url)
}
