package mock

import (
	"context"

	"github.com/fwojciec/readinglist"
)

var _ readinglist.Summarizer = (*Summarizer)(nil)

type Summarizer struct {
	SummarizeFn func(ctx context.Context, text string) (*readinglist.SummarizeResult, error)
}

func (m *Summarizer) Summarize(ctx context.Context, text string) (*readinglist.SummarizeResult, error) {
	return m.SummarizeFn(ctx, text)
}
