package mock

import "github.com/fwojciec/readinglist"

var _ readinglist.Extractor = (*Extractor)(nil)

type Extractor struct {
	ExtractFn func(markup string) string
}

func (m *Extractor) Extract(markup string) string {
	return m.ExtractFn(markup)
}
