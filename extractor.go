package readinglist

// Extractor reduces raw HTML markup to normalized plain text.
type Extractor interface {
	// Extract is a deterministic, total function: it never fails and
	// returns an empty string for empty or garbage input. It imposes
	// no length limit; callers truncate the result before storing it.
	Extract(markup string) string
}
