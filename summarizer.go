package readinglist

import "context"

// SummarizeResult holds the structured output of a summarization call.
type SummarizeResult struct {
	// Summary is at most 500 characters.
	Summary string

	// Topics holds at most 5 short topic tags.
	Topics []string
}

// Summarizer produces a short summary and topic tags for extracted
// page text by calling an external language model.
type Summarizer interface {
	// Summarize sends text to the model and parses a structured
	// result out of its free-text reply. A non-success response from
	// the service fails with EUPSTREAM carrying the response status;
	// an unparseable or absent reply payload fails with EINTERNAL.
	// The returned bounds are enforced by the implementation.
	Summarize(ctx context.Context, text string) (*SummarizeResult, error)
}
