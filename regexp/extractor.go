// Package regexp provides a regular-expression based implementation of
// readinglist.Extractor. It operates on raw markup as text: no DOM is
// built and no JavaScript is executed.
package regexp

import (
	"regexp"
	"strings"

	"github.com/fwojciec/readinglist"
)

// Ensure Extractor implements readinglist.Extractor at compile time.
var _ readinglist.Extractor = (*Extractor)(nil)

var (
	// Script and style blocks are matched non-greedily so adjacent
	// blocks do not bleed into each other.
	scriptRe = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
)

// entities is the fixed minimal set decoded after tag stripping,
// applied in order. Unrecognized entities are left verbatim.
var entities = [...][2]string{
	{"&nbsp;", " "},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&amp;", "&"},
	{"&quot;", `"`},
	{"&#39;", "'"},
}

// Extractor reduces raw HTML markup to normalized plain text.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reduces markup to plain text. Each step operates on the
// output of the previous one: script and style blocks are removed with
// their contents, remaining tags are replaced by a single space to
// preserve word boundaries, the minimal entity set is decoded, and
// whitespace is normalized line by line. Extract never fails; empty or
// garbage input yields an empty string.
func (e *Extractor) Extract(markup string) string {
	text := scriptRe.ReplaceAllString(markup, "")
	text = styleRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, " ")

	for _, ent := range entities {
		text = strings.ReplaceAll(text, ent[0], ent[1])
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
