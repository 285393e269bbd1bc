package lint

import (
	"regexp"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

// Query is the text a rule inspects, pre-masked once per validation.
// All three views have identical length, so offsets are interchangeable.
type Query struct {
	// Text is the query as the user wrote it.
	Text string
	// Code has comments and string literals blanked; IRI references remain.
	Code string
	// Bare additionally blanks IRI references.
	Bare string
}

// NewQuery prepares query text for rule checks.
func NewQuery(text string) *Query {
	return &Query{
		Text: text,
		Code: core.Mask(text, core.MaskOptions{Comments: true, Strings: true}),
		Bare: core.MaskAll(text),
	}
}

// FindKeywords returns the spans of standalone keyword matches of re in the
// bare view. When re has a capture group, the span covers group 1 and the
// keyword boundary check applies to it; otherwise it covers the whole match.
func (q *Query) FindKeywords(re *regexp.Regexp) []core.Span {
	var spans []core.Span
	for _, m := range re.FindAllStringSubmatchIndex(q.Bare, -1) {
		start, end := m[0], m[1]
		if len(m) >= 4 && m[2] >= 0 {
			start, end = m[2], m[3]
		}
		if core.IsKeywordAt(q.Bare, start, end) {
			spans = append(spans, core.Span{Start: start, End: end})
		}
	}
	return spans
}

// FirstKeyword returns the first span FindKeywords would report.
func (q *Query) FirstKeyword(re *regexp.Regexp) (core.Span, bool) {
	spans := q.FindKeywords(re)
	if len(spans) == 0 {
		return core.Span{}, false
	}
	return spans[0], true
}

// HasKeyword reports whether re matches a standalone keyword.
func (q *Query) HasKeyword(re *regexp.Regexp) bool {
	_, ok := q.FirstKeyword(re)
	return ok
}
