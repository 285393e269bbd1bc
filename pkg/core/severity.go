package core

import "strings"

// Severity indicates the importance of a capability diagnostic.
//
// Diagnostics are advisory only, so there is no error level: a finding never
// prevents a query from being executed.
type Severity int

// Severity levels for diagnostics.
const (
	// SeverityWarning indicates the endpoint will probably reject or mis-handle the query.
	SeverityWarning Severity = iota
	// SeverityInfo indicates informational feedback with a high false-positive rate.
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity value.
// "error" is clamped to SeverityWarning and "hint" to SeverityInfo.
// Returns SeverityWarning and false if the string is not recognized.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warning", "warn", "error":
		return SeverityWarning, true
	case "info", "hint":
		return SeverityInfo, true
	default:
		return SeverityWarning, false
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name. Unknown names decode as warning.
func (s *Severity) UnmarshalText(text []byte) error {
	*s, _ = ParseSeverity(string(text))
	return nil
}

// Span is a half-open character offset range [Start, End) into query text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Text returns the slice of query covered by the span, clamped to its bounds.
func (s Span) Text(query string) string {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(query) {
		end = len(query)
	}
	if start >= end {
		return ""
	}
	return query[start:end]
}
