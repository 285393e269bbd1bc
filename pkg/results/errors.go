package results

import "fmt"

// ParseError reports a body that could not be decoded.
type ParseError struct {
	Format string // "json", "xml", "csv", "tsv", "turtle", ...
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	prefix := "parse error"
	if e.Format != "" {
		prefix = e.Format + " parse error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(format, reasonFormat string, args ...any) *ParseError {
	return &ParseError{Format: format, Reason: fmt.Sprintf(reasonFormat, args...)}
}
