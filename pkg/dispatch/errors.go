package dispatch

import "fmt"

// Error is returned when a plan cannot be built from the given input.
type Error struct {
	Field   string // "query" or "endpoint"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
