package exec

import "fmt"

// ErrorKind classifies an execution failure.
type ErrorKind int

// Error kinds.
const (
	ErrorNetwork  ErrorKind = iota // DNS or connection failure
	ErrorTimeout                   // transport-level timeout outside the token
	ErrorAborted                   // cancelled or timed out mid-stream
	ErrorHTTP                      // non-2xx status
	ErrorTooLarge                  // body exceeded MaxBodyBytes
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNetwork:
		return "network"
	case ErrorTimeout:
		return "timeout"
	case ErrorAborted:
		return "aborted"
	case ErrorHTTP:
		return "http"
	case ErrorTooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

// Error describes a failed execution.
type Error struct {
	Kind       ErrorKind
	Message    string // for ErrorHTTP, the response body verbatim
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == ErrorHTTP:
		return fmt.Sprintf("endpoint returned HTTP %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the request might help.
func (e *Error) Retryable() bool {
	return e.Kind == ErrorNetwork || e.Kind == ErrorTimeout
}

// QueryRejected reports a 4xx response: the query itself is at fault.
func (e *Error) QueryRejected() bool {
	return e.Kind == ErrorHTTP && e.StatusCode >= 400 && e.StatusCode < 500
}

// ServerFault reports a 5xx response.
func (e *Error) ServerFault() bool {
	return e.Kind == ErrorHTTP && e.StatusCode >= 500
}
