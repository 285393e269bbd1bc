package exec

import "time"

// State is a step of the execution state machine.
type State int

// Execution states.
const (
	StateIdle State = iota
	StateSent
	StateStreaming
	StateSuccess
	StateCancelled
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSent:
		return "sent"
	case StateStreaming:
		return "streaming"
	case StateSuccess:
		return "success"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// OutcomeKind tags an Outcome.
type OutcomeKind int

// Outcome kinds.
const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeCancelled
	OutcomeFailed
)

// String returns the string representation of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one execution. Exactly one of the success fields
// or Err is meaningful, depending on Kind.
type Outcome struct {
	Kind        OutcomeKind
	Body        []byte
	ContentType string
	StatusCode  int
	BytesRead   int64
	Elapsed     time.Duration

	// TimedOut is set on Cancelled and Aborted outcomes caused by the deadline.
	TimedOut bool

	Err *Error
}

// Failure returns the failure as an error value, or nil.
func (o Outcome) Failure() error {
	if o.Err == nil {
		return nil
	}
	return o.Err
}

// Succeeded reports whether the outcome is a success.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}
