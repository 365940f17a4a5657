package backend

import "fmt"

// FailureKind classifies a terminal backend failure so callers can pick
// distinct user-facing wording.
type FailureKind int

const (
	// FailurePermanent is an HTTP 4xx: retrying would not change the outcome.
	FailurePermanent FailureKind = iota
	// FailureServerExhausted means every attempt returned an HTTP 5xx.
	FailureServerExhausted
	// FailureNetworkExhausted means every attempt failed with a connection
	// error or timeout before a response arrived.
	FailureNetworkExhausted
)

func (k FailureKind) String() string {
	switch k {
	case FailurePermanent:
		return "permanent"
	case FailureServerExhausted:
		return "server-exhausted"
	case FailureNetworkExhausted:
		return "network-exhausted"
	}
	return "unknown"
}

// Error is the terminal failure of one logical backend operation.
type Error struct {
	Kind       FailureKind
	StatusCode int
	Attempts   int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case FailurePermanent:
		return fmt.Sprintf("backend rejected request: status %d: %s", e.StatusCode, e.Body)
	case FailureServerExhausted:
		return fmt.Sprintf("backend server error after %d attempts: status %d", e.Attempts, e.StatusCode)
	case FailureNetworkExhausted:
		return fmt.Sprintf("backend unreachable after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("backend request failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure class could succeed on a later
// retry of the whole operation.
func (e *Error) Transient() bool {
	return e.Kind != FailurePermanent
}

// NotFound reports whether the backend answered 404 for the request.
func (e *Error) NotFound() bool {
	return e.Kind == FailurePermanent && e.StatusCode == 404
}
