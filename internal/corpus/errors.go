package corpus

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by store lookups that match nothing.
	ErrNotFound = errors.New("not found")

	// ErrCycleInFlight means a cycle for the company is already
	// running; the caller should skip, not queue.
	ErrCycleInFlight = errors.New("cycle already in flight")
)

// FetchError wraps a failed source fetch. Retryable is false for 4xx
// responses, which repeat deterministically.
type FetchError struct {
	URL       string
	Status    int
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError wraps an extractor failure, keeping the capability
// name for logs.
type ExtractionError struct {
	Capability string
	Err        error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract (%s): %v", e.Capability, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
