package reactive

import (
	"errors"
	"fmt"
)

// ErrTornDown is returned when a torn-down watcher is asked to evaluate.
var ErrTornDown = errors.New("reactive: watcher torn down")

// ObservationError reports a value that cannot be made reactive. The value
// is still usable; it is just not tracked.
type ObservationError struct {
	// Type is the Go type of the value.
	Type string

	// Reason says why the value was not intercepted.
	Reason string
}

func (e *ObservationError) Error() string {
	return fmt.Sprintf("reactive: cannot observe %s: %s", e.Type, e.Reason)
}

// CycleError reports a watcher that kept invalidating itself, directly or
// through other watchers, within a single flush. The watcher is dropped for
// the rest of that flush.
type CycleError struct {
	Watcher string
	ID      uint64
	Limit   int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("reactive: watcher %s (#%d) exceeded %d updates in one flush; possible infinite update loop",
		e.Watcher, e.ID, e.Limit)
}

// ProcedureError wraps a failure of a watcher's getter or callback.
type ProcedureError struct {
	Watcher string

	// Panicked is set when the failure was a recovered panic.
	Panicked bool

	Cause error
}

func (e *ProcedureError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("reactive: watcher %s panicked: %v", e.Watcher, e.Cause)
	}
	return fmt.Sprintf("reactive: watcher %s failed: %v", e.Watcher, e.Cause)
}

func (e *ProcedureError) Unwrap() error {
	return e.Cause
}

// procedureError turns a getter failure into a *ProcedureError, keeping an
// existing one so nested watchers do not stack wrappers.
func procedureError(label string, err error, panicked bool) error {
	var pe *ProcedureError
	if !panicked && errors.As(err, &pe) {
		return err
	}
	return &ProcedureError{Watcher: label, Panicked: panicked, Cause: err}
}

// recoverError converts a recovered panic value into an error.
func recoverError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
