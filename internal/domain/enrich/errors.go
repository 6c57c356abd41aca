package enrich

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrServiceCall  = errors.New("service call failed")
	ErrServiceFatal = errors.New("service call fatal")
)

// ServiceCallError is returned by inference backends for a failed call.
// Retryable calls are attempted again under the retry policy.
type ServiceCallError struct {
	Op         string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *ServiceCallError) Error() string {
	msg := ErrServiceCall.Error()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status=%d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceCallError) Unwrap() []error { return []error{ErrServiceCall, e.Err} }

// Transient marks err as retryable.
func Transient(op string, err error) error {
	return &ServiceCallError{Op: op, Retryable: true, Err: err}
}

// Permanent marks err as not retryable; the unit fails on first occurrence.
func Permanent(op string, err error) error {
	return &ServiceCallError{Op: op, Retryable: false, Err: err}
}

// ServiceFatalError reports the unit at which a run gave up.
type ServiceFatalError struct {
	Unit     string // e.g. "possession 754" or "clip 3"
	Index    int    // 0-based position in the input
	Total    int
	Attempts int
	Err      error
}

func (e *ServiceFatalError) Error() string {
	return fmt.Sprintf("%s: %s (unit %d of %d) after %d attempt(s): %v",
		ErrServiceFatal, e.Unit, e.Index+1, e.Total, e.Attempts, e.Err)
}

func (e *ServiceFatalError) Unwrap() []error { return []error{ErrServiceFatal, e.Err} }

// retryable reports whether err may succeed on another attempt.
func retryable(err error) bool {
	var callErr *ServiceCallError
	if errors.As(err, &callErr) {
		return callErr.Retryable
	}
	return true
}
