package metrics

import (
	"errors"
	"fmt"
)

// Sentinel kinds for metrics errors.
var (
	ErrNoTextfilePath = errors.New("metrics textfile path is empty")
	ErrWriteFailed    = errors.New("metrics write failed")
)

// WriteError wraps a failure to dump the registry.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrWriteFailed, e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWriteFailed, e.Err} }
