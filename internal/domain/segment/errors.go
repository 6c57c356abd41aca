package segment

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidWindow   = errors.New("invalid window")
)

// InvalidDurationError reports a total duration that cannot be planned.
type InvalidDurationError struct {
	Seconds float64
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("%s: %v seconds", ErrInvalidDuration, e.Seconds)
}

func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }
