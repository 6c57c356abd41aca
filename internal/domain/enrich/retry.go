package enrich

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BackoffKind selects the delay curve between attempts.
type BackoffKind string

// Supported backoff kinds.
const (
	BackoffConstant    BackoffKind = "constant"
	BackoffExponential BackoffKind = "exponential"
)

// Default retry configuration constants.
const (
	defaultAttempts = 3
	defaultInitial  = 2 * time.Second
	defaultMax      = 30 * time.Second
)

// RetryPolicy bounds how often and how patiently a unit is retried.
type RetryPolicy struct {
	Attempts int // total attempts per unit, first call included
	Backoff  BackoffKind
	Initial  time.Duration
	Max      time.Duration
}

// DefaultRetryPolicy retries three times with a fixed 2s delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: defaultAttempts,
		Backoff:  BackoffConstant,
		Initial:  defaultInitial,
		Max:      defaultMax,
	}
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// newBackOff returns a fresh delay sequence for one unit.
func (p RetryPolicy) newBackOff() backoff.BackOff {
	initial := p.Initial
	if initial < 0 {
		initial = 0
	}
	switch p.Backoff {
	case BackoffExponential:
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		if p.Max > 0 {
			b.MaxInterval = p.Max
		}
		b.MaxElapsedTime = 0
		b.Reset()
		return b
	default:
		return backoff.NewConstantBackOff(initial)
	}
}
