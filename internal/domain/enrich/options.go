package enrich

import "time"

// FailurePolicy decides what happens once a unit has exhausted its retries.
type FailurePolicy string

// Supported failure policies.
const (
	// FailAbort stops the run at the failing unit. No results are returned.
	FailAbort FailurePolicy = "abort"
	// FailPlaceholder substitutes the placeholder text and keeps going.
	FailPlaceholder FailurePolicy = "placeholder"
)

// DefaultPlaceholder is emitted for failed units under FailPlaceholder.
const DefaultPlaceholder = "[unavailable]"

type settings struct {
	pacer       Pacer
	retry       RetryPolicy
	observer    Observer
	failure     FailurePolicy
	placeholder string
	callTimeout time.Duration
	sleep       Sleeper
	now         func() time.Time
}

// Option applies a configuration option to the Orchestrator.
type Option func(*settings)

// WithPacer sets the pacing policy. Defaults to NoPacing.
func WithPacer(p Pacer) Option {
	return func(s *settings) {
		if p != nil {
			s.pacer = p
		}
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *settings) {
		s.retry = p
	}
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithFailurePolicy sets the policy and, for FailPlaceholder, the text
// emitted in place of a failed unit.
func WithFailurePolicy(p FailurePolicy, placeholder string) Option {
	return func(s *settings) {
		if p == FailPlaceholder {
			s.failure = FailPlaceholder
			if placeholder != "" {
				s.placeholder = placeholder
			}
			return
		}
		s.failure = FailAbort
	}
}

// WithCallTimeout bounds every single attempt.
func WithCallTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithSleeper replaces the backoff sleeper, mainly for tests.
func WithSleeper(sleep Sleeper) Option {
	return func(s *settings) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithClock replaces the clock used for elapsed-time reporting.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
