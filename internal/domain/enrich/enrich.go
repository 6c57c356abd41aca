// Package enrich drives the external inference service over an ordered list
// of units, one call at a time, under a pacing and retry policy.
package enrich

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Unit is anything the orchestrator can enrich. UnitKey names the unit in
// progress events and errors.
type Unit interface {
	UnitKey() string
}

// CallFunc turns one unit into text through the external service.
type CallFunc[U Unit] func(ctx context.Context, unit U) (string, error)

// Orchestrator enriches units sequentially. It is not safe for concurrent use.
type Orchestrator[U Unit] struct {
	call CallFunc[U]
	settings
}

// New creates an Orchestrator around call.
func New[U Unit](call CallFunc[U], opts ...Option) *Orchestrator[U] {
	o := &Orchestrator[U]{
		call: call,
		settings: settings{
			pacer:       NoPacing(),
			retry:       DefaultRetryPolicy(),
			observer:    nopObserver{},
			failure:     FailAbort,
			placeholder: DefaultPlaceholder,
			sleep:       Sleep,
			now:         time.Now,
		},
	}

	// Apply all options
	for _, opt := range opts {
		opt(&o.settings)
	}

	return o
}

// Enrich calls the service once per unit, in order, and returns one text per
// unit at the same position.
//
// Under FailAbort the first unit that exhausts its retries stops the run:
// the returned error is a *ServiceFatalError naming that unit, no results are
// returned, and no later unit is called. Cancelling ctx always aborts.
func (o *Orchestrator[U]) Enrich(ctx context.Context, units []U) ([]string, error) {
	out := make([]string, 0, len(units))
	total := len(units)

	for i, unit := range units {
		key := unit.UnitKey()
		start := o.now()
		o.observer.Observe(ctx, Event{Kind: EventStarted, Index: i, Total: total, Unit: key})

		text, attempts, paced, err := o.enrichOne(ctx, i, total, unit)
		elapsed := o.now().Sub(start)

		if err == nil {
			out = append(out, text)
			o.observer.Observe(ctx, Event{
				Kind: EventCompleted, Index: i, Total: total, Unit: key,
				Attempt: attempts, Elapsed: elapsed, Paced: paced,
			})
			continue
		}

		fatal := &ServiceFatalError{Unit: key, Index: i, Total: total, Attempts: attempts, Err: err}
		placeholder := o.failure == FailPlaceholder && ctx.Err() == nil
		o.observer.Observe(ctx, Event{
			Kind: EventFailed, Index: i, Total: total, Unit: key,
			Attempt: attempts, Err: fatal, Elapsed: elapsed, Paced: paced, Placeholder: placeholder,
		})
		if !placeholder {
			return nil, fatal
		}
		out = append(out, o.placeholder)
	}

	return out, nil
}

// enrichOne runs the attempts for a single unit and reports how many were made.
func (o *Orchestrator[U]) enrichOne(ctx context.Context, index, total int, unit U) (text string, attempts int, paced time.Duration, err error) {
	maxAttempts := o.retry.attempts()
	delays := o.retry.newBackOff()

	for attempt := 1; ; attempt++ {
		waitStart := o.now()
		if err := o.pacer.Wait(ctx); err != nil {
			return "", attempt - 1, paced, err
		}
		paced += o.now().Sub(waitStart)

		text, err := o.attempt(ctx, unit)
		if err == nil {
			return text, attempt, paced, nil
		}
		if ctx.Err() != nil {
			return "", attempt, paced, ctx.Err()
		}
		if !retryable(err) || attempt >= maxAttempts {
			return "", attempt, paced, err
		}

		delay := delays.NextBackOff()
		if delay == backoff.Stop {
			return "", attempt, paced, err
		}
		o.observer.Observe(ctx, Event{
			Kind: EventRetry, Index: index, Total: total, Unit: unit.UnitKey(),
			Attempt: attempt, Err: err,
		})
		if err := o.sleep(ctx, delay); err != nil {
			return "", attempt, paced, err
		}
	}
}

func (o *Orchestrator[U]) attempt(ctx context.Context, unit U) (string, error) {
	if o.callTimeout <= 0 {
		return o.call(ctx, unit)
	}
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	return o.call(callCtx, unit)
}
