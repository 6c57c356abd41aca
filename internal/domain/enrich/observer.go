package enrich

import (
	"context"
	"time"
)

// EventKind labels a progress event.
type EventKind string

// Progress event kinds.
const (
	EventStarted   EventKind = "started"
	EventRetry     EventKind = "retry"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event describes progress of one unit.
type Event struct {
	Kind        EventKind
	Index       int // 0-based
	Total       int
	Unit        string
	Attempt     int
	Err         error
	Elapsed     time.Duration // time spent in the unit, pacing included
	Paced       time.Duration // time spent waiting on the pacer
	Placeholder bool          // failed unit replaced by the placeholder text
}

// Observer receives progress events. Implementations must not block.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

type nopObserver struct{}

func (nopObserver) Observe(context.Context, Event) {}
