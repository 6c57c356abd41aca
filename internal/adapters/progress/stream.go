// Package progress carries enrichment progress events off the run loop to a
// reporter that logs them and records metrics.
//
// Publishing never blocks the run: when the buffer is full the event is
// dropped and counted.
package progress

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/matchdigest/internal/domain/enrich"
	"github.com/okian/matchdigest/pkg/metrics"
)

// Default stream configuration constants.
const (
	defaultBufferSize = 256
)

// Event is the payload carried by the stream.
type Event = enrich.Event

// Stream is a bounded, non-blocking event channel. It implements
// enrich.Observer.
type Stream struct {
	events     chan Event
	bufferSize int
	dropped    atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewStream creates a stream with configuration options.
func NewStream(opts ...StreamOption) *Stream {
	s := &Stream{
		bufferSize: defaultBufferSize,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	s.events = make(chan Event, s.bufferSize)
	metrics.UpdateProgressQueueSize(0)

	return s
}

// Observe publishes ev without blocking.
func (s *Stream) Observe(_ context.Context, ev Event) {
	if !s.Publish(ev) {
		s.dropped.Add(1)
		metrics.RecordProgressDropped()
	}
}

// Publish reports whether ev was accepted. It fails once the stream is
// closed or while the buffer is full.
func (s *Stream) Publish(ev Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.events <- ev:
		metrics.UpdateProgressQueueSize(len(s.events))
		return true
	default:
		return false
	}
}

// Events returns the receive side. It is closed by Close.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Len returns the number of buffered events.
func (s *Stream) Len() int {
	return len(s.events)
}

// Dropped returns how many events were discarded.
func (s *Stream) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting events. Buffered events stay readable.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil // already closed
	}
	close(s.events)
	s.closed = true
	return nil
}

// IsClosed returns true if the stream has been closed.
func (s *Stream) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
