package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/matchdigest/internal/domain/enrich"
	"github.com/okian/matchdigest/pkg/logger"
	"github.com/okian/matchdigest/pkg/metrics"
)

// ErrShutdownTimeout is returned when the reporter did not drain in time.
var ErrShutdownTimeout = errors.New("progress reporter shutdown timed out")

// Source delivers events to the reporter.
type Source interface {
	Events() <-chan Event
}

// Summary counts what the reporter has seen.
type Summary struct {
	Completed    int
	Retries      int
	Failed       int
	Placeholders int
}

// Reporter consumes a Source, logging each event and recording metrics.
type Reporter struct {
	source   Source
	pipeline string
	logger   logger.Logger

	mu      sync.Mutex
	summary Summary

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewReporter creates a reporter over source.
func NewReporter(source Source, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		source:   source,
		pipeline: "pipeline",
		logger:   logger.Discard(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	r.logger = r.logger.Named("progress")
	return r
}

// Run handles events until the source is closed or Shutdown gives up
// waiting. It ignores ctx cancellation so the final events of an aborted
// run are still reported.
func (r *Reporter) Run(ctx context.Context) {
	defer close(r.done)

	events := r.source.Events()
	for {
		select {
		case <-r.stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.handle(context.WithoutCancel(ctx), ev)
		}
	}
}

// Shutdown waits for Run to drain the source, which the caller must have
// closed. When ctx expires first the reporter stops without draining.
func (r *Reporter) Shutdown(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.stopOnce.Do(func() { close(r.stop) })
		<-r.done
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

// Summary returns the counts observed so far.
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

func (r *Reporter) handle(ctx context.Context, ev Event) {
	fields := []logger.Field{
		logger.String("unit", ev.Unit),
		logger.Int("index", ev.Index+1),
		logger.Int("total", ev.Total),
	}

	switch ev.Kind {
	case enrich.EventStarted:
		r.logger.Debug(ctx, "unit started", fields...)

	case enrich.EventRetry:
		r.count(func(s *Summary) { s.Retries++ })
		metrics.RecordEnrichCall(r.pipeline, metrics.OutcomeRetry)
		r.logger.Warn(ctx, "retrying unit",
			append(fields, logger.Int("attempt", ev.Attempt), logger.Error(ev.Err))...)

	case enrich.EventCompleted:
		r.count(func(s *Summary) { s.Completed++ })
		metrics.RecordEnrichCall(r.pipeline, metrics.OutcomeSuccess)
		metrics.RecordEnrichLatency(r.pipeline, float64(ev.Elapsed.Milliseconds()))
		metrics.RecordPacingWait(r.pipeline, float64(ev.Paced.Milliseconds()))
		r.logger.Info(ctx, "unit completed",
			append(fields, logger.Int("attempts", ev.Attempt), logger.Duration("elapsed", ev.Elapsed))...)

	case enrich.EventFailed:
		r.count(func(s *Summary) {
			s.Failed++
			if ev.Placeholder {
				s.Placeholders++
			}
		})
		metrics.RecordEnrichCall(r.pipeline, metrics.OutcomeFailure)
		metrics.RecordUnitFailure(r.pipeline)
		fields = append(fields, logger.Int("attempts", ev.Attempt), logger.Error(ev.Err))
		if ev.Placeholder {
			metrics.RecordEnrichCall(r.pipeline, metrics.OutcomePlaceholder)
			r.logger.Warn(ctx, "unit failed, placeholder used", fields...)
			return
		}
		r.logger.Error(ctx, "unit failed", fields...)
	}
}

func (r *Reporter) count(f func(*Summary)) {
	r.mu.Lock()
	f(&r.summary)
	r.mu.Unlock()
}
