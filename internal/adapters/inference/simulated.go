package inference

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/matchdigest/internal/domain/model"
)

// Default simulation constants.
const (
	defaultMinLatency = 80 * time.Millisecond
	defaultMaxLatency = 150 * time.Millisecond
	defaultRandomSeed = 42
)

// FaultFunc decides whether call number n (1-based) with the given input
// fails. input is the user prompt for narration and the clip path for
// transcription.
type FaultFunc func(n int, input string) error

// SimulatedOption applies a configuration option to the Simulated backend.
type SimulatedOption func(*Simulated)

// WithLatencyRange sets the simulated latency range. A zero range disables
// the delay.
func WithLatencyRange(minLatency, maxLatency time.Duration) SimulatedOption {
	return func(s *Simulated) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithSeed fixes the latency sequence.
func WithSeed(seed int64) SimulatedOption {
	return func(s *Simulated) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic latency for reproducible runs
	}
}

// WithFaults injects failures.
func WithFaults(f FaultFunc) SimulatedOption {
	return func(s *Simulated) {
		s.faults = f
	}
}

// Simulated implements Backend without a network. Its text is derived from
// the input so runs are reproducible.
type Simulated struct {
	minLatency time.Duration
	maxLatency time.Duration
	faults     FaultFunc

	mu    sync.Mutex
	rng   *rand.Rand
	calls int
}

// NewSimulated creates a simulated backend.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Calls returns how many requests the backend has served, failed ones included.
func (s *Simulated) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Narrate returns a one-line account of the events.
func (s *Simulated) Narrate(ctx context.Context, events []model.EventDetail) (string, error) {
	prompt, err := UserPrompt(events)
	if err != nil {
		return "", err
	}
	if err := s.begin(ctx, prompt); err != nil {
		return "", err
	}

	if len(events) == 0 {
		return "Nothing happens.", nil
	}
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = fmt.Sprintf("%v plays a %v", e.PlayerName, e.Action)
	}
	return strings.Join(parts, ", then ") + ".", nil
}

// Transcribe returns a placeholder transcript naming the clip.
func (s *Simulated) Transcribe(ctx context.Context, path string) (string, error) {
	if err := s.begin(ctx, path); err != nil {
		return "", err
	}
	return "Simulated transcript of " + filepath.Base(path) + ".", nil
}

// begin counts the call, applies faults and waits out the latency.
func (s *Simulated) begin(ctx context.Context, input string) error {
	s.mu.Lock()
	s.calls++
	n := s.calls
	latency := s.minLatency
	if spread := s.maxLatency - s.minLatency; spread > 0 {
		latency += time.Duration(s.rng.Int63n(int64(spread)))
	}
	s.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	if s.faults != nil {
		return s.faults(n, input)
	}
	return nil
}
