// Package segment plans a continuous recording into fixed-length clips whose
// starts reclaim a short pre-roll from the previous window.
package segment

import (
	"fmt"
	"math"

	"github.com/okian/matchdigest/internal/domain/model"
)

// Default plan constants.
const (
	DefaultWindowSeconds  = 60.0
	DefaultOverlapSeconds = 1.0

	// MaxClips bounds the number of windows a single plan may hold.
	MaxClips = 1 << 20
)

type planner struct {
	window  float64
	overlap float64
}

// Option configures Plan.
type Option func(*planner)

// WithWindow sets the nominal window length W in seconds.
func WithWindow(seconds float64) Option {
	return func(p *planner) { p.window = seconds }
}

// WithOverlap sets the pre-roll P in seconds.
func WithOverlap(seconds float64) Option {
	return func(p *planner) { p.overlap = seconds }
}

// Plan returns the clip plan covering totalSeconds.
//
// There are floor(total/W)+1 windows, at least one. Window 1 spans [0, W);
// window k>1 spans [(k-1)W-P, kW). The last window may end past total;
// clamping is left to whoever materializes the clip. Durations needing more
// than MaxClips windows are rejected.
func Plan(totalSeconds float64, opts ...Option) ([]model.ClipSpec, error) {
	p := planner{window: DefaultWindowSeconds, overlap: DefaultOverlapSeconds}
	for _, opt := range opts {
		opt(&p)
	}

	if math.IsNaN(totalSeconds) || math.IsInf(totalSeconds, 0) || totalSeconds < 0 {
		return nil, &InvalidDurationError{Seconds: totalSeconds}
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	windows := math.Floor(totalSeconds / p.window)
	if windows >= MaxClips {
		return nil, &InvalidDurationError{Seconds: totalSeconds}
	}
	count := int(windows) + 1
	clips := make([]model.ClipSpec, count)
	clips[0] = model.ClipSpec{Index: 1, StartSeconds: 0, EndSeconds: p.window}
	for k := 2; k <= count; k++ {
		clips[k-1] = model.ClipSpec{
			Index:        k,
			StartSeconds: float64(k-1)*p.window - p.overlap,
			EndSeconds:   float64(k) * p.window,
		}
	}
	return clips, nil
}

func (p planner) validate() error {
	switch {
	case math.IsNaN(p.window) || math.IsInf(p.window, 0) || p.window <= 0:
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidWindow, p.window)
	case math.IsNaN(p.overlap) || p.overlap < 0:
		return fmt.Errorf("%w: overlap must not be negative, got %v", ErrInvalidWindow, p.overlap)
	case p.overlap >= p.window:
		return fmt.Errorf("%w: overlap %v must be shorter than window %v", ErrInvalidWindow, p.overlap, p.window)
	}
	return nil
}
