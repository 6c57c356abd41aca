package enrich

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out calls to the external service. Wait is called before
// every attempt, retries included.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-time Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type noPacing struct{}

func (noPacing) Wait(ctx context.Context) error { return ctx.Err() }

// NoPacing never waits.
func NoPacing() Pacer { return noPacing{} }

// fixedSpacing enforces a minimum interval between consecutive call starts.
type fixedSpacing struct {
	spacing time.Duration
	now     func() time.Time
	sleep   Sleeper
	last    time.Time
}

// FixedSpacing returns a Pacer that keeps at least spacing between calls.
// The first call never waits. A nil now or sleep selects the real clock.
func FixedSpacing(spacing time.Duration, now func() time.Time, sleep Sleeper) Pacer {
	if spacing <= 0 {
		return NoPacing()
	}
	if now == nil {
		now = time.Now
	}
	if sleep == nil {
		sleep = Sleep
	}
	return &fixedSpacing{spacing: spacing, now: now, sleep: sleep}
}

func (p *fixedSpacing) Wait(ctx context.Context) error {
	if !p.last.IsZero() {
		if wait := p.last.Add(p.spacing).Sub(p.now()); wait > 0 {
			if err := p.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.last = p.now()
	return nil
}

type tokenBucket struct {
	limiter *rate.Limiter
}

// TokenBucket allows bursts of up to burst calls and refills one token
// every interval.
func TokenBucket(every time.Duration, burst int) Pacer {
	if every <= 0 {
		return NoPacing()
	}
	if burst < 1 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Every(every), burst)}
}

func (p *tokenBucket) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
