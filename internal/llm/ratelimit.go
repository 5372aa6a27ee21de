package llm

import (
	"context"
	"time"
)

// limiter is a lightweight token-bucket that throttles to at most rps
// events per second with an optional burst capacity.
type limiter struct {
	tokens chan struct{}
	stopCh chan struct{}
}

// newLimiter creates a limiter allowing up to rps events per second with
// a burst of 'burst'. If rps <= 0 the limiter is disabled and all methods
// on the nil value are no-ops.
func newLimiter(rps float64, burst int) *limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	l := &limiter{
		tokens: make(chan struct{}, burst),
		stopCh: make(chan struct{}),
	}

	// Pre-fill so an initial burst goes through immediately.
	for i := 0; i < burst; i++ {
		l.tokens <- struct{}{}
	}

	// Refill at the configured rate. Fractional rps gives a sub-second
	// period (1.5 rps ~ 666ms).
	period := time.Duration(float64(time.Second) / rps)
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case l.tokens <- struct{}{}:
				default:
					// bucket full; drop token
				}
			case <-l.stopCh:
				return
			}
		}
	}()

	return l
}

// acquire blocks until a token is available or the context is canceled.
func (l *limiter) acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return context.Canceled
	case <-l.tokens:
		return nil
	}
}

// acquireN takes n tokens sequentially, returning early on cancellation.
func (l *limiter) acquireN(ctx context.Context, n int) error {
	if l == nil || n <= 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		if err := l.acquire(ctx); err != nil {
			return err
		}
	}
	return nil
}

// stop terminates the refill goroutine.
func (l *limiter) stop() {
	if l == nil {
		return
	}
	close(l.stopCh)
}
