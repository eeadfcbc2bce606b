package upstream

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

// Governor enforces a minimum spacing between outbound calls to one upstream
// host. It is a minimum-interval limiter, not a token bucket: bursts are never
// admitted, even after a long idle period.
type Governor struct {
	mu          sync.Mutex
	minInterval time.Duration
	next        time.Time // earliest admission slot not yet claimed

	now func() time.Time
}

// NewGovernor creates a Governor with the given minimum interval between
// admitted calls. One Governor instance guards one upstream host.
func NewGovernor(minInterval time.Duration) *Governor {
	return &Governor{
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Throttle blocks until at least the minimum interval has elapsed since the
// previously admitted call. The slot reservation (read, compare, advance) is
// atomic, so N concurrent callers become N calls spaced by minInterval. A
// cancelled context releases the caller; its slot stays burned.
func (g *Governor) Throttle(ctx context.Context) error {
	g.mu.Lock()
	now := g.now()
	slot := g.next
	if slot.Before(now) {
		slot = now
	}
	g.next = slot.Add(g.minInterval)
	g.mu.Unlock()

	if wait := slot.Sub(now); wait > 0 {
		return sleepCtx(ctx, wait)
	}
	return nil
}

// sleepCtx sleeps for d, returning early with the context error if the
// context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Compile-time interface check.
var _ domain.RateGovernor = (*Governor)(nil)
