package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle is a token-bucket gate used to cap the volume of progress events
// emitted during large runs. Zero or negative rates disable throttling.
type Throttle struct {
	inner *rate.Limiter
}

// NewThrottle creates a throttle admitting perSecond events with the given
// burst. A perSecond <= 0 yields an unlimited throttle.
func NewThrottle(perSecond float64, burst int) *Throttle {
	if perSecond <= 0 {
		return &Throttle{inner: rate.NewLimiter(rate.Inf, 1)}
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttle{inner: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow reports whether one event may pass right now.
func (t *Throttle) Allow() bool {
	return t.inner.AllowN(time.Now(), 1)
}

// Wait blocks until one event may pass or the context is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.inner.WaitN(ctx, 1)
}
