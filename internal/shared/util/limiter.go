package util

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket. A non-positive rate disables limiting.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter allows perSecond events on average with bursts of up to burst.
func NewLimiter(perSecond float64, burst int) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{inner: rate.NewLimiter(limit, burst)}
}

// Wait blocks until an event may happen or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.WaitN(ctx, 1)
}
