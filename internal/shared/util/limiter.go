package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface. The batch
// reader uses one to keep watched-file churn from saturating disk I/O.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a new token bucket limiter.
// r: tokens per second.
// b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow reports whether one event may happen now.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.inner.AllowN(time.Now(), 1)
}

// Wait blocks until a token is available. A nil limiter never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.inner.WaitN(ctx, 1)
}
