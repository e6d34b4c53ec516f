// Package ratelimit throttles outbound order submission with a token
// bucket from golang.org/x/time/rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket sized for order flow. A zero rate blocks every
// Wait call until the limit is raised, so callers should always configure
// a positive rate.
type Limiter struct {
	bucket *rate.Limiter
}

// NewWithBurst builds a limiter refilling at eventsPerSecond with the given
// burst capacity. Burst values below 1 are raised to 1 so a correctly
// configured limiter can always admit a single event.
func NewWithBurst(eventsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(eventsPerSecond), burst)}
}

// NewPerMinute builds a limiter from an events-per-minute budget with a
// burst of one tenth of the budget.
func NewPerMinute(eventsPerMinute int) *Limiter {
	return NewWithBurst(float64(eventsPerMinute)/60.0, eventsPerMinute/10)
}

// Wait blocks until one token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}

// Allow reports whether one event may proceed right now without waiting.
func (l *Limiter) Allow() bool {
	return l.bucket.Allow()
}

// SetRate adjusts the refill rate at runtime.
func (l *Limiter) SetRate(eventsPerSecond float64) {
	l.bucket.SetLimit(rate.Limit(eventsPerSecond))
}

// Tokens reports the tokens currently available.
func (l *Limiter) Tokens() float64 {
	return l.bucket.Tokens()
}
