// Package ratelimit spaces out requests to a single origin.
package ratelimit

import (
	"context"
	"time"
)

// DefaultDelay is the pause between article fetches against one source.
const DefaultDelay = 60 * time.Second

// Limiter enforces a fixed delay between successive Wait calls. The first
// call returns immediately. Not safe for concurrent use; the pipeline holds
// one limiter per source and calls it from a single goroutine.
type Limiter struct {
	delay time.Duration
	last  time.Time
	now   func() time.Time
}

// New creates a Limiter with the given delay. Non-positive delays disable
// waiting.
func New(delay time.Duration) *Limiter {
	return &Limiter{delay: delay, now: time.Now}
}

// Wait blocks until the delay since the previous call has elapsed, or until
// ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.delay <= 0 {
		return ctx.Err()
	}

	if !l.last.IsZero() {
		remaining := l.delay - l.now().Sub(l.last)
		if remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.last = l.now()
	return nil
}
