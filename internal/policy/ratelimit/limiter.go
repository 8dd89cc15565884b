// Package ratelimit implements the process-wide outbound request gate.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/company-registry-scraper/internal/metrics"
)

// Gate enforces a minimum spacing between permitted requests. All callers
// share one timeline regardless of target host; there is no burst.
type Gate struct {
	sem     chan struct{}
	limiter *rate.Limiter
	delay   time.Duration
	last    time.Time
	now     func() time.Time
}

// NewGate builds a Gate with the given spacing. A non-positive delay disables waiting.
func NewGate(delay time.Duration) *Gate {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Gate{
		sem:     make(chan struct{}, 1),
		limiter: rate.NewLimiter(limit, 1),
		delay:   delay,
		now:     time.Now,
	}
}

// Delay reports the configured spacing.
func (g *Gate) Delay() time.Duration {
	return g.delay
}

// Throttle blocks until at least Delay has passed since the previously
// permitted request, records the new permitted time and returns it.
func (g *Gate) Throttle(ctx context.Context) (time.Time, error) {
	start := time.Now()
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return time.Time{}, fmt.Errorf("rate limit wait: %w", ctx.Err())
	}
	defer func() { <-g.sem }()

	if err := g.limiter.Wait(ctx); err != nil {
		return time.Time{}, fmt.Errorf("rate limit wait: %w", err)
	}
	// The limiter paces on its own clock; top up so the recorded timeline
	// never shows two permits closer than delay.
	if !g.last.IsZero() {
		if remaining := g.last.Add(g.delay).Sub(g.now()); remaining > 0 {
			if err := sleep(ctx, remaining); err != nil {
				return time.Time{}, fmt.Errorf("rate limit wait: %w", err)
			}
		}
	}
	g.last = g.now()
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitWait(waited)
	}
	return g.last, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
