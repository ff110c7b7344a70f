package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiter keeps at least interval between the starts of two calls.
// Callers are served in the order they reserve a slot.
type RateLimiter struct {
	interval time.Duration
	lastSent time.Time
	mu       sync.Mutex
	log      *slog.Logger
}

func New(interval time.Duration, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		log:      log,
	}
}

// Wait blocks until the caller may start its call or ctx is done. A nil
// limiter or a non-positive interval never waits.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.interval <= 0 {
		return nil
	}

	rl.mu.Lock()
	now := time.Now()
	delay := getDelay(rl.interval, rl.lastSent, now)
	rl.lastSent = now.Add(delay)
	rl.mu.Unlock()

	if delay <= 0 {
		return nil
	}

	rl.log.DebugContext(ctx, "Rate limiting backend call",
		"delay", delay,
		"interval", rl.interval)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func getDelay(
	interval time.Duration,
	lastSent time.Time,
	now time.Time,
) time.Duration {
	if lastSent.IsZero() {
		return 0
	}

	return max(lastSent.Add(interval).Sub(now), 0)
}
