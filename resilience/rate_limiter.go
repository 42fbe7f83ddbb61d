package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig describes a token bucket: Rate tokens per second, at
// most Burst held at once.
type RateLimiterConfig struct {
	Name  string
	Rate  float64
	Burst int
}

// Every admits one call per interval with no burst. A non-positive
// interval means no limiting and yields nil.
func Every(name string, interval time.Duration) *RateLimiterConfig {
	if interval <= 0 {
		return nil
	}
	return &RateLimiterConfig{Name: name, Rate: float64(time.Second) / float64(interval), Burst: 1}
}

// RateLimiter is a token bucket safe for concurrent use. It starts full.
type RateLimiter struct {
	rate  float64
	burst float64

	mu     sync.Mutex
	tokens float64
	at     time.Time
}

// NewRateLimiter defaults Rate to 10/s and Burst to one second's worth.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.Rate))
	}
	return &RateLimiter{
		rate:   cfg.Rate,
		burst:  float64(cfg.Burst),
		tokens: float64(cfg.Burst),
		at:     time.Now(),
	}
}

// Allow takes a token if one is available right now.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.advance(time.Now())
	if rl.tokens < 1 {
		return false
	}
	rl.tokens--
	return true
}

// Wait takes a token, blocking until it is due or ctx ends. Callers queue
// in arrival order because the bucket may go into debt.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	rl.advance(time.Now())
	rl.tokens--
	debt := -rl.tokens
	rl.mu.Unlock()
	if debt <= 0 {
		return nil
	}
	if !sleep(ctx, time.Duration(debt/rl.rate*float64(time.Second))) {
		return ctx.Err()
	}
	return nil
}

func (rl *RateLimiter) advance(now time.Time) {
	rl.tokens = min(rl.burst, rl.tokens+now.Sub(rl.at).Seconds()*rl.rate)
	rl.at = now
}
