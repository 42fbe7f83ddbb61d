package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/resilience"
)

// ResilienceConfig selects the policies a Guard applies. Nil fields are
// skipped.
type ResilienceConfig struct {
	Retry       *resilience.RetryConfig
	RateLimiter *resilience.RateLimiterConfig
}

// Guard holds the limiter and retry policy built from a ResilienceConfig.
// A nil *Guard runs calls unprotected.
type Guard struct {
	limiter *resilience.RateLimiter
	retry   *resilience.RetryConfig
}

// NewGuard builds the policies in cfg. It returns nil when cfg is empty.
func NewGuard(cfg ResilienceConfig) *Guard {
	if cfg.Retry == nil && cfg.RateLimiter == nil {
		return nil
	}
	g := &Guard{}
	if cfg.Retry != nil {
		r := cfg.Retry.WithDefaults()
		g.retry = &r
	}
	if cfg.RateLimiter != nil {
		g.limiter = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	return g
}

// Guarded waits for a limiter token, then runs fn under the retry policy.
// When retries run out the last error from fn is returned as is.
func Guarded[T any](ctx context.Context, g *Guard, fn func() (T, error)) (T, error) {
	if g == nil {
		return fn()
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			var zero T
			return zero, limiterError(err)
		}
	}
	if g.retry == nil {
		return fn()
	}
	return resilience.Retry(ctx, *g.retry, fn)
}

func limiterError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("waiting for rate limiter").WithCause(err)
	}
	return apperrors.RateLimited().WithCause(err)
}
