// Package resilience provides the retry and pacing primitives used by the
// provider adapters.
//
// Retry runs an operation with bounded exponential backoff and stops early
// on errors its RetryIf predicate rejects, returning the last underlying
// error when attempts run out. RateLimiter is a token bucket; Every builds
// one that admits a single call per interval, which is how the configured
// rate-limit delay between provider calls is enforced.
//
//	text, err := resilience.Retry(ctx, cfg, func() (string, error) {
//	    return client.Transcribe(ctx, req)
//	})
package resilience
