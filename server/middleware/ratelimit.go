package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/resilience"
)

// RateLimitConfig bounds how many /v1 calls one client may make. Each
// call can fan out to paid provider requests, so the budget is per client
// rather than global.
type RateLimitConfig struct {
	RequestsPerMinute int
	// KeyFunc identifies the client. Defaults to the client IP.
	KeyFunc func(*gin.Context) string
}

// RateLimit gives every client a token bucket holding a minute's budget.
// Rejected calls get 429 with the RATE_LIMITED error body and a
// Retry-After of one token's refill time.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	buckets := &clientBuckets{
		cfg: resilience.RateLimiterConfig{
			Name:  "api",
			Rate:  float64(cfg.RequestsPerMinute) / 60,
			Burst: cfg.RequestsPerMinute,
		},
		clients: make(map[string]*clientBucket),
	}
	retryAfter := strconv.Itoa(int(math.Ceil(60 / float64(cfg.RequestsPerMinute))))
	rejected := apperrors.New(apperrors.ErrCodeRateLimited, "too many requests from this client").ToResponse()

	return func(c *gin.Context) {
		if !buckets.allow(cfg.KeyFunc(c), time.Now()) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, rejected)
			return
		}
		c.Next()
	}
}

type clientBucket struct {
	limiter  *resilience.RateLimiter
	lastSeen time.Time
}

// clientBuckets drops buckets idle for longer than a full refill, since a
// fresh bucket is indistinguishable from a refilled one.
type clientBuckets struct {
	cfg resilience.RateLimiterConfig

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

func (b *clientBuckets) allow(key string, now time.Time) bool {
	b.mu.Lock()
	if now.Sub(b.lastSweep) > time.Minute {
		for k, cb := range b.clients {
			if now.Sub(cb.lastSeen) > time.Minute {
				delete(b.clients, k)
			}
		}
		b.lastSweep = now
	}
	cb, ok := b.clients[key]
	if !ok {
		cb = &clientBucket{limiter: resilience.NewRateLimiter(b.cfg)}
		b.clients[key] = cb
	}
	cb.lastSeen = now
	b.mu.Unlock()
	return cb.limiter.Allow()
}
