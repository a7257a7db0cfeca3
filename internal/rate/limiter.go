// Package rate provides a Redis-backed fixed-window rate limiter for
// abuse-prone authentication endpoints.
package rate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velora-beauty/velora-server/internal/logger"
	"github.com/velora-beauty/velora-server/internal/model"
)

// Limiter counts requests per identifier within a fixed window: INCR plus a
// conditional EXPIRE on the first hit. Counting is approximate by design;
// the requirement is "roughly N per window", not exactness.
//
// The limiter fails open. When Redis is unreachable the check reports
// Allowed, trading strictness for availability so an outage of the counter
// store cannot block all authentication.
type Limiter struct {
	redis  redis.UniversalClient
	logger *logger.Logger
}

var _ model.RateLimiter = (*Limiter)(nil)

// New creates a Limiter backed by the given Redis client.
func New(redisClient redis.UniversalClient, logger *logger.Logger) *Limiter {
	return &Limiter{redis: redisClient, logger: logger}
}

// Check increments the counter for key and reports whether the request is
// within budget, how many requests remain, and when the window resets.
func (l *Limiter) Check(ctx context.Context, key string, max int, window time.Duration) (model.RateResult, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Error("rate limiter: counter store unreachable, failing open",
			"key", key,
			"error", err.Error())
		return model.RateResult{Allowed: true, Remaining: max, ResetIn: window}, nil
	}

	// Fixed-window semantics: the TTL is set only for the first hit.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			l.logger.Error("rate limiter: failed to set window expiry, failing open",
				"key", key,
				"error", err.Error())
			return model.RateResult{Allowed: true, Remaining: max, ResetIn: window}, nil
		}
	}

	resetIn := window
	if ttl, err := l.redis.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		resetIn = ttl
	}

	remaining := max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return model.RateResult{
		Allowed:   count <= int64(max),
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}
