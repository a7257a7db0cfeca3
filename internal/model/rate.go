package model

import (
	"context"
	"time"
)

// RateResult reports the outcome of one fixed-window rate check.
type RateResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter guards abuse-prone endpoints with an approximate fixed-window
// counter. Implementations fail open: when the backing store is unreachable
// the check reports Allowed so an infrastructure outage does not lock every
// client out of authentication.
type RateLimiter interface {
	Check(ctx context.Context, key string, max int, window time.Duration) (RateResult, error)
}
