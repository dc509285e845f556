// Package ratelimit counts requests per client in fixed windows and rejects
// clients that exceed the allowance. Counters live either in process memory
// or in Redis, so several instances can share one budget.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the state of a client's window after one request was counted.
type Result struct {
	// Allowed is false once the client exceeded Limit in the current window.
	Allowed bool

	// Limit is the number of requests allowed per window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAfter is the time until the current window ends.
	ResetAfter time.Duration
}

// Limiter counts one request for key and reports whether it may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func newResult(limit int, count int64, resetAfter time.Duration) Result {
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	if resetAfter < 0 {
		resetAfter = 0
	}

	return Result{
		Allowed:    count <= int64(limit),
		Limit:      limit,
		Remaining:  int(remaining),
		ResetAfter: resetAfter,
	}
}
