package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/patric-chuzhbe/walletauth/internal/logger"
)

type window struct {
	count   int64
	startAt time.Time
}

// MemoryLimiter keeps fixed-window counters in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

// MemoryOption configures NewMemory.
type MemoryOption func(*MemoryLimiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) {
		l.now = now
	}
}

// NewMemory creates a limiter allowing limit requests per period for each key.
func NewMemory(limit int, period time.Duration, optionsProto ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		windows: map[string]*window{},
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
	for _, protoOption := range optionsProto {
		protoOption(l)
	}

	return l
}

// Allow counts a request for key. It never returns an error.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.startAt.Add(l.period)) {
		w = &window{startAt: now}
		l.windows[key] = w
	}
	w.count++

	return newResult(l.limit, w.count, w.startAt.Add(l.period).Sub(now)), nil
}

// Sweep drops windows that have ended and returns how many were dropped.
func (l *MemoryLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if !now.Before(w.startAt.Add(l.period)) {
			delete(l.windows, key)
			removed++
		}
	}

	return removed
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.windows)
}

// Run sweeps expired windows every interval until ctx is done.
// The returned channel is closed once the sweeper has stopped.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := l.Sweep(); removed > 0 {
					logger.Log.Debugf("swept %d expired rate limit windows", removed)
				}
			}
		}
	}()

	return done
}
