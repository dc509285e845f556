package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The counter gets its expiry on the first hit of a window. A key left
// without a TTL (e.g. by a crash between INCR and PEXPIRE) is repaired.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// DefaultKeyPrefix namespaces the counters in Redis.
const DefaultKeyPrefix = "ratelimit:"

// RedisLimiter keeps fixed-window counters in Redis.
type RedisLimiter struct {
	client    redis.Scripter
	keyPrefix string
	limit     int
	period    time.Duration
}

// NewRedis creates a limiter allowing limit requests per period for each key.
func NewRedis(client redis.Scripter, keyPrefix string, limit int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		period:    period,
	}
}

// Allow atomically counts a request for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	values, err := fixedWindowScript.Run(
		ctx,
		l.client,
		[]string{l.keyPrefix + key},
		l.period.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("in internal/ratelimit/redis.go/Allow(): error while `fixedWindowScript.Run()` calling: %w", err)
	}
	if len(values) != 2 {
		return Result{}, fmt.Errorf("in internal/ratelimit/redis.go/Allow(): unexpected script reply %v", values)
	}

	return newResult(l.limit, values[0], time.Duration(values[1])*time.Millisecond), nil
}
