package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/patric-chuzhbe/walletauth/internal/logger"
	"github.com/patric-chuzhbe/walletauth/internal/models"
	"github.com/patric-chuzhbe/walletauth/internal/respond"
)

// KeyFunc picks the counter a request is charged to.
type KeyFunc func(*http.Request) string

// Middleware charges every request to keyOf(request) and answers 429 once
// the window's allowance is spent. When the limiter itself fails the
// request is let through.
func Middleware(limiter Limiter, keyOf KeyFunc) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			key := keyOf(request)

			result, err := limiter.Allow(request.Context(), key)
			if err != nil {
				logger.Log.Warnw("rate limiter unavailable, request let through",
					"key", key,
					logger.ErrorField(err),
				)
				h.ServeHTTP(response, request)
				return
			}

			resetSeconds := strconv.FormatInt(ceilSeconds(result.ResetAfter), 10)
			header := response.Header()
			header.Set("RateLimit-Limit", strconv.Itoa(result.Limit))
			header.Set("RateLimit-Remaining", strconv.Itoa(result.Remaining))
			header.Set("RateLimit-Reset", resetSeconds)

			if !result.Allowed {
				logger.Log.Debugw("rate limit exceeded", "key", key)
				header.Set("Retry-After", resetSeconds)
				respond.Message(response, http.StatusTooManyRequests, models.MsgTooManyRequests)
				return
			}

			h.ServeHTTP(response, request)
		})
	}
}

func ceilSeconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}
