package echoapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const limiterTTL = 10 * time.Minute

type (
	// ipRateLimiter keeps one token bucket per client IP.
	ipRateLimiter struct {
		rate  rate.Limit
		burst int

		mu        sync.Mutex
		limiters  map[string]*limiterEntry
		lastPrune time.Time
	}

	limiterEntry struct {
		limiter    *rate.Limiter
		lastAccess time.Time
	}
)

func newIPRateLimiter(perSecond float64, burst int) *ipRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipRateLimiter{
		rate:      rate.Limit(perSecond),
		burst:     burst,
		limiters:  make(map[string]*limiterEntry),
		lastPrune: nowFunc(),
	}
}

func (rl *ipRateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := nowFunc()
	if now.Sub(rl.lastPrune) > limiterTTL {
		for k, e := range rl.limiters {
			if now.Sub(e.lastAccess) > limiterTTL {
				delete(rl.limiters, k)
			}
		}
		rl.lastPrune = now
	}

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastAccess = now
	return entry.limiter
}

// middleware rejects requests over the limit with 429; a non-positive rate disables it.
func (rl *ipRateLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if rl.rate <= 0 {
			return next
		}
		return func(ctx echo.Context) error {
			if !rl.get(ctx.RealIP()).Allow() {
				ctx.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter(rl.rate)))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(ctx)
		}
	}
}

func retryAfter(r rate.Limit) int {
	secs := int(1 / float64(r))
	if secs < 1 {
		return 1
	}
	return secs
}
