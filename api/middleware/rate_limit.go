package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per key. A limit of zero or less
// disables it.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu          sync.Mutex
	visitors    map[string]*visitor
	lastCleanup time.Time
	now         func() time.Time
}

type visitor struct {
	count int
	start time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:    limit,
		window:   window,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	v, ok := rl.visitors[key]
	if !ok || now.Sub(v.start) >= rl.window {
		rl.visitors[key] = &visitor{count: 1, start: now}
		return true
	}
	if v.count >= rl.limit {
		return false
	}
	v.count++
	return true
}

func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// cleanup drops expired windows at most once per window.
func (rl *RateLimiter) cleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < rl.window {
		return
	}
	for key, v := range rl.visitors {
		if now.Sub(v.start) >= rl.window {
			delete(rl.visitors, key)
		}
	}
	rl.lastCleanup = now
}

// RateLimit limits every request by client IP.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": limiter.Window().Seconds(),
			})
			return
		}
		c.Next()
	}
}
