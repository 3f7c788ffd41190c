package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// EndpointRateLimiter applies stricter limits to individual routes, keyed
// by the route pattern and client IP.
type EndpointRateLimiter struct {
	limiters map[string]*RateLimiter
	mu       sync.RWMutex
}

func NewEndpointRateLimiter() *EndpointRateLimiter {
	return &EndpointRateLimiter{
		limiters: make(map[string]*RateLimiter),
	}
}

func (erl *EndpointRateLimiter) AddEndpoint(path string, limit int, window time.Duration) {
	erl.mu.Lock()
	defer erl.mu.Unlock()
	erl.limiters[path] = NewRateLimiter(limit, window)
}

func (erl *EndpointRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		erl.mu.RLock()
		limiter, exists := erl.limiters[c.FullPath()]
		erl.mu.RUnlock()

		if exists && !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded for this endpoint",
				"retry_after": limiter.Window().Seconds(),
			})
			return
		}

		c.Next()
	}
}
