package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/examstack/examhall-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// RateLimiter implements a per-IP token bucket, used to cap WebSocket
// connection attempts. Buckets refill over time and stale entries are
// swept lazily so no background goroutine is needed.
type RateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	rate        int           // Tokens per interval
	interval    time.Duration // Refill interval
	lastCleanup time.Time
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter (e.g., 60 connects per minute).
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:     make(map[string]*bucket),
		rate:        rate,
		interval:    interval,
		lastCleanup: time.Now(),
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		rl.maybeCleanup()

		b, exists := rl.buckets[ip]
		if !exists {
			b = &bucket{tokens: rl.rate, lastSeen: time.Now()}
			rl.buckets[ip] = b
		}

		// Refill tokens based on elapsed time.
		elapsed := time.Since(b.lastSeen)
		refill := int(elapsed/rl.interval) * rl.rate
		if refill > 0 {
			b.tokens += refill
			if b.tokens > rl.rate {
				b.tokens = rl.rate
			}
			b.lastSeen = time.Now()
		}

		if b.tokens <= 0 {
			rl.mu.Unlock()
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		b.tokens--
		rl.mu.Unlock()
		c.Next()
	}
}

// maybeCleanup drops buckets idle for several intervals. Caller holds rl.mu.
func (rl *RateLimiter) maybeCleanup() {
	if time.Since(rl.lastCleanup) < time.Minute {
		return
	}
	for ip, b := range rl.buckets {
		if time.Since(b.lastSeen) > 3*rl.interval {
			delete(rl.buckets, ip)
		}
	}
	rl.lastCleanup = time.Now()
}
