// Package ratelimit implements the per-caller request throttle of
// spec.md §7 ("429 Too Many Requests"). It is grounded on the teacher's
// internal/lobby.MatchmakingService, which already uses
// github.com/redis/go-redis/v9 as a shared sorted-set/string store keyed
// by user — this repurposes the same client and key-expiry idiom for a
// fixed-window request counter instead of a matchmaking queue.
package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/vibechess/server/internal/authgate"
)

// Limiter enforces a fixed-window request cap per caller address (falling
// back to remote IP for unauthenticated requests).
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// New constructs a Limiter. limit requests are allowed per window per
// caller.
func New(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

func (l *Limiter) keyFor(c *gin.Context) string {
	if caller, ok := authgate.Caller(c); ok && caller != "" {
		return fmt.Sprintf("ratelimit:%s", caller)
	}
	return fmt.Sprintf("ratelimit:ip:%s", c.ClientIP())
}

// Middleware rejects requests once the caller exceeds limit within the
// current window, incrementing a Redis counter that expires with the
// window — the same INCR+EXPIRE idiom the teacher's matchmaking queue
// uses for its request keys.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.keyFor(c)
		ctx := c.Request.Context()

		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			// Redis unavailable: fail open rather than blocking gameplay on an
			// ancillary dependency.
			c.Next()
			return
		}
		if count == 1 {
			l.client.Expire(ctx, key, l.window)
		}

		if count > int64(l.limit) {
			ttl, _ := l.client.TTL(ctx, key).Result()
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
