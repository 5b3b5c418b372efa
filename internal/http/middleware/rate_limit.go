package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

// RateLimiter is a Redis fixed-window request limiter keyed per client IP.
// It fails open: an unreachable Redis never blocks traffic.
type RateLimiter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRateLimiter creates a Redis-backed rate limiter
func NewRateLimiter(client *redis.Client, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{client: client, logger: logger}
}

// Limit returns middleware allowing max requests per window for the scope.
func (l *RateLimiter) Limit(scope string, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.client == nil || max <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		key := "rl:" + scope + ":" + c.ClientIP()
		seconds := int(window.Seconds())
		if seconds <= 0 {
			seconds = 60
		}

		count, err := l.client.Eval(ctx, rateLimitScript, []string{key}, seconds).Int()
		if err != nil {
			c.Next()
			return
		}

		if count > max {
			l.logger.Warn("rate limit exceeded",
				zap.String("scope", scope),
				zap.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
