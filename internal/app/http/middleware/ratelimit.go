package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"membership-app/internal/infra/logging"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/gin-gonic/gin"
)

// Allower is satisfied by *redis_rate.Limiter.
type Allower interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit limits requests per client IP under name. A nil limiter
// disables the check. Limiter errors fail open.
func RateLimit(l Allower, name string, limit redis_rate.Limit) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || limit.IsZero() {
			c.Next()
			return
		}

		key := "ratelimit:" + name + ":" + c.ClientIP()
		res, err := l.Allow(c.Request.Context(), key, limit)
		if err != nil {
			logging.Log.Warn().Err(err).Str("key", key).Msg("rate limiter error, failing open")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))

		if res.Allowed == 0 {
			retry := int(res.RetryAfter.Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
			return
		}
		c.Next()
	}
}
