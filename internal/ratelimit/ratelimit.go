// Package ratelimit guards the credential-guessing surfaces (login,
// code resend) with a fixed window per client IP.
package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"booking-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// PerIP limits requests per client IP using Redis if available. Cache
// errors fail open: losing Redis must not lock everyone out of login.
func PerIP(rdb *redis.Client, scope string, max int, window time.Duration) gin.HandlerFunc {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := fmt.Sprintf("rl:%s:%s", scope, c.ClientIP())

		cnt, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.FromGin(c).Warn("rate limit check failed", "scope", scope, "err", err)
			c.Next()
			return
		}
		if cnt == 1 {
			rdb.Expire(ctx, key, window)
		}
		if cnt > int64(max) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
			return
		}
		c.Next()
	}
}
