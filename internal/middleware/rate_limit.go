package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	OrderCreateMaxRequests = 10
	WebhookMaxRequests     = 300
	RateLimitWindow        = time.Minute
)

// RateLimit is a fixed-window counter in Redis, keyed by principal when
// authenticated and by client IP otherwise. Redis errors let the request through.
func RateLimit(client *redis.Client, name string, max int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", name, rateLimitSubject(c))

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("⚠️ Rate limit check failed for %s: %v", key, err)
			c.Next()
			return
		}
		if count == 1 {
			client.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		if count > max {
			ttl := client.TTL(ctx, key).Val()
			if ttl <= 0 {
				ttl = window
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":     "Too many requests. Please try again later.",
				"retry_after": int(ttl.Seconds()),
			})
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max-count))

		c.Next()
	}
}

func rateLimitSubject(c *gin.Context) string {
	if p, ok := PrincipalFrom(c); ok {
		return "user:" + p.ID
	}
	return "ip:" + c.ClientIP()
}
