package middleware

import (
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"emosante/internal/auth"
	"emosante/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

//go:embed rate_limiter.lua
var luaScript string

var tokenBucket = redis.NewScript(luaScript)

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	Name       string  // Metric label and key namespace
	Capacity   int     // Maximum number of tokens (max requests)
	RefillRate float64 // Tokens refilled per second
}

// DefaultRateLimiterConfig returns default rate limiter settings
// 10 requests per second with burst capacity of 20
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Name:       "default",
		Capacity:   20,
		RefillRate: 10.0,
	}
}

// KeyFunc names the bucket a request draws from. ok is false when the
// request cannot be attributed.
type KeyFunc func(c *gin.Context) (key string, ok bool)

// UserKey buckets requests by the authenticated user.
func UserKey(c *gin.Context) (string, bool) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("user:%d", userID), true
}

// ClientIPKey buckets requests by client address, for routes in front of
// authentication.
func ClientIPKey(c *gin.Context) (string, bool) {
	ip := c.ClientIP()
	if ip == "" {
		return "", false
	}
	return "ip:" + ip, true
}

// RateLimiterMiddleware implements a token bucket in Redis via a Lua
// script. Redis errors fail open.
func RateLimiterMiddleware(redisClient *redis.Client, config *RateLimiterConfig, keyFunc KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := keyFunc(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized - unable to identify client",
			})
			return
		}

		result, err := tokenBucket.Run(c.Request.Context(), redisClient,
			[]string{RateLimiterKey(config.Name, subject)},
			config.Capacity,
			config.RefillRate,
			time.Now().UnixMilli(),
		).Int64()
		if err != nil {
			logrus.WithError(err).Error("Failed to execute rate limiter Lua script")
			c.Next()
			return
		}

		if result == 0 {
			observability.GlobalMetrics.RateLimitedTotal.WithLabelValues(config.Name).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Maximum %d requests per burst, %.1f per second sustained", config.Capacity, config.RefillRate),
				"retry_after": fmt.Sprintf("%.1f seconds", 1.0/config.RefillRate),
			})
			return
		}

		c.Next()
	}
}

func RateLimiterKey(name, subject string) string {
	return fmt.Sprintf("rate_limiter:%s:%s", name, subject)
}
