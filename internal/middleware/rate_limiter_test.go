package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"emosante/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client for testing
// Make sure Redis is running on localhost:6379
func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use DB 1 for tests (not default DB 0)
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis not available, skipping test")
	}

	client.FlushDB(ctx)
	return client
}

func newLimitedRouter(redisClient *redis.Client, config *RateLimiterConfig, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.Use(func(c *gin.Context) {
		if userID > 0 {
			c.Set(auth.UserIDKey, userID)
		}
		c.Next()
	})
	router.Use(RateLimiterMiddleware(redisClient, config, UserKey))

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	return router
}

func hit(router *gin.Engine) int {
	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_AllowRequestsUnderLimit(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	router := newLimitedRouter(redisClient, CustomRateLimiter("t", 5, 10.0), 1)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(router), "Request %d should succeed", i+1)
	}
}

func TestRateLimiter_DenyRequestsOverLimit(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	router := newLimitedRouter(redisClient, CustomRateLimiter("t", 3, 1.0), 1)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(router), "Request %d should succeed", i+1)
	}

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	router := newLimitedRouter(redisClient, CustomRateLimiter("t", 2, 2.0), 1)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, hit(router))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(router))

	time.Sleep(1 * time.Second)

	assert.Equal(t, http.StatusOK, hit(router), "Request should succeed after token refill")
}

func TestRateLimiter_DifferentUsers(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	config := CustomRateLimiter("t", 2, 1.0)
	router1 := newLimitedRouter(redisClient, config, 1)
	router2 := newLimitedRouter(redisClient, config, 2)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, hit(router1))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(router1))

	assert.Equal(t, http.StatusOK, hit(router2), "User 2 should not be affected by User 1's rate limit")
}

func TestRateLimiter_SeparateLimiterNamespaces(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	login := newLimitedRouter(redisClient, CustomRateLimiter("login", 1, 0.1), 1)
	journal := newLimitedRouter(redisClient, CustomRateLimiter("journal", 1, 0.1), 1)

	assert.Equal(t, http.StatusOK, hit(login))
	assert.Equal(t, http.StatusTooManyRequests, hit(login))
	assert.Equal(t, http.StatusOK, hit(journal))
}

func TestRateLimiter_ClientIPKey(t *testing.T) {
	redisClient := setupTestRedis(t)
	defer redisClient.Close()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiterMiddleware(redisClient, CustomRateLimiter("ip", 1, 0.1), ClientIPKey))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(addr string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5678"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
}

func TestRateLimiter_NoUserIDInContext(t *testing.T) {
	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:9999"})
	defer redisClient.Close()

	router := newLimitedRouter(redisClient, DefaultRateLimiterConfig(), 0)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized - unable to identify client"}`, w.Body.String())
}

func TestRateLimiter_UnidentifiedClient(t *testing.T) {
	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:9999"})
	defer redisClient.Close()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	noKey := func(*gin.Context) (string, bool) { return "", false }
	router.Use(RateLimiterMiddleware(redisClient, CustomRateLimiter("ip", 1, 1), noKey))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "user_id")
}

func TestRateLimiter_RedisFailure_FailOpen(t *testing.T) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:        "localhost:9999", // Non-existent Redis
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer redisClient.Close()

	router := newLimitedRouter(redisClient, CustomRateLimiter("t", 1, 0.1), 1)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(router))
	}
}

func TestRateLimiterKey(t *testing.T) {
	assert.Equal(t, "rate_limiter:journal:user:1", RateLimiterKey("journal", "user:1"))
	assert.Equal(t, "rate_limiter:auth:ip:10.0.0.1", RateLimiterKey("auth", "ip:10.0.0.1"))
}

func TestPresets(t *testing.T) {
	config := DefaultRateLimiterConfig()
	require.NotNil(t, config)
	assert.Equal(t, 20, config.Capacity)
	assert.Equal(t, 10.0, config.RefillRate)

	for _, p := range []*RateLimiterConfig{LoginRateLimiter(), AnalyzeRateLimiter(), JournalRateLimiter()} {
		assert.NotEmpty(t, p.Name)
		assert.Positive(t, p.Capacity)
		assert.Positive(t, p.RefillRate)
	}
	assert.Less(t, LoginRateLimiter().RefillRate, AnalyzeRateLimiter().RefillRate)
}

// Benchmark rate limiter performance
func BenchmarkRateLimiter(b *testing.B) {
	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		b.Skip("Redis not available, skipping benchmark")
	}
	redisClient.FlushDB(ctx)

	router := newLimitedRouter(redisClient, CustomRateLimiter("bench", 1000, 100.0), 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hit(router)
	}
}
