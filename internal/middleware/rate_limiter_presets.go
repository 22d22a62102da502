package middleware

// LoginRateLimiter guards credential endpoints against guessing.
// Burst: 5 requests, Sustained: 1 request per 6 seconds
func LoginRateLimiter() *RateLimiterConfig {
	return &RateLimiterConfig{
		Name:       "auth",
		Capacity:   5,
		RefillRate: 1.0 / 6,
	}
}

// AnalyzeRateLimiter limits calls that reach the emotion provider.
// Burst: 10 requests, Sustained: 1 request per 2 seconds
func AnalyzeRateLimiter() *RateLimiterConfig {
	return &RateLimiterConfig{
		Name:       "analyze",
		Capacity:   10,
		RefillRate: 0.5,
	}
}

// JournalRateLimiter is for the journal CRUD routes.
func JournalRateLimiter() *RateLimiterConfig {
	cfg := DefaultRateLimiterConfig()
	cfg.Name = "journal"
	return cfg
}

// CustomRateLimiter - Create your own configuration
// Example: CustomRateLimiter("uploads", 5, 2.0) = 5 burst, 2 req/sec
func CustomRateLimiter(name string, capacity int, refillRate float64) *RateLimiterConfig {
	return &RateLimiterConfig{
		Name:       name,
		Capacity:   capacity,
		RefillRate: refillRate,
	}
}
