package handler

import (
	"net/http"

	"emosante/internal/cache"
	"emosante/internal/config"
	"emosante/internal/emotion"
	"emosante/internal/journal"
	"emosante/internal/middleware"
	"emosante/internal/observability"
	"emosante/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const LivenessMessage = "ÉmoSanté Backend Running ✅"

// Dependencies are the shared handles the routes are built from. Redis and
// Publisher may be nil.
type Dependencies struct {
	DB         *sqlx.DB
	Redis      *redis.Client
	Publisher  journal.Publisher
	Classifier emotion.Classifier
	Config     *config.Config
}

// SetupHandler initializes all dependencies and routes
func SetupHandler(deps Dependencies) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.PrometheusMiddleware(observability.GlobalMetrics))

	entryCache := cache.NewJSONCache(deps.Redis, cache.EntryCacheTTL)

	// Initialize repositories
	userRepo := user.NewUserRepository()
	entryRepo := journal.NewEntryRepository()

	// Initialize services
	userService := user.NewUserService(userRepo, deps.DB, deps.Config.JWT.Secret)
	analyzer := journal.NewAnalyzer(entryRepo, deps.DB, deps.Classifier, entryCache)
	journalService := journal.NewJournalService(entryRepo, deps.DB, entryCache, analyzer, deps.Publisher)

	// Initialize controllers
	userController := user.NewUserController(userService)
	emotionController := emotion.NewEmotionController(deps.Classifier)
	journalController := journal.NewJournalController(journalService)

	setupRoutes(r, routes{
		user:    userController,
		emotion: emotionController,
		journal: journalController,
	}, deps.Redis, deps.Config.JWT.Secret)

	return r
}

type routes struct {
	user    *user.UserController
	emotion *emotion.EmotionController
	journal *journal.JournalController
}

// limit returns a rate limiter, or a pass-through when Redis is not
// configured.
func limit(redisClient *redis.Client, cfg *middleware.RateLimiterConfig, key middleware.KeyFunc) gin.HandlerFunc {
	if redisClient == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimiterMiddleware(redisClient, cfg, key)
}

// setupRoutes configures all application routes
func setupRoutes(r *gin.Engine, ctrl routes, redisClient *redis.Client, jwtSecret string) {
	r.GET("/", Liveness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes - Authentication
	authGroup := r.Group("/auth")
	{
		loginLimit := limit(redisClient, middleware.LoginRateLimiter(), middleware.ClientIPKey)
		authGroup.POST("/register", loginLimit, ctrl.user.Register)
		authGroup.POST("/login", loginLimit, ctrl.user.Login)
		authGroup.POST("/refresh", ctrl.user.RefreshToken)
		authGroup.GET("/me", middleware.AuthMiddleware(jwtSecret), ctrl.user.Me)
	}

	// Gin redirects /analyze to /analyze/.
	r.POST("/analyze/",
		limit(redisClient, middleware.AnalyzeRateLimiter(), middleware.ClientIPKey),
		ctrl.emotion.Analyze,
	)

	// Protected routes - API v1
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtSecret))
	api.Use(limit(redisClient, middleware.JournalRateLimiter(), middleware.UserKey))
	{
		api.POST("/journal", ctrl.journal.CreateEntry)
		api.GET("/journal", ctrl.journal.ListEntries)
		api.GET("/journal/:id", ctrl.journal.GetEntry)
		api.PUT("/journal/:id", ctrl.journal.UpdateEntry)
		api.DELETE("/journal/:id", ctrl.journal.DeleteEntry)
	}
}

// Liveness reports that the process is serving requests.
func Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": LivenessMessage})
}
