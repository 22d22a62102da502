package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"emosante/internal/cache"
	"emosante/internal/config"
	"emosante/internal/db"
	"emosante/internal/emotion"
	"emosante/internal/handler"
	"emosante/internal/journal"
	"emosante/internal/queue"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.WithField("log_level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
	}
	for _, name := range cfg.UsesDefaultSecrets() {
		logrus.WithField("var", name).Warn("Using the built-in placeholder value; set it in the environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Init(ctx, &cfg.DB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close database connection")
		}
	}()

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = cache.SetupRedis(ctx, &cfg.Redis)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, running without cache and rate limiting")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var publisher journal.Publisher
	if cfg.RabbitMQ.Enabled() {
		conn, err := queue.SetupRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logrus.WithError(err).Warn("RabbitMQ unavailable, analyzing journal entries inline")
		} else {
			defer conn.Close()
			p, err := queue.NewPublisher(conn, cfg.RabbitMQ.Queue)
			if err != nil {
				logrus.WithError(err).Fatal("Failed to declare analysis queue")
			}
			publisher = p
		}
	}

	classifier := emotion.NewCachedClassifier(
		emotion.NewOpenAIClassifier(&cfg.OpenAI),
		cache.NewJSONCache(rdb, cache.EmotionCacheTTL),
	)

	r := handler.SetupHandler(handler.Dependencies{
		DB:         database,
		Redis:      rdb,
		Publisher:  publisher,
		Classifier: classifier,
		Config:     cfg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("Starting %s on :%s", cfg.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shut down")
	}
	logrus.Info("Server exited")
}
