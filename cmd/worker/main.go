package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"emosante/internal/cache"
	"emosante/internal/config"
	"emosante/internal/db"
	"emosante/internal/emotion"
	"emosante/internal/journal"
	"emosante/internal/queue"
	"emosante/internal/worker"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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
	}
	if !cfg.RabbitMQ.Enabled() {
		logrus.Fatal("RABBITMQ_URL is required to run the analysis worker")
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
		if rdb, err = cache.SetupRedis(ctx, &cfg.Redis); err != nil {
			logrus.WithError(err).Warn("Redis unavailable, running without cache")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	conn, err := queue.SetupRabbitMQ(&cfg.RabbitMQ)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close RabbitMQ connection")
		}
	}()

	consumerChannel, err := queue.CreateChannel(conn)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create RabbitMQ channel")
	}
	if _, err := queue.DeclareQueue(consumerChannel, cfg.RabbitMQ.Queue); err != nil {
		logrus.WithError(err).Fatal("Failed to declare RabbitMQ queue")
	}
	if err := consumerChannel.Close(); err != nil {
		logrus.WithError(err).Fatal("Failed to close RabbitMQ channel")
	}

	classifier := emotion.NewCachedClassifier(
		emotion.NewOpenAIClassifier(&cfg.OpenAI),
		cache.NewJSONCache(rdb, cache.EmotionCacheTTL),
	)
	analyzer := journal.NewAnalyzer(
		journal.NewEntryRepository(),
		database,
		classifier,
		cache.NewJSONCache(rdb, cache.EntryCacheTTL),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Worker.MetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Infof("Worker metrics server started on :%s", cfg.Worker.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start metrics server")
		}
	}()

	var wg sync.WaitGroup
	for i := 1; i <= cfg.Worker.Count; i++ {
		w := worker.NewWorker(i, conn, cfg.RabbitMQ.Queue, analyzer)
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				logrus.WithError(err).Errorf("Worker %d exited", id)
				stop()
			}
		}(i)
	}

	<-ctx.Done()
	logrus.Info("Shutting down workers...")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Failed to shut down metrics server")
	}
}
