package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"pdf-analysis-service/internal/analyzer"
	"pdf-analysis-service/internal/config"
	"pdf-analysis-service/internal/jobstore"
	"pdf-analysis-service/internal/logging"
	"pdf-analysis-service/internal/telemetry"
	"pdf-analysis-service/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat, "pdf-analysis-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := jobstore.NewRedisStore(rdb, cfg.QueueKey, cfg.ResultTTL)
	engine := analyzer.NewLocalEngine(log)
	processor := worker.New(store, engine, cfg.WorkerPollInterval, log)

	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, telemetry.Handler()); err != nil {
			log.Warn().Err(err).Msg("metrics server stopped")
		}
	}()

	log.Info().Dur("poll_interval", cfg.WorkerPollInterval).Str("queue", cfg.QueueKey).Msg("worker started")
	if err := processor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker stopped")
		os.Exit(1)
	}
	log.Info().Msg("worker stopped")
}
