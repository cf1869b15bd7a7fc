package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akajianguo/evemarket/configs"
	"github.com/akajianguo/evemarket/internal/cache"
	"github.com/akajianguo/evemarket/internal/esi"
	"github.com/akajianguo/evemarket/internal/pipeline"
	"github.com/akajianguo/evemarket/internal/storage"
)

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

func main() {
	logger := newLogger()
	cfg := configs.AppLoad()

	store, err := storage.NewPostgresStorage(cfg.DBDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	redisCache, err := cache.New(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	fetcher := esi.NewClient(cfg.ESI, logger)
	coordinator := pipeline.New(fetcher, store, redisCache, cfg.Pipeline, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("Pipeline started: %d regions, every %s", len(cfg.Pipeline.Regions), cfg.Pipeline.Interval)

	ticker := time.NewTicker(cfg.Pipeline.Interval)
	defer ticker.Stop()

	// Sequential loop: a run always finishes (or fails) before the next one
	// starts, so runs never overlap.
	for {
		if err := coordinator.Run(ctx); err != nil {
			logger.Errorf("Run failed: %v", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("Received shutdown signal, stopping pipeline")
			return
		case <-ticker.C:
		}
	}
}
