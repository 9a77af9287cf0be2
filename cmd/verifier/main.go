package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/storm-forecast-verifier/internal/adapter/http"
	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/imagery"
	kafkaadapter "github.com/couchcryptid/storm-forecast-verifier/internal/adapter/kafka"
	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/kvstore"
	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/spc"
	"github.com/couchcryptid/storm-forecast-verifier/internal/config"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
	"github.com/couchcryptid/storm-forecast-verifier/internal/pipeline"
	"github.com/couchcryptid/storm-forecast-verifier/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := kvstore.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	logger.Info("store opened", "backend", cfg.StoreBackend)

	client := spc.NewClient(cfg.ReportsBaseURL, cfg.ReportsTimeout, metrics, logger)
	source := spc.NewCachedSource(client, cfg.ReportsCacheSize, metrics)

	// Publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var (
		publisher session.Publisher
		writer    *kafkaadapter.Writer
		p         *pipeline.Pipeline
	)
	if cfg.KafkaEnabled {
		queue := pipeline.NewQueue(cfg.PublishQueueSize, cfg.PublishFlushInterval, metrics)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p = pipeline.New(queue, writer, logger, metrics, cfg.PublishBatchSize)
		publisher = queue
		logger.Info("verification publishing enabled", "topic", cfg.KafkaTopic, "batch_size", cfg.PublishBatchSize)
	} else {
		logger.Info("verification publishing disabled")
	}

	sess := session.New(store, source, publisher, logger, metrics, session.WithDefaultPlayer(cfg.DefaultPlayer))
	probe := imagery.NewProbe(cfg.ImageryBaseURL, cfg.ImageryTimeout, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, sess, sess, probe, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start publish pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
