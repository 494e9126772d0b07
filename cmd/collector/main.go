package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"bazaar-trading-bot/internal/collector"
	"bazaar-trading-bot/internal/config"
	bazaarDB "bazaar-trading-bot/internal/database"
	"bazaar-trading-bot/internal/health"
	"bazaar-trading-bot/internal/metrics"
	"bazaar-trading-bot/pkg/coflnet"
	"bazaar-trading-bot/pkg/database"
	"bazaar-trading-bot/pkg/utils"
)

func main() {
	// Initialize logger
	logger := utils.NewLogger("bazaar-collector")

	// Load configuration
	cfg := config.Load()
	logger.WithFields(logrus.Fields{
		"base_url":            cfg.Coflnet.BaseURL,
		"collection_interval": cfg.CollectionInterval,
		"batch_size":          cfg.BatchSize,
	}).Info("Configuration loaded")

	// Initialize database connection
	db, err := database.NewConnection(cfg.DbURI, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Initialize Coflnet client
	client := coflnet.NewClient(cfg.Coflnet, logger)
	defer client.Close()

	// Initialize repositories and services
	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)
	repo := bazaarDB.NewRepository(db, cfg.BatchSize, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.AutoMigrate {
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to ensure database schema")
		}
	}

	fetcher := collector.NewFetcher(client, recorder, logger)
	processor := collector.NewProcessor(repo, logger)
	scheduler := collector.NewScheduler(fetcher, processor, collector.SchedulerConfig{
		Mode:     collector.ModeSnapshot,
		Interval: cfg.CollectionInterval,
	}, recorder, logger)

	// Initialize health checker
	healthChecker := health.NewHealthChecker(db, registry, logger)
	healthServer := healthChecker.StartServer(cfg.MetricsPort)

	// Start the scheduler
	if err := scheduler.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start scheduler")
	}

	logger.Info("Bazaar collector service started successfully")

	// Wait for interrupt signal to gracefully shutdown. The scheduler also
	// finishes on its own when the interval is zero (single collection run).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down bazaar collector service...")
		scheduler.Stop()
	case <-scheduler.Done():
		logger.Info("Collection finished, shutting down...")
	}

	// Shutdown health server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shutdown health server gracefully")
	}

	// Cancel context
	cancel()

	logger.Info("Bazaar collector service stopped")
}
