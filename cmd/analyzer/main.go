package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"bazaar-trading-bot/internal/analyzer"
	"bazaar-trading-bot/internal/config"
	bazaarDB "bazaar-trading-bot/internal/database"
	"bazaar-trading-bot/internal/health"
	"bazaar-trading-bot/pkg/database"
	"bazaar-trading-bot/pkg/utils"
)

func main() {
	// Initialize logger
	logger := utils.NewLogger("bazaar-analyzer")

	// Load configuration
	cfg := config.Load()
	logger.WithFields(logrus.Fields{
		"schedule":       cfg.Analysis.Cron,
		"lookback_days":  cfg.Analysis.LookbackDays,
		"min_volume":     cfg.Analysis.MinVolume,
		"max_candidates": cfg.Analysis.MaxCandidates,
	}).Info("Configuration loaded")

	// Initialize database connection
	db, err := database.NewConnection(cfg.DbURI, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repo := bazaarDB.NewRepository(db, cfg.BatchSize, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.AutoMigrate {
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to ensure database schema")
		}
	}

	// Initialize analyzer and scheduler
	marketAnalyzer := analyzer.NewAnalyzer(repo, cfg.Analysis, logger)
	scheduler := analyzer.NewScheduler(marketAnalyzer, repo, cfg.Analysis.Cron, logger)

	// Initialize health checker
	healthChecker := health.NewHealthChecker(db, prometheus.NewRegistry(), logger)
	healthServer := healthChecker.StartServer(cfg.MetricsPort)

	// Start the scheduler
	if err := scheduler.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start scheduler")
	}

	logger.Info("Bazaar analyzer service started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down bazaar analyzer service...")

	// Stop scheduler
	scheduler.Stop()

	// Shutdown health server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shutdown health server gracefully")
	}

	// Cancel context
	cancel()

	logger.Info("Bazaar analyzer service stopped")
}
