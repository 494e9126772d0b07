package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"bazaar-trading-bot/internal/collector"
	"bazaar-trading-bot/internal/config"
	bazaarDB "bazaar-trading-bot/internal/database"
	"bazaar-trading-bot/internal/metrics"
	"bazaar-trading-bot/pkg/coflnet"
	"bazaar-trading-bot/pkg/database"
	"bazaar-trading-bot/pkg/utils"
)

func main() {
	var (
		fromArg = flag.String("from", "", "window start (RFC3339 or unix timestamp), overrides HISTORY_FROM")
		toArg   = flag.String("to", "", "window end (RFC3339 or unix timestamp), overrides HISTORY_TO")
		days    = flag.Int("days", 0, "shorthand for -from: now minus N days")
	)
	flag.Parse()

	// Initialize logger
	logger := utils.NewLogger("bazaar-backfill")

	// Load configuration
	cfg := config.Load()

	from, to := cfg.Backfill.From, cfg.Backfill.To
	if *fromArg != "" {
		parsed, ok := utils.ParseTime(*fromArg)
		if !ok {
			logger.WithField("from", *fromArg).Fatal("Unrecognized -from timestamp")
		}
		from = parsed
	}
	if *toArg != "" {
		parsed, ok := utils.ParseTime(*toArg)
		if !ok {
			logger.WithField("to", *toArg).Fatal("Unrecognized -to timestamp")
		}
		to = parsed
	}
	if *days > 0 {
		from = time.Now().UTC().AddDate(0, 0, -*days)
	}

	logger.WithFields(logrus.Fields{
		"base_url":   cfg.Coflnet.BaseURL,
		"from":       from,
		"to":         to,
		"item_delay": cfg.Backfill.ItemDelay,
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
		Mode: collector.ModeBackfill,
		// Zero interval: walk the catalog once, then exit.
		Interval:  0,
		ItemDelay: cfg.Backfill.ItemDelay,
		From:      from,
		To:        to,
	}, recorder, logger)

	if err := scheduler.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start scheduler")
	}

	logger.Info("History backfill started")

	// A backfill over the full catalog takes a while, so it stays
	// interruptible. Stop finishes the in-flight item before returning.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Interrupt received, stopping backfill...")
		scheduler.Stop()
	case <-scheduler.Done():
	}

	cancel()

	logger.Info("History backfill finished")
}
