package analyzer

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the market analysis on a cron schedule and stores the
// resulting flip candidates.
type Scheduler struct {
	analyzer *Analyzer
	repo     Repository
	cron     *cron.Cron
	cronExpr string
	logger   *logrus.Logger
}

func NewScheduler(analyzer *Analyzer, repo Repository, cronExpr string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		analyzer: analyzer,
		repo:     repo,
		cron:     cron.New(cron.WithSeconds()),
		cronExpr: cronExpr,
		logger:   logger,
	}
}

// Start registers the cron job and kicks off an immediate first analysis.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.WithField("schedule", s.cronExpr).Info("Starting market analysis scheduler")

	_, err := s.cron.AddFunc(s.cronExpr, func() {
		s.runAnalysis(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()

	// Run initial analysis
	go s.runAnalysis(ctx)

	s.logger.Info("Market analysis scheduler started successfully")
	return nil
}

// Stop halts the cron schedule and waits for a running analysis to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping market analysis scheduler")
	<-s.cron.Stop().Done()
	s.logger.Info("Market analysis scheduler stopped")
}

func (s *Scheduler) runAnalysis(ctx context.Context) {
	start := time.Now()
	s.logger.Info("Starting market analysis cycle")

	candidates, err := s.analyzer.AnalyzeMarket(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to analyze market")
		return
	}

	if err := s.repo.ReplaceFlipCandidates(ctx, candidates); err != nil {
		s.logger.WithError(err).Error("Failed to store flip candidates")
		return
	}

	s.analyzer.LogMarketReport(ctx)

	s.logger.WithFields(logrus.Fields{
		"duration_ms": time.Since(start).Milliseconds(),
		"candidates":  len(candidates),
	}).Info("Market analysis cycle completed successfully")

	for i, c := range candidates {
		s.logger.WithFields(logrus.Fields{
			"rank":           i + 1,
			"item_id":        c.ItemID,
			"flip_score":     c.FlipScore,
			"margin_percent": c.MarginPercent,
			"spread_margin":  c.SpreadMargin.String(),
			"avg_buy_volume": c.AvgBuyVolume,
		}).Info("Selected flip candidate")
	}
}
