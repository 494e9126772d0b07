package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"bazaar-trading-bot/pkg/models"
)

// recordStore is the slice of the repository the processor consumes.
type recordStore interface {
	InsertRecords(ctx context.Context, records []models.MarketRecord) (int, error)
}

// Processor validates normalized batches and hands them to the store. One
// batch is one transaction: it commits completely or not at all.
type Processor struct {
	repo   recordStore
	logger *logrus.Logger
}

func NewProcessor(repo recordStore, logger *logrus.Logger) *Processor {
	return &Processor{
		repo:   repo,
		logger: logger,
	}
}

// StoreRecords persists one batch and returns the number of rows written.
func (p *Processor) StoreRecords(ctx context.Context, records []models.MarketRecord) (int, error) {
	if len(records) == 0 {
		p.logger.Warn("No records to store")
		return 0, nil
	}

	start := time.Now()

	// A row without an id or timestamp would abort the whole transaction.
	valid := make([]models.MarketRecord, 0, len(records))
	skipped := 0
	for _, record := range records {
		if record.ItemID == "" || record.Timestamp.IsZero() {
			skipped++
			continue
		}
		valid = append(valid, record)
	}

	if skipped > 0 {
		p.logger.WithField("skipped_count", skipped).Warn("Dropped records without identity before insert")
	}

	count, err := p.repo.InsertRecords(ctx, valid)
	if err != nil {
		p.logger.WithError(err).Error("Failed to store market records")
		return 0, err
	}

	p.logger.WithFields(logrus.Fields{
		"stored_count": count,
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("Successfully stored market records")

	return count, nil
}
