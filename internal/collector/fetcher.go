package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"bazaar-trading-bot/internal/metrics"
	"bazaar-trading-bot/pkg/models"
)

// marketAPI is the slice of the upstream client the fetcher consumes.
type marketAPI interface {
	ListItemIDs(ctx context.Context) ([]string, error)
	FetchSnapshot(ctx context.Context) (map[string]json.RawMessage, error)
	FetchHistory(ctx context.Context, itemID string, from, to time.Time) ([]json.RawMessage, error)
}

// Fetcher pulls raw payloads from the bazaar API and normalizes them into
// MarketRecords. Entries that cannot be normalized are counted and dropped,
// never fatal to the batch they arrived in.
type Fetcher struct {
	client  marketAPI
	metrics *metrics.Recorder
	logger  *logrus.Logger
}

func NewFetcher(client marketAPI, recorder *metrics.Recorder, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		metrics: recorder,
		logger:  logger,
	}
}

// FetchItemIDs fetches the tradable item catalog. A failure here is fatal to
// the caller's cycle, no partial catalog is usable.
func (f *Fetcher) FetchItemIDs(ctx context.Context) ([]string, error) {
	ids, err := f.client.ListItemIDs(ctx)
	if err != nil {
		f.metrics.RecordFetchError("catalog")
		return nil, fmt.Errorf("failed to fetch item catalog: %w", err)
	}

	itemIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			itemIDs = append(itemIDs, id)
		}
	}

	return itemIDs, nil
}

// FetchSnapshotRecords fetches the all-items snapshot and normalizes each
// product. The fetch instant is used for entries without timestamps.
func (f *Fetcher) FetchSnapshotRecords(ctx context.Context) ([]models.MarketRecord, error) {
	start := time.Now()

	products, err := f.client.FetchSnapshot(ctx)
	if err != nil {
		f.metrics.RecordFetchError("snapshot")
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	observedAt := time.Now().UTC()
	records := make([]models.MarketRecord, 0, len(products))
	parseErrors := 0

	for itemID, raw := range products {
		record, err := NormalizeSnapshotEntry(itemID, raw, observedAt)
		if err != nil {
			f.logger.WithFields(logrus.Fields{
				"item_id": itemID,
				"error":   err.Error(),
			}).Debug("Failed to normalize snapshot entry")
			parseErrors++
			continue
		}
		records = append(records, record)
	}

	f.metrics.RecordMalformedRecords(parseErrors)

	f.logger.WithFields(logrus.Fields{
		"total_products": len(products),
		"valid_records":  len(records),
		"parse_errors":   parseErrors,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Successfully fetched and normalized snapshot")

	return records, nil
}

// FetchItemHistory fetches and normalizes one item's history series,
// optionally bounded to a window.
func (f *Fetcher) FetchItemHistory(ctx context.Context, itemID string, from, to time.Time) ([]models.MarketRecord, error) {
	entries, err := f.client.FetchHistory(ctx, itemID, from, to)
	if err != nil {
		f.metrics.RecordFetchError("history")
		return nil, fmt.Errorf("failed to fetch history for %s: %w", itemID, err)
	}

	records := make([]models.MarketRecord, 0, len(entries))
	parseErrors := 0

	for _, raw := range entries {
		record, err := NormalizeHistoryEntry(itemID, raw)
		if err != nil {
			f.logger.WithFields(logrus.Fields{
				"item_id": itemID,
				"error":   err.Error(),
			}).Debug("Failed to normalize history entry")
			parseErrors++
			continue
		}
		records = append(records, record)
	}

	f.metrics.RecordMalformedRecords(parseErrors)

	if parseErrors > 0 {
		f.logger.WithFields(logrus.Fields{
			"item_id":      itemID,
			"parse_errors": parseErrors,
			"valid_count":  len(records),
		}).Warn("Some history entries were malformed")
	}

	return records, nil
}
