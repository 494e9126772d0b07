package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bazaar-trading-bot/pkg/database"
	"bazaar-trading-bot/pkg/models"
)

const defaultInsertBatch = 1000

// Repository is the only writer of the bazaar_items table. Inserts are plain
// appends: no ON CONFLICT, no existence probe. Overlapping collection runs
// may therefore produce duplicate (item_id, timestamp) rows, which downstream
// queries tolerate.
type Repository struct {
	db        *database.DB
	logger    *logrus.Logger
	batchSize int
}

func NewRepository(db *database.DB, batchSize int, logger *logrus.Logger) *Repository {
	if batchSize <= 0 {
		batchSize = defaultInsertBatch
	}
	return &Repository{
		db:        db,
		logger:    logger,
		batchSize: batchSize,
	}
}

// InsertRecords writes the whole batch in one transaction. Any failure rolls
// every row back; on success the number of rows written is returned.
func (r *Repository) InsertRecords(ctx context.Context, records []models.MarketRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	start := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, newPersistenceError("begin insert", err)
	}
	defer tx.Rollback()

	for chunkStart := 0; chunkStart < len(records); chunkStart += r.batchSize {
		chunkEnd := chunkStart + r.batchSize
		if chunkEnd > len(records) {
			chunkEnd = len(records)
		}

		query, args := buildInsertQuery(records[chunkStart:chunkEnd])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithError(err).Error("Failed to insert market records")
			return 0, newPersistenceError("insert records", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, newPersistenceError("commit insert", err)
	}

	r.logger.WithFields(logrus.Fields{
		"records_count": len(records),
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("Successfully inserted market records")

	return len(records), nil
}

func buildInsertQuery(records []models.MarketRecord) (string, []interface{}) {
	query := `
        INSERT INTO bazaar_items (item_id, timestamp, buy_price, sell_price, buy_volume, sell_volume, buy_moving_week, sell_moving_week, max_buy, max_sell, min_buy, min_sell)
        VALUES `

	values := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*12)

	for i, record := range records {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			i*12+1, i*12+2, i*12+3, i*12+4, i*12+5, i*12+6, i*12+7, i*12+8, i*12+9, i*12+10, i*12+11, i*12+12))

		args = append(args, record.ItemID, record.Timestamp, record.BuyPrice, record.SellPrice,
			record.BuyVolume, record.SellVolume, record.BuyMovingWeek, record.SellMovingWeek,
			record.MaxBuy, record.MaxSell, record.MinBuy, record.MinSell)
	}

	return query + strings.Join(values, ", "), args
}

// GetRecords reads stored observations, optionally filtered to one item and a
// time window. Zero times and an empty item id leave the corresponding filter
// off; limit <= 0 means no limit.
func (r *Repository) GetRecords(ctx context.Context, itemID string, from, to time.Time, limit int) ([]models.MarketRecord, error) {
	query := `
        SELECT id, item_id, timestamp, buy_price, sell_price, buy_volume, sell_volume,
               buy_moving_week, sell_moving_week, max_buy, max_sell, min_buy, min_sell, created_at
        FROM bazaar_items`

	var conditions []string
	var args []interface{}

	if itemID != "" {
		args = append(args, itemID)
		conditions = append(conditions, fmt.Sprintf("item_id = $%d", len(args)))
	}
	if !from.IsZero() {
		args = append(args, from)
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to)
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY item_id, timestamp"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newPersistenceError("query records", err)
	}
	defer rows.Close()

	var records []models.MarketRecord
	for rows.Next() {
		var record models.MarketRecord
		err := rows.Scan(
			&record.ID, &record.ItemID, &record.Timestamp, &record.BuyPrice, &record.SellPrice,
			&record.BuyVolume, &record.SellVolume, &record.BuyMovingWeek, &record.SellMovingWeek,
			&record.MaxBuy, &record.MaxSell, &record.MinBuy, &record.MinSell, &record.CreatedAt,
		)
		if err != nil {
			r.logger.WithError(err).Error("Failed to scan market record")
			continue
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("iterate records", err)
	}

	return records, nil
}
