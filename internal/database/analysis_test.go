package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar-trading-bot/pkg/database"
	"bazaar-trading-bot/pkg/models"
)

func TestRepository_HighVolumeItems(t *testing.T) {
	repo, mock := newTestRepository(t, 0)

	rows := sqlmock.NewRows([]string{"item_id", "avg_buy_volume", "avg_sell_volume", "avg_buy_price", "avg_sell_price"}).
		AddRow("ENCHANTED_LAPIS_LAZULI", 5000.0, 4800.0, 1.8, 1.6).
		AddRow("WHEAT", 2500.0, 2100.0, 4.2, 3.9)

	mock.ExpectQuery("SELECT item_id,").WithArgs(1000.0, 10).WillReturnRows(rows)

	stats, err := repo.HighVolumeItems(context.Background(), 1000, 10)

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "ENCHANTED_LAPIS_LAZULI", stats[0].ItemID)
	assert.Equal(t, 5000.0, stats[0].AvgBuyVolume)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ItemVolatility(t *testing.T) {
	repo, mock := newTestRepository(t, 0)

	rows := sqlmock.NewRows([]string{"item_id", "data_points", "buy_volatility", "sell_volatility", "avg_buy_price", "avg_sell_price"}).
		AddRow("ENCHANTED_EMERALD", 320, 4.7, 5.1, 120.0, 118.5)

	mock.ExpectQuery("WITH price_changes AS").WithArgs(10, 20).WillReturnRows(rows)

	items, err := repo.ItemVolatility(context.Background(), 7, 10, 20)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(320), items[0].DataPoints)
	assert.Equal(t, 4.7, items[0].BuyVolatility)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FlipOpportunities(t *testing.T) {
	repo, mock := newTestRepository(t, 0)

	rows := sqlmock.NewRows([]string{
		"item_id", "avg_buy", "avg_sell", "min_buy", "max_sell",
		"potential_profit_percent", "avg_buy_volume", "avg_sell_volume", "buy_cv", "sell_cv",
	}).AddRow("INK_SACK:3", 2.4, 2.1, 2.0, 2.6, 30.0, 3200.0, 2900.0, 8.5, 7.9)

	mock.ExpectQuery("WITH price_stats AS").WithArgs(1000.0, 60).WillReturnRows(rows)

	opportunities, err := repo.FlipOpportunities(context.Background(), 7, 1000, 60)

	require.NoError(t, err)
	require.Len(t, opportunities, 1)
	assert.Equal(t, "INK_SACK:3", opportunities[0].ItemID)
	assert.Equal(t, 30.0, opportunities[0].ProfitPercent)
	assert.Equal(t, 2.0, opportunities[0].MinBuy)
	assert.Equal(t, 2.6, opportunities[0].MaxSell)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetRecentPrices(t *testing.T) {
	repo, mock := newTestRepository(t, 0)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"timestamp", "buy_price", "sell_price"}).
		AddRow(base, 10.0, 9.5).
		AddRow(base.Add(time.Hour), 10.4, 9.8)

	mock.ExpectQuery("SELECT timestamp, buy_price, sell_price").WithArgs("WHEAT").WillReturnRows(rows)

	points, err := repo.GetRecentPrices(context.Background(), "WHEAT", 7)

	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].Timestamp.Before(points[1].Timestamp))
	assert.Equal(t, 10.0, points[0].BuyPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ReplaceFlipCandidates(t *testing.T) {
	candidate := models.FlipCandidate{
		ItemID:        "INK_SACK:3",
		AvgBuyPrice:   2.4,
		AvgSellPrice:  2.1,
		SpreadMargin:  database.Decimal{Decimal: decimal.NewFromFloat(0.6)},
		MarginPercent: 30.0,
		FlipScore:     0.72,
	}

	t.Run("deactivates then upserts in one transaction", func(t *testing.T) {
		repo, mock := newTestRepository(t, 0)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE flip_candidates SET status = 'inactive'").WillReturnResult(sqlmock.NewResult(0, 4))
		mock.ExpectExec("INSERT INTO flip_candidates").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.ReplaceFlipCandidates(context.Background(), []models.FlipCandidate{candidate})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty selection only deactivates", func(t *testing.T) {
		repo, mock := newTestRepository(t, 0)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE flip_candidates SET status = 'inactive'").WillReturnResult(sqlmock.NewResult(0, 4))
		mock.ExpectCommit()

		err := repo.ReplaceFlipCandidates(context.Background(), nil)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls the deactivation back", func(t *testing.T) {
		repo, mock := newTestRepository(t, 0)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE flip_candidates SET status = 'inactive'").WillReturnResult(sqlmock.NewResult(0, 4))
		mock.ExpectExec("INSERT INTO flip_candidates").WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		err := repo.ReplaceFlipCandidates(context.Background(), []models.FlipCandidate{candidate})

		var persistErr *PersistenceError
		require.ErrorAs(t, err, &persistErr)
		assert.Equal(t, "insert candidates", persistErr.Op)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ActiveFlipCandidates(t *testing.T) {
	repo, mock := newTestRepository(t, 0)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "item_id", "avg_buy_price", "avg_sell_price", "spread_margin", "margin_percent",
		"avg_buy_volume", "avg_sell_volume", "volatility", "volume_score", "flip_score",
		"status", "selected_at", "last_evaluated",
	}).AddRow(7, "INK_SACK:3", 2.4, 2.1, "0.60", 30.0, 3200.0, 2900.0, 4.2, 0.5, 0.72, "active", now, now)

	mock.ExpectQuery("SELECT id, item_id, avg_buy_price").WillReturnRows(rows)

	candidates, err := repo.ActiveFlipCandidates(context.Background())

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "INK_SACK:3", candidates[0].ItemID)
	assert.Equal(t, "0.6", candidates[0].SpreadMargin.String())
	assert.Equal(t, 0.72, candidates[0].FlipScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
