package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bazaar-trading-bot/pkg/models"
)

// Read-side analysis queries over the collected series. Lookback windows are
// formatted into the INTERVAL literal because the driver cannot bind interval
// parameters; the values come from configuration, never from request input.

// HighVolumeItems finds items whose average order volume clears minVolume on
// either side of the book.
func (r *Repository) HighVolumeItems(ctx context.Context, minVolume float64, limit int) ([]models.ItemVolumeStats, error) {
	query := `
        SELECT item_id,
               AVG(buy_volume) as avg_buy_volume,
               AVG(sell_volume) as avg_sell_volume,
               AVG(buy_price) as avg_buy_price,
               AVG(sell_price) as avg_sell_price
        FROM bazaar_items
        GROUP BY item_id
        HAVING AVG(buy_volume) > $1 OR AVG(sell_volume) > $1
        ORDER BY (AVG(buy_volume) + AVG(sell_volume)) DESC
        LIMIT $2
    `

	rows, err := r.db.QueryContext(ctx, query, minVolume, limit)
	if err != nil {
		return nil, newPersistenceError("query high volume items", err)
	}
	defer rows.Close()

	var stats []models.ItemVolumeStats
	for rows.Next() {
		var s models.ItemVolumeStats
		if err := rows.Scan(&s.ItemID, &s.AvgBuyVolume, &s.AvgSellVolume, &s.AvgBuyPrice, &s.AvgSellPrice); err != nil {
			r.logger.WithError(err).Error("Failed to scan volume stats")
			continue
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("iterate high volume items", err)
	}

	return stats, nil
}

// ItemVolatility computes the standard deviation of period-over-period price
// changes per item inside the lookback window. Items with too few
// observations are dropped.
func (r *Repository) ItemVolatility(ctx context.Context, lookbackDays, minDataPoints, limit int) ([]models.ItemVolatility, error) {
	query := fmt.Sprintf(`
        WITH price_changes AS (
            SELECT item_id,
                   timestamp,
                   buy_price,
                   sell_price,
                   LAG(buy_price) OVER (PARTITION BY item_id ORDER BY timestamp) as prev_buy,
                   LAG(sell_price) OVER (PARTITION BY item_id ORDER BY timestamp) as prev_sell
            FROM bazaar_items
            WHERE timestamp >= NOW() - INTERVAL '%d days'
        )
        SELECT item_id,
               COUNT(*) as data_points,
               COALESCE(STDDEV(NULLIF(((buy_price - prev_buy) / NULLIF(prev_buy, 0)) * 100, 0)), 0) as buy_volatility,
               COALESCE(STDDEV(NULLIF(((sell_price - prev_sell) / NULLIF(prev_sell, 0)) * 100, 0)), 0) as sell_volatility,
               AVG(buy_price) as avg_buy_price,
               AVG(sell_price) as avg_sell_price
        FROM price_changes
        GROUP BY item_id
        HAVING COUNT(*) > $1
        ORDER BY (COALESCE(STDDEV(NULLIF(((buy_price - prev_buy) / NULLIF(prev_buy, 0)) * 100, 0)), 0) +
                  COALESCE(STDDEV(NULLIF(((sell_price - prev_sell) / NULLIF(prev_sell, 0)) * 100, 0)), 0)) DESC
        LIMIT $2
    `, lookbackDays)

	rows, err := r.db.QueryContext(ctx, query, minDataPoints, limit)
	if err != nil {
		return nil, newPersistenceError("query item volatility", err)
	}
	defer rows.Close()

	var items []models.ItemVolatility
	for rows.Next() {
		var v models.ItemVolatility
		if err := rows.Scan(&v.ItemID, &v.DataPoints, &v.BuyVolatility, &v.SellVolatility, &v.AvgBuyPrice, &v.AvgSellPrice); err != nil {
			r.logger.WithError(err).Error("Failed to scan volatility row")
			continue
		}
		items = append(items, v)
	}

	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("iterate item volatility", err)
	}

	return items, nil
}

// FlipOpportunities ranks items by the spread between their window-low buy
// price and window-high sell price, keeping only items traded heavily enough
// to enter and exit a position.
func (r *Repository) FlipOpportunities(ctx context.Context, lookbackDays int, minVolume float64, limit int) ([]models.FlipOpportunity, error) {
	query := fmt.Sprintf(`
        WITH price_stats AS (
            SELECT item_id,
                   AVG(buy_price) as avg_buy,
                   AVG(sell_price) as avg_sell,
                   MIN(buy_price) as min_buy,
                   MAX(sell_price) as max_sell,
                   STDDEV(buy_price) as std_buy,
                   STDDEV(sell_price) as std_sell,
                   AVG(buy_volume) as avg_buy_volume,
                   AVG(sell_volume) as avg_sell_volume
            FROM bazaar_items
            WHERE timestamp >= NOW() - INTERVAL '%d days'
            GROUP BY item_id
        )
        SELECT item_id,
               avg_buy,
               avg_sell,
               min_buy,
               max_sell,
               COALESCE(((max_sell - min_buy) / NULLIF(min_buy, 0)) * 100, 0) as potential_profit_percent,
               avg_buy_volume,
               avg_sell_volume,
               COALESCE(std_buy / NULLIF(avg_buy, 0) * 100, 0) as buy_cv,
               COALESCE(std_sell / NULLIF(avg_sell, 0) * 100, 0) as sell_cv
        FROM price_stats
        WHERE avg_buy_volume > $1 AND avg_sell_volume > $1
        ORDER BY potential_profit_percent DESC
        LIMIT $2
    `, lookbackDays)

	rows, err := r.db.QueryContext(ctx, query, minVolume, limit)
	if err != nil {
		return nil, newPersistenceError("query flip opportunities", err)
	}
	defer rows.Close()

	var opportunities []models.FlipOpportunity
	for rows.Next() {
		var o models.FlipOpportunity
		err := rows.Scan(&o.ItemID, &o.AvgBuy, &o.AvgSell, &o.MinBuy, &o.MaxSell,
			&o.ProfitPercent, &o.AvgBuyVolume, &o.AvgSellVolume, &o.BuyCV, &o.SellCV)
		if err != nil {
			r.logger.WithError(err).Error("Failed to scan flip opportunity")
			continue
		}
		opportunities = append(opportunities, o)
	}

	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("iterate flip opportunities", err)
	}

	return opportunities, nil
}

// GetRecentPrices returns the chronological price series of one item inside
// the lookback window.
func (r *Repository) GetRecentPrices(ctx context.Context, itemID string, lookbackDays int) ([]models.PricePoint, error) {
	query := fmt.Sprintf(`
        SELECT timestamp, buy_price, sell_price
        FROM bazaar_items
        WHERE item_id = $1
          AND timestamp >= NOW() - INTERVAL '%d days'
        ORDER BY timestamp ASC
    `, lookbackDays)

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, newPersistenceError("query recent prices", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Timestamp, &p.BuyPrice, &p.SellPrice); err != nil {
			r.logger.WithError(err).WithField("item_id", itemID).Error("Failed to scan price point")
			continue
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("iterate recent prices", err)
	}

	return points, nil
}

// ReplaceFlipCandidates swaps the active candidate set for the given one in a
// single transaction. Previous candidates are kept as inactive rows.
func (r *Repository) ReplaceFlipCandidates(ctx context.Context, candidates []models.FlipCandidate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return newPersistenceError("begin candidate update", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "UPDATE flip_candidates SET status = 'inactive', last_evaluated = NOW()")
	if err != nil {
		return newPersistenceError("deactivate candidates", err)
	}

	if len(candidates) > 0 {
		query := `
            INSERT INTO flip_candidates
            (item_id, avg_buy_price, avg_sell_price, spread_margin, margin_percent,
             avg_buy_volume, avg_sell_volume, volatility, volume_score, flip_score,
             status, selected_at, last_evaluated)
            VALUES `

		values := make([]string, 0, len(candidates))
		args := make([]interface{}, 0, len(candidates)*13)

		for i, c := range candidates {
			values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				i*13+1, i*13+2, i*13+3, i*13+4, i*13+5, i*13+6, i*13+7, i*13+8, i*13+9, i*13+10, i*13+11, i*13+12, i*13+13))

			args = append(args, c.ItemID, c.AvgBuyPrice, c.AvgSellPrice, c.SpreadMargin, c.MarginPercent,
				c.AvgBuyVolume, c.AvgSellVolume, c.Volatility, c.VolumeScore, c.FlipScore,
				"active", time.Now(), time.Now())
		}

		query += strings.Join(values, ", ")
		query += ` ON CONFLICT (item_id) DO UPDATE SET
            avg_buy_price = EXCLUDED.avg_buy_price,
            avg_sell_price = EXCLUDED.avg_sell_price,
            spread_margin = EXCLUDED.spread_margin,
            margin_percent = EXCLUDED.margin_percent,
            avg_buy_volume = EXCLUDED.avg_buy_volume,
            avg_sell_volume = EXCLUDED.avg_sell_volume,
            volatility = EXCLUDED.volatility,
            volume_score = EXCLUDED.volume_score,
            flip_score = EXCLUDED.flip_score,
            status = EXCLUDED.status,
            selected_at = EXCLUDED.selected_at,
            last_evaluated = EXCLUDED.last_evaluated`

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return newPersistenceError("insert candidates", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newPersistenceError("commit candidate update", err)
	}

	r.logger.WithField("flip_candidates", len(candidates)).Info("Successfully updated flip candidates")
	return nil
}

// ActiveFlipCandidates returns the current selection, best score first.
func (r *Repository) ActiveFlipCandidates(ctx context.Context) ([]models.FlipCandidate, error) {
	query := `
        SELECT id, item_id, avg_buy_price, avg_sell_price, spread_margin, margin_percent,
               avg_buy_volume, avg_sell_volume, volatility, volume_score, flip_score,
               status, selected_at, last_evaluated
        FROM flip_candidates
        WHERE status = 'active'
        ORDER BY flip_score DESC
    `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, newPersistenceError("query flip candidates", err)
	}
	defer rows.Close()

	var candidates []models.FlipCandidate
	for rows.Next() {
		var c models.FlipCandidate
		err := rows.Scan(
			&c.ID, &c.ItemID, &c.AvgBuyPrice, &c.AvgSellPrice, &c.SpreadMargin, &c.MarginPercent,
			&c.AvgBuyVolume, &c.AvgSellVolume, &c.Volatility, &c.VolumeScore, &c.FlipScore,
			&c.Status, &c.SelectedAt, &c.LastEvaluated,
		)
		if err != nil {
			r.logger.WithError(err).Error("Failed to scan flip candidate")
			continue
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, newPersistenceError("iterate flip candidates", err)
	}

	return candidates, nil
}
