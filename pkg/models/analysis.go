package models

import (
	"time"

	"bazaar-trading-bot/pkg/database"
)

// PricePoint is the slim row shape the analyzer pulls when it scores a
// single item's recent series.
type PricePoint struct {
	Timestamp time.Time
	BuyPrice  float64
	SellPrice float64
}

// ItemVolumeStats aggregates traded volume and price per item over the
// analysis window.
type ItemVolumeStats struct {
	ItemID        string
	AvgBuyVolume  float64
	AvgSellVolume float64
	AvgBuyPrice   float64
	AvgSellPrice  float64
}

// ItemVolatility holds the STDDEV-of-returns volatility computed in SQL over
// period-over-period price deltas.
type ItemVolatility struct {
	ItemID         string
	DataPoints     int64
	BuyVolatility  float64
	SellVolatility float64
	AvgBuyPrice    float64
	AvgSellPrice   float64
}

// FlipOpportunity is one row of the opportunity query: spread and dispersion
// stats for an item with enough traded volume to flip.
type FlipOpportunity struct {
	ItemID        string
	AvgBuy        float64
	AvgSell       float64
	MinBuy        float64
	MaxSell       float64
	ProfitPercent float64
	AvgBuyVolume  float64
	AvgSellVolume float64
	BuyCV         float64
	SellCV        float64
}

// FlipCandidate is the scored, persisted output of one analysis cycle.
// SpreadMargin is kept as a decimal so coin margins survive storage without
// float drift.
type FlipCandidate struct {
	ID            int64            `db:"id"`
	ItemID        string           `db:"item_id"`
	AvgBuyPrice   float64          `db:"avg_buy_price"`
	AvgSellPrice  float64          `db:"avg_sell_price"`
	SpreadMargin  database.Decimal `db:"spread_margin"`
	MarginPercent float64          `db:"margin_percent"`
	AvgBuyVolume  float64          `db:"avg_buy_volume"`
	AvgSellVolume float64          `db:"avg_sell_volume"`
	Volatility    float64          `db:"volatility"`
	VolumeScore   float64          `db:"volume_score"`
	FlipScore     float64          `db:"flip_score"`
	Status        string           `db:"status"`
	SelectedAt    time.Time        `db:"selected_at"`
	LastEvaluated time.Time        `db:"last_evaluated"`
}
