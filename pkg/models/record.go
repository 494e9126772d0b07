package models

import (
	"time"
)

// MarketRecord is one price/volume observation for one bazaar item at one
// instant. The natural key is (ItemID, Timestamp); it is not enforced by the
// store, so overlapping collection runs may produce duplicate rows.
//
// Numeric fields are never null in storage: values absent upstream are
// normalized to zero so the downstream aggregate queries stay well-defined.
type MarketRecord struct {
	ID        int64     `db:"id"`
	ItemID    string    `db:"item_id"`
	Timestamp time.Time `db:"timestamp"`

	BuyPrice   float64 `db:"buy_price"`
	SellPrice  float64 `db:"sell_price"`
	BuyVolume  int64   `db:"buy_volume"`
	SellVolume int64   `db:"sell_volume"`

	// Rolling 7-day traded volume, present only in snapshot responses.
	BuyMovingWeek  int64 `db:"buy_moving_week"`
	SellMovingWeek int64 `db:"sell_moving_week"`

	// Price extremes, present only in historical responses.
	MaxBuy  float64 `db:"max_buy"`
	MaxSell float64 `db:"max_sell"`
	MinBuy  float64 `db:"min_buy"`
	MinSell float64 `db:"min_sell"`

	CreatedAt time.Time `db:"created_at"`
}
