package coflnet

import (
	"encoding/json"
	"fmt"
	"time"

	"bazaar-trading-bot/pkg/utils"
)

// Wire shapes for the bazaar endpoints. The API has shipped more than one
// casing for the same field over time, so every known alias is declared as a
// pointer and left nil when absent. Callers decide which alias wins when
// several are present.

// RawSnapshotEntry is one product object from the all-items snapshot.
type RawSnapshotEntry struct {
	ItemID    *string `json:"itemId"`
	ItemIDAlt *string `json:"item_id"`
	ProductID *string `json:"productId"`

	BuyPrice      *float64 `json:"buyPrice"`
	BuyPriceSnake *float64 `json:"buy_price"`
	Buy           *float64 `json:"buy"`

	SellPrice      *float64 `json:"sellPrice"`
	SellPriceSnake *float64 `json:"sell_price"`
	Sell           *float64 `json:"sell"`

	BuyVolume      *float64 `json:"buyVolume"`
	BuyVolumeSnake *float64 `json:"buy_volume"`

	SellVolume      *float64 `json:"sellVolume"`
	SellVolumeSnake *float64 `json:"sell_volume"`

	BuyMovingWeek      *float64 `json:"buyMovingWeek"`
	BuyMovingWeekSnake *float64 `json:"buy_moving_week"`

	SellMovingWeek      *float64 `json:"sellMovingWeek"`
	SellMovingWeekSnake *float64 `json:"sell_moving_week"`

	Timestamp *FlexTime `json:"timestamp"`
}

// RawHistoryEntry is one aggregated observation from the per-item history
// endpoint.
type RawHistoryEntry struct {
	ItemID    *string `json:"itemId"`
	ItemIDAlt *string `json:"item_id"`
	ProductID *string `json:"productId"`

	BuyPrice      *float64 `json:"buyPrice"`
	BuyPriceSnake *float64 `json:"buy_price"`
	Buy           *float64 `json:"buy"`

	SellPrice      *float64 `json:"sellPrice"`
	SellPriceSnake *float64 `json:"sell_price"`
	Sell           *float64 `json:"sell"`

	BuyVolume      *float64 `json:"buyVolume"`
	BuyVolumeSnake *float64 `json:"buy_volume"`

	SellVolume      *float64 `json:"sellVolume"`
	SellVolumeSnake *float64 `json:"sell_volume"`

	MaxBuy      *float64 `json:"maxBuy"`
	MaxBuySnake *float64 `json:"max_buy"`

	MaxSell      *float64 `json:"maxSell"`
	MaxSellSnake *float64 `json:"max_sell"`

	MinBuy      *float64 `json:"minBuy"`
	MinBuySnake *float64 `json:"min_buy"`

	MinSell      *float64 `json:"minSell"`
	MinSellSnake *float64 `json:"min_sell"`

	Timestamp *FlexTime `json:"timestamp"`
}

// FlexTime unmarshals the two timestamp encodings the API uses: an epoch
// value in milliseconds as a JSON number, or a textual date. JSON null maps
// to the zero time so callers can detect an absent stamp with IsZero.
type FlexTime struct {
	time.Time
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, ok := utils.ParseTime(s)
		if !ok {
			return fmt.Errorf("unrecognized timestamp format %q", s)
		}
		t.Time = parsed.UTC()
		return nil
	}
	var millis float64
	if err := json.Unmarshal(data, &millis); err != nil {
		return fmt.Errorf("parse timestamp %s: %w", string(data), err)
	}
	t.Time = time.UnixMilli(int64(millis)).UTC()
	return nil
}
