package collector

import (
	"encoding/json"
	"fmt"
	"time"

	"bazaar-trading-bot/pkg/coflnet"
	"bazaar-trading-bot/pkg/models"
)

// MalformedRecordError reports one upstream entry that could not be shaped
// into a MarketRecord. It is recoverable: callers log it and continue with
// the rest of the batch.
type MalformedRecordError struct {
	ItemID string
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("malformed record: %s", e.Reason)
	}
	return fmt.Sprintf("malformed record for %s: %s", e.ItemID, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// NormalizeSnapshotEntry shapes one snapshot product into a MarketRecord.
// itemID is the key the product was listed under; observedAt is stamped as
// the record time when the entry carries no timestamp of its own. Missing
// numeric fields become zero.
func NormalizeSnapshotEntry(itemID string, raw json.RawMessage, observedAt time.Time) (models.MarketRecord, error) {
	var entry coflnet.RawSnapshotEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return models.MarketRecord{}, &MalformedRecordError{ItemID: itemID, Reason: "undecodable entry", Err: err}
	}

	id := itemID
	if id == "" {
		id = firstString(entry.ItemID, entry.ItemIDAlt, entry.ProductID)
	}
	if id == "" {
		return models.MarketRecord{}, &MalformedRecordError{Reason: "no item id"}
	}

	timestamp := observedAt.UTC()
	if entry.Timestamp != nil && !entry.Timestamp.IsZero() {
		timestamp = entry.Timestamp.Time
	}

	return models.MarketRecord{
		ItemID:         id,
		Timestamp:      timestamp,
		BuyPrice:       firstFloat(entry.BuyPrice, entry.BuyPriceSnake, entry.Buy),
		SellPrice:      firstFloat(entry.SellPrice, entry.SellPriceSnake, entry.Sell),
		BuyVolume:      int64(firstFloat(entry.BuyVolume, entry.BuyVolumeSnake)),
		SellVolume:     int64(firstFloat(entry.SellVolume, entry.SellVolumeSnake)),
		BuyMovingWeek:  int64(firstFloat(entry.BuyMovingWeek, entry.BuyMovingWeekSnake)),
		SellMovingWeek: int64(firstFloat(entry.SellMovingWeek, entry.SellMovingWeekSnake)),
	}, nil
}

// NormalizeHistoryEntry shapes one history entry into a MarketRecord. The id
// of the enclosing fetch wins over any id embedded in the entry; a history
// entry without a timestamp is rejected rather than stamped.
func NormalizeHistoryEntry(itemID string, raw json.RawMessage) (models.MarketRecord, error) {
	var entry coflnet.RawHistoryEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return models.MarketRecord{}, &MalformedRecordError{ItemID: itemID, Reason: "undecodable entry", Err: err}
	}

	id := itemID
	if id == "" {
		id = firstString(entry.ItemID, entry.ItemIDAlt, entry.ProductID)
	}
	if id == "" {
		return models.MarketRecord{}, &MalformedRecordError{Reason: "no item id"}
	}

	if entry.Timestamp == nil || entry.Timestamp.IsZero() {
		return models.MarketRecord{}, &MalformedRecordError{ItemID: id, Reason: "missing timestamp"}
	}

	return models.MarketRecord{
		ItemID:     id,
		Timestamp:  entry.Timestamp.Time,
		BuyPrice:   firstFloat(entry.BuyPrice, entry.BuyPriceSnake, entry.Buy),
		SellPrice:  firstFloat(entry.SellPrice, entry.SellPriceSnake, entry.Sell),
		BuyVolume:  int64(firstFloat(entry.BuyVolume, entry.BuyVolumeSnake)),
		SellVolume: int64(firstFloat(entry.SellVolume, entry.SellVolumeSnake)),
		MaxBuy:     firstFloat(entry.MaxBuy, entry.MaxBuySnake),
		MaxSell:    firstFloat(entry.MaxSell, entry.MaxSellSnake),
		MinBuy:     firstFloat(entry.MinBuy, entry.MinBuySnake),
		MinSell:    firstFloat(entry.MinSell, entry.MinSellSnake),
	}, nil
}

// firstFloat returns the first set alias, most specific first.
func firstFloat(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
