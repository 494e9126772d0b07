package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"bazaar-trading-bot/internal/config"
	bazaarDB "bazaar-trading-bot/internal/database"
	"bazaar-trading-bot/pkg/database"
	"bazaar-trading-bot/pkg/utils"
)

func main() {
	var (
		itemID     = flag.String("item", "", "item id filter, empty exports every item")
		fromArg    = flag.String("from", "", "window start (RFC3339 or unix timestamp)")
		toArg      = flag.String("to", "", "window end (RFC3339 or unix timestamp)")
		limit      = flag.Int("limit", 0, "max rows, 0 means unlimited")
		candidates = flag.Bool("candidates", false, "export active flip candidates instead of raw records")
		outPath    = flag.String("o", "", "output file, empty writes to stdout")
	)
	flag.Parse()

	// Initialize logger
	logger := utils.NewLogger("bazaar-export")

	// Load configuration
	cfg := config.Load()

	from := parseTimeArg(logger, "from", *fromArg)
	to := parseTimeArg(logger, "to", *toArg)

	// Initialize database connection
	db, err := database.NewConnection(cfg.DbURI, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repo := bazaarDB.NewRepository(db, cfg.BatchSize, logger)

	out := io.Writer(os.Stdout)
	dest := "stdout"
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create output file")
		}
		defer f.Close()
		out = f
		dest = *outPath
	}

	ctx := context.Background()

	var rows int
	if *candidates {
		rows, err = exportCandidates(ctx, repo, out)
	} else {
		rows, err = exportRecords(ctx, repo, out, *itemID, from, to, *limit)
	}
	if err != nil {
		logger.WithError(err).Fatal("Export failed")
	}

	logger.WithFields(logrus.Fields{
		"rows":   rows,
		"output": dest,
	}).Info("Export completed")
}

func parseTimeArg(logger *logrus.Logger, name, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, ok := utils.ParseTime(value)
	if !ok {
		logger.WithField(name, value).Fatal("Unrecognized timestamp")
	}
	return parsed
}

func exportRecords(ctx context.Context, repo *bazaarDB.Repository, out io.Writer, itemID string, from, to time.Time, limit int) (int, error) {
	records, err := repo.GetRecords(ctx, itemID, from, to, limit)
	if err != nil {
		return 0, err
	}

	w := csv.NewWriter(out)
	header := []string{
		"item_id", "timestamp", "buy_price", "sell_price", "buy_volume", "sell_volume",
		"buy_moving_week", "sell_moving_week", "max_buy", "max_sell", "min_buy", "min_sell",
	}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	for _, r := range records {
		row := []string{
			r.ItemID,
			r.Timestamp.UTC().Format(time.RFC3339),
			formatFloat(r.BuyPrice),
			formatFloat(r.SellPrice),
			strconv.FormatInt(r.BuyVolume, 10),
			strconv.FormatInt(r.SellVolume, 10),
			strconv.FormatInt(r.BuyMovingWeek, 10),
			strconv.FormatInt(r.SellMovingWeek, 10),
			formatFloat(r.MaxBuy),
			formatFloat(r.MaxSell),
			formatFloat(r.MinBuy),
			formatFloat(r.MinSell),
		}
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}

	w.Flush()
	return len(records), w.Error()
}

func exportCandidates(ctx context.Context, repo *bazaarDB.Repository, out io.Writer) (int, error) {
	list, err := repo.ActiveFlipCandidates(ctx)
	if err != nil {
		return 0, err
	}

	w := csv.NewWriter(out)
	header := []string{
		"item_id", "avg_buy_price", "avg_sell_price", "spread_margin", "margin_percent",
		"avg_buy_volume", "avg_sell_volume", "volatility", "volume_score", "flip_score",
		"status", "selected_at", "last_evaluated",
	}
	if err := w.Write(header); err != nil {
		return 0, err
	}

	for _, c := range list {
		row := []string{
			c.ItemID,
			formatFloat(c.AvgBuyPrice),
			formatFloat(c.AvgSellPrice),
			c.SpreadMargin.String(),
			formatFloat(c.MarginPercent),
			formatFloat(c.AvgBuyVolume),
			formatFloat(c.AvgSellVolume),
			formatFloat(c.Volatility),
			formatFloat(c.VolumeScore),
			formatFloat(c.FlipScore),
			c.Status,
			c.SelectedAt.UTC().Format(time.RFC3339),
			c.LastEvaluated.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}

	w.Flush()
	return len(list), w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
