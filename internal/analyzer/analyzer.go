package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"bazaar-trading-bot/internal/config"
	"bazaar-trading-bot/pkg/database"
	"bazaar-trading-bot/pkg/models"
	"bazaar-trading-bot/pkg/utils"
)

// Volatility percent band considered workable for flips. Items outside it
// are either flat or too erratic to fill both sides of the spread.
const (
	minUsefulVolatility = 0.5
	maxUsefulVolatility = 25.0
)

const reportSize = 10

// Repository is the store surface the analyzer reads aggregates from and
// writes candidate selections to.
type Repository interface {
	HighVolumeItems(ctx context.Context, minVolume float64, limit int) ([]models.ItemVolumeStats, error)
	ItemVolatility(ctx context.Context, lookbackDays, minDataPoints, limit int) ([]models.ItemVolatility, error)
	FlipOpportunities(ctx context.Context, lookbackDays int, minVolume float64, limit int) ([]models.FlipOpportunity, error)
	GetRecentPrices(ctx context.Context, itemID string, lookbackDays int) ([]models.PricePoint, error)
	ReplaceFlipCandidates(ctx context.Context, candidates []models.FlipCandidate) error
}

// Analyzer turns the collected series into a ranked flip candidate list.
// SQL pre-aggregates spreads and volumes, Go re-scores the shortlist with
// decimal margins and recent-series volatility.
type Analyzer struct {
	repo   Repository
	scorer *Scorer
	config config.AnalysisConfig
	logger *logrus.Logger
}

func NewAnalyzer(repo Repository, cfg config.AnalysisConfig, logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		repo:   repo,
		scorer: NewScorer(logger),
		config: cfg,
		logger: logger,
	}
}

// AnalyzeMarket evaluates the current flip opportunities and returns the
// best candidates, highest score first, at most MaxCandidates of them.
func (a *Analyzer) AnalyzeMarket(ctx context.Context) ([]models.FlipCandidate, error) {
	// Overselect, then let margin and data-point filters thin the list.
	opportunities, err := a.repo.FlipOpportunities(ctx, a.config.LookbackDays, a.config.MinVolume, a.config.MaxCandidates*3)
	if err != nil {
		return nil, fmt.Errorf("failed to query flip opportunities: %w", err)
	}

	candidates := make([]models.FlipCandidate, 0, len(opportunities))
	for _, opp := range opportunities {
		candidate, err := a.evaluateOpportunity(ctx, opp)
		if err != nil {
			a.logger.WithError(err).WithField("item_id", opp.ItemID).Warn("Skipping flip opportunity")
			continue
		}
		if candidate == nil {
			continue
		}
		candidates = append(candidates, *candidate)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].FlipScore > candidates[j].FlipScore
	})

	if len(candidates) > a.config.MaxCandidates {
		candidates = candidates[:a.config.MaxCandidates]
	}

	a.logger.WithFields(logrus.Fields{
		"opportunities": len(opportunities),
		"candidates":    len(candidates),
	}).Info("Market analysis produced flip candidates")

	return candidates, nil
}

func (a *Analyzer) evaluateOpportunity(ctx context.Context, opp models.FlipOpportunity) (*models.FlipCandidate, error) {
	if opp.ProfitPercent < a.config.MinMarginPercent {
		return nil, nil
	}

	points, err := a.repo.GetRecentPrices(ctx, opp.ItemID, a.config.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent prices: %w", err)
	}
	if len(points) < a.config.MinDataPoints {
		return nil, nil
	}

	buyPrices := make([]float64, len(points))
	for i, p := range points {
		buyPrices[i] = p.BuyPrice
	}
	volatility := utils.CalculateVolatility(buyPrices) * 100

	// Margin arithmetic in decimals: top items trade at hundreds of millions
	// of coins, where float64 spread subtraction loses coin precision.
	spread := utils.FloatToDecimal(opp.MaxSell).Sub(utils.FloatToDecimal(opp.MinBuy))

	volumeScore := a.scorer.CalculateVolumeScore(math.Min(opp.AvgBuyVolume, opp.AvgSellVolume), a.config.MinVolume)
	marginScore := a.scorer.CalculateMarginScore(opp.ProfitPercent, a.config.MinMarginPercent)
	volatilityScore := a.scorer.CalculateVolatilityScore(volatility, minUsefulVolatility, maxUsefulVolatility)
	flipScore := a.scorer.CalculateFlipScore(volumeScore, marginScore, volatilityScore, a.config)

	return &models.FlipCandidate{
		ItemID:        opp.ItemID,
		AvgBuyPrice:   opp.AvgBuy,
		AvgSellPrice:  opp.AvgSell,
		SpreadMargin:  database.Decimal{Decimal: spread.Round(2)},
		MarginPercent: utils.NormalizeTo(opp.ProfitPercent, 2),
		AvgBuyVolume:  opp.AvgBuyVolume,
		AvgSellVolume: opp.AvgSellVolume,
		Volatility:    utils.NormalizeTo(volatility, 4),
		VolumeScore:   utils.NormalizeTo(volumeScore, 4),
		FlipScore:     utils.NormalizeTo(flipScore, 4),
		Status:        "active",
	}, nil
}

// LogMarketReport logs the current volume and volatility leaders so
// operators can eyeball the market without querying the store.
func (a *Analyzer) LogMarketReport(ctx context.Context) {
	highVolume, err := a.repo.HighVolumeItems(ctx, a.config.MinVolume, reportSize)
	if err != nil {
		a.logger.WithError(err).Error("Failed to query high volume items")
	} else {
		for i, item := range highVolume {
			a.logger.WithFields(logrus.Fields{
				"rank":            i + 1,
				"item_id":         item.ItemID,
				"avg_buy_volume":  item.AvgBuyVolume,
				"avg_sell_volume": item.AvgSellVolume,
				"avg_buy_price":   item.AvgBuyPrice,
			}).Info("High volume item")
		}
	}

	volatile, err := a.repo.ItemVolatility(ctx, a.config.LookbackDays, a.config.MinDataPoints, reportSize)
	if err != nil {
		a.logger.WithError(err).Error("Failed to query item volatility")
	} else {
		for i, item := range volatile {
			a.logger.WithFields(logrus.Fields{
				"rank":            i + 1,
				"item_id":         item.ItemID,
				"buy_volatility":  item.BuyVolatility,
				"sell_volatility": item.SellVolatility,
				"data_points":     item.DataPoints,
			}).Info("Volatile item")
		}
	}
}
