package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bazaar-trading-bot/internal/config"
	"bazaar-trading-bot/pkg/models"
)

// MockRepository is a mock type for the analyzer's Repository dependency.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) HighVolumeItems(ctx context.Context, minVolume float64, limit int) ([]models.ItemVolumeStats, error) {
	args := m.Called(ctx, minVolume, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ItemVolumeStats), args.Error(1)
}

func (m *MockRepository) ItemVolatility(ctx context.Context, lookbackDays, minDataPoints, limit int) ([]models.ItemVolatility, error) {
	args := m.Called(ctx, lookbackDays, minDataPoints, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ItemVolatility), args.Error(1)
}

func (m *MockRepository) FlipOpportunities(ctx context.Context, lookbackDays int, minVolume float64, limit int) ([]models.FlipOpportunity, error) {
	args := m.Called(ctx, lookbackDays, minVolume, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FlipOpportunity), args.Error(1)
}

func (m *MockRepository) GetRecentPrices(ctx context.Context, itemID string, lookbackDays int) ([]models.PricePoint, error) {
	args := m.Called(ctx, itemID, lookbackDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PricePoint), args.Error(1)
}

func (m *MockRepository) ReplaceFlipCandidates(ctx context.Context, candidates []models.FlipCandidate) error {
	args := m.Called(ctx, candidates)
	return args.Error(0)
}

var _ Repository = (*MockRepository)(nil)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		LookbackDays:     7,
		MinVolume:        1000,
		MinDataPoints:    3,
		MinMarginPercent: 2,
		MaxCandidates:    2,
		VolumeWeight:     0.40,
		MarginWeight:     0.35,
		VolatilityWeight: 0.25,
	}
}

func pricePoints(prices ...float64) []models.PricePoint {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = models.PricePoint{Timestamp: base.Add(time.Duration(i) * time.Minute), BuyPrice: p, SellPrice: p * 0.95}
	}
	return points
}

func opportunity(itemID string, profitPercent, volume float64) models.FlipOpportunity {
	return models.FlipOpportunity{
		ItemID:        itemID,
		AvgBuy:        12,
		AvgSell:       10,
		MinBuy:        10,
		MaxSell:       14,
		ProfitPercent: profitPercent,
		AvgBuyVolume:  volume,
		AvgSellVolume: volume,
	}
}

func TestAnalyzer_AnalyzeMarket(t *testing.T) {
	t.Parallel()

	t.Run("scores, ranks and caps the candidates", func(t *testing.T) {
		repo := new(MockRepository)
		cfg := testAnalysisConfig()

		opps := []models.FlipOpportunity{
			opportunity("MID", 20, 2000),
			opportunity("BIG", 40, 20000),
			opportunity("TINY", 5, 1500),
			opportunity("LOW_MARGIN", 1, 9000),
		}
		repo.On("FlipOpportunities", mock.Anything, 7, 1000.0, 6).Return(opps, nil).Once()

		series := pricePoints(100, 101, 99.5, 100.5, 100)
		repo.On("GetRecentPrices", mock.Anything, "BIG", 7).Return(series, nil).Once()
		repo.On("GetRecentPrices", mock.Anything, "MID", 7).Return(series, nil).Once()
		repo.On("GetRecentPrices", mock.Anything, "TINY", 7).Return(series, nil).Once()

		a := NewAnalyzer(repo, cfg, newTestLogger())
		candidates, err := a.AnalyzeMarket(context.Background())

		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, "BIG", candidates[0].ItemID)
		assert.Equal(t, "MID", candidates[1].ItemID)
		assert.Greater(t, candidates[0].FlipScore, candidates[1].FlipScore)

		for _, c := range candidates {
			assert.Equal(t, "active", c.Status)
			assert.GreaterOrEqual(t, c.FlipScore, 0.0)
			assert.LessOrEqual(t, c.FlipScore, 1.0)
			assert.True(t, c.SpreadMargin.Equal(decimal.NewFromInt(4)), "spread should be max_sell - min_buy")
		}

		repo.AssertNotCalled(t, "GetRecentPrices", mock.Anything, "LOW_MARGIN", 7)
		repo.AssertExpectations(t)
	})

	t.Run("items with thin series are dropped", func(t *testing.T) {
		repo := new(MockRepository)
		cfg := testAnalysisConfig()

		repo.On("FlipOpportunities", mock.Anything, 7, 1000.0, 6).
			Return([]models.FlipOpportunity{opportunity("THIN", 20, 5000)}, nil).Once()
		repo.On("GetRecentPrices", mock.Anything, "THIN", 7).Return(pricePoints(100), nil).Once()

		a := NewAnalyzer(repo, cfg, newTestLogger())
		candidates, err := a.AnalyzeMarket(context.Background())

		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("a failing series fetch skips only that item", func(t *testing.T) {
		repo := new(MockRepository)
		cfg := testAnalysisConfig()

		repo.On("FlipOpportunities", mock.Anything, 7, 1000.0, 6).Return([]models.FlipOpportunity{
			opportunity("BROKEN", 20, 5000),
			opportunity("FINE", 20, 5000),
		}, nil).Once()
		repo.On("GetRecentPrices", mock.Anything, "BROKEN", 7).Return(nil, errors.New("timeout")).Once()
		repo.On("GetRecentPrices", mock.Anything, "FINE", 7).Return(pricePoints(100, 101, 99.5, 100.5), nil).Once()

		a := NewAnalyzer(repo, cfg, newTestLogger())
		candidates, err := a.AnalyzeMarket(context.Background())

		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "FINE", candidates[0].ItemID)
	})

	t.Run("opportunity query failure is fatal", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("FlipOpportunities", mock.Anything, 7, 1000.0, 6).Return(nil, errors.New("relation missing")).Once()

		a := NewAnalyzer(repo, testAnalysisConfig(), newTestLogger())
		_, err := a.AnalyzeMarket(context.Background())

		assert.Error(t, err)
	})
}

func TestAnalyzer_LogMarketReport(t *testing.T) {
	t.Parallel()

	t.Run("queries both leaderboards", func(t *testing.T) {
		repo := new(MockRepository)
		cfg := testAnalysisConfig()

		repo.On("HighVolumeItems", mock.Anything, 1000.0, reportSize).
			Return([]models.ItemVolumeStats{{ItemID: "WHEAT", AvgBuyVolume: 5000}}, nil).Once()
		repo.On("ItemVolatility", mock.Anything, 7, 3, reportSize).
			Return([]models.ItemVolatility{{ItemID: "ENCHANTED_EMERALD", DataPoints: 40}}, nil).Once()

		NewAnalyzer(repo, cfg, newTestLogger()).LogMarketReport(context.Background())

		repo.AssertExpectations(t)
	})

	t.Run("query failures are logged, not fatal", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("HighVolumeItems", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down")).Once()
		repo.On("ItemVolatility", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down")).Once()

		NewAnalyzer(repo, testAnalysisConfig(), newTestLogger()).LogMarketReport(context.Background())

		repo.AssertExpectations(t)
	})
}
