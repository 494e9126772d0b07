package analyzer

import (
	"math"

	"github.com/sirupsen/logrus"

	"bazaar-trading-bot/internal/config"
)

// Scorer normalizes raw market stats into comparable [0, 1] scores.
type Scorer struct {
	logger *logrus.Logger
}

func NewScorer(logger *logrus.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// CalculateVolumeScore scores traded volume on a log scale relative to the
// configured minimum. Ten times the minimum scores 1.0.
func (s *Scorer) CalculateVolumeScore(avgVolume, minVolume float64) float64 {
	if minVolume <= 0 || avgVolume <= minVolume {
		return 0.0
	}

	ratio := avgVolume / minVolume
	score := math.Log10(ratio)
	if score > 1.0 {
		score = 1.0
	}

	return score
}

// CalculateMarginScore scores the spread margin on the same log scale.
// A margin at the configured floor scores 0, ten times the floor scores 1.0.
func (s *Scorer) CalculateMarginScore(marginPercent, minMarginPercent float64) float64 {
	if minMarginPercent <= 0 || marginPercent <= minMarginPercent {
		return 0.0
	}

	ratio := marginPercent / minMarginPercent
	score := math.Log10(ratio)
	if score > 1.0 {
		score = 1.0
	}

	return score
}

// CalculateVolatilityScore scores price volatility against a workable band.
// Values inside the band score by proximity to its midpoint, values outside
// decay toward zero the further out they sit.
func (s *Scorer) CalculateVolatilityScore(volatility, minVolatility, maxVolatility float64) float64 {
	if volatility <= 0 {
		return 0.0
	}

	optimal := (minVolatility + maxVolatility) / 2

	if volatility >= minVolatility && volatility <= maxVolatility {
		distance := math.Abs(volatility - optimal)
		maxDistance := (maxVolatility - minVolatility) / 2
		if maxDistance <= 0 {
			return 1.0
		}
		return 1.0 - (distance/maxDistance)*0.5
	}

	if volatility < minVolatility {
		return 0.5 * (volatility / minVolatility)
	}

	excess := volatility - maxVolatility
	score := 0.5 - (excess/maxVolatility)*0.5
	if score < 0 {
		score = 0.0
	}

	return score
}

// CalculateFlipScore combines the component scores using the configured
// weights, clamped to [0, 1].
func (s *Scorer) CalculateFlipScore(volumeScore, marginScore, volatilityScore float64, cfg config.AnalysisConfig) float64 {
	finalScore := volumeScore*cfg.VolumeWeight +
		marginScore*cfg.MarginWeight +
		volatilityScore*cfg.VolatilityWeight

	if finalScore > 1.0 {
		finalScore = 1.0
	}
	if finalScore < 0.0 {
		finalScore = 0.0
	}

	return finalScore
}
