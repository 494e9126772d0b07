package utils

import (
	"math"
)

func CalculateVolatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	var returns []float64
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			ret := (prices[i] - prices[i-1]) / prices[i-1]
			returns = append(returns, ret)
		}
	}

	if len(returns) == 0 {
		return 0
	}

	// Calculate mean
	mean := 0.0
	for _, ret := range returns {
		mean += ret
	}
	mean /= float64(len(returns))

	// Calculate variance
	variance := 0.0
	for _, ret := range returns {
		variance += math.Pow(ret-mean, 2)
	}
	variance /= float64(len(returns))

	// Return standard deviation (volatility)
	return math.Sqrt(variance)
}

func NormalizeTo(value float64, decimalPlaces int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0.0
	}

	multiplier := math.Pow(10, float64(decimalPlaces))
	return math.Round(value*multiplier) / multiplier
}

// CapValue caps a value to a maximum while preserving sign
func CapValue(value, maxValue float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0.0
	}

	if value > maxValue {
		return maxValue
	}
	if value < -maxValue {
		return -maxValue
	}
	return value
}
