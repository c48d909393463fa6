package calculator

import "math"

// DefaultRSIPeriod is the lookback used across the analysis pipeline.
const DefaultRSIPeriod = 14

// RSI computes the relative strength index from simple averages of the most
// recent period price changes, rounded to one decimal.
// Returns 50 when fewer than period+1 prices are available.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50
	}

	var avgGain, avgLoss float64
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100
	}
	if avgGain == 0 {
		return 0
	}
	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	return math.Round(rsi*10) / 10
}
