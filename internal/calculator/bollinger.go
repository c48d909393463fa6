package calculator

import (
	"math"

	"CryptoAdvisor/internal/model"
)

const (
	DefaultBollingerPeriod = 20
	DefaultBollingerK      = 2.0
)

// BollingerBands computes bands at k population standard deviations of the
// last period closes around SMA(period).
func BollingerBands(prices []float64, period int, k float64) model.Bands {
	if len(prices) == 0 {
		return model.Bands{}
	}
	middle := SMA(prices, period)

	window := prices
	if period > 0 && len(prices) > period {
		window = prices[len(prices)-period:]
	}
	variance := 0.0
	for _, p := range window {
		variance += (p - middle) * (p - middle)
	}
	variance /= float64(len(window))
	sd := math.Sqrt(variance)

	return model.Bands{
		Upper:  middle + k*sd,
		Middle: middle,
		Lower:  middle - k*sd,
	}
}
