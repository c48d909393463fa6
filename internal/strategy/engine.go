package strategy

import (
	"math"

	"CryptoAdvisor/internal/calculator"
	"CryptoAdvisor/internal/model"
)

// DefaultThresholds apply until enough score history has accumulated.
var DefaultThresholds = model.Thresholds{Buy: 65, Sell: 35}

// minThresholdSamples is the history size needed before thresholds adapt.
const minThresholdSamples = 10

// Score computes the weighted composite score (0~100) and its breakdown.
func Score(ind *model.Indicators, price float64) (int, []model.FactorScore) {
	factors := []model.FactorScore{
		scoreRSI(ind),
		scoreMovingAverages(ind, price),
		scoreBollinger(ind, price),
		scoreMomentum(ind),
	}
	total := 0.0
	for _, f := range factors {
		total += f.Weighted
	}
	return int(math.Round(total)), factors
}

// DynamicThresholds derives buy/sell cut-offs from the 80th and 20th
// percentiles of historical composite scores.
func DynamicThresholds(history []float64) model.Thresholds {
	if len(history) < minThresholdSamples {
		return DefaultThresholds
	}
	return model.Thresholds{
		Buy:  calculator.Clamp(calculator.Percentile(history, 80), 60, 75),
		Sell: calculator.Clamp(calculator.Percentile(history, 20), 25, 40),
	}
}

// BuildIndicators computes the single-timeframe snapshot from closes whose
// most recent point already reflects the live price.
func BuildIndicators(closes []float64, change24h float64) model.Indicators {
	bands := calculator.BollingerBands(closes, calculator.DefaultBollingerPeriod, calculator.DefaultBollingerK)
	sma20 := calculator.SMA(closes, 20)
	return model.Indicators{
		RSI:             calculator.RSI(closes, calculator.DefaultRSIPeriod),
		SMA20:           sma20,
		SMA50:           slowSMA(closes, sma20),
		BollingerUpper:  bands.Upper,
		BollingerMiddle: bands.Middle,
		BollingerLower:  bands.Lower,
		PriceChange24h:  change24h,
	}
}

// slowSMA is the 50-period average, or sma20 when the series is shorter
// than 50 points.
func slowSMA(closes []float64, sma20 float64) float64 {
	if len(closes) < 50 {
		return sma20
	}
	return calculator.SMA(closes, 50)
}
