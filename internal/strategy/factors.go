package strategy

import (
	"fmt"

	"CryptoAdvisor/internal/calculator"
	"CryptoAdvisor/internal/model"
)

// Sub-score weights. They sum to 1.0 so the composite stays within [0,100].
const (
	weightRSI       = 0.35
	weightMA        = 0.25
	weightBollinger = 0.25
	weightMomentum  = 0.15
)

func factor(name string, raw, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   raw,
		Weight:     weight,
		Weighted:   raw * weight,
		Commentary: commentary,
	}
}

// scoreRSI rewards oversold readings and penalizes overbought ones.
func scoreRSI(ind *model.Indicators) model.FactorScore {
	rsi := ind.RSI
	var score float64
	switch {
	case rsi < 20:
		score = 90
	case rsi < 30:
		score = 75
	case rsi < 40:
		score = 60
	case rsi > 80:
		score = 10
	case rsi > 70:
		score = 25
	case rsi > 60:
		score = 40
	default:
		score = 50
	}
	return factor("RSI", score, weightRSI, fmt.Sprintf("RSI=%.1f", rsi))
}

// scoreMovingAverages scores the price relation to SMA20 and SMA50.
func scoreMovingAverages(ind *model.Indicators, price float64) model.FactorScore {
	diff20 := percentDiff(price, ind.SMA20)
	diff50 := percentDiff(price, ind.SMA50)

	var score float64
	switch {
	case diff20 > 5 && diff50 > 3:
		score = 80
	case diff20 > 2 && diff50 > 0:
		score = 65
	case diff20 < -5 && diff50 < -3:
		score = 20
	case diff20 < -2 && diff50 < 0:
		score = 35
	default:
		score = 50
	}
	return factor("MA", score, weightMA, fmt.Sprintf("SMA20 %+.1f%% / SMA50 %+.1f%%", diff20, diff50))
}

// scoreBollinger scores the price position inside the Bollinger bands.
func scoreBollinger(ind *model.Indicators, price float64) model.FactorScore {
	pos := calculator.BandPosition(price, ind.BollingerLower, ind.BollingerUpper)

	var score float64
	switch {
	case pos < 0.1:
		score = 85
	case pos < 0.2:
		score = 70
	case pos < 0.3:
		score = 60
	case pos > 0.9:
		score = 15
	case pos > 0.8:
		score = 30
	case pos > 0.7:
		score = 40
	default:
		score = 50
	}
	return factor("Bollinger", score, weightBollinger, fmt.Sprintf("position %.2f", pos))
}

// scoreMomentum scores the 24h move contrarian-style.
func scoreMomentum(ind *model.Indicators) model.FactorScore {
	change := ind.PriceChange24h
	var score float64
	switch {
	case change < -10:
		score = 80
	case change < -5:
		score = 65
	case change > 10:
		score = 20
	case change > 5:
		score = 35
	default:
		score = 50
	}
	return factor("Momentum", score, weightMomentum, fmt.Sprintf("24h %+.1f%%", change))
}

func percentDiff(price, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return (price - ref) / ref * 100
}
