package strategy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/calculator"
	"CryptoAdvisor/internal/model"
)

// DefaultTimeframes are analyzed when none are configured.
var DefaultTimeframes = []string{"1h", "4h"}

// MinCandles is the shortest series the analysis accepts.
const MinCandles = 20

var timeframeWeights = map[string]float64{
	"15m": 0.1,
	"1h":  0.4,
	"4h":  0.6,
	"1d":  0.3,
}

const defaultTimeframeWeight = 0.25

// CandleLimit returns how many candles to request for an interval so each
// interval covers a comparable real-time span.
func CandleLimit(interval string) int {
	switch interval {
	case "15m":
		return 96
	case "1h":
		return 72
	case "4h":
		return 42
	case "1d":
		return 30
	default:
		return 50
	}
}

// CandleSource provides historical candles in the quote currency.
type CandleSource interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error)
}

// Analyzer runs the indicator engine over several candle intervals.
type Analyzer struct {
	source CandleSource
	logger zerolog.Logger
}

// NewAnalyzer creates an Analyzer reading candles from source.
func NewAnalyzer(source CandleSource) *Analyzer {
	return &Analyzer{
		source: source,
		logger: log.With().Str("component", "mtf_analyzer").Logger(),
	}
}

// Analyze returns one TimeframeSignal per interval that produced usable data.
// Intervals are fetched sequentially; a failing interval is logged and omitted.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, intervals []string) []model.TimeframeSignal {
	if len(intervals) == 0 {
		intervals = DefaultTimeframes
	}
	results := make([]model.TimeframeSignal, 0, len(intervals))
	for _, interval := range intervals {
		candles, err := a.source.Candles(ctx, symbol, interval, CandleLimit(interval))
		if err != nil {
			a.logger.Warn().Err(err).Str("symbol", symbol).Str("interval", interval).Msg("timeframe skipped")
			continue
		}
		sig, ok := AnalyzeTimeframe(interval, model.Closes(candles))
		if !ok {
			a.logger.Warn().Str("symbol", symbol).Str("interval", interval).Int("candles", len(candles)).Msg("not enough candles")
			continue
		}
		results = append(results, sig)
	}
	return results
}

// AnalyzeTimeframe classifies one interval from its closing prices.
func AnalyzeTimeframe(interval string, closes []float64) (model.TimeframeSignal, bool) {
	if len(closes) < MinCandles {
		return model.TimeframeSignal{}, false
	}
	rsi := calculator.RSI(closes, calculator.DefaultRSIPeriod)
	sma20 := calculator.SMA(closes, 20)
	sma50 := slowSMA(closes, sma20)
	bands := calculator.BollingerBands(closes, calculator.DefaultBollingerPeriod, calculator.DefaultBollingerK)
	price := closes[len(closes)-1]
	pos := calculator.BandPosition(price, bands.Lower, bands.Upper)

	return model.TimeframeSignal{
		Timeframe: interval,
		Trend:     ClassifyTrend(price, sma20, sma50, rsi),
		Strength:  TrendStrength(price, sma20, sma50, rsi, pos),
		Indicators: model.TimeframeIndicators{
			RSI:               rsi,
			SMA20:             sma20,
			SMA50:             sma50,
			BollingerPosition: pos,
		},
	}, true
}

// ClassifyTrend requires price, averages and RSI to agree on a direction.
func ClassifyTrend(price, sma20, sma50, rsi float64) model.Trend {
	above20 := price > sma20
	above50 := price > sma50
	fastAboveSlow := sma20 > sma50

	switch {
	case above20 && above50 && fastAboveSlow && rsi > 50:
		return model.TrendBullish
	case !above20 && !above50 && !fastAboveSlow && rsi < 50:
		return model.TrendBearish
	default:
		return model.TrendNeutral
	}
}

// TrendStrength scores a trend from 50 by average deviation, RSI band and
// band position, clamped to [0,100].
func TrendStrength(price, sma20, sma50, rsi, bandPos float64) float64 {
	strength := 50.0

	if d := percentDiff(price, sma20); d > 5 {
		strength += 10
	} else if d < -5 {
		strength -= 10
	}
	if d := percentDiff(price, sma50); d > 10 {
		strength += 15
	} else if d < -10 {
		strength -= 15
	}

	switch {
	case rsi > 70:
		strength += 15
	case rsi < 30:
		strength -= 15
	case rsi > 60:
		strength += 5
	case rsi < 40:
		strength -= 5
	}

	if bandPos > 0.8 {
		strength += 10
	} else if bandPos < 0.2 {
		strength -= 10
	}

	return calculator.Clamp(strength, 0, 100)
}

// Composite folds timeframe signals into one weighted recommendation.
func Composite(signals []model.TimeframeSignal) model.CompositeSignal {
	if len(signals) == 0 {
		return model.CompositeSignal{Action: model.ActionHold, Confidence: 0, Reasons: []string{"insufficient data"}}
	}

	var bullish, bearish, totalWeight float64
	var reasons []string
	for _, s := range signals {
		w, ok := timeframeWeights[s.Timeframe]
		if !ok {
			w = defaultTimeframeWeight
		}
		totalWeight += w

		switch s.Trend {
		case model.TrendBullish:
			bullish += s.Strength * w
			if s.Strength > 70 {
				reasons = append(reasons, fmt.Sprintf("%s: strong uptrend", s.Timeframe))
			}
		case model.TrendBearish:
			bearish += s.Strength * w
			if s.Strength > 70 {
				reasons = append(reasons, fmt.Sprintf("%s: strong downtrend", s.Timeframe))
			}
		}
	}
	if totalWeight > 0 {
		bullish /= totalWeight
		bearish /= totalWeight
	}

	out := model.CompositeSignal{Action: model.ActionHold, Confidence: 50}
	fallback := "no clear trend"
	switch {
	case bullish > 65:
		out.Action = model.ActionBuy
		out.Confidence = bullish
		fallback = "uptrend confirmed across timeframes"
	case bearish > 65:
		out.Action = model.ActionSell
		out.Confidence = bearish
		fallback = "downtrend confirmed across timeframes"
	}
	if len(reasons) == 0 {
		reasons = append(reasons, fallback)
	}
	out.Reasons = reasons
	return out
}
