package strategy

import (
	"fmt"
	"math"
	"time"

	"CryptoAdvisor/internal/calculator"
	"CryptoAdvisor/internal/model"
)

// Sizing holds the suggested trade sizes attached to signals.
type Sizing struct {
	NewPosition float64 // quote currency, no holding yet
	AddPosition float64 // quote currency, adding to a holding
	SellPercent float64 // percent of the holding
}

// DefaultSizing is used when no sizing is configured.
var DefaultSizing = Sizing{NewPosition: 50000, AddPosition: 20000, SellPercent: 30}

// SynthesisInput is everything one symbol needs for one cycle.
type SynthesisInput struct {
	Tick       model.PriceTick
	Indicators model.Indicators
	Score      int
	MTF        model.CompositeSignal
	FearGreed  *model.FearGreed
	Holding    *model.Holding
	Thresholds model.Thresholds
	Sizing     Sizing
	Now        time.Time
}

// CompositeScore blends the single-timeframe score with multi-timeframe confidence.
func CompositeScore(score int, mtf model.CompositeSignal) float64 {
	return float64(score)*0.7 + mtf.Confidence*0.3
}

// Synthesize turns one cycle's inputs into the symbol's trade signals.
// The first element is always the primary signal. A second, opposite-side
// signal is present only when both sides are eligible for a held symbol.
func Synthesize(in SynthesisInput) []model.TradeSignal {
	if in.Sizing == (Sizing{}) {
		in.Sizing = DefaultSizing
	}
	if in.Thresholds == (model.Thresholds{}) {
		in.Thresholds = DefaultThresholds
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	composite := CompositeScore(in.Score, in.MTF)
	profit := 0.0
	if in.Holding != nil {
		profit = in.Holding.ProfitPercent(in.Tick.Price)
	}

	canBuy := buyEligible(in, composite)
	canSell := in.Holding != nil && sellEligible(in, composite, profit)

	switch {
	case canBuy && canSell:
		buy := buySignal(in, composite, profit)
		sell := sellSignal(in, composite, profit)
		if profit > 10 {
			buy.Primary = false
			return []model.TradeSignal{sell, buy}
		}
		sell.Primary = false
		return []model.TradeSignal{buy, sell}
	case canBuy:
		return []model.TradeSignal{buySignal(in, composite, profit)}
	case canSell:
		return []model.TradeSignal{sellSignal(in, composite, profit)}
	default:
		return []model.TradeSignal{{
			Symbol:     in.Tick.Symbol,
			Action:     model.ActionHold,
			Score:      50,
			Reasons:    []string{},
			Confidence: confidenceTier(composite),
			Timestamp:  in.Now,
			RSI:        in.Indicators.RSI,
			Price:      in.Tick.Price,
			Primary:    true,
		}}
	}
}

func buyEligible(in SynthesisInput, composite float64) bool {
	return composite > in.Thresholds.Buy ||
		(in.MTF.Action == model.ActionBuy && in.MTF.Confidence > 70) ||
		in.Indicators.RSI < 25 ||
		(in.FearGreed != nil && in.FearGreed.Value < 20)
}

func sellEligible(in SynthesisInput, composite, profit float64) bool {
	return composite < in.Thresholds.Sell ||
		(in.MTF.Action == model.ActionSell && in.MTF.Confidence > 70) ||
		profit > 30 ||
		profit < -15 ||
		in.Indicators.RSI > 75
}

func buySignal(in SynthesisInput, composite, profit float64) model.TradeSignal {
	ind := in.Indicators
	var reasons []string
	if in.Holding != nil {
		reasons = append(reasons, fmt.Sprintf("additional buy: already holding %s (%+.1f%%)", in.Tick.Symbol, profit))
	}
	if in.MTF.Action == model.ActionBuy {
		reasons = append(reasons, in.MTF.Reasons...)
	}
	if ind.RSI < 35 {
		reasons = append(reasons, fmt.Sprintf("RSI %.0f (oversold)", ind.RSI))
	}
	if in.Tick.Price < ind.BollingerLower {
		reasons = append(reasons, "price below lower Bollinger band")
	}
	if in.FearGreed != nil && in.FearGreed.Value < 30 {
		reasons = append(reasons, fmt.Sprintf("market sentiment: %s (%d)", in.FearGreed.Classification, in.FearGreed.Value))
	}
	if ind.PriceChange24h < -5 {
		reasons = append(reasons, fmt.Sprintf("24h change: %.1f%%", ind.PriceChange24h))
	}
	if composite > in.Thresholds.Buy {
		reasons = append(reasons, fmt.Sprintf("composite score %.0f above buy threshold %.0f", composite, in.Thresholds.Buy))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "technical indicators signal buy")
	}

	amount := in.Sizing.NewPosition
	if in.Holding != nil {
		amount = in.Sizing.AddPosition
	}
	sig := baseSignal(in, model.ActionBuy, composite, reasons)
	sig.SuggestedAmount = &amount
	return sig
}

func sellSignal(in SynthesisInput, composite, profit float64) model.TradeSignal {
	ind := in.Indicators
	var reasons []string
	switch {
	case profit > 20:
		reasons = append(reasons, fmt.Sprintf("profit +%.1f%% reached", profit))
	case profit < -10:
		reasons = append(reasons, fmt.Sprintf("loss %.1f%% (consider stop-loss)", profit))
	}
	if in.MTF.Action == model.ActionSell {
		reasons = append(reasons, in.MTF.Reasons...)
	}
	if ind.RSI > 65 {
		reasons = append(reasons, fmt.Sprintf("RSI %.0f (overbought)", ind.RSI))
	}
	if in.Tick.Price > ind.BollingerUpper {
		reasons = append(reasons, "price above upper Bollinger band")
	}
	if in.FearGreed != nil && in.FearGreed.Value > 70 {
		reasons = append(reasons, fmt.Sprintf("market sentiment: %s (%d)", in.FearGreed.Classification, in.FearGreed.Value))
	}
	if ind.PriceChange24h > 5 {
		reasons = append(reasons, fmt.Sprintf("24h change: %+.1f%%", ind.PriceChange24h))
	}
	if composite < in.Thresholds.Sell {
		reasons = append(reasons, fmt.Sprintf("composite score %.0f below sell threshold %.0f", composite, in.Thresholds.Sell))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "technical indicators signal sell")
	}

	pct := in.Sizing.SellPercent
	sig := baseSignal(in, model.ActionSell, composite, reasons)
	sig.SuggestedPercentage = &pct
	return sig
}

func baseSignal(in SynthesisInput, action model.Action, composite float64, reasons []string) model.TradeSignal {
	return model.TradeSignal{
		Symbol:     in.Tick.Symbol,
		Action:     action,
		Score:      int(math.Round(calculator.Clamp(composite, 0, 100))),
		Reasons:    dedupe(reasons),
		Confidence: confidenceTier(composite),
		Timestamp:  in.Now,
		RSI:        in.Indicators.RSI,
		Price:      in.Tick.Price,
		Primary:    true,
	}
}

func confidenceTier(composite float64) model.Confidence {
	switch {
	case composite > 80:
		return model.ConfidenceHigh
	case composite > 60:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// dedupe drops repeated reasons keeping the first occurrence order.
func dedupe(reasons []string) []string {
	seen := make(map[string]struct{}, len(reasons))
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
