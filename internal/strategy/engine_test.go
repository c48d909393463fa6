package strategy

import (
	"math/rand"
	"testing"

	"CryptoAdvisor/internal/model"
)

func TestScore_NeutralMarket(t *testing.T) {
	ind := &model.Indicators{
		RSI:            50,
		SMA20:          100,
		SMA50:          100,
		BollingerUpper: 110,
		BollingerLower: 90,
		PriceChange24h: 0,
	}
	score, factors := Score(ind, 100)
	if score != 50 {
		t.Errorf("expected neutral score 50, got %d", score)
	}
	if len(factors) != 4 {
		t.Fatalf("expected 4 factors, got %d", len(factors))
	}
	weights := 0.0
	for _, f := range factors {
		weights += f.Weight
	}
	if weights < 0.999 || weights > 1.001 {
		t.Errorf("weights sum to %v, want 1", weights)
	}
}

func TestScore_ExtremeOversold(t *testing.T) {
	ind := &model.Indicators{
		RSI:            15,
		SMA20:          120,
		SMA50:          130,
		BollingerUpper: 125,
		BollingerLower: 101,
		PriceChange24h: -12,
	}
	score, _ := Score(ind, 100)
	// 90*.35 + 20*.25 + 85*.25 + 80*.15 = 69.75
	if score != 70 {
		t.Errorf("expected 70, got %d", score)
	}
}

func TestScore_ExtremeOverbought(t *testing.T) {
	ind := &model.Indicators{
		RSI:            85,
		SMA20:          90,
		SMA50:          80,
		BollingerUpper: 99,
		BollingerLower: 80,
		PriceChange24h: 15,
	}
	score, _ := Score(ind, 100)
	// 10*.35 + 80*.25 + 15*.25 + 20*.15 = 30.25
	if score != 30 {
		t.Errorf("expected 30, got %d", score)
	}
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	rsis := []float64{0, 19, 25, 35, 50, 65, 75, 81, 100}
	prices := []float64{1, 50, 95, 100, 105, 150, 1000}
	changes := []float64{-50, -7, 0, 7, 50}
	for _, rsi := range rsis {
		for _, p := range prices {
			for _, c := range changes {
				ind := &model.Indicators{
					RSI:            rsi,
					SMA20:          100,
					SMA50:          97,
					BollingerUpper: 110,
					BollingerLower: 90,
					PriceChange24h: c,
				}
				score, _ := Score(ind, p)
				if score < 0 || score > 100 {
					t.Fatalf("score %d out of range for rsi=%v price=%v change=%v", score, rsi, p, c)
				}
			}
		}
	}
}

func TestRSIFactor_AllBands(t *testing.T) {
	tests := []struct {
		rsi  float64
		want float64
	}{
		{10, 90}, {25, 75}, {35, 60}, {50, 50},
		{65, 40}, {75, 25}, {85, 10}, {40, 50}, {60, 50},
	}
	for _, tt := range tests {
		f := scoreRSI(&model.Indicators{RSI: tt.rsi})
		if f.RawScore != tt.want {
			t.Errorf("rsi %.0f: expected %v, got %v", tt.rsi, tt.want, f.RawScore)
		}
	}
}

func TestMovingAverageFactor_AllBands(t *testing.T) {
	tests := []struct {
		name  string
		sma20 float64
		sma50 float64
		want  float64
	}{
		{"strong above", 94, 96, 80},
		{"above", 97.5, 99, 65},
		{"strong below", 106, 104, 20},
		{"below", 103, 101, 35},
		{"mixed", 97, 101, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := scoreMovingAverages(&model.Indicators{SMA20: tt.sma20, SMA50: tt.sma50}, 100)
			if f.RawScore != tt.want {
				t.Errorf("expected %v, got %v (%s)", tt.want, f.RawScore, f.Commentary)
			}
		})
	}
}

func TestBollingerFactor_AllBands(t *testing.T) {
	tests := []struct {
		price float64
		want  float64
	}{
		{0, 85}, {15, 70}, {25, 60}, {50, 50}, {75, 40}, {85, 30}, {95, 15},
	}
	for _, tt := range tests {
		f := scoreBollinger(&model.Indicators{BollingerLower: 0, BollingerUpper: 100}, tt.price)
		if f.RawScore != tt.want {
			t.Errorf("price %.0f: expected %v, got %v", tt.price, tt.want, f.RawScore)
		}
	}
}

func TestMomentumFactor_AllBands(t *testing.T) {
	tests := []struct {
		change float64
		want   float64
	}{
		{-11, 80}, {-6, 65}, {0, 50}, {6, 35}, {11, 20}, {-5, 50}, {5, 50},
	}
	for _, tt := range tests {
		f := scoreMomentum(&model.Indicators{PriceChange24h: tt.change})
		if f.RawScore != tt.want {
			t.Errorf("change %.0f: expected %v, got %v", tt.change, tt.want, f.RawScore)
		}
	}
}

func TestDynamicThresholds_FewSamples(t *testing.T) {
	for n := 0; n < 10; n++ {
		samples := make([]float64, n)
		for i := range samples {
			samples[i] = 99
		}
		got := DynamicThresholds(samples)
		if got.Buy != 65 || got.Sell != 35 {
			t.Errorf("n=%d: expected {65 35}, got %+v", n, got)
		}
	}
}

func TestDynamicThresholds_Clamped(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 10 + rng.Intn(50)
		samples := make([]float64, n)
		for i := range samples {
			samples[i] = rng.Float64() * 100
		}
		got := DynamicThresholds(samples)
		if got.Buy < 60 || got.Buy > 75 {
			t.Fatalf("buy threshold %v out of [60,75]", got.Buy)
		}
		if got.Sell < 25 || got.Sell > 40 {
			t.Fatalf("sell threshold %v out of [25,40]", got.Sell)
		}
	}
}

func TestDynamicThresholds_FollowsDistribution(t *testing.T) {
	samples := []float64{30, 32, 34, 36, 38, 62, 64, 66, 68, 70, 72}
	got := DynamicThresholds(samples)
	// p80 = 68, p20 = 34
	if got.Buy != 68 || got.Sell != 34 {
		t.Errorf("expected {68 34}, got %+v", got)
	}
}

func TestBuildIndicators_DegenerateShortSeries(t *testing.T) {
	closes := []float64{100, 101, 102}
	ind := BuildIndicators(closes, -2)
	if ind.RSI != 50 {
		t.Errorf("expected neutral RSI, got %v", ind.RSI)
	}
	if ind.SMA20 != 102 {
		t.Errorf("expected degenerate SMA20 at last price, got %v", ind.SMA20)
	}
	if ind.SMA50 != ind.SMA20 {
		t.Errorf("expected SMA50 to fall back to SMA20, got %v/%v", ind.SMA20, ind.SMA50)
	}
	if ind.PriceChange24h != -2 {
		t.Errorf("expected change passthrough, got %v", ind.PriceChange24h)
	}
}

func TestBuildIndicators_SlowAverageFallsBackOnShortSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	closes[len(closes)-1] = 180

	ind := BuildIndicators(closes, 3)
	if ind.SMA50 != ind.SMA20 {
		t.Fatalf("expected SMA50 == SMA20 with 30 closes, got %v/%v", ind.SMA50, ind.SMA20)
	}
	if ind.SMA50 == 180 {
		t.Fatalf("SMA50 must not collapse to the live price")
	}

	_, factors := Score(&ind, 180)
	found := false
	for _, f := range factors {
		if f.Name != "MA" {
			continue
		}
		found = true
		if f.RawScore != 80 {
			t.Errorf("expected MA score 80 for price well above both averages, got %v", f.RawScore)
		}
	}
	if !found {
		t.Fatal("MA factor missing")
	}
}

func TestBuildIndicators_FullSlowAverage(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	ind := BuildIndicators(closes, 0)
	if ind.SMA50 != 35.5 {
		t.Errorf("expected SMA50 of the last 50 closes (35.5), got %v", ind.SMA50)
	}
	if ind.SMA20 != 50.5 {
		t.Errorf("expected SMA20 50.5, got %v", ind.SMA20)
	}
}
