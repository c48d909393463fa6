package calculator

import (
	"math"
	"testing"
)

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func TestRSI_EdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"insufficient data", rising(14), 50},
		{"only gains", rising(20), 100},
		{"only losses", []float64{120, 119, 118, 117, 116, 115, 114, 113, 112, 111, 110, 109, 108, 107, 106}, 0},
		{"flat series", []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RSI(tt.prices, 14); got != tt.want {
				t.Errorf("RSI = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRSI_UsesMostRecentDeltasAndRounds(t *testing.T) {
	// Old history is a crash that must not affect the result.
	prices := []float64{500, 100}
	for i := 0; i < 14; i++ {
		if i%2 == 0 {
			prices = append(prices, prices[len(prices)-1]+2)
		} else {
			prices = append(prices, prices[len(prices)-1]-1)
		}
	}
	// 7 gains of 2, 7 losses of 1 → rs = 2 → 66.666...
	got := RSI(prices, 14)
	if got != 66.7 {
		t.Errorf("RSI = %v, want 66.7", got)
	}
}

func TestSMA(t *testing.T) {
	if got := SMA([]float64{1, 2, 3, 4}, 2); got != 3.5 {
		t.Errorf("SMA = %v, want 3.5", got)
	}
	if got := SMA([]float64{1, 2, 7}, 5); got != 7 {
		t.Errorf("degenerate SMA = %v, want last price 7", got)
	}
	if got := SMA(nil, 5); got != 0 {
		t.Errorf("empty SMA = %v, want 0", got)
	}
}

func TestEMA(t *testing.T) {
	if got := EMA([]float64{10}, 5); got != 10 {
		t.Errorf("single EMA = %v, want 10", got)
	}
	// multiplier 2/3: 10 → 10 + (13-10)*2/3 = 12
	if got := EMA([]float64{10, 13}, 2); math.Abs(got-12) > 1e-9 {
		t.Errorf("EMA = %v, want 12", got)
	}
	if got := EMA(nil, 5); got != 0 {
		t.Errorf("empty EMA = %v, want 0", got)
	}
}

func TestBollingerBands_Symmetric(t *testing.T) {
	series := [][]float64{
		{1},
		{3, 1, 4, 1, 5},
		rising(30),
		{100, 98, 105, 110, 90, 95, 101, 99, 102, 97, 103, 108, 92, 94, 100, 106, 104, 96, 93, 107, 111},
	}
	for _, s := range series {
		b := BollingerBands(s, DefaultBollingerPeriod, DefaultBollingerK)
		up := b.Upper - b.Middle
		down := b.Middle - b.Lower
		if math.Abs(up-down) > 1e-9 {
			t.Errorf("bands not symmetric for %v: %v vs %v", s, up, down)
		}
		if b.Upper < b.Lower {
			t.Errorf("upper %v below lower %v", b.Upper, b.Lower)
		}
	}
}

func TestBollingerBands_PopulationStdDev(t *testing.T) {
	prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	b := BollingerBands(prices, 8, 2)
	// mean 5, population σ 2
	if b.Middle != 5 || b.Upper != 9 || b.Lower != 1 {
		t.Errorf("unexpected bands %+v", b)
	}
}

func TestBandPosition(t *testing.T) {
	if got := BandPosition(15, 10, 20); got != 0.5 {
		t.Errorf("mid position = %v", got)
	}
	if got := BandPosition(5, 10, 20); got != -0.5 {
		t.Errorf("below band = %v, want -0.5", got)
	}
	if got := BandPosition(12, 10, 10); got != 0.5 {
		t.Errorf("degenerate band = %v, want 0.5", got)
	}
}

func TestPercentile(t *testing.T) {
	samples := []float64{50, 10, 40, 20, 30}
	if got := Percentile(samples, 50); got != 30 {
		t.Errorf("p50 = %v, want 30", got)
	}
	if got := Percentile(samples, 80); math.Abs(got-42) > 1e-9 {
		t.Errorf("p80 = %v, want 42", got)
	}
	if samples[0] != 50 {
		t.Error("input slice was reordered")
	}
}
