package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CryptoAdvisor/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Ticks []model.PriceTick
	// CandleData is keyed by "SYMBOL|interval" or by "SYMBOL" for every interval.
	CandleData     map[string][]model.Candle
	FearGreedValue *model.FearGreed
	Err            error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Prices(_ context.Context) ([]model.PriceTick, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Ticks, nil
}

func (m *MockSource) Candles(_ context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	symbol = strings.ToUpper(symbol)
	if data, ok := m.CandleData[symbol+"|"+interval]; ok {
		return data, nil
	}
	if data, ok := m.CandleData[symbol]; ok {
		return data, nil
	}
	for _, t := range m.Ticks {
		if strings.EqualFold(t.Symbol, symbol) {
			return generateMockCandles(t.Price, limit, intervalDuration(interval)), nil
		}
	}
	return nil, fmt.Errorf("%w: mock has no data for %s", ErrUnavailable, symbol)
}

func (m *MockSource) FearGreed(_ context.Context) (*model.FearGreed, error) {
	return m.FearGreedValue, nil
}

// DemoTicks is a fixed market used by --mock runs.
func DemoTicks(now time.Time) []model.PriceTick {
	return []model.PriceTick{
		{Symbol: "BTC", Price: 15000000, Change24h: 1.2, Volume24h: 21000, LastUpdate: now},
		{Symbol: "ETH", Price: 550000, Change24h: -2.4, Volume24h: 310000, LastUpdate: now},
		{Symbol: "XRP", Price: 85, Change24h: 6.1, Volume24h: 9.5e8, LastUpdate: now},
	}
}

func generateMockCandles(basePrice float64, count int, step time.Duration) []model.Candle {
	now := time.Now().Truncate(step)
	candles := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		candles[i] = model.Candle{
			OpenTime: now.Add(-time.Duration(count-i) * step),
			Open:     p * 0.999,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			Volume:   1000,
		}
	}
	return candles
}

func intervalDuration(interval string) time.Duration {
	if strings.HasSuffix(interval, "d") {
		interval = strings.TrimSuffix(interval, "d") + "h"
		if d, err := time.ParseDuration(interval); err == nil {
			return d * 24
		}
	}
	if d, err := time.ParseDuration(interval); err == nil && d > 0 {
		return d
	}
	return time.Hour
}
