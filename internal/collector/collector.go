// Package collector fetches market data and turns it into indicator snapshots.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/model"
	"CryptoAdvisor/internal/strategy"
)

const (
	DefaultInterval = "4h"
	DefaultLimit    = 30
)

// Snapshot is one poll of market-wide data.
type Snapshot struct {
	Ticks     []model.PriceTick
	FearGreed *model.FearGreed
	FetchedAt time.Time
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Source   Source
	Interval string
	Limit    int
	logger   zerolog.Logger
}

// NewCollector creates a Collector computing indicators over interval candles.
func NewCollector(source Source, interval string, limit int) *Collector {
	if interval == "" {
		interval = DefaultInterval
	}
	if limit < strategy.MinCandles {
		limit = DefaultLimit
	}
	return &Collector{
		Source:   source,
		Interval: interval,
		Limit:    limit,
		logger:   log.With().Str("component", "collector").Str("source", source.Name()).Logger(),
	}
}

// Snapshot fetches prices and the sentiment index. Prices are required;
// a failed sentiment read is logged and left nil.
func (c *Collector) Snapshot(ctx context.Context) (*Snapshot, error) {
	ticks, err := c.Source.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	if len(ticks) == 0 {
		return nil, fmt.Errorf("fetch prices: %w", ErrUnavailable)
	}

	fg, err := c.Source.FearGreed(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("fear & greed unavailable, continuing without it")
		fg = nil
	}
	return &Snapshot{Ticks: ticks, FearGreed: fg, FetchedAt: time.Now()}, nil
}

// Indicators computes the single-timeframe snapshot for tick. The newest
// candle close is replaced by the live price.
func (c *Collector) Indicators(ctx context.Context, tick model.PriceTick) (model.Indicators, error) {
	candles, err := c.Source.Candles(ctx, tick.Symbol, c.Interval, c.Limit)
	if err != nil {
		return model.Indicators{}, fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) < strategy.MinCandles {
		return model.Indicators{}, fmt.Errorf("%w: %s has %d candles, need %d",
			ErrInsufficientData, tick.Symbol, len(candles), strategy.MinCandles)
	}

	closes := model.Closes(candles)
	closes[len(closes)-1] = tick.Price
	return strategy.BuildIndicators(closes, tick.Change24h), nil
}
