package collector

import (
	"context"
	"errors"
	"strings"

	"CryptoAdvisor/internal/model"
)

var (
	// ErrUnavailable marks a market-data call that produced nothing usable.
	ErrUnavailable = errors.New("market data unavailable")
	// ErrInsufficientData marks a candle series too short to analyze.
	ErrInsufficientData = errors.New("insufficient market data")
)

// Source defines the interface for fetching market data. Prices and
// candles are expressed in the quote currency.
type Source interface {
	Prices(ctx context.Context) ([]model.PriceTick, error)
	Candles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error)
	FearGreed(ctx context.Context) (*model.FearGreed, error)
	Name() string
}

const quoteAsset = "USDT"

func pairSymbol(symbol string) string {
	return strings.ToUpper(symbol) + quoteAsset
}
