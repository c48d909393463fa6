package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/model"
	"CryptoAdvisor/internal/platform/httpclient"
)

const DefaultBinanceURL = "https://api.binance.com"

// BinanceSource implements Source using the Binance public REST API.
// Binance quotes in USDT, so every price is converted with the FX rate.
type BinanceSource struct {
	client  *httpclient.Client
	baseURL string
	symbols []string
	fx      *FXRate
	fng     *FearGreedClient
	stream  *TickerStream
	logger  zerolog.Logger
}

// BinanceOption configures a BinanceSource.
type BinanceOption func(*BinanceSource)

// WithFearGreed attaches the sentiment index reader.
func WithFearGreed(c *FearGreedClient) BinanceOption {
	return func(b *BinanceSource) { b.fng = c }
}

// WithTickerStream serves Prices from a live websocket stream once it is warm.
func WithTickerStream(s *TickerStream) BinanceOption {
	return func(b *BinanceSource) { b.stream = s }
}

// NewBinanceSource creates a source tracking symbols (base assets, e.g. "BTC").
func NewBinanceSource(client *httpclient.Client, baseURL string, symbols []string, fx *FXRate, opts ...BinanceOption) *BinanceSource {
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	b := &BinanceSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		symbols: symbols,
		fx:      fx,
		logger:  log.With().Str("component", "binance").Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BinanceSource) Name() string { return "binance" }

type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	CloseTime          int64  `json:"closeTime"`
}

// Prices returns the latest tick for each tracked symbol Binance knows.
func (b *BinanceSource) Prices(ctx context.Context) ([]model.PriceTick, error) {
	rate := b.fx.Rate(ctx)

	if b.stream != nil {
		if ticks, ok := b.stream.Snapshot(); ok {
			return convertTicks(ticks, rate), nil
		}
	}

	pairs := make([]string, len(b.symbols))
	for i, s := range b.symbols {
		pairs[i] = pairSymbol(s)
	}
	encoded, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("encode symbols: %w", err)
	}
	endpoint := fmt.Sprintf("%s/api/v3/ticker/24hr?symbols=%s", b.baseURL, url.QueryEscape(string(encoded)))

	var raw []ticker24h
	if err := b.client.GetJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("%w: ticker: %v", ErrUnavailable, err)
	}
	bySymbol := make(map[string]ticker24h, len(raw))
	for _, t := range raw {
		bySymbol[t.Symbol] = t
	}

	ticks := make([]model.PriceTick, 0, len(b.symbols))
	for _, s := range b.symbols {
		t, ok := bySymbol[pairSymbol(s)]
		if !ok {
			b.logger.Warn().Str("symbol", s).Msg("no ticker for symbol")
			continue
		}
		price, err := strconv.ParseFloat(t.LastPrice, 64)
		if err != nil {
			b.logger.Warn().Err(err).Str("symbol", s).Msg("bad last price")
			continue
		}
		ticks = append(ticks, model.PriceTick{
			Symbol:     strings.ToUpper(s),
			Price:      price,
			Change24h:  parseFloat(t.PriceChangePercent),
			Volume24h:  parseFloat(t.Volume),
			LastUpdate: time.UnixMilli(t.CloseTime),
		})
	}
	if len(ticks) == 0 {
		return nil, fmt.Errorf("%w: no tracked symbol in ticker response", ErrUnavailable)
	}
	return convertTicks(ticks, rate), nil
}

// Candles returns up to limit candles, oldest first.
func (b *BinanceSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	params := url.Values{}
	params.Set("symbol", pairSymbol(symbol))
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(min(max(limit, 1), 1000)))

	candles, err := b.klines(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrInsufficientData, symbol, interval)
	}
	return convertCandles(candles, b.fx.Rate(ctx)), nil
}

// PriceAt returns the close nearest to t, from minute candles around t or,
// when none exist, the first daily candle of the preceding week.
func (b *BinanceSource) PriceAt(ctx context.Context, symbol string, t time.Time) (float64, error) {
	params := url.Values{}
	params.Set("symbol", pairSymbol(symbol))
	params.Set("interval", "1m")
	params.Set("startTime", strconv.FormatInt(t.Add(-time.Hour).UnixMilli(), 10))
	params.Set("endTime", strconv.FormatInt(t.Add(time.Hour).UnixMilli(), 10))
	params.Set("limit", "120")

	candles, err := b.klines(ctx, params)
	if err != nil {
		return 0, err
	}

	var closePrice float64
	if len(candles) > 0 {
		closest := candles[0]
		for _, c := range candles[1:] {
			if c.OpenTime.Sub(t).Abs() < closest.OpenTime.Sub(t).Abs() {
				closest = c
			}
		}
		closePrice = closest.Close
	} else {
		params.Set("interval", "1d")
		params.Set("startTime", strconv.FormatInt(t.AddDate(0, 0, -7).UnixMilli(), 10))
		params.Set("endTime", strconv.FormatInt(t.AddDate(0, 0, 1).UnixMilli(), 10))
		params.Set("limit", "10")
		daily, err := b.klines(ctx, params)
		if err != nil {
			return 0, err
		}
		if len(daily) == 0 {
			return 0, fmt.Errorf("%w: no price for %s at %s", ErrUnavailable, symbol, t.Format(time.RFC3339))
		}
		closePrice = daily[0].Close
	}
	return closePrice * b.fx.Rate(ctx), nil
}

// FearGreed returns nil when no index reader is configured.
func (b *BinanceSource) FearGreed(ctx context.Context) (*model.FearGreed, error) {
	if b.fng == nil {
		return nil, nil
	}
	return b.fng.Latest(ctx)
}

func (b *BinanceSource) klines(ctx context.Context, params url.Values) ([]model.Candle, error) {
	endpoint := b.baseURL + "/api/v3/klines?" + params.Encode()
	var raw [][]interface{}
	if err := b.client.GetJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("%w: klines %s %s: %v", ErrUnavailable, params.Get("symbol"), params.Get("interval"), err)
	}

	candles := make([]model.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		openTime, ok := k[0].(float64)
		if !ok {
			continue
		}
		c := model.Candle{
			OpenTime: time.UnixMilli(int64(openTime)),
			Open:     toFloat(k[1]),
			High:     toFloat(k[2]),
			Low:      toFloat(k[3]),
			Close:    toFloat(k[4]),
			Volume:   toFloat(k[5]),
		}
		if c.Close == 0 {
			continue
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case string:
		return parseFloat(n)
	case float64:
		return n
	default:
		return 0
	}
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func convertTicks(ticks []model.PriceTick, rate float64) []model.PriceTick {
	out := make([]model.PriceTick, len(ticks))
	for i, t := range ticks {
		t.Price *= rate
		out[i] = t
	}
	return out
}

func convertCandles(candles []model.Candle, rate float64) []model.Candle {
	for i := range candles {
		candles[i].Open *= rate
		candles[i].High *= rate
		candles[i].Low *= rate
		candles[i].Close *= rate
	}
	return candles
}
