package collector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	binance "github.com/binance/binance-connector-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/model"
)

// staleAfter is how old the freshest tick may be before the stream is considered cold.
const staleAfter = time.Minute

// TickerStream keeps the latest 24h ticker per symbol from the Binance
// combined websocket stream. Prices are kept in USDT.
type TickerStream struct {
	symbols   []string
	connected atomic.Bool
	now       func() time.Time
	logger    zerolog.Logger

	mu    sync.RWMutex
	ticks map[string]model.PriceTick
}

// NewTickerStream creates a stream for base-asset symbols.
func NewTickerStream(symbols []string) *TickerStream {
	return &TickerStream{
		symbols: symbols,
		now:     time.Now,
		ticks:   make(map[string]model.PriceTick),
		logger:  log.With().Str("component", "ticker_stream").Logger(),
	}
}

// Start connects and keeps receiving until ctx is cancelled or the server
// closes the stream.
func (s *TickerStream) Start(ctx context.Context) error {
	client := binance.NewWebsocketStreamClient(true)
	pairs := make([]string, len(s.symbols))
	for i, sym := range s.symbols {
		pairs[i] = strings.ToLower(pairSymbol(sym))
	}

	doneCh, stopCh, err := client.WsCombinedMarketTickersStatServe(pairs, s.handle, s.handleErr)
	if err != nil {
		return fmt.Errorf("start ticker stream: %w", err)
	}
	s.connected.Store(true)
	s.logger.Info().Int("symbols", len(pairs)).Msg("ticker stream connected")

	go func() {
		select {
		case <-ctx.Done():
			close(stopCh)
			<-doneCh
		case <-doneCh:
		}
		s.connected.Store(false)
		s.logger.Info().Msg("ticker stream closed")
	}()
	return nil
}

func (s *TickerStream) handle(event *binance.WsMarketTickerStatEvent) {
	price, err := strconv.ParseFloat(event.LastPrice, 64)
	if err != nil || price <= 0 {
		s.logger.Debug().Str("symbol", event.Symbol).Str("price", event.LastPrice).Msg("ignored ticker event")
		return
	}
	symbol := strings.TrimSuffix(strings.ToUpper(event.Symbol), quoteAsset)
	tick := model.PriceTick{
		Symbol:     symbol,
		Price:      price,
		Change24h:  parseFloat(event.PriceChangePercent),
		Volume24h:  parseFloat(event.BaseVolume),
		LastUpdate: time.UnixMilli(event.Time),
	}
	s.mu.Lock()
	s.ticks[symbol] = tick
	s.mu.Unlock()
	// A read error is not fatal to the connection; events arriving again
	// mean the stream recovered.
	s.connected.Store(true)
}

func (s *TickerStream) handleErr(err error) {
	s.logger.Error().Err(err).Msg("ticker stream error")
	s.connected.Store(false)
}

// Snapshot returns the cached ticks in configured symbol order. ok is false
// while the stream is disconnected, empty, or stale.
func (s *TickerStream) Snapshot() ([]model.PriceTick, bool) {
	if !s.connected.Load() {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticks := make([]model.PriceTick, 0, len(s.symbols))
	var freshest time.Time
	for _, sym := range s.symbols {
		t, ok := s.ticks[strings.ToUpper(sym)]
		if !ok {
			continue
		}
		if t.LastUpdate.After(freshest) {
			freshest = t.LastUpdate
		}
		ticks = append(ticks, t)
	}
	if len(ticks) == 0 || s.now().Sub(freshest) > staleAfter {
		return nil, false
	}
	return ticks, true
}
