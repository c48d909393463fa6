package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/platform/httpclient"
)

const (
	DefaultFXURL = "https://api.exchangerate-api.com/v4/latest/USD"
	// FallbackUSDJPY is used whenever the live rate cannot be read.
	FallbackUSDJPY = 157.0
	fxCacheTTL     = 10 * time.Minute
)

// FXRate converts USD-denominated exchange prices into the quote currency.
type FXRate struct {
	client   *httpclient.Client
	url      string
	currency string
	now      func() time.Time
	logger   zerolog.Logger

	mu      sync.Mutex
	rate    float64
	fetched time.Time
}

// NewFXRate creates a converter for USD into currency.
func NewFXRate(client *httpclient.Client, url, currency string) *FXRate {
	if url == "" {
		url = DefaultFXURL
	}
	if currency == "" {
		currency = "JPY"
	}
	return &FXRate{
		client:   client,
		url:      url,
		currency: strings.ToUpper(currency),
		now:      time.Now,
		logger:   log.With().Str("component", "fx").Logger(),
	}
}

type fxResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Rate returns USD→quote. A failed lookup yields FallbackUSDJPY and is not cached.
func (f *FXRate) Rate(ctx context.Context) float64 {
	if f.currency == "USD" {
		return 1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rate > 0 && f.now().Sub(f.fetched) < fxCacheTTL {
		return f.rate
	}

	rate, err := f.fetch(ctx)
	if err != nil {
		f.logger.Warn().Err(err).Float64("fallback", FallbackUSDJPY).Msg("exchange rate lookup failed")
		return FallbackUSDJPY
	}
	f.rate, f.fetched = rate, f.now()
	f.logger.Debug().Float64("rate", rate).Str("currency", f.currency).Msg("exchange rate refreshed")
	return rate
}

func (f *FXRate) fetch(ctx context.Context) (float64, error) {
	var resp fxResponse
	if err := f.client.GetJSON(ctx, f.url, &resp); err != nil {
		return 0, err
	}
	rate, ok := resp.Rates[f.currency]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("no %s rate in response", f.currency)
	}
	return rate, nil
}
