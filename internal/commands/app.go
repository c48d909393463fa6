package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/collector"
	"CryptoAdvisor/internal/config"
	"CryptoAdvisor/internal/cooldown"
	"CryptoAdvisor/internal/model"
	"CryptoAdvisor/internal/notifier"
	"CryptoAdvisor/internal/platform/httpclient"
	"CryptoAdvisor/internal/platform/redisclient"
	"CryptoAdvisor/internal/portfolio"
	"CryptoAdvisor/internal/recorder"
	"CryptoAdvisor/internal/scheduler"
	"CryptoAdvisor/internal/strategy"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg       *config.Config
	binance   *collector.BinanceSource
	stream    *collector.TickerStream
	source    collector.Source
	collector *collector.Collector
	portfolio *portfolio.Manager
	recorder  recorder.Recorder
	gate      *cooldown.Gate
	webhook   *notifier.WebhookSender
	telegram  *notifier.TelegramChannel
	scheduler *scheduler.Scheduler
	rdb       *redis.Client
}

// newApp wires every component from cfg. Optional backends (Redis, SQLite,
// Telegram) degrade to in-process fallbacks when unavailable.
func newApp(ctx context.Context, cfg *config.Config, mock bool) (*app, error) {
	a := &app{cfg: cfg}

	if cfg.Redis.Addr != "" {
		rdb, err := redisclient.New(ctx, redisclient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory cooldown and no candle cache")
		} else {
			a.rdb = rdb
		}
	}

	a.source = a.marketSource(mock)
	if a.rdb != nil {
		a.source = collector.NewCachingSource(a.source, a.rdb, cfg.Redis.CandleTTL, cfg.Redis.Namespace+":market")
	}
	log.Info().Str("source", a.source.Name()).Msg("market data source ready")
	a.collector = collector.NewCollector(a.source, cfg.Analysis.Interval, cfg.Analysis.Limit)

	pm, err := portfolio.NewManager(cfg.StateFile)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init portfolio: %w", err)
	}
	a.portfolio = pm

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, cfg.Database.KeepSignals)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
		}
	}

	var store cooldown.Store = cooldown.NewMemoryStore()
	if a.rdb != nil {
		store = cooldown.NewRedisStore(a.rdb, cfg.Redis.Namespace+":cooldown")
	}
	a.gate = cooldown.NewGate(store)

	a.webhook = notifier.NewWebhookSender(cfg.Proxy, cfg.Market.Timeout)
	if cfg.TelegramEnabled() {
		chatID, _ := cfg.TelegramChatID()
		tg, err := notifier.NewTelegramChannel(cfg.Notify.Telegram.BotToken, chatID)
		if err != nil {
			log.Warn().Err(err).Msg("telegram disabled")
		} else {
			a.telegram = tg
		}
	}

	channels := []notifier.Channel{
		notifier.NewChime(os.Stdout, func() bool {
			return !cfg.Notify.Mute && a.portfolio.Settings().Enabled
		}),
		notifier.NewWebhookChannel(a.webhook, func() string { return cfg.Notify.WebhookURL }),
	}
	if a.telegram != nil {
		channels = append(channels, a.telegram)
	}

	a.scheduler = scheduler.NewScheduler(scheduler.Deps{
		Collector:  a.collector,
		Analyzer:   strategy.NewAnalyzer(a.source),
		History:    strategy.NewScoreHistory(cfg.Analysis.HistorySize),
		Gate:       a.gate,
		Dispatcher: notifier.NewDispatcher(channels...),
		Portfolio:  a.portfolio,
		Recorder:   a.recorder,
	}, scheduler.Options{
		PollInterval: cfg.Schedule.PollInterval,
		Timeframes:   cfg.Analysis.Timeframes,
		Sizing: strategy.Sizing{
			NewPosition: cfg.Sizing.NewPosition,
			AddPosition: cfg.Sizing.AddPosition,
			SellPercent: cfg.Sizing.SellPercent,
		},
		BuyMinScore: cfg.Notify.BuyMinScore,
	})
	a.scheduler.SeedHistory(cfg.Market.Symbols, cfg.Analysis.HistorySize)
	return a, nil
}

func (a *app) marketSource(mock bool) collector.Source {
	if mock {
		now := time.Now()
		return &collector.MockSource{
			Ticks:          collector.DemoTicks(now),
			FearGreedValue: &model.FearGreed{Value: 45, Classification: "Fear", Timestamp: now},
		}
	}
	cfg := a.cfg
	client := httpclient.New(httpclient.Options{
		Timeout:        cfg.Market.Timeout,
		RequestsPerSec: cfg.Market.RequestsPerSec,
		ProxyURL:       cfg.Proxy,
	})
	fx := collector.NewFXRate(client, cfg.Market.FXURL, cfg.Market.Currency)
	opts := []collector.BinanceOption{
		collector.WithFearGreed(collector.NewFearGreedClient(client, cfg.Market.FearGreedURL)),
	}
	if cfg.Market.Stream {
		a.stream = collector.NewTickerStream(cfg.Market.Symbols)
		opts = append(opts, collector.WithTickerStream(a.stream))
	}
	a.binance = collector.NewBinanceSource(client, cfg.Market.BinanceURL, cfg.Market.Symbols, fx, opts...)
	return a.binance
}

// priceAt returns the quote-currency price of symbol at t.
func (a *app) priceAt(ctx context.Context, symbol string, t time.Time) (float64, error) {
	if a.binance != nil {
		return a.binance.PriceAt(ctx, symbol, t)
	}
	ticks, err := a.source.Prices(ctx)
	if err != nil {
		return 0, err
	}
	for _, tick := range ticks {
		if tick.Symbol == symbol {
			return tick.Price, nil
		}
	}
	return 0, fmt.Errorf("no price for %s: %w", symbol, collector.ErrUnavailable)
}

func (a *app) close() {
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			log.Warn().Err(err).Msg("close recorder")
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
	}
}
