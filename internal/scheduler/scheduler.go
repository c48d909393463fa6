// Package scheduler runs the periodic signal-generation pass and decides
// which signals become notifications.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/collector"
	"CryptoAdvisor/internal/cooldown"
	"CryptoAdvisor/internal/model"
	"CryptoAdvisor/internal/notifier"
	"CryptoAdvisor/internal/recorder"
	"CryptoAdvisor/internal/strategy"
)

// ErrPassInFlight is returned by RunOnce while another pass is running.
var ErrPassInFlight = errors.New("generation pass already running")

// MarketCollector supplies market snapshots and single-timeframe indicators.
type MarketCollector interface {
	Snapshot(ctx context.Context) (*collector.Snapshot, error)
	Indicators(ctx context.Context, tick model.PriceTick) (model.Indicators, error)
}

// Portfolio is the holdings and settings store the pass reads.
type Portfolio interface {
	Holdings() []model.Holding
	Holding(symbol string) (*model.Holding, bool)
	Settings() model.NotificationSettings
	AddAlert(sig model.TradeSignal)
}

// Deps are the collaborators of a Scheduler.
type Deps struct {
	Collector  MarketCollector
	Analyzer   *strategy.Analyzer
	History    *strategy.ScoreHistory
	Gate       *cooldown.Gate
	Dispatcher *notifier.Dispatcher
	Portfolio  Portfolio
	Recorder   recorder.Recorder
}

// Options tune the pass.
type Options struct {
	PollInterval time.Duration
	Timeframes   []string
	Sizing       strategy.Sizing
	// BuyMinScore is the score a BUY signal must exceed to notify.
	BuyMinScore int
}

// Scheduler manages the polling loop.
type Scheduler struct {
	Deps
	opts    Options
	cron    *cron.Cron
	now     func() time.Time
	running atomic.Bool
	logger  zerolog.Logger

	mu      sync.RWMutex
	signals []model.TradeSignal
	ticks   []model.PriceTick
	fg      *model.FearGreed
	lastRun time.Time
}

// NewScheduler creates a Scheduler. Zero options fall back to defaults.
func NewScheduler(deps Deps, opts Options) *Scheduler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if len(opts.Timeframes) == 0 {
		opts.Timeframes = strategy.DefaultTimeframes
	}
	if opts.Sizing == (strategy.Sizing{}) {
		opts.Sizing = strategy.DefaultSizing
	}
	if opts.BuyMinScore == 0 {
		opts.BuyMinScore = 75
	}
	if deps.History == nil {
		deps.History = strategy.NewScoreHistory(strategy.DefaultHistorySize)
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	logger := log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		Deps:   deps,
		opts:   opts,
		now:    time.Now,
		logger: logger,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{logger}),
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
	}
}

// SeedHistory loads recent composite scores so dynamic thresholds are
// available from the first pass.
func (s *Scheduler) SeedHistory(symbols []string, size int) {
	for _, sym := range symbols {
		scores, err := s.Recorder.RecentScores(sym, size)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", sym).Msg("could not load score history")
			continue
		}
		if len(scores) > 0 {
			s.History.Seed(sym, scores)
			s.logger.Debug().Str("symbol", sym).Int("scores", len(scores)).Msg("score history seeded")
		}
	}
}

// Start registers the polling job and starts the cron scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.opts.PollInterval)
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrPassInFlight) {
			s.logger.Error().Err(err).Msg("generation pass failed")
		}
	}); err != nil {
		return fmt.Errorf("register poll task: %w", err)
	}
	s.cron.Start()
	s.logger.Info().Dur("interval", s.opts.PollInterval).Msg("scheduler started")
	return nil
}

// Stop stops the cron scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunOnce executes one generation pass over every tracked symbol.
// Failures of a single symbol are logged and do not abort the pass.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("previous pass still running, tick skipped")
		return ErrPassInFlight
	}
	defer s.running.Store(false)

	start := s.now()
	snap, err := s.Collector.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("market snapshot: %w", err)
	}

	var signals []model.TradeSignal
	for _, tick := range snap.Ticks {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sigs, err := s.processSymbol(ctx, tick, snap.FearGreed)
		if err != nil {
			ev := s.logger.Error()
			if errors.Is(err, collector.ErrUnavailable) || errors.Is(err, collector.ErrInsufficientData) {
				ev = s.logger.Warn()
			}
			ev.Err(err).Str("symbol", tick.Symbol).Msg("symbol skipped this cycle")
			continue
		}
		signals = append(signals, sigs...)
	}

	s.mu.Lock()
	s.signals = signals
	s.ticks = snap.Ticks
	s.fg = snap.FearGreed
	s.lastRun = start
	s.mu.Unlock()

	s.logger.Info().
		Int("symbols", len(snap.Ticks)).
		Int("signals", len(signals)).
		Dur("took", s.now().Sub(start)).
		Msg("generation pass complete")
	return nil
}

func (s *Scheduler) processSymbol(ctx context.Context, tick model.PriceTick, fg *model.FearGreed) ([]model.TradeSignal, error) {
	ind, err := s.Collector.Indicators(ctx, tick)
	if err != nil {
		return nil, err
	}
	score, factors := strategy.Score(&ind, tick.Price)

	var frames []model.TimeframeSignal
	if s.Analyzer != nil {
		frames = s.Analyzer.Analyze(ctx, tick.Symbol, s.opts.Timeframes)
	}
	mtf := strategy.Composite(frames)

	thresholds := s.History.Thresholds(tick.Symbol)
	holding, _ := s.Portfolio.Holding(tick.Symbol)

	signals := strategy.Synthesize(strategy.SynthesisInput{
		Tick:       tick,
		Indicators: ind,
		Score:      score,
		MTF:        mtf,
		FearGreed:  fg,
		Holding:    holding,
		Thresholds: thresholds,
		Sizing:     s.opts.Sizing,
		Now:        s.now(),
	})
	composite := strategy.CompositeScore(score, mtf)
	s.History.Add(tick.Symbol, composite)

	for i := range signals {
		if err := s.Recorder.RecordSignal(&recorder.SignalSnapshot{
			Signal:     &signals[i],
			Indicators: &ind,
			Factors:    factors,
			Composite:  composite,
			Thresholds: thresholds,
		}); err != nil {
			s.logger.Error().Err(err).Str("symbol", tick.Symbol).Msg("record signal")
		}
	}
	s.logger.Debug().
		Str("symbol", tick.Symbol).
		Int("score", score).
		Float64("composite", composite).
		Str("mtf", string(mtf.Action)).
		Str("action", string(signals[0].Action)).
		Msg("symbol analyzed")

	s.notify(ctx, tick, holding, signals)
	return signals, nil
}

// Latest returns the signals of the last completed pass and when it started.
func (s *Scheduler) Latest() ([]model.TradeSignal, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TradeSignal(nil), s.signals...), s.lastRun
}

// Market returns the ticks and sentiment of the last completed pass.
func (s *Scheduler) Market() ([]model.PriceTick, *model.FearGreed) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.PriceTick(nil), s.ticks...), s.fg
}

// Summary reports recent notification activity.
func (s *Scheduler) Summary(ctx context.Context) (model.NotificationSummary, error) {
	return s.Gate.Summary(ctx)
}

type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
