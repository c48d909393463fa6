// Package cooldown rate-limits notifications per (symbol, type) pair.
package cooldown

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/model"
)

// Retention is how long records are kept for decisions and summaries.
const Retention = 24 * time.Hour

// LevelOverride is the swing in percentage points that bypasses an active
// PROFIT or LOSS cooldown.
const LevelOverride = 20.0

// DefaultWindows are the per-type cooldown windows.
var DefaultWindows = map[model.NotificationType]time.Duration{
	model.NotifyBuy:    time.Hour,
	model.NotifySell:   30 * time.Minute,
	model.NotifyProfit: 4 * time.Hour,
	model.NotifyLoss:   2 * time.Hour,
}

const recentLimit = 10

// Gate decides whether a notification may fire.
type Gate struct {
	store   Store
	windows map[model.NotificationType]time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithWindows overrides individual cooldown windows.
func WithWindows(w map[model.NotificationType]time.Duration) Option {
	return func(g *Gate) {
		for k, v := range w {
			g.windows[k] = v
		}
	}
}

// NewGate creates a Gate over store.
func NewGate(store Store, opts ...Option) *Gate {
	g := &Gate{
		store:   store,
		windows: make(map[model.NotificationType]time.Duration, len(DefaultWindows)),
		now:     time.Now,
		logger:  log.With().Str("component", "cooldown").Logger(),
	}
	for k, v := range DefaultWindows {
		g.windows[k] = v
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// CanSend reports whether a notification of typ for symbol may fire now.
// It does not record anything, so repeated calls give the same answer.
func (g *Gate) CanSend(ctx context.Context, symbol string, typ model.NotificationType, level *float64) (bool, error) {
	now := g.now()
	last, err := g.latest(ctx, symbol, typ, now)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}

	if now.Sub(last.Timestamp) >= g.windows[typ] {
		return true, nil
	}
	if (typ == model.NotifyProfit || typ == model.NotifyLoss) && level != nil && last.Level != nil {
		if math.Abs(*level-*last.Level) >= LevelOverride {
			g.logger.Debug().Str("symbol", symbol).Str("type", string(typ)).
				Float64("level", *level).Float64("last_level", *last.Level).Msg("cooldown overridden by level swing")
			return true, nil
		}
	}
	return false, nil
}

// Record stores a delivered notification.
func (g *Gate) Record(ctx context.Context, symbol string, typ model.NotificationType, level *float64) error {
	now := g.now()
	last, err := g.latest(ctx, symbol, typ, now)
	if err != nil {
		return err
	}
	// Keep per-pair timestamps monotonic even if the clock steps back.
	if last != nil && now.Before(last.Timestamp) {
		now = last.Timestamp
	}
	rec := model.NotificationRecord{Symbol: symbol, Type: typ, Timestamp: now, Level: level}
	if err := g.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

// Remaining returns how long the pair stays in cooldown; zero when free.
func (g *Gate) Remaining(ctx context.Context, symbol string, typ model.NotificationType) (time.Duration, error) {
	now := g.now()
	last, err := g.latest(ctx, symbol, typ, now)
	if err != nil || last == nil {
		return 0, err
	}
	left := g.windows[typ] - now.Sub(last.Timestamp)
	if left < 0 {
		return 0, nil
	}
	return left, nil
}

// Summary reports the trailing 24h history and the pairs still cooling down,
// newest first.
func (g *Gate) Summary(ctx context.Context) (model.NotificationSummary, error) {
	now := g.now()
	if err := g.store.Prune(ctx, now.Add(-Retention)); err != nil {
		return model.NotificationSummary{}, fmt.Errorf("prune: %w", err)
	}
	records, err := g.store.Since(ctx, now.Add(-Retention))
	if err != nil {
		return model.NotificationSummary{}, fmt.Errorf("load history: %w", err)
	}

	sum := model.NotificationSummary{
		TotalCount: len(records),
		ByType:     make(map[model.NotificationType]int),
	}
	for _, r := range records {
		sum.ByType[r.Type]++
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp.After(records[j].Timestamp) })

	seen := make(map[string]bool)
	for _, r := range records {
		key := pairField(r.Symbol, r.Type)
		if seen[key] {
			continue
		}
		seen[key] = true
		left, err := g.Remaining(ctx, r.Symbol, r.Type)
		if err != nil {
			return model.NotificationSummary{}, err
		}
		if left > 0 {
			sum.Cooldowns = append(sum.Cooldowns, model.ActiveCooldown{Symbol: r.Symbol, Type: r.Type, Remaining: left})
		}
	}

	if len(records) > recentLimit {
		records = records[:recentLimit]
	}
	sum.Recent = records
	return sum, nil
}

// latest prunes expired history and returns the pair's newest live record.
func (g *Gate) latest(ctx context.Context, symbol string, typ model.NotificationType, now time.Time) (*model.NotificationRecord, error) {
	cutoff := now.Add(-Retention)
	if err := g.store.Prune(ctx, cutoff); err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	last, err := g.store.Latest(ctx, symbol, typ)
	if err != nil {
		return nil, fmt.Errorf("latest record: %w", err)
	}
	if last == nil || last.Timestamp.Before(cutoff) {
		return nil, nil
	}
	return last, nil
}
