// Package portfolio persists the user's holdings, notification settings and
// alert history.
package portfolio

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/model"
)

// MaxAlertHistory bounds the stored alert history.
const MaxAlertHistory = 50

var (
	ErrHoldingNotFound = errors.New("holding not found")
	ErrInvalidSettings = errors.New("invalid notification settings")
)

// Manager handles portfolio state with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.PortfolioState
	filePath string
	logger   zerolog.Logger
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		state:    state,
		filePath: filePath,
		logger:   log.With().Str("component", "portfolio").Logger(),
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Holdings returns a copy of every recorded purchase.
func (m *Manager) Holdings() []model.Holding {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Holding(nil), m.state.Holdings...)
}

// Holding aggregates all purchases of symbol into one position: total
// amount, amount-weighted purchase price and the earliest purchase date.
func (m *Manager) Holding(symbol string) (*model.Holding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	var agg *model.Holding
	var cost float64
	for _, h := range m.state.Holdings {
		if h.Symbol != symbol {
			continue
		}
		if agg == nil {
			agg = &model.Holding{ID: h.ID, Symbol: symbol, Name: h.Name, PurchaseDate: h.PurchaseDate}
		}
		agg.Amount += h.Amount
		cost += h.Amount * h.PurchasePrice
		if h.PurchaseDate.Before(agg.PurchaseDate) {
			agg.PurchaseDate = h.PurchaseDate
		}
	}
	if agg == nil || agg.Amount <= 0 {
		return nil, false
	}
	agg.PurchasePrice = cost / agg.Amount
	return agg, true
}

// Add records a purchase and returns it with its assigned ID.
func (m *Manager) Add(h model.Holding) (model.Holding, error) {
	h.Symbol = strings.ToUpper(strings.TrimSpace(h.Symbol))
	switch {
	case h.Symbol == "":
		return model.Holding{}, fmt.Errorf("holding symbol is required")
	case h.Amount <= 0:
		return model.Holding{}, fmt.Errorf("holding amount must be positive, got %v", h.Amount)
	case h.PurchasePrice <= 0:
		return model.Holding{}, fmt.Errorf("purchase price must be positive, got %v", h.PurchasePrice)
	}
	h.ID = uuid.NewString()
	if h.PurchaseDate.IsZero() {
		h.PurchaseDate = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Holdings = append(m.state.Holdings, h)
	if err := m.save(); err != nil {
		m.state.Holdings = m.state.Holdings[:len(m.state.Holdings)-1]
		return model.Holding{}, fmt.Errorf("save portfolio: %w", err)
	}
	m.logger.Info().Str("symbol", h.Symbol).Float64("amount", h.Amount).Msg("holding added")
	return h, nil
}

// Remove deletes the purchase with id.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, h := range m.state.Holdings {
		if h.ID != id {
			continue
		}
		prev := m.state.Holdings
		m.state.Holdings = append(m.state.Holdings[:i:i], m.state.Holdings[i+1:]...)
		if err := m.save(); err != nil {
			m.state.Holdings = prev
			return fmt.Errorf("save portfolio: %w", err)
		}
		m.logger.Info().Str("id", id).Str("symbol", h.Symbol).Msg("holding removed")
		return nil
	}
	return fmt.Errorf("%w: %s", ErrHoldingNotFound, id)
}

// Settings returns a copy of the notification settings.
func (m *Manager) Settings() model.NotificationSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state.Settings
	s.ProfitTargets = append([]float64(nil), s.ProfitTargets...)
	s.LossLimits = append([]float64(nil), s.LossLimits...)
	return s
}

// UpdateSettings replaces the notification settings. Thresholds must be
// positive percentages.
func (m *Manager) UpdateSettings(s model.NotificationSettings) error {
	for _, v := range append(append([]float64(nil), s.ProfitTargets...), s.LossLimits...) {
		if v <= 0 {
			return fmt.Errorf("%w: threshold %v must be positive", ErrInvalidSettings, v)
		}
	}
	s.ProfitTargets = append([]float64(nil), s.ProfitTargets...)
	s.LossLimits = append([]float64(nil), s.LossLimits...)

	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.state.Settings
	m.state.Settings = s
	if err := m.save(); err != nil {
		m.state.Settings = prev
		return fmt.Errorf("save settings: %w", err)
	}
	m.logger.Info().Bool("enabled", s.Enabled).Msg("notification settings updated")
	return nil
}

// AddAlert prepends sig to the alert history, keeping the newest MaxAlertHistory.
func (m *Manager) AddAlert(sig model.TradeSignal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]model.TradeSignal, 0, len(m.state.AlertHistory)+1)
	history = append(history, sig)
	history = append(history, m.state.AlertHistory...)
	if len(history) > MaxAlertHistory {
		history = history[:MaxAlertHistory]
	}
	m.state.AlertHistory = history

	if err := m.save(); err != nil {
		m.logger.Error().Err(err).Msg("failed to save alert history")
	}
}

// Alerts returns the alert history, newest first.
func (m *Manager) Alerts() []model.TradeSignal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.TradeSignal(nil), m.state.AlertHistory...)
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
