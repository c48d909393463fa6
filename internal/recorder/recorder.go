// Package recorder keeps a local history of generated signals and sent
// notifications.
package recorder

import "CryptoAdvisor/internal/model"

// SignalSnapshot is one generated signal with the inputs behind it.
type SignalSnapshot struct {
	Signal     *model.TradeSignal
	Indicators *model.Indicators
	Factors    []model.FactorScore
	Composite  float64
	Thresholds model.Thresholds
}

// NotificationEvent records one alert that passed the cooldown gate.
type NotificationEvent struct {
	Symbol    string
	Type      model.NotificationType
	Level     *float64
	Title     string
	Delivered []string // channels that succeeded
	Failed    []string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSignal(snap *SignalSnapshot) error
	RecordNotification(evt *NotificationEvent) error
	// RecentSignals returns up to limit signals, newest first.
	RecentSignals(limit int) ([]model.TradeSignal, error)
	// RecentScores returns up to limit composite scores of symbol's primary
	// signals, oldest first.
	RecentScores(symbol string, limit int) ([]float64, error)
	Close() error
}
