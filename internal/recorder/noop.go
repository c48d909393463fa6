package recorder

import "CryptoAdvisor/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *SignalSnapshot) error { return nil }

func (n *NoopRecorder) RecordNotification(_ *NotificationEvent) error { return nil }

func (n *NoopRecorder) RecentSignals(_ int) ([]model.TradeSignal, error) { return nil, nil }

func (n *NoopRecorder) RecentScores(_ string, _ int) ([]float64, error) { return nil, nil }

func (n *NoopRecorder) Close() error { return nil }
