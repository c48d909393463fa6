package strategy

import (
	"sync"

	"CryptoAdvisor/internal/model"
)

// DefaultHistorySize bounds the per-symbol score window.
const DefaultHistorySize = 100

// ScoreHistory keeps recent composite scores per symbol. They feed
// DynamicThresholds so the cut-offs follow each symbol's own distribution.
type ScoreHistory struct {
	mu     sync.Mutex
	size   int
	scores map[string][]float64
}

// NewScoreHistory creates a history keeping at most size scores per symbol.
func NewScoreHistory(size int) *ScoreHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &ScoreHistory{size: size, scores: make(map[string][]float64)}
}

// Add appends a score, evicting the oldest beyond capacity.
func (h *ScoreHistory) Add(symbol string, score float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := append(h.scores[symbol], score)
	if len(s) > h.size {
		s = s[len(s)-h.size:]
	}
	h.scores[symbol] = s
}

// Seed replaces a symbol's history, oldest first.
func (h *ScoreHistory) Seed(symbol string, scores []float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(scores) > h.size {
		scores = scores[len(scores)-h.size:]
	}
	h.scores[symbol] = append([]float64(nil), scores...)
}

// Samples returns a copy of the symbol's scores, oldest first.
func (h *ScoreHistory) Samples(symbol string) []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]float64(nil), h.scores[symbol]...)
}

// Thresholds computes dynamic thresholds from the symbol's history.
func (h *ScoreHistory) Thresholds(symbol string) model.Thresholds {
	return DynamicThresholds(h.Samples(symbol))
}
