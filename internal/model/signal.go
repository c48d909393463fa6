package model

import "time"

// Action is the recommended trade direction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Confidence is the coarse tier attached to a TradeSignal.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// FactorScore represents a single sub-score of the composite score.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"rawScore"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// TradeSignal is the final output of one synthesis cycle for one symbol.
type TradeSignal struct {
	Symbol              string     `json:"symbol"`
	Action              Action     `json:"action"`
	Score               int        `json:"score"` // 0 ~ 100
	Reasons             []string   `json:"reasons"`
	SuggestedAmount     *float64   `json:"suggestedAmount,omitempty"`
	SuggestedPercentage *float64   `json:"suggestedPercentage,omitempty"`
	Confidence          Confidence `json:"confidence"`
	Timestamp           time.Time  `json:"timestamp"`
	RSI                 float64    `json:"rsi"`
	Price               float64    `json:"price"`
	// Primary is false for the opposite-side signal emitted when both
	// sides are eligible for a held symbol.
	Primary bool `json:"primary"`
}
