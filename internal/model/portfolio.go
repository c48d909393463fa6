package model

import "time"

// Holding is a user-declared position in one currency.
type Holding struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name,omitempty"`
	Amount        float64   `json:"amount"`
	PurchasePrice float64   `json:"purchasePrice"` // quote currency per unit
	PurchaseDate  time.Time `json:"purchaseDate"`
}

// ProfitPercent returns the unrealized profit of the holding at price, in percent.
func (h *Holding) ProfitPercent(price float64) float64 {
	if h.PurchasePrice == 0 {
		return 0
	}
	return (price - h.PurchasePrice) / h.PurchasePrice * 100
}

// NotificationSettings is the user-owned alert configuration.
type NotificationSettings struct {
	Enabled       bool      `json:"enabled"`
	BuySignals    bool      `json:"buySignals"`
	SellSignals   bool      `json:"sellSignals"`
	PriceAlerts   bool      `json:"priceAlerts"`
	ProfitTargets []float64 `json:"profitTargets"`
	LossLimits    []float64 `json:"lossLimits"`
}

// DefaultNotificationSettings returns the settings used before the user changes anything.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:       true,
		BuySignals:    true,
		SellSignals:   true,
		PriceAlerts:   true,
		ProfitTargets: []float64{20, 50, 100},
		LossLimits:    []float64{10, 20},
	}
}

// PortfolioState is everything persisted across sessions.
type PortfolioState struct {
	Holdings     []Holding            `json:"holdings"`
	Settings     NotificationSettings `json:"settings"`
	AlertHistory []TradeSignal        `json:"alertHistory"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}
