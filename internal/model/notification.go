package model

import "time"

// NotificationType is the cooldown category of an alert.
type NotificationType string

const (
	NotifyBuy    NotificationType = "BUY"
	NotifySell   NotificationType = "SELL"
	NotifyProfit NotificationType = "PROFIT"
	NotifyLoss   NotificationType = "LOSS"
)

// NotificationRecord marks one delivered alert for cooldown purposes.
type NotificationRecord struct {
	Symbol    string           `json:"symbol"`
	Type      NotificationType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Level     *float64         `json:"level,omitempty"`
}

// ActiveCooldown is a (symbol, type) pair still inside its cooldown window.
type ActiveCooldown struct {
	Symbol    string           `json:"symbol"`
	Type      NotificationType `json:"type"`
	Remaining time.Duration    `json:"remainingNs"`
}

// NotificationSummary is the trailing 24h view of the cooldown history.
type NotificationSummary struct {
	TotalCount int                      `json:"totalCount"`
	ByType     map[NotificationType]int `json:"byType"`
	Recent     []NotificationRecord     `json:"recent"`
	Cooldowns  []ActiveCooldown         `json:"cooldowns"`
}
