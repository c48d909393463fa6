package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"CryptoAdvisor/internal/model"
)

// AppName signs every outgoing message.
const AppName = "Crypto Trade Advisor"

// Kind is the category of an alert.
type Kind string

const (
	KindBuy     Kind = "buy"
	KindSell    Kind = "sell"
	KindProfit  Kind = "profit"
	KindLoss    Kind = "loss"
	KindTest    Kind = "test"
	KindMessage Kind = "message" // free text relayed on request
)

// Alert is a formatted, channel-independent notification.
type Alert struct {
	Kind      Kind
	Symbol    string
	Title     string
	Lines     []string
	Urgent    bool
	Timestamp time.Time
}

// Text renders the alert as a plain message.
func (a Alert) Text() string {
	var b strings.Builder
	b.WriteString(a.Title)
	b.WriteString("\n\n")
	for _, l := range a.Lines {
		if l == "" {
			continue
		}
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.Timestamp.Format("2006-01-02 15:04:05.000"))
	b.WriteString("\n")
	b.WriteString(AppName)
	return b.String()
}

// FormatPrice renders a quote-currency price with thousands separators.
func FormatPrice(price float64) string {
	digits := 0
	if price < 100 {
		digits = 2
	}
	if price < 1 {
		digits = 4
	}
	return "¥" + humanize.CommafWithDigits(price, digits)
}

func priceLine(price float64) string {
	if price <= 0 {
		return ""
	}
	return "Price: " + FormatPrice(price)
}

// BuyAlert formats a BUY signal.
func BuyAlert(sig *model.TradeSignal, now time.Time) Alert {
	return Alert{
		Kind:   KindBuy,
		Symbol: sig.Symbol,
		Title:  "🟢 Buy signal",
		Lines: []string{
			"Symbol: " + sig.Symbol,
			fmt.Sprintf("Score: %d/100", sig.Score),
			"Reason: " + strings.Join(sig.Reasons, ", "),
			priceLine(sig.Price),
		},
		Timestamp: now,
	}
}

// SellAlert formats a SELL signal for a held symbol.
func SellAlert(sig *model.TradeSignal, profitPercent float64, now time.Time) Alert {
	title := "🔴 Sell signal"
	if profitPercent > 50 {
		title = "🚨🚨🚨 URGENT sell signal"
	}
	return Alert{
		Kind:   KindSell,
		Symbol: sig.Symbol,
		Title:  title,
		Lines: []string{
			fmt.Sprintf("Consider selling %s now.", sig.Symbol),
			"",
			fmt.Sprintf("Profit: %+.1f%%", profitPercent),
			"Reason: " + strings.Join(sig.Reasons, ", "),
			priceLine(sig.Price),
			"⚠️ Check your position ⚠️",
		},
		Urgent:    true,
		Timestamp: now,
	}
}

// ProfitTargetAlert formats a reached profit target.
func ProfitTargetAlert(symbol string, profitPercent, target float64, now time.Time) Alert {
	return Alert{
		Kind:   KindProfit,
		Symbol: symbol,
		Title:  "🎯 Profit target reached",
		Lines: []string{
			"Symbol: " + symbol,
			fmt.Sprintf("Current profit: %+.1f%%", profitPercent),
			fmt.Sprintf("Target: +%g%%", target),
			"Consider taking profit.",
		},
		Timestamp: now,
	}
}

// LossLimitAlert formats a crossed loss limit.
func LossLimitAlert(symbol string, profitPercent, limit float64, now time.Time) Alert {
	return Alert{
		Kind:   KindLoss,
		Symbol: symbol,
		Title:  "⚠️ Loss limit reached",
		Lines: []string{
			"Symbol: " + symbol,
			fmt.Sprintf("Current loss: %.1f%%", profitPercent),
			fmt.Sprintf("Limit: -%g%%", limit),
			"Consider cutting the position.",
		},
		Timestamp: now,
	}
}

// TestAlert formats a webhook test message. id makes each test unique so
// chat services do not collapse repeated tests.
func TestAlert(id string, now time.Time) Alert {
	return Alert{
		Kind:  KindTest,
		Title: "📱 Test notification #" + id,
		Lines: []string{
			"Webhook delivery from " + AppName + " is working.",
			"You will be notified on buy and sell signals.",
			"ID: " + id,
		},
		Timestamp: now,
	}
}

// MessageAlert wraps free text in a neutral alert.
func MessageAlert(text string, now time.Time) Alert {
	return Alert{Kind: KindMessage, Title: text, Timestamp: now}
}
