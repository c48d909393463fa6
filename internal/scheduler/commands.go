package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"CryptoAdvisor/internal/model"
	"CryptoAdvisor/internal/notifier"
)

const helpText = "Available commands:\n• /signals - latest recommendations\n• /holdings - positions and profit\n• /summary - notifications in the last 24h"

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	var verb string
	if fields := strings.Fields(command); len(fields) > 0 {
		verb = strings.ToLower(fields[0])
	}
	switch verb {
	case "/signals":
		return s.formatSignals()
	case "/holdings":
		return s.formatHoldings()
	case "/summary":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sum, err := s.Summary(ctx)
		if err != nil {
			return "Summary unavailable: " + err.Error()
		}
		return FormatSummary(sum)
	default:
		return helpText
	}
}

func (s *Scheduler) formatSignals() string {
	signals, at := s.Latest()
	if at.IsZero() {
		return "No analysis has run yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Signals at %s\n", at.Format("15:04:05"))
	for _, sig := range signals {
		marker := ""
		if !sig.Primary {
			marker = " (secondary)"
		}
		fmt.Fprintf(&b, "\n%s %s%s score %d [%s]", sig.Symbol, sig.Action, marker, sig.Score, sig.Confidence)
		if len(sig.Reasons) > 0 {
			fmt.Fprintf(&b, "\n  %s", strings.Join(sig.Reasons, ", "))
		}
	}
	return b.String()
}

func (s *Scheduler) formatHoldings() string {
	holdings := s.Portfolio.Holdings()
	if len(holdings) == 0 {
		return "No holdings recorded."
	}
	ticks, _ := s.Market()
	prices := make(map[string]float64, len(ticks))
	for _, t := range ticks {
		prices[t.Symbol] = t.Price
	}

	symbols := make([]string, 0)
	seen := map[string]bool{}
	for _, h := range holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}
	sort.Strings(symbols)

	var b strings.Builder
	b.WriteString("💼 Holdings")
	for _, sym := range symbols {
		h, ok := s.Portfolio.Holding(sym)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n%s %g @ %s", sym, h.Amount, notifier.FormatPrice(h.PurchasePrice))
		if price, ok := prices[sym]; ok {
			fmt.Fprintf(&b, " → %s (%+.1f%%)", notifier.FormatPrice(price), h.ProfitPercent(price))
		}
	}
	return b.String()
}

// FormatSummary renders the 24h notification summary.
func FormatSummary(sum model.NotificationSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 Notifications in the last 24h: %d", sum.TotalCount)
	for _, typ := range []model.NotificationType{model.NotifyBuy, model.NotifySell, model.NotifyProfit, model.NotifyLoss} {
		if n := sum.ByType[typ]; n > 0 {
			fmt.Fprintf(&b, "\n%s: %d", typ, n)
		}
	}
	if len(sum.Cooldowns) > 0 {
		b.WriteString("\n\nCooling down:")
		for _, c := range sum.Cooldowns {
			fmt.Fprintf(&b, "\n%s %s %s left", c.Symbol, c.Type, formatWait(c.Remaining))
		}
	}
	if len(sum.Recent) > 0 {
		b.WriteString("\n\nRecent:")
		for _, r := range sum.Recent {
			fmt.Fprintf(&b, "\n%s %s %s", r.Timestamp.Format("01-02 15:04"), r.Symbol, r.Type)
		}
	}
	return b.String()
}

func formatWait(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
