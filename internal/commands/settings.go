package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"CryptoAdvisor/internal/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change notification settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), cfg, useMock)
		if err != nil {
			return err
		}
		defer a.close()

		printSettings(cmd.OutOrStdout(), a.portfolio.Settings())
		return nil
	},
}

var setSettingCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one setting (enabled, buy, sell, price-alerts, profit-targets, loss-limits)",
	Long: "Booleans take true/false. profit-targets and loss-limits take a comma separated\n" +
		"list of percentages, e.g. \"20,50,100\".",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), cfg, useMock)
		if err != nil {
			return err
		}
		defer a.close()

		s := a.portfolio.Settings()
		if err := applySetting(&s, args[0], args[1]); err != nil {
			return err
		}
		if err := a.portfolio.UpdateSettings(s); err != nil {
			return err
		}
		printSettings(cmd.OutOrStdout(), a.portfolio.Settings())
		return nil
	},
}

func applySetting(s *model.NotificationSettings, key, value string) error {
	switch key {
	case "enabled", "buy", "sell", "price-alerts":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
		}
		switch key {
		case "enabled":
			s.Enabled = b
		case "buy":
			s.BuySignals = b
		case "sell":
			s.SellSignals = b
		case "price-alerts":
			s.PriceAlerts = b
		}
	case "profit-targets", "loss-limits":
		list, err := parsePercents(value)
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
		}
		if key == "profit-targets" {
			s.ProfitTargets = list
		} else {
			s.LossLimits = list
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func parsePercents(v string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func printSettings(w io.Writer, s model.NotificationSettings) {
	fmt.Fprintf(w, "enabled:        %t\n", s.Enabled)
	fmt.Fprintf(w, "buy:            %t\n", s.BuySignals)
	fmt.Fprintf(w, "sell:           %t\n", s.SellSignals)
	fmt.Fprintf(w, "price-alerts:   %t\n", s.PriceAlerts)
	fmt.Fprintf(w, "profit-targets: %s\n", joinPercents(s.ProfitTargets))
	fmt.Fprintf(w, "loss-limits:    %s\n", joinPercents(s.LossLimits))
}

func joinPercents(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64) + "%"
	}
	return strings.Join(parts, ", ")
}

func init() {
	settingsCmd.AddCommand(setSettingCmd)
	rootCmd.AddCommand(settingsCmd)
}
