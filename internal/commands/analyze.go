package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"CryptoAdvisor/internal/notifier"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis pass and print the signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cfg, useMock)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.scheduler.RunOnce(ctx); err != nil {
			return fmt.Errorf("analysis pass: %w", err)
		}
		signals, at := a.scheduler.Latest()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-6s %-5s %5s %-7s %7s %16s\n", "Symbol", "Side", "Score", "Conf", "RSI", "Price")
		fmt.Fprintln(out, strings.Repeat("-", 52))
		for _, s := range signals {
			marker := ""
			if !s.Primary {
				marker = " (secondary)"
			}
			fmt.Fprintf(out, "%-6s %-5s %5d %-7s %7.1f %16s%s\n",
				s.Symbol, s.Action, s.Score, s.Confidence, s.RSI, notifier.FormatPrice(s.Price), marker)
			for _, r := range s.Reasons {
				fmt.Fprintf(out, "       - %s\n", r)
			}
		}
		fmt.Fprintf(out, "\n%d signals at %s\n", len(signals), at.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
