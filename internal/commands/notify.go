package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"CryptoAdvisor/internal/notifier"
	"CryptoAdvisor/internal/scheduler"
)

var testWebhookCmd = &cobra.Command{
	Use:   "test-webhook [URL]",
	Short: "Send a test notification to a webhook (default notify.webhook_url)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest := cfg.Notify.WebhookURL
		if len(args) == 1 {
			dest = args[0]
		}
		if dest == "" {
			return fmt.Errorf("no webhook URL given and notify.webhook_url is empty")
		}

		sender := notifier.NewWebhookSender(cfg.Proxy, cfg.Market.Timeout)
		id := uuid.NewString()[:8]
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sender.Deliver(ctx, notifier.TestAlert(id, time.Now()), dest); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "test notification #%s delivered\n", id)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show notifications sent in the last 24 hours and the latest recorded signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cfg, useMock)
		if err != nil {
			return err
		}
		defer a.close()

		sum, err := a.gate.Summary(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, scheduler.FormatSummary(sum))

		n, _ := cmd.Flags().GetInt("recent")
		if n <= 0 {
			return nil
		}
		recent, err := a.recorder.RecentSignals(n)
		if err != nil {
			return fmt.Errorf("read signal history: %w", err)
		}
		if len(recent) == 0 {
			fmt.Fprintln(out, "\nno recorded signals")
			return nil
		}
		fmt.Fprintln(out, "\nRecent signals:")
		for _, sig := range recent {
			fmt.Fprintf(out, "%s %-5s %-4s %3d %s\n", sig.Timestamp.Format("01-02 15:04"),
				sig.Symbol, sig.Action, sig.Score, notifier.FormatPrice(sig.Price))
		}
		return nil
	},
}

func init() {
	summaryCmd.Flags().Int("recent", 10, "recorded signals to list (0 to skip)")
	rootCmd.AddCommand(testWebhookCmd, summaryCmd)
}
