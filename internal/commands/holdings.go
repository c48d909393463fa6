package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"CryptoAdvisor/internal/model"
	"CryptoAdvisor/internal/notifier"
)

var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "Manage portfolio holdings",
}

var listHoldingsCmd = &cobra.Command{
	Use:   "list",
	Short: "List holdings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), cfg, useMock)
		if err != nil {
			return err
		}
		defer a.close()

		out := cmd.OutOrStdout()
		holdings := a.portfolio.Holdings()
		if len(holdings) == 0 {
			fmt.Fprintln(out, "no holdings")
			return nil
		}
		fmt.Fprintf(out, "%-36s %-6s %14s %16s  %s\n", "ID", "Symbol", "Amount", "Price", "Bought")
		fmt.Fprintln(out, strings.Repeat("-", 92))
		for _, h := range holdings {
			fmt.Fprintf(out, "%-36s %-6s %14s %16s  %s\n",
				h.ID, h.Symbol, strconv.FormatFloat(h.Amount, 'f', -1, 64),
				notifier.FormatPrice(h.PurchasePrice), humanize.Time(h.PurchaseDate))
		}
		return nil
	},
}

var addHoldingCmd = &cobra.Command{
	Use:   "add SYMBOL AMOUNT [PRICE]",
	Short: "Record a purchase; without PRICE the market price at --date is used",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		date := time.Now()
		if v, _ := cmd.Flags().GetString("date"); v != "" {
			date, err = time.ParseInLocation("2006-01-02 15:04", v, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --date %q, want YYYY-MM-DD HH:MM: %w", v, err)
			}
		}

		ctx := context.Background()
		a, err := newApp(ctx, cfg, useMock)
		if err != nil {
			return err
		}
		defer a.close()

		symbol := strings.ToUpper(args[0])
		var price float64
		if len(args) == 3 {
			if price, err = strconv.ParseFloat(args[2], 64); err != nil {
				return fmt.Errorf("invalid price %q: %w", args[2], err)
			}
		} else {
			if price, err = a.priceAt(ctx, symbol, date); err != nil {
				return fmt.Errorf("look up price: %w", err)
			}
		}

		name, _ := cmd.Flags().GetString("name")
		h, err := a.portfolio.Add(model.Holding{
			Symbol:        symbol,
			Name:          name,
			Amount:        amount,
			PurchasePrice: price,
			PurchaseDate:  date,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s: %s %s at %s\n", h.ID, strconv.FormatFloat(h.Amount, 'f', -1, 64),
			h.Symbol, notifier.FormatPrice(h.PurchasePrice))
		return nil
	},
}

var removeHoldingCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a holding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), cfg, useMock)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.portfolio.Remove(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	},
}

func init() {
	addHoldingCmd.Flags().String("date", "", "purchase time, YYYY-MM-DD HH:MM (default now)")
	addHoldingCmd.Flags().String("name", "", "display name")

	holdingsCmd.AddCommand(listHoldingsCmd, addHoldingCmd, removeHoldingCmd)
	rootCmd.AddCommand(holdingsCmd)
}
