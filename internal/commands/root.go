// Package commands implements the advisor command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"CryptoAdvisor/internal/config"
	"CryptoAdvisor/internal/logger"
)

var (
	configPath string
	useMock    bool
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Crypto portfolio signal and alert service",
	Long: `Polls market data for a list of crypto assets, scores them with technical
indicators across several timeframes and pushes buy, sell, profit and loss
alerts to webhooks, Telegram and the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		logger.Init(cfg.Log.Level, cfg.Log.Pretty)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.Path(), "config file")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "use generated demo market data")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")
}
