package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"CryptoAdvisor/internal/api"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the polling loop, alert channels and HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, useMock)
		if err != nil {
			return err
		}
		defer a.close()

		if a.stream != nil {
			if err := a.stream.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("ticker stream unavailable, polling REST")
			}
		}
		if a.telegram != nil {
			go a.telegram.Listen(ctx, a.scheduler.HandleCommand)
		}

		if err := a.scheduler.RunOnce(ctx); err != nil {
			log.Warn().Err(err).Msg("initial pass failed")
		}
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer a.scheduler.Stop()

		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := api.NewServer(cfg.API.Addr, cfg.API.CORSOrigins, a.scheduler, a.portfolio, a.recorder, a.webhook)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		log.Info().Strs("symbols", cfg.Market.Symbols).Dur("poll", cfg.Schedule.PollInterval).
			Msg("advisor running, press Ctrl+C to stop")

		select {
		case <-ctx.Done():
			log.Info().Msg("shutdown signal received, stopping")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("api server: %w", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("api shutdown")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
