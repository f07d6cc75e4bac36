package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iudanet/shopapp/internal/config"
	"github.com/iudanet/shopapp/internal/logger"
	"github.com/iudanet/shopapp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		log, closer, err := logger.New(cfg.Log)
		if err != nil {
			return err
		}
		defer closer.Close()
		slog.SetDefault(log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg, log, server.WithVersion(Version))
		if err != nil {
			return err
		}
		defer func() {
			if err := srv.Close(); err != nil {
				log.Error("failed to close server resources", slog.Any("error", err))
			}
		}()

		log.Info("starting shopapp",
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.String("database", cfg.Database.Path),
			slog.String("uploads", cfg.Uploads.Backend))

		return srv.Run(ctx)
	},
}

// commandContext возвращает контекст команды с отменой по Ctrl+C
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}
