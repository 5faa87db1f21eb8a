package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hassan123789/mathbot/internal/config"
	"github.com/hassan123789/mathbot/internal/di"
	"github.com/hassan123789/mathbot/internal/handler"
	"github.com/hassan123789/mathbot/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var apiRateLimit float64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat page and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Environment, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, apiRateLimit)
		},
	}
	cmd.Flags().Float64Var(&apiRateLimit, "api-rate-limit", 5, "requests per second per client on /api (0 disables)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, apiRateLimit float64) error {
	container := di.NewContainer(cfg, logger)
	if !cfg.HasAPIKey() {
		logger.Warn("GROQ_API_KEY is not set; users must enter their own key")
	}

	e := handler.NewServer(handler.ServerConfig{
		Assistant:    container,
		Sessions:     container.Sessions,
		Logger:       logger,
		APIRateLimit: apiRateLimit,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", cfg.Address()), zap.String("model", cfg.Model))
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return container.Sessions.Sweep(ctx, 0)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
