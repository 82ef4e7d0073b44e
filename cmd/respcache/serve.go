package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/respcache/internal/app"
	"github.com/Sternrassler/respcache/internal/server"
	"github.com/Sternrassler/respcache/pkg/config"
	"github.com/Sternrassler/respcache/pkg/logging"
	"github.com/Sternrassler/respcache/pkg/store"
	"github.com/spf13/cobra"
)

// connectTimeout bounds the initial store connection at startup.
const connectTimeout = 5 * time.Second

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the application behind the response cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			logger := logging.Setup(cfg.Logging())

			client := store.New(cfg.StoreConfig(), logging.NewLogger(logging.ComponentStore))
			connectCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			if err := client.Connect(connectCtx); err != nil {
				// keep serving uncached until the reconnect watcher gets through
				logger.Warn().Err(err).Msg("Redis unavailable at startup, serving without cache")
			}
			cancel()
			defer func() {
				if err := client.Disconnect(); err != nil {
					logger.Warn().Err(err).Msg("Failed to disconnect from Redis")
				}
			}()

			application, err := app.New(app.Config{StaticDir: cfg.App.StaticDir}, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			srv, err := server.New(cfg, client, application, logging.NewLogger(logging.ComponentServer))
			if err != nil {
				return fmt.Errorf("init server: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info().
				Str("listen", cfg.Listen).
				Str("version", version).
				Msg("Starting respcache")
			return srv.ListenAndServe(ctx)
		},
	}
}
