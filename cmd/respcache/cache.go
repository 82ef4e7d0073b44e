package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/Sternrassler/respcache/pkg/cache"
	"github.com/Sternrassler/respcache/pkg/config"
	"github.com/Sternrassler/respcache/pkg/logging"
	"github.com/Sternrassler/respcache/pkg/store"
	"github.com/spf13/cobra"
)

// commandTimeout bounds a single admin command against Redis.
const commandTimeout = 30 * time.Second

func newCacheCmd(load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and invalidate cached responses",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cached keys per content class",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(load, func(ctx context.Context, admin *cache.Admin) error {
				stats := admin.Stats(ctx)
				out := cmd.OutOrStdout()
				if stats.Status != cache.StatusConnected {
					fmt.Fprintf(out, "Status: %s\n", stats.Status)
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "Status: %s\n", stats.Status)
				fmt.Fprintln(w, "CLASS\tKEYS")
				for _, c := range cache.Classes() {
					fmt.Fprintf(w, "%s\t%d\n", c, stats.Classes[c])
				}
				fmt.Fprintf(w, "total\t%d\n", stats.TotalKeys)
				return w.Flush()
			})
		},
	}

	var class string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached responses of one class, or all of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(load, func(ctx context.Context, admin *cache.Admin) error {
				cleared, err := admin.Invalidate(ctx, class)
				if err != nil {
					return err
				}
				target := class
				if target == "" {
					target = "all"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d keys (%s).\n", cleared, target)
				return nil
			})
		},
	}
	clearCmd.Flags().StringVarP(&class, "type", "t", "", "content class to clear: page, api or static (default: all)")

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}

// withAdmin connects to Redis and runs fn with an Admin over the configured
// policy. Unlike serve, a missing Redis is an error here.
func withAdmin(load func() (*config.Config, error), fn func(context.Context, *cache.Admin) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(logging.ComponentAdmin)
	client := store.New(cfg.StoreConfig(), logging.NewLogger(logging.ComponentStore))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	defer func() { _ = client.Disconnect() }()
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	return fn(ctx, cache.NewAdmin(client, policy, logger))
}
