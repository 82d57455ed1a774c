package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vapord/internal/cache"
	"vapord/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Artifact cache utilities",
	}

	cacheCmd.AddCommand(newCacheStatusCommand(ctx))
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))

	return cacheCmd
}

func newCacheStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cache usage against the quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			artifacts := cache.New(cfg.Paths.CacheDir, cfg.Cache.QuotaBytes, logging.NewNop())
			total, count, err := artifacts.Usage()
			if err != nil {
				return fmt.Errorf("scan cache: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache directory: %s\n", artifacts.Dir())
			fmt.Fprintf(out, "Artifacts: %d\n", count)
			fmt.Fprintf(out, "Usage: %s of %s\n",
				humanize.Bytes(uint64(total)),
				humanize.Bytes(uint64(cfg.Cache.QuotaBytes)),
			)
			if total > cfg.Cache.QuotaBytes {
				fmt.Fprintln(out, "Cache is above quota; the next completed request will purge it")
			}
			return nil
		},
	}
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every cached artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			artifacts := cache.New(cfg.Paths.CacheDir, cfg.Cache.QuotaBytes, logging.NewNop())
			removed, err := artifacts.Purge()
			if err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached files\n", removed)
			return nil
		},
	}
}
