package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/projmd/projmd/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheInfoCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. Only the redis
// backend holds state between runs; the in-memory cache dies with the
// process.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			if cfg.Cache.Redis == "" {
				printWarning("No redis cache configured; the in-memory cache does not persist between runs")
				return nil
			}

			backend, err := cache.NewRedisCache(cmd.Context(), cfg.Cache.Redis, cfg.Cache.RedisPrefix)
			if err != nil {
				return err
			}
			defer backend.Close()

			count, err := backend.Clear(cmd.Context())
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Redis: %s (prefix %q)", cfg.Cache.Redis, cfg.Cache.RedisPrefix)
			return nil
		},
	}
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the configured cache backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			switch {
			case c.noCache || cfg.Cache.Disabled:
				printKeyValue("backend", "disabled")
			case cfg.Cache.Redis != "":
				printKeyValue("backend", "redis")
				printKeyValue("address", cfg.Cache.Redis)
				printKeyValue("prefix", cfg.Cache.RedisPrefix)
			default:
				printKeyValue("backend", "memory")
				maxItems := cfg.Cache.MaxItems
				if maxItems <= 0 {
					maxItems = cache.DefaultMaxItems
				}
				printKeyValue("max items", strconv.Itoa(maxItems))
			}
			return nil
		},
	}
}
