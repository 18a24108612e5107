package cli

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/boardpack/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached layouts, renders and pack results",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := c.cfg.Cache.Backend
			if backend == config.BackendNone {
				printInfo("Caching is disabled")
				return nil
			}

			count := 0
			if backend != config.BackendRedis {
				count = countEntries(c.cfg.CacheDir())
			}

			ch, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ch.Close()
			if err := ch.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			if backend == config.BackendRedis {
				printSuccess("Cleared redis cache")
				printDetail("Address: %s", c.cfg.Cache.RedisAddr)
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", c.cfg.CacheDir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.cfg.Cache.Backend {
			case config.BackendRedis:
				fmt.Fprintln(cmd.OutOrStdout(), "redis://"+c.cfg.Cache.RedisAddr)
			case config.BackendNone:
				fmt.Fprintln(cmd.OutOrStdout(), "none")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), c.cfg.CacheDir())
			}
			return nil
		},
	}
}

// countEntries counts cache files under dir; a missing dir counts zero.
func countEntries(dir string) int {
	n := 0
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}
