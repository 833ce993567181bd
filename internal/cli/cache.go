package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/atalogics/pkg/cache"
	"github.com/matzehuels/atalogics/pkg/config"
	"github.com/matzehuels/atalogics/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the response cache",
	}

	cmd.AddCommand(c.cacheKeysCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// openCache opens the configured store. Credentials are not required.
func (c *CLI) openCache(ctx context.Context) (config.CacheConfig, *cache.Layer, error) {
	cfg, err := c.readConfig(ctx)
	if err != nil {
		return cfg.Cache, nil, err
	}
	store, err := cache.NewFromConfig(ctx, cfg.Cache, c.Logger)
	if err != nil {
		return cfg.Cache, nil, err
	}
	return cfg.Cache, cache.NewLayer(store, cache.WithLogger(c.Logger)), nil
}

// cacheKeysCommand creates the "cache keys" subcommand.
func (c *CLI) cacheKeysCommand() *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "keys [PATTERN]",
		Short: "List cached keys matching a glob pattern",
		Example: `  atalogics cache keys
  atalogics cache keys --api-version 2 '/addresses/*'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, layer, err := c.openCache(ctx)
			if err != nil {
				return err
			}
			defer layer.Close()

			if !layer.Enabled() {
				printInfo(c.out, "Caching is disabled (cache type %q)", cfg.Type)
				return nil
			}
			if version > 0 {
				layer = layer.Namespace(fmt.Sprintf("V%d_", version))
			}

			pattern := "*"
			if len(args) > 0 {
				pattern = args[0]
			}
			keys, err := layer.Keys(ctx, pattern)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				printInfo(c.out, "No cached keys")
				return nil
			}
			for _, key := range keys {
				fmt.Fprintln(c.out, key)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "api-version", 0, "only list keys of this API version (2 or 3)")
	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached responses from the file cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.readConfig(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.Cache.Type != config.CacheFile {
				return errors.New(errors.ErrCodeConfiguration, "cache clear supports the file cache only (cache type %q)", cfg.Cache.Type)
			}
			dir, err := fileCacheDir(cfg.Cache)
			if err != nil {
				return err
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo(c.out, "Cache is empty")
				return nil
			}

			count := 0
			var subdirs []string
			err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil || path == dir {
					return nil // Skip errors, continue walking
				}
				if d.IsDir() {
					subdirs = append(subdirs, path)
					return nil
				}
				if err := os.Remove(path); err == nil {
					count++
				}
				return nil
			})
			if err != nil {
				return err
			}

			// Clean up empty subdirectories, deepest first
			for i := len(subdirs) - 1; i >= 0; i-- {
				_ = os.Remove(subdirs[i])
			}

			printSuccess(c.out, "Cleared %d cached entries", count)
			printDetail(c.out, "Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.readConfig(cmd.Context())
			if err != nil {
				return err
			}
			dir, err := fileCacheDir(cfg.Cache)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, dir)
			return nil
		},
	}
}

// fileCacheDir returns the configured file cache directory or the default.
func fileCacheDir(cfg config.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return dir, nil
}
