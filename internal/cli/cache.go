package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/cache"
	"github.com/matzehuels/pangraph/pkg/snapshot"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage snapshots and the layout cache",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePurgeCommand())

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	var snapshotDir string

	cmd := &cobra.Command{
		Use:   "path [file.gfa]",
		Short: "Print the layout cache directory, or the snapshot files of a source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				dir, err := c.layoutCacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Println(dir)
				return nil
			}
			for _, p := range c.snapshotPaths(args[0], snapshotDir).All() {
				fmt.Println(p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "directory for snapshot files")
	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var snapshotDir string

	cmd := &cobra.Command{
		Use:   "clear <file.gfa>",
		Short: "Remove the snapshot of a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := c.snapshotPaths(args[0], snapshotDir)

			count := 0
			for _, p := range paths.All() {
				if _, err := os.Stat(p); err == nil {
					count++
				}
			}
			if count == 0 {
				printInfo("No snapshot for %s", args[0])
				return nil
			}
			if err := snapshot.Remove(paths); err != nil {
				return fmt.Errorf("remove snapshot: %w", err)
			}
			printSuccess("Removed %d snapshot files", count)
			printDetail("Source: %s", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "directory for snapshot files")
	return cmd
}

// cachePurgeCommand creates the "cache purge" subcommand.
func (c *CLI) cachePurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove every cached layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := c.newRunner(cmd.Context(), false)
			defer runner.Close()

			switch store := runner.Cache.(type) {
			case *cache.FileCache:
				if err := store.Purge(); err != nil {
					return fmt.Errorf("purge %s: %w", store.Dir(), err)
				}
				printSuccess("Purged layout cache")
				printDetail("Directory: %s", store.Dir())
			case *cache.RedisCache:
				prefix := c.Config.Cache.Prefix + "layout:"
				n, err := store.DeletePrefix(cmd.Context(), prefix)
				if err != nil {
					return fmt.Errorf("purge redis: %w", err)
				}
				printSuccess("Purged %d cached layouts", n)
				printDetail("Prefix: %s", prefix)
			default:
				printInfo("Layout cache is disabled")
			}
			return nil
		},
	}
}

// layoutCacheDir returns the directory of the file-backed layout cache.
func (c *CLI) layoutCacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "layouts"), nil
}

// snapshotPaths resolves the snapshot files of source, preferring the flag
// over the configured directory.
func (c *CLI) snapshotPaths(source, dir string) snapshot.Paths {
	if dir == "" {
		dir = c.Config.Snapshot.Dir
	}
	return snapshot.PathsFor(source, dir)
}
