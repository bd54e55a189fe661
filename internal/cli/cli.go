// Package cli implements the pangraph command-line interface.
//
// # Commands
//
//   - ingest: parse a GFA file and write its snapshot
//   - info: summarize a graph and the state of its snapshot
//   - layout: compute the layered layout and write it as JSON
//   - window: cut a window around one node as JSON, DOT or SVG
//   - segment, path: print a node's sequence or a genome's nodes
//   - export: write the graph as a node-link JSON document
//   - serve: serve the graph and its layout over HTTP
//   - cache: inspect and clear snapshots and cached layouts
//
// # Logging
//
// Every command logs through one charmbracelet logger on stderr, so stdout
// stays clean for command output such as DOT or JSON. --verbose (-v) lowers
// the level to debug. The logger also travels in context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/buildinfo"
	"github.com/matzehuels/pangraph/pkg/cache"
	"github.com/matzehuels/pangraph/pkg/pipeline"
	"github.com/matzehuels/pangraph/pkg/snapshot"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pangraph"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded by the root command before any subcommand runs.
	Config *Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "pangraph ingests assembly graphs and lays them out for browsing",
		Long: `pangraph reads GFA assembly graphs, keeps a snapshot next to each source
so later runs open it without re-parsing, and computes a layered layout that
can be browsed one window at a time.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/pangraph/config.toml)")

	// Register all subcommands
	root.AddCommand(c.ingestCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.windowCommand())
	root.AddCommand(c.segmentCommand())
	root.AddCommand(c.pathCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured layout cache.
// A cache that cannot be opened is logged and replaced by no cache, so an
// unreachable Redis never blocks local work.
func (c *CLI) newRunner(ctx context.Context, noCache bool) *pipeline.Runner {
	cfg := c.Config.Cache
	if noCache {
		cfg.Backend = cache.BackendNone
	}
	if dir, err := c.layoutCacheDir(); err == nil {
		cfg.Dir = dir
	}

	store, keyer, err := cache.Open(ctx, cfg)
	if err != nil {
		c.Logger.Warn("layout cache disabled", "backend", cfg.Backend, "err", err)
		store, keyer = cache.NewNullCache(), nil
	}
	r := pipeline.NewRunner(store, keyer, c.Logger)
	r.TTL = cfg.TTLOrDefault()
	return r
}

// pipelineOptions returns the options for source with configured defaults.
func (c *CLI) pipelineOptions(source string) (pipeline.Options, error) {
	mode, err := snapshot.ParseMode(c.Config.Snapshot.Mode)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Source:      source,
		SnapshotDir: c.Config.Snapshot.Dir,
		Staleness:   mode,
		Layout:      c.Config.Layout,
		Logger:      c.Logger,
	}, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pangraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/pangraph/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
