package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/pipeline"
)

// openFlags are the flags shared by commands that open a graph.
type openFlags struct {
	snapshotDir  string
	refresh      bool
	noCache      bool
	layerSpacing int
	rowSpacing   int
}

// register adds the flags to cmd. Layout flags are only added when the
// command lays the graph out.
func (f *openFlags) register(cmd *cobra.Command, withLayout bool) {
	cmd.Flags().StringVar(&f.snapshotDir, "snapshot-dir", "", "directory for snapshot files (default: config, else next to the source)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore the snapshot and parse the source again")
	if withLayout {
		cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the layout cache")
		cmd.Flags().IntVar(&f.layerSpacing, "layer-spacing", 0, "horizontal distance between layers (default: config, else 40)")
		cmd.Flags().IntVar(&f.rowSpacing, "row-spacing", 0, "vertical distance between nodes of a layer (default: config, else 20)")
	}
}

// options builds pipeline options for source from the config and flags.
func (c *CLI) options(source string, f openFlags) (pipeline.Options, error) {
	opts, err := c.pipelineOptions(source)
	if err != nil {
		return opts, err
	}
	if f.snapshotDir != "" {
		opts.SnapshotDir = f.snapshotDir
	}
	if f.layerSpacing != 0 {
		opts.Layout.LayerSpacing = f.layerSpacing
	}
	if f.rowSpacing != 0 {
		opts.Layout.RowSpacing = f.rowSpacing
	}
	opts.Refresh = f.refresh
	opts.NoLayoutCache = f.noCache
	return opts, opts.Validate()
}

// openGraph opens source from its snapshot or by ingesting it.
// The caller must close the returned handle.
func (c *CLI) openGraph(ctx context.Context, source string, f openFlags) (*graph.Handle, bool, error) {
	opts, err := c.options(source, f)
	if err != nil {
		return nil, false, err
	}
	runner := pipeline.NewRunner(nil, nil, c.Logger)

	stop := c.startSpinner(ctx, fmt.Sprintf("Opening %s...", source))
	h, _, hit, err := runner.OpenWithCacheInfo(ctx, opts)
	stop()
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", source, err)
	}
	return h, hit, nil
}

// openLayout opens source and lays it out through the layout cache.
// The caller must close the returned handle.
func (c *CLI) openLayout(ctx context.Context, source string, f openFlags) (*pipeline.Result, error) {
	opts, err := c.options(source, f)
	if err != nil {
		return nil, err
	}
	runner := c.newRunner(ctx, f.noCache)
	defer runner.Close()

	stop := c.startSpinner(ctx, fmt.Sprintf("Laying out %s...", source))
	res, err := runner.Execute(ctx, opts)
	stop()
	if err != nil {
		return nil, fmt.Errorf("lay out %s: %w", source, err)
	}
	return res, nil
}

// startSpinner shows a spinner on terminals while logging stays quiet.
// The returned function stops it.
func (c *CLI) startSpinner(ctx context.Context, message string) func() {
	if !isTerminal() || c.Logger.GetLevel() <= LogDebug {
		return func() {}
	}
	return startLineSpinner(ctx, os.Stderr, message).Stop
}
