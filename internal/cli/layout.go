package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// layoutCommand creates the layout command for computing the layered layout.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		flags  openFlags
	)

	cmd := &cobra.Command{
		Use:   "layout <file.gfa>",
		Short: "Compute the layered layout of a graph",
		Long: `Compute the layered layout of a graph.

Every node gets a layer and a position within it; edges spanning several
layers are routed through dummy nodes. The output is a layout.json file that
the window and serve commands reuse through the layout cache.

Results are cached, keyed by the source fingerprint and spacing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], flags, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <input>.layout.json)")
	flags.register(cmd, true)

	return cmd
}

// runLayout opens the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, source string, flags openFlags, output string) error {
	res, err := c.openLayout(ctx, source, flags)
	if err != nil {
		return err
	}
	defer res.Handle.Close()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	data, err := res.Layout.Marshal()
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if output == "-" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(source, filepath.Ext(source))
		outputPath = base + ".layout.json"
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	l := res.Layout
	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.LayoutHit)
	printKeyValue("Layers", formatCount(l.Layers))
	printKeyValue("Dummies", formatCount(len(l.Dummies)))
	if len(l.BackEdges) > 0 {
		printKeyValue("Back-edges", formatCount(len(l.BackEdges)))
	}
	printNewline()
	printNextStep("Browse", fmt.Sprintf("%s window %s --center 0", appName, source))

	return nil
}
