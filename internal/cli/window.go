package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/render/nodelink"
)

// Output formats of the window command.
const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

// windowCommand creates the window command.
func (c *CLI) windowCommand() *cobra.Command {
	var (
		center   int
		radius   int
		format   string
		output   string
		detailed bool
		flags    openFlags
	)

	cmd := &cobra.Command{
		Use:   "window <file.gfa>",
		Short: "Extract the part of the layout around one node",
		Long: `Extract the part of the layout around one node.

The window keeps every node and dummy whose x coordinate lies within
40·radius of the center node, with the edges among them. A radius of 0
keeps the center's own layer.

Formats:
  json  the window as JSON (default)
  dot   Graphviz DOT source
  svg   SVG rendered in-process with Graphviz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("center") {
				return errors.New(errors.ErrCodeInvalidInput, "--center is required")
			}
			return c.runWindow(cmd.Context(), args[0], flags, center, radius, format, output, detailed)
		},
	}

	cmd.Flags().IntVar(&center, "center", 0, "id of the center node")
	cmd.Flags().IntVar(&radius, "radius", 1, "window radius in layers")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json, dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show length, layer and position in DOT/SVG labels")
	flags.register(cmd, true)

	return cmd
}

func (c *CLI) runWindow(ctx context.Context, source string, flags openFlags, center, radius int, format, output string, detailed bool) error {
	switch format {
	case formatJSON, formatDOT, formatSVG:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (json, dot, svg)", format)
	}

	res, err := c.openLayout(ctx, source, flags)
	if err != nil {
		return err
	}
	defer res.Handle.Close()

	v, err := res.Layout.Window(center, radius)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case formatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case formatDOT, formatSVG:
		dot := nodelink.ToDOT(v, nodelink.Options{Detailed: detailed, Graph: res.Handle.Graph})
		data = []byte(dot)
		if format == formatSVG {
			data, err = nodelink.RenderSVG(ctx, dot)
		}
	}
	if err != nil {
		return fmt.Errorf("render window: %w", err)
	}

	c.Logger.Debug("window", "center", center, "radius", radius,
		"nodes", len(v.Nodes), "dummies", len(v.Dummies), "edges", len(v.Edges))

	if output == "" {
		return writeTo(os.Stdout, data)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	printSuccess("Window of %d nodes around %d", len(v.Nodes), center)
	printFile(output)
	return nil
}

func writeTo(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}
