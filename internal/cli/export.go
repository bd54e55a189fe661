package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	graphio "github.com/matzehuels/pangraph/pkg/io"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output string
		flags  openFlags
	)

	cmd := &cobra.Command{
		Use:   "export <file.gfa>",
		Short: "Write the graph as a node-link JSON document",
		Long: `Write the graph as a node-link JSON document.

The document holds node lengths, edges and genome membership, without
sequences. It is meant for external tools.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], flags, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	flags.register(cmd, false)

	return cmd
}

func (c *CLI) runExport(ctx context.Context, source string, flags openFlags, output string) error {
	h, _, err := c.openGraph(ctx, source, flags)
	if err != nil {
		return err
	}
	defer h.Close()

	if output == "" {
		return graphio.WriteJSON(h, os.Stdout)
	}
	if err := graphio.ExportJSON(h, output); err != nil {
		return err
	}
	printSuccess("Exported %d nodes", h.Graph.Size())
	printFile(output)
	return nil
}
