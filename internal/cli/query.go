package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/errors"
)

// segmentCommand creates the segment command.
func (c *CLI) segmentCommand() *cobra.Command {
	var flags openFlags

	cmd := &cobra.Command{
		Use:   "segment <file.gfa> <node-id>",
		Short: "Print the sequence of a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "node id %q is not an integer", args[1])
			}
			return c.runSegment(cmd.Context(), args[0], id, flags)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func (c *CLI) runSegment(ctx context.Context, source string, id int, flags openFlags) error {
	h, _, err := c.openGraph(ctx, source, flags)
	if err != nil {
		return err
	}
	defer h.Close()

	if _, ok := h.Graph.Node(id); !ok {
		return errors.New(errors.ErrCodeNotFound, "node %d does not exist (graph has %d nodes)", id, h.Graph.Size())
	}
	seq, err := h.Graph.Segment(id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "read segment %d", id)
	}
	_, err = fmt.Fprintln(os.Stdout, seq)
	return err
}

// pathCommand creates the path command.
func (c *CLI) pathCommand() *cobra.Command {
	var flags openFlags

	cmd := &cobra.Command{
		Use:   "path <file.gfa> <genome>",
		Short: "Print the nodes traversed by a genome",
		Long: `Print the nodes traversed by a genome, in ascending id order.

The genome is given by its header name or by its integer id.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPath(cmd.Context(), args[0], args[1], flags)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func (c *CLI) runPath(ctx context.Context, source, ref string, flags openFlags) error {
	h, _, err := c.openGraph(ctx, source, flags)
	if err != nil {
		return err
	}
	defer h.Close()

	id, ok := h.Genomes.Find(ref)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "unknown genome %q", ref)
	}
	nodes := h.Genomes.Path(id)
	c.Logger.Debug("path", "genome", h.Genomes.Name(id), "nodes", len(nodes))

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = strconv.Itoa(n)
	}
	_, err = fmt.Fprintln(os.Stdout, strings.Join(ids, " "))
	return err
}
