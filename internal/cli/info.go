package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/snapshot"
)

// infoCommand creates the info command.
func (c *CLI) infoCommand() *cobra.Command {
	var (
		flags   openFlags
		genomes bool
	)

	cmd := &cobra.Command{
		Use:   "info <file.gfa>",
		Short: "Summarize a graph and its snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInfo(cmd.Context(), args[0], flags, genomes)
		},
	}

	flags.register(cmd, false)
	cmd.Flags().BoolVar(&genomes, "genomes", false, "list every genome with its node count")

	return cmd
}

func (c *CLI) runInfo(ctx context.Context, source string, flags openFlags, listGenomes bool) error {
	opts, err := c.options(source, flags)
	if err != nil {
		return err
	}

	// Report the snapshot before opening, which may rewrite it.
	paths := snapshot.PathsFor(source, opts.SnapshotDir)
	state, manifest, err := snapshot.Check(source, paths, opts.Staleness)
	snapshotLine := state.String()
	switch {
	case err != nil:
		snapshotLine = "corrupt"
	case manifest != nil:
		snapshotLine += " · " + snapshot.Describe(manifest)
	}

	h, hit, err := c.openGraph(ctx, source, flags)
	if err != nil {
		return err
	}
	defer h.Close()

	g, ix := h.Graph, h.Genomes
	printInfo("%s", StyleTitle.Render(source))
	printStats(g.Size(), g.EdgeCount(), hit)
	printKeyValue("Placeholder", formatCount(g.Placeholders()))
	printKeyValue("Sources", formatCount(len(g.Sources())))
	printKeyValue("Genomes", formatGenomes(ix.Count(), ix.Basis().String()))
	if h.Fingerprint != 0 {
		printKeyValue("Fingerprint", snapshot.FormatFingerprint(h.Fingerprint))
	}
	printKeyValue("Snapshot", snapshotLine)
	printKeyValue("Staleness", opts.Staleness.String())

	if listGenomes && ix.Count() > 0 {
		counts := make([]int, ix.Count())
		for node := range ix.Len() {
			for _, id := range ix.Members(node) {
				if id < len(counts) {
					counts[id]++
				}
			}
		}
		rows := make([][]string, ix.Count())
		for id := range rows {
			rows[id] = []string{strconv.Itoa(id), ix.Name(id), formatCount(counts[id])}
		}
		printNewline()
		printTable([]string{"ID", "Genome", "Nodes"}, rows)
	}
	return nil
}
