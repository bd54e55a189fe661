package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/ingest"
)

// maxShownIssues is how many skipped records the ingest command lists.
const maxShownIssues = 10

// ingestCommand creates the ingest command.
func (c *CLI) ingestCommand() *cobra.Command {
	var (
		snapshotDir string
		noSnapshot  bool
		maxIssues   int
	)

	cmd := &cobra.Command{
		Use:   "ingest <file.gfa>",
		Short: "Parse an assembly graph and write its snapshot",
		Long: `Parse a GFA assembly graph and write its snapshot.

Malformed records are skipped and reported; the rest of the file is kept.
The snapshot lets later commands open the graph without parsing it again.
On a terminal a progress bar follows the ingestion; press q to cancel.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if snapshotDir == "" {
				snapshotDir = c.Config.Snapshot.Dir
			}
			return c.runIngest(cmd.Context(), args[0], ingest.Options{
				CacheDir:     snapshotDir,
				SkipSnapshot: noSnapshot,
				MaxIssues:    maxIssues,
			})
		},
	}

	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "directory for snapshot files (default: next to the source)")
	cmd.Flags().BoolVar(&noSnapshot, "no-snapshot", false, "parse only, do not write a snapshot")
	cmd.Flags().IntVar(&maxIssues, "max-issues", ingest.DefaultMaxIssues, "number of skipped records to keep")

	return cmd
}

// runIngest ingests source, following progress in a TUI on terminals.
func (c *CLI) runIngest(ctx context.Context, source string, opts ingest.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tui := isTerminal() && c.Logger.GetLevel() > log.DebugLevel
	opts.Logger = c.Logger
	if tui {
		// Per-record warnings would tear the progress view; they are listed
		// from the result instead.
		opts.Logger = log.New(io.Discard)
	}

	prog := newProgress(c.Logger)
	job := ingest.Start(ctx, source, opts)

	var (
		res *ingest.Result
		err error
	)
	if tui {
		res, err = runIngestTUI(job, source, cancel)
	} else {
		res, err = runIngestPlain(withLogger(ctx, c.Logger), job)
	}
	if err != nil {
		printError("Ingestion failed: %s", errors.UserMessage(err))
		return err
	}
	defer res.Handle.Close()

	prog.done("Ingestion complete")
	printSuccess("Ingested %s", source)
	printStats(res.Handle.Graph.Size(), res.Handle.Graph.EdgeCount(), false)
	printKeyValue("Genomes", formatGenomes(res.Handle.Genomes.Count(), res.Handle.Genomes.Basis().String()))
	printKeyValue("Lines", formatCount(res.Lines))
	if res.DuplicateLinks > 0 {
		printKeyValue("Duplicates", formatCount(res.DuplicateLinks))
	}
	printKeyValue("Duration", res.Duration.Round(time.Millisecond).String())

	if res.IssueCount > 0 {
		printNewline()
		printWarning("Skipped %d malformed records", res.IssueCount)
		shown := min(len(res.Issues), maxShownIssues)
		for _, issue := range res.Issues[:shown] {
			printDetail("%s: %s", issue.Code, errors.UserMessage(issue))
		}
		if res.IssueCount > shown {
			printDetail("... %d more", res.IssueCount-shown)
		}
	}

	if !opts.SkipSnapshot {
		printNewline()
		printInfo("Snapshot")
		for _, p := range res.Snapshot.All() {
			printFile(p)
		}
		printNewline()
		printNextStep("Lay out", appName+" layout "+source)
	}
	return nil
}
