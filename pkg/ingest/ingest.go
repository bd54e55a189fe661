// Package ingest builds a graph from an assembly file in one streaming pass.
//
// # Input
//
// The input is a tab-delimited subset of GFA:
//
//	H	ORI:Z:A;B;C              header listing every genome
//	S	1	ACGT	+	ORI:Z:A;B  segment: id, sequence, orientation, path field
//	L	1	+	2	+	0M         link: from, orientation, to, orientation
//
// Lines before the header are skipped. Segment and link ids are 1-based in the
// file and 0-based in the graph. Other record types are ignored.
//
// # Streaming
//
// Sequences never stay in memory: each one is appended to a [segment.Store]
// as its record is parsed, and each node's genome membership is written to
// the genome table at the same time. Unless disabled, the coordinator then
// writes a snapshot so the next open is a [snapshot.Load] instead of a parse.
//
// # Jobs
//
// [Start] runs the parse on a worker goroutine and returns a [Job]. The graph
// is only reachable through [Job.Wait], which blocks until the worker and the
// snapshot writer have both finished, so no caller ever observes a graph under
// construction:
//
//	job := ingest.Start(ctx, "chr1.gfa", ingest.Options{Logger: logger})
//	for f := range job.Progress() {
//	    bar.Set(f)
//	}
//	res, err := job.Wait()
//
// # Errors
//
// A malformed record is skipped and reported in [Result.Issues] with its line
// number (FORMAT_ERROR or MIXED_BASIS); records before and after it are kept.
// I/O failures, a missing header, and cancellation abort the job and discard
// the partial graph.
package ingest

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/observability"
	"github.com/matzehuels/pangraph/pkg/segment"
	"github.com/matzehuels/pangraph/pkg/snapshot"
)

// DefaultMaxIssues is how many record issues a Result keeps by default.
const DefaultMaxIssues = 100

// DefaultMaxNodes is the default node id bound, well above the segment count
// of whole-genome pangenome graphs.
const DefaultMaxNodes = 1 << 28

// Options configures an ingestion.
type Options struct {
	// CacheDir holds the snapshot artifacts. Empty means next to the source.
	CacheDir string

	// SkipSnapshot disables the snapshot. Segments then go to a temporary
	// store that is removed when the Handle is closed.
	SkipSnapshot bool

	// Logger receives progress and per-record warnings. Nil discards them.
	Logger *log.Logger

	// MaxIssues caps Result.Issues. Zero means DefaultMaxIssues.
	MaxIssues int

	// MaxNodes bounds node ids. A segment or link naming an id at or past it
	// is a FORMAT_ERROR instead of padding the table. Zero means
	// DefaultMaxNodes.
	MaxNodes int

	// ProgressFunc, if set, is called from the worker goroutine with each
	// progress update. It must not block.
	ProgressFunc func(float64)
}

// Result is the outcome of a successful ingestion.
type Result struct {
	Handle *graph.Handle

	// Issues holds the first MaxIssues skipped records; IssueCount counts all.
	Issues     []*errors.Error
	IssueCount int

	Lines          int
	Segments       int
	Links          int
	DuplicateLinks int

	// Snapshot names the written artifacts. Zero when SkipSnapshot is set.
	Snapshot snapshot.Paths
	Duration time.Duration
}

// Job is a running ingestion.
type Job struct {
	id       string
	progress chan float64
	done     chan struct{}
	result   *Result
	err      error
}

// Start begins ingesting path in the background.
func Start(ctx context.Context, path string, opts Options) *Job {
	j := &Job{
		id:       uuid.NewString(),
		progress: make(chan float64, 1),
		done:     make(chan struct{}),
	}
	go j.run(ctx, path, opts)
	return j
}

// Run ingests path and waits for the result.
func Run(ctx context.Context, path string, opts Options) (*Result, error) {
	return Start(ctx, path, opts).Wait()
}

// ID returns the job's unique id, also attached to its log lines.
func (j *Job) ID() string { return j.id }

// Progress returns the job's progress stream of fractions in [0,1].
//
// The channel holds only the latest value: a slow reader skips intermediate
// updates and never slows the worker down. It is closed when the job ends.
func (j *Job) Progress() <-chan float64 { return j.progress }

// Done is closed when the job has finished, successfully or not.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finishes and returns its result.
func (j *Job) Wait() (*Result, error) {
	<-j.done
	return j.result, j.err
}

func (j *Job) post(opts *Options, f float64) {
	select {
	case <-j.progress:
	default:
	}
	select {
	case j.progress <- f:
	default:
	}
	if opts.ProgressFunc != nil {
		opts.ProgressFunc(f)
	}
}

func (j *Job) run(ctx context.Context, path string, opts Options) {
	defer close(j.done)
	defer close(j.progress)

	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.MaxIssues <= 0 {
		opts.MaxIssues = DefaultMaxIssues
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	logger := opts.Logger.With("job", j.id[:8])

	start := time.Now()
	observability.Pipeline().OnIngestStart(ctx, path)
	res, err := j.ingest(ctx, path, &opts, logger)

	var stats observability.IngestStats
	if res != nil {
		res.Duration = time.Since(start)
		stats = observability.IngestStats{
			Lines:    res.Lines,
			Nodes:    res.Handle.Graph.Size(),
			Edges:    res.Handle.Graph.EdgeCount(),
			Genomes:  res.Handle.Genomes.Count(),
			Issues:   res.IssueCount,
			Segments: res.Segments,
		}
		logger.Info("ingested", "source", path, "nodes", stats.Nodes, "edges", stats.Edges,
			"genomes", stats.Genomes, "issues", res.IssueCount, "duration", res.Duration)
	} else {
		logger.Error("ingestion failed", "source", path, "err", err)
	}
	observability.Pipeline().OnIngestComplete(ctx, path, stats, time.Since(start), err)
	j.result, j.err = res, err
}

func (j *Job) ingest(ctx context.Context, path string, opts *Options, logger *log.Logger) (*Result, error) {
	if err := errors.ValidateSourcePath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "stat %s", path)
	}
	total, err := countLines(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("counted lines", "source", path, "lines", total)

	sinks, err := openSinks(path, opts)
	if err != nil {
		return nil, err
	}

	src, err := os.Open(path)
	if err != nil {
		sinks.discard()
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer src.Close()

	// The job goroutine is the parser's only writer. Readers reach the graph
	// through Job.Wait, which returns only after run has finished.
	digest := xxhash.New()
	p := newParser(sinks.segments, sinks.genomes, total, opts.MaxIssues,
		func(f float64) { j.post(opts, f) }, logger)
	p.maxNodes = opts.MaxNodes
	if err := p.parse(ctx, io.TeeReader(src, digest)); err != nil {
		sinks.discard()
		return nil, err
	}
	if err := sinks.closeGenomes(); err != nil {
		sinks.discard()
		return nil, errors.Wrap(errors.ErrCodeIO, err, "close genome table")
	}

	h := graph.NewHandle(path, p.g, p.genomes, sinks.segments)
	h.Fingerprint = digest.Sum64()

	res := &Result{
		Handle:         h,
		Issues:         p.issues,
		IssueCount:     p.issueCount,
		Lines:          p.line,
		Segments:       p.nSegments,
		Links:          p.nLinks,
		DuplicateLinks: p.duplicates,
	}
	if !opts.SkipSnapshot {
		err := snapshot.Write(h, sinks.paths, snapshot.WriteOptions{
			GenomesStreamed: true,
			SourceInfo:      info,
			Logger:          logger,
		})
		if err != nil {
			sinks.discard()
			return nil, err
		}
		res.Snapshot = sinks.paths
	}
	j.post(opts, 1)
	return res, nil
}

// sinks are the on-disk outputs of one ingestion.
type sinks struct {
	paths      snapshot.Paths
	segments   *segment.Store
	genomes    io.Writer
	genomeFile *os.File
	persistent bool
}

func openSinks(path string, opts *Options) (*sinks, error) {
	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "create %s", opts.CacheDir)
		}
	}
	if opts.SkipSnapshot {
		store, err := segment.CreateTemp(opts.CacheDir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "create segment store")
		}
		return &sinks{segments: store, genomes: io.Discard}, nil
	}

	paths := snapshot.PathsFor(path, opts.CacheDir)
	// An old manifest must not vouch for artifacts about to be overwritten.
	if err := os.Remove(paths.Manifest); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "remove %s", paths.Manifest)
	}
	store, err := segment.Create(paths.Segments)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create %s", paths.Segments)
	}
	f, err := os.Create(paths.Genomes)
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create %s", paths.Genomes)
	}
	return &sinks{paths: paths, segments: store, genomes: f, genomeFile: f, persistent: true}, nil
}

func (s *sinks) closeGenomes() error {
	if s.genomeFile == nil {
		return nil
	}
	err := s.genomeFile.Close()
	s.genomeFile = nil
	return err
}

// discard closes the sinks and removes whatever they wrote.
func (s *sinks) discard() {
	_ = s.closeGenomes()
	_ = s.segments.Close()
	if s.persistent {
		_ = snapshot.Remove(s.paths)
	}
}

// countLines returns the number of lines in path. A final line without a
// terminator counts.
func countLines(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()

	buf := make([]byte, 1<<20)
	var (
		count int
		last  byte = '\n'
	)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := f.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}
