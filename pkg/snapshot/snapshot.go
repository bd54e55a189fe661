// Package snapshot persists ingested graphs so a source file reloads without
// re-parsing.
//
// # Artifacts
//
// A snapshot of source "chr1.gfa" consists of four files named from the
// source basename, next to the source or under a configured directory:
//
//   - chr1.topology.txt: node count, then per node its length and its
//     outgoing and incoming id lists (see [WriteTopology])
//   - chr1.segments.txt: one raw sequence per line, line i = node i
//   - chr1.genomes.txt: the genome table (see genome.Read)
//   - chr1.snapshot.toml: the [Manifest], written last
//
// # Staleness
//
// [Check] compares the manifest against the source. [ModeMtime] (the default)
// compares size and modification time, [ModeHash] also compares the xxhash64
// content fingerprint, and [ModeExists] trusts any complete snapshot. A stale
// snapshot is never loaded.
//
// # Failure
//
// Artifacts that do not decode yield CACHE_CORRUPT errors. Nothing here
// retries; callers are expected to re-ingest the source.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/genome"
	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/observability"
	"github.com/matzehuels/pangraph/pkg/segment"
)

// Mode selects how Check decides whether a snapshot matches its source.
type Mode int

const (
	ModeMtime  Mode = iota // size and modification time
	ModeHash               // size, modification time and content fingerprint
	ModeExists             // any complete snapshot is fresh
)

// String returns the mode name used in configuration.
func (m Mode) String() string {
	switch m {
	case ModeHash:
		return "hash"
	case ModeExists:
		return "exists"
	default:
		return "mtime"
	}
}

// ParseMode is the inverse of Mode.String. The empty string selects ModeMtime.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "mtime":
		return ModeMtime, nil
	case "hash":
		return ModeHash, nil
	case "exists":
		return ModeExists, nil
	}
	return ModeMtime, errors.New(errors.ErrCodeInvalidInput, "unknown staleness mode %q (want mtime, hash or exists)", s)
}

// State is the result of a staleness check.
type State int

const (
	Missing State = iota // no complete snapshot
	Stale                // snapshot exists but does not match the source
	Fresh                // snapshot matches the source
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "missing"
	}
}

// Check reports whether the snapshot at paths can stand in for source.
//
// The returned manifest is nil when the state is Missing. A manifest that
// does not decode is reported as an error.
func Check(source string, paths Paths, mode Mode) (State, *Manifest, error) {
	m, err := ReadManifest(paths.Manifest)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return Missing, nil, nil
	}
	if err != nil {
		return Missing, nil, err
	}
	for _, p := range []string{paths.Topology, paths.Genomes, paths.Segments} {
		if _, err := os.Stat(p); err != nil {
			return Missing, nil, nil
		}
	}
	if m.Version != Version {
		return Stale, m, nil
	}
	if mode == ModeExists {
		return Fresh, m, nil
	}

	info, err := os.Stat(source)
	if err != nil {
		return Stale, m, nil
	}
	if info.Size() != m.Size || info.ModTime().UnixNano() != m.ModTime {
		return Stale, m, nil
	}
	if mode == ModeHash {
		sum, err := Fingerprint(source)
		if err != nil {
			return Stale, m, errors.Wrap(errors.ErrCodeIO, err, "fingerprint %s", source)
		}
		if FormatFingerprint(sum) != m.Fingerprint {
			return Stale, m, nil
		}
	}
	return Fresh, m, nil
}

// WriteOptions configures Write.
type WriteOptions struct {
	// GenomesStreamed reports that the producer already wrote the genome
	// table to paths.Genomes while parsing.
	GenomesStreamed bool

	// SourceInfo is the source's file info captured before parsing began. If
	// nil, Write stats the source.
	SourceInfo os.FileInfo

	Logger *log.Logger
}

// Write persists h as a complete snapshot at paths.
//
// An existing manifest is removed first. The segment store is copied only if
// it does not already live at paths.Segments. The topology is written next,
// and the manifest last, each through a temporary file renamed into place.
// A failure at any step leaves no manifest behind.
func Write(h *graph.Handle, paths Paths, opts WriteOptions) (err error) {
	start := time.Now()
	defer func() {
		observability.Pipeline().OnSnapshotWrite(context.Background(), h.Source, time.Since(start), err)
	}()

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	g := h.Graph

	if err := os.Remove(paths.Manifest); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeIO, err, "remove %s", paths.Manifest)
	}

	if err := writeSegments(h, paths.Segments); err != nil {
		return err
	}

	if !opts.GenomesStreamed {
		genomes := h.Genomes
		if genomes == nil {
			genomes = genome.NewIndex(nil)
		}
		err := writeAtomic(paths.Genomes, func(w io.Writer) error {
			gw, err := genome.NewWriter(w, genomes.Names())
			if err != nil {
				return err
			}
			for node := 0; node < genomes.Len(); node++ {
				if err := gw.Put(node, genomes.Members(node)); err != nil {
					return err
				}
			}
			if err := gw.Pad(g.Size()); err != nil {
				return err
			}
			return gw.Flush()
		})
		if err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "write %s", paths.Genomes)
		}
	}

	if err := writeAtomic(paths.Topology, func(w io.Writer) error {
		return WriteTopology(w, g)
	}); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", paths.Topology)
	}

	info := opts.SourceInfo
	if info == nil {
		if info, err = os.Stat(h.Source); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "stat %s", h.Source)
		}
	}
	m := &Manifest{
		Version:     Version,
		Source:      h.Source,
		Size:        info.Size(),
		ModTime:     info.ModTime().UnixNano(),
		Fingerprint: FormatFingerprint(h.Fingerprint),
		Nodes:       g.Size(),
		Edges:       g.EdgeCount(),
		Created:     time.Now().UTC(),
	}
	if h.Genomes != nil {
		m.Genomes = h.Genomes.Count()
		m.Basis = h.Genomes.Basis().String()
	}
	if err := writeManifest(paths.Manifest, m); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", paths.Manifest)
	}

	logger.Debug("snapshot written", "manifest", paths.Manifest, "nodes", m.Nodes, "edges", m.Edges)
	return nil
}

func writeSegments(h *graph.Handle, path string) error {
	size := h.Graph.Size()
	if h.Segments == nil {
		s, err := segment.Create(path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "create %s", path)
		}
		if err := s.Pad(size); err != nil {
			_ = s.Close()
			return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
		}
		if err := s.Close(); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
		}
		return nil
	}

	if n := h.Segments.Len(); n != size {
		return errors.New(errors.ErrCodeInternal, "segment store holds %d entries for %d nodes", n, size)
	}
	if same(h.Segments.Path(), path) {
		if err := h.Segments.Finish(); err != nil && err != segment.ErrClosed {
			return errors.Wrap(errors.ErrCodeIO, err, "flush %s", path)
		}
		return nil
	}

	if err := h.Segments.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "flush %s", h.Segments.Path())
	}
	err := writeAtomic(path, func(w io.Writer) error {
		src, err := os.Open(h.Segments.Path())
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "copy segments to %s", path)
	}
	return nil
}

func same(a, b string) bool {
	if a == b {
		return true
	}
	ia, errA := os.Stat(a)
	ib, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(ia, ib)
}

// LoadOptions configures Load.
type LoadOptions struct {
	Dir    string // Artifact directory; empty means next to the source
	Mode   Mode
	Logger *log.Logger
}

// Load restores the graph of source from its snapshot.
//
// Load returns NOT_FOUND when no complete snapshot exists and CACHE_STALE
// when one exists but no longer matches the source. Otherwise the topology,
// the genome table and the segment index are read concurrently; the Handle
// is returned only after all three succeed and agree with the manifest.
func Load(ctx context.Context, source string, opts LoadOptions) (h *graph.Handle, err error) {
	start := time.Now()
	defer func() {
		nodes := 0
		if h != nil {
			nodes = h.Graph.Size()
		}
		observability.Pipeline().OnSnapshotLoad(ctx, source, nodes, time.Since(start), err)
	}()

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	paths := PathsFor(source, opts.Dir)

	state, m, err := Check(source, paths, opts.Mode)
	if err != nil {
		return nil, err
	}
	switch state {
	case Missing:
		return nil, errors.New(errors.ErrCodeNotFound, "no snapshot for %s", source)
	case Stale:
		return nil, errors.New(errors.ErrCodeCacheStale, "snapshot %s does not match %s", paths.Manifest, source)
	}

	var (
		g        *graph.Graph
		genomes  *genome.Index
		segments *segment.Store
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		f, err := os.Open(paths.Topology)
		if err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "open %s", paths.Topology)
		}
		defer f.Close()
		g, err = readTopology(egCtx, f, paths.Topology, m.Nodes)
		return err
	})
	eg.Go(func() error {
		f, err := os.Open(paths.Genomes)
		if err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "open %s", paths.Genomes)
		}
		defer f.Close()
		genomes, err = genome.Read(f, paths.Genomes)
		return err
	})
	eg.Go(func() error {
		s, err := segment.Open(egCtx, paths.Segments)
		if err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "index %s", paths.Segments)
		}
		segments = s
		return nil
	})
	if err := eg.Wait(); err != nil {
		if segments != nil {
			_ = segments.Close()
		}
		return nil, err
	}

	if err := verify(m, paths, g, genomes, segments); err != nil {
		_ = segments.Close()
		return nil, err
	}
	basis, err := genome.ParseBasis(m.Basis)
	if err != nil {
		_ = segments.Close()
		return nil, errors.Corrupt(paths.Manifest, 0, "%v", err)
	}
	genomes.SetBasis(basis)

	h = graph.NewHandle(source, g, genomes, segments)
	h.Fingerprint = m.Sum()
	h.FromCache = true

	logger.Debug("snapshot loaded", "source", source, "nodes", g.Size(), "edges", g.EdgeCount(), "took", time.Since(start))
	return h, nil
}

func verify(m *Manifest, paths Paths, g *graph.Graph, genomes *genome.Index, segments *segment.Store) error {
	switch {
	case g.Size() != m.Nodes:
		return errors.Corrupt(paths.Topology, 0, "holds %d nodes, manifest says %d", g.Size(), m.Nodes)
	case genomes.Len() != m.Nodes:
		return errors.Corrupt(paths.Genomes, 0, "holds %d rows, manifest says %d nodes", genomes.Len(), m.Nodes)
	case genomes.Count() != m.Genomes:
		return errors.Corrupt(paths.Genomes, 1, "lists %d genomes, manifest says %d", genomes.Count(), m.Genomes)
	case segments.Len() != m.Nodes:
		return errors.Corrupt(paths.Segments, 0, "holds %d segments, manifest says %d nodes", segments.Len(), m.Nodes)
	}
	if err := g.Validate(); err != nil {
		return errors.Corrupt(paths.Topology, 0, "%v", err)
	}
	return nil
}

// Describe returns a one-line summary of a manifest for logs and the CLI.
func Describe(m *Manifest) string {
	return fmt.Sprintf("%d nodes, %d edges, %d genomes (%s), written %s",
		m.Nodes, m.Edges, m.Genomes, m.Basis, m.Created.Format(time.RFC3339))
}
