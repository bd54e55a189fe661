package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pangraph/pkg/cache"
	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/ingest"
	"github.com/matzehuels/pangraph/pkg/layout"
	"github.com/matzehuels/pangraph/pkg/observability"
	"github.com/matzehuels/pangraph/pkg/snapshot"
)

// Runner executes the pipeline with caching.
// Both CLI and server use it so snapshot and cache handling stay in one place.
//
// The Runner is stateless except for the cache and logger; it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long cached layouts live. Zero means cache.TTLLayout.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute opens the graph and lays it out.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Open
	openStart := time.Now()
	h, ing, hit, err := r.OpenWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Handle = h
	result.Ingest = ing
	result.Stats.OpenTime = time.Since(openStart)
	result.Stats.NodeCount = h.Graph.Size()
	result.Stats.EdgeCount = h.Graph.EdgeCount()
	result.CacheInfo.SnapshotHit = hit

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, h, opts)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.DummyCount = len(l.Dummies)
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("computed layout",
		"layers", l.Layers,
		"dummies", len(l.Dummies),
		"back_edges", len(l.BackEdges),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	return result, nil
}

// OpenWithCacheInfo restores the graph of opts.Source from its snapshot, or
// ingests the source when the snapshot is missing, stale or corrupt. The
// ingestion report is nil when the snapshot was used; hit reports which path
// was taken.
func (r *Runner) OpenWithCacheInfo(ctx context.Context, opts Options) (h *graph.Handle, ing *ingest.Result, hit bool, err error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, false, err
	}
	r.applyLogger(&opts)
	logger := opts.Logger

	if !opts.Refresh && !opts.NoSnapshot {
		h, err := snapshot.Load(ctx, opts.Source, snapshot.LoadOptions{
			Dir:    opts.SnapshotDir,
			Mode:   opts.Staleness,
			Logger: logger,
		})
		switch {
		case err == nil:
			logger.Info("loaded snapshot", "source", opts.Source,
				"nodes", h.Graph.Size(), "edges", h.Graph.EdgeCount())
			return h, nil, true, nil
		case errors.Is(err, errors.ErrCodeNotFound):
			logger.Debug("no snapshot, ingesting", "source", opts.Source)
		case errors.Is(err, errors.ErrCodeCacheStale):
			logger.Info("snapshot is stale, re-ingesting", "source", opts.Source)
		case errors.Is(err, errors.ErrCodeCacheCorrupt):
			logger.Warn("snapshot is corrupt, re-ingesting", "source", opts.Source, "err", errors.UserMessage(err))
		default:
			return nil, nil, false, err
		}
	}

	res, err := ingest.Run(ctx, opts.Source, ingest.Options{
		CacheDir:     opts.SnapshotDir,
		SkipSnapshot: opts.NoSnapshot,
		Logger:       logger,
		MaxIssues:    opts.MaxIssues,
		ProgressFunc: opts.ProgressFunc,
	})
	if err != nil {
		return nil, nil, false, err
	}
	if res.IssueCount > 0 {
		logger.Warn("skipped malformed records", "source", opts.Source, "count", res.IssueCount)
	}
	return res.Handle, res, false, nil
}

// Open is a convenience wrapper that calls OpenWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Open(ctx context.Context, opts Options) (*graph.Handle, error) {
	h, _, _, err := r.OpenWithCacheInfo(ctx, opts)
	return h, err
}

// LayoutWithCacheInfo lays out h, going through the result cache when the
// handle has a source fingerprint.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, h *graph.Handle, opts Options) (*layout.Layout, bool, error) {
	r.applyLogger(&opts)
	lopts := opts.Layout.WithDefaults()

	cacheable := !opts.NoLayoutCache && h.Fingerprint != 0
	var cacheKey string
	if cacheable {
		cacheKey = r.Keyer.LayoutKey(snapshot.FormatFingerprint(h.Fingerprint), cache.LayoutKeyOpts{
			LayerSpacing: lopts.LayerSpacing,
			RowSpacing:   lopts.RowSpacing,
			Nodes:        h.Graph.Size(),
			Edges:        h.Graph.EdgeCount(),
		})

		data, hit, err := r.Cache.Get(ctx, cacheKey)
		switch {
		case err != nil:
			opts.Logger.Warn("layout cache read failed", "err", err)
		case hit:
			if l, err := layout.Unmarshal(data); err == nil && l.NodeCount() == h.Graph.Size() {
				observability.Cache().OnCacheHit(ctx, "layout")
				return l, true, nil
			}
			// Undecodable entry: drop it and recompute.
			opts.Logger.Debug("discarding unusable cached layout", "key", cacheKey)
			_ = r.Cache.Delete(ctx, cacheKey)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	l, err := layout.Compute(ctx, h.Graph, lopts)
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		if data, err := l.Marshal(); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, r.ttl()); err != nil {
				opts.Logger.Warn("layout cache write failed", "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "layout", len(data))
			}
		}
	}
	return l, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, h *graph.Handle, opts Options) (*layout.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, h, opts)
	return l, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLLayout
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
