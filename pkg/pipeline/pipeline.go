// Package pipeline ties ingestion, snapshots and layout together for the CLI
// and the server.
//
// # Architecture
//
// Opening a graph has two stages:
//
//  1. Open: restore the graph from its snapshot, or ingest the source when
//     there is no usable snapshot (missing, stale or corrupt).
//  2. Layout: fetch the layout from the result cache, or compute and store
//     it.
//
// Each stage can be run independently or through [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, keyer, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Source: "chr1.gfa"})
//	if err != nil {
//	    return err
//	}
//	defer res.Handle.Close()
//	view, err := res.Layout.Window(center, radius)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/ingest"
	"github.com/matzehuels/pangraph/pkg/layout"
	"github.com/matzehuels/pangraph/pkg/snapshot"
)

// Options configures a pipeline run.
type Options struct {
	// Source is the assembly graph file.
	Source string

	// SnapshotDir holds snapshot artifacts. Empty means next to the source.
	SnapshotDir string

	// Staleness decides when a snapshot no longer matches its source.
	Staleness snapshot.Mode

	// Refresh ignores any snapshot and re-ingests.
	Refresh bool

	// NoSnapshot ingests without writing a snapshot.
	NoSnapshot bool

	// MaxIssues caps the record issues kept by ingestion.
	MaxIssues int

	// Layout configures the layout stage.
	Layout layout.Options

	// NoLayoutCache bypasses the layout result cache.
	NoLayoutCache bool

	// Runtime options
	Logger       *log.Logger
	ProgressFunc func(float64)
}

// Validate checks the options before any work starts.
func (o Options) Validate() error {
	if o.Source == "" {
		return errors.New(errors.ErrCodeInvalidInput, "source file is required")
	}
	if o.Layout.LayerSpacing < 0 || o.Layout.RowSpacing < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout spacing must be >= 0")
	}
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Handle is the opened graph. The caller must Close it.
	Handle *graph.Handle

	// Ingest is the ingestion report; nil when the graph came from a snapshot.
	Ingest *ingest.Result

	// Layout is the computed or cached layout.
	Layout *layout.Layout

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit a cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	DummyCount int
	OpenTime   time.Duration
	LayoutTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SnapshotHit bool // Whether the graph was restored from its snapshot
	LayoutHit   bool // Whether the layout came from the result cache
}
