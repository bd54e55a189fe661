// Package pkg provides the core libraries for pangraph, a browser for
// pangenome assembly graphs.
//
// # Overview
//
// pangraph reads a GFA assembly graph, keeps a fast-loading snapshot of it
// next to the source, and lays the graph out in layers so any region can be
// cut out as a window around a node. The pkg directory is organized into
// three areas:
//
//  1. Domain logic: [graph], [genome], [segment], [ingest], [layout]
//  2. Persistence: [snapshot], [cache], [io]
//  3. Orchestration and output: [pipeline], [render/nodelink], [observability]
//
// # Architecture
//
// The typical data flow:
//
//	GFA file
//	    ↓
//	[ingest] (stream records into graph, genome index and segment store)
//	    ↓
//	[snapshot] (topology, genome table and segments written next to the source)
//	    ↓
//	[layout] (cycle breaking, longest-path layering, dummies, coordinates)
//	    ↓
//	Layout.Window → JSON, DOT or SVG
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{Source: "chr1.gfa"})
//	if err != nil {
//	    return err
//	}
//	defer res.Handle.Close()
//
//	view, _ := res.Layout.Window(0, 2)
//	dot := nodelink.ToDOT(view, nodelink.Options{Graph: res.Handle.Graph})
//
// # Main Packages
//
// [graph] - Adjacency-list graph indexed by dense node ids. Links to ids
// beyond the last segment grow the graph with placeholder nodes.
//
// [genome] - Per-node genome membership with integer or symbolic identifiers.
//
// [segment] - Line-addressed store of segment sequences, read on demand.
//
// [ingest] - Streaming GFA ingestion. Malformed records are skipped and
// reported; progress is published while the file is read.
//
// [snapshot] - Snapshot artifacts and their manifest, with mtime or content
// staleness checks.
//
// [layout] - Layered layout and windowing.
//
// [cache] - Layout result cache with file, Redis and null backends.
//
// [pipeline] - Snapshot-or-ingest followed by cached layout, shared by the
// CLI and the HTTP server.
//
// [render/nodelink] - Graphviz DOT and SVG output for windows.
//
// [io] - Node-link JSON import and export of whole graphs.
//
// [observability] - Hooks for pipeline, cache and HTTP events, with a
// Prometheus implementation in [observability/promhooks].
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/layout/...   # Specific package
//	go test -run Example       # Examples only
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/graph
// [genome]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/genome
// [segment]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/segment
// [ingest]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/ingest
// [layout]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/layout
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/snapshot
// [cache]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/cache
// [io]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/pipeline
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/render/nodelink
// [observability]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/observability
// [observability/promhooks]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/observability/promhooks
package pkg
