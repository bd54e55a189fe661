package graph

import (
	"github.com/matzehuels/pangraph/pkg/genome"
	"github.com/matzehuels/pangraph/pkg/segment"
)

// Handle is the completed product of ingestion or snapshot load.
//
// Producers construct a Handle only after the graph is fully built, so the
// graph it exposes is never observed under construction. Treat every field as
// read-only.
type Handle struct {
	Graph       *Graph
	Genomes     *genome.Index
	Segments    *segment.Store
	Source      string // Path of the assembly file the graph was built from
	Fingerprint uint64 // xxhash64 of the source content, 0 if unknown
	FromCache   bool   // True when restored from a snapshot
}

// NewHandle bundles the parts of a completed graph and attaches the segment
// store as the graph's segment source.
func NewHandle(source string, g *Graph, genomes *genome.Index, segments *segment.Store) *Handle {
	if segments != nil {
		g.SetSegments(segments)
	}
	return &Handle{Graph: g, Genomes: genomes, Segments: segments, Source: source}
}

// Close releases the segment store.
func (h *Handle) Close() error {
	if h == nil || h.Segments == nil {
		return nil
	}
	return h.Segments.Close()
}
