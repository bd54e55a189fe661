// Package layout computes a layered 2-D layout of a completed graph and
// serves windowed views of it.
//
// # Overview
//
// [Compute] runs four stages over a read-only [graph.Graph]:
//
//  1. Cycle detection: an iterative depth-first search marks back-edges
//     (self-loops included). They are left out of layering and reported in
//     [Layout.BackEdges].
//  2. Layering: longest-path layering by Kahn traversal. Nodes without
//     forward predecessors sit on layer 0, every other node one layer below
//     its deepest predecessor.
//  3. Dummy insertion: an edge u→v spanning more than one layer is routed
//     through one [DummyNode] per intermediate layer, so every routed edge
//     in [Layout.Edges] connects adjacent layers:
//
//     Before: u (layer 1) → v (layer 4)
//     After:  u → d1 (layer 2) → d2 (layer 3) → v
//
//  4. Coordinates: x is the layer times LayerSpacing. Within a layer, real
//     nodes are stacked in traversal order and dummies after them in creation
//     order, RowSpacing apart.
//
// No crossing minimization is attempted.
//
// # Windows
//
// [Layout.Window] scopes a large layout down to what a renderer can draw:
// every node and dummy whose x lies within [WindowUnit]·radius of the center
// node's x, and the routed edges between them. Windows are computed per
// query and never cached.
//
// # Ids
//
// Real nodes keep their graph ids 0..N-1. Dummies are numbered N, N+1, ... in
// creation order, so one id space covers everything a renderer draws.
//
// # Concurrency
//
// A Layout is immutable once Compute or [Unmarshal] returns and may be
// queried from many goroutines.
package layout
