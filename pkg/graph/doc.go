// Package graph provides the in-memory model of an assembly graph.
//
// # Overview
//
// A [Graph] is a directed graph of segments (DNA fragments) addressed by dense
// integer ids starting at 0. Each [Node] carries the sequence length and its
// ordered outgoing and incoming adjacency lists. The sequence text itself is
// never held by the graph: [Graph.Segment] delegates to an attached
// [SegmentSource] (normally a disk-backed segment store).
//
// # Growth
//
// The node table grows on demand. Inserting node 100 into an empty graph, or
// adding an edge that references it, pads ids 0..99 with placeholder nodes of
// length 0 and no edges. Callers must not assume a fixed size until the
// producer (ingester or snapshot loader) has finished.
//
// # Fresh vs Restored Nodes
//
// Two insert operations exist and are kept separate:
//
//   - [Graph.AddNode] is used by the ingester. It computes the node's length
//     from the sequence payload and keeps edges that earlier links already
//     recorded against the placeholder.
//   - [Graph.AddNodeCache] is used by the snapshot loader. The node is trusted
//     as finalized: its length and both edge lists are installed as-is.
//
// # Handles
//
// A [Handle] bundles a completed graph with its genome index and segment
// store. Producers only hand out a Handle after they finish, so a Handle's
// graph is read-only and safe for concurrent readers.
//
// # Concurrency
//
// Graph is not safe for concurrent mutation. The intended discipline is a
// single writer during ingestion, then any number of readers.
package graph
