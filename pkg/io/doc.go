// Package io provides JSON import and export for assembly graphs.
//
// # Overview
//
// The format is a plain node-link document meant for external tools that
// want the topology and genome membership without reading snapshot files:
//
//	{
//	  "size": 3,
//	  "basis": "symbolic",
//	  "genomes": ["A", "B"],
//	  "nodes": [
//	    {"id": 0, "length": 4, "genomes": [0, 1]},
//	    {"id": 1, "length": 1, "genomes": [0]},
//	    {"id": 2, "placeholder": true}
//	  ],
//	  "edges": [
//	    {"from": 0, "to": 1}
//	  ]
//	}
//
// # Node Fields
//
//   - id: dense node id, equal to the node's position in the table
//   - length: sequence length in bases
//   - genomes: ids of the genomes whose path traverses the node
//   - placeholder: true for ids padded in without a segment record
//
// Sequences are not part of the document; they stay in the segment store.
//
// # Import
//
// [ReadJSON] rebuilds a graph and its genome index. Nodes are installed as
// finalized nodes, the way a snapshot load does, and edges are replayed in
// document order. Malformed documents are reported as INVALID_INPUT.
//
// # Export
//
// [WriteJSON] writes the graph of a handle; [ExportJSON] writes it to a
// file. Import followed by export reproduces the document.
package io
