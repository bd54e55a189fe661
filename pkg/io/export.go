package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/pangraph/pkg/graph"
)

type document struct {
	Size    int      `json:"size"`
	Basis   string   `json:"basis,omitempty"`
	Genomes []string `json:"genomes,omitempty"`
	Nodes   []node   `json:"nodes"`
	Edges   []edge   `json:"edges"`
}

type node struct {
	ID          int   `json:"id"`
	Length      int   `json:"length,omitempty"`
	Genomes     []int `json:"genomes,omitempty"`
	Placeholder bool  `json:"placeholder,omitempty"`
}

type edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// WriteJSON encodes the graph of h as JSON and writes it to w.
// Edges are listed per source node in outgoing order. The genome index is
// optional; without it the document carries topology only.
func WriteJSON(h *graph.Handle, w io.Writer) error {
	g := h.Graph
	out := document{
		Size:  g.Size(),
		Nodes: make([]node, g.Size()),
		Edges: make([]edge, 0, g.EdgeCount()),
	}
	if h.Genomes != nil {
		out.Basis = h.Genomes.Basis().String()
		out.Genomes = h.Genomes.Names()
	}

	for i, n := range g.Nodes() {
		nd := node{ID: n.ID, Length: n.Length, Placeholder: n.Placeholder}
		if h.Genomes != nil {
			nd.Genomes = h.Genomes.Members(n.ID)
		}
		out.Nodes[i] = nd
		for _, to := range n.Out {
			out.Edges = append(out.Edges, edge{From: n.ID, To: to})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the graph of h to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(h *graph.Handle, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(h, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
