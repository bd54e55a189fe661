package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/genome"
	"github.com/matzehuels/pangraph/pkg/graph"
)

// ReadJSON decodes a JSON graph document from r.
//
// The returned index carries the document's genome names, basis and
// per-node membership. ReadJSON returns an INVALID_INPUT error if the JSON
// is malformed, a node id does not match its position, an edge references an
// id outside the declared size, or the rebuilt graph fails validation.
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, *genome.Index, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode graph document")
	}
	if len(data.Nodes) != data.Size {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "document declares %d nodes but lists %d", data.Size, len(data.Nodes))
	}

	basis, err := genome.ParseBasis(data.Basis)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode graph document")
	}
	ix := genome.NewIndex(data.Genomes)
	ix.SetBasis(basis)

	g := graph.New()
	g.Reserve(data.Size)
	for i, n := range data.Nodes {
		if n.ID != i {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "node at position %d has id %d", i, n.ID)
		}
		if !n.Placeholder {
			if err := g.AddNodeCache(n.ID, graph.Node{Length: n.Length}); err != nil {
				return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "node %d", n.ID)
			}
		}
		ix.Set(n.ID, n.Genomes)
	}
	for _, e := range data.Edges {
		if e.From >= data.Size || e.To >= data.Size {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "edge %d->%d outside %d nodes", e.From, e.To, data.Size)
		}
		if err := g.AddEdge(e.From, e.To); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %d->%d", e.From, e.To)
		}
	}
	g.Pad(data.Size)
	if err := g.Validate(); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid graph document")
	}
	ix.Pad(data.Size)
	return g, ix, nil
}

// ImportJSON reads a JSON file at path and returns the decoded graph and
// genome index.
func ImportJSON(path string) (*graph.Graph, *genome.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
