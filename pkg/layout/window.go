package layout

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/pangraph/pkg/errors"
)

// View is the part of a layout around one center node.
type View struct {
	Center int `json:"center"`
	Radius int `json:"radius"`
	MinX   int `json:"min_x"`
	MaxX   int `json:"max_x"`

	Nodes   []Placement `json:"nodes"`
	Dummies []DummyNode `json:"dummies"`

	// Edges are the routed edges with both endpoints in the view.
	Edges []Edge `json:"edges"`

	// BackEdges are the unrouted back-edges with both endpoints in the view.
	BackEdges []Edge `json:"back_edges,omitempty"`
}

// Contains reports whether id is a node or dummy of the view.
func (v *View) Contains(id int) bool {
	for _, p := range v.Nodes {
		if p.ID == id {
			return true
		}
	}
	for _, d := range v.Dummies {
		if d.ID == id {
			return true
		}
	}
	return false
}

// Window returns every node and dummy whose x is within WindowUnit·radius of
// the center node's x, with the edges among them. A radius of 0 keeps only
// the center's own layer.
//
// Returns INVALID_INPUT if center is not a real node or radius is negative.
func (l *Layout) Window(center, radius int) (*View, error) {
	if err := errors.ValidateRadius(radius); err != nil {
		return nil, err
	}
	if center < 0 || center >= len(l.Nodes) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"center %d is not a node id (0..%d)", center, len(l.Nodes)-1)
	}

	cx := l.Nodes[center].X
	reach := math.MaxInt
	if radius <= math.MaxInt/WindowUnit {
		reach = WindowUnit * radius
	}
	v := &View{
		Center: center,
		Radius: radius,
		MinX:   cx - reach,
		MaxX:   math.MaxInt,
	}
	// Coordinates are non-negative, so only the upper bound can overflow.
	if reach <= math.MaxInt-cx {
		v.MaxX = cx + reach
	}
	in := func(x int) bool { return x >= v.MinX && x <= v.MaxX }

	for _, p := range l.Nodes {
		if in(p.X) {
			v.Nodes = append(v.Nodes, p)
		}
	}
	for _, d := range l.Dummies {
		if in(d.X) {
			v.Dummies = append(v.Dummies, d)
		}
	}

	// Routed edges join adjacent layers, so an edge is kept when both its
	// layers are in range.
	for layer := range l.edgesByLayer {
		if !in(layer*l.LayerSpacing) || !in((layer+1)*l.LayerSpacing) {
			continue
		}
		for _, i := range l.edgesByLayer[layer] {
			v.Edges = append(v.Edges, l.Edges[i])
		}
	}
	for _, e := range l.BackEdges {
		if in(l.Nodes[e.From].X) && in(l.Nodes[e.To].X) {
			v.BackEdges = append(v.BackEdges, e)
		}
	}
	return v, nil
}

// Marshal encodes l as JSON.
func (l *Layout) Marshal() ([]byte, error) {
	return json.Marshal(l)
}

// Unmarshal decodes a layout produced by [Layout.Marshal] and validates it.
func Unmarshal(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheCorrupt, err, "decode layout")
	}
	if l.Layers == 0 && len(l.Nodes) > 0 {
		return nil, errors.New(errors.ErrCodeCacheCorrupt, "layout has nodes but no layers")
	}
	if err := l.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheCorrupt, err, "invalid layout")
	}
	l.index()
	return &l, nil
}
