package layout

import (
	"context"
	"time"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/observability"
)

const (
	DefaultLayerSpacing = 40
	DefaultRowSpacing   = 20

	// WindowUnit is the horizontal distance one unit of window radius covers.
	WindowUnit = 40
)

// checkEvery is how many nodes pass between context checks.
const checkEvery = 4096

// Options configures [Compute]. Zero values select the defaults.
type Options struct {
	LayerSpacing int `toml:"layer_spacing"`
	RowSpacing   int `toml:"row_spacing"`
}

// WithDefaults returns o with zero fields replaced by their defaults.
func (o Options) WithDefaults() Options {
	if o.LayerSpacing <= 0 {
		o.LayerSpacing = DefaultLayerSpacing
	}
	if o.RowSpacing <= 0 {
		o.RowSpacing = DefaultRowSpacing
	}
	return o
}

// Edge is a directed edge between two layout ids.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Placement is where a real node was put.
type Placement struct {
	ID    int `json:"id"`
	Layer int `json:"layer"`
	Rank  int `json:"rank"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// DummyNode carries one long edge through one intermediate layer.
type DummyNode struct {
	ID    int `json:"id"`
	From  int `json:"from"` // source of the routed edge
	To    int `json:"to"`   // target of the routed edge
	Layer int `json:"layer"`
	Rank  int `json:"rank"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// Layout is the result of [Compute].
type Layout struct {
	// Nodes holds one placement per real node, indexed by node id.
	Nodes []Placement `json:"nodes"`

	// Dummies holds the routing nodes; Dummies[k] has id len(Nodes)+k.
	Dummies []DummyNode `json:"dummies"`

	// Edges are the routed edges. Each connects adjacent layers.
	Edges []Edge `json:"edges"`

	// BackEdges were ignored for layering and are drawn unrouted.
	BackEdges []Edge `json:"back_edges,omitempty"`

	Layers       int `json:"layers"`
	LayerSpacing int `json:"layer_spacing"`
	RowSpacing   int `json:"row_spacing"`

	// edgesByLayer[l] indexes the routed edges leaving layer l.
	edgesByLayer [][]int
}

// Compute lays out g. The graph is not modified.
func Compute(ctx context.Context, g *graph.Graph, opts Options) (l *Layout, err error) {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, g.Size())
	defer func() {
		dummies := 0
		if l != nil {
			dummies = len(l.Dummies)
		}
		hooks.OnLayoutComplete(ctx, dummies, time.Since(start), err)
	}()

	opts = opts.WithDefaults()

	backEdges := findBackEdges(g)
	back := make(edgeSet, len(backEdges))
	for _, e := range backEdges {
		back[e] = struct{}{}
	}

	layers, order, err := assignLayers(ctx, g, back)
	if err != nil {
		return nil, err
	}

	l = &Layout{
		Nodes:        make([]Placement, g.Size()),
		BackEdges:    backEdges,
		LayerSpacing: opts.LayerSpacing,
		RowSpacing:   opts.RowSpacing,
	}
	for _, layer := range layers {
		l.Layers = max(l.Layers, layer+1)
	}

	ranks := make([]int, l.Layers)
	for _, id := range order {
		layer := layers[id]
		l.Nodes[id] = Placement{
			ID:    id,
			Layer: layer,
			Rank:  ranks[layer],
			X:     layer * opts.LayerSpacing,
			Y:     ranks[layer] * opts.RowSpacing,
		}
		ranks[layer]++
	}

	if err := l.route(ctx, g, back, ranks); err != nil {
		return nil, err
	}
	l.index()
	return l, nil
}

// route emits the routed edges, inserting dummies for every forward edge
// spanning more than one layer. Sources are visited in ascending id and their
// edges in adjacency order.
func (l *Layout) route(ctx context.Context, g *graph.Graph, back edgeSet, ranks []int) error {
	n := len(l.Nodes)
	for u := range n {
		if u%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for _, v := range g.Children(u) {
			if back.has(u, v) {
				continue
			}
			prev := u
			for layer := l.Nodes[u].Layer + 1; layer < l.Nodes[v].Layer; layer++ {
				id := n + len(l.Dummies)
				l.Dummies = append(l.Dummies, DummyNode{
					ID:    id,
					From:  u,
					To:    v,
					Layer: layer,
					Rank:  ranks[layer],
					X:     layer * l.LayerSpacing,
					Y:     ranks[layer] * l.RowSpacing,
				})
				ranks[layer]++
				l.Edges = append(l.Edges, Edge{From: prev, To: id})
				prev = id
			}
			l.Edges = append(l.Edges, Edge{From: prev, To: v})
		}
	}
	return nil
}

// index builds the per-layer edge lists windows are served from.
func (l *Layout) index() {
	l.edgesByLayer = make([][]int, l.Layers)
	for i, e := range l.Edges {
		if layer, ok := l.layer(e.From); ok && layer < l.Layers {
			l.edgesByLayer[layer] = append(l.edgesByLayer[layer], i)
		}
	}
}

// NodeCount returns the number of real nodes.
func (l *Layout) NodeCount() int { return len(l.Nodes) }

// Size returns the number of laid-out items, real and dummy.
func (l *Layout) Size() int { return len(l.Nodes) + len(l.Dummies) }

// IsDummy reports whether id names a dummy.
func (l *Layout) IsDummy(id int) bool { return id >= len(l.Nodes) && id < l.Size() }

// Position returns the coordinates of a real node or dummy.
func (l *Layout) Position(id int) (x, y int, ok bool) {
	switch {
	case id >= 0 && id < len(l.Nodes):
		return l.Nodes[id].X, l.Nodes[id].Y, true
	case l.IsDummy(id):
		d := l.Dummies[id-len(l.Nodes)]
		return d.X, d.Y, true
	}
	return 0, 0, false
}

func (l *Layout) layer(id int) (int, bool) {
	switch {
	case id >= 0 && id < len(l.Nodes):
		return l.Nodes[id].Layer, true
	case l.IsDummy(id):
		return l.Dummies[id-len(l.Nodes)].Layer, true
	}
	return 0, false
}

// Validate checks that the layout is internally consistent: ids match their
// slots, coordinates match layer and rank, and every routed edge goes from a
// layer to the next one.
func (l *Layout) Validate() error {
	for i, p := range l.Nodes {
		if p.ID != i {
			return errors.New(errors.ErrCodeInternal, "node slot %d holds id %d", i, p.ID)
		}
		if err := l.checkPlacement(p.ID, p.Layer, p.Rank, p.X, p.Y); err != nil {
			return err
		}
	}
	for k, d := range l.Dummies {
		if d.ID != len(l.Nodes)+k {
			return errors.New(errors.ErrCodeInternal, "dummy slot %d holds id %d", k, d.ID)
		}
		if err := l.checkPlacement(d.ID, d.Layer, d.Rank, d.X, d.Y); err != nil {
			return err
		}
		if d.From < 0 || d.From >= len(l.Nodes) || d.To < 0 || d.To >= len(l.Nodes) {
			return errors.New(errors.ErrCodeInternal, "dummy %d routes unknown edge %d→%d", d.ID, d.From, d.To)
		}
	}
	for _, e := range l.Edges {
		from, okFrom := l.layer(e.From)
		to, okTo := l.layer(e.To)
		if !okFrom || !okTo {
			return errors.New(errors.ErrCodeInternal, "edge %d→%d references an unknown id", e.From, e.To)
		}
		if to != from+1 {
			return errors.New(errors.ErrCodeInternal, "edge %d→%d goes from layer %d to %d", e.From, e.To, from, to)
		}
	}
	for _, e := range l.BackEdges {
		if e.From < 0 || e.From >= len(l.Nodes) || e.To < 0 || e.To >= len(l.Nodes) {
			return errors.New(errors.ErrCodeInternal, "back-edge %d→%d references an unknown node", e.From, e.To)
		}
	}
	return nil
}

func (l *Layout) checkPlacement(id, layer, rank, x, y int) error {
	if layer < 0 || layer >= max(l.Layers, 1) || rank < 0 {
		return errors.New(errors.ErrCodeInternal, "id %d has layer %d rank %d", id, layer, rank)
	}
	if x != layer*l.LayerSpacing || y != rank*l.RowSpacing {
		return errors.New(errors.ErrCodeInternal, "id %d at (%d,%d), want (%d,%d)",
			id, x, y, layer*l.LayerSpacing, rank*l.RowSpacing)
	}
	return nil
}
