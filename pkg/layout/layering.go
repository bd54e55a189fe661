package layout

import (
	"context"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/graph"
)

// assignLayers computes longest-path layers over the forward edges of g and
// returns them with the topological visit order.
//
// Nodes with no forward predecessors start on layer 0 and are queued in
// ascending id. Each dequeued node pushes its children to at least its own
// layer plus one, so every forward edge points strictly downward.
func assignLayers(ctx context.Context, g *graph.Graph, back edgeSet) (layers, order []int, err error) {
	n := g.Size()
	inDegree := make([]int, n)
	for u := range n {
		for _, v := range g.Children(u) {
			if !back.has(u, v) {
				inDegree[v]++
			}
		}
	}

	layers = make([]int, n)
	order = make([]int, 0, n)
	for id, degree := range inDegree {
		if degree == 0 {
			order = append(order, id)
		}
	}

	// order doubles as the queue: everything before head has been visited.
	for head := 0; head < len(order); head++ {
		if head%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		curr := order[head]
		for _, child := range g.Children(curr) {
			if back.has(curr, child) {
				continue
			}
			if layer := layers[curr] + 1; layer > layers[child] {
				layers[child] = layer
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				order = append(order, child)
			}
		}
	}

	if len(order) != n {
		return nil, nil, errors.New(errors.ErrCodeInternal,
			"layering visited %d of %d nodes; forward edges still form a cycle", len(order), n)
	}
	return layers, order, nil
}
