package layout

import "github.com/matzehuels/pangraph/pkg/graph"

// edgeSet holds edges by endpoint pair.
type edgeSet map[Edge]struct{}

func (s edgeSet) has(from, to int) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[Edge{From: from, To: to}]
	return ok
}

// findBackEdges returns the edges closing a cycle, in discovery order.
//
// The search is iterative so deep chains cannot exhaust the goroutine stack.
// Roots are the sources in ascending id, then any node still unvisited in
// ascending id; children are followed in adjacency order.
func findBackEdges(g *graph.Graph) []Edge {
	const (
		white = iota
		gray
		black
	)

	type frame struct{ node, next int }

	color := make([]uint8, g.Size())
	var (
		stack []frame
		back  []Edge
	)

	dfs := func(root int) {
		color[root] = gray
		stack = append(stack, frame{node: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := g.Children(top.node)
			if top.next == len(children) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := children[top.next]
			top.next++
			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frame{node: child})
			case gray:
				back = append(back, Edge{From: top.node, To: child})
			}
		}
	}

	for _, id := range g.Sources() {
		if color[id] == white {
			dfs(id)
		}
	}
	for id := range g.Size() {
		if color[id] == white {
			dfs(id)
		}
	}
	return back
}
