package layout_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/layout"
)

func ExampleCompute() {
	// A bubble: 0 splits into 1 and 2, which rejoin at 3. 0→3 skips a layer.
	g := graph.New()
	for _, e := range [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}, {0, 3}} {
		_ = g.AddEdge(e[0], e[1])
	}

	l, _ := layout.Compute(context.Background(), g, layout.Options{})
	for _, p := range l.Nodes {
		fmt.Printf("node %d: layer %d at (%d,%d)\n", p.ID, p.Layer, p.X, p.Y)
	}
	for _, d := range l.Dummies {
		fmt.Printf("dummy %d: %d→%d at (%d,%d)\n", d.ID, d.From, d.To, d.X, d.Y)
	}
	// Output:
	// node 0: layer 0 at (0,0)
	// node 1: layer 1 at (40,0)
	// node 2: layer 1 at (40,20)
	// node 3: layer 2 at (80,0)
	// dummy 4: 0→3 at (40,40)
}

func ExampleLayout_Window() {
	g := graph.New()
	for id := 0; id < 5; id++ {
		_ = g.AddEdge(id, id+1)
	}
	l, _ := layout.Compute(context.Background(), g, layout.Options{})

	v, _ := l.Window(2, 1)
	var ids []int
	for _, p := range v.Nodes {
		ids = append(ids, p.ID)
	}
	fmt.Println("nodes:", ids)
	fmt.Println("x range:", v.MinX, v.MaxX)
	// Output:
	// nodes: [1 2 3]
	// x range: 40 120
}
