package layout

import (
	"context"
	stderrors "errors"
	"math"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/graph"
)

func buildGraph(t *testing.T, n int, edges ...[2]int) *graph.Graph {
	t.Helper()
	g := graph.New()
	for id := range n {
		if err := g.AddNode(id, graph.Node{}, "A"); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func compute(t *testing.T, g *graph.Graph, opts Options) *Layout {
	t.Helper()
	l, err := Compute(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if err := l.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	return l
}

func layersOf(l *Layout) []int {
	out := make([]int, len(l.Nodes))
	for i, p := range l.Nodes {
		out[i] = p.Layer
	}
	return out
}

func TestCompute_Layers(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		edges  [][2]int
		layers []int
	}{
		{"empty", 0, nil, []int{}},
		{"isolated", 3, nil, []int{0, 0, 0}},
		{"chain", 3, [][2]int{{0, 1}, {1, 2}}, []int{0, 1, 2}},
		{"diamond", 4, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}}, []int{0, 1, 1, 2}},
		{"longest path wins", 4, [][2]int{{0, 3}, {0, 1}, {1, 2}, {2, 3}}, []int{0, 1, 2, 3}},
		{"two sources", 3, [][2]int{{0, 2}, {1, 2}}, []int{0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := compute(t, buildGraph(t, tt.n, tt.edges...), Options{})
			if got := layersOf(l); !slices.Equal(got, tt.layers) {
				t.Errorf("layers = %v, want %v", got, tt.layers)
			}
		})
	}
}

func TestCompute_Monotonic(t *testing.T) {
	edges := [][2]int{
		{0, 1}, {0, 4}, {1, 2}, {1, 5}, {2, 3}, {4, 5},
		{5, 6}, {3, 6}, {6, 7}, {0, 7}, {2, 7}, {8, 6},
	}
	g := buildGraph(t, 9, edges...)
	l := compute(t, g, Options{})

	for _, e := range edges {
		if l.Nodes[e[1]].Layer <= l.Nodes[e[0]].Layer {
			t.Errorf("edge %d→%d: layer %d → %d", e[0], e[1], l.Nodes[e[0]].Layer, l.Nodes[e[1]].Layer)
		}
	}
	for _, p := range l.Nodes {
		if p.X != p.Layer*DefaultLayerSpacing {
			t.Errorf("node %d x = %d, want %d", p.ID, p.X, p.Layer*DefaultLayerSpacing)
		}
	}
}

func TestCompute_Dummies(t *testing.T) {
	// 0→1→2→3→4→5→6 puts node i on layer i.
	chain := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}}

	tests := []struct {
		name    string
		long    [2]int
		layers  []int
		routing []Edge
	}{
		{
			name:    "layer 2 to 5",
			long:    [2]int{2, 5},
			layers:  []int{3, 4},
			routing: []Edge{{2, 7}, {7, 8}, {8, 5}},
		},
		{
			name:    "layer 1 to 5",
			long:    [2]int{1, 5},
			layers:  []int{2, 3, 4},
			routing: []Edge{{1, 7}, {7, 8}, {8, 9}, {9, 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := append(slices.Clone(chain), tt.long)
			l := compute(t, buildGraph(t, 7, edges...), Options{})

			if len(l.Dummies) != len(tt.layers) {
				t.Fatalf("got %d dummies, want %d", len(l.Dummies), len(tt.layers))
			}
			for k, d := range l.Dummies {
				if d.ID != 7+k || d.Layer != tt.layers[k] {
					t.Errorf("dummy %d = id %d layer %d, want id %d layer %d", k, d.ID, d.Layer, 7+k, tt.layers[k])
				}
				if d.From != tt.long[0] || d.To != tt.long[1] {
					t.Errorf("dummy %d routes %d→%d, want %d→%d", k, d.From, d.To, tt.long[0], tt.long[1])
				}
			}
			for _, e := range tt.routing {
				if !slices.Contains(l.Edges, e) {
					t.Errorf("routed edges %v missing %v", l.Edges, e)
				}
			}
			if slices.Contains(l.Edges, Edge{tt.long[0], tt.long[1]}) {
				t.Errorf("long edge %v kept unrouted", tt.long)
			}
		})
	}
}

func TestCompute_Ranks(t *testing.T) {
	// 0→1→2 plus 0→2: node 1 and the dummy share layer 1.
	g := buildGraph(t, 4, [2]int{0, 1}, [2]int{1, 2}, [2]int{0, 2}, [2]int{0, 3})
	l := compute(t, g, Options{RowSpacing: 10})

	if p := l.Nodes[1]; p.Rank != 0 || p.Y != 0 {
		t.Errorf("node 1 rank, y = %d, %d, want 0, 0", p.Rank, p.Y)
	}
	if p := l.Nodes[3]; p.Rank != 1 || p.Y != 10 {
		t.Errorf("node 3 rank, y = %d, %d, want 1, 10", p.Rank, p.Y)
	}
	if len(l.Dummies) != 1 {
		t.Fatalf("got %d dummies, want 1", len(l.Dummies))
	}
	if d := l.Dummies[0]; d.Layer != 1 || d.Rank != 2 || d.Y != 20 || d.X != 40 {
		t.Errorf("dummy = %+v, want layer 1 rank 2 at (40,20)", d)
	}
}

func TestCompute_Cycles(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		edges  [][2]int
		back   []Edge
		layers []int
	}{
		{"self loop", 2, [][2]int{{0, 0}, {0, 1}}, []Edge{{0, 0}}, []int{0, 1}},
		{"two cycle", 2, [][2]int{{0, 1}, {1, 0}}, []Edge{{1, 0}}, []int{0, 1}},
		{"triangle", 3, [][2]int{{0, 1}, {1, 2}, {2, 0}}, []Edge{{2, 0}}, []int{0, 1, 2}},
		{"cycle below a source", 4, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 1}}, []Edge{{3, 1}}, []int{0, 1, 2, 3}},
		{"diamond is acyclic", 4, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}}, nil, []int{0, 1, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := compute(t, buildGraph(t, tt.n, tt.edges...), Options{})
			if !slices.Equal(l.BackEdges, tt.back) {
				t.Errorf("BackEdges = %v, want %v", l.BackEdges, tt.back)
			}
			if got := layersOf(l); !slices.Equal(got, tt.layers) {
				t.Errorf("layers = %v, want %v", got, tt.layers)
			}
			for _, e := range tt.back {
				if slices.Contains(l.Edges, e) {
					t.Errorf("back-edge %v was routed", e)
				}
			}
		})
	}
}

func TestCompute_DeepChain(t *testing.T) {
	const n = 200_000
	g := graph.New()
	g.Reserve(n)
	for id := 0; id+1 < n; id++ {
		if err := g.AddEdge(id, id+1); err != nil {
			t.Fatal(err)
		}
	}
	// Close the chain into one big cycle.
	if err := g.AddEdge(n-1, 0); err != nil {
		t.Fatal(err)
	}

	l, err := Compute(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if l.Layers != n || len(l.BackEdges) != 1 {
		t.Errorf("Layers, BackEdges = %d, %v, want %d, 1 edge", l.Layers, l.BackEdges, n)
	}
}

func TestCompute_DoesNotMutate(t *testing.T) {
	edges := [][2]int{{0, 1}, {0, 3}, {1, 2}, {2, 3}, {3, 1}}
	g := buildGraph(t, 4, edges...)
	want := buildGraph(t, 4, edges...)

	compute(t, g, Options{})
	if d := graph.Diff(want, g); d != "" {
		t.Errorf("Compute mutated the graph: %s", d)
	}
}

func TestCompute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compute(ctx, buildGraph(t, 3, [2]int{0, 1}), Options{})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Compute() = %v, want context.Canceled", err)
	}
}

func TestWindow(t *testing.T) {
	// Chain 0→…→5 on layers 0..5, node 6 beside node 2, and 1→4 routed
	// through dummies on layers 2 and 3.
	g := buildGraph(t, 7,
		[2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{3, 4}, [2]int{4, 5},
		[2]int{1, 6}, [2]int{1, 4},
	)
	l := compute(t, g, Options{})

	tests := []struct {
		name    string
		center  int
		radius  int
		nodes   []int
		dummies []int
		edges   int
	}{
		{"radius 0", 2, 0, []int{2, 6}, []int{7}, 0},
		{"radius 1", 2, 1, []int{1, 2, 3, 6}, []int{7, 8}, 5},
		{"radius covers all", 0, 10, []int{0, 1, 2, 3, 4, 5, 6}, []int{7, 8}, 9},
		{"edge of layout", 5, 1, []int{4, 5}, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := l.Window(tt.center, tt.radius)
			if err != nil {
				t.Fatal(err)
			}
			var nodes, dummies []int
			for _, p := range v.Nodes {
				nodes = append(nodes, p.ID)
			}
			for _, d := range v.Dummies {
				dummies = append(dummies, d.ID)
			}
			if !slices.Equal(nodes, tt.nodes) {
				t.Errorf("nodes = %v, want %v", nodes, tt.nodes)
			}
			if !slices.Equal(dummies, tt.dummies) {
				t.Errorf("dummies = %v, want %v", dummies, tt.dummies)
			}
			if len(v.Edges) != tt.edges {
				t.Errorf("got %d edges %v, want %d", len(v.Edges), v.Edges, tt.edges)
			}
			for _, e := range v.Edges {
				if !v.Contains(e.From) || !v.Contains(e.To) {
					t.Errorf("edge %v leaves the window", e)
				}
			}
			cx := l.Nodes[tt.center].X
			for _, p := range v.Nodes {
				if d := p.X - cx; d > WindowUnit*tt.radius || -d > WindowUnit*tt.radius {
					t.Errorf("node %d at x=%d outside window around %d", p.ID, p.X, cx)
				}
			}
		})
	}
}

func TestWindow_HugeRadius(t *testing.T) {
	l := compute(t, buildGraph(t, 3, [2]int{0, 1}, [2]int{1, 2}), Options{})

	for _, radius := range []int{math.MaxInt/WindowUnit + 1, math.MaxInt} {
		v, err := l.Window(1, radius)
		if err != nil {
			t.Fatalf("Window(1, %d) error = %v", radius, err)
		}
		if len(v.Nodes) != 3 || !v.Contains(1) {
			t.Errorf("Window(1, %d) has %d nodes, want all 3", radius, len(v.Nodes))
		}
		if len(v.Edges) != 2 {
			t.Errorf("Window(1, %d) has %d edges, want 2", radius, len(v.Edges))
		}
		if v.MinX > v.MaxX {
			t.Errorf("bounds [%d, %d] are inverted", v.MinX, v.MaxX)
		}
	}
}

func TestWindow_BackEdges(t *testing.T) {
	l := compute(t, buildGraph(t, 3, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 0}), Options{})

	v, _ := l.Window(1, 1)
	if !slices.Equal(v.BackEdges, []Edge{{2, 0}}) {
		t.Errorf("BackEdges = %v, want [{2 0}]", v.BackEdges)
	}
	v, _ = l.Window(2, 0)
	if len(v.BackEdges) != 0 {
		t.Errorf("BackEdges = %v, want none", v.BackEdges)
	}
}

func TestWindow_InvalidInput(t *testing.T) {
	l := compute(t, buildGraph(t, 3, [2]int{0, 1}, [2]int{0, 2}), Options{})

	tests := []struct {
		name   string
		center int
		radius int
	}{
		{"negative radius", 0, -1},
		{"negative center", -1, 1},
		{"unknown center", 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.Window(tt.center, tt.radius); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Window(%d, %d) = %v, want INVALID_INPUT", tt.center, tt.radius, err)
			}
		})
	}
}

func TestWindow_Spacing(t *testing.T) {
	// At half the default spacing one radius unit reaches two layers.
	l := compute(t, buildGraph(t, 5, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{3, 4}),
		Options{LayerSpacing: 20})

	v, err := l.Window(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Nodes) != 5 {
		t.Errorf("got %d nodes, want 5", len(v.Nodes))
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	g := buildGraph(t, 5, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{0, 3}, [2]int{3, 4}, [2]int{4, 1})
	l := compute(t, g, Options{})

	data, err := l.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, l) {
		t.Errorf("round trip differs:\n got %+v\nwant %+v", got, l)
	}

	want, _ := l.Window(1, 1)
	v, err := got.Window(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("Window after round trip = %+v, want %+v", v, want)
	}
}

func TestUnmarshal_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"no layers", `{"nodes":[{"id":0}],"layers":0}`},
		{"bad slot", `{"nodes":[{"id":1}],"layers":1,"layer_spacing":40,"row_spacing":20}`},
		{"long edge", `{"nodes":[{"id":0},{"id":1,"layer":2,"x":80}],"edges":[{"from":0,"to":1}],"layers":3,"layer_spacing":40,"row_spacing":20}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.data)); !errors.Is(err, errors.ErrCodeCacheCorrupt) {
				t.Errorf("Unmarshal() = %v, want CACHE_CORRUPT", err)
			}
		})
	}
}
