package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/layout"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds sequence length, layer and coordinates to node labels.
	// When false, only the node id is shown.
	Detailed bool

	// Graph supplies sequence lengths for detailed labels. Optional.
	Graph *graph.Graph
}

// ToDOT converts a window to Graphviz DOT format. The resulting DOT string
// can be rendered using [RenderSVG].
//
// Layers run left to right and every layer is one rank, so Graphviz keeps
// the layering of the layout. Dummies are drawn as points and back-edges
// as dashed arrows that do not constrain the ranking.
func ToDOT(v *layout.View, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	layers := make(map[int][]int)
	note := func(layer, id int) {
		layers[layer] = append(layers[layer], id)
	}

	for _, p := range v.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(p, opts))}
		if p.ID == v.Center {
			attrs = append(attrs, "fillcolor=\"#ffe9a8\"", "penwidth=2")
		}
		if n, ok := lookup(opts.Graph, p.ID); ok && n.Placeholder {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", p.ID, strings.Join(attrs, ", "))
		note(p.Layer, p.ID)
	}
	for _, d := range v.Dummies {
		fmt.Fprintf(&buf, "  n%d [shape=point, width=0.05, label=\"\", tooltip=\"%d→%d\"];\n", d.ID, d.From, d.To)
		note(d.Layer, d.ID)
	}

	buf.WriteString("\n")
	for _, layer := range slices.Sorted(maps.Keys(layers)) {
		ids := make([]string, len(layers[layer]))
		for i, id := range layers[layer] {
			ids[i] = "n" + strconv.Itoa(id)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
	}

	buf.WriteString("\n")
	for _, e := range v.Edges {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.From, e.To)
	}
	for _, e := range v.BackEdges {
		fmt.Fprintf(&buf, "  n%d -> n%d [style=dashed, constraint=false, color=grey40];\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func lookup(g *graph.Graph, id int) (*graph.Node, bool) {
	if g == nil {
		return nil, false
	}
	return g.Node(id)
}

func fmtLabel(p layout.Placement, opts Options) string {
	id := strconv.Itoa(p.ID)
	if !opts.Detailed {
		return id
	}
	parts := []string{id}
	if n, ok := lookup(opts.Graph, p.ID); ok {
		parts = append(parts, fmt.Sprintf("len: %d", n.Length))
	}
	parts = append(parts, fmt.Sprintf("layer: %d", p.Layer), fmt.Sprintf("at: %d,%d", p.X, p.Y))
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg header with one whose
// width and height match the viewBox, so browsers scale the drawing.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
