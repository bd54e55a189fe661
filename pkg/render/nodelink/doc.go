// Package nodelink renders layout windows as node-link diagrams.
//
// # Usage
//
// Convert a window to DOT format, then render to SVG:
//
//	view, err := l.Window(center, radius)
//	dot := nodelink.ToDOT(view, nodelink.Options{Graph: h.Graph})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// [ToDOT] produces Graphviz DOT source that can be rendered directly via
// [RenderSVG], or saved and processed with external Graphviz tools. Layers
// become ranks laid out left to right, matching the x axis of the layout.
// The center node is highlighted, placeholder nodes are dashed, dummies are
// points and back-edges are dashed grey arrows.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
