// Package render groups the output formats for layout windows.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage turns a [layout.View] into Graphviz DOT source
// and renders it to SVG in-process. Layers become ranks, dummies become
// points and back-edges are drawn dashed.
//
//	view, err := l.Window(center, radius)
//	dot := nodelink.ToDOT(view, nodelink.Options{Graph: g})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The JSON form of a window needs no renderer; [layout.View] marshals
// directly.
//
// [nodelink]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/render/nodelink
// [layout.View]: https://pkg.go.dev/github.com/matzehuels/pangraph/pkg/layout#View
package render
