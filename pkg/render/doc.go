// Package render draws the visible part of a mind map with Graphviz.
//
// [ToDOT] turns a [mindmap.View] into DOT source: hidden nodes and edges are
// left out, node colors come from each node's style, and the graph is laid
// out top-down as a hierarchy by default. [Render] runs the DOT through the
// embedded Graphviz and returns SVG or PNG bytes.
//
//	dot := render.ToDOT(g.View(), render.Options{})
//	svg, err := render.Render(ctx, dot, render.FormatSVG)
//
// The DOT text is deterministic for a given view, so its hash is a stable
// cache key for the rendered artifact.
package render
