// Package render draws positioned node graphs.
//
// # Overview
//
// Unlike a layout engine, this package never decides where a node goes. The
// node locations computed by [arrange] or edited with [brush] are pinned in
// the generated Graphviz source, so the picture shows exactly the layout the
// solver produced:
//
//	dot, err := render.ToDOT(g, render.Options{PortLabels: true})
//	svg, err := render.RenderSVG(ctx, dot)
//	png, err := render.RenderPNG(ctx, dot)
//
// # Coordinates
//
// One layout unit is one Graphviz point. A node's location is its top-left
// corner with y growing upward, which matches Graphviz's own orientation,
// so the pinned center of a node is (x + w/2, y - h/2) in global space.
// Frames are drawn as dashed boxes behind the nodes and carry no edges.
//
// # Formats
//
// SVG and PNG are rendered in-process with [github.com/goccy/go-graphviz].
// PDF goes through the external rsvg-convert tool (from librsvg), see
// [ToPDF]. [Render] dispatches on a [Format].
//
// [arrange]: github.com/matzehuels/noderelax/pkg/arrange
// [brush]: github.com/matzehuels/noderelax/pkg/brush
package render
