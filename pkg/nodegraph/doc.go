// Package nodegraph provides the in-memory model of a node editor graph:
// sized rectangular nodes with ordered input and output ports connected by
// directed links.
//
// # Overview
//
// The layout engine in [github.com/matzehuels/noderelax/pkg/relax] reads this
// model and writes exactly one field of it: [Node.Location]. Everything else
// (sizes, parents, kinds, ports and links) is owned by whoever built the
// graph and is treated as read-only by the solver.
//
// # Coordinates
//
// A node's Location is its top-left corner, expressed in its parent's frame.
// The box extends to the right by Size.X and downward by Size.Y, so it spans
// the vertical range [Location.Y-Size.Y, Location.Y]. Nested nodes resolve
// their root-frame position by summing locations up the parent chain; see
// [Node.GlobalLocation].
//
// # Frames
//
// Nodes of kind [KindFrame] are grouping containers. They are skipped by all
// force computations and are never moved, but children parented to a frame
// still inherit its offset.
//
// # Basic Usage
//
//	g := nodegraph.New()
//	tex, _ := g.AddNode(nodegraph.Node{Name: "Texture", Size: r2.Vec{X: 140, Y: 120}})
//	mix, _ := g.AddNode(nodegraph.Node{Name: "Mix", Location: r2.Vec{X: 300}, Size: r2.Vec{X: 140, Y: 100}})
//	g.Connect(g.AddOutput(tex, "Color"), g.AddInput(mix, "A"))
//
// Use [Graph.Validate] before handing a graph built from untrusted input to
// the solver. It rejects parent cycles, dangling parents and links whose
// endpoints do not belong to the graph.
//
// # Concurrency
//
// A Graph is not safe for concurrent use. The solver assumes a single writer
// for the duration of a sweep.
package nodegraph
