// Package pkg provides the core libraries for Noderelax node graph layout.
//
// # Overview
//
// Noderelax tidies node graphs such as shader trees or compositor graphs:
// boxes with input ports on the left, output ports on the right and links
// flowing left to right. Linked nodes are pulled into line and overlapping
// nodes are pushed apart, either all at once by a batch solver or locally
// under an interactive brush. The pkg directory is organized into four
// main areas:
//
//  1. [nodegraph] - The in-memory graph the solvers mutate
//  2. [relax], [arrange], [brush] - Layout forces, the batch solver and the brush
//  3. [graph], [render] - Document serialization and Graphviz rendering
//  4. [pipeline], [cache] - Orchestration (read → arrange → render) with caching
//
// # Architecture
//
// The typical data flow through Noderelax:
//
//	JSON/YAML document
//	         ↓
//	    [graph] package (decode, validate, build a nodegraph)
//	         ↓
//	    [arrange] package (four-phase solver built on [relax])
//	         ↓
//	    [render] package (DOT, SVG, PNG, PDF)
//
// # Quick Start
//
// Arrange a document in place:
//
//	g, _ := graph.ReadGraphFile("shader.json")
//	task, _ := arrange.New(g, arrange.DefaultConfig())
//	_ = task.Run(ctx, nil)
//	_ = graph.WriteGraphFile("shader.json", g)
//
// Or let the pipeline cache the result and render it:
//
//	runner := pipeline.NewRunner(fileCache, nil, logger)
//	result, _ := runner.Execute(ctx, doc, pipeline.DefaultOptions(), nil)
//	svg := result.Artifacts["svg"]
//
// # Main Packages
//
// [nodegraph] - Nodes, ports, links and frames. Locations are relative to
// the parent node; [nodegraph.Node.GlobalLocation] resolves them and
// reports parent cycles.
//
// [relax] - The per-node evaluators: brush relax, arrange relax and
// vertical collision, plus the collision and port geometry they share.
//
// [arrange] - A resumable batch solver. [arrange.Task.Resume] advances a few
// iterations at a time so hosts can show progress or cancel between calls.
//
// [brush] - An input-driven controller that relaxes or drags nodes under
// the cursor, one sweep per input event.
//
// [graph] - The document format (JSON or YAML) and its conversion to and
// from [nodegraph].
//
// [render] - Graphviz rendering with pinned node positions.
//
// [pipeline] - Arrange and render with caching, used by the CLI and the
// HTTP server so both behave the same way.
//
// [cache] - File, Redis and null caches behind one interface.
//
// [observability] - Hooks for metrics around arranging, rendering, caching
// and HTTP.
//
// [errors] - Structured error codes shared by all packages.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/arrange/...            # Specific package
//	go test -run Example ./pkg/...       # Examples only
//	go test -short ./pkg/...             # Skip Graphviz renders
//
// [nodegraph]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/nodegraph
// [relax]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/relax
// [arrange]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/arrange
// [brush]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/brush
// [graph]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/graph
// [render]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/errors
// [nodegraph.Node.GlobalLocation]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/nodegraph#Node.GlobalLocation
// [arrange.Task.Resume]: https://pkg.go.dev/github.com/matzehuels/noderelax/pkg/arrange#Task.Resume
package pkg
