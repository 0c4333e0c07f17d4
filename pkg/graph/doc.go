// Package graph provides the document format for node graphs.
//
// # Overview
//
// A [Document] is the serialized form of a
// [github.com/matzehuels/noderelax/pkg/nodegraph.Graph]: a list of nodes with
// their geometry and port names, and a list of links between "node.port"
// endpoints. Documents are what the CLI reads and writes and what the HTTP
// API accepts.
//
// # Formats
//
// Documents are read and written as JSON or YAML. [FormatFromPath] picks the
// format from a file extension (".yaml" and ".yml" select YAML, everything
// else JSON).
//
//	{
//	  "nodes": [
//	    {"name": "Texture", "x": 0, "y": 0, "width": 140, "height": 120, "outputs": ["Color"]},
//	    {"name": "Mix", "x": 300, "y": 0, "width": 140, "height": 100, "inputs": ["A", "B"]}
//	  ],
//	  "links": [{"from": "Texture.Color", "to": "Mix.A"}]
//	}
//
// # Conversion
//
// [ToNodeGraph] validates a document and builds the in-memory graph:
// names must be unique and may not contain '.', parents and link endpoints
// must exist and parent chains may not loop. [FromNodeGraph] goes the other
// way and preserves node order, so a read, arrange and write round trip only
// changes coordinates.
package graph
