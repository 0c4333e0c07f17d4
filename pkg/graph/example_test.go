package graph_test

import (
	"fmt"
	"os"

	"github.com/matzehuels/noderelax/pkg/graph"
)

func ExampleWrite() {
	doc := graph.Document{
		Nodes: []graph.Node{
			{Name: "Texture", Width: 140, Height: 120, Outputs: []string{"Color"}},
			{Name: "Mix", X: 300, Width: 140, Height: 100, Inputs: []string{"A"}},
		},
		Links: []graph.Link{{From: graph.Endpoint("Texture", "Color"), To: "Mix.A"}},
	}

	if err := graph.Write(os.Stdout, doc, graph.FormatYAML); err != nil {
		fmt.Println("Error:", err)
	}
	// Output:
	// nodes:
	//   - name: Texture
	//     x: 0
	//     "y": 0
	//     width: 140
	//     height: 120
	//     outputs:
	//       - Color
	//   - name: Mix
	//     x: 300
	//     "y": 0
	//     width: 140
	//     height: 100
	//     inputs:
	//       - A
	// links:
	//   - from: Texture.Color
	//     to: Mix.A
}
