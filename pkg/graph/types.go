package graph

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/noderelax/pkg/errors"
	"github.com/matzehuels/noderelax/pkg/nodegraph"
)

// =============================================================================
// Formats
// =============================================================================

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath returns the format implied by a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown document format %q", s)
}

// =============================================================================
// Document
// =============================================================================

// KindFrame is the document tag for frame nodes.
const KindFrame = "frame"

// Document is the serialized form of a node graph.
type Document struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Links []Link `json:"links,omitempty" yaml:"links,omitempty"`
}

// Node is one node of a document. X and Y are the top-left corner in the
// parent's frame; the box extends downward by Height.
type Node struct {
	Name     string   `json:"name" yaml:"name"`
	Kind     string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	X        float64  `json:"x" yaml:"x"`
	Y        float64  `json:"y" yaml:"y"`
	Width    float64  `json:"width" yaml:"width"`
	Height   float64  `json:"height" yaml:"height"`
	Parent   string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Selected bool     `json:"selected,omitempty" yaml:"selected,omitempty"`
	Inputs   []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs  []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Link connects an output port to an input port, both written "node.port".
type Link struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Endpoint joins a node and port name into a link endpoint.
func Endpoint(node, port string) string { return node + "." + port }

// splitEndpoint splits "node.port". Names cannot contain '.', so the first
// separator is the only one.
func splitEndpoint(s string) (node, port string, ok bool) {
	node, port, ok = strings.Cut(s, ".")
	return node, port, ok && node != "" && port != ""
}

// =============================================================================
// Conversion
// =============================================================================

// ToNodeGraph validates doc and builds the graph it describes.
// Errors carry the INVALID_GRAPH or PARENT_CYCLE code.
func ToNodeGraph(doc Document) (*nodegraph.Graph, error) {
	g := nodegraph.New()

	for i, dn := range doc.Nodes {
		if err := validateNode(dn); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %d", i)
		}
		n, err := g.AddNode(nodegraph.Node{
			Name:     dn.Name,
			Location: r2.Vec{X: dn.X, Y: dn.Y},
			Size:     r2.Vec{X: dn.Width, Y: dn.Height},
			Kind:     nodegraph.ParseKind(dn.Kind),
			Selected: dn.Selected,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %d", i)
		}
		for _, name := range dn.Inputs {
			g.AddInput(n, name)
		}
		for _, name := range dn.Outputs {
			g.AddOutput(n, name)
		}
	}

	for _, dn := range doc.Nodes {
		if dn.Parent == "" {
			continue
		}
		parent := g.Node(dn.Parent)
		if parent == nil {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "node %q: unknown parent %q", dn.Name, dn.Parent)
		}
		if err := g.SetParent(g.Node(dn.Name), parent); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %q", dn.Name)
		}
	}

	for i, dl := range doc.Links {
		from, err := findPort(g, dl.From, nodegraph.Output)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "link %d", i)
		}
		to, err := findPort(g, dl.To, nodegraph.Input)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "link %d", i)
		}
		if _, err := g.Connect(from, to); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "link %d", i)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromNodeGraph serializes g, keeping node and link order.
func FromNodeGraph(g *nodegraph.Graph) Document {
	doc := Document{Nodes: make([]Node, 0, len(g.Nodes))}
	for _, n := range g.Nodes {
		dn := Node{
			Name:     n.Name,
			X:        n.Location.X,
			Y:        n.Location.Y,
			Width:    n.Size.X,
			Height:   n.Size.Y,
			Selected: n.Selected,
		}
		if n.IsFrame() {
			dn.Kind = KindFrame
		}
		if n.Parent != nil {
			dn.Parent = n.Parent.Name
		}
		for _, p := range n.Inputs {
			dn.Inputs = append(dn.Inputs, p.Name)
		}
		for _, p := range n.Outputs {
			dn.Outputs = append(dn.Outputs, p.Name)
		}
		doc.Nodes = append(doc.Nodes, dn)
	}
	for _, l := range g.Links() {
		doc.Links = append(doc.Links, Link{
			From: Endpoint(l.FromNode().Name, l.From.Name),
			To:   Endpoint(l.ToNode().Name, l.To.Name),
		})
	}
	return doc
}

func validateNode(n Node) error {
	if err := errors.ValidateNodeName(n.Name); err != nil {
		return err
	}
	if err := errors.ValidateSize(n.Name, n.Width, n.Height); err != nil {
		return err
	}
	if err := errors.ValidateFinite(n.Name, n.X, n.Y); err != nil {
		return err
	}
	for _, ports := range [][]string{n.Inputs, n.Outputs} {
		seen := make(map[string]bool, len(ports))
		for _, p := range ports {
			if err := errors.ValidateNodeName(p); err != nil {
				return fmt.Errorf("node %q: port: %w", n.Name, err)
			}
			if seen[p] {
				return fmt.Errorf("node %q: duplicate port %q", n.Name, p)
			}
			seen[p] = true
		}
	}
	return nil
}

func findPort(g *nodegraph.Graph, endpoint string, dir nodegraph.Direction) (*nodegraph.Port, error) {
	nodeName, portName, ok := splitEndpoint(endpoint)
	if !ok {
		return nil, fmt.Errorf("malformed endpoint %q (want node.port)", endpoint)
	}
	n := g.Node(nodeName)
	if n == nil {
		return nil, fmt.Errorf("unknown node %q", nodeName)
	}
	ports := n.Inputs
	if dir == nodegraph.Output {
		ports = n.Outputs
	}
	for _, p := range ports {
		if p.Name == portName {
			return p, nil
		}
	}
	return nil, fmt.Errorf("node %q has no such port %q", nodeName, portName)
}
