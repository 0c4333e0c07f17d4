package nodegraph

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	nrerrors "github.com/matzehuels/noderelax/pkg/errors"
)

var (
	// ErrInvalidName is returned by [Graph.AddNode] when the node name is empty.
	ErrInvalidName = errors.New("node name must not be empty")

	// ErrDuplicateName is returned by [Graph.AddNode] when a node with the same
	// name already exists in the graph.
	ErrDuplicateName = errors.New("duplicate node name")

	// ErrDirection is returned by [Graph.Connect] when the source is not an
	// output port or the destination is not an input port.
	ErrDirection = errors.New("links must run from an output to an input")

	// ErrForeignNode is returned when an operation references a node that was
	// not added to this graph.
	ErrForeignNode = errors.New("node does not belong to graph")

	// ErrParentCycle is returned when a node's parent chain loops back on
	// itself. It is wrapped in a PARENT_CYCLE coded error.
	ErrParentCycle = errors.New("parent chain contains a cycle")
)

// Kind distinguishes ordinary nodes from frame containers.
type Kind int

const (
	// KindNode is an ordinary node that takes part in layout.
	KindNode Kind = iota
	// KindFrame is a grouping container. Frames never move and exert no forces.
	KindFrame
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k == KindFrame {
		return "frame"
	}
	return "node"
}

// ParseKind maps a host type tag to a Kind. "frame" in any case, and the
// "NodeFrame" type name, denote a frame; every other tag is an ordinary node.
func ParseKind(tag string) Kind {
	if strings.EqualFold(tag, "frame") || tag == "NodeFrame" {
		return KindFrame
	}
	return KindNode
}

// Direction tells whether a port receives or emits links.
type Direction int

const (
	Input Direction = iota
	Output
)

// Node is a sized rectangle in the editor.
//
// The zero value is usable as a template for [Graph.AddNode]; ports are
// attached afterwards with [Graph.AddInput] and [Graph.AddOutput].
type Node struct {
	Name     string
	Location r2.Vec // top-left corner, local to Parent
	Size     r2.Vec // width, height (box extends downward)
	Parent   *Node
	Kind     Kind
	Selected bool

	Inputs  []*Port
	Outputs []*Port

	graph *Graph
}

// IsFrame reports whether the node is a frame container.
func (n *Node) IsFrame() bool { return n.Kind == KindFrame }

// GlobalLocation returns the node's location in the root frame: its own
// location plus the global location of its parent, if any. The walk is
// iterative and reports a PARENT_CYCLE error if the chain loops.
func (n *Node) GlobalLocation() (r2.Vec, error) {
	var pos r2.Vec
	slow, fast := n, n
	for cur := n; cur != nil; cur = cur.Parent {
		pos = r2.Add(pos, cur.Location)

		// Floyd: fast advances two links for every one of slow.
		if fast != nil && fast.Parent != nil {
			fast = fast.Parent.Parent
			slow = slow.Parent
			if fast != nil && fast == slow {
				return r2.Vec{}, nrerrors.Wrap(nrerrors.ErrCodeParentCycle, ErrParentCycle, "node %q", n.Name)
			}
		}
	}
	return pos, nil
}

// HasNodeAncestor reports whether any ancestor of n is an ordinary node.
// Children of ordinary nodes move with their parent, which matters when a
// whole layout is translated.
func (n *Node) HasNodeAncestor() bool {
	seen := 0
	for p := n.Parent; p != nil; p = p.Parent {
		if !p.IsFrame() {
			return true
		}
		seen++
		if n.graph != nil && seen > len(n.graph.Nodes) {
			return false
		}
	}
	return false
}

// Port is a named input or output socket on a node.
type Port struct {
	Name      string
	Node      *Node
	Direction Direction
	Links     []*Link
}

// Connected reports whether the port has at least one link.
func (p *Port) Connected() bool { return len(p.Links) > 0 }

// Link is a directed edge from an output port to an input port.
type Link struct {
	From *Port // output
	To   *Port // input
}

// FromNode returns the node owning the source port.
func (l *Link) FromNode() *Node { return l.From.Node }

// ToNode returns the node owning the destination port.
func (l *Link) ToNode() *Node { return l.To.Node }

// Graph is an ordered collection of nodes. Iteration order is insertion
// order and is stable, which keeps sweeps reproducible.
//
// The zero value is not usable - use [New].
type Graph struct {
	Nodes []*Node

	byName map[string]*Node
	links  []*Link
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{byName: make(map[string]*Node)}
}

// AddNode copies n into the graph and returns the stored node. Ports on the
// template are ignored; add them with [Graph.AddInput] and [Graph.AddOutput].
func (g *Graph) AddNode(n Node) (*Node, error) {
	if n.Name == "" {
		return nil, ErrInvalidName
	}
	if _, ok := g.byName[n.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, n.Name)
	}
	stored := &Node{
		Name:     n.Name,
		Location: n.Location,
		Size:     n.Size,
		Parent:   n.Parent,
		Kind:     n.Kind,
		Selected: n.Selected,
		graph:    g,
	}
	g.Nodes = append(g.Nodes, stored)
	g.byName[n.Name] = stored
	return stored, nil
}

// Node returns the node with the given name, or nil.
func (g *Graph) Node(name string) *Node {
	return g.byName[name]
}

// AddInput appends an input port to n.
func (g *Graph) AddInput(n *Node, name string) *Port {
	p := &Port{Name: name, Node: n, Direction: Input}
	n.Inputs = append(n.Inputs, p)
	return p
}

// AddOutput appends an output port to n.
func (g *Graph) AddOutput(n *Node, name string) *Port {
	p := &Port{Name: name, Node: n, Direction: Output}
	n.Outputs = append(n.Outputs, p)
	return p
}

// Connect links an output port to an input port. Both ports must belong to
// nodes of this graph.
func (g *Graph) Connect(from, to *Port) (*Link, error) {
	if from == nil || to == nil || from.Direction != Output || to.Direction != Input {
		return nil, ErrDirection
	}
	if from.Node == nil || from.Node.graph != g || to.Node == nil || to.Node.graph != g {
		return nil, ErrForeignNode
	}
	l := &Link{From: from, To: to}
	from.Links = append(from.Links, l)
	to.Links = append(to.Links, l)
	g.links = append(g.links, l)
	return l, nil
}

// SetParent parents child to parent. A nil parent detaches the child.
// Cycles are not rejected here; [Graph.Validate] reports them.
func (g *Graph) SetParent(child, parent *Node) error {
	if child.graph != g || (parent != nil && parent.graph != g) {
		return ErrForeignNode
	}
	child.Parent = parent
	return nil
}

// Links returns all links in creation order.
func (g *Graph) Links() []*Link {
	return g.links
}

// LinkCount returns the number of links in the graph.
func (g *Graph) LinkCount() int { return len(g.links) }

// Validate checks the structural integrity of the graph:
//   - every parent belongs to the graph
//   - no parent chain loops
//   - every port points back at its owning node
//   - every link endpoint belongs to the graph
//
// Errors carry the INVALID_GRAPH or PARENT_CYCLE code.
func (g *Graph) Validate() error {
	for _, n := range g.Nodes {
		if n.Parent != nil && n.Parent.graph != g {
			return nrerrors.Wrap(nrerrors.ErrCodeInvalidGraph, ErrForeignNode, "node %q: parent %q", n.Name, n.Parent.Name)
		}
		if _, err := n.GlobalLocation(); err != nil {
			return err
		}
		for _, ports := range [][]*Port{n.Inputs, n.Outputs} {
			for _, p := range ports {
				if p.Node != n {
					return nrerrors.New(nrerrors.ErrCodeInvalidGraph, "node %q: port %q has wrong owner", n.Name, p.Name)
				}
				for _, l := range p.Links {
					if l.From == nil || l.To == nil || l.From.Node == nil || l.To.Node == nil ||
						l.From.Node.graph != g || l.To.Node.graph != g {
						return nrerrors.Wrap(nrerrors.ErrCodeInvalidGraph, ErrForeignNode, "node %q: dangling link on port %q", n.Name, p.Name)
					}
				}
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the graph. Parent, port and link references
// in the copy point at copied objects. It fails when g is malformed: node
// names that are empty or repeated, or links whose ports belong to no node
// of g.
func (g *Graph) Clone() (*Graph, error) {
	c := New()
	mapping := make(map[*Node]*Node, len(g.Nodes))
	ports := make(map[*Port]*Port)
	for _, n := range g.Nodes {
		cn, err := c.AddNode(Node{Name: n.Name, Location: n.Location, Size: n.Size, Kind: n.Kind, Selected: n.Selected})
		if err != nil {
			return nil, err
		}
		mapping[n] = cn
		for _, p := range n.Inputs {
			ports[p] = c.AddInput(cn, p.Name)
		}
		for _, p := range n.Outputs {
			ports[p] = c.AddOutput(cn, p.Name)
		}
	}
	for _, n := range g.Nodes {
		if n.Parent == nil {
			continue
		}
		parent, ok := mapping[n.Parent]
		if !ok {
			return nil, nrerrors.New(nrerrors.ErrCodeInvalidGraph, "node %q: parent is not in the graph", n.Name)
		}
		mapping[n].Parent = parent
	}
	for i, l := range g.links {
		from, to := ports[l.From], ports[l.To]
		if from == nil || to == nil {
			return nil, nrerrors.New(nrerrors.ErrCodeInvalidGraph, "link %d: endpoint is not in the graph", i)
		}
		if _, err := c.Connect(from, to); err != nil {
			return nil, err
		}
	}
	return c, nil
}
