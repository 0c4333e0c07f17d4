package nodegraph

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	nrerrors "github.com/matzehuels/noderelax/pkg/errors"
)

func TestAddNode(t *testing.T) {
	g := New()
	if _, err := g.AddNode(Node{Name: "a"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("empty name: got %v, want ErrInvalidName", err)
	}
	if _, err := g.AddNode(Node{Name: "a"}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate: got %v, want ErrDuplicateName", err)
	}
	if g.Node("a") == nil {
		t.Error("Node(a) = nil")
	}
	if g.Node("missing") != nil {
		t.Error("Node(missing) != nil")
	}
}

func TestConnect(t *testing.T) {
	g := New()
	a, _ := g.AddNode(Node{Name: "a"})
	b, _ := g.AddNode(Node{Name: "b"})
	out := g.AddOutput(a, "out")
	in := g.AddInput(b, "in")

	if _, err := g.Connect(in, out); !errors.Is(err, ErrDirection) {
		t.Errorf("reversed: got %v, want ErrDirection", err)
	}

	l, err := g.Connect(out, in)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if l.FromNode() != a || l.ToNode() != b {
		t.Errorf("link endpoints = %s -> %s", l.FromNode().Name, l.ToNode().Name)
	}
	if !out.Connected() || !in.Connected() {
		t.Error("ports should report connected")
	}
	if g.LinkCount() != 1 {
		t.Errorf("LinkCount = %d, want 1", g.LinkCount())
	}

	other := New()
	c, _ := other.AddNode(Node{Name: "c"})
	if _, err := g.Connect(out, other.AddInput(c, "in")); !errors.Is(err, ErrForeignNode) {
		t.Errorf("foreign: got %v, want ErrForeignNode", err)
	}
}

func TestGlobalLocation(t *testing.T) {
	g := New()
	frame, _ := g.AddNode(Node{Name: "frame", Kind: KindFrame, Location: r2.Vec{X: 100, Y: 50}})
	group, _ := g.AddNode(Node{Name: "group", Parent: frame, Location: r2.Vec{X: 10, Y: -5}})
	leaf, _ := g.AddNode(Node{Name: "leaf", Parent: group, Location: r2.Vec{X: 1, Y: 2}})

	got, err := leaf.GlobalLocation()
	if err != nil {
		t.Fatalf("GlobalLocation: %v", err)
	}
	if want := (r2.Vec{X: 111, Y: 47}); got != want {
		t.Errorf("GlobalLocation = %v, want %v", got, want)
	}

	root, _ := frame.GlobalLocation()
	if root != frame.Location {
		t.Errorf("unparented GlobalLocation = %v, want %v", root, frame.Location)
	}
}

func TestGlobalLocationCycle(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *Graph) *Node
	}{
		{"self", func(g *Graph) *Node {
			a, _ := g.AddNode(Node{Name: "a"})
			a.Parent = a
			return a
		}},
		{"pair", func(g *Graph) *Node {
			a, _ := g.AddNode(Node{Name: "a"})
			b, _ := g.AddNode(Node{Name: "b", Parent: a})
			a.Parent = b
			return a
		}},
		{"tail into loop", func(g *Graph) *Node {
			a, _ := g.AddNode(Node{Name: "a"})
			b, _ := g.AddNode(Node{Name: "b"})
			c, _ := g.AddNode(Node{Name: "c"})
			d, _ := g.AddNode(Node{Name: "d", Parent: a})
			a.Parent, b.Parent, c.Parent = b, c, a
			return d
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			n := tt.build(g)
			_, err := n.GlobalLocation()
			if !nrerrors.Is(err, nrerrors.ErrCodeParentCycle) {
				t.Fatalf("GlobalLocation err = %v, want PARENT_CYCLE", err)
			}
			if !errors.Is(err, ErrParentCycle) {
				t.Errorf("err does not wrap ErrParentCycle")
			}
			if err := g.Validate(); !nrerrors.Is(err, nrerrors.ErrCodeParentCycle) {
				t.Errorf("Validate = %v, want PARENT_CYCLE", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	g := New()
	a, _ := g.AddNode(Node{Name: "a"})
	b, _ := g.AddNode(Node{Name: "b", Parent: a})
	g.Connect(g.AddOutput(a, "out"), g.AddInput(b, "in"))
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	stray := &Node{Name: "stray"}
	b.Parent = stray
	if err := g.Validate(); !nrerrors.Is(err, nrerrors.ErrCodeInvalidGraph) {
		t.Errorf("foreign parent: got %v, want INVALID_GRAPH", err)
	}
	b.Parent = a

	a.Outputs[0].Links = append(a.Outputs[0].Links, &Link{From: a.Outputs[0], To: &Port{Node: stray}})
	if err := g.Validate(); !nrerrors.Is(err, nrerrors.ErrCodeInvalidGraph) {
		t.Errorf("dangling link: got %v, want INVALID_GRAPH", err)
	}
}

func TestHasNodeAncestor(t *testing.T) {
	g := New()
	frame, _ := g.AddNode(Node{Name: "frame", Kind: KindFrame})
	inFrame, _ := g.AddNode(Node{Name: "inFrame", Parent: frame})
	nested, _ := g.AddNode(Node{Name: "nested", Parent: inFrame})
	root, _ := g.AddNode(Node{Name: "root"})

	tests := []struct {
		node *Node
		want bool
	}{
		{frame, false},
		{inFrame, false},
		{nested, true},
		{root, false},
	}
	for _, tt := range tests {
		if got := tt.node.HasNodeAncestor(); got != tt.want {
			t.Errorf("%s.HasNodeAncestor() = %v, want %v", tt.node.Name, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"frame":         KindFrame,
		"FRAME":         KindFrame,
		"fRaMe":         KindFrame,
		"NodeFrame":     KindFrame,
		"frames":        KindNode,
		"":              KindNode,
		"ShaderNodeMix": KindNode,
	}
	for tag, want := range tests {
		if got := ParseKind(tag); got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", tag, got, want)
		}
	}
	if KindFrame.String() != "frame" || KindNode.String() != "node" {
		t.Error("Kind.String mismatch")
	}
}

func TestClone(t *testing.T) {
	g := New()
	a, _ := g.AddNode(Node{Name: "a", Location: r2.Vec{X: 1, Y: 2}, Size: r2.Vec{X: 10, Y: 10}})
	b, _ := g.AddNode(Node{Name: "b", Parent: a, Selected: true})
	g.Connect(g.AddOutput(a, "out"), g.AddInput(b, "in"))

	c, err := g.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	ca, cb := c.Node("a"), c.Node("b")
	if ca == a || cb == b {
		t.Fatal("Clone shares nodes")
	}
	if cb.Parent != ca {
		t.Error("cloned parent does not point at cloned node")
	}
	if !cb.Selected || ca.Location != a.Location {
		t.Error("cloned fields differ")
	}
	if c.LinkCount() != 1 || ca.Outputs[0].Links[0].ToNode() != cb {
		t.Error("cloned link does not point at cloned nodes")
	}

	ca.Location = r2.Vec{X: 99}
	if a.Location.X == 99 {
		t.Error("mutating clone changed original")
	}
}

func TestCloneMalformed(t *testing.T) {
	t.Run("duplicate name", func(t *testing.T) {
		g := New()
		g.AddNode(Node{Name: "a"})
		b, _ := g.AddNode(Node{Name: "b"})
		b.Name = "a"
		if c, err := g.Clone(); !errors.Is(err, ErrDuplicateName) || c != nil {
			t.Errorf("Clone() = %v, %v, want ErrDuplicateName", c, err)
		}
	})

	t.Run("foreign parent", func(t *testing.T) {
		g := New()
		b, _ := g.AddNode(Node{Name: "b"})
		b.Parent = &Node{Name: "elsewhere"}
		if _, err := g.Clone(); !nrerrors.Is(err, nrerrors.ErrCodeInvalidGraph) {
			t.Errorf("Clone() error = %v, want INVALID_GRAPH", err)
		}
	})

	t.Run("foreign link endpoint", func(t *testing.T) {
		g := New()
		a, _ := g.AddNode(Node{Name: "a"})
		b, _ := g.AddNode(Node{Name: "b"})
		g.Connect(g.AddOutput(a, "out"), g.AddInput(b, "in"))
		b.Inputs = nil
		if _, err := g.Clone(); !nrerrors.Is(err, nrerrors.ErrCodeInvalidGraph) {
			t.Errorf("Clone() error = %v, want INVALID_GRAPH", err)
		}
	})
}
