package brush

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	nrerrors "github.com/matzehuels/noderelax/pkg/errors"
	"github.com/matzehuels/noderelax/pkg/nodegraph"
)

var box = r2.Vec{X: 100, Y: 50}

func twoNodes(t *testing.T) (*nodegraph.Graph, *nodegraph.Node, *nodegraph.Node) {
	t.Helper()
	g := nodegraph.New()
	a, err := g.AddNode(nodegraph.Node{Name: "a", Size: box})
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.AddNode(nodegraph.Node{Name: "b", Location: r2.Vec{X: 300}, Size: box})
	if err != nil {
		t.Fatal(err)
	}
	return g, a, b
}

func TestInfluence(t *testing.T) {
	tests := []struct {
		name   string
		cursor r2.Vec
		radius float64
		want   float64
	}{
		{"inside", r2.Vec{X: 50, Y: -25}, 100, 1},
		{"on the edge", r2.Vec{X: 100, Y: -10}, 100, 1},
		{"half radius right", r2.Vec{X: 150, Y: -25}, 100, 0.75},
		{"half radius above", r2.Vec{X: 20, Y: 50}, 100, 0.75},
		{"at the rim", r2.Vec{X: -100, Y: -25}, 100, 0},
		{"corner", r2.Vec{X: 130, Y: 40}, 100, 0.75},
		{"outside", r2.Vec{X: 400, Y: -25}, 100, -8},
		{"zero radius", r2.Vec{X: 50, Y: -25}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Influence(tt.cursor, tt.radius, r2.Vec{}, box)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Influence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNearest(t *testing.T) {
	g, a, b := twoNodes(t)
	if _, err := g.AddNode(nodegraph.Node{Name: "frame", Kind: nodegraph.KindFrame, Location: r2.Vec{X: 290, Y: 10}, Size: box}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		cursor r2.Vec
		want   *nodegraph.Node
	}{
		{r2.Vec{X: 0, Y: 0}, a},
		{r2.Vec{X: 340, Y: -20}, b},
		{r2.Vec{X: 200, Y: -25}, a}, // equidistant: first wins
	}
	for _, tt := range tests {
		got, err := Nearest(g.Nodes, tt.cursor)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Nearest(%v) = %v, want %v", tt.cursor, got.Name, tt.want.Name)
		}
	}

	if n, _ := Nearest(nil, r2.Vec{}); n != nil {
		t.Error("Nearest of no nodes should be nil")
	}
}

func TestBrushSlidesNodesUnderCursor(t *testing.T) {
	g, a, b := twoNodes(t)
	c := NewController(Settings{BrushSize: 100, SlidePower: 0.5})
	c.Begin(r2.Vec{X: 50, Y: -25}, 100)

	// Motion without the trigger does nothing.
	if err := c.Tick(g, Input{Cursor: r2.Vec{X: 60, Y: -25}, Radius: 100}); err != nil {
		t.Fatal(err)
	}
	if a.Location != (r2.Vec{}) {
		t.Fatalf("a moved without trigger: %v", a.Location)
	}

	// Pressing sweeps without slide.
	if err := c.Tick(g, Input{Cursor: r2.Vec{X: 60, Y: -25}, Radius: 100, Trigger: true}); err != nil {
		t.Fatal(err)
	}
	if a.Location != (r2.Vec{}) || c.Slide() != (r2.Vec{}) {
		t.Fatalf("press produced slide %v, a at %v", c.Slide(), a.Location)
	}

	// Dragging the brush slides a at half power; b is outside the brush.
	if err := c.Tick(g, Input{Cursor: r2.Vec{X: 100, Y: -25}, Radius: 100, Trigger: true}); err != nil {
		t.Fatal(err)
	}
	if want := (r2.Vec{X: 20}); a.Location != want {
		t.Errorf("a.Location = %v, want %v", a.Location, want)
	}
	if b.Location != (r2.Vec{X: 300}) {
		t.Errorf("b moved to %v", b.Location)
	}

	// Releasing stops the brush.
	c.Tick(g, Input{Cursor: r2.Vec{X: 100, Y: -25}, Radius: 100})
	c.Tick(g, Input{Cursor: r2.Vec{X: 140, Y: -25}, Radius: 100})
	if want := (r2.Vec{X: 20}); a.Location != want {
		t.Errorf("a moved after release: %v", a.Location)
	}
}

func TestBrushSkipsFrames(t *testing.T) {
	g := nodegraph.New()
	frame, _ := g.AddNode(nodegraph.Node{Name: "frame", Kind: nodegraph.KindFrame, Size: box})
	c := NewController(Settings{BrushSize: 100, SlidePower: 1})
	c.Begin(r2.Vec{X: 50, Y: -25}, 100)
	c.Tick(g, Input{Cursor: r2.Vec{X: 50, Y: -25}, Radius: 100, Trigger: true})
	c.Tick(g, Input{Cursor: r2.Vec{X: 90, Y: -25}, Radius: 100, Trigger: true})
	if frame.Location != (r2.Vec{}) {
		t.Errorf("frame moved to %v", frame.Location)
	}
}

func TestDragMode(t *testing.T) {
	g, a, b := twoNodes(t)
	c := NewController(DefaultSettings())
	c.Begin(r2.Vec{X: 60, Y: -20}, 100)

	steps := []Input{
		{Cursor: r2.Vec{X: 60, Y: -20}, Radius: 100, Modifier: true},                // enter drag mode
		{Cursor: r2.Vec{X: 60, Y: -20}, Radius: 100, Modifier: true, Trigger: true}, // grab
		{Cursor: r2.Vec{X: 90, Y: -10}, Radius: 100, Modifier: true, Trigger: true}, // move
	}
	for _, in := range steps {
		if err := c.Tick(g, in); err != nil {
			t.Fatal(err)
		}
	}
	if !c.DragMode() || !c.Dragging() || c.DraggingNode != a {
		t.Fatalf("dragMode=%v dragging=%v node=%v", c.DragMode(), c.Dragging(), c.DraggingNode)
	}
	if want := (r2.Vec{X: 30, Y: 10}); a.Location != want {
		t.Errorf("a.Location = %v, want %v", a.Location, want)
	}

	// Release, then hover over b: b becomes the candidate and nothing moves.
	c.Tick(g, Input{Cursor: r2.Vec{X: 90, Y: -10}, Radius: 100, Modifier: true})
	c.Tick(g, Input{Cursor: r2.Vec{X: 340, Y: -20}, Radius: 100, Modifier: true})
	if c.Dragging() || c.DraggingNode != b {
		t.Errorf("after release: dragging=%v node=%v", c.Dragging(), c.DraggingNode)
	}
	if a.Location != (r2.Vec{X: 30, Y: 10}) || b.Location != (r2.Vec{X: 300}) {
		t.Errorf("nodes moved while hovering: a=%v b=%v", a.Location, b.Location)
	}

	// Leaving drag mode stops any drag.
	c.Tick(g, Input{Cursor: r2.Vec{X: 340, Y: -20}, Radius: 100, Trigger: true})
	if c.DragMode() || c.Dragging() {
		t.Error("controller should be back in brush mode")
	}
}

func TestModifierEventMovesCursor(t *testing.T) {
	g, a, b := twoNodes(t)
	c := NewController(DefaultSettings())
	c.Begin(r2.Vec{X: 60, Y: -20}, 100)

	// A key event carrying a new pointer position: the cursor follows it
	// without sliding anything.
	if err := c.Tick(g, Input{Cursor: r2.Vec{X: 200, Y: -20}, Radius: 100, Modifier: true}); err != nil {
		t.Fatal(err)
	}
	if got := c.Cursor(); got != (r2.Vec{X: 200, Y: -20}) {
		t.Errorf("Cursor() = %v, want (200, -20)", got)
	}
	if c.Slide() != (r2.Vec{}) {
		t.Errorf("Slide() = %v after a modifier change, want zero", c.Slide())
	}
	c.Tick(g, Input{Cursor: r2.Vec{X: 200, Y: -20}, Radius: 100})

	// The next motion measures its slide from the modifier event's cursor.
	c.Tick(g, Input{Cursor: r2.Vec{X: 210, Y: -20}, Radius: 100})
	if want := (r2.Vec{X: 10}); c.Slide() != want {
		t.Errorf("Slide() = %v, want %v", c.Slide(), want)
	}
	if a.Location != (r2.Vec{}) || b.Location != (r2.Vec{X: 300}) {
		t.Errorf("nodes moved without a trigger: a=%v b=%v", a.Location, b.Location)
	}
}

func TestBrushSize(t *testing.T) {
	c := NewController(Settings{BrushSize: 995})
	c.Grow()
	if c.Settings.BrushSize != MaxBrushSize {
		t.Errorf("Grow past max = %v", c.Settings.BrushSize)
	}
	c.Settings.BrushSize = 15
	c.Shrink()
	if c.Settings.BrushSize != MinBrushSize {
		t.Errorf("Shrink past min = %v", c.Settings.BrushSize)
	}
	c.Grow()
	if c.Settings.BrushSize != 20 {
		t.Errorf("Grow = %v, want 20", c.Settings.BrushSize)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"brush too small", func(s *Settings) { s.BrushSize = 5 }, true},
		{"relax power above one", func(s *Settings) { s.RelaxPower = 1.5 }, true},
		{"negative slide", func(s *Settings) { s.SlidePower = -0.1 }, true},
		{"nan collision", func(s *Settings) { s.CollisionPower = math.NaN() }, true},
		{"infinite distance", func(s *Settings) { s.Distance = math.Inf(1) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !nrerrors.Is(err, nrerrors.ErrCodeInvalidConfig) {
				t.Errorf("code = %v", nrerrors.GetCode(err))
			}
		})
	}
}

func TestTickReportsParentCycle(t *testing.T) {
	g, a, b := twoNodes(t)
	a.Parent, b.Parent = b, a
	c := NewController(DefaultSettings())
	err := c.Tick(g, Input{Cursor: r2.Vec{}, Radius: 100, Modifier: true})
	if !nrerrors.Is(err, nrerrors.ErrCodeParentCycle) {
		t.Errorf("Tick = %v, want PARENT_CYCLE", err)
	}
}
