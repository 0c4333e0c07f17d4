// Package brush turns pointer input into layout edits.
//
// A [Controller] has two modes. In brush mode, holding the trigger relaxes
// every node under a circular brush: each node gets an influence that falls
// off smoothly with its distance from the cursor (see [Influence]) and the
// cursor motion is fed in as a slide vector. In drag mode, entered while the
// modifier is held, the node nearest to the cursor is picked and moved
// rigidly with the cursor while the trigger is held.
//
// Hosts call [Controller.Tick] once per input event with the cursor and
// brush radius already converted to world units. Each tick performs at most
// one sweep and never blocks.
package brush

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/noderelax/pkg/nodegraph"
	"github.com/matzehuels/noderelax/pkg/relax"
)

// Input is the pointer state of one input event, in world units.
type Input struct {
	Cursor   r2.Vec
	Radius   float64
	Trigger  bool // primary button held
	Modifier bool // drag modifier held
}

// Controller tracks pointer state across input events.
//
// The zero value is not usable - use [NewController].
type Controller struct {
	Settings Settings

	// DraggingNode is the node picked in drag mode, or nil.
	DraggingNode *nodegraph.Node

	cursor   r2.Vec
	prev     r2.Vec
	radius   float64
	slide    r2.Vec
	trigger  bool
	dragMode bool
	dragging bool
}

// NewController returns a controller in brush mode.
func NewController(s Settings) *Controller {
	return &Controller{Settings: s}
}

// Begin places the cursor without moving anything. Hosts call it when the
// tool is activated so the first motion does not produce a jump.
func (c *Controller) Begin(cursor r2.Vec, radius float64) {
	c.cursor, c.prev = cursor, cursor
	c.radius = radius
	c.slide = r2.Vec{}
}

// Tick applies one input event to g.
//
// A change of the modifier toggles drag mode, stops any drag and re-picks
// the nearest node to in.Cursor. Every event, including a modifier-only
// one, moves the stored cursor to in.Cursor; hosts that report key events
// should pass the last pointer position rather than a synthetic value.
// The next press or motion measures its slide from there. Pressing the trigger starts a drag in drag mode, or
// sweeps once without slide in brush mode. Releasing it stops the drag.
// Any other event counts as motion: the cursor delta becomes the slide
// vector, the picked node follows it while dragging, and in brush mode with
// the trigger held every node under the brush is relaxed.
func (c *Controller) Tick(g *nodegraph.Graph, in Input) error {
	c.prev, c.cursor = c.cursor, in.Cursor
	c.radius = in.Radius

	if in.Modifier != c.dragMode {
		c.dragMode = in.Modifier
		c.dragging = false
		c.slide = r2.Vec{}
		return c.pickNearest(g)
	}

	switch {
	case in.Trigger && !c.trigger:
		c.trigger = true
		if c.dragMode {
			c.dragging = true
			c.slide = r2.Vec{}
			return nil
		}
		c.prev = c.cursor
		return c.step(g)
	case !in.Trigger && c.trigger:
		c.trigger = false
		c.dragging = false
		c.slide = r2.Vec{}
		return nil
	default:
		return c.step(g)
	}
}

// step is the per-event operation shared by motion and trigger presses.
func (c *Controller) step(g *nodegraph.Graph) error {
	c.slide = r2.Sub(c.cursor, c.prev)

	if c.dragMode {
		if !c.dragging {
			return c.pickNearest(g)
		}
		if c.DraggingNode != nil {
			c.DraggingNode.Location = r2.Add(c.DraggingNode.Location, c.slide)
		}
		return nil
	}
	if !c.trigger {
		return nil
	}
	return c.sweep(g)
}

func (c *Controller) sweep(g *nodegraph.Graph) error {
	s := c.Settings
	params := relax.Params{
		Slide:          r2.Scale(s.SlidePower, c.slide),
		RelaxPower:     s.RelaxPower,
		CollisionPower: s.CollisionPower,
		Distance:       r2.Vec{X: s.Distance, Y: s.Distance},
	}
	for _, n := range g.Nodes {
		if n.IsFrame() {
			continue
		}
		loc, err := n.GlobalLocation()
		if err != nil {
			return err
		}
		infl := Influence(c.cursor, c.radius, loc, n.Size)
		if infl <= 0 {
			continue
		}
		params.Influence = infl
		if _, err := relax.Relax(n, g.Nodes, params); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) pickNearest(g *nodegraph.Graph) error {
	n, err := Nearest(g.Nodes, c.cursor)
	if err != nil {
		return err
	}
	c.DraggingNode = n
	return nil
}

// Grow enlarges the brush by one step, up to MaxBrushSize.
func (c *Controller) Grow() { c.Settings.BrushSize = ClampBrushSize(c.Settings.BrushSize + BrushStep) }

// Shrink reduces the brush by one step, down to MinBrushSize.
func (c *Controller) Shrink() {
	c.Settings.BrushSize = ClampBrushSize(c.Settings.BrushSize - BrushStep)
}

// Cursor returns the cursor of the last event.
func (c *Controller) Cursor() r2.Vec { return c.cursor }

// Radius returns the brush radius of the last event, in world units.
func (c *Controller) Radius() float64 { return c.radius }

// Slide returns the slide vector of the last event.
func (c *Controller) Slide() r2.Vec { return c.slide }

// DragMode reports whether the controller is in drag mode.
func (c *Controller) DragMode() bool { return c.dragMode }

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool { return c.dragging }

// Triggered reports whether the trigger is held.
func (c *Controller) Triggered() bool { return c.trigger }

// Bounds returns the box of a node at global location pos.
func Bounds(pos, size r2.Vec) r2.Box {
	return r2.Box{
		Min: r2.Vec{X: pos.X, Y: pos.Y - size.Y},
		Max: r2.Vec{X: pos.X + size.X, Y: pos.Y},
	}
}

// Influence is the brush weight of a node at global location pos: one
// minus the squared distance from the cursor to the node's box, divided by
// the squared radius. It is 1 when the cursor is over the node and drops
// to 0 at the brush rim. A non-positive radius influences nothing.
func Influence(cursor r2.Vec, radius float64, pos, size r2.Vec) float64 {
	if radius <= 0 {
		return 0
	}
	b := Bounds(pos, size)
	nearest := r2.Vec{
		X: math.Min(math.Max(cursor.X, b.Min.X), b.Max.X),
		Y: math.Min(math.Max(cursor.Y, b.Min.Y), b.Max.Y),
	}
	return 1 - r2.Norm2(r2.Sub(cursor, nearest))/(radius*radius)
}

// Nearest returns the non-frame node whose center is closest to cursor,
// or nil when there is none. Ties go to the earlier node.
func Nearest(nodes []*nodegraph.Node, cursor r2.Vec) (*nodegraph.Node, error) {
	var (
		best     *nodegraph.Node
		bestDist float64
	)
	for _, n := range nodes {
		if n.IsFrame() {
			continue
		}
		loc, err := n.GlobalLocation()
		if err != nil {
			return nil, err
		}
		d := r2.Norm2(r2.Sub(relax.Center(loc, n.Size), cursor))
		if best == nil || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best, nil
}
