package relax

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/noderelax/pkg/nodegraph"
)

// Params configures one brush evaluation with [Relax].
type Params struct {
	// Influence scales the applied offset, usually in [0, 1].
	Influence float64
	// Slide is added to the offset before any force.
	Slide r2.Vec
	// RelaxPower scales the pull toward linked neighbors. Zero disables it.
	RelaxPower float64
	// CollisionPower scales the push away from overlapping nodes. Zero
	// disables it.
	CollisionPower float64
	// Distance is the clearance kept between linked and colliding nodes.
	Distance r2.Vec
	// PullNonSiblings lets neighbors under a different parent pull the node.
	PullNonSiblings bool
}

// =============================================================================
// Brush relax
// =============================================================================

// Relax evaluates the brush force on node and applies it.
//
// The offset starts at p.Slide. With a positive RelaxPower, the node is
// pulled toward its linked neighbors: just right of the rightmost source
// and just left of the leftmost destination (the mean of the two when both
// exist), vertically centered on the neighbors. With a positive
// CollisionPower, every other non-frame node in nodes pushes it away.
// If the offset exceeds [MoveUnit] on either axis, Location moves by
// offset*Influence and Relax returns true.
func Relax(node *nodegraph.Node, nodes []*nodegraph.Node, p Params) (bool, error) {
	if node.IsFrame() {
		return false, nil
	}
	loc, err := node.GlobalLocation()
	if err != nil {
		return false, err
	}

	offset := p.Slide

	if p.RelaxPower > 0 {
		pull, err := brushTarget(node, loc, p)
		if err != nil {
			return false, err
		}
		offset = r2.Add(offset, pull)
	}

	if p.CollisionPower > 0 {
		push, err := collideAll(node, loc, nodes, p.Distance, p.CollisionPower, false)
		if err != nil {
			return false, err
		}
		offset = r2.Add(offset, push)
	}

	if !exceedsMoveUnit(offset) {
		return false, nil
	}
	node.Location = r2.Add(node.Location, r2.Scale(p.Influence, offset))
	return true, nil
}

// brushTarget returns (target - loc) * RelaxPower, or zero without links.
func brushTarget(node *nodegraph.Node, loc r2.Vec, p Params) (r2.Vec, error) {
	var (
		sumY              float64
		links             int
		inX, outX         = loc.X, loc.X
		hasInput, hasOutp bool
	)

	for _, port := range node.Inputs {
		for _, link := range port.Links {
			other := link.FromNode()
			if !p.PullNonSiblings && node.Parent != other.Parent {
				continue
			}
			otherLoc, err := other.GlobalLocation()
			if err != nil {
				return r2.Vec{}, err
			}
			x := otherLoc.X + other.Size.X + p.Distance.X
			if hasInput {
				inX = math.Max(inX, x)
			} else {
				inX = x
			}
			hasInput = true
			sumY += otherLoc.Y - other.Size.Y/2
			links++
		}
	}

	for _, port := range node.Outputs {
		for _, link := range port.Links {
			other := link.ToNode()
			if !p.PullNonSiblings && node.Parent != other.Parent {
				continue
			}
			otherLoc, err := other.GlobalLocation()
			if err != nil {
				return r2.Vec{}, err
			}
			x := otherLoc.X - node.Size.X - p.Distance.X
			if hasOutp {
				outX = math.Min(outX, x)
			} else {
				outX = x
			}
			hasOutp = true
			sumY += otherLoc.Y - other.Size.Y/2
			links++
		}
	}

	if links == 0 {
		return r2.Vec{}, nil
	}
	target := r2.Vec{
		X: sideMean(inX, hasInput, outX, hasOutp),
		Y: sumY/float64(links) + node.Size.Y/2,
	}
	return r2.Scale(p.RelaxPower, r2.Sub(target, loc)), nil
}

// =============================================================================
// Arrange relax
// =============================================================================

// ArrangeRelax evaluates the batch pull on node and applies it. Unlike
// [Relax], neighbors are pulled regardless of parent and there is no
// collision.
//
// Horizontally, each input link proposes the source's right edge plus
// distance and each output link proposes the destination's left edge minus
// the node's width and distance. With clampedPull the rightmost input and
// leftmost output proposals win and the two sides are averaged; otherwise
// all proposals are averaged over the link count. Vertically, each link
// aligns the node's port with the neighbor's port using [PortFraction].
func ArrangeRelax(node *nodegraph.Node, influence, relaxPower, distance float64, clampedPull bool) (bool, error) {
	if node.IsFrame() {
		return false, nil
	}
	loc, err := node.GlobalLocation()
	if err != nil {
		return false, err
	}

	var (
		sumY              float64
		links             int
		inX, outX         float64
		hasInput, hasOutp bool
	)
	if clampedPull {
		inX, outX = loc.X, loc.X
	}

	for _, port := range node.Inputs {
		for _, link := range port.Links {
			other := link.FromNode()
			otherLoc, err := other.GlobalLocation()
			if err != nil {
				return false, err
			}
			x := otherLoc.X + other.Size.X + distance
			switch {
			case !clampedPull:
				inX += x
			case hasInput:
				inX = math.Max(inX, x)
			default:
				inX = x
			}
			hasInput = true
			sumY += otherLoc.Y +
				PortFraction(port, node.Inputs, node.Size.Y) -
				PortFraction(link.From, other.Outputs, other.Size.Y)
			links++
		}
	}

	for _, port := range node.Outputs {
		for _, link := range port.Links {
			other := link.ToNode()
			otherLoc, err := other.GlobalLocation()
			if err != nil {
				return false, err
			}
			x := otherLoc.X - node.Size.X - distance
			switch {
			case !clampedPull:
				outX += x
			case hasOutp:
				outX = math.Min(outX, x)
			default:
				outX = x
			}
			hasOutp = true
			sumY += otherLoc.Y +
				PortFraction(port, node.Outputs, node.Size.Y) -
				PortFraction(link.To, other.Inputs, other.Size.Y)
			links++
		}
	}

	var offset r2.Vec
	if links > 0 {
		target := r2.Vec{Y: sumY / float64(links)}
		if clampedPull {
			target.X = sideMean(inX, hasInput, outX, hasOutp)
		} else {
			target.X = (inX + outX) / float64(links)
		}
		offset = r2.Scale(relaxPower, r2.Sub(target, loc))
	}

	if !exceedsMoveUnit(offset) {
		return false, nil
	}
	node.Location = r2.Add(node.Location, r2.Scale(influence, offset))
	return true, nil
}

// =============================================================================
// Vertical collision
// =============================================================================

// CollideVertical pushes node vertically away from every other non-frame
// node it overlaps (inflated by dist). The accumulated offset is computed
// at full power; if it exceeds [MoveUnit], Location.Y moves by
// offset*collidePower and CollideVertical returns true, even when
// collidePower is zero.
func CollideVertical(node *nodegraph.Node, nodes []*nodegraph.Node, collidePower float64, dist r2.Vec) (bool, error) {
	if node.IsFrame() {
		return false, nil
	}
	loc, err := node.GlobalLocation()
	if err != nil {
		return false, err
	}

	offset, err := collideAll(node, loc, nodes, dist, 1, true)
	if err != nil {
		return false, err
	}
	if math.Abs(offset.Y) <= MoveUnit {
		return false, nil
	}
	node.Location.Y += offset.Y * collidePower
	return true, nil
}

// =============================================================================
// Helpers
// =============================================================================

// collideAll sums [Collide] of node against every other non-frame node.
func collideAll(node *nodegraph.Node, loc r2.Vec, nodes []*nodegraph.Node, dist r2.Vec, power float64, onlyVertical bool) (r2.Vec, error) {
	var offset r2.Vec
	for _, other := range nodes {
		if other == node || other.IsFrame() {
			continue
		}
		otherLoc, err := other.GlobalLocation()
		if err != nil {
			return r2.Vec{}, err
		}
		offset = r2.Add(offset, Collide(loc, node.Size, otherLoc, other.Size, dist, power, onlyVertical))
	}
	return offset, nil
}

// sideMean averages the input and output targets that exist.
func sideMean(inX float64, hasInput bool, outX float64, hasOutput bool) float64 {
	switch {
	case hasInput && hasOutput:
		return (inX + outX) / 2
	case hasInput:
		return inX
	default:
		return outX
	}
}
