package relax

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MoveUnit is the minimum per-axis offset that counts as movement. Offsets
// at or below it on both axes are dropped, which lets iterative phases
// settle.
const MoveUnit = 1.0

// Center returns the center of a box anchored at its top-left corner pos
// that extends downward by size.Y.
func Center(pos, size r2.Vec) r2.Vec {
	return r2.Vec{X: pos.X + size.X/2, Y: pos.Y - size.Y/2}
}

// Collide returns the offset that pushes box A away from box B.
//
// The half-extents of both boxes are summed and inflated by dist. When the
// boxes overlap on both axes, the overlap is resolved along the axis with
// the smaller overlap (or always along Y when onlyVertical is set). The
// returned offset is half the overlap on that axis, signed to move A away
// from B and scaled by power. Boxes that do not overlap yield a zero vector.
//
// Calling Collide with the roles of A and B swapped yields the opposite
// offset, except for coincident centers where both get pushed toward +X or +Y.
func Collide(posA, sizeA, posB, sizeB, dist r2.Vec, power float64, onlyVertical bool) r2.Vec {
	extent := r2.Add(r2.Scale(0.5, r2.Add(sizeA, sizeB)), dist)
	delta := r2.Sub(Center(posB, sizeB), Center(posA, sizeA))
	overlap := r2.Vec{
		X: extent.X - math.Abs(delta.X),
		Y: extent.Y - math.Abs(delta.Y),
	}
	if overlap.X <= 0 || overlap.Y <= 0 {
		return r2.Vec{}
	}

	if overlap.Y < overlap.X || onlyVertical {
		if delta.Y > 0 {
			overlap.Y = -overlap.Y
		}
		return r2.Vec{Y: overlap.Y / 2 * power}
	}
	if delta.X > 0 {
		overlap.X = -overlap.X
	}
	return r2.Vec{X: overlap.X / 2 * power}
}

// exceedsMoveUnit reports whether the offset is large enough to apply.
func exceedsMoveUnit(offset r2.Vec) bool {
	return math.Abs(offset.X) > MoveUnit || math.Abs(offset.Y) > MoveUnit
}
