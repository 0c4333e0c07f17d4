// Package relax implements the force model behind noderelax: per-node
// evaluators that pull linked nodes into a left-to-right flow and push
// overlapping boxes apart.
//
// # Forces
//
// Two forces act on a node:
//
//   - The relax force pulls a node toward a target derived from its linked
//     neighbors. Horizontally, inputs want the node to sit just right of the
//     source and outputs want it just left of the destination. Vertically,
//     the node lines up with its neighbors.
//   - The collision force pushes two overlapping boxes apart along the axis
//     of least overlap (see [Collide]).
//
// # Evaluators
//
// Three evaluators combine these forces for different callers:
//
//   - [Relax] is the brush evaluator. It adds an external slide vector,
//     pulls toward neighbor centers and collides with every other node.
//   - [ArrangeRelax] is the batch evaluator. It aligns connected ports
//     using [PortFraction] and has an averaged and a clamped pull policy.
//   - [CollideVertical] resolves collisions along the vertical axis only.
//
// Every evaluator skips frame nodes, discards offsets that do not exceed
// [MoveUnit] on either axis, writes the result straight into
// [nodegraph.Node.Location] and reports whether the node moved. Writes are
// visible to the next evaluation in the same sweep, so sweep order matters
// and callers must iterate nodes in a stable order.
//
// Evaluators only fail on structural faults, currently a parent cycle met
// while resolving a global location.
package relax
