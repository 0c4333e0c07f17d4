// Package arrange runs the four-phase batch layout over a node graph.
//
// # Phases
//
// A [Task] sweeps the graph with the evaluators from
// [github.com/matzehuels/noderelax/pkg/relax] in four sequential phases:
//
//  1. Averaged pull ([relax.ArrangeRelax] without clamping) to untangle the
//     flow.
//  2. Clamped pull, which places every node just past its extremal
//     neighbors.
//  3. Vertical decongestion ([relax.CollideVertical]) with a collision power
//     that ramps from 0 to 1.
//  4. Combined relax and collision ([relax.Relax]) with an influence that
//     ramps up to 1 by the middle of the phase.
//
// The ramps in phases 3 and 4 use each other's iteration limit as their
// denominator: phase 3 ramps over Iterations[3] and phase 4 over
// Iterations[2]. A zero denominator saturates the ramp at 1.
//
// Every iteration sweeps all eligible nodes once (frames are skipped, and
// with OnlySelected so are unselected nodes). With Adaptive set, a phase ends
// as soon as a sweep moves nothing. Unless OnlySelected is set, the layout is
// translated after every sweep so that the mean global position of the
// nodes stays where it was when the task was created.
//
// # Resuming and Canceling
//
// A Task is a cooperative long-running computation modeled as an explicit
// state machine. [Task.Resume] performs at most BackgroundIterations+1
// iterations and returns a [Progress]; callers drive it from a timer, an
// event loop or [Task.Run]. [Task.Cancel] may be called from any goroutine;
// the next Resume stops cleanly and keeps every position applied so far.
//
//	task, err := arrange.New(g, arrange.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	for {
//	    p, err := task.Resume()
//	    if err != nil || p.Done {
//	        break
//	    }
//	    fmt.Println(p) // "12/200 1/4"
//	}
//
// Between two calls to Resume, nothing else may mutate the graph.
package arrange
