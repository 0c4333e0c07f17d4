package arrange

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/noderelax/pkg/nodegraph"
	"github.com/matzehuels/noderelax/pkg/observability"
	"github.com/matzehuels/noderelax/pkg/relax"
)

// Phase 4 evaluator settings.
const (
	finalRelaxPower     = 0.2
	finalCollisionPower = 1.0
)

// Progress describes the state of a task after a call to [Task.Resume].
type Progress struct {
	Iteration    int  // zero-based index of the last finished iteration
	MaxIteration int  // iteration limit of the current phase
	Phase        int  // 1..4
	Done         bool // terminal: finished or canceled
}

// String renders the progress as "<iteration>/<max> <phase>/4". A finished
// task renders as the empty string.
func (p Progress) String() string {
	if p.Done {
		return ""
	}
	return fmt.Sprintf("%d/%d %d/%d", p.Iteration, p.MaxIteration, p.Phase, Phases)
}

// Fraction estimates overall completion in [0, 1] from the phase and
// iteration alone.
func (p Progress) Fraction() float64 {
	if p.Done {
		return 1
	}
	if p.Phase < 1 || p.MaxIteration <= 0 {
		return 0
	}
	within := float64(p.Iteration+1) / float64(p.MaxIteration)
	return (float64(p.Phase-1) + math.Min(1, within)) / Phases
}

// Result summarizes a finished task.
type Result struct {
	Iterations [Phases]int  // iterations run per phase
	Converged  [Phases]bool // phase ended because nothing moved
	Canceled   bool
	Duration   time.Duration
}

// Option configures a [Task].
type Option func(*Task)

// WithLogger sets the logger used for per-phase debug output.
func WithLogger(l *log.Logger) Option {
	return func(t *Task) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithContext sets the context passed to observability hooks. It does not
// cancel the task; use [Task.Cancel] or [Task.Run] for that.
func WithContext(ctx context.Context) Option {
	return func(t *Task) {
		if ctx != nil {
			t.ctx = ctx
		}
	}
}

// Task is a resumable four-phase arrange run over one graph.
//
// Resume must not be called concurrently with itself. Cancel is safe to call
// from any goroutine.
type Task struct {
	graph  *nodegraph.Graph
	cfg    Config
	logger *log.Logger
	hooks  observability.ArrangeHooks
	ctx    context.Context

	// state machine
	phase      int // 1..4 while running
	iteration  int // next iteration index within phase
	sinceYield int // iterations since the last yield, carried across phases
	rootCenter r2.Vec
	recenter   bool

	started    time.Time
	phaseStart time.Time
	result     Result
	done       bool
	err        error
	canceled   atomic.Bool
}

// New validates g and cfg and prepares a task. No node is moved until the
// first call to [Task.Resume].
func New(g *nodegraph.Graph, cfg Config, opts ...Option) (*Task, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	t := &Task{
		graph:  g,
		cfg:    cfg,
		logger: log.New(io.Discard),
		hooks:  observability.Arrange(),
		ctx:    context.Background(),
		phase:  1,
	}
	for _, opt := range opts {
		opt(t)
	}

	if !cfg.OnlySelected {
		center, count, err := meanLocation(g.Nodes, false)
		if err != nil {
			return nil, err
		}
		t.rootCenter = center
		t.recenter = count > 0
	}

	t.started = time.Now()
	t.phaseStart = t.started
	t.hooks.OnArrangeStart(t.ctx, len(g.Nodes))
	t.logger.Debug("arrange started", "nodes", len(g.Nodes), "links", g.LinkCount(),
		"iterations", cfg.Iterations, "adaptive", cfg.Adaptive, "only_selected", cfg.OnlySelected)
	return t, nil
}

// Cancel asks the task to stop at the next resumption boundary. Positions
// already applied are kept.
func (t *Task) Cancel() {
	t.canceled.Store(true)
}

// Canceled reports whether the task ended because of [Task.Cancel].
func (t *Task) Canceled() bool {
	return t.done && t.result.Canceled
}

// Done reports whether the task has reached a terminal state.
func (t *Task) Done() bool { return t.done }

// Result returns the run summary. It is complete once the task is done.
func (t *Task) Result() Result { return t.result }

// Config returns the task's configuration.
func (t *Task) Config() Config { return t.cfg }

// Resume advances the task by up to BackgroundIterations+1 iterations and
// reports where it stopped. Once the last phase ends, or after a cancel,
// Resume returns a Progress with Done set and keeps doing so on further
// calls. A structural error (such as a parent cycle introduced after New)
// ends the task and is returned.
func (t *Task) Resume() (Progress, error) {
	if t.done {
		return Progress{Done: true}, t.err
	}
	if t.canceled.Load() {
		t.finish(true, nil)
		return Progress{Done: true}, nil
	}

	for t.phase <= Phases {
		limit := t.cfg.Iterations[t.phase-1]
		if t.iteration >= limit {
			t.endPhase(false)
			continue
		}

		moved, center, count, err := t.sweep()
		if err != nil {
			t.finish(false, err)
			return Progress{Done: true}, err
		}
		if !moved && t.cfg.Adaptive {
			t.endPhase(true)
			continue
		}
		if t.recenter && count > 0 {
			t.translate(r2.Sub(t.rootCenter, center))
		}

		i := t.iteration
		t.iteration++
		t.result.Iterations[t.phase-1]++
		t.sinceYield++
		if t.sinceYield > t.cfg.BackgroundIterations {
			t.sinceYield = 0
			return Progress{Iteration: i, MaxIteration: limit, Phase: t.phase}, nil
		}
	}

	t.finish(false, nil)
	return Progress{Done: true}, nil
}

// Run drives the task to completion, calling onProgress after every yield.
// If ctx is canceled, the task is canceled and ctx.Err() is returned.
func (t *Task) Run(ctx context.Context, onProgress func(Progress)) error {
	for {
		if err := ctx.Err(); err != nil {
			t.Cancel()
			_, _ = t.Resume()
			return err
		}
		p, err := t.Resume()
		if err != nil {
			return err
		}
		if p.Done {
			return nil
		}
		if onProgress != nil {
			onProgress(p)
		}
	}
}

// sweep evaluates every eligible node once with the current phase's
// evaluator and returns whether any moved, plus the mean global location
// of the evaluated nodes once the sweep is over.
func (t *Task) sweep() (bool, r2.Vec, int, error) {
	moved := false
	for _, n := range t.graph.Nodes {
		if n.IsFrame() || (t.cfg.OnlySelected && !n.Selected) {
			continue
		}
		m, err := t.evaluate(n)
		if err != nil {
			return false, r2.Vec{}, 0, err
		}
		moved = moved || m
	}
	center, count, err := meanLocation(t.graph.Nodes, t.cfg.OnlySelected)
	return moved, center, count, err
}

func (t *Task) evaluate(n *nodegraph.Node) (bool, error) {
	d := t.cfg.Distance
	switch t.phase {
	case 1:
		return relax.ArrangeRelax(n, 1, 1, d, false)
	case 2:
		return relax.ArrangeRelax(n, 1, 1, d, true)
	case 3:
		return relax.CollideVertical(n, t.graph.Nodes, t.collisionRamp(t.iteration), r2.Vec{Y: d})
	default:
		return relax.Relax(n, t.graph.Nodes, relax.Params{
			Influence:       t.influenceRamp(t.iteration),
			RelaxPower:      finalRelaxPower,
			CollisionPower:  finalCollisionPower,
			Distance:        r2.Vec{X: d, Y: d},
			PullNonSiblings: true,
		})
	}
}

// collisionRamp is the phase 3 collision power at iteration i. It ramps
// over the phase 4 limit.
func (t *Task) collisionRamp(i int) float64 {
	return ramp(i, t.cfg.Iterations[3])
}

// influenceRamp is the phase 4 influence at iteration i. It reaches 1
// halfway through the phase 3 limit.
func (t *Task) influenceRamp(i int) float64 {
	return math.Min(1, 2*ramp(i, t.cfg.Iterations[2]))
}

func ramp(i, n int) float64 {
	if n <= 0 {
		return 1
	}
	return float64(i) / float64(n)
}

// translate shifts the layout rigidly by slide. Nodes nested under an
// ordinary node already move with it and are left alone.
func (t *Task) translate(slide r2.Vec) {
	for _, n := range t.graph.Nodes {
		if n.IsFrame() || n.HasNodeAncestor() {
			continue
		}
		n.Location = r2.Add(n.Location, slide)
	}
}

func (t *Task) endPhase(converged bool) {
	idx := t.phase - 1
	t.result.Converged[idx] = converged
	elapsed := time.Since(t.phaseStart)
	t.hooks.OnPhaseComplete(t.ctx, t.phase, t.result.Iterations[idx], converged, elapsed)
	t.logger.Debug("phase complete", "phase", t.phase, "iterations", t.result.Iterations[idx],
		"converged", converged, "elapsed", elapsed)

	t.phase++
	t.iteration = 0
	t.phaseStart = time.Now()
}

func (t *Task) finish(canceled bool, err error) {
	t.done = true
	t.err = err
	t.result.Canceled = canceled
	t.result.Duration = time.Since(t.started)
	t.hooks.OnArrangeComplete(t.ctx, canceled, t.result.Duration, err)
	switch {
	case err != nil:
		t.logger.Debug("arrange failed", "phase", t.phase, "err", err)
	case canceled:
		t.logger.Debug("arrange canceled", "phase", t.phase, "iteration", t.iteration)
	default:
		t.logger.Debug("arrange finished", "elapsed", t.result.Duration)
	}
}

// meanLocation returns the mean global location of the non-frame nodes,
// optionally only the selected ones.
func meanLocation(nodes []*nodegraph.Node, onlySelected bool) (r2.Vec, int, error) {
	var (
		sum   r2.Vec
		count int
	)
	for _, n := range nodes {
		if n.IsFrame() || (onlySelected && !n.Selected) {
			continue
		}
		loc, err := n.GlobalLocation()
		if err != nil {
			return r2.Vec{}, 0, err
		}
		sum = r2.Add(sum, loc)
		count++
	}
	if count == 0 {
		return r2.Vec{}, 0, nil
	}
	return r2.Scale(1/float64(count), sum), count, nil
}

// MeanLocation returns the mean global location of all non-frame nodes.
// It is zero for a graph without ordinary nodes.
func MeanLocation(g *nodegraph.Graph) (r2.Vec, error) {
	c, _, err := meanLocation(g.Nodes, false)
	return c, err
}
