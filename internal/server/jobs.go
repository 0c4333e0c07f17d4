package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/noderelax/pkg/arrange"
	nrerrors "github.com/matzehuels/noderelax/pkg/errors"
	"github.com/matzehuels/noderelax/pkg/graph"
	"github.com/matzehuels/noderelax/pkg/pipeline"
)

// State is the lifecycle state of an arrange job.
type State string

const (
	StateRunning  State = "running"
	StateDone     State = "done"
	StateCanceled State = "canceled"
	StateFailed   State = "failed"
)

// DefaultRetention is how long finished jobs stay queryable.
const DefaultRetention = time.Hour

// job is one background arrange run. Its goroutine is the only writer of
// the document being arranged; everything else reads snapshots under mu.
type job struct {
	id      string
	created time.Time
	cancel  context.CancelFunc

	mu       sync.Mutex
	state    State
	progress arrange.Progress
	cached   bool
	result   graph.Document // arranged, or partial after a cancel
	err      error
	finished time.Time
}

// Snapshot is a point-in-time copy of a job, as served by the API.
type Snapshot struct {
	ID       string          `json:"id"`
	State    State           `json:"state"`
	Progress *ProgressView   `json:"progress,omitempty"`
	Cached   bool            `json:"cached,omitempty"`
	Document *graph.Document `json:"document,omitempty"`
	Error    *ErrorBody      `json:"error,omitempty"`
	Created  time.Time       `json:"created"`
	Finished *time.Time      `json:"finished,omitempty"`
}

// ProgressView is the JSON form of [arrange.Progress].
type ProgressView struct {
	Iteration    int     `json:"iteration"`
	MaxIteration int     `json:"max_iteration"`
	Phase        int     `json:"phase"`
	Label        string  `json:"label"`
	Fraction     float64 `json:"fraction"`
}

func (j *job) snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Snapshot{ID: j.id, State: j.state, Cached: j.cached, Created: j.created}
	if j.state == StateRunning && j.progress.Phase > 0 {
		s.Progress = &ProgressView{
			Iteration:    j.progress.Iteration,
			MaxIteration: j.progress.MaxIteration,
			Phase:        j.progress.Phase,
			Label:        j.progress.String(),
			Fraction:     j.progress.Fraction(),
		}
	}
	if j.state == StateDone || (j.state == StateCanceled && j.result.Nodes != nil) {
		doc := j.result
		s.Document = &doc
	}
	if j.err != nil {
		body := errorBody(j.err)
		s.Error = &body
	}
	if !j.finished.IsZero() {
		f := j.finished
		s.Finished = &f
	}
	return s
}

func (j *job) done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state != StateRunning
}

// Manager runs arrange jobs in the background, one goroutine per job.
type Manager struct {
	runner    *pipeline.Runner
	logger    *log.Logger
	retention time.Duration

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewManager creates a job manager that arranges through runner.
func NewManager(runner *pipeline.Runner, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		runner:    runner,
		logger:    logger,
		retention: DefaultRetention,
		jobs:      make(map[string]*job),
	}
}

// Submit validates doc and opts and starts arranging in the background.
// Invalid input is reported synchronously; the job itself only fails on
// internal errors.
func (m *Manager) Submit(doc graph.Document, opts pipeline.Options) (Snapshot, error) {
	if err := opts.Arrange.Validate(); err != nil {
		return Snapshot{}, err
	}
	if _, err := graph.ToNodeGraph(doc); err != nil {
		return Snapshot{}, err
	}
	m.prune(time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		id:      uuid.NewString(),
		created: time.Now(),
		cancel:  cancel,
		state:   StateRunning,
	}

	m.mu.Lock()
	m.jobs[j.id] = j
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(ctx, j, doc, opts)

	m.logger.Debug("arrange job submitted", "id", j.id, "nodes", len(doc.Nodes), "links", len(doc.Links))
	return j.snapshot(), nil
}

func (m *Manager) run(ctx context.Context, j *job, doc graph.Document, opts pipeline.Options) {
	defer m.wg.Done()
	defer j.cancel()

	onProgress := func(p arrange.Progress) {
		j.mu.Lock()
		j.progress = p
		j.mu.Unlock()
	}
	arranged, hit, err := m.runner.ArrangeWithCacheInfo(ctx, doc, opts, onProgress)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.finished = time.Now()
	switch {
	case err == nil:
		j.state = StateDone
		j.result = arranged
		j.cached = hit
	case ctx.Err() != nil:
		j.state = StateCanceled
		j.result = arranged
	default:
		j.state = StateFailed
		j.err = err
	}
	m.logger.Debug("arrange job finished", "id", j.id, "state", j.state,
		"cached", hit, "elapsed", j.finished.Sub(j.created))
}

// Get returns a snapshot of the job with the given id.
func (m *Manager) Get(id string) (Snapshot, error) {
	j, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return j.snapshot(), nil
}

// Cancel asks a running job to stop. Once the job reports StateCanceled its
// snapshot carries the document with the positions reached so far.
// Canceling a finished job is a no-op.
func (m *Manager) Cancel(id string) (Snapshot, error) {
	j, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	j.cancel()
	return j.snapshot(), nil
}

// Len returns the number of jobs currently tracked.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Shutdown cancels every running job and waits for their goroutines, or
// until ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, j := range m.jobs {
		j.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) lookup(id string) (*job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nrerrors.New(nrerrors.ErrCodeInvalidInput, "invalid job id %q", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, nrerrors.New(nrerrors.ErrCodeTaskNotFound, "no arrange job %s", id)
	}
	return j, nil
}

// prune forgets jobs that finished more than the retention period ago.
func (m *Manager) prune(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.jobs {
		j.mu.Lock()
		expired := !j.finished.IsZero() && now.Sub(j.finished) > m.retention
		j.mu.Unlock()
		if expired {
			delete(m.jobs, id)
		}
	}
}
