package arrange

import (
	"math"

	"github.com/matzehuels/noderelax/pkg/errors"
)

// Default settings.
const (
	DefaultDistance             = 80.0
	DefaultIterations           = 200
	DefaultBackgroundIterations = 2

	// MaxBackgroundIterations bounds the work done per resumption.
	MaxBackgroundIterations = 10

	// Phases is the number of arrange phases.
	Phases = 4
)

// Config controls a batch arrange run.
type Config struct {
	// Distance is the target clearance between nodes.
	Distance float64 `json:"distance" yaml:"distance" toml:"distance"`
	// Iterations is the iteration limit of each phase.
	Iterations [Phases]int `json:"iterations" yaml:"iterations" toml:"iterations"`
	// Adaptive ends a phase early once a sweep moves no node.
	Adaptive bool `json:"adaptive" yaml:"adaptive" toml:"adaptive"`
	// OnlySelected restricts the sweep to selected nodes and disables
	// recentering.
	OnlySelected bool `json:"only_selected" yaml:"only_selected" toml:"only_selected"`
	// BackgroundIterations is the number of extra iterations performed per
	// resumption before yielding.
	BackgroundIterations int `json:"background_iterations" yaml:"background_iterations" toml:"background_iterations"`
}

// DefaultConfig returns the stock settings: 80 units of clearance, 200
// iterations per phase, adaptive termination and two background iterations.
func DefaultConfig() Config {
	return Config{
		Distance:             DefaultDistance,
		Iterations:           [Phases]int{DefaultIterations, DefaultIterations, DefaultIterations, DefaultIterations},
		Adaptive:             true,
		BackgroundIterations: DefaultBackgroundIterations,
	}
}

// Validate reports an INVALID_CONFIG error for settings the solver cannot
// run with.
func (c Config) Validate() error {
	if math.IsNaN(c.Distance) || math.IsInf(c.Distance, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "distance must be finite, got %g", c.Distance)
	}
	for i, n := range c.Iterations {
		if n < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "phase %d: iterations must not be negative, got %d", i+1, n)
		}
	}
	if c.BackgroundIterations < 0 || c.BackgroundIterations > MaxBackgroundIterations {
		return errors.New(errors.ErrCodeInvalidConfig, "background iterations must be in [0, %d], got %d",
			MaxBackgroundIterations, c.BackgroundIterations)
	}
	return nil
}

// TotalIterations returns the sum of the per-phase limits.
func (c Config) TotalIterations() int {
	total := 0
	for _, n := range c.Iterations {
		total += n
	}
	return total
}
