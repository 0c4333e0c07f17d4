package brush

import (
	"math"

	"github.com/matzehuels/noderelax/pkg/errors"
)

// Brush size bounds and step, in screen units.
const (
	MinBrushSize = 10.0
	MaxBrushSize = 1000.0
	BrushStep    = 10.0
)

// Settings holds the tunable brush parameters.
type Settings struct {
	// BrushSize is the brush radius in screen units. Hosts convert it to
	// world units before passing it in [Input.Radius].
	BrushSize float64 `json:"brush_size" yaml:"brush_size" toml:"brush_size"`
	// Distance is the clearance kept between nodes.
	Distance float64 `json:"distance" yaml:"distance" toml:"distance"`
	// RelaxPower scales the pull toward linked neighbors.
	RelaxPower float64 `json:"relax_power" yaml:"relax_power" toml:"relax_power"`
	// SlidePower scales how much of the cursor motion drags nodes along.
	SlidePower float64 `json:"slide_power" yaml:"slide_power" toml:"slide_power"`
	// CollisionPower scales the push between overlapping nodes.
	CollisionPower float64 `json:"collision_power" yaml:"collision_power" toml:"collision_power"`
}

// DefaultSettings returns the stock brush settings.
func DefaultSettings() Settings {
	return Settings{
		BrushSize:      150,
		Distance:       80,
		RelaxPower:     0.1,
		SlidePower:     0.6,
		CollisionPower: 0.9,
	}
}

// Validate reports an INVALID_CONFIG error for out-of-range settings.
func (s Settings) Validate() error {
	if s.BrushSize < MinBrushSize || s.BrushSize > MaxBrushSize {
		return errors.New(errors.ErrCodeInvalidConfig, "brush size must be in [%g, %g], got %g",
			MinBrushSize, MaxBrushSize, s.BrushSize)
	}
	if math.IsNaN(s.Distance) || math.IsInf(s.Distance, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "distance must be finite, got %g", s.Distance)
	}
	powers := []struct {
		name  string
		value float64
	}{
		{"relax power", s.RelaxPower},
		{"slide power", s.SlidePower},
		{"collision power", s.CollisionPower},
	}
	for _, p := range powers {
		if !(p.value >= 0 && p.value <= 1) {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be in [0, 1], got %g", p.name, p.value)
		}
	}
	return nil
}

// ClampBrushSize limits size to [MinBrushSize, MaxBrushSize].
func ClampBrushSize(size float64) float64 {
	return math.Min(MaxBrushSize, math.Max(MinBrushSize, size))
}
