// Package pipeline provides the load → arrange → render pipeline of noderelax.
//
// The CLI, the HTTP server and the brush TUI all go through this package so
// that defaults, validation and caching behave the same everywhere.
//
// # Stages
//
//  1. Arrange: run the four-phase [arrange.Task] over a document
//  2. Render: draw the arranged document in one or more formats
//
// Both stages are cached through a [cache.Cache]. The arrange key is the
// hash of the input document plus every arrange setting that changes the
// result; the render key is the hash of the arranged document plus the
// render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Render.Formats = []string{"svg", "png"}
//	result, err := runner.Execute(ctx, doc, opts, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// # Configuration
//
// Options load from a TOML file with [LoadConfig]; see [WriteConfig] for
// the layout of the file.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/noderelax/pkg/arrange"
	"github.com/matzehuels/noderelax/pkg/brush"
	"github.com/matzehuels/noderelax/pkg/cache"
	"github.com/matzehuels/noderelax/pkg/errors"
	"github.com/matzehuels/noderelax/pkg/graph"
	"github.com/matzehuels/noderelax/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API and TUI
// =============================================================================

// DefaultFormat is the render format used when none is requested.
const DefaultFormat = string(render.FormatSVG)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// RenderOptions configures the render stage.
type RenderOptions struct {
	Formats    []string `json:"formats,omitempty" toml:"formats"`
	PortLabels bool     `json:"port_labels,omitempty" toml:"port_labels"`
	HideFrames bool     `json:"hide_frames,omitempty" toml:"hide_frames"`
}

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests and TOML for
// the config file.
type Options struct {
	Arrange arrange.Config `json:"arrange" toml:"arrange"`
	Brush   brush.Settings `json:"brush" toml:"brush"`
	Render  RenderOptions  `json:"render" toml:"render"`

	// Refresh skips cache reads; results are still written back.
	Refresh bool `json:"refresh,omitempty" toml:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`
}

// DefaultOptions returns options with every default applied.
func DefaultOptions() Options {
	o := Options{
		Arrange: arrange.DefaultConfig(),
		Brush:   brush.DefaultSettings(),
	}
	o.SetDefaults()
	return o
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the arranged document.
	Document graph.Document

	// DocumentHash is the content hash of the arranged document.
	DocumentHash string

	// Arrange summarizes the solver run. It is zero on a cache hit.
	Arrange arrange.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	LinkCount   int
	ArrangeTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ArrangeHit bool // Whether the arranged document came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a render format is valid.
func ValidateFormat(format string) error {
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}
	if string(f) != format {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (use lower case)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills in the render formats and the logger. Arrange and brush
// settings have meaningful zero values and are left alone; start from
// [DefaultOptions] to get their defaults.
func (o *Options) SetDefaults() {
	if len(o.Render.Formats) == 0 {
		o.Render.Formats = []string{DefaultFormat}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks every section of the options.
func (o *Options) Validate() error {
	if err := o.Arrange.Validate(); err != nil {
		return err
	}
	if err := o.Brush.Validate(); err != nil {
		return err
	}
	return ValidateFormats(o.Render.Formats)
}

// ValidateAndSetDefaults applies defaults and validates.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetDefaults()
	return o.Validate()
}

// LayoutKeyOpts returns cache key options for the arrange stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Distance:     o.Arrange.Distance,
		Iterations:   o.Arrange.Iterations,
		Adaptive:     o.Arrange.Adaptive,
		OnlySelected: o.Arrange.OnlySelected,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		PortLabels: o.Render.PortLabels,
		HideFrames: o.Render.HideFrames,
	}
}

// renderOptions converts the render section to [render.Options].
func (o *Options) renderOptions() render.Options {
	return render.Options{
		PortLabels: o.Render.PortLabels,
		HideFrames: o.Render.HideFrames,
	}
}
