// Package cache stores arranged layouts and rendered artifacts.
//
// Arranging a large graph runs up to four times Iterations sweeps over every
// node, and rendering goes through Graphviz. Both are pure functions of their
// input document and settings, so their results are cached under content
// hashes:
//
//	layout key   = layout:sha256(document hash, arrange settings)
//	artifact key = artifact:sha256(layout hash, render options)
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the HTTP server and [NullCache] when caching is disabled. Wrap any of
// them with [Instrument] to report hits and misses through the
// observability hooks.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached entries.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the cached data and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means the backend default.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Keyer derives cache keys. Implementations must be deterministic.
type Keyer interface {
	// LayoutKey keys an arranged document.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered output of an arranged document.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds every arrange setting that changes the result.
// The background yield interval does not and is left out.
type LayoutKeyOpts struct {
	Distance     float64 `json:"distance"`
	Iterations   [4]int  `json:"iterations"`
	Adaptive     bool    `json:"adaptive"`
	OnlySelected bool    `json:"only_selected"`
}

// ArtifactKeyOpts holds the render settings of an artifact.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	PortLabels bool   `json:"port_labels,omitempty"`
	HideFrames bool   `json:"hide_frames,omitempty"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
