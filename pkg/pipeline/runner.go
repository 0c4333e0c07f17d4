package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/noderelax/pkg/arrange"
	"github.com/matzehuels/noderelax/pkg/cache"
	"github.com/matzehuels/noderelax/pkg/graph"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options and documents.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute arranges doc and renders the result in every requested format.
func (r *Runner) Execute(ctx context.Context, doc graph.Document, opts Options, onProgress func(arrange.Progress)) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result, err := r.execArrange(ctx, doc, opts, onProgress)
	if err != nil {
		return result, err
	}

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Document, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Render.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ExecuteArrange runs only the arrange stage of [Runner.Execute]. The
// returned Result has no artifacts.
//
// Like Execute, a canceled run returns ctx.Err() together with a Result
// holding the partially arranged document, which is never cached.
func (r *Runner) ExecuteArrange(ctx context.Context, doc graph.Document, opts Options, onProgress func(arrange.Progress)) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return r.execArrange(ctx, doc, opts, onProgress)
}

func (r *Runner) execArrange(ctx context.Context, doc graph.Document, opts Options, onProgress func(arrange.Progress)) (*Result, error) {
	result := &Result{
		Stats: Stats{NodeCount: len(doc.Nodes), LinkCount: len(doc.Links)},
	}

	arrangeStart := time.Now()
	arranged, run, hit, err := r.arrange(ctx, doc, opts, onProgress)
	if err != nil {
		if !run.Canceled {
			return nil, fmt.Errorf("arrange: %w", err)
		}
		result.Document = arranged
		result.Arrange = run
		result.Stats.ArrangeTime = time.Since(arrangeStart)
		return result, fmt.Errorf("arrange: %w", err)
	}
	result.Document = arranged
	result.Arrange = run
	result.Stats.ArrangeTime = time.Since(arrangeStart)
	result.CacheInfo.ArrangeHit = hit
	if data, err := graph.Marshal(arranged, graph.FormatJSON); err == nil {
		result.DocumentHash = cache.Hash(data)
	}

	opts.Logger.Info("arranged document",
		"nodes", result.Stats.NodeCount,
		"links", result.Stats.LinkCount,
		"cached", hit,
		"duration", result.Stats.ArrangeTime)

	return result, nil
}

// ArrangeWithCacheInfo arranges doc with caching and returns cache hit
// info. onProgress, if set, is called after every yield of the solver.
// When ctx is canceled the partially arranged document is returned along
// with ctx.Err(). Positions applied before the cancel are kept, but the
// document is not cached.
func (r *Runner) ArrangeWithCacheInfo(ctx context.Context, doc graph.Document, opts Options, onProgress func(arrange.Progress)) (graph.Document, bool, error) {
	r.applyLogger(&opts)
	if err := opts.Arrange.Validate(); err != nil {
		return graph.Document{}, false, err
	}
	arranged, _, hit, err := r.arrange(ctx, doc, opts, onProgress)
	return arranged, hit, err
}

// Arrange is a convenience wrapper that calls ArrangeWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Arrange(ctx context.Context, doc graph.Document, opts Options, onProgress func(arrange.Progress)) (graph.Document, error) {
	arranged, _, err := r.ArrangeWithCacheInfo(ctx, doc, opts, onProgress)
	return arranged, err
}

func (r *Runner) arrange(ctx context.Context, doc graph.Document, opts Options, onProgress func(arrange.Progress)) (graph.Document, arrange.Result, bool, error) {
	docData, err := graph.Marshal(doc, graph.FormatJSON)
	if err != nil {
		return graph.Document{}, arrange.Result{}, false, err
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(docData), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cached, err := graph.Unmarshal(data, graph.FormatJSON)
			if err == nil {
				return cached, arrange.Result{}, true, nil
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "key", cacheKey, "err", err)
		}
	}

	g, err := graph.ToNodeGraph(doc)
	if err != nil {
		return graph.Document{}, arrange.Result{}, false, err
	}
	task, err := arrange.New(g, opts.Arrange, arrange.WithLogger(opts.Logger), arrange.WithContext(ctx))
	if err != nil {
		return graph.Document{}, arrange.Result{}, false, err
	}
	if err := task.Run(ctx, onProgress); err != nil {
		if task.Canceled() {
			return graph.FromNodeGraph(g), task.Result(), false, err
		}
		return graph.Document{}, task.Result(), false, err
	}

	arranged := graph.FromNodeGraph(g)
	if data, err := graph.Marshal(arranged, graph.FormatJSON); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		}
	}
	return arranged, task.Result(), false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
