package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/noderelax/pkg/cache"
	"github.com/matzehuels/noderelax/pkg/graph"
	"github.com/matzehuels/noderelax/pkg/observability"
	"github.com/matzehuels/noderelax/pkg/render"
)

// RenderWithCacheInfo renders doc in every requested format with caching
// and reports whether all artifacts came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc graph.Document, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	docData, err := graph.Marshal(doc, graph.FormatJSON)
	if err != nil {
		return nil, false, fmt.Errorf("serialize document for cache key: %w", err)
	}
	docHash := cache.Hash(docData)

	artifacts := make(map[string][]byte, len(opts.Render.Formats))
	if !opts.Refresh {
		for _, format := range opts.Render.Formats {
			key := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Render.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, doc, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.ArtifactTTL)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, doc graph.Document, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, doc, opts)
	return artifacts, err
}

// Render draws doc in every format of opts.Render.Formats without caching.
func Render(ctx context.Context, doc graph.Document, opts Options) (artifacts map[string][]byte, err error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Render.Formats)
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Render.Formats, time.Since(start), err)
	}()

	g, err := graph.ToNodeGraph(doc)
	if err != nil {
		return nil, err
	}

	artifacts = make(map[string][]byte, len(opts.Render.Formats))
	for _, name := range opts.Render.Formats {
		format, err := render.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		data, err := render.Render(ctx, g, format, opts.renderOptions())
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		artifacts[name] = data
	}
	return artifacts, nil
}
