package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/noderelax/pkg/arrange"
	"github.com/matzehuels/noderelax/pkg/cache"
	"github.com/matzehuels/noderelax/pkg/errors"
	"github.com/matzehuels/noderelax/pkg/graph"
)

func sampleDoc() graph.Document {
	return graph.Document{
		Nodes: []graph.Node{
			{Name: "Texture", X: 0, Y: 0, Width: 140, Height: 120, Outputs: []string{"Color"}},
			{Name: "Mix", X: 60, Y: -30, Width: 140, Height: 100, Inputs: []string{"A"}, Outputs: []string{"Result"}},
			{Name: "Output", X: 90, Y: 10, Width: 120, Height: 80, Inputs: []string{"Surface"}},
		},
		Links: []graph.Link{
			{From: "Texture.Color", To: "Mix.A"},
			{From: "Mix.Result", To: "Output.Surface"},
		},
	}
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.Arrange.Iterations = [arrange.Phases]int{20, 20, 20, 20}
	opts.Render.Formats = []string{"dot"}
	return opts
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"dot", false},
		{"json", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Arrange != arrange.DefaultConfig() {
		t.Errorf("Arrange = %+v, want defaults", opts.Arrange)
	}
	if opts.Brush.BrushSize != 150 {
		t.Errorf("BrushSize = %v, want 150", opts.Brush.BrushSize)
	}
	if len(opts.Render.Formats) != 1 || opts.Render.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v, want [%s]", opts.Render.Formats, DefaultFormat)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"negative iterations", func(o *Options) { o.Arrange.Iterations[2] = -1 }},
		{"background too high", func(o *Options) { o.Arrange.BackgroundIterations = 11 }},
		{"brush power", func(o *Options) { o.Brush.SlidePower = 2 }},
		{"format", func(o *Options) { o.Render.Formats = []string{"gif"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			if err := opts.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestLayoutKeyOptsIgnoresBackgroundIterations(t *testing.T) {
	a := DefaultOptions()
	b := DefaultOptions()
	b.Arrange.BackgroundIterations = 7
	if a.LayoutKeyOpts() != b.LayoutKeyOpts() {
		t.Error("background iterations should not change the layout key")
	}
	b.Arrange.Distance = 40
	if a.LayoutKeyOpts() == b.LayoutKeyOpts() {
		t.Error("distance should change the layout key")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	opts := DefaultOptions()
	opts.Arrange.Distance = 42
	opts.Arrange.Iterations = [arrange.Phases]int{1, 2, 3, 4}
	opts.Brush.BrushSize = 300
	opts.Render.Formats = []string{"svg", "png"}

	var buf bytes.Buffer
	if err := WriteConfig(&buf, opts); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	for _, section := range []string{"[arrange]", "[brush]", "[render]"} {
		if !strings.Contains(buf.String(), section) {
			t.Errorf("config missing %s:\n%s", section, buf.String())
		}
	}

	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Arrange != opts.Arrange {
		t.Errorf("Arrange = %+v, want %+v", loaded.Arrange, opts.Arrange)
	}
	if loaded.Brush != opts.Brush {
		t.Errorf("Brush = %+v, want %+v", loaded.Brush, opts.Brush)
	}
	if strings.Join(loaded.Render.Formats, ",") != "svg,png" {
		t.Errorf("Formats = %v", loaded.Render.Formats)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("[arrange]\ndistance = 120.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if opts.Arrange.Distance != 120 {
		t.Errorf("Distance = %v, want 120", opts.Arrange.Distance)
	}
	if opts.Arrange.Iterations != arrange.DefaultConfig().Iterations {
		t.Errorf("Iterations should keep defaults, got %v", opts.Arrange.Iterations)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	if err := os.WriteFile(unknown, []byte("[arrange]\ndistanse = 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(unknown); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("unknown key error = %v, want INVALID_CONFIG", err)
	}

	invalid := filepath.Join(dir, "invalid.toml")
	if err := os.WriteFile(invalid, []byte("[brush]\nrelax_power = 5.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(invalid); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("out of range error = %v, want INVALID_CONFIG", err)
	}

	missing := filepath.Join(dir, "missing.toml")
	if _, err := LoadConfig(missing); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file error = %v, want NOT_FOUND", err)
	}
	opts, err := LoadConfigOrDefault(missing)
	if err != nil {
		t.Fatalf("LoadConfigOrDefault: %v", err)
	}
	if opts.Arrange != arrange.DefaultConfig() {
		t.Error("LoadConfigOrDefault should return defaults for a missing file")
	}
}

func TestRunnerArrangeCaches(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	defer r.Close()
	opts := fastOptions()

	progress := 0
	first, hit, err := r.ArrangeWithCacheInfo(ctx, sampleDoc(), opts, func(arrange.Progress) { progress++ })
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if hit {
		t.Error("first run should miss the cache")
	}
	if progress == 0 {
		t.Error("onProgress was never called")
	}
	if len(first.Nodes) != 3 || len(first.Links) != 2 {
		t.Fatalf("arranged document lost content: %+v", first)
	}

	second, hit, err := r.ArrangeWithCacheInfo(ctx, sampleDoc(), opts, nil)
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if !hit {
		t.Error("second run should hit the cache")
	}
	for i := range first.Nodes {
		a, b := first.Nodes[i], second.Nodes[i]
		if a.Name != b.Name || a.X != b.X || a.Y != b.Y {
			t.Errorf("cached node %d = %s (%v, %v), want %s (%v, %v)", i, b.Name, b.X, b.Y, a.Name, a.X, a.Y)
		}
	}

	opts.Refresh = true
	if _, hit, _ := r.ArrangeWithCacheInfo(ctx, sampleDoc(), opts, nil); hit {
		t.Error("Refresh should bypass cache reads")
	}
}

func TestRunnerArrangeCanceled(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Arrange(ctx, sampleDoc(), fastOptions(), nil); err != context.Canceled {
		t.Fatalf("Arrange error = %v, want context.Canceled", err)
	}

	_, hit, err := r.ArrangeWithCacheInfo(context.Background(), sampleDoc(), fastOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("a canceled run must not be cached")
	}
}

func TestRunnerArrangeCanceledKeepsPositions(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)

	opts := fastOptions()
	opts.Arrange.Adaptive = false
	opts.Arrange.Iterations = [arrange.Phases]int{50, 50, 50, 50}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	onProgress := func(arrange.Progress) {
		if calls++; calls == 3 {
			cancel()
		}
	}

	doc := sampleDoc()
	arranged, err := r.Arrange(ctx, doc, opts, onProgress)
	if err != context.Canceled {
		t.Fatalf("Arrange error = %v, want context.Canceled", err)
	}
	if len(arranged.Nodes) != len(doc.Nodes) || len(arranged.Links) != len(doc.Links) {
		t.Fatalf("partial document = %d nodes, %d links, want %d, %d",
			len(arranged.Nodes), len(arranged.Links), len(doc.Nodes), len(doc.Links))
	}
	moved := false
	for i, n := range arranged.Nodes {
		if n.Name != doc.Nodes[i].Name {
			t.Errorf("node %d = %q, want %q", i, n.Name, doc.Nodes[i].Name)
		}
		if n.X != doc.Nodes[i].X || n.Y != doc.Nodes[i].Y {
			moved = true
		}
	}
	if !moved {
		t.Error("positions applied before the cancel were discarded")
	}

	_, hit, err := r.ArrangeWithCacheInfo(context.Background(), doc, fastOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("a canceled run must not be cached")
	}
}

func TestRunnerExecuteArrangeCanceled(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := r.ExecuteArrange(ctx, sampleDoc(), fastOptions(), nil)
	if err == nil {
		t.Fatal("ExecuteArrange on a canceled context: want error")
	}
	if res == nil || !res.Arrange.Canceled {
		t.Fatalf("ExecuteArrange result = %+v, want a canceled run", res)
	}
	if len(res.Document.Nodes) != len(sampleDoc().Nodes) {
		t.Errorf("partial document has %d nodes, want %d", len(res.Document.Nodes), len(sampleDoc().Nodes))
	}
	if res.Artifacts != nil {
		t.Error("a canceled run should not render")
	}
}

func TestRunnerArrangeInvalid(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	doc := graph.Document{Links: []graph.Link{{From: "A.out", To: "B.in"}}}
	if _, err := r.Arrange(context.Background(), doc, fastOptions(), nil); !errors.Is(err, errors.ErrCodeInvalidGraph) {
		t.Errorf("Arrange error = %v, want INVALID_GRAPH", err)
	}

	opts := fastOptions()
	opts.Arrange.Distance = 0
	opts.Arrange.BackgroundIterations = -1
	if _, err := r.Arrange(context.Background(), sampleDoc(), opts, nil); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Arrange error = %v, want INVALID_CONFIG", err)
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)

	result, err := r.Execute(ctx, sampleDoc(), fastOptions(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	dot := string(result.Artifacts["dot"])
	if !strings.HasPrefix(dot, "digraph G {") || !strings.Contains(dot, `"Texture" -> "Mix";`) {
		t.Errorf("dot artifact = %s", dot)
	}
	if result.CacheInfo.ArrangeHit || result.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want misses", result.CacheInfo)
	}
	if result.Stats.NodeCount != 3 || result.Stats.LinkCount != 2 {
		t.Errorf("Stats = %+v", result.Stats)
	}
	if result.DocumentHash == "" {
		t.Error("DocumentHash should be set")
	}

	again, err := r.Execute(ctx, sampleDoc(), fastOptions(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !again.CacheInfo.ArrangeHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", again.CacheInfo)
	}
	if string(again.Artifacts["dot"]) != dot {
		t.Error("cached artifact differs from the rendered one")
	}
}

func TestRunnerExecuteArrange(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := fastOptions()
	opts.Arrange.Adaptive = false

	result, err := r.ExecuteArrange(context.Background(), sampleDoc(), opts, nil)
	if err != nil {
		t.Fatalf("ExecuteArrange: %v", err)
	}
	if result.Artifacts != nil {
		t.Errorf("Artifacts = %v, want none", result.Artifacts)
	}
	for i, n := range result.Arrange.Iterations {
		if n != 20 {
			t.Errorf("phase %d ran %d iterations, want 20", i+1, n)
		}
	}
	if result.DocumentHash == "" {
		t.Error("DocumentHash should be set")
	}
}
