package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/noderelax/pkg/errors"
)

func sampleDoc() Document {
	return Document{
		Nodes: []Node{
			{Name: "Frame", Kind: KindFrame, X: -50, Y: 50, Width: 600, Height: 300},
			{Name: "Texture", X: 0, Y: 0, Width: 140, Height: 120, Parent: "Frame", Outputs: []string{"Color", "Alpha"}},
			{Name: "Mix", X: 300, Y: -20, Width: 140, Height: 100, Selected: true, Inputs: []string{"A", "B"}, Outputs: []string{"Result"}},
			{Name: "Output", X: 600, Y: 0, Width: 120, Height: 80, Inputs: []string{"Surface"}},
		},
		Links: []Link{
			{From: "Texture.Color", To: "Mix.A"},
			{From: "Texture.Alpha", To: "Mix.B"},
			{From: "Mix.Result", To: "Output.Surface"},
		},
	}
}

func TestToNodeGraph(t *testing.T) {
	g, err := ToNodeGraph(sampleDoc())
	if err != nil {
		t.Fatalf("ToNodeGraph: %v", err)
	}
	if len(g.Nodes) != 4 || g.LinkCount() != 3 {
		t.Fatalf("nodes=%d links=%d", len(g.Nodes), g.LinkCount())
	}

	frame, tex, mix := g.Node("Frame"), g.Node("Texture"), g.Node("Mix")
	if !frame.IsFrame() || mix.IsFrame() {
		t.Error("kinds not mapped")
	}
	if tex.Parent != frame {
		t.Error("parent not resolved")
	}
	if !mix.Selected {
		t.Error("selection lost")
	}
	if mix.Size != (r2.Vec{X: 140, Y: 100}) || mix.Location != (r2.Vec{X: 300, Y: -20}) {
		t.Errorf("geometry = %v %v", mix.Location, mix.Size)
	}
	if len(mix.Inputs[1].Links) != 1 || mix.Inputs[1].Links[0].FromNode() != tex {
		t.Error("link Texture.Alpha -> Mix.B not built")
	}
	if got, _ := tex.GlobalLocation(); got != (r2.Vec{X: -50, Y: 50}) {
		t.Errorf("Texture global = %v", got)
	}
}

func TestToNodeGraphErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
		code   errors.Code
	}{
		{"empty name", func(d *Document) { d.Nodes[1].Name = "" }, errors.ErrCodeInvalidGraph},
		{"dotted name", func(d *Document) { d.Nodes[1].Name = "a.b" }, errors.ErrCodeInvalidGraph},
		{"duplicate name", func(d *Document) { d.Nodes[2].Name = "Texture" }, errors.ErrCodeInvalidGraph},
		{"negative size", func(d *Document) { d.Nodes[2].Width = -1 }, errors.ErrCodeInvalidGraph},
		{"duplicate port", func(d *Document) { d.Nodes[2].Inputs = []string{"A", "A"} }, errors.ErrCodeInvalidGraph},
		{"unknown parent", func(d *Document) { d.Nodes[1].Parent = "Nope" }, errors.ErrCodeInvalidGraph},
		{"parent cycle", func(d *Document) { d.Nodes[0].Parent = "Texture" }, errors.ErrCodeParentCycle},
		{"malformed endpoint", func(d *Document) { d.Links[0].From = "Texture" }, errors.ErrCodeInvalidGraph},
		{"unknown node", func(d *Document) { d.Links[0].From = "Nope.Color" }, errors.ErrCodeInvalidGraph},
		{"unknown port", func(d *Document) { d.Links[0].To = "Mix.C" }, errors.ErrCodeInvalidGraph},
		{"input used as source", func(d *Document) { d.Links[0].From = "Mix.A" }, errors.ErrCodeInvalidGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDoc()
			tt.mutate(&doc)
			_, err := ToNodeGraph(doc)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestFromNodeGraphRoundTrip(t *testing.T) {
	doc := sampleDoc()
	g, err := ToNodeGraph(doc)
	if err != nil {
		t.Fatal(err)
	}
	g.Node("Mix").Location = r2.Vec{X: 320, Y: -40}

	out := FromNodeGraph(g)
	if len(out.Nodes) != len(doc.Nodes) || len(out.Links) != len(doc.Links) {
		t.Fatalf("round trip lost data: %+v", out)
	}
	for i := range doc.Nodes {
		if out.Nodes[i].Name != doc.Nodes[i].Name {
			t.Errorf("node %d = %s, want %s", i, out.Nodes[i].Name, doc.Nodes[i].Name)
		}
	}
	for i := range doc.Links {
		if out.Links[i] != doc.Links[i] {
			t.Errorf("link %d = %v, want %v", i, out.Links[i], doc.Links[i])
		}
	}
	if out.Nodes[2].X != 320 || out.Nodes[2].Y != -40 {
		t.Errorf("moved node = (%v, %v)", out.Nodes[2].X, out.Nodes[2].Y)
	}
	if out.Nodes[0].Kind != KindFrame || out.Nodes[1].Parent != "Frame" {
		t.Error("kind or parent lost")
	}
}

func TestReadWriteFormats(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Marshal(sampleDoc(), format)
			if err != nil {
				t.Fatal(err)
			}
			doc, err := Unmarshal(data, format)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := ToNodeGraph(doc); err != nil {
				t.Fatalf("decoded document invalid: %v", err)
			}
			if doc.Nodes[2].Inputs[1] != "B" || doc.Links[2].To != "Output.Surface" {
				t.Errorf("decoded = %+v", doc)
			}
		})
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	if _, err := Read(strings.NewReader("{not json"), FormatJSON); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("json garbage: %v", err)
	}
	if _, err := Read(strings.NewReader(`{"nodes": [], "edges": []}`), FormatJSON); err == nil {
		t.Error("unknown field should be rejected")
	}
	if _, err := Read(strings.NewReader("nodes: [\n"), FormatYAML); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("yaml garbage: %v", err)
	}
	if err := Write(&bytes.Buffer{}, Document{}, "xml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown format: %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"graph.json", "graph.yaml"} {
		path := filepath.Join(dir, name)
		g, err := ToNodeGraph(sampleDoc())
		if err != nil {
			t.Fatal(err)
		}
		if err := WriteGraphFile(path, g); err != nil {
			t.Fatal(err)
		}
		back, err := ReadGraphFile(path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if back.LinkCount() != 3 || back.Node("Texture").Parent != back.Node("Frame") {
			t.Errorf("%s: graph changed on disk", name)
		}
	}

	raw, _ := os.ReadFile(filepath.Join(dir, "graph.yaml"))
	if !strings.Contains(string(raw), "name: Texture") {
		t.Errorf("yaml file does not look like yaml:\n%s", raw)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestFormats(t *testing.T) {
	tests := map[string]Format{
		"a.json": FormatJSON,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %v, want %v", path, got, want)
		}
	}
	if f, err := ParseFormat("YML"); err != nil || f != FormatYAML {
		t.Errorf("ParseFormat(YML) = %v, %v", f, err)
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Error("ParseFormat(toml) should fail")
	}
}

func TestEmptyGraph(t *testing.T) {
	g, err := ToNodeGraph(Document{})
	if err != nil {
		t.Fatal(err)
	}
	if doc := FromNodeGraph(g); len(doc.Nodes) != 0 || doc.Links != nil {
		t.Errorf("empty round trip = %+v", doc)
	}
}
