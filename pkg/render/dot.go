package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/noderelax/pkg/nodegraph"
	"github.com/matzehuels/noderelax/pkg/relax"
)

const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// PortLabels labels each edge end with its port name.
	PortLabels bool
	// HideFrames leaves frames out of the drawing.
	HideFrames bool
}

// ToDOT converts a node graph to Graphviz DOT source with every node pinned
// at its global location. The result is meant for the neato engine, which
// honors pinned positions; [RenderSVG] and [RenderPNG] select it.
//
// Selected nodes are drawn with a bold outline. A parent cycle is returned
// as an error since no global location exists for the nodes on it.
func ToDOT(g *nodegraph.Graph, opts Options) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  outputorder=nodesfirst;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, fontsize=12];\n")
	buf.WriteString("  edge [arrowsize=0.6, fontsize=9];\n")
	buf.WriteString("\n")

	if !opts.HideFrames {
		for _, n := range g.Nodes {
			if !n.IsFrame() {
				continue
			}
			attrs, err := nodeAttrs(n)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(attrs, ", "))
		}
	}

	for _, n := range g.Nodes {
		if n.IsFrame() {
			continue
		}
		attrs, err := nodeAttrs(n)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links() {
		from, to := l.FromNode(), l.ToNode()
		if from.IsFrame() || to.IsFrame() {
			continue
		}
		if opts.PortLabels {
			fmt.Fprintf(&buf, "  %q -> %q [taillabel=%q, headlabel=%q];\n",
				from.Name, to.Name, l.From.Name, l.To.Name)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", from.Name, to.Name)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func nodeAttrs(n *nodegraph.Node) ([]string, error) {
	loc, err := n.GlobalLocation()
	if err != nil {
		return nil, err
	}
	c := relax.Center(loc, n.Size)
	attrs := []string{
		fmt.Sprintf("label=%q", n.Name),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(c.X), fmtFloat(c.Y)),
		fmt.Sprintf("width=%s", fmtFloat(n.Size.X/pointsPerInch)),
		fmt.Sprintf("height=%s", fmtFloat(n.Size.Y/pointsPerInch)),
	}
	switch {
	case n.IsFrame():
		attrs = append(attrs, "style=\"rounded,dashed\"", "color=grey50", "fontcolor=grey40", "labelloc=t")
	case n.Selected:
		attrs = append(attrs, "penwidth=2.5")
	}
	return attrs, nil
}

func fmtFloat(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
