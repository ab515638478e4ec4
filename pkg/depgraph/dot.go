package depgraph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/vup-linux/vuru/pkg/resolve"
)

// Options configures DOT generation.
type Options struct {
	// Detailed appends the source kind to each node label.
	Detailed bool
}

// ToDOT converts a graph to Graphviz DOT. Nodes and edges are emitted
// in insertion order, so graphs built by FromResolution serialize
// deterministically. The result can be rendered with RenderSVG or
// RenderPNG.
func ToDOT(g *Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph deps {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := nodeAttrs(*n, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n Node, detailed bool) []string {
	label := n.DisplayLabel()
	if detailed && n.Source != "" {
		label += "\n" + n.Source
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}

	switch n.Source {
	case string(resolve.SourceCommunityBinary):
		attrs = append(attrs, "fillcolor=lightblue")
	case string(resolve.SourceCommunitySource):
		attrs = append(attrs, "fillcolor=orange")
	case string(resolve.SourceAlreadyInstalled):
		attrs = append(attrs, "fillcolor=lightgrey")
	case string(resolve.SourceUnresolved):
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=mistyrose", "color=red")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
