package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/classify"
	"github.com/matzehuels/boardpack/pkg/cluster"
)

// DOT writes the connectivity graph of b as an undirected Graphviz graph.
// Each cluster becomes a subgraph; major components are boxes, basic ones
// ellipses, orphans grey.
func DOT(b *board.Board, clusters cluster.Result, c *classify.Classifier) string {
	if c == nil {
		c = classify.Default
	}
	g := b.Graph()

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("\n")

	for i, cl := range clusters.Clusters {
		fmt.Fprintf(&buf, "  subgraph \"cluster_%d\" {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", cl.Seed)
		buf.WriteString("    style=dashed;\n")
		for _, ref := range cl.Members {
			fmt.Fprintf(&buf, "    %q [%s];\n", ref, nodeAttrs(ref, c, clusterColor(i)))
		}
		buf.WriteString("  }\n")
	}
	placed := clusters.Index()
	for _, ref := range g.Nodes() {
		if _, ok := placed[ref]; ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", ref, nodeAttrs(ref, c, unplacedColor))
	}

	buf.WriteString("\n")
	for _, p := range g.Pairs() {
		fmt.Fprintf(&buf, "  %q -- %q;\n", p.A, p.B)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(ref string, c *classify.Classifier, col rgb) string {
	shape := "box"
	if c.IsBasic(ref) {
		shape = "ellipse"
	}
	return fmt.Sprintf("shape=%s, fillcolor=%q", shape, col.hex())
}

// DOTToSVG lays out a DOT graph with Graphviz and returns SVG.
func DOTToSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
