// Package output renders a linked application as artifacts for humans and
// tooling: a Graphviz view of the component graph and a JSON report.
package output

import (
	"fmt"
	"sort"
	"strings"

	"dartbridge/internal/engine/ir"
	"dartbridge/internal/engine/validator"
)

type DOTGenerator struct {
	app *ir.ApplicationDeclaration
}

func NewDOTGenerator(app *ir.ApplicationDeclaration) *DOTGenerator {
	return &DOTGenerator{app: app}
}

// Generate renders the component graph. Node shape follows the declaration
// kind; validation errors highlight their subject in red.
func (d *DOTGenerator) Generate(result *validator.Result) string {
	var buf strings.Builder

	buf.WriteString("digraph components {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.5;\n\n")

	flagged := make(map[string]bool)
	if result != nil {
		for _, issue := range result.Errors {
			flagged[issue.Subject] = true
		}
	}

	g := d.app.Graph
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		attrs := nodeAttrs(g.Nodes[name])
		if flagged[name] {
			attrs = "fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0, style=\"rounded,filled\""
		}
		buf.WriteString(fmt.Sprintf("  %q [label=%q, %s];\n", name, name, attrs))
	}
	buf.WriteString("\n")

	g.Sort()
	for _, e := range g.Edges {
		buf.WriteString(fmt.Sprintf("  %q -> %q [%s];\n", e.From, e.To, edgeAttrs(e.Kind)))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(kind ir.NodeKind) string {
	switch kind {
	case ir.NodeStateHolder:
		return "fillcolor=\"lightyellow\", style=\"rounded,filled\", color=\"darkgoldenrod\""
	case ir.NodeObservableState:
		return "fillcolor=\"lightcyan\", style=\"rounded,filled\", color=\"teal\""
	default:
		return "fillcolor=\"white\", style=\"rounded,filled\", color=\"darkslategrey\""
	}
}

func edgeAttrs(kind ir.EdgeKind) string {
	switch kind {
	case ir.EdgeHasState:
		return "color=\"darkgoldenrod\", style=dashed, label=\"state\""
	case ir.EdgeDependsOn:
		return "color=\"teal\", style=dotted, label=\"observes\""
	default:
		return "color=\"forestgreen\", penwidth=1.6"
	}
}
