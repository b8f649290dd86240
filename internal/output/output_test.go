package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dartbridge/internal/engine/ir"
	"dartbridge/internal/engine/validator"
)

func sampleApp() *ir.ApplicationDeclaration {
	g := ir.NewComponentGraph()
	g.AddNode("CartPage", ir.NodeComponent)
	g.AddNode("_CartPageState", ir.NodeStateHolder)
	g.AddNode("PriceLabel", ir.NodeComponent)
	g.AddNode("CartStore", ir.NodeObservableState)
	g.AddEdge("CartPage", "_CartPageState", ir.EdgeHasState)
	g.AddEdge("CartPage", "PriceLabel", ir.EdgeComposes)
	g.AddEdge("PriceLabel", "CartStore", ir.EdgeDependsOn)

	return &ir.ApplicationDeclaration{
		Components: []*ir.ComponentDeclaration{
			{Name: "CartPage", Kind: ir.Stateful},
			{Name: "PriceLabel", Kind: ir.Stateless},
		},
		StateHolders:     []*ir.StateHolderDeclaration{{Name: "_CartPageState"}},
		ObservableStates: []*ir.ObservableStateDeclaration{{Name: "CartStore"}},
		Graph:            g,
	}
}

func TestDOTGeneration(t *testing.T) {
	app := sampleApp()
	result := &validator.Result{
		Valid:  false,
		Errors: []validator.Issue{{Kind: validator.IssueMissingBuild, Subject: "PriceLabel", Message: "no build method"}},
	}

	dot := NewDOTGenerator(app).Generate(result)

	for _, want := range []string{
		"digraph components",
		`"CartPage" -> "_CartPageState"`,
		`"CartPage" -> "PriceLabel"`,
		`label="observes"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q", want)
		}
	}
	if !strings.Contains(dot, `"PriceLabel" [label="PriceLabel", fillcolor="mistyrose"`) {
		t.Error("flagged subject must render highlighted")
	}
}

func TestDOTDeterministic(t *testing.T) {
	app := sampleApp()
	a := NewDOTGenerator(app).Generate(nil)
	b := NewDOTGenerator(app).Generate(nil)
	if a != b {
		t.Error("identical input must render identical DOT")
	}
}

func TestJSONReportRoundTrips(t *testing.T) {
	app := sampleApp()
	result := &validator.Result{Valid: true}

	data, err := JSONReport(app, result, Summary{RunID: "r1", Files: 3, CacheHits: 1})
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded["valid"] != true {
		t.Error("valid flag lost")
	}
	nodes, ok := decoded["nodes"].([]any)
	if !ok || len(nodes) != 4 {
		t.Errorf("expected 4 nodes, got %v", decoded["nodes"])
	}
	edges, ok := decoded["edges"].([]any)
	if !ok || len(edges) != 3 {
		t.Errorf("expected 3 edges, got %v", decoded["edges"])
	}
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	app := sampleApp()

	if err := WriteAll(dir, app, &validator.Result{Valid: true}, Summary{RunID: "r1"}); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"report.json", "components.dot"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}
