package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dartbridge/internal/engine/ir"
	"dartbridge/internal/engine/validator"
)

// Summary carries the run-level numbers into the report without coupling
// this package to the pipeline.
type Summary struct {
	RunID     string        `json:"run_id"`
	Files     int           `json:"files"`
	Dirty     int           `json:"dirty"`
	CacheHits int           `json:"cache_hits"`
	Failed    []string      `json:"failed,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

type reportEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

type reportNode struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Summary     Summary           `json:"summary"`
	Valid       bool              `json:"valid"`
	Errors      []validator.Issue `json:"errors"`
	Warnings    []validator.Issue `json:"warnings"`
	Nodes       []reportNode      `json:"nodes"`
	Edges       []reportEdge      `json:"edges"`
}

// JSONReport marshals the component graph and validation outcome.
func JSONReport(app *ir.ApplicationDeclaration, result *validator.Result, summary Summary) ([]byte, error) {
	r := report{
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
		Valid:       result.Valid,
		Errors:      result.Errors,
		Warnings:    result.Warnings,
	}
	if r.Errors == nil {
		r.Errors = []validator.Issue{}
	}
	if r.Warnings == nil {
		r.Warnings = []validator.Issue{}
	}

	g := app.Graph
	g.Sort()
	for _, e := range g.Edges {
		r.Edges = append(r.Edges, reportEdge{From: e.From, To: e.To, Kind: e.Kind.String()})
	}
	for _, c := range app.Components {
		r.Nodes = append(r.Nodes, reportNode{Name: c.Name, Kind: g.Nodes[c.Name].String()})
	}
	for _, s := range app.StateHolders {
		r.Nodes = append(r.Nodes, reportNode{Name: s.Name, Kind: ir.NodeStateHolder.String()})
	}
	for _, o := range app.ObservableStates {
		r.Nodes = append(r.Nodes, reportNode{Name: o.Name, Kind: ir.NodeObservableState.String()})
	}

	return json.MarshalIndent(r, "", "  ")
}

// WriteAll drops report.json and components.dot into dir, creating it if
// needed.
func WriteAll(dir string, app *ir.ApplicationDeclaration, result *validator.Result, summary Summary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %q: %w", dir, err)
	}

	data, err := JSONReport(app, result, summary)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.json"), data, 0o644); err != nil {
		return err
	}

	dot := NewDOTGenerator(app).Generate(result)
	return os.WriteFile(filepath.Join(dir, "components.dot"), []byte(dot), 0o644)
}
