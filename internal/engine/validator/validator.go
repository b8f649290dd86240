// Package validator runs the structural checks over a linked application
// declaration. Errors mark the declaration invalid; warnings are advisory.
// Validation never stops linking or caching.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"dartbridge/internal/engine/graph"
	"dartbridge/internal/engine/ir"
	"dartbridge/internal/engine/symbols"
	"dartbridge/internal/shared/observability"
)

type IssueKind string

const (
	IssueDuplicateName      IssueKind = "duplicate-name"
	IssueMissingBuild       IssueKind = "missing-build"
	IssueUnboundState       IssueKind = "unbound-state"
	IssueContradictoryProp  IssueKind = "contradictory-property"
	IssueUnknownType        IssueKind = "unknown-type"
	IssueOrphanedState      IssueKind = "orphaned-state-holder"
	IssueMissingDispose     IssueKind = "missing-dispose"
	IssueUndisposed         IssueKind = "undisposed-controller"
	IssueSilentMutator      IssueKind = "silent-mutator"
	IssueComponentCycle     IssueKind = "component-cycle"
	IssueDuplicateImport    IssueKind = "duplicate-import"
	IssueDeferredImport     IssueKind = "deferred-import"
	IssueUnresolvedCreateFn IssueKind = "unresolved-state-factory"
)

type Issue struct {
	Kind    IssueKind `json:"kind"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Kind, i.Subject, i.Message)
}

// Result carries the validation outcome. Valid is false exactly when Errors
// is non-empty.
type Result struct {
	Valid    bool
	Errors   []Issue
	Warnings []Issue
}

// builtinTypes is the allowlist of type names that never need a registry
// entry: language primitives and the framework surface an extracted
// property commonly names.
var builtinTypes = map[string]bool{
	"void": true, "dynamic": true, "Object": true, "Null": true,
	"bool": true, "int": true, "double": true, "num": true, "String": true,
	"List": true, "Map": true, "Set": true, "Iterable": true,
	"Future": true, "Stream": true, "Duration": true, "DateTime": true,
	"Function": true, "Symbol": true, "Type": true,
	"Widget": true, "Key": true, "BuildContext": true, "Color": true,
	"TextStyle": true, "EdgeInsets": true, "Alignment": true, "IconData": true,
	"VoidCallback": true, "ValueChanged": true, "GlobalKey": true,
}

type validator struct {
	app      *ir.ApplicationDeclaration
	registry *symbols.Registry
	errors   []Issue
	warnings []Issue
}

// Validate runs every check and returns the accumulated result.
func Validate(app *ir.ApplicationDeclaration, registry *symbols.Registry) *Result {
	v := &validator{app: app, registry: registry}

	v.checkDuplicates()
	v.checkBuildMethods()
	v.checkStateBindings()
	v.checkProperties()
	v.checkStateHolders()
	v.checkMutators()
	v.checkComponentCycles()
	v.checkImports()

	observability.ValidationErrors.Set(float64(len(v.errors)))
	observability.ValidationWarnings.Set(float64(len(v.warnings)))

	return &Result{
		Valid:    len(v.errors) == 0,
		Errors:   v.errors,
		Warnings: v.warnings,
	}
}

func (v *validator) errorf(kind IssueKind, subject, format string, args ...interface{}) {
	v.errors = append(v.errors, Issue{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) warnf(kind IssueKind, subject, format string, args ...interface{}) {
	v.warnings = append(v.warnings, Issue{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) checkDuplicates() {
	dup := func(group string, names []string) {
		seen := make(map[string]bool, len(names))
		for _, n := range names {
			if seen[n] {
				v.errorf(IssueDuplicateName, n, "duplicate %s name", group)
			}
			seen[n] = true
		}
	}

	comps := make([]string, 0, len(v.app.Components))
	for _, c := range v.app.Components {
		comps = append(comps, c.Name)
	}
	holders := make([]string, 0, len(v.app.StateHolders))
	for _, s := range v.app.StateHolders {
		holders = append(holders, s.Name)
	}
	obs := make([]string, 0, len(v.app.ObservableStates))
	for _, o := range v.app.ObservableStates {
		obs = append(obs, o.Name)
	}

	dup("component", comps)
	dup("state holder", holders)
	dup("observable state holder", obs)
}

func (v *validator) checkBuildMethods() {
	for _, c := range v.app.Components {
		if c.Kind == ir.Stateful {
			// A stateful component renders through its state holder; its
			// own build is optional.
			continue
		}
		if c.Build == nil {
			v.errorf(IssueMissingBuild, c.Name, "component declares no build method")
		}
	}
	for _, s := range v.app.StateHolders {
		if !hasBuild(s) {
			v.errorf(IssueMissingBuild, s.Name, "state holder declares no build method")
		}
	}
}

func hasBuild(s *ir.StateHolderDeclaration) bool {
	for _, m := range s.Methods {
		if m.Name == "build" {
			return true
		}
	}
	return false
}

func (v *validator) checkStateBindings() {
	for _, c := range v.app.Components {
		if c.Kind != ir.Stateful {
			continue
		}
		if c.StateHolderName == "" {
			v.errorf(IssueUnresolvedCreateFn, c.Name,
				"state factory does not resolve to a state holder")
			continue
		}
		if v.app.StateHolder(c.StateHolderName) == nil {
			v.errorf(IssueUnboundState, c.Name,
				"bound state holder %s is not declared", c.StateHolderName)
		}
	}
}

func (v *validator) checkProperties() {
	for _, c := range v.app.Components {
		for _, p := range c.Properties {
			if p.Required && p.DefaultValue != nil {
				v.warnf(IssueContradictoryProp, c.Name,
					"property %s is required but carries a default value", p.Name)
			}
			if p.TypeName == "" || builtinTypes[p.TypeName] {
				continue
			}
			if _, ok := v.registry.Lookup(p.TypeName); !ok {
				v.warnf(IssueUnknownType, c.Name,
					"property %s has unknown type %s", p.Name, p.TypeName)
			}
		}
	}
}

func (v *validator) checkStateHolders() {
	for _, s := range v.app.StateHolders {
		if s.ComponentName != "" && v.app.Component(s.ComponentName) == nil {
			v.warnf(IssueOrphanedState, s.Name,
				"bound component %s is not declared", s.ComponentName)
		}
		if len(s.Controllers) == 0 {
			continue
		}
		if !s.Lifecycle.HasDispose {
			v.warnf(IssueMissingDispose, s.Name,
				"declares %d controller field(s) but no dispose hook", len(s.Controllers))
			continue
		}
		// Substring match against the rendered dispose body. Deliberately
		// cheap: a controller disposed through a helper will false-positive.
		disposeText := ir.RenderStmts(s.Lifecycle.DisposeBody)
		for _, ctrl := range s.Controllers {
			if !strings.Contains(disposeText, ctrl+".dispose()") {
				v.warnf(IssueUndisposed, s.Name,
					"controller %s is never disposed", ctrl)
			}
		}
	}
}

func (v *validator) checkMutators() {
	for _, o := range v.app.ObservableStates {
		for _, m := range o.Mutators {
			body := ir.RenderStmts(m.Body)
			if !strings.Contains(body, "notifyListeners(") {
				v.warnf(IssueSilentMutator, o.Name,
					"mutator %s never calls notifyListeners", m.Name)
			}
		}
	}
}

// checkComponentCycles runs a DFS with recursion-stack tracking over the
// component graph. This is intentionally separate from the file dependency
// graph's cycle logic: a component cycle can exist inside a single file.
func (v *validator) checkComponentCycles() {
	g := v.app.Graph
	if g == nil {
		return
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(g.Nodes))

	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}

	var visit func(name string, path []string)
	visit = func(name string, path []string) {
		state[name] = visiting
		path = append(path, name)
		for _, next := range adj[name] {
			switch state[next] {
			case visiting:
				v.errorf(IssueComponentCycle, next,
					"component cycle: %s", strings.Join(append(path, next), " -> "))
			case unvisited:
				visit(next, path)
			}
		}
		state[name] = visited
	}

	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if state[name] == unvisited {
			visit(name, nil)
		}
	}
}

func (v *validator) checkImports() {
	// Duplicate imports are a per-importing-file property; the records
	// are concatenated across files, so the key carries the owner.
	type importKey struct {
		owner  graph.FileIdentity
		target string
	}
	seen := make(map[importKey]bool, len(v.app.Imports))
	for _, imp := range v.app.Imports {
		target := string(imp.Target)
		if target == "" {
			target = imp.URI
		}
		key := importKey{owner: imp.Owner, target: target}
		if seen[key] && !imp.Export {
			v.warnf(IssueDuplicateImport, imp.URI, "imported more than once")
		}
		seen[key] = true
		if imp.Deferred {
			v.warnf(IssueDeferredImport, imp.URI, "deferred imports are not supported downstream")
		}
	}
}
