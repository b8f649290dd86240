package validator

import (
	"testing"

	"dartbridge/internal/engine/ir"
	"dartbridge/internal/engine/symbols"
)

func emptyApp() *ir.ApplicationDeclaration {
	return &ir.ApplicationDeclaration{Graph: ir.NewComponentGraph()}
}

func findIssue(issues []Issue, kind IssueKind) *Issue {
	for i := range issues {
		if issues[i].Kind == kind {
			return &issues[i]
		}
	}
	return nil
}

func TestValidateCleanApplication(t *testing.T) {
	app := emptyApp()
	app.Components = append(app.Components, &ir.ComponentDeclaration{
		Name: "Home", Kind: ir.Stateless,
		Build: &ir.BuildDeclaration{Tree: &ir.WidgetNode{TypeName: "Text"}},
	})
	app.Graph.AddNode("Home", ir.NodeComponent)

	res := Validate(app, symbols.NewRegistry())
	if !res.Valid {
		t.Fatalf("expected valid, got errors %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", res.Warnings)
	}
}

func TestValidateDuplicateNames(t *testing.T) {
	app := emptyApp()
	for i := 0; i < 2; i++ {
		app.Components = append(app.Components, &ir.ComponentDeclaration{
			Name: "Home", Kind: ir.Stateless, Build: &ir.BuildDeclaration{},
		})
	}
	res := Validate(app, symbols.NewRegistry())
	if res.Valid {
		t.Fatal("duplicate component names must invalidate")
	}
	if findIssue(res.Errors, IssueDuplicateName) == nil {
		t.Errorf("missing duplicate-name error: %v", res.Errors)
	}
}

func TestValidateMissingBuild(t *testing.T) {
	app := emptyApp()
	app.Components = append(app.Components, &ir.ComponentDeclaration{Name: "Empty", Kind: ir.Stateless})

	res := Validate(app, symbols.NewRegistry())
	if res.Valid || findIssue(res.Errors, IssueMissingBuild) == nil {
		t.Errorf("stateless component without build must error: %v", res.Errors)
	}
}

func TestValidateUnboundStatefulComponent(t *testing.T) {
	app := emptyApp()
	app.Components = append(app.Components,
		&ir.ComponentDeclaration{Name: "W", Kind: ir.Stateful, StateHolderName: "_Missing"},
		&ir.ComponentDeclaration{Name: "V", Kind: ir.Stateful},
	)

	res := Validate(app, symbols.NewRegistry())
	if res.Valid {
		t.Fatal("unbound stateful components must invalidate")
	}
	if findIssue(res.Errors, IssueUnboundState) == nil {
		t.Errorf("missing unbound-state error for W: %v", res.Errors)
	}
	if findIssue(res.Errors, IssueUnresolvedCreateFn) == nil {
		t.Errorf("missing unresolved-state-factory error for V: %v", res.Errors)
	}
}

func TestValidatePropertyChecks(t *testing.T) {
	registry := symbols.NewRegistry()
	registry.Register(&symbols.TypeDescriptor{Name: "User", File: "lib/u.dart"})

	app := emptyApp()
	app.Components = append(app.Components, &ir.ComponentDeclaration{
		Name: "Card", Kind: ir.Stateless, Build: &ir.BuildDeclaration{},
		Properties: []ir.Property{
			{Name: "user", TypeName: "User"},                // registered, fine
			{Name: "label", TypeName: "String"},             // builtin, fine
			{Name: "badge", TypeName: "BadgeStyle"},         // unknown
			{Name: "count", TypeName: "int", Required: true, // contradictory
				DefaultValue: &ir.Literal{Kind: ir.LitInt, Value: "0"}},
		},
	})

	res := Validate(app, registry)
	if !res.Valid {
		t.Fatalf("property issues are warnings, not errors: %v", res.Errors)
	}
	if findIssue(res.Warnings, IssueUnknownType) == nil {
		t.Errorf("missing unknown-type warning: %v", res.Warnings)
	}
	if findIssue(res.Warnings, IssueContradictoryProp) == nil {
		t.Errorf("missing contradictory-property warning: %v", res.Warnings)
	}
	if len(res.Warnings) != 2 {
		t.Errorf("expected exactly 2 warnings, got %v", res.Warnings)
	}
}

func TestValidateControllerDisposal(t *testing.T) {
	buildM := &ir.FunctionDeclaration{Name: "build"}

	disposed := &ir.StateHolderDeclaration{
		Name: "_AState", ComponentName: "A",
		Controllers: []string{"scrollController"},
		Methods:     []*ir.FunctionDeclaration{buildM},
		Lifecycle: ir.Lifecycle{
			HasDispose: true,
			DisposeBody: []ir.Stmt{&ir.ExprStmt{Expr: &ir.Call{
				Target: &ir.Ident{Name: "scrollController"}, Name: "dispose",
			}}},
		},
	}
	leaked := &ir.StateHolderDeclaration{
		Name: "_BState", ComponentName: "B",
		Controllers: []string{"textController"},
		Methods:     []*ir.FunctionDeclaration{buildM},
		Lifecycle:   ir.Lifecycle{HasDispose: true},
	}
	noHook := &ir.StateHolderDeclaration{
		Name: "_CState", ComponentName: "C",
		Controllers: []string{"animController"},
		Methods:     []*ir.FunctionDeclaration{buildM},
	}

	app := emptyApp()
	for _, n := range []string{"A", "B", "C"} {
		app.Components = append(app.Components, &ir.ComponentDeclaration{
			Name: n, Kind: ir.Stateful, StateHolderName: "_" + n + "State",
		})
	}
	app.StateHolders = append(app.StateHolders, disposed, leaked, noHook)

	res := Validate(app, symbols.NewRegistry())
	if !res.Valid {
		t.Fatalf("disposal issues are warnings: %v", res.Errors)
	}
	var undisposed, missingHook int
	for _, w := range res.Warnings {
		switch w.Kind {
		case IssueUndisposed:
			undisposed++
			if w.Subject != "_BState" {
				t.Errorf("undisposed warning on wrong holder: %v", w)
			}
		case IssueMissingDispose:
			missingHook++
			if w.Subject != "_CState" {
				t.Errorf("missing-dispose warning on wrong holder: %v", w)
			}
		}
	}
	if undisposed != 1 || missingHook != 1 {
		t.Errorf("expected 1 undisposed + 1 missing-dispose, got %v", res.Warnings)
	}
}

func TestValidateSilentMutator(t *testing.T) {
	app := emptyApp()
	app.ObservableStates = append(app.ObservableStates, &ir.ObservableStateDeclaration{
		Name: "CartStore",
		Mutators: []*ir.FunctionDeclaration{
			{Name: "clear"}, // no notifyListeners anywhere in the body
			{Name: "reset", Body: []ir.Stmt{
				&ir.ExprStmt{Expr: &ir.Call{Name: "notifyListeners"}},
			}},
		},
	})

	res := Validate(app, symbols.NewRegistry())
	w := findIssue(res.Warnings, IssueSilentMutator)
	if w == nil {
		t.Fatalf("missing silent-mutator warning: %v", res.Warnings)
	}
	count := 0
	for _, i := range res.Warnings {
		if i.Kind == IssueSilentMutator {
			count++
		}
	}
	if count != 1 {
		t.Errorf("reset calls notifyListeners and must not be flagged: %v", res.Warnings)
	}
}

func TestValidateComponentCycle(t *testing.T) {
	app := emptyApp()
	for _, n := range []string{"A", "B"} {
		app.Components = append(app.Components, &ir.ComponentDeclaration{
			Name: n, Kind: ir.Stateless, Build: &ir.BuildDeclaration{},
		})
		app.Graph.AddNode(n, ir.NodeComponent)
	}
	app.Graph.AddEdge("A", "B", ir.EdgeComposes)
	app.Graph.AddEdge("B", "A", ir.EdgeComposes)

	res := Validate(app, symbols.NewRegistry())
	if res.Valid || findIssue(res.Errors, IssueComponentCycle) == nil {
		t.Errorf("mutually composing components must error: %v", res.Errors)
	}
}

func TestValidateImportWarnings(t *testing.T) {
	app := emptyApp()
	app.Imports = []ir.ImportRecord{
		{Owner: "lib/main.dart", URI: "a.dart", Target: "lib/a.dart"},
		{Owner: "lib/main.dart", URI: "./a.dart", Target: "lib/a.dart"}, // same target, different spelling
		{Owner: "lib/main.dart", URI: "heavy.dart", Target: "lib/heavy.dart", Deferred: true},
	}

	res := Validate(app, symbols.NewRegistry())
	if !res.Valid {
		t.Fatalf("import issues are warnings: %v", res.Errors)
	}
	if findIssue(res.Warnings, IssueDuplicateImport) == nil {
		t.Errorf("missing duplicate-import warning: %v", res.Warnings)
	}
	if findIssue(res.Warnings, IssueDeferredImport) == nil {
		t.Errorf("missing deferred-import warning: %v", res.Warnings)
	}
}

func TestValidateImportsSharedAcrossFiles(t *testing.T) {
	// Two files each importing the same target once is normal; only a
	// repeat within one file is a duplicate.
	app := emptyApp()
	app.Imports = []ir.ImportRecord{
		{Owner: "lib/a.dart", URI: "store.dart", Target: "lib/store.dart"},
		{Owner: "lib/b.dart", URI: "store.dart", Target: "lib/store.dart"},
	}

	res := Validate(app, symbols.NewRegistry())
	if issue := findIssue(res.Warnings, IssueDuplicateImport); issue != nil {
		t.Errorf("cross-file imports of one target must not warn: %v", issue)
	}

	app.Imports = append(app.Imports, ir.ImportRecord{
		Owner: "lib/b.dart", URI: "./store.dart", Target: "lib/store.dart",
	})
	res = Validate(app, symbols.NewRegistry())
	if findIssue(res.Warnings, IssueDuplicateImport) == nil {
		t.Errorf("repeated import within one file must warn: %v", res.Warnings)
	}
}
