package linker

import (
	"testing"

	"dartbridge/internal/engine/graph"
	"dartbridge/internal/engine/ir"
	"dartbridge/internal/engine/symbols"
)

func component(file, name string, kind ir.ComponentKind) *ir.ComponentDeclaration {
	return &ir.ComponentDeclaration{
		ID:   ir.DeclarationID(graph.FileIdentity(file), name),
		Name: name,
		Kind: kind,
		File: graph.FileIdentity(file),
	}
}

func hasEdge(g *ir.ComponentGraph, from, to string, kind ir.EdgeKind) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestLinkConcatenatesAndBindsState(t *testing.T) {
	w := component("lib/w.dart", "W", ir.Stateful)
	holder := &ir.StateHolderDeclaration{
		ID:            ir.DeclarationID("lib/w.dart", "_WState"),
		Name:          "_WState",
		ComponentName: "W",
		File:          "lib/w.dart",
	}
	plain := &ir.PlainTypeDeclaration{
		ID: ir.DeclarationID("lib/u.dart", "User"), Name: "User", File: "lib/u.dart",
	}

	app := Link([]*ir.FileDeclaration{
		{File: "lib/w.dart", Components: []*ir.ComponentDeclaration{w}, StateHolders: []*ir.StateHolderDeclaration{holder}},
		{File: "lib/u.dart", Types: []*ir.PlainTypeDeclaration{plain}},
	}, graph.NewGraph(), symbols.NewRegistry(), nil)

	if len(app.Components) != 1 || len(app.StateHolders) != 1 || len(app.Types) != 1 {
		t.Fatalf("concatenation broken: %+v", app)
	}
	if w.StateHolderName != "_WState" {
		t.Errorf("binding not backfilled: %q", w.StateHolderName)
	}
	if !hasEdge(app.Graph, "W", "_WState", ir.EdgeHasState) {
		t.Error("missing has-state edge")
	}
	if app.Graph.Nodes["W"] != ir.NodeComponent || app.Graph.Nodes["_WState"] != ir.NodeStateHolder {
		t.Errorf("unexpected node kinds: %+v", app.Graph.Nodes)
	}
}

func TestLinkReclassifiesObservables(t *testing.T) {
	store := &ir.PlainTypeDeclaration{
		ID:        ir.DeclarationID("lib/s.dart", "CartStore"),
		Name:      "CartStore",
		File:      "lib/s.dart",
		Supertype: "ChangeNotifier",
		Fields:    []ir.Field{{Name: "items", TypeName: "List", Mutable: true}},
		Methods: []*ir.FunctionDeclaration{
			{Name: "clear", ReturnType: "void"},
			{Name: "total", ReturnType: "double", Getter: true},
			{Name: "add", ReturnType: "void", Params: []ir.Param{{Name: "item"}}},
		},
	}
	counter := &ir.PlainTypeDeclaration{
		ID:            ir.DeclarationID("lib/s.dart", "Counter"),
		Name:          "Counter",
		File:          "lib/s.dart",
		Supertype:     "ValueNotifier",
		SupertypeArgs: []string{"int"},
	}
	plain := &ir.PlainTypeDeclaration{
		ID: ir.DeclarationID("lib/s.dart", "Config"), Name: "Config", File: "lib/s.dart",
	}

	app := Link([]*ir.FileDeclaration{
		{File: "lib/s.dart", Types: []*ir.PlainTypeDeclaration{store, counter, plain}},
	}, graph.NewGraph(), symbols.NewRegistry(), nil)

	if len(app.ObservableStates) != 2 {
		t.Fatalf("expected 2 observables, got %d", len(app.ObservableStates))
	}
	if len(app.Types) != 1 || app.Types[0].Name != "Config" {
		t.Errorf("non-observable plain types must survive: %+v", app.Types)
	}

	cart := app.ObservableState("CartStore")
	if cart == nil {
		t.Fatal("CartStore not reclassified")
	}
	// clear() is parameterless and void, add() takes a parameter and total
	// is a getter; only clear classifies as a mutator.
	if len(cart.Mutators) != 1 || cart.Mutators[0].Name != "clear" {
		t.Errorf("unexpected mutators: %+v", cart.Mutators)
	}
	if len(cart.Methods) != 2 {
		t.Errorf("expected 2 plain methods, got %d", len(cart.Methods))
	}

	if c := app.ObservableState("Counter"); c == nil || c.ValueType != "int" {
		t.Errorf("ValueNotifier value type lost: %+v", c)
	}
}

func TestLinkComposesFromBuildTree(t *testing.T) {
	child := component("lib/child.dart", "Avatar", ir.Stateless)
	parent := component("lib/parent.dart", "ProfileCard", ir.Stateless)
	parent.Build = &ir.BuildDeclaration{
		Tree: &ir.WidgetNode{
			TypeName: "Column",
			Children: []*ir.WidgetNode{
				{TypeName: "Avatar"},
				{TypeName: "Text"}, // framework widget, not a project component
			},
		},
	}

	app := Link([]*ir.FileDeclaration{
		{File: "lib/parent.dart", Components: []*ir.ComponentDeclaration{parent}},
		{File: "lib/child.dart", Components: []*ir.ComponentDeclaration{child}},
	}, graph.NewGraph(), symbols.NewRegistry(), nil)

	if !hasEdge(app.Graph, "ProfileCard", "Avatar", ir.EdgeComposes) {
		t.Error("missing composes edge to project component")
	}
	for _, e := range app.Graph.Edges {
		if e.To == "Text" {
			t.Error("framework widget must not produce an edge")
		}
	}
}

func TestLinkComposesThroughStateHolderBuild(t *testing.T) {
	w := component("lib/w.dart", "Gallery", ir.Stateful)
	item := component("lib/item.dart", "GalleryItem", ir.Stateless)
	holder := &ir.StateHolderDeclaration{
		ID:            ir.DeclarationID("lib/w.dart", "_GalleryState"),
		Name:          "_GalleryState",
		ComponentName: "Gallery",
		File:          "lib/w.dart",
		Methods: []*ir.FunctionDeclaration{{
			Name: "build",
			Body: []ir.Stmt{&ir.Return{Value: &ir.InstanceCreation{TypeName: "GalleryItem"}}},
		}},
	}

	app := Link([]*ir.FileDeclaration{
		{File: "lib/w.dart", Components: []*ir.ComponentDeclaration{w}, StateHolders: []*ir.StateHolderDeclaration{holder}},
		{File: "lib/item.dart", Components: []*ir.ComponentDeclaration{item}},
	}, graph.NewGraph(), symbols.NewRegistry(), nil)

	if !hasEdge(app.Graph, "Gallery", "GalleryItem", ir.EdgeComposes) {
		t.Error("state holder build output must compose for its component")
	}
}

func TestLinkDependsOnObservables(t *testing.T) {
	store := &ir.PlainTypeDeclaration{
		ID: ir.DeclarationID("lib/s.dart", "CartStore"), Name: "CartStore",
		File: "lib/s.dart", Supertype: "ChangeNotifier",
	}
	c := component("lib/v.dart", "CartView", ir.Stateless)
	c.Build = &ir.BuildDeclaration{
		Body: []ir.Stmt{&ir.Return{Value: &ir.Call{
			Target: &ir.Ident{Name: "context"},
			Name:   "watch",
			TypeArgs: []string{
				"CartStore",
			},
		}}},
	}
	holder := &ir.StateHolderDeclaration{
		ID: ir.DeclarationID("lib/h.dart", "_PageState"), Name: "_PageState",
		File:   "lib/h.dart",
		Fields: []ir.Field{{Name: "cart", TypeName: "CartStore"}},
	}

	app := Link([]*ir.FileDeclaration{
		{File: "lib/s.dart", Types: []*ir.PlainTypeDeclaration{store}},
		{File: "lib/v.dart", Components: []*ir.ComponentDeclaration{c}},
		{File: "lib/h.dart", StateHolders: []*ir.StateHolderDeclaration{holder}},
	}, graph.NewGraph(), symbols.NewRegistry(), nil)

	if !hasEdge(app.Graph, "CartView", "CartStore", ir.EdgeDependsOn) {
		t.Error("watch<CartStore> in a build body must produce a depends-on edge")
	}
	if !hasEdge(app.Graph, "_PageState", "CartStore", ir.EdgeDependsOn) {
		t.Error("a field typed with an observable must produce a depends-on edge")
	}
}

func TestLinkDeterministicAcrossInputOrder(t *testing.T) {
	files := func() []*ir.FileDeclaration {
		return []*ir.FileDeclaration{
			{File: "lib/b.dart", Components: []*ir.ComponentDeclaration{component("lib/b.dart", "B", ir.Stateless)}},
			{File: "lib/a.dart", Components: []*ir.ComponentDeclaration{component("lib/a.dart", "A", ir.Stateless)}},
		}
	}
	reversed := files()
	reversed[0], reversed[1] = reversed[1], reversed[0]

	first := Link(files(), graph.NewGraph(), symbols.NewRegistry(), nil)
	second := Link(reversed, graph.NewGraph(), symbols.NewRegistry(), nil)

	if len(first.Components) != 2 || first.Components[0].Name != second.Components[0].Name {
		t.Errorf("link output must not depend on input order: %q vs %q",
			first.Components[0].Name, second.Components[0].Name)
	}
}
