package extractor

import (
	"testing"

	"dartbridge/internal/core/errors"
	"dartbridge/internal/engine/ast"
	"dartbridge/internal/engine/graph"
	"dartbridge/internal/engine/ir"
	"dartbridge/internal/engine/symbols"
)

func testContext(file string) *AnalysisContext {
	return &AnalysisContext{
		File:     graph.FileIdentity(file),
		Registry: symbols.NewRegistry(),
	}
}

func buildMethod(ret ast.Expr) *ast.MethodDecl {
	return &ast.MethodDecl{
		Name:       "build",
		ReturnType: &ast.TypeRef{Name: "Widget"},
		Params:     []*ast.Param{{Name: "context", Type: &ast.TypeRef{Name: "BuildContext"}}},
		Body: &ast.FuncBody{
			Kind:  ast.BodyBlock,
			Block: []ast.Stmt{&ast.ReturnStmt{Value: ret}},
		},
	}
}

func TestExtractStatelessComponent(t *testing.T) {
	unit := &ast.CompilationUnit{
		File: "lib/greeting.dart",
		Classes: []*ast.ClassDecl{{
			Name:      "Greeting",
			Supertype: &ast.TypeRef{Name: "StatelessWidget"},
			Fields: []*ast.FieldDecl{
				{Name: "name", Type: &ast.TypeRef{Name: "String"}, Final: true},
			},
			Constructors: []*ast.ConstructorDecl{{
				Params: []*ast.Param{{Name: "name", Named: true, Required: true, IsThisField: true}},
				Const:  true,
			}},
			Methods: []*ast.MethodDecl{
				buildMethod(&ast.InstanceCreation{
					Type: ast.TypeRef{Name: "Text"},
					Args: []ast.Argument{{Value: &ast.Ident{Name: "name"}}},
				}),
			},
		}},
	}

	decl, err := Extract(unit, testContext("lib/greeting.dart"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(decl.Components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(decl.Components))
	}
	comp := decl.Components[0]
	if comp.Kind != ir.Stateless {
		t.Errorf("expected stateless, got %v", comp.Kind)
	}
	if comp.ID != "lib/greeting.dart#Greeting" {
		t.Errorf("unexpected id %q", comp.ID)
	}
	if len(comp.Properties) != 1 || comp.Properties[0].Name != "name" || !comp.Properties[0].Required {
		t.Errorf("unexpected properties %+v", comp.Properties)
	}
	if comp.Build == nil || comp.Build.Tree == nil {
		t.Fatal("expected a reconstructed component tree")
	}
	if comp.Build.Tree.TypeName != "Text" {
		t.Errorf("expected Text root, got %q", comp.Build.Tree.TypeName)
	}
}

func TestExtractStatefulBindsStateHolder(t *testing.T) {
	unit := &ast.CompilationUnit{
		File: "lib/counter.dart",
		Classes: []*ast.ClassDecl{
			{
				Name:      "Counter",
				Supertype: &ast.TypeRef{Name: "StatefulWidget"},
				Methods: []*ast.MethodDecl{{
					Name:       "createState",
					ReturnType: &ast.TypeRef{Name: "State", Args: []ast.TypeRef{{Name: "Counter"}}},
					Body: &ast.FuncBody{
						Kind: ast.BodyExpression,
						Expr: &ast.InstanceCreation{Type: ast.TypeRef{Name: "_CounterState"}},
					},
				}},
			},
			{
				Name:      "_CounterState",
				Supertype: &ast.TypeRef{Name: "State", Args: []ast.TypeRef{{Name: "Counter"}}},
				Fields: []*ast.FieldDecl{
					{Name: "count", Type: &ast.TypeRef{Name: "int"}, Initializer: &ast.Literal{Kind: ast.LitInt, Value: "0"}},
					{Name: "scrollController", Type: &ast.TypeRef{Name: "ScrollController"}, Late: true},
				},
				Methods: []*ast.MethodDecl{
					{
						Name: "initState",
						Body: &ast.FuncBody{Kind: ast.BodyBlock, Block: []ast.Stmt{
							&ast.ExprStmt{Expr: &ast.Assignment{
								Target: &ast.Ident{Name: "scrollController"},
								Op:     "=",
								Value:  &ast.InstanceCreation{Type: ast.TypeRef{Name: "ScrollController"}},
							}},
						}},
					},
					{
						Name: "dispose",
						Body: &ast.FuncBody{Kind: ast.BodyBlock, Block: []ast.Stmt{
							&ast.ExprStmt{Expr: &ast.Call{
								Target: &ast.Ident{Name: "scrollController"},
								Name:   "dispose",
							}},
						}},
					},
					{
						Name: "increment",
						Body: &ast.FuncBody{Kind: ast.BodyBlock, Block: []ast.Stmt{
							&ast.ExprStmt{Expr: &ast.Call{Name: "setState"}},
						}},
					},
				},
			},
		},
	}

	decl, err := Extract(unit, testContext("lib/counter.dart"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(decl.Components) != 1 || len(decl.StateHolders) != 1 {
		t.Fatalf("expected 1 component + 1 state holder, got %d/%d",
			len(decl.Components), len(decl.StateHolders))
	}

	comp := decl.Components[0]
	if comp.Kind != ir.Stateful {
		t.Errorf("expected stateful, got %v", comp.Kind)
	}
	if comp.StateHolderName != "_CounterState" {
		t.Errorf("expected createState binding to _CounterState, got %q", comp.StateHolderName)
	}

	holder := decl.StateHolders[0]
	if holder.ComponentName != "Counter" {
		t.Errorf("expected State<Counter> binding, got %q", holder.ComponentName)
	}
	if !holder.Lifecycle.HasInit || !holder.Lifecycle.HasDispose {
		t.Errorf("expected init and dispose hooks, got %+v", holder.Lifecycle)
	}
	if holder.Lifecycle.HasUpdate {
		t.Error("did not declare didUpdateWidget")
	}
	if len(holder.Controllers) != 1 || holder.Controllers[0] != "scrollController" {
		t.Errorf("unexpected controllers %v", holder.Controllers)
	}
	if len(holder.Methods) != 1 || holder.Methods[0].Name != "increment" {
		t.Errorf("lifecycle hooks must not appear as plain methods: %+v", holder.Methods)
	}
	if len(holder.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(holder.Fields))
	}
	if !holder.Fields[0].Mutable {
		t.Error("non-final field should be mutable")
	}
	if !holder.Fields[1].Late {
		t.Error("late modifier lost")
	}
}

func TestExtractTransitiveComponentRole(t *testing.T) {
	registry := symbols.NewRegistry()
	registry.Register(&symbols.TypeDescriptor{
		Name:                 "BaseScreen",
		Kind:                 symbols.KindAbstractClass,
		File:                 "lib/base.dart",
		Supertype:            symbols.RootStatelessComponent,
		IsComponent:          true,
		IsStatelessComponent: true,
	})

	unit := &ast.CompilationUnit{
		File: "lib/home.dart",
		Classes: []*ast.ClassDecl{{
			Name:      "HomeScreen",
			Supertype: &ast.TypeRef{Name: "BaseScreen"},
			Methods: []*ast.MethodDecl{
				buildMethod(&ast.InstanceCreation{Type: ast.TypeRef{Name: "Container"}}),
			},
		}},
	}

	actx := testContext("lib/home.dart")
	actx.Registry = registry
	decl, err := Extract(unit, actx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(decl.Components) != 1 {
		t.Fatalf("indirect subclass of a component root must classify as component, got %d types %d components",
			len(decl.Types), len(decl.Components))
	}
	if decl.Components[0].Kind != ir.Stateless {
		t.Errorf("expected stateless via BaseScreen chain, got %v", decl.Components[0].Kind)
	}
}

func TestExtractConditionalBuildKeepsBothBranches(t *testing.T) {
	unit := &ast.CompilationUnit{
		File: "lib/toggle.dart",
		Classes: []*ast.ClassDecl{{
			Name:      "Toggle",
			Supertype: &ast.TypeRef{Name: "StatelessWidget"},
			Methods: []*ast.MethodDecl{
				buildMethod(&ast.Conditional{
					Cond: &ast.Ident{Name: "enabled"},
					Then: &ast.InstanceCreation{Type: ast.TypeRef{Name: "Icon"}},
					Else: &ast.InstanceCreation{Type: ast.TypeRef{Name: "SizedBox"}},
				}),
			},
		}},
	}

	decl, err := Extract(unit, testContext("lib/toggle.dart"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	build := decl.Components[0].Build
	if build == nil || !build.ConditionalReturn {
		t.Fatal("expected conditional return to be flagged")
	}
	if build.Tree == nil || build.Tree.TypeName != "Icon" {
		t.Errorf("primary branch must be the then-branch, got %+v", build.Tree)
	}
	if len(build.Alternatives) != 1 || build.Alternatives[0].TypeName != "SizedBox" {
		t.Errorf("unexpected alternatives %+v", build.Alternatives)
	}
}

func TestExtractPlainTypesAndEnums(t *testing.T) {
	unit := &ast.CompilationUnit{
		File:        "lib/model.dart",
		LibraryName: "app.model",
		Classes: []*ast.ClassDecl{
			{
				Name: "User",
				Fields: []*ast.FieldDecl{
					{Name: "id", Type: &ast.TypeRef{Name: "String"}, Final: true},
				},
			},
			{Name: "Status", IsEnum: true, EnumValues: []string{"active", "banned"}},
		},
		Functions: []*ast.FunctionDecl{{
			Name:       "formatUser",
			ReturnType: &ast.TypeRef{Name: "String"},
			Params:     []*ast.Param{{Name: "u", Type: &ast.TypeRef{Name: "User"}}},
			Body:       &ast.FuncBody{Kind: ast.BodyExpression, Expr: &ast.Ident{Name: "u"}},
		}},
	}

	decl, err := Extract(unit, testContext("lib/model.dart"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(decl.Types) != 2 {
		t.Fatalf("expected 2 plain types, got %d", len(decl.Types))
	}
	if decl.Types[1].Kind != ir.TypeEnum || len(decl.Types[1].EnumValues) != 2 {
		t.Errorf("enum extraction broken: %+v", decl.Types[1])
	}
	if len(decl.Functions) != 1 || decl.Functions[0].Name != "formatUser" {
		t.Errorf("top-level functions lost: %+v", decl.Functions)
	}
	if decl.Library != "app.model" {
		t.Errorf("library name lost: %q", decl.Library)
	}
}

func TestExtractFailsOnParseDiagnostics(t *testing.T) {
	unit := &ast.CompilationUnit{
		File:        "lib/broken.dart",
		Diagnostics: []ast.Diagnostic{{Message: "expected '}'"}},
	}
	_, err := Extract(unit, testContext("lib/broken.dart"))
	if err == nil {
		t.Fatal("expected extraction to fail on parse diagnostics")
	}
	if !errors.IsCode(err, errors.CodePerFile) {
		t.Errorf("expected per-file code, got %v", err)
	}
}

func TestDescribeTypesDerivesRoles(t *testing.T) {
	registry := symbols.NewRegistry()
	unit := &ast.CompilationUnit{
		File: "lib/w.dart",
		Classes: []*ast.ClassDecl{
			{Name: "W", Supertype: &ast.TypeRef{Name: "StatefulWidget"}},
			{Name: "_WState", Supertype: &ast.TypeRef{Name: "State", Args: []ast.TypeRef{{Name: "W"}}}},
			{Name: "Helper"},
		},
	}

	descs := DescribeTypes(unit, "lib/w.dart", registry)
	if len(descs) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(descs))
	}
	if !descs[0].IsStatefulComponent {
		t.Error("W must derive the stateful component role")
	}
	if !descs[1].IsStateHolder {
		t.Error("_WState must derive the state holder role")
	}
	if descs[2].IsComponent {
		t.Error("Helper must stay a plain type")
	}
}
