// Package linker merges the per-file IR into a single application
// declaration and builds the component-level relationship graph.
package linker

import (
	"log/slog"
	"sort"
	"strings"

	"dartbridge/internal/engine/graph"
	"dartbridge/internal/engine/ir"
	"dartbridge/internal/engine/symbols"
)

// Link concatenates the per-file declarations, derives observable state
// holders from plain types, binds stateful components to their state
// holders and builds the component graph. Unresolved bindings and unmatched
// tree references are left for validation; linking itself never fails.
func Link(files []*ir.FileDeclaration, g *graph.Graph, registry *symbols.Registry, logger *slog.Logger) *ir.ApplicationDeclaration {
	if logger == nil {
		logger = slog.Default()
	}

	app := &ir.ApplicationDeclaration{Graph: ir.NewComponentGraph()}

	// Deterministic output regardless of batch completion order.
	ordered := make([]*ir.FileDeclaration, len(files))
	copy(ordered, files)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].File < ordered[j].File })

	for _, fd := range ordered {
		app.Components = append(app.Components, fd.Components...)
		app.StateHolders = append(app.StateHolders, fd.StateHolders...)
		app.Functions = append(app.Functions, fd.Functions...)
		app.Imports = append(app.Imports, fd.Imports...)
		for _, t := range fd.Types {
			if obs := reclassifyObservable(t); obs != nil {
				app.ObservableStates = append(app.ObservableStates, obs)
				continue
			}
			app.Types = append(app.Types, t)
		}
	}

	for _, c := range app.Components {
		app.Graph.AddNode(c.Name, ir.NodeComponent)
	}
	for _, s := range app.StateHolders {
		app.Graph.AddNode(s.Name, ir.NodeStateHolder)
	}
	for _, o := range app.ObservableStates {
		app.Graph.AddNode(o.Name, ir.NodeObservableState)
	}

	bindStateHolders(app, logger)
	composeEdges(app)
	dependencyEdges(app)

	app.Graph.Sort()
	return app
}

// reclassifyObservable turns a plain type into an observable state holder
// when its supertype or one of its mixins matches an observable root.
// Mutator split: a void-returning, parameterless, non-accessor method is
// treated as a state mutator.
func reclassifyObservable(t *ir.PlainTypeDeclaration) *ir.ObservableStateDeclaration {
	if !observableBase(t) {
		return nil
	}

	obs := &ir.ObservableStateDeclaration{
		ID:     t.ID,
		Name:   t.Name,
		File:   t.File,
		Fields: t.Fields,
	}
	if t.Supertype == symbols.RootValueObservable && len(t.SupertypeArgs) > 0 {
		obs.ValueType = t.SupertypeArgs[0]
	}
	for _, m := range t.Methods {
		if isMutator(m) {
			obs.Mutators = append(obs.Mutators, m)
			continue
		}
		obs.Methods = append(obs.Methods, m)
	}
	return obs
}

func observableBase(t *ir.PlainTypeDeclaration) bool {
	if symbols.ObservableRoots[t.Supertype] {
		return true
	}
	for _, m := range t.Mixins {
		if symbols.ObservableRoots[m] {
			return true
		}
	}
	return false
}

func isMutator(m *ir.FunctionDeclaration) bool {
	if m.Getter || m.Setter || m.Static || len(m.Params) != 0 {
		return false
	}
	return m.ReturnType == "" || m.ReturnType == "void"
}

// bindStateHolders pairs every stateful component with the state holder
// declaring it as its bound component, and records a has-state edge. When
// the createState binding was unresolved, the State<X> back-reference alone
// is enough.
func bindStateHolders(app *ir.ApplicationDeclaration, logger *slog.Logger) {
	byComponent := make(map[string]*ir.StateHolderDeclaration)
	for _, s := range app.StateHolders {
		if s.ComponentName != "" {
			byComponent[s.ComponentName] = s
		}
	}

	for _, c := range app.Components {
		if c.Kind != ir.Stateful {
			continue
		}
		holder := byComponent[c.Name]
		if holder == nil && c.StateHolderName != "" {
			holder = app.StateHolder(c.StateHolderName)
		}
		if holder == nil {
			logger.Debug("stateful component has no matching state holder",
				"component", c.Name, "declared", c.StateHolderName)
			continue
		}
		if c.StateHolderName == "" {
			c.StateHolderName = holder.Name
		}
		app.Graph.AddEdge(c.Name, holder.Name, ir.EdgeHasState)
	}
}

// composeEdges walks every reconstructed component tree and adds a composes
// edge for each child that names a project component. Framework widgets and
// unknown names are skipped.
func composeEdges(app *ir.ApplicationDeclaration) {
	known := make(map[string]bool, len(app.Components))
	for _, c := range app.Components {
		known[c.Name] = true
	}

	addFrom := func(owner string, tree *ir.WidgetNode) {
		walkTree(tree, func(n *ir.WidgetNode) {
			if n.TypeName != owner && known[n.TypeName] {
				app.Graph.AddEdge(owner, n.TypeName, ir.EdgeComposes)
			}
		})
	}

	for _, c := range app.Components {
		if c.Build == nil {
			continue
		}
		addFrom(c.Name, c.Build.Tree)
		for _, alt := range c.Build.Alternatives {
			addFrom(c.Name, alt)
		}
		// Components whose build returns something other than a direct
		// creation still get credit for creations nested in the body.
		if c.Build.Tree == nil {
			for name := range creationsIn(c.Build.Body) {
				if name != c.Name && known[name] {
					app.Graph.AddEdge(c.Name, name, ir.EdgeComposes)
				}
			}
		}
	}

	// A state holder's build output composes on behalf of its component.
	for _, s := range app.StateHolders {
		if s.ComponentName == "" || !known[s.ComponentName] {
			continue
		}
		for _, m := range s.Methods {
			if m.Name != "build" {
				continue
			}
			for name := range creationsIn(m.Body) {
				if name != s.ComponentName && known[name] {
					app.Graph.AddEdge(s.ComponentName, name, ir.EdgeComposes)
				}
			}
		}
	}
}

func walkTree(n *ir.WidgetNode, fn func(*ir.WidgetNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		walkTree(c, fn)
	}
}

// creationsIn collects every instance-creation type name reachable in a
// statement list, using the rendered body as a uniform scan surface would
// be lossy here, so this walks the IR directly.
func creationsIn(body []ir.Stmt) map[string]bool {
	out := make(map[string]bool)
	var walkExpr func(e ir.Expr)
	var walkStmt func(s ir.Stmt)

	walkExprs := func(exprs []ir.Expr) {
		for _, e := range exprs {
			walkExpr(e)
		}
	}
	walkArgs := func(args []ir.Argument) {
		for _, a := range args {
			walkExpr(a.Value)
		}
	}
	walkStmts := func(stmts []ir.Stmt) {
		for _, s := range stmts {
			walkStmt(s)
		}
	}

	walkExpr = func(e ir.Expr) {
		switch v := e.(type) {
		case nil:
		case *ir.InstanceCreation:
			out[v.TypeName] = true
			walkArgs(v.Args)
		case *ir.Call:
			walkExpr(v.Target)
			walkArgs(v.Args)
		case *ir.PropertyAccess:
			walkExpr(v.Target)
		case *ir.Binary:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ir.Unary:
			walkExpr(v.Operand)
		case *ir.Conditional:
			walkExpr(v.Cond)
			walkExpr(v.Then)
			walkExpr(v.Else)
		case *ir.ListLiteral:
			walkExprs(v.Elements)
		case *ir.SetLiteral:
			walkExprs(v.Elements)
		case *ir.MapLiteral:
			for _, e := range v.Entries {
				walkExpr(e.Key)
				walkExpr(e.Value)
			}
		case *ir.StringTemplate:
			walkExprs(v.Parts)
		case *ir.Await:
			walkExpr(v.Operand)
		case *ir.Assignment:
			walkExpr(v.Target)
			walkExpr(v.Value)
		case *ir.Cast:
			walkExpr(v.Operand)
		case *ir.TypeTest:
			walkExpr(v.Operand)
		case *ir.Index:
			walkExpr(v.Target)
			walkExpr(v.Key)
		case *ir.Closure:
			walkStmts(v.Body)
			walkExpr(v.Expr)
		}
	}

	walkStmt = func(s ir.Stmt) {
		switch v := s.(type) {
		case nil:
		case *ir.ExprStmt:
			walkExpr(v.Expr)
		case *ir.VarDecl:
			walkExpr(v.Initializer)
		case *ir.Block:
			walkStmts(v.Body)
		case *ir.If:
			walkExpr(v.Cond)
			walkStmt(v.Then)
			walkStmt(v.Else)
		case *ir.For:
			walkStmt(v.Init)
			walkExpr(v.Cond)
			walkExpr(v.Post)
			walkStmt(v.Body)
		case *ir.ForEach:
			walkExpr(v.Iterable)
			walkStmt(v.Body)
		case *ir.While:
			walkExpr(v.Cond)
			walkStmt(v.Body)
		case *ir.Switch:
			walkExpr(v.Subject)
			for _, c := range v.Cases {
				walkExpr(c.Value)
				walkStmts(c.Body)
			}
		case *ir.Try:
			walkStmts(v.Body)
			for _, c := range v.Catches {
				walkStmts(c.Body)
			}
			walkStmts(v.Finally)
		case *ir.Return:
			walkExpr(v.Value)
		case *ir.Yield:
			walkExpr(v.Value)
		}
	}

	walkStmts(body)
	return out
}

// dependencyEdges adds a depends-on edge from a component or state holder
// to every observable state holder whose name appears in a recognizable
// read/observe pattern inside its bodies: watch<O>(), read<O>(), O.of(...)
// or a field declared with the holder's type.
func dependencyEdges(app *ir.ApplicationDeclaration) {
	if len(app.ObservableStates) == 0 {
		return
	}

	for _, c := range app.Components {
		text := componentBodyText(c)
		for _, o := range app.ObservableStates {
			if dependsOn(text, o.Name) || propertyTyped(c.Properties, o.Name) {
				app.Graph.AddEdge(c.Name, o.Name, ir.EdgeDependsOn)
			}
		}
	}
	for _, s := range app.StateHolders {
		text := holderBodyText(s)
		for _, o := range app.ObservableStates {
			if dependsOn(text, o.Name) || fieldTyped(s.Fields, o.Name) {
				app.Graph.AddEdge(s.Name, o.Name, ir.EdgeDependsOn)
			}
		}
	}
}

func componentBodyText(c *ir.ComponentDeclaration) string {
	var b strings.Builder
	if c.Build != nil {
		b.WriteString(ir.RenderStmts(c.Build.Body))
	}
	for _, m := range c.Methods {
		b.WriteString(ir.RenderStmts(m.Body))
	}
	return b.String()
}

func holderBodyText(s *ir.StateHolderDeclaration) string {
	var b strings.Builder
	b.WriteString(ir.RenderStmts(s.Lifecycle.InitBody))
	b.WriteString(ir.RenderStmts(s.Lifecycle.DisposeBody))
	b.WriteString(ir.RenderStmts(s.Lifecycle.UpdateBody))
	b.WriteString(ir.RenderStmts(s.Lifecycle.DependencyChangeBody))
	for _, m := range s.Methods {
		b.WriteString(ir.RenderStmts(m.Body))
	}
	return b.String()
}

func dependsOn(text, observable string) bool {
	return strings.Contains(text, "watch<"+observable+">") ||
		strings.Contains(text, "read<"+observable+">") ||
		strings.Contains(text, observable+".of(")
}

func propertyTyped(props []ir.Property, typeName string) bool {
	for _, p := range props {
		if p.TypeName == typeName {
			return true
		}
	}
	return false
}

func fieldTyped(fields []ir.Field, typeName string) bool {
	for _, f := range fields {
		if f.TypeName == typeName {
			return true
		}
	}
	return false
}
