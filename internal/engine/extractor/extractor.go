// Package extractor walks one file's syntax tree and produces its
// declaration IR. Classification follows the declared supertype chain:
// stateless root, stateful root, State<X> pattern, everything else a plain
// type.
package extractor

import (
	"fmt"
	"strings"

	"dartbridge/internal/core/errors"
	"dartbridge/internal/engine/ast"
	"dartbridge/internal/engine/graph"
	"dartbridge/internal/engine/ir"
	"dartbridge/internal/engine/resolver"
	"dartbridge/internal/engine/symbols"
)

// AnalysisContext carries the read-only surroundings of one extraction:
// the file under analysis, the shared registry and graph, and the file's
// resolved imports.
type AnalysisContext struct {
	File     graph.FileIdentity
	Registry *symbols.Registry
	Graph    *graph.Graph
	Imports  []resolver.ResolvedImport
}

// Extract converts a parsed compilation unit into a FileDeclaration.
// Panics inside conversion are contained and surfaced as per-file failures;
// the pipeline continues without this file.
func Extract(unit *ast.CompilationUnit, actx *AnalysisContext) (decl *ir.FileDeclaration, err error) {
	defer func() {
		if r := recover(); r != nil {
			decl = nil
			err = errors.Newf(errors.CodePerFile, "extraction panic: %v", r)
		}
	}()

	if unit == nil {
		return nil, errors.New(errors.CodePerFile, "nil compilation unit")
	}
	if len(unit.Diagnostics) > 0 {
		// Parse-level errors fail the whole file; no partial extraction
		// from a broken tree.
		return nil, errors.Newf(errors.CodePerFile, "parse errors in %s: %s",
			actx.File, unit.Diagnostics[0].Message)
	}

	decl = &ir.FileDeclaration{
		File:    actx.File,
		Library: unit.LibraryName,
		Imports: importRecords(unit, actx),
	}

	for _, class := range unit.Classes {
		switch classify(class, actx.Registry) {
		case roleStateless:
			decl.Components = append(decl.Components, extractComponent(class, actx, ir.Stateless))
		case roleStateful:
			decl.Components = append(decl.Components, extractComponent(class, actx, ir.Stateful))
		case roleStateHolder:
			decl.StateHolders = append(decl.StateHolders, extractStateHolder(class, actx))
		default:
			decl.Types = append(decl.Types, extractPlainType(class, actx))
		}
	}

	for _, fn := range unit.Functions {
		decl.Functions = append(decl.Functions, extractFunction(fn))
	}

	return decl, nil
}

type classRole int

const (
	rolePlain classRole = iota
	roleStateless
	roleStateful
	roleStateHolder
)

// classify walks the declared supertype chain. Direct root names win; for
// intermediate supertypes the registry's derived roles decide.
func classify(class *ast.ClassDecl, registry *symbols.Registry) classRole {
	if class.IsMixin || class.IsEnum || class.IsExtension || class.Supertype == nil {
		return rolePlain
	}

	super := class.Supertype
	switch super.Name {
	case symbols.RootStatelessComponent:
		return roleStateless
	case symbols.RootStatefulComponent:
		return roleStateful
	case symbols.RootStateHolder:
		return roleStateHolder
	}

	if registry != nil {
		if d, ok := registry.Lookup(super.Name); ok {
			switch {
			case d.IsStatelessComponent:
				return roleStateless
			case d.IsStatefulComponent:
				return roleStateful
			case d.IsStateHolder:
				return roleStateHolder
			}
		}
	}
	return rolePlain
}

func importRecords(unit *ast.CompilationUnit, actx *AnalysisContext) []ir.ImportRecord {
	records := make([]ir.ImportRecord, 0, len(actx.Imports))
	for _, ri := range actx.Imports {
		records = append(records, ir.ImportRecord{
			Owner:    actx.File,
			URI:      ri.Reference.URI,
			Target:   ri.Target,
			Prefix:   ri.Reference.Prefix,
			Deferred: ri.Reference.Deferred,
			Export:   ri.Reference.Kind == resolver.RefExport,
		})
	}
	// Fall back to the unit's directives when the resolver saw nothing
	// (frontends constructed in-memory for tests).
	if len(records) == 0 {
		for _, d := range unit.Directives {
			records = append(records, ir.ImportRecord{
				Owner:    actx.File,
				URI:      d.URI,
				Prefix:   d.Prefix,
				Deferred: d.Deferred,
				Export:   d.Kind == ast.DirectiveExport,
			})
		}
	}
	return records
}

func extractComponent(class *ast.ClassDecl, actx *AnalysisContext, kind ir.ComponentKind) *ir.ComponentDeclaration {
	comp := &ir.ComponentDeclaration{
		ID:         ir.DeclarationID(actx.File, class.Name),
		Name:       class.Name,
		Kind:       kind,
		File:       actx.File,
		Mixins:     typeNames(class.Mixins),
		Interfaces: typeNames(class.Interfaces),
	}

	ctor := unnamedConstructor(class)
	if ctor != nil {
		comp.Constructor = &ir.Constructor{
			Name:   ctor.Name,
			Params: convertParams(ctor.Params),
			Const:  ctor.Const,
		}
	}
	comp.Properties = extractProperties(class, ctor)

	for _, m := range class.Methods {
		switch m.Name {
		case "build":
			body := convertBody(m.Body)
			tree, alternatives, conditional := buildTrees(body)
			comp.Build = &ir.BuildDeclaration{
				Body:              body,
				Tree:              tree,
				Alternatives:      alternatives,
				ConditionalReturn: conditional,
			}
		case "createState":
			if kind == ir.Stateful {
				// The binding comes from the first instance creation in a
				// single-expression or single-return body; when none is
				// found it stays unresolved for the validator.
				comp.StateHolderName = firstInstanceCreation(convertBody(m.Body))
			}
		default:
			comp.Methods = append(comp.Methods, extractMethod(m))
		}
	}

	return comp
}

// stateSupertypeArg extracts X from State<X>.
func stateSupertypeArg(class *ast.ClassDecl) string {
	if class.Supertype == nil || len(class.Supertype.Args) == 0 {
		return ""
	}
	return class.Supertype.Args[0].Name
}

var lifecycleHooks = map[string]bool{
	"initState":             true,
	"dispose":               true,
	"didUpdateWidget":       true,
	"didChangeDependencies": true,
}

func extractStateHolder(class *ast.ClassDecl, actx *AnalysisContext) *ir.StateHolderDeclaration {
	holder := &ir.StateHolderDeclaration{
		ID:            ir.DeclarationID(actx.File, class.Name),
		Name:          class.Name,
		ComponentName: stateSupertypeArg(class),
		File:          actx.File,
	}

	for _, f := range class.Fields {
		field := ir.Field{
			Name:        f.Name,
			TypeName:    typeName(f.Type),
			Mutable:     !f.Final && !f.Const,
			Late:        f.Late,
			Initializer: convertExpr(f.Initializer),
		}
		holder.Fields = append(holder.Fields, field)
		if isControllerField(field) {
			holder.Controllers = append(holder.Controllers, field.Name)
		}
	}

	for _, m := range class.Methods {
		if lifecycleHooks[m.Name] {
			body := convertBody(m.Body)
			switch m.Name {
			case "initState":
				holder.Lifecycle.HasInit = true
				holder.Lifecycle.InitBody = body
			case "dispose":
				holder.Lifecycle.HasDispose = true
				holder.Lifecycle.DisposeBody = body
			case "didUpdateWidget":
				holder.Lifecycle.HasUpdate = true
				holder.Lifecycle.UpdateBody = body
			case "didChangeDependencies":
				holder.Lifecycle.HasDependencyChange = true
				holder.Lifecycle.DependencyChangeBody = body
			}
			continue
		}
		holder.Methods = append(holder.Methods, extractMethod(m))
	}

	return holder
}

func isControllerField(f ir.Field) bool {
	return strings.HasSuffix(f.TypeName, "Controller") ||
		strings.HasSuffix(strings.ToLower(f.Name), "controller")
}

func extractPlainType(class *ast.ClassDecl, actx *AnalysisContext) *ir.PlainTypeDeclaration {
	kind := ir.TypeClass
	switch {
	case class.IsMixin:
		kind = ir.TypeMixin
	case class.IsEnum:
		kind = ir.TypeEnum
	case class.IsExtension:
		kind = ir.TypeExtension
	case class.Abstract:
		kind = ir.TypeAbstractClass
	}

	decl := &ir.PlainTypeDeclaration{
		ID:         ir.DeclarationID(actx.File, class.Name),
		Name:       class.Name,
		Kind:       kind,
		File:       actx.File,
		Mixins:     typeNames(class.Mixins),
		Interfaces: typeNames(class.Interfaces),
		TypeParams: append([]string(nil), class.TypeParams...),
		EnumValues: append([]string(nil), class.EnumValues...),
	}
	if class.Supertype != nil {
		decl.Supertype = class.Supertype.Name
		for _, a := range class.Supertype.Args {
			decl.SupertypeArgs = append(decl.SupertypeArgs, a.Name)
		}
	}

	for _, f := range class.Fields {
		decl.Fields = append(decl.Fields, ir.Field{
			Name:        f.Name,
			TypeName:    typeName(f.Type),
			Mutable:     !f.Final && !f.Const,
			Late:        f.Late,
			Initializer: convertExpr(f.Initializer),
		})
	}
	for _, m := range class.Methods {
		decl.Methods = append(decl.Methods, extractMethod(m))
	}

	return decl
}

func extractProperties(class *ast.ClassDecl, ctor *ast.ConstructorDecl) []ir.Property {
	params := make(map[string]*ast.Param)
	if ctor != nil {
		for _, p := range ctor.Params {
			params[p.Name] = p
		}
	}

	props := make([]ir.Property, 0, len(class.Fields))
	for _, f := range class.Fields {
		if f.Static {
			continue
		}
		prop := ir.Property{
			Name:     f.Name,
			TypeName: typeName(f.Type),
			Final:    f.Final,
		}
		if p, ok := params[f.Name]; ok {
			prop.Required = p.Required
			prop.DefaultValue = convertExpr(p.DefaultValue)
		}
		if prop.DefaultValue == nil && f.Initializer != nil {
			prop.DefaultValue = convertExpr(f.Initializer)
		}
		props = append(props, prop)
	}
	return props
}

func extractMethod(m *ast.MethodDecl) *ir.FunctionDeclaration {
	return &ir.FunctionDeclaration{
		Name:       m.Name,
		ReturnType: typeName(m.ReturnType),
		Params:     convertParams(m.Params),
		Body:       convertBody(m.Body),
		Getter:     m.Getter,
		Setter:     m.Setter,
		Static:     m.Static,
		Async:      m.Async,
	}
}

func extractFunction(fn *ast.FunctionDecl) *ir.FunctionDeclaration {
	return &ir.FunctionDeclaration{
		Name:       fn.Name,
		ReturnType: typeName(fn.ReturnType),
		Params:     convertParams(fn.Params),
		Body:       convertBody(fn.Body),
		Async:      fn.Async,
	}
}

func unnamedConstructor(class *ast.ClassDecl) *ast.ConstructorDecl {
	for _, c := range class.Constructors {
		if c.Name == "" {
			return c
		}
	}
	if len(class.Constructors) > 0 {
		return class.Constructors[0]
	}
	return nil
}


// DescribeTypes builds and registers the symbol descriptors for a unit. It
// runs during the symbol-resolution phase, before IR generation. Each
// descriptor is registered as soon as its roles are derived, so a class may
// extend an earlier class from the same file.
func DescribeTypes(unit *ast.CompilationUnit, file graph.FileIdentity, registry *symbols.Registry) []*symbols.TypeDescriptor {
	out := make([]*symbols.TypeDescriptor, 0, len(unit.Classes))
	for _, class := range unit.Classes {
		desc := &symbols.TypeDescriptor{
			Name:          class.Name,
			QualifiedName: qualifiedName(unit, class.Name),
			Kind:          descriptorKind(class),
			File:          file,
			Interfaces:    typeNames(class.Interfaces),
			Mixins:        typeNames(class.Mixins),
			TypeParams:    append([]string(nil), class.TypeParams...),
		}
		if class.Supertype != nil {
			desc.Supertype = class.Supertype.Name
		}
		registry.DeriveRoles(desc)
		registry.Register(desc)
		out = append(out, desc)
	}
	return out
}

func qualifiedName(unit *ast.CompilationUnit, name string) string {
	if unit.LibraryName != "" {
		return fmt.Sprintf("%s.%s", unit.LibraryName, name)
	}
	return name
}

func descriptorKind(class *ast.ClassDecl) symbols.TypeKind {
	switch {
	case class.IsMixin:
		return symbols.KindMixin
	case class.IsEnum:
		return symbols.KindEnum
	case class.IsExtension:
		return symbols.KindExtension
	case class.Abstract:
		return symbols.KindAbstractClass
	default:
		return symbols.KindClass
	}
}
