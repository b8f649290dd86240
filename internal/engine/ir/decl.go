// Package ir defines the declaration IR: the per-file output of extraction
// and, after linking, the application-level declaration consumed by code
// generation.
package ir

import (
	"fmt"

	"dartbridge/internal/engine/graph"
)

type ComponentKind int

const (
	Stateless ComponentKind = iota
	Stateful
)

func (k ComponentKind) String() string {
	if k == Stateful {
		return "stateful"
	}
	return "stateless"
}

type TypeKind int

const (
	TypeClass TypeKind = iota
	TypeAbstractClass
	TypeMixin
	TypeEnum
	TypeAlias
	TypeExtension
)

// ImportRecord keeps one directive plus its in-project resolution. Target is
// empty for external references; Owner is the importing file, kept so
// link-level import checks stay per-file after concatenation.
type ImportRecord struct {
	Owner    graph.FileIdentity
	URI      string
	Target   graph.FileIdentity
	Prefix   string
	Deferred bool
	Export   bool
}

// FileDeclaration is the per-file IR: everything extraction learned about
// one source file. It round-trips through the incremental cache.
type FileDeclaration struct {
	File         graph.FileIdentity
	Library      string
	Imports      []ImportRecord
	Components   []*ComponentDeclaration
	StateHolders []*StateHolderDeclaration
	Types        []*PlainTypeDeclaration
	Functions    []*FunctionDeclaration
}

type Param struct {
	Name         string
	TypeName     string
	Named        bool
	Required     bool
	DefaultValue Expr
}

type Property struct {
	Name         string
	TypeName     string
	Final        bool
	Required     bool
	DefaultValue Expr
}

type Field struct {
	Name        string
	TypeName    string
	Mutable     bool
	Late        bool
	Initializer Expr
}

type Constructor struct {
	Name   string
	Params []Param
	Const  bool
}

type FunctionDeclaration struct {
	Name       string
	ReturnType string
	Params     []Param
	Body       []Stmt
	Getter     bool
	Setter     bool
	Static     bool
	Async      bool
}

// WidgetNode is one node of a reconstructed component tree: the result of
// interpreting the `child`/`children` named arguments of an instance
// creation inside a build method.
type WidgetNode struct {
	TypeName string
	Args     []Argument // arguments other than child/children
	Children []*WidgetNode
}

// BuildDeclaration is a component's build method. When the return is
// conditional both subtrees are carried; Tree is the primary (first) branch
// and Alternatives holds the rest. The linker composes from every carried
// branch; validator heuristics read the primary.
type BuildDeclaration struct {
	Body              []Stmt
	Tree              *WidgetNode
	Alternatives      []*WidgetNode
	ConditionalReturn bool
}

type ComponentDeclaration struct {
	ID          string
	Name        string
	Kind        ComponentKind
	File        graph.FileIdentity
	Properties  []Property
	Constructor *Constructor
	Build       *BuildDeclaration
	Methods     []*FunctionDeclaration
	Mixins      []string
	Interfaces  []string

	// StateHolderName is read from createState; empty means the binding
	// could not be resolved and the validator will flag it.
	StateHolderName string
}

// Lifecycle captures the framework hooks declared on a state holder.
type Lifecycle struct {
	HasInit              bool
	HasDispose           bool
	HasUpdate            bool
	HasDependencyChange  bool
	InitBody             []Stmt
	DisposeBody          []Stmt
	UpdateBody           []Stmt
	DependencyChangeBody []Stmt
}

type StateHolderDeclaration struct {
	ID            string
	Name          string
	ComponentName string // the widget named in State<X>
	File          graph.FileIdentity
	Fields        []Field
	Lifecycle     Lifecycle
	Methods       []*FunctionDeclaration

	// Controllers lists controller-like field names (used by the dispose
	// heuristic in validation).
	Controllers []string
}

type PlainTypeDeclaration struct {
	ID            string
	Name          string
	Kind          TypeKind
	File          graph.FileIdentity
	Supertype     string
	SupertypeArgs []string
	Mixins        []string
	Interfaces    []string
	TypeParams    []string
	EnumValues    []string
	Fields        []Field
	Methods       []*FunctionDeclaration
}

// ObservableStateDeclaration is derived during linking from a plain type
// whose supertype or mixins match the observable roots. It is never written
// by the extractor.
type ObservableStateDeclaration struct {
	ID        string
	Name      string
	File      graph.FileIdentity
	ValueType string // the value type for ValueNotifier-style holders
	Fields    []Field
	Mutators  []*FunctionDeclaration
	Methods   []*FunctionDeclaration
}

// DeclarationID builds the stable identity used across runs: identical
// inputs must yield an identical linked application.
func DeclarationID(file graph.FileIdentity, name string) string {
	return fmt.Sprintf("%s#%s", file, name)
}
