// Package ast defines the syntax tree contract between the source frontend
// and the declaration extractor. The frontend (an off-the-shelf or pluggable
// parser) produces these nodes; the extractor consumes them and never looks
// at raw source again.
package ast

import "dartbridge/internal/engine/graph"

type Position struct {
	Line   int
	Column int
}

type Diagnostic struct {
	Message string
	Pos     Position
}

// CompilationUnit is one parsed source file.
type CompilationUnit struct {
	File        graph.FileIdentity
	LibraryName string
	Directives  []Directive
	Classes     []*ClassDecl
	Functions   []*FunctionDecl
	Diagnostics []Diagnostic
}

type DirectiveKind int

const (
	DirectiveImport DirectiveKind = iota
	DirectiveExport
)

type Directive struct {
	Kind     DirectiveKind
	URI      string
	Prefix   string
	Deferred bool
	Shown    []string
	Hidden   []string
	Pos      Position
}

// TypeRef is a possibly-parameterized type reference such as State<Counter>.
type TypeRef struct {
	Name string
	Args []TypeRef
}

type ClassDecl struct {
	Name         string
	TypeParams   []string
	Supertype    *TypeRef
	Mixins       []TypeRef
	Interfaces   []TypeRef
	Abstract     bool
	IsMixin      bool
	IsEnum       bool
	IsExtension  bool
	ExtendedType string // extension target, when IsExtension
	EnumValues   []string
	Fields       []*FieldDecl
	Constructors []*ConstructorDecl
	Methods      []*MethodDecl
	Pos          Position
}

type FieldDecl struct {
	Name        string
	Type        *TypeRef
	Final       bool
	Const       bool
	Late        bool
	Static      bool
	Initializer Expr
	Pos         Position
}

type ConstructorDecl struct {
	Name   string // "" for the unnamed constructor
	Params []*Param
	Const  bool
	Pos    Position
}

type MethodDecl struct {
	Name       string
	ReturnType *TypeRef
	Params     []*Param
	Body       *FuncBody
	Getter     bool
	Setter     bool
	Static     bool
	Override   bool
	Async      bool
	Pos        Position
}

// FunctionDecl is a top-level function.
type FunctionDecl struct {
	Name       string
	ReturnType *TypeRef
	Params     []*Param
	Body       *FuncBody
	Async      bool
	Pos        Position
}

type Param struct {
	Name         string
	Type         *TypeRef
	Named        bool
	Required     bool
	DefaultValue Expr
	IsThisField  bool // this.x initializing formal
}

type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyExpression
	BodyBlock
)

type FuncBody struct {
	Kind  BodyKind
	Expr  Expr   // BodyExpression
	Block []Stmt // BodyBlock
}
