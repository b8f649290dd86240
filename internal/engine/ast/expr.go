package ast

// Expr is the closed expression union produced by the frontend.
type Expr interface{ isExpr() }

type LiteralKind int

const (
	LitString LiteralKind = iota
	LitInt
	LitDouble
	LitBool
	LitNull
)

type Literal struct {
	Kind  LiteralKind
	Value string // source text of the literal
}

type Ident struct {
	Name string
}

// PropertyAccess is target.name.
type PropertyAccess struct {
	Target Expr
	Name   string
}

type Argument struct {
	Name  string // "" for positional
	Value Expr
}

// Call is a function or method invocation. Target is nil for a plain
// identifier call.
type Call struct {
	Target   Expr
	Name     string
	TypeArgs []TypeRef
	Args     []Argument
}

// InstanceCreation is `Foo(...)`, `const Foo.bar(...)` and friends.
type InstanceCreation struct {
	Type        TypeRef
	Constructor string // named constructor, "" for unnamed
	Args        []Argument
	Const       bool
}

type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

type Unary struct {
	Op      string
	Operand Expr
	Postfix bool
}

type Conditional struct {
	Cond Expr
	Then Expr
	Else Expr
}

type ListLiteral struct {
	Elements []Expr
}

type MapEntry struct {
	Key   Expr
	Value Expr
}

type MapLiteral struct {
	Entries []MapEntry
}

type SetLiteral struct {
	Elements []Expr
}

// StringTemplate is an interpolated string; Parts alternates literal chunks
// and embedded expressions in source order.
type StringTemplate struct {
	Parts []Expr
}

type Await struct {
	Operand Expr
}

type Assignment struct {
	Target Expr
	Op     string // "=", "+=", "??=", ...
	Value  Expr
}

// Cast is `expr as Type`.
type Cast struct {
	Operand Expr
	Type    TypeRef
}

// TypeTest is `expr is Type` / `expr is! Type`.
type TypeTest struct {
	Operand Expr
	Type    TypeRef
	Negated bool
}

type Index struct {
	Target Expr
	Key    Expr
}

// FunctionLit is a closure argument such as `() => doThing()` or
// `(ctx, i) { ... }`.
type FunctionLit struct {
	Params []*Param
	Body   *FuncBody
}

func (*Literal) isExpr()          {}
func (*Ident) isExpr()            {}
func (*PropertyAccess) isExpr()   {}
func (*Call) isExpr()             {}
func (*InstanceCreation) isExpr() {}
func (*Binary) isExpr()           {}
func (*Unary) isExpr()            {}
func (*Conditional) isExpr()      {}
func (*ListLiteral) isExpr()      {}
func (*MapLiteral) isExpr()       {}
func (*SetLiteral) isExpr()       {}
func (*StringTemplate) isExpr()   {}
func (*Await) isExpr()            {}
func (*Assignment) isExpr()       {}
func (*Cast) isExpr()             {}
func (*TypeTest) isExpr()         {}
func (*Index) isExpr()            {}
func (*FunctionLit) isExpr()      {}
