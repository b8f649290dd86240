package ir

// Expr is the closed expression union of the declaration IR. It is immutable
// once constructed and owned exclusively by its containing declaration.
// Adding a kind here is a compile-time obligation on every consumer: the
// renderer, the linker tree walkers and the validator scans all switch over
// the full set.
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
	Value string
}

type Ident struct {
	Name string
}

type PropertyAccess struct {
	Target Expr
	Name   string
}

type Argument struct {
	Name  string // "" for positional
	Value Expr
}

type Call struct {
	Target   Expr // nil for plain identifier calls
	Name     string
	TypeArgs []string
	Args     []Argument
}

type InstanceCreation struct {
	TypeName    string
	TypeArgs    []string
	Constructor string
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

type StringTemplate struct {
	Parts []Expr
}

type Await struct {
	Operand Expr
}

type Assignment struct {
	Target Expr
	Op     string
	Value  Expr
}

type Cast struct {
	Operand  Expr
	TypeName string
}

type TypeTest struct {
	Operand  Expr
	TypeName string
	Negated  bool
}

type Index struct {
	Target Expr
	Key    Expr
}

type Closure struct {
	Params []Param
	Body   []Stmt
	Expr   Expr // single-expression closures
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
func (*Closure) isExpr()          {}
