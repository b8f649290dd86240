package ast

// Stmt is the closed statement union produced by the frontend.
type Stmt interface{ isStmt() }

type ExprStmt struct {
	Expr Expr
}

type VarDeclStmt struct {
	Name        string
	Type        *TypeRef
	Final       bool
	Initializer Expr
}

type BlockStmt struct {
	Body []Stmt
}

type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

type ForStmt struct {
	Init Stmt // nil or VarDeclStmt/ExprStmt
	Cond Expr
	Post Expr
	Body Stmt
}

type ForEachStmt struct {
	Var      string
	Iterable Expr
	Body     Stmt
	Await    bool
}

type WhileStmt struct {
	Cond Expr
	Body Stmt
}

type SwitchCase struct {
	// Value is nil for the default case.
	Value Expr
	Body  []Stmt
}

type SwitchStmt struct {
	Subject Expr
	Cases   []SwitchCase
}

type CatchClause struct {
	ExceptionType *TypeRef
	Variable      string
	Body          []Stmt
}

type TryStmt struct {
	Body    []Stmt
	Catches []CatchClause
	Finally []Stmt
}

type ReturnStmt struct {
	Value Expr // nil for bare return
}

type BreakStmt struct{}

type ContinueStmt struct{}

type YieldStmt struct {
	Value    Expr
	Delegate bool // yield*
}

func (*ExprStmt) isStmt()     {}
func (*VarDeclStmt) isStmt()  {}
func (*BlockStmt) isStmt()    {}
func (*IfStmt) isStmt()       {}
func (*ForStmt) isStmt()      {}
func (*ForEachStmt) isStmt()  {}
func (*WhileStmt) isStmt()    {}
func (*SwitchStmt) isStmt()   {}
func (*TryStmt) isStmt()      {}
func (*ReturnStmt) isStmt()   {}
func (*BreakStmt) isStmt()    {}
func (*ContinueStmt) isStmt() {}
func (*YieldStmt) isStmt()    {}
