package ir

// Stmt is the closed statement union of the declaration IR.
type Stmt interface{ isStmt() }

type ExprStmt struct {
	Expr Expr
}

type VarDecl struct {
	Name        string
	TypeName    string
	Final       bool
	Initializer Expr
}

type Block struct {
	Body []Stmt
}

type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

type For struct {
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

type ForEach struct {
	Var      string
	Iterable Expr
	Body     Stmt
}

type While struct {
	Cond Expr
	Body Stmt
}

type SwitchCase struct {
	Value Expr // nil for default
	Body  []Stmt
}

type Switch struct {
	Subject Expr
	Cases   []SwitchCase
}

type CatchClause struct {
	TypeName string
	Variable string
	Body     []Stmt
}

type Try struct {
	Body    []Stmt
	Catches []CatchClause
	Finally []Stmt
}

type Return struct {
	Value Expr
}

type Break struct{}

type Continue struct{}

type Yield struct {
	Value    Expr
	Delegate bool
}

func (*ExprStmt) isStmt() {}
func (*VarDecl) isStmt()  {}
func (*Block) isStmt()    {}
func (*If) isStmt()       {}
func (*For) isStmt()      {}
func (*ForEach) isStmt()  {}
func (*While) isStmt()    {}
func (*Switch) isStmt()   {}
func (*Try) isStmt()      {}
func (*Return) isStmt()   {}
func (*Break) isStmt()    {}
func (*Continue) isStmt() {}
func (*Yield) isStmt()    {}
