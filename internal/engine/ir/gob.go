package ir

import "encoding/gob"

// The cache serializes FileDeclaration trees with encoding/gob; every
// concrete member of the Expr and Stmt unions must be registered so
// interface-typed fields round-trip.
func init() {
	gob.Register(&Literal{})
	gob.Register(&Ident{})
	gob.Register(&PropertyAccess{})
	gob.Register(&Call{})
	gob.Register(&InstanceCreation{})
	gob.Register(&Binary{})
	gob.Register(&Unary{})
	gob.Register(&Conditional{})
	gob.Register(&ListLiteral{})
	gob.Register(&MapLiteral{})
	gob.Register(&SetLiteral{})
	gob.Register(&StringTemplate{})
	gob.Register(&Await{})
	gob.Register(&Assignment{})
	gob.Register(&Cast{})
	gob.Register(&TypeTest{})
	gob.Register(&Index{})
	gob.Register(&Closure{})

	gob.Register(&ExprStmt{})
	gob.Register(&VarDecl{})
	gob.Register(&Block{})
	gob.Register(&If{})
	gob.Register(&For{})
	gob.Register(&ForEach{})
	gob.Register(&While{})
	gob.Register(&Switch{})
	gob.Register(&Try{})
	gob.Register(&Return{})
	gob.Register(&Break{})
	gob.Register(&Continue{})
	gob.Register(&Yield{})
}
