package extractor

import (
	"dartbridge/internal/engine/ast"
	"dartbridge/internal/engine/ir"
)

// convertBody lowers a frontend function body into statement IR. Expression
// bodies become a single return statement so every body downstream has one
// uniform shape.
func convertBody(body *ast.FuncBody) []ir.Stmt {
	if body == nil {
		return nil
	}
	switch body.Kind {
	case ast.BodyExpression:
		return []ir.Stmt{&ir.Return{Value: convertExpr(body.Expr)}}
	case ast.BodyBlock:
		return convertStmts(body.Block)
	default:
		return nil
	}
}

func convertStmts(stmts []ast.Stmt) []ir.Stmt {
	out := make([]ir.Stmt, 0, len(stmts))
	for _, s := range stmts {
		if converted := convertStmt(s); converted != nil {
			out = append(out, converted)
		}
	}
	return out
}

func convertStmt(s ast.Stmt) ir.Stmt {
	switch st := s.(type) {
	case nil:
		return nil
	case *ast.ExprStmt:
		return &ir.ExprStmt{Expr: convertExpr(st.Expr)}
	case *ast.VarDeclStmt:
		return &ir.VarDecl{
			Name:        st.Name,
			TypeName:    typeName(st.Type),
			Final:       st.Final,
			Initializer: convertExpr(st.Initializer),
		}
	case *ast.BlockStmt:
		return &ir.Block{Body: convertStmts(st.Body)}
	case *ast.IfStmt:
		return &ir.If{
			Cond: convertExpr(st.Cond),
			Then: convertStmt(st.Then),
			Else: convertStmt(st.Else),
		}
	case *ast.ForStmt:
		return &ir.For{
			Init: convertStmt(st.Init),
			Cond: convertExpr(st.Cond),
			Post: convertExpr(st.Post),
			Body: convertStmt(st.Body),
		}
	case *ast.ForEachStmt:
		return &ir.ForEach{
			Var:      st.Var,
			Iterable: convertExpr(st.Iterable),
			Body:     convertStmt(st.Body),
		}
	case *ast.WhileStmt:
		return &ir.While{Cond: convertExpr(st.Cond), Body: convertStmt(st.Body)}
	case *ast.SwitchStmt:
		cases := make([]ir.SwitchCase, 0, len(st.Cases))
		for _, c := range st.Cases {
			cases = append(cases, ir.SwitchCase{
				Value: convertExpr(c.Value),
				Body:  convertStmts(c.Body),
			})
		}
		return &ir.Switch{Subject: convertExpr(st.Subject), Cases: cases}
	case *ast.TryStmt:
		catches := make([]ir.CatchClause, 0, len(st.Catches))
		for _, c := range st.Catches {
			catches = append(catches, ir.CatchClause{
				TypeName: typeName(c.ExceptionType),
				Variable: c.Variable,
				Body:     convertStmts(c.Body),
			})
		}
		return &ir.Try{
			Body:    convertStmts(st.Body),
			Catches: catches,
			Finally: convertStmts(st.Finally),
		}
	case *ast.ReturnStmt:
		return &ir.Return{Value: convertExpr(st.Value)}
	case *ast.BreakStmt:
		return &ir.Break{}
	case *ast.ContinueStmt:
		return &ir.Continue{}
	case *ast.YieldStmt:
		return &ir.Yield{Value: convertExpr(st.Value), Delegate: st.Delegate}
	default:
		return nil
	}
}

func convertExpr(e ast.Expr) ir.Expr {
	switch ex := e.(type) {
	case nil:
		return nil
	case *ast.Literal:
		return &ir.Literal{Kind: ir.LiteralKind(ex.Kind), Value: ex.Value}
	case *ast.Ident:
		return &ir.Ident{Name: ex.Name}
	case *ast.PropertyAccess:
		return &ir.PropertyAccess{Target: convertExpr(ex.Target), Name: ex.Name}
	case *ast.Call:
		return &ir.Call{
			Target:   convertExpr(ex.Target),
			Name:     ex.Name,
			TypeArgs: typeNames(ex.TypeArgs),
			Args:     convertArgs(ex.Args),
		}
	case *ast.InstanceCreation:
		return &ir.InstanceCreation{
			TypeName:    ex.Type.Name,
			TypeArgs:    typeNames(ex.Type.Args),
			Constructor: ex.Constructor,
			Args:        convertArgs(ex.Args),
			Const:       ex.Const,
		}
	case *ast.Binary:
		return &ir.Binary{Op: ex.Op, Left: convertExpr(ex.Left), Right: convertExpr(ex.Right)}
	case *ast.Unary:
		return &ir.Unary{Op: ex.Op, Operand: convertExpr(ex.Operand), Postfix: ex.Postfix}
	case *ast.Conditional:
		return &ir.Conditional{
			Cond: convertExpr(ex.Cond),
			Then: convertExpr(ex.Then),
			Else: convertExpr(ex.Else),
		}
	case *ast.ListLiteral:
		return &ir.ListLiteral{Elements: convertExprs(ex.Elements)}
	case *ast.MapLiteral:
		entries := make([]ir.MapEntry, 0, len(ex.Entries))
		for _, entry := range ex.Entries {
			entries = append(entries, ir.MapEntry{
				Key:   convertExpr(entry.Key),
				Value: convertExpr(entry.Value),
			})
		}
		return &ir.MapLiteral{Entries: entries}
	case *ast.SetLiteral:
		return &ir.SetLiteral{Elements: convertExprs(ex.Elements)}
	case *ast.StringTemplate:
		return &ir.StringTemplate{Parts: convertExprs(ex.Parts)}
	case *ast.Await:
		return &ir.Await{Operand: convertExpr(ex.Operand)}
	case *ast.Assignment:
		return &ir.Assignment{
			Target: convertExpr(ex.Target),
			Op:     ex.Op,
			Value:  convertExpr(ex.Value),
		}
	case *ast.Cast:
		return &ir.Cast{Operand: convertExpr(ex.Operand), TypeName: ex.Type.Name}
	case *ast.TypeTest:
		return &ir.TypeTest{Operand: convertExpr(ex.Operand), TypeName: ex.Type.Name, Negated: ex.Negated}
	case *ast.Index:
		return &ir.Index{Target: convertExpr(ex.Target), Key: convertExpr(ex.Key)}
	case *ast.FunctionLit:
		closure := &ir.Closure{Params: convertParams(ex.Params)}
		if ex.Body != nil && ex.Body.Kind == ast.BodyExpression {
			closure.Expr = convertExpr(ex.Body.Expr)
		} else if ex.Body != nil {
			closure.Body = convertStmts(ex.Body.Block)
		}
		return closure
	default:
		return nil
	}
}

func convertExprs(exprs []ast.Expr) []ir.Expr {
	out := make([]ir.Expr, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, convertExpr(e))
	}
	return out
}

func convertArgs(args []ast.Argument) []ir.Argument {
	out := make([]ir.Argument, 0, len(args))
	for _, a := range args {
		out = append(out, ir.Argument{Name: a.Name, Value: convertExpr(a.Value)})
	}
	return out
}

func convertParams(params []*ast.Param) []ir.Param {
	out := make([]ir.Param, 0, len(params))
	for _, p := range params {
		out = append(out, ir.Param{
			Name:         p.Name,
			TypeName:     typeName(p.Type),
			Named:        p.Named,
			Required:     p.Required,
			DefaultValue: convertExpr(p.DefaultValue),
		})
	}
	return out
}

func typeName(t *ast.TypeRef) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func typeNames(refs []ast.TypeRef) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}
