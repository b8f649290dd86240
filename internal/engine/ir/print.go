package ir

import (
	"fmt"
	"strings"
)

// RenderStmts flattens statements into compact source-like text. The
// validator's cheap heuristics (dispose detection, notify-call detection)
// and the linker's observe-access scan run over this text instead of a full
// data-flow pass.
func RenderStmts(stmts []Stmt) string {
	var b strings.Builder
	for _, s := range stmts {
		renderStmt(&b, s)
	}
	return b.String()
}

// RenderExpr returns the compact text of a single expression.
func RenderExpr(e Expr) string {
	var b strings.Builder
	renderExpr(&b, e)
	return b.String()
}

func renderStmt(b *strings.Builder, s Stmt) {
	switch st := s.(type) {
	case nil:
	case *ExprStmt:
		renderExpr(b, st.Expr)
		b.WriteString("; ")
	case *VarDecl:
		if st.TypeName != "" {
			b.WriteString(st.TypeName)
			b.WriteByte(' ')
		} else {
			b.WriteString("var ")
		}
		b.WriteString(st.Name)
		if st.Initializer != nil {
			b.WriteString(" = ")
			renderExpr(b, st.Initializer)
		}
		b.WriteString("; ")
	case *Block:
		b.WriteString("{ ")
		for _, inner := range st.Body {
			renderStmt(b, inner)
		}
		b.WriteString("} ")
	case *If:
		b.WriteString("if (")
		renderExpr(b, st.Cond)
		b.WriteString(") ")
		renderStmt(b, st.Then)
		if st.Else != nil {
			b.WriteString("else ")
			renderStmt(b, st.Else)
		}
	case *For:
		b.WriteString("for (")
		if st.Init != nil {
			renderStmt(b, st.Init)
		}
		renderExpr(b, st.Cond)
		b.WriteString("; ")
		renderExpr(b, st.Post)
		b.WriteString(") ")
		renderStmt(b, st.Body)
	case *ForEach:
		fmt.Fprintf(b, "for (%s in ", st.Var)
		renderExpr(b, st.Iterable)
		b.WriteString(") ")
		renderStmt(b, st.Body)
	case *While:
		b.WriteString("while (")
		renderExpr(b, st.Cond)
		b.WriteString(") ")
		renderStmt(b, st.Body)
	case *Switch:
		b.WriteString("switch (")
		renderExpr(b, st.Subject)
		b.WriteString(") { ")
		for _, c := range st.Cases {
			if c.Value == nil {
				b.WriteString("default: ")
			} else {
				b.WriteString("case ")
				renderExpr(b, c.Value)
				b.WriteString(": ")
			}
			for _, inner := range c.Body {
				renderStmt(b, inner)
			}
		}
		b.WriteString("} ")
	case *Try:
		b.WriteString("try { ")
		for _, inner := range st.Body {
			renderStmt(b, inner)
		}
		b.WriteString("} ")
		for _, c := range st.Catches {
			if c.TypeName != "" {
				fmt.Fprintf(b, "on %s ", c.TypeName)
			}
			if c.Variable != "" {
				fmt.Fprintf(b, "catch (%s) ", c.Variable)
			}
			b.WriteString("{ ")
			for _, inner := range c.Body {
				renderStmt(b, inner)
			}
			b.WriteString("} ")
		}
		if len(st.Finally) > 0 {
			b.WriteString("finally { ")
			for _, inner := range st.Finally {
				renderStmt(b, inner)
			}
			b.WriteString("} ")
		}
	case *Return:
		b.WriteString("return")
		if st.Value != nil {
			b.WriteByte(' ')
			renderExpr(b, st.Value)
		}
		b.WriteString("; ")
	case *Break:
		b.WriteString("break; ")
	case *Continue:
		b.WriteString("continue; ")
	case *Yield:
		b.WriteString("yield ")
		if st.Delegate {
			b.WriteString("* ")
		}
		renderExpr(b, st.Value)
		b.WriteString("; ")
	}
}

func renderExpr(b *strings.Builder, e Expr) {
	switch ex := e.(type) {
	case nil:
	case *Literal:
		b.WriteString(ex.Value)
	case *Ident:
		b.WriteString(ex.Name)
	case *PropertyAccess:
		renderExpr(b, ex.Target)
		b.WriteByte('.')
		b.WriteString(ex.Name)
	case *Call:
		if ex.Target != nil {
			renderExpr(b, ex.Target)
			b.WriteByte('.')
		}
		b.WriteString(ex.Name)
		renderTypeArgs(b, ex.TypeArgs)
		renderArgs(b, ex.Args)
	case *InstanceCreation:
		if ex.Const {
			b.WriteString("const ")
		}
		b.WriteString(ex.TypeName)
		renderTypeArgs(b, ex.TypeArgs)
		if ex.Constructor != "" {
			b.WriteByte('.')
			b.WriteString(ex.Constructor)
		}
		renderArgs(b, ex.Args)
	case *Binary:
		renderExpr(b, ex.Left)
		fmt.Fprintf(b, " %s ", ex.Op)
		renderExpr(b, ex.Right)
	case *Unary:
		if ex.Postfix {
			renderExpr(b, ex.Operand)
			b.WriteString(ex.Op)
		} else {
			b.WriteString(ex.Op)
			renderExpr(b, ex.Operand)
		}
	case *Conditional:
		renderExpr(b, ex.Cond)
		b.WriteString(" ? ")
		renderExpr(b, ex.Then)
		b.WriteString(" : ")
		renderExpr(b, ex.Else)
	case *ListLiteral:
		b.WriteByte('[')
		for i, el := range ex.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			renderExpr(b, el)
		}
		b.WriteByte(']')
	case *MapLiteral:
		b.WriteByte('{')
		for i, entry := range ex.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			renderExpr(b, entry.Key)
			b.WriteString(": ")
			renderExpr(b, entry.Value)
		}
		b.WriteByte('}')
	case *SetLiteral:
		b.WriteByte('{')
		for i, el := range ex.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			renderExpr(b, el)
		}
		b.WriteByte('}')
	case *StringTemplate:
		b.WriteByte('\'')
		for _, part := range ex.Parts {
			if lit, ok := part.(*Literal); ok && lit.Kind == LitString {
				b.WriteString(lit.Value)
				continue
			}
			b.WriteString("${")
			renderExpr(b, part)
			b.WriteByte('}')
		}
		b.WriteByte('\'')
	case *Await:
		b.WriteString("await ")
		renderExpr(b, ex.Operand)
	case *Assignment:
		renderExpr(b, ex.Target)
		fmt.Fprintf(b, " %s ", ex.Op)
		renderExpr(b, ex.Value)
	case *Cast:
		renderExpr(b, ex.Operand)
		fmt.Fprintf(b, " as %s", ex.TypeName)
	case *TypeTest:
		renderExpr(b, ex.Operand)
		if ex.Negated {
			fmt.Fprintf(b, " is! %s", ex.TypeName)
		} else {
			fmt.Fprintf(b, " is %s", ex.TypeName)
		}
	case *Index:
		renderExpr(b, ex.Target)
		b.WriteByte('[')
		renderExpr(b, ex.Key)
		b.WriteByte(']')
	case *Closure:
		b.WriteByte('(')
		for i, p := range ex.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
		}
		b.WriteString(") ")
		if ex.Expr != nil {
			b.WriteString("=> ")
			renderExpr(b, ex.Expr)
		} else {
			b.WriteString("{ ")
			for _, s := range ex.Body {
				renderStmt(b, s)
			}
			b.WriteString("} ")
		}
	}
}

func renderTypeArgs(b *strings.Builder, args []string) {
	if len(args) == 0 {
		return
	}
	b.WriteByte('<')
	b.WriteString(strings.Join(args, ", "))
	b.WriteByte('>')
}

func renderArgs(b *strings.Builder, args []Argument) {
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		if a.Name != "" {
			b.WriteString(a.Name)
			b.WriteString(": ")
		}
		renderExpr(b, a.Value)
	}
	b.WriteByte(')')
}
