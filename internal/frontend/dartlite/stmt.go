package dartlite

import "dartbridge/internal/engine/ast"

func (p *parser) parseStmt() ast.Stmt {
	switch {
	case p.at("{"):
		p.advance()
		block := &ast.BlockStmt{}
		for !p.eof() && !p.at("}") {
			if s := p.parseStmt(); s != nil {
				block.Body = append(block.Body, s)
			}
		}
		p.expect("}")
		return block
	case p.at("if"):
		return p.parseIf()
	case p.at("for"):
		return p.parseFor()
	case p.at("while"):
		return p.parseWhile()
	case p.at("do"):
		return p.parseDoWhile()
	case p.at("switch"):
		return p.parseSwitch()
	case p.at("try"):
		return p.parseTry()
	case p.at("return"):
		p.advance()
		ret := &ast.ReturnStmt{}
		if !p.at(";") && !p.at("}") {
			ret.Value = p.parseExpr()
		}
		p.accept(";")
		return ret
	case p.at("break"):
		p.advance()
		if p.cur().kind == tokIdent {
			p.advance() // label
		}
		p.accept(";")
		return &ast.BreakStmt{}
	case p.at("continue"):
		p.advance()
		if p.cur().kind == tokIdent {
			p.advance()
		}
		p.accept(";")
		return &ast.ContinueStmt{}
	case p.at("yield"):
		p.advance()
		y := &ast.YieldStmt{Delegate: p.accept("*")}
		y.Value = p.parseExpr()
		p.accept(";")
		return y
	case p.at("rethrow"):
		p.advance()
		p.accept(";")
		return &ast.ExprStmt{Expr: &ast.Ident{Name: "rethrow"}}
	case p.at("assert"):
		p.advance()
		if p.at("(") {
			p.skipBalanced("(", ")")
		}
		p.accept(";")
		return nil
	case p.at(";"):
		p.advance()
		return nil
	}

	if decl := p.tryVarDecl(); decl != nil {
		return decl
	}

	expr := p.parseExpr()
	p.accept(";")
	return &ast.ExprStmt{Expr: expr}
}

// tryVarDecl recognizes `final x = ...`, `var x = ...`, `int x;`,
// `late final Foo x = ...` and rewinds when the lookahead turns out to be
// an expression.
func (p *parser) tryVarDecl() ast.Stmt {
	start := p.pos

	isFinal := false
	hasModifier := false
	for p.at("late") || p.at("final") || p.at("const") {
		if p.at("final") || p.at("const") {
			isFinal = true
		}
		hasModifier = true
		p.advance()
	}

	var declared *ast.TypeRef
	switch {
	case p.accept("var"):
	case p.cur().kind == tokIdent || p.at("dynamic"):
		// `final Foo x` carries a type; `final x` does not. Without a
		// modifier only `Type name` counts as a declaration at all.
		if p.looksLikeTypedDecl() {
			declared = p.parseTypeRef()
		} else if !hasModifier {
			p.pos = start
			return nil
		}
	default:
		p.pos = start
		return nil
	}

	if p.cur().kind != tokIdent {
		p.pos = start
		return nil
	}
	name := p.advance().text

	decl := &ast.VarDeclStmt{Name: name, Type: declared, Final: isFinal}
	if p.accept("=") {
		decl.Initializer = p.parseExpr()
	}
	// Extra declarators share the statement; only the first is kept.
	for p.accept(",") && p.cur().kind == tokIdent {
		p.advance()
		if p.accept("=") {
			p.parseExpr()
		}
	}
	p.accept(";")
	return decl
}

// looksLikeTypedDecl distinguishes `Foo bar = ...` from expressions like
// `foo.bar()` by requiring ident [generics] [?] ident.
func (p *parser) looksLikeTypedDecl() bool {
	if p.cur().kind != tokIdent {
		return false
	}
	i := 1
	if p.la(i).text == "<" {
		depth := 0
		for ; i < 48; i++ {
			switch p.la(i).text {
			case "<":
				depth++
			case ">":
				depth--
			}
			if depth == 0 && p.la(i).text == ">" {
				i++
				break
			}
			if p.la(i).kind == tokEOF {
				return false
			}
		}
	}
	if p.la(i).text == "?" {
		i++
	}
	return p.la(i).kind == tokIdent && (p.la(i+1).text == "=" || p.la(i+1).text == ";" || p.la(i+1).text == ",")
}

func (p *parser) parseIf() ast.Stmt {
	p.expect("if")
	p.expect("(")
	cond := p.parseExpr()
	p.accept("case") // if-case patterns are not modeled; condition only
	p.expect(")")
	stmt := &ast.IfStmt{Cond: cond, Then: p.parseStmt()}
	if p.accept("else") {
		stmt.Else = p.parseStmt()
	}
	return stmt
}

func (p *parser) parseFor() ast.Stmt {
	p.expect("for")
	p.expect("(")

	// for-each: [final|var|Type] name in iterable
	if s := p.tryForEach(); s != nil {
		return s
	}

	stmt := &ast.ForStmt{}
	if !p.at(";") {
		stmt.Init = p.parseStmt() // consumes its own semicolon
	} else {
		p.advance()
	}
	if !p.at(";") {
		stmt.Cond = p.parseExpr()
	}
	p.accept(";")
	if !p.at(")") {
		stmt.Post = p.parseExpr()
		for p.accept(",") {
			p.parseExpr()
		}
	}
	p.expect(")")
	stmt.Body = p.parseStmt()
	return stmt
}

func (p *parser) tryForEach() ast.Stmt {
	start := p.pos
	for p.at("final") || p.at("var") || p.at("await") {
		p.advance()
	}
	var ref *ast.TypeRef
	if p.cur().kind == tokIdent {
		ref = p.parseTypeRef()
	}
	name := ""
	if p.cur().kind == tokIdent {
		name = p.advance().text
	} else if p.at("in") && ref != nil {
		// `for (final x in ...)`: the lone identifier was the variable.
		name = ref.Name
	}
	if !p.at("in") {
		// The declared "type" may have been the loop variable itself.
		p.pos = start
		for p.at("final") || p.at("var") || p.at("await") {
			p.advance()
		}
		if p.cur().kind == tokIdent && p.la(1).text == "in" {
			name = p.advance().text
		} else {
			p.pos = start
			return nil
		}
	}
	p.expect("in")
	iterable := p.parseExpr()
	p.expect(")")
	return &ast.ForEachStmt{Var: name, Iterable: iterable, Body: p.parseStmt()}
}

func (p *parser) parseWhile() ast.Stmt {
	p.expect("while")
	p.expect("(")
	cond := p.parseExpr()
	p.expect(")")
	return &ast.WhileStmt{Cond: cond, Body: p.parseStmt()}
}

// parseDoWhile lowers do/while into a plain while; the distinction does
// not survive into the IR.
func (p *parser) parseDoWhile() ast.Stmt {
	p.expect("do")
	body := p.parseStmt()
	p.expect("while")
	p.expect("(")
	cond := p.parseExpr()
	p.expect(")")
	p.accept(";")
	return &ast.WhileStmt{Cond: cond, Body: body}
}

func (p *parser) parseSwitch() ast.Stmt {
	p.expect("switch")
	p.expect("(")
	stmt := &ast.SwitchStmt{Subject: p.parseExpr()}
	p.expect(")")
	p.expect("{")

	for !p.eof() && !p.at("}") {
		switch {
		case p.accept("case"):
			c := ast.SwitchCase{Value: p.parseExpr()}
			p.expect(":")
			c.Body = p.parseCaseBody()
			stmt.Cases = append(stmt.Cases, c)
		case p.accept("default"):
			p.expect(":")
			stmt.Cases = append(stmt.Cases, ast.SwitchCase{Body: p.parseCaseBody()})
		default:
			p.advance()
		}
	}
	p.expect("}")
	return stmt
}

func (p *parser) parseCaseBody() []ast.Stmt {
	var out []ast.Stmt
	for !p.eof() && !p.at("case") && !p.at("default") && !p.at("}") {
		if s := p.parseStmt(); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (p *parser) parseTry() ast.Stmt {
	p.expect("try")
	stmt := &ast.TryStmt{Body: p.parseBlockStmts()}

	for p.at("on") || p.at("catch") {
		clause := ast.CatchClause{}
		if p.accept("on") {
			clause.ExceptionType = p.parseTypeRef()
		}
		if p.accept("catch") {
			p.expect("(")
			if p.cur().kind == tokIdent {
				clause.Variable = p.advance().text
			}
			p.accept(",")
			if p.cur().kind == tokIdent {
				p.advance() // stack trace variable
			}
			p.expect(")")
		}
		clause.Body = p.parseBlockStmts()
		stmt.Catches = append(stmt.Catches, clause)
	}
	if p.accept("finally") {
		stmt.Finally = p.parseBlockStmts()
	}
	return stmt
}

func (p *parser) parseBlockStmts() []ast.Stmt {
	if !p.expect("{") {
		return nil
	}
	var out []ast.Stmt
	for !p.eof() && !p.at("}") {
		if s := p.parseStmt(); s != nil {
			out = append(out, s)
		}
	}
	p.expect("}")
	return out
}
