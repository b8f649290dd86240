package dartlite

import (
	"strings"

	"dartbridge/internal/engine/ast"
)

// Expression parsing is precedence climbing over the operator subset the
// extractor renders. Unknown operators bind at the lowest level and keep
// the parse moving instead of failing the file.

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"~/=": true, "??=": true, "&=": true, "|=": true, "^=": true,
	"<<=": true, ">>=": true, ">>>=": true,
}

func (p *parser) parseAssignment() ast.Expr {
	left := p.parseConditional()
	if assignOps[p.cur().text] && p.cur().kind == tokSymbol {
		op := p.advance().text
		right := p.parseAssignment()
		return &ast.Assignment{Target: left, Op: op, Value: right}
	}
	return left
}

func (p *parser) parseConditional() ast.Expr {
	cond := p.parseNullCoalesce()
	// `?` is also the nullable-type marker; only treat it as a ternary
	// when an expression follows.
	if p.at("?") && !p.atAny(")", "]", "}", ",", ";") {
		p.advance()
		then := p.parseNullCoalesce()
		p.expect(":")
		els := p.parseConditional()
		return &ast.Conditional{Cond: cond, Then: then, Else: els}
	}
	return cond
}

func (p *parser) atAny(texts ...string) bool {
	for _, t := range texts {
		if p.at(t) {
			return true
		}
	}
	return false
}

func (p *parser) parseNullCoalesce() ast.Expr {
	left := p.parseLogicalOr()
	for p.at("??") {
		p.advance()
		right := p.parseLogicalOr()
		left = &ast.Binary{Op: "??", Left: left, Right: right}
	}
	return left
}

func (p *parser) parseLogicalOr() ast.Expr {
	left := p.parseLogicalAnd()
	for p.at("||") {
		p.advance()
		left = &ast.Binary{Op: "||", Left: left, Right: p.parseLogicalAnd()}
	}
	return left
}

func (p *parser) parseLogicalAnd() ast.Expr {
	left := p.parseEquality()
	for p.at("&&") {
		p.advance()
		left = &ast.Binary{Op: "&&", Left: left, Right: p.parseEquality()}
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for p.at("==") || p.at("!=") {
		op := p.advance().text
		left = &ast.Binary{Op: op, Left: left, Right: p.parseRelational()}
	}
	return left
}

func (p *parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	for {
		switch {
		case p.at("<") || p.at(">") || p.at("<=") || p.at(">="):
			// `<` after a bare identifier is ambiguous with type
			// arguments; comparisons in declaration bodies are rare
			// enough that a failed argument parse falls back here.
			op := p.advance().text
			left = &ast.Binary{Op: op, Left: left, Right: p.parseAdditive()}
		case p.at("is"):
			p.advance()
			negated := p.accept("!")
			test := &ast.TypeTest{Operand: left, Negated: negated}
			if ref := p.parseTypeRef(); ref != nil {
				test.Type = *ref
			}
			left = test
		case p.at("as") && p.cur().kind == tokKeyword:
			p.advance()
			cast := &ast.Cast{Operand: left}
			if ref := p.parseTypeRef(); ref != nil {
				cast.Type = *ref
			}
			left = cast
		default:
			return left
		}
	}
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.at("+") || p.at("-") {
		op := p.advance().text
		left = &ast.Binary{Op: op, Left: left, Right: p.parseMultiplicative()}
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.at("*") || p.at("/") || p.at("%") || p.at("~/") {
		op := p.advance().text
		left = &ast.Binary{Op: op, Left: left, Right: p.parseUnary()}
	}
	return left
}

func (p *parser) parseUnary() ast.Expr {
	switch {
	case p.at("!") || p.at("-") || p.at("~"):
		op := p.advance().text
		return &ast.Unary{Op: op, Operand: p.parseUnary()}
	case p.at("++") || p.at("--"):
		op := p.advance().text
		return &ast.Unary{Op: op, Operand: p.parseUnary()}
	case p.at("await"):
		p.advance()
		return &ast.Await{Operand: p.parseUnary()}
	case p.at("throw"):
		// Rendered as a call so the IR needs no dedicated node.
		p.advance()
		return &ast.Call{Name: "throw", Args: []ast.Argument{{Value: p.parseExpr()}}}
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch {
		case p.at(".") || p.at("?."):
			p.advance()
			if p.cur().kind != tokIdent && p.cur().kind != tokKeyword {
				return expr
			}
			name := p.advance().text
			if p.at("(") || p.typeArgsAhead() {
				typeArgs := p.maybeTypeArgs()
				args := p.parseArgs()
				expr = &ast.Call{Target: expr, Name: name, TypeArgs: typeArgs, Args: args}
			} else {
				expr = &ast.PropertyAccess{Target: expr, Name: name}
			}
		case p.at("("):
			// Calling a non-name expression (closure result etc.);
			// modeled as a call with an empty name.
			args := p.parseArgs()
			expr = &ast.Call{Target: expr, Args: args}
		case p.at("["):
			p.advance()
			key := p.parseExpr()
			p.expect("]")
			expr = &ast.Index{Target: expr, Key: key}
		case p.at("++") || p.at("--"):
			op := p.advance().text
			expr = &ast.Unary{Op: op, Operand: expr, Postfix: true}
		case p.at("!"):
			// Null assertion: transparent in the IR.
			p.advance()
		case p.at("..") || p.at("?.."):
			// Cascades: fold each section onto the receiver as a call or
			// property access for rendering purposes.
			p.advance()
			if p.cur().kind != tokIdent {
				return expr
			}
			name := p.advance().text
			if p.at("(") {
				p.parseArgs()
			} else if p.at("=") {
				p.advance()
				p.parseExpr()
			}
			expr = &ast.PropertyAccess{Target: expr, Name: name}
		default:
			return expr
		}
	}
}

// typeArgsAhead reports whether the current position starts a plausible
// type-argument list followed by a call: `<A, B<C>>(`.
func (p *parser) typeArgsAhead() bool {
	if !p.at("<") {
		return false
	}
	depth := 0
	for i := 0; i < 32; i++ {
		t := p.la(i)
		switch {
		case t.kind == tokEOF:
			return false
		case t.text == "<":
			depth++
		case t.text == ">":
			depth--
			if depth == 0 {
				return p.la(i+1).text == "("
			}
		case t.kind == tokIdent, t.text == ",", t.text == ".", t.text == "?":
		default:
			return false
		}
	}
	return false
}

func (p *parser) maybeTypeArgs() []ast.TypeRef {
	if !p.typeArgsAhead() {
		return nil
	}
	p.advance()
	var args []ast.TypeRef
	for !p.eof() && !p.at(">") {
		if ref := p.parseTypeRef(); ref != nil {
			args = append(args, *ref)
		} else {
			p.advance()
		}
		p.accept(",")
	}
	p.accept(">")
	return args
}

func (p *parser) parseArgs() []ast.Argument {
	var args []ast.Argument
	if !p.expect("(") {
		return args
	}
	for !p.eof() && !p.at(")") {
		var arg ast.Argument
		if p.cur().kind == tokIdent && p.la(1).text == ":" && p.la(2).text != ":" {
			arg.Name = p.advance().text
			p.advance() // colon
		}
		arg.Value = p.parseExpr()
		args = append(args, arg)
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return args
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.cur()

	switch t.kind {
	case tokString:
		return p.parseStringLiteral()
	case tokNumber:
		p.advance()
		kind := ast.LitInt
		if strings.ContainsAny(t.text, ".eE") && !strings.HasPrefix(t.text, "0x") {
			kind = ast.LitDouble
		}
		return &ast.Literal{Kind: kind, Value: t.text}
	}

	switch {
	case p.accept("true"):
		return &ast.Literal{Kind: ast.LitBool, Value: "true"}
	case p.accept("false"):
		return &ast.Literal{Kind: ast.LitBool, Value: "false"}
	case p.accept("null"):
		return &ast.Literal{Kind: ast.LitNull, Value: "null"}
	case p.at("const"), p.at("new"):
		isConst := p.advance().text == "const"
		if p.at("[") || p.at("{") {
			return p.parseCollection()
		}
		return p.parseCreation(isConst)
	case p.at("["):
		return p.parseCollection()
	case p.at("{"):
		return p.parseCollection()
	case p.at("("):
		if p.closureAhead() {
			return p.parseClosure()
		}
		p.advance()
		inner := p.parseExpr()
		p.expect(")")
		return inner
	case p.at("this"):
		p.advance()
		return &ast.Ident{Name: "this"}
	case p.at("super"):
		p.advance()
		return &ast.Ident{Name: "super"}
	case t.kind == tokIdent:
		return p.parseIdentOrCreation()
	}

	p.errorf("unexpected token %q in expression", t.text)
	p.advance()
	return &ast.Ident{Name: t.text}
}

// parseIdentOrCreation decides between a plain identifier, a function
// call, and an instance creation. An uppercase-initial name applied to
// arguments is an instance creation, matching framework convention.
func (p *parser) parseIdentOrCreation() ast.Expr {
	name := p.advance().text

	looksLikeType := typeLikeName(name)
	if looksLikeType && (p.at("(") || p.typeArgsAhead() ||
		(p.at(".") && p.la(1).kind == tokIdent && isLower(p.la(1).text) && p.la(2).text == "(" && isNamedCtor(p.la(1).text))) {
		p.pos--
		return p.parseCreation(false)
	}

	if p.at("(") || p.typeArgsAhead() {
		typeArgs := p.maybeTypeArgs()
		args := p.parseArgs()
		return &ast.Call{Name: name, TypeArgs: typeArgs, Args: args}
	}
	return &ast.Ident{Name: name}
}

// Named-constructor suffixes worth binding to the type rather than
// treating as a method call on a variable of the same name.
var namedCtorSuffixes = map[string]bool{
	"of": false, // Theme.of(context) reads, never constructs
}

func isNamedCtor(name string) bool {
	v, ok := namedCtorSuffixes[name]
	if ok {
		return v
	}
	return true
}

func isLower(s string) bool {
	return s != "" && s[0] >= 'a' && s[0] <= 'z'
}

// typeLikeName is uppercase-initial after any private-name underscores:
// Text, _CounterState, __Internal.
func typeLikeName(name string) bool {
	trimmed := strings.TrimLeft(name, "_")
	return trimmed != "" && trimmed[0] >= 'A' && trimmed[0] <= 'Z'
}

func (p *parser) parseCreation(isConst bool) ast.Expr {
	ref := p.parseTypeRef()
	if ref == nil {
		p.errorf("expected type after const/new")
		return &ast.Ident{Name: "?"}
	}

	creation := &ast.InstanceCreation{Type: *ref, Const: isConst}
	if p.accept(".") && p.cur().kind == tokIdent {
		creation.Constructor = p.advance().text
	}
	if p.at("(") {
		creation.Args = p.parseArgs()
		return creation
	}

	// No argument list: this was a bare identifier or property chain,
	// not a creation after all.
	var expr ast.Expr = &ast.Ident{Name: ref.Name}
	if creation.Constructor != "" {
		expr = &ast.PropertyAccess{Target: expr, Name: creation.Constructor}
	}
	return expr
}

func (p *parser) parseStringLiteral() ast.Expr {
	t := p.advance()
	if len(t.parts) == 0 {
		return &ast.Literal{Kind: ast.LitString, Value: t.text}
	}

	tmpl := &ast.StringTemplate{}
	for _, part := range t.parts {
		if part.isExpr {
			sub := &parser{
				toks: newLexer(part.expr).tokenize(),
				unit: p.unit,
			}
			tmpl.Parts = append(tmpl.Parts, sub.parseExpr())
			continue
		}
		tmpl.Parts = append(tmpl.Parts, &ast.Literal{Kind: ast.LitString, Value: part.literal})
	}
	return tmpl
}

// parseCollection reads list, set and map literals. Spread elements and
// collection-if/for are consumed but contribute their inner expressions
// only.
func (p *parser) parseCollection() ast.Expr {
	if p.accept("[") {
		list := &ast.ListLiteral{}
		for !p.eof() && !p.at("]") {
			if p.accept("...") || p.accept("...?") {
				list.Elements = append(list.Elements, p.parseExpr())
			} else if p.at("if") || p.at("for") {
				if e := p.parseCollectionControl(); e != nil {
					list.Elements = append(list.Elements, e)
				}
			} else {
				list.Elements = append(list.Elements, p.parseExpr())
			}
			if !p.accept(",") {
				break
			}
		}
		p.expect("]")
		return list
	}

	p.expect("{")
	// Decide set vs map by scanning the first entry for a top-level colon.
	isMap := p.braceIsMap()
	if isMap {
		m := &ast.MapLiteral{}
		for !p.eof() && !p.at("}") {
			if p.accept("...") || p.accept("...?") {
				p.parseExpr()
				if !p.accept(",") {
					break
				}
				continue
			}
			key := p.parseExpr()
			p.expect(":")
			value := p.parseExpr()
			m.Entries = append(m.Entries, ast.MapEntry{Key: key, Value: value})
			if !p.accept(",") {
				break
			}
		}
		p.expect("}")
		return m
	}

	s := &ast.SetLiteral{}
	for !p.eof() && !p.at("}") {
		if p.accept("...") || p.accept("...?") {
			s.Elements = append(s.Elements, p.parseExpr())
		} else {
			s.Elements = append(s.Elements, p.parseExpr())
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	return s
}

// parseCollectionControl handles `if (...) elem` and `for (...) elem`
// inside a collection literal, yielding the element expression.
func (p *parser) parseCollectionControl() ast.Expr {
	if p.accept("if") {
		if p.at("(") {
			p.skipBalanced("(", ")")
		}
		e := p.parseExpr()
		if p.accept("else") {
			p.parseExpr()
		}
		return e
	}
	p.expect("for")
	if p.at("(") {
		p.skipBalanced("(", ")")
	}
	return p.parseExpr()
}

// braceIsMap looks ahead from an already-consumed `{` for a colon before
// the matching close at depth zero.
func (p *parser) braceIsMap() bool {
	if p.at("}") {
		return true // {} is an empty map
	}
	depth := 0
	for i := 0; i < 256; i++ {
		t := p.la(i)
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]":
			depth--
		case "}":
			if depth == 0 {
				return false
			}
			depth--
		case ":":
			if depth == 0 {
				return true
			}
		case ",":
			if depth == 0 {
				return false
			}
		}
		if t.kind == tokEOF {
			return false
		}
	}
	return false
}

// closureAhead distinguishes `(a, b) => ...` and `(a) { ... }` from a
// parenthesized expression by looking past the matching close paren.
func (p *parser) closureAhead() bool {
	if !p.at("(") {
		return false
	}
	depth := 0
	for i := 0; i < 512; i++ {
		t := p.la(i)
		switch t.text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				next := p.la(i + 1)
				return next.text == "=>" || next.text == "{" || next.text == "async"
			}
		}
		if t.kind == tokEOF {
			return false
		}
	}
	return false
}

func (p *parser) parseClosure() ast.Expr {
	fn := &ast.FunctionLit{}
	fn.Params = p.parseParams()
	if p.accept("async") {
		p.accept("*")
	}
	fn.Body = p.parseFunctionBody()
	return fn
}
