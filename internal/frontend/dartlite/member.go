package dartlite

import "dartbridge/internal/engine/ast"

type memberModifiers struct {
	static    bool
	final     bool
	constant  bool
	late      bool
	external  bool
	factory   bool
	covariant bool
}

func (p *parser) parseModifiers() memberModifiers {
	var m memberModifiers
	for {
		switch {
		case p.at("static"):
			m.static = true
		case p.at("final"):
			m.final = true
		case p.at("const"):
			m.constant = true
		case p.at("late"):
			m.late = true
		case p.at("external"):
			m.external = true
		case p.at("factory"):
			m.factory = true
		case p.at("covariant"):
			m.covariant = true
		default:
			return m
		}
		p.advance()
	}
}

// parseMember dispatches one class member: annotation, constructor, field,
// getter/setter or method. Unrecognized members are skipped with recovery.
func (p *parser) parseMember(decl *ast.ClassDecl) {
	if p.at("@") {
		p.skipAnnotation()
		return
	}
	if p.accept(";") {
		return
	}

	start := p.pos
	mods := p.parseModifiers()

	// Constructor: the class's own name followed by ( or .name(.
	if p.cur().text == decl.Name && p.cur().kind == tokIdent &&
		(p.la(1).text == "(" || (p.la(1).text == "." && p.la(2).kind == tokIdent)) {
		p.parseConstructor(decl, mods)
		return
	}

	// Getter/setter without an explicit return type.
	if p.at("get") && p.la(1).kind == tokIdent {
		p.parseAccessor(decl, nil, mods)
		return
	}
	if p.at("set") && p.la(1).kind == tokIdent {
		p.parseAccessor(decl, nil, mods)
		return
	}

	var declared *ast.TypeRef
	if p.cur().kind == tokIdent || p.at("void") || p.at("var") || p.at("dynamic") {
		if p.accept("var") {
			declared = nil
		} else {
			declared = p.parseTypeRef()
		}
	} else {
		p.errorf("unexpected token %q in class body", p.cur().text)
		p.pos = start
		p.skipMember()
		return
	}

	// Typed getter/setter.
	if (p.at("get") || p.at("set")) && p.la(1).kind == tokIdent {
		p.parseAccessor(decl, declared, mods)
		return
	}

	if p.cur().kind != tokIdent && !p.at("operator") {
		// The "type" was actually the member name (var-less, type-less
		// declarations do not occur in the code this handles); recover.
		p.skipMember()
		return
	}

	if p.accept("operator") {
		// Operator declarations are parsed for bodies we do not need.
		p.skipMember()
		return
	}

	name := p.advance().text

	if p.at("(") || p.at("<") {
		method := p.parseFunctionRest(name, declared)
		method.Static = mods.static
		decl.Methods = append(decl.Methods, method)
		return
	}

	// Field declaration, possibly multiple names.
	for {
		field := &ast.FieldDecl{
			Name:   name,
			Type:   declared,
			Final:  mods.final,
			Const:  mods.constant,
			Late:   mods.late,
			Static: mods.static,
			Pos:    p.position(),
		}
		if p.accept("=") {
			field.Initializer = p.parseExpr()
		}
		decl.Fields = append(decl.Fields, field)
		if !p.accept(",") {
			break
		}
		if p.cur().kind != tokIdent {
			break
		}
		name = p.advance().text
	}
	p.accept(";")
}

func (p *parser) parseConstructor(decl *ast.ClassDecl, mods memberModifiers) {
	p.advance() // class name
	ctor := &ast.ConstructorDecl{Const: mods.constant, Pos: p.position()}
	if p.accept(".") && p.cur().kind == tokIdent {
		ctor.Name = p.advance().text
	}
	ctor.Params = p.parseParams()

	// Initializer list and redirections are skipped; the declaration
	// surface (name + parameters) is all the extractor reads.
	for !p.eof() && !p.at("{") && !p.at(";") && !p.at("=>") {
		if p.at("(") {
			p.skipBalanced("(", ")")
			continue
		}
		p.advance()
	}
	p.skipFunctionBody()
	decl.Constructors = append(decl.Constructors, ctor)
}

func (p *parser) parseAccessor(decl *ast.ClassDecl, returnType *ast.TypeRef, mods memberModifiers) {
	getter := p.accept("get")
	if !getter {
		p.expect("set")
	}
	name := p.advance().text

	m := &ast.MethodDecl{
		Name:       name,
		ReturnType: returnType,
		Getter:     getter,
		Setter:     !getter,
		Static:     mods.static,
		Pos:        p.position(),
	}
	if !getter && p.at("(") {
		m.Params = p.parseParams()
	}
	m.Async = p.accept("async")
	m.Body = p.parseFunctionBody()
	decl.Methods = append(decl.Methods, m)
}

// parseFunctionRest parses from the parameter list onward, the name and
// return type already consumed.
func (p *parser) parseFunctionRest(name string, returnType *ast.TypeRef) *ast.MethodDecl {
	m := &ast.MethodDecl{Name: name, ReturnType: returnType, Pos: p.position()}
	if p.at("<") {
		p.skipBalanced("<", ">")
	}
	m.Params = p.parseParams()
	if p.accept("async") {
		m.Async = true
		p.accept("*")
	} else if p.accept("sync") {
		p.accept("*")
	}
	m.Body = p.parseFunctionBody()
	return m
}

func (p *parser) parseParams() []*ast.Param {
	var params []*ast.Param
	if !p.expect("(") {
		return params
	}

	named := false
	optional := false
	for !p.eof() && !p.at(")") {
		switch {
		case p.accept("{"):
			named = true
			continue
		case p.accept("}"):
			named = false
			continue
		case p.accept("["):
			optional = true
			continue
		case p.accept("]"):
			optional = false
			continue
		case p.accept(","):
			continue
		case p.at("@"):
			p.skipAnnotation()
			continue
		}

		param := p.parseParam(named, optional)
		if param == nil {
			p.advance()
			continue
		}
		params = append(params, param)
	}
	p.expect(")")
	return params
}

// parseParam reads one parameter. Positional parameters are required
// unless inside []; named parameters are required only when marked.
func (p *parser) parseParam(named, optional bool) *ast.Param {
	param := &ast.Param{Named: named}
	if named {
		param.Required = p.accept("required")
	} else {
		param.Required = !optional
	}
	p.accept("covariant")
	p.accept("final")

	if p.accept("this") {
		if p.accept(".") && p.cur().kind == tokIdent {
			param.Name = p.advance().text
			param.IsThisField = true
		}
	} else if p.accept("super") {
		if p.accept(".") && p.cur().kind == tokIdent {
			param.Name = p.advance().text
		}
	} else {
		first := p.parseTypeRef()
		if first == nil {
			return nil
		}
		if p.cur().kind == tokIdent {
			param.Type = first
			param.Name = p.advance().text
		} else {
			// Single identifier: it was the name, untyped.
			param.Name = first.Name
		}
	}

	// Function-typed parameter: name(...) — the signature is skipped.
	if p.at("(") {
		p.skipBalanced("(", ")")
	}
	if p.accept("=") || p.accept(":") {
		param.DefaultValue = p.parseExpr()
	}
	return param
}

func (p *parser) parseFunctionBody() *ast.FuncBody {
	switch {
	case p.accept("=>"):
		body := &ast.FuncBody{Kind: ast.BodyExpression, Expr: p.parseExpr()}
		p.accept(";")
		return body
	case p.at("{"):
		p.advance()
		var stmts []ast.Stmt
		for !p.eof() && !p.at("}") {
			if s := p.parseStmt(); s != nil {
				stmts = append(stmts, s)
			}
		}
		p.expect("}")
		return &ast.FuncBody{Kind: ast.BodyBlock, Block: stmts}
	default:
		p.accept(";")
		return &ast.FuncBody{Kind: ast.BodyEmpty}
	}
}

// skipFunctionBody discards a body without building statements.
func (p *parser) skipFunctionBody() {
	switch {
	case p.accept("=>"):
		p.parseExpr()
		p.accept(";")
	case p.at("{"):
		p.skipBalanced("{", "}")
	default:
		p.accept(";")
	}
}

func (p *parser) skipMember() {
	for !p.eof() {
		switch p.cur().text {
		case ";":
			p.advance()
			return
		case "{":
			p.skipBalanced("{", "}")
			return
		case "}":
			return
		case "(":
			p.skipBalanced("(", ")")
		default:
			p.advance()
		}
	}
}

// parseTopLevelMember handles top-level functions; top-level variables and
// anything else are skipped.
func (p *parser) parseTopLevelMember() *ast.FunctionDecl {
	start := p.pos
	p.parseModifiers()

	var returnType *ast.TypeRef
	if p.cur().kind == tokIdent || p.at("void") || p.at("dynamic") {
		returnType = p.parseTypeRef()
	} else {
		p.pos = start
		p.skipToTopLevel()
		return nil
	}

	if p.cur().kind != tokIdent {
		p.pos = start
		p.skipToTopLevel()
		return nil
	}
	name := p.advance().text

	if !p.at("(") && !p.at("<") {
		// Top-level variable.
		p.pos = start
		p.skipToTopLevel()
		return nil
	}

	m := p.parseFunctionRest(name, returnType)
	return &ast.FunctionDecl{
		Name:       m.Name,
		ReturnType: m.ReturnType,
		Params:     m.Params,
		Body:       m.Body,
		Async:      m.Async,
		Pos:        m.Pos,
	}
}
