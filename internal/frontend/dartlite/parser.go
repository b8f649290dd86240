// Package dartlite is a declaration-level source parser. It recovers the
// structure the extractor needs — directives, type declarations, members
// and bodies — without attempting full language coverage; constructs it
// does not model are skipped with balanced-delimiter recovery.
package dartlite

import (
	"fmt"

	"dartbridge/internal/engine/ast"
	"dartbridge/internal/engine/graph"
)

type parser struct {
	toks []token
	pos  int
	unit *ast.CompilationUnit
}

// Parse builds the compilation unit for one file's content.
func Parse(file graph.FileIdentity, content []byte) *ast.CompilationUnit {
	p := &parser{
		toks: newLexer(string(content)).tokenize(),
		unit: &ast.CompilationUnit{File: file},
	}
	p.parseUnit()
	return p.unit
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) la(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) eof() bool { return p.cur().kind == tokEOF }

func (p *parser) advance() token {
	t := p.cur()
	if !p.eof() {
		p.pos++
	}
	return t
}

func (p *parser) at(text string) bool { return p.cur().text == text && p.cur().kind != tokString }

func (p *parser) accept(text string) bool {
	if p.at(text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(text string) bool {
	if p.accept(text) {
		return true
	}
	p.errorf("expected %q, found %q", text, p.cur().text)
	return false
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.unit.Diagnostics = append(p.unit.Diagnostics, ast.Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Pos:     ast.Position{Line: p.cur().line, Column: p.cur().col},
	})
}

func (p *parser) position() ast.Position {
	return ast.Position{Line: p.cur().line, Column: p.cur().col}
}

// skipBalanced consumes from an opening delimiter to its matching close.
// The opener must be the current token.
func (p *parser) skipBalanced(open, close string) {
	depth := 0
	for !p.eof() {
		switch p.cur().text {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// skipToTopLevel recovers after an unparseable declaration: consume until a
// semicolon or a balanced brace block at depth zero.
func (p *parser) skipToTopLevel() {
	for !p.eof() {
		switch p.cur().text {
		case ";":
			p.advance()
			return
		case "{":
			p.skipBalanced("{", "}")
			return
		case "(":
			p.skipBalanced("(", ")")
		default:
			p.advance()
		}
	}
}

func (p *parser) parseUnit() {
	for !p.eof() {
		switch {
		case p.at("library"):
			p.parseLibrary()
		case p.at("import"), p.at("export"):
			p.parseDirective()
		case p.at("part"):
			p.skipToTopLevel()
		case p.at("@"):
			p.skipAnnotation()
		case p.at("abstract") || p.at("class") || p.at("mixin") || p.at("enum") || p.at("extension"):
			if decl := p.parseClassLike(); decl != nil {
				p.unit.Classes = append(p.unit.Classes, decl)
			}
		case p.at("typedef"):
			p.skipToTopLevel()
		default:
			if decl := p.parseTopLevelMember(); decl != nil {
				p.unit.Functions = append(p.unit.Functions, decl)
			}
		}
	}
}

func (p *parser) parseLibrary() {
	p.expect("library")
	name := ""
	for p.cur().kind == tokIdent || p.cur().kind == tokKeyword {
		name += p.advance().text
		if !p.accept(".") {
			break
		}
		name += "."
	}
	p.unit.LibraryName = name
	p.accept(";")
}

func (p *parser) parseDirective() {
	d := ast.Directive{Pos: p.position()}
	if p.accept("export") {
		d.Kind = ast.DirectiveExport
	} else {
		p.expect("import")
		d.Kind = ast.DirectiveImport
	}

	if p.cur().kind != tokString {
		p.errorf("expected import URI string, found %q", p.cur().text)
		p.skipToTopLevel()
		return
	}
	d.URI = p.advance().text

	for !p.eof() && !p.at(";") {
		switch {
		case p.accept("deferred"):
			d.Deferred = true
		case p.accept("as"):
			if p.cur().kind == tokIdent {
				d.Prefix = p.advance().text
			}
		case p.accept("show"):
			d.Shown = p.parseNameList()
		case p.accept("hide"):
			d.Hidden = p.parseNameList()
		default:
			p.advance()
		}
	}
	p.accept(";")
	p.unit.Directives = append(p.unit.Directives, d)
}

func (p *parser) parseNameList() []string {
	var names []string
	for p.cur().kind == tokIdent {
		names = append(names, p.advance().text)
		if !p.accept(",") {
			break
		}
	}
	return names
}

func (p *parser) skipAnnotation() {
	p.expect("@")
	for p.cur().kind == tokIdent || p.cur().kind == tokKeyword {
		p.advance()
		if !p.accept(".") {
			break
		}
	}
	if p.at("(") {
		p.skipBalanced("(", ")")
	}
}

// parseTypeRef reads a possibly parameterized, possibly nullable type
// reference: Map<String, List<int>>?, State<Counter>, void.
func (p *parser) parseTypeRef() *ast.TypeRef {
	if p.cur().kind != tokIdent && p.cur().kind != tokKeyword {
		return nil
	}
	ref := &ast.TypeRef{Name: p.advance().text}
	for p.at(".") && p.la(1).kind == tokIdent {
		p.advance()
		ref.Name += "." + p.advance().text
	}
	if p.at("<") {
		p.advance()
		for !p.eof() && !p.at(">") {
			arg := p.parseTypeRef()
			if arg == nil {
				// Function types and other shapes we do not model.
				p.skipTypeArg()
			} else {
				ref.Args = append(ref.Args, *arg)
			}
			if !p.accept(",") {
				break
			}
		}
		p.accept(">")
	}
	p.accept("?")
	return ref
}

func (p *parser) skipTypeArg() {
	depth := 0
	for !p.eof() {
		switch p.cur().text {
		case "<":
			depth++
		case ">":
			if depth == 0 {
				return
			}
			depth--
		case ",":
			if depth == 0 {
				return
			}
		}
		p.advance()
	}
}

func (p *parser) parseClassLike() *ast.ClassDecl {
	decl := &ast.ClassDecl{Pos: p.position()}
	decl.Abstract = p.accept("abstract")

	switch {
	case p.accept("class"):
	case p.accept("mixin"):
		decl.IsMixin = true
		p.accept("class") // mixin class
	case p.accept("enum"):
		decl.IsEnum = true
	case p.accept("extension"):
		decl.IsExtension = true
	default:
		p.errorf("expected type declaration, found %q", p.cur().text)
		p.skipToTopLevel()
		return nil
	}

	if p.cur().kind != tokIdent {
		p.errorf("expected type name, found %q", p.cur().text)
		p.skipToTopLevel()
		return nil
	}
	decl.Name = p.advance().text

	if p.at("<") {
		p.advance()
		for !p.eof() && !p.at(">") {
			if p.cur().kind == tokIdent {
				decl.TypeParams = append(decl.TypeParams, p.advance().text)
				if p.accept("extends") {
					p.parseTypeRef()
				}
			} else {
				p.advance()
			}
			p.accept(",")
		}
		p.accept(">")
	}

	for !p.eof() && !p.at("{") && !p.at(";") {
		switch {
		case p.accept("extends"):
			decl.Supertype = p.parseTypeRef()
		case p.accept("with"):
			for {
				if ref := p.parseTypeRef(); ref != nil {
					decl.Mixins = append(decl.Mixins, *ref)
				}
				if !p.accept(",") {
					break
				}
			}
		case p.accept("implements"):
			for {
				if ref := p.parseTypeRef(); ref != nil {
					decl.Interfaces = append(decl.Interfaces, *ref)
				}
				if !p.accept(",") {
					break
				}
			}
		case decl.IsExtension && p.accept("on"):
			if ref := p.parseTypeRef(); ref != nil {
				decl.ExtendedType = ref.Name
			}
		default:
			p.advance()
		}
	}

	if p.accept(";") {
		return decl
	}
	if !p.expect("{") {
		p.skipToTopLevel()
		return decl
	}

	if decl.IsEnum {
		p.parseEnumBody(decl)
		return decl
	}

	for !p.eof() && !p.at("}") {
		p.parseMember(decl)
	}
	p.expect("}")
	return decl
}

func (p *parser) parseEnumBody(decl *ast.ClassDecl) {
	for !p.eof() && !p.at("}") && !p.at(";") {
		if p.at("@") {
			p.skipAnnotation()
			continue
		}
		if p.cur().kind == tokIdent {
			decl.EnumValues = append(decl.EnumValues, p.advance().text)
			if p.at("(") {
				p.skipBalanced("(", ")")
			}
		} else {
			p.advance()
		}
		if !p.accept(",") {
			break
		}
	}
	// Enhanced enum members after the value list are skipped.
	if p.accept(";") {
		depth := 1
		for !p.eof() && depth > 0 {
			switch p.cur().text {
			case "{":
				depth++
			case "}":
				depth--
				if depth == 0 {
					p.advance()
					return
				}
			}
			p.advance()
		}
		return
	}
	p.expect("}")
}
