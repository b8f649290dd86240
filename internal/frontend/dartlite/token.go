package dartlite

import "fmt"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokKeyword
	tokString
	tokNumber
	tokSymbol // operators and punctuation
)

type token struct {
	kind  tokenKind
	text  string
	line  int
	col   int
	raw   bool // raw string literal
	parts []stringPart
}

// stringPart is one segment of an interpolated string literal: either
// literal text or an embedded expression's source.
type stringPart struct {
	literal string
	expr    string
	isExpr  bool
}

func (t token) String() string {
	return fmt.Sprintf("%q@%d:%d", t.text, t.line, t.col)
}

var keywords = map[string]bool{
	"abstract": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "covariant": true, "default": true, "deferred": true,
	"do": true, "dynamic": true, "else": true, "enum": true, "export": true,
	"extends": true, "extension": true, "external": true, "factory": true,
	"false": true, "final": true, "finally": true, "for": true, "get": true,
	"hide": true, "if": true, "implements": true, "import": true, "in": true,
	"is": true, "late": true, "library": true, "mixin": true, "new": true,
	"null": true, "on": true, "operator": true, "part": true, "required": true,
	"rethrow": true, "return": true, "set": true, "show": true, "static": true,
	"super": true, "switch": true, "sync": true, "this": true, "throw": true,
	"true": true, "try": true, "typedef": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true,
}
