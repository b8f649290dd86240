package dartlite

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexer turns source text into a token stream. It understands comments,
// raw and interpolated strings, and the multi-character operators the
// expression parser needs. Everything else is a single-character symbol.
type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// tokenize scans the whole input. Lexical problems never abort the scan;
// an odd byte is emitted as a symbol token and left for the parser to
// reject in context.
func (l *lexer) tokenize() []token {
	var out []token
	for {
		l.skipTrivia()
		if l.pos >= len(l.src) {
			out = append(out, token{kind: tokEOF, line: l.line, col: l.col})
			return out
		}
		out = append(out, l.next())
	}
}

func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		r := l.peek()
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case r == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			depth := 1
			for l.pos < len(l.src) && depth > 0 {
				if l.peek() == '/' && l.peekAt(1) == '*' {
					depth++
					l.advance()
				} else if l.peek() == '*' && l.peekAt(1) == '/' {
					depth--
					l.advance()
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() token {
	line, col := l.line, l.col
	r := l.peek()

	switch {
	case r == '\'' || r == '"':
		return l.scanString(line, col, false)
	case r == 'r' && (l.peekAt(1) == '\'' || l.peekAt(1) == '"'):
		l.advance()
		return l.scanString(line, col, true)
	case unicode.IsLetter(r) || r == '_' || r == '$':
		return l.scanIdent(line, col)
	case unicode.IsDigit(r):
		return l.scanNumber(line, col)
	default:
		return l.scanSymbol(line, col)
	}
}

func (l *lexer) scanIdent(line, col int) token {
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			break
		}
		l.advance()
	}
	text := l.src[start:l.pos]
	kind := tokIdent
	if keywords[text] {
		kind = tokKeyword
	}
	return token{kind: kind, text: text, line: line, col: col}
}

func (l *lexer) scanNumber(line, col int) token {
	start := l.pos
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for l.pos < len(l.src) && isHexDigit(byte(l.peek())) {
			l.advance()
		}
		return token{kind: tokNumber, text: l.src[start:l.pos], line: line, col: col}
	}
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(rune(l.peekAt(1))) {
		l.advance()
		for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		save := l.pos
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if unicode.IsDigit(l.peek()) {
			for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
				l.advance()
			}
		} else {
			l.pos = save
		}
	}
	return token{kind: tokNumber, text: l.src[start:l.pos], line: line, col: col}
}

func isHexDigit(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}

// scanString handles single- and double-quoted strings, triple-quoted
// strings, escapes, and `$ident` / `${expr}` interpolation. The token text
// is the concatenated literal text; interpolated segments are carried in
// parts for the expression parser.
func (l *lexer) scanString(line, col int, raw bool) token {
	quote := l.advance()
	triple := false
	if l.peek() == quote && byte(quote) == l.peekAt(1) {
		l.advance()
		l.advance()
		triple = true
	}

	var text strings.Builder
	var parts []stringPart
	var pending strings.Builder

	flushLiteral := func() {
		if pending.Len() > 0 {
			parts = append(parts, stringPart{literal: pending.String()})
			pending.Reset()
		}
	}

	for l.pos < len(l.src) {
		r := l.peek()
		if r == quote {
			if !triple {
				l.advance()
				break
			}
			if byte(quote) == l.peekAt(1) && byte(quote) == l.peekAt(2) {
				l.advance()
				l.advance()
				l.advance()
				break
			}
			l.advance()
			text.WriteRune(r)
			pending.WriteRune(r)
			continue
		}
		if !raw && r == '\\' {
			l.advance()
			esc := l.advance()
			decoded := decodeEscape(esc)
			text.WriteString(decoded)
			pending.WriteString(decoded)
			continue
		}
		if !raw && r == '$' {
			l.advance()
			if l.peek() == '{' {
				l.advance()
				depth := 1
				start := l.pos
				for l.pos < len(l.src) && depth > 0 {
					switch l.peek() {
					case '{':
						depth++
					case '}':
						depth--
					}
					if depth > 0 {
						l.advance()
					}
				}
				exprSrc := l.src[start:l.pos]
				if l.pos < len(l.src) {
					l.advance() // closing brace
				}
				flushLiteral()
				parts = append(parts, stringPart{expr: exprSrc, isExpr: true})
				continue
			}
			start := l.pos
			for l.pos < len(l.src) {
				ir := l.peek()
				if !unicode.IsLetter(ir) && !unicode.IsDigit(ir) && ir != '_' {
					break
				}
				l.advance()
			}
			if l.pos > start {
				flushLiteral()
				parts = append(parts, stringPart{expr: l.src[start:l.pos], isExpr: true})
			} else {
				text.WriteByte('$')
				pending.WriteByte('$')
			}
			continue
		}
		if !triple && r == '\n' {
			// Unterminated single-line string; stop at the line break.
			break
		}
		l.advance()
		text.WriteRune(r)
		pending.WriteRune(r)
	}
	flushLiteral()

	tok := token{kind: tokString, text: text.String(), line: line, col: col, raw: raw}
	// Only carry parts when interpolation actually occurred.
	for _, p := range parts {
		if p.isExpr {
			tok.parts = parts
			break
		}
	}
	return tok
}

func decodeEscape(r rune) string {
	switch r {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		return "\x00"
	default:
		return string(r)
	}
}

// multi-character operators, longest first.
var symbols = []string{
	">>>=", "...?",
	">>=", "<<=", "~/=", "...", "??=", "&&=", "||=",
	"==", "!=", "<=", ">=", "&&", "||", "??", "?.", "=>", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", "~/",
}

func (l *lexer) scanSymbol(line, col int) token {
	rest := l.src[l.pos:]
	for _, s := range symbols {
		if strings.HasPrefix(rest, s) {
			for range s {
				l.advance()
			}
			return token{kind: tokSymbol, text: s, line: line, col: col}
		}
	}
	r := l.advance()
	return token{kind: tokSymbol, text: string(r), line: line, col: col}
}
