//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package script

import "strings"

// Lexer turns script text into a token stream. Positions are 1-indexed
// lines and columns.
type Lexer struct {
	src    string
	pos    int
	line   int
	column int
}

// NewLexer creates a lexer over the given script text.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, column: 1}
}

// Next returns the next token. After EOF it keeps returning EOF. Illegal
// input yields a TokenIllegal whose Literal carries the diagnostic.
func (l *Lexer) Next() Token {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return Token{Type: TokenEOF, Line: l.line, Column: l.column}
	}

	start := l.mark()
	ch := l.src[l.pos]
	switch {
	case isDigit(ch):
		return l.lexNumber(start)
	case ch == '"' || ch == '\'':
		return l.lexString(start, ch)
	case isIdentStart(ch):
		return l.lexIdent(start)
	default:
		return l.lexOperator(start)
	}
}

type position struct {
	line, column int
}

func (l *Lexer) mark() position {
	return position{line: l.line, column: l.column}
}

func (l *Lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.src) {
				if l.src[l.pos] == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) lexNumber(start position) Token {
	var b strings.Builder
	for l.pos < len(l.src) && isDigit(l.peek()) {
		b.WriteByte(l.advance())
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		b.WriteByte(l.advance())
		for l.pos < len(l.src) && isDigit(l.peek()) {
			b.WriteByte(l.advance())
		}
	}
	return Token{Type: TokenNumber, Literal: b.String(), Line: start.line, Column: start.column}
}

func (l *Lexer) lexString(start position, quote byte) Token {
	l.advance() // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		ch := l.peek()
		if ch == '\n' {
			break
		}
		if ch == '\\' {
			l.advance()
			if l.pos >= len(l.src) {
				break
			}
			switch esc := l.advance(); esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(esc)
			default:
				b.WriteByte(esc)
			}
			continue
		}
		l.advance()
		if ch == quote {
			return Token{Type: TokenString, Literal: b.String(), Line: start.line, Column: start.column}
		}
		b.WriteByte(ch)
	}
	return Token{
		Type:    TokenIllegal,
		Literal: "unterminated string literal",
		Line:    start.line,
		Column:  start.column,
	}
}

func (l *Lexer) lexIdent(start position) Token {
	var b strings.Builder
	for l.pos < len(l.src) && isIdentPart(l.peek()) {
		b.WriteByte(l.advance())
	}
	literal := b.String()
	if kw, ok := keywords[literal]; ok {
		return Token{Type: kw, Literal: literal, Line: start.line, Column: start.column}
	}
	return Token{Type: TokenIdent, Literal: literal, Line: start.line, Column: start.column}
}

// two- and three-character operators, longest match first.
var operators = []struct {
	text string
	typ  TokenType
}{
	{"===", TokenStrictEq},
	{"!==", TokenStrictNotEq},
	{"==", TokenEq},
	{"!=", TokenNotEq},
	{"<=", TokenLessEq},
	{">=", TokenGreaterEq},
	{"&&", TokenAnd},
	{"||", TokenOr},
	{"=", TokenAssign},
	{"<", TokenLess},
	{">", TokenGreater},
	{"+", TokenPlus},
	{"-", TokenMinus},
	{"*", TokenStar},
	{"/", TokenSlash},
	{"%", TokenPercent},
	{"!", TokenBang},
	{".", TokenDot},
	{",", TokenComma},
	{";", TokenSemicolon},
	{"(", TokenLeftParen},
	{")", TokenRightParen},
	{"{", TokenLeftBrace},
	{"}", TokenRightBrace},
	{"[", TokenLeftBracket},
	{"]", TokenRightBracket},
}

func (l *Lexer) lexOperator(start position) Token {
	rest := l.src[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.text) {
			for range op.text {
				l.advance()
			}
			return Token{Type: op.typ, Literal: op.text, Line: start.line, Column: start.column}
		}
	}
	ch := l.advance()
	return Token{
		Type:    TokenIllegal,
		Literal: "unexpected character " + string(ch),
		Line:    start.line,
		Column:  start.column,
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }
