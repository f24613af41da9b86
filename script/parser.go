//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package script

import (
	"fmt"
	"strconv"
)

// Parse parses script text into a Program. On failure it returns a
// *SyntaxError carrying the 1-indexed position of the problem. Parsing
// never executes the script.
func Parse(src string) (prog *Program, err error) {
	p := &parser{lexer: NewLexer(src)}
	p.next()
	p.next()

	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			prog = nil
			err = se
		}
	}()

	prog = &Program{}
	for p.cur.Type != TokenEOF {
		prog.Stmts = append(prog.Stmts, p.parseStatement())
	}
	return prog, nil
}

// parser is a recursive-descent parser with one token of lookahead.
// It reports the first error via panic; Parse recovers it.
type parser struct {
	lexer *Lexer
	cur   Token
	peek  Token
}

func (p *parser) next() {
	p.cur = p.peek
	p.peek = p.lexer.Next()
	if p.cur.Type == TokenIllegal {
		p.fail(p.cur, "%s", p.cur.Literal)
	}
}

func (p *parser) fail(tok Token, format string, args ...any) {
	panic(&SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
	})
}

func (p *parser) expect(typ TokenType, what string) Token {
	if p.cur.Type != typ {
		p.fail(p.cur, "expected %s, got unexpected token %s", what, p.cur)
	}
	tok := p.cur
	p.next()
	return tok
}

func (p *parser) pos() Pos {
	return Pos{Line: p.cur.Line, Column: p.cur.Column}
}

func (p *parser) parseStatement() Stmt {
	switch p.cur.Type {
	case TokenLet, TokenConst, TokenVar:
		return p.parseDecl()
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenReturn:
		return p.parseReturn()
	case TokenSemicolon:
		at := p.pos()
		p.next()
		return &EmptyStmt{At: at}
	case TokenFunction:
		p.fail(p.cur, "function declarations are not supported")
		return nil
	case TokenElse:
		p.fail(p.cur, "unexpected token %s without a matching if", p.cur)
		return nil
	default:
		return p.parseSimpleStatement()
	}
}

func (p *parser) parseDecl() Stmt {
	at := p.pos()
	keyword := p.cur.Literal
	p.next()
	name := p.expect(TokenIdent, "variable name")

	var value Expr
	if p.cur.Type == TokenAssign {
		p.next()
		value = p.parseExpression()
	}
	p.endStatement()
	return &DeclStmt{Keyword: keyword, Name: name.Literal, Value: value, At: at}
}

func (p *parser) parseIf() Stmt {
	at := p.pos()
	p.next()
	p.expect(TokenLeftParen, "(")
	cond := p.parseExpression()
	p.expect(TokenRightParen, ")")
	then := p.parseBlock()

	var elseStmts []Stmt
	if p.cur.Type == TokenElse {
		p.next()
		if p.cur.Type == TokenIf {
			elseStmts = []Stmt{p.parseIf()}
		} else {
			elseStmts = p.parseBlock()
		}
	}
	return &IfStmt{Cond: cond, Then: then, Else: elseStmts, At: at}
}

func (p *parser) parseWhile() Stmt {
	at := p.pos()
	p.next()
	p.expect(TokenLeftParen, "(")
	cond := p.parseExpression()
	p.expect(TokenRightParen, ")")
	body := p.parseBlock()
	return &WhileStmt{Cond: cond, Body: body, At: at}
}

func (p *parser) parseReturn() Stmt {
	at := p.pos()
	p.next()
	var value Expr
	if p.cur.Type != TokenSemicolon && p.cur.Type != TokenEOF &&
		p.cur.Type != TokenRightBrace {
		value = p.parseExpression()
	}
	p.endStatement()
	return &ReturnStmt{Value: value, At: at}
}

// parseBlock parses a braced statement list used as an if/while body.
func (p *parser) parseBlock() []Stmt {
	p.expect(TokenLeftBrace, "{")
	var stmts []Stmt
	for p.cur.Type != TokenRightBrace {
		if p.cur.Type == TokenEOF {
			p.fail(p.cur, "unexpected end of script, missing }")
		}
		stmts = append(stmts, p.parseStatement())
	}
	p.next()
	return stmts
}

// parseSimpleStatement parses an expression statement or an assignment.
func (p *parser) parseSimpleStatement() Stmt {
	at := p.pos()
	expr := p.parseExpression()

	if p.cur.Type == TokenAssign {
		switch expr.(type) {
		case *Ident, *MemberExpr, *IndexExpr:
		default:
			p.fail(p.cur, "invalid assignment target")
		}
		p.next()
		value := p.parseExpression()
		p.endStatement()
		return &AssignStmt{Target: expr, Value: value, At: at}
	}

	p.endStatement()
	return &ExprStmt{X: expr, At: at}
}

// endStatement consumes an optional terminating semicolon. Statements may
// also end at a closing brace or end of script.
func (p *parser) endStatement() {
	if p.cur.Type == TokenSemicolon {
		p.next()
	}
}

func (p *parser) parseExpression() Expr {
	return p.parseOr()
}

func (p *parser) parseOr() Expr {
	left := p.parseAnd()
	for p.cur.Type == TokenOr {
		at := p.pos()
		p.next()
		left = &BinaryExpr{Op: "||", Left: left, Right: p.parseAnd(), At: at}
	}
	return left
}

func (p *parser) parseAnd() Expr {
	left := p.parseEquality()
	for p.cur.Type == TokenAnd {
		at := p.pos()
		p.next()
		left = &BinaryExpr{Op: "&&", Left: left, Right: p.parseEquality(), At: at}
	}
	return left
}

func (p *parser) parseEquality() Expr {
	left := p.parseRelational()
	for {
		var op string
		switch p.cur.Type {
		case TokenEq:
			op = "=="
		case TokenStrictEq:
			op = "==="
		case TokenNotEq:
			op = "!="
		case TokenStrictNotEq:
			op = "!=="
		default:
			return left
		}
		at := p.pos()
		p.next()
		left = &BinaryExpr{Op: op, Left: left, Right: p.parseRelational(), At: at}
	}
}

func (p *parser) parseRelational() Expr {
	left := p.parseAdditive()
	for {
		var op string
		switch p.cur.Type {
		case TokenLess:
			op = "<"
		case TokenLessEq:
			op = "<="
		case TokenGreater:
			op = ">"
		case TokenGreaterEq:
			op = ">="
		default:
			return left
		}
		at := p.pos()
		p.next()
		left = &BinaryExpr{Op: op, Left: left, Right: p.parseAdditive(), At: at}
	}
}

func (p *parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for p.cur.Type == TokenPlus || p.cur.Type == TokenMinus {
		op := p.cur.Literal
		at := p.pos()
		p.next()
		left = &BinaryExpr{Op: op, Left: left, Right: p.parseMultiplicative(), At: at}
	}
	return left
}

func (p *parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for p.cur.Type == TokenStar || p.cur.Type == TokenSlash || p.cur.Type == TokenPercent {
		op := p.cur.Literal
		at := p.pos()
		p.next()
		left = &BinaryExpr{Op: op, Left: left, Right: p.parseUnary(), At: at}
	}
	return left
}

func (p *parser) parseUnary() Expr {
	switch p.cur.Type {
	case TokenBang:
		at := p.pos()
		p.next()
		return &UnaryExpr{Op: "!", Operand: p.parseUnary(), At: at}
	case TokenMinus:
		at := p.pos()
		p.next()
		return &UnaryExpr{Op: "-", Operand: p.parseUnary(), At: at}
	case TokenAwait:
		at := p.pos()
		p.next()
		return &UnaryExpr{Op: "await", Operand: p.parseUnary(), At: at}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses call, member and index suffixes.
func (p *parser) parsePostfix() Expr {
	expr := p.parsePrimary()
	for {
		switch p.cur.Type {
		case TokenDot:
			at := p.pos()
			p.next()
			prop := p.expect(TokenIdent, "property name")
			expr = &MemberExpr{Object: expr, Property: prop.Literal, At: at}
		case TokenLeftBracket:
			at := p.pos()
			p.next()
			index := p.parseExpression()
			p.expect(TokenRightBracket, "]")
			expr = &IndexExpr{Object: expr, Index: index, At: at}
		case TokenLeftParen:
			at := p.pos()
			p.next()
			var args []Expr
			for p.cur.Type != TokenRightParen {
				args = append(args, p.parseExpression())
				if p.cur.Type != TokenComma {
					break
				}
				p.next()
			}
			p.expect(TokenRightParen, ")")
			expr = &CallExpr{Callee: expr, Args: args, At: at}
		default:
			return expr
		}
	}
}

func (p *parser) parsePrimary() Expr {
	at := p.pos()
	switch p.cur.Type {
	case TokenNumber:
		value, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			p.fail(p.cur, "invalid number literal %s", p.cur)
		}
		p.next()
		return &NumberLit{Value: value, At: at}
	case TokenString:
		value := p.cur.Literal
		p.next()
		return &StringLit{Value: value, At: at}
	case TokenTrue, TokenFalse:
		value := p.cur.Type == TokenTrue
		p.next()
		return &BoolLit{Value: value, At: at}
	case TokenNull:
		p.next()
		return &NullLit{At: at}
	case TokenIdent:
		name := p.cur.Literal
		p.next()
		return &Ident{Name: name, At: at}
	case TokenLeftParen:
		p.next()
		expr := p.parseExpression()
		p.expect(TokenRightParen, ")")
		return expr
	case TokenLeftBracket:
		p.next()
		var elems []Expr
		for p.cur.Type != TokenRightBracket {
			elems = append(elems, p.parseExpression())
			if p.cur.Type != TokenComma {
				break
			}
			p.next()
		}
		p.expect(TokenRightBracket, "]")
		return &ArrayLit{Elems: elems, At: at}
	case TokenEOF:
		p.fail(p.cur, "unexpected end of script")
		return nil
	default:
		p.fail(p.cur, "unexpected token %s", p.cur)
		return nil
	}
}
