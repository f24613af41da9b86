//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

// Package script implements the StoryScript language front end: a lexer
// and a recursive-descent parser producing the AST the sandbox interprets
// and the linter analyzes. StoryScript is a deliberately small, JS-like
// scripting language covering everything the graph compiler emits plus
// hand-authored card scripts.
package script

import "fmt"

// TokenType identifies the lexical class of a token.
type TokenType int

// Token types.
const (
	TokenEOF TokenType = iota
	TokenIllegal

	TokenNumber
	TokenString
	TokenIdent

	// Keywords.
	TokenLet
	TokenConst
	TokenVar
	TokenIf
	TokenElse
	TokenWhile
	TokenReturn
	TokenTrue
	TokenFalse
	TokenNull
	TokenAwait
	TokenFunction

	// Operators and punctuation.
	TokenAssign       // =
	TokenEq           // ==
	TokenStrictEq     // ===
	TokenNotEq        // !=
	TokenStrictNotEq  // !==
	TokenLess         // <
	TokenLessEq       // <=
	TokenGreater      // >
	TokenGreaterEq    // >=
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenPercent      // %
	TokenBang         // !
	TokenAnd          // &&
	TokenOr           // ||
	TokenDot          // .
	TokenComma        // ,
	TokenSemicolon    // ;
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]
)

var keywords = map[string]TokenType{
	"let":      TokenLet,
	"const":    TokenConst,
	"var":      TokenVar,
	"if":       TokenIf,
	"else":     TokenElse,
	"while":    TokenWhile,
	"return":   TokenReturn,
	"true":     TokenTrue,
	"false":    TokenFalse,
	"null":     TokenNull,
	"await":    TokenAwait,
	"function": TokenFunction,
}

// Token is one lexical token with its 1-indexed source position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "end of script"
	}
	return fmt.Sprintf("%q", t.Literal)
}

// SyntaxError is a parse or lex failure with its source position.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}
