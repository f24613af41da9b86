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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse(src)
	require.NoError(t, err)
	return prog
}

func parseError(t *testing.T, src string) *SyntaxError {
	t.Helper()
	_, err := Parse(src)
	require.Error(t, err)
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	return se
}

func TestParse_Declarations(t *testing.T) {
	prog := mustParse(t, `let x = 1; const y = "hi"; var z;`)
	require.Len(t, prog.Stmts, 3)

	decl := prog.Stmts[0].(*DeclStmt)
	assert.Equal(t, "let", decl.Keyword)
	assert.Equal(t, "x", decl.Name)
	assert.Equal(t, 1.0, decl.Value.(*NumberLit).Value)

	constDecl := prog.Stmts[1].(*DeclStmt)
	assert.Equal(t, "const", constDecl.Keyword)
	assert.Equal(t, "hi", constDecl.Value.(*StringLit).Value)

	varDecl := prog.Stmts[2].(*DeclStmt)
	assert.Equal(t, "var", varDecl.Keyword)
	assert.Nil(t, varDecl.Value)
}

func TestParse_OperatorPrecedence(t *testing.T) {
	prog := mustParse(t, `let x = 1 + 2 * 3;`)
	decl := prog.Stmts[0].(*DeclStmt)

	add := decl.Value.(*BinaryExpr)
	assert.Equal(t, "+", add.Op)
	mul := add.Right.(*BinaryExpr)
	assert.Equal(t, "*", mul.Op)
}

func TestParse_LogicalBindsLooserThanComparison(t *testing.T) {
	prog := mustParse(t, `let ok = a < 1 && b > 2 || c === 3;`)
	decl := prog.Stmts[0].(*DeclStmt)

	or := decl.Value.(*BinaryExpr)
	assert.Equal(t, "||", or.Op)
	and := or.Left.(*BinaryExpr)
	assert.Equal(t, "&&", and.Op)
	strict := or.Right.(*BinaryExpr)
	assert.Equal(t, "===", strict.Op)
}

func TestParse_IfElseChain(t *testing.T) {
	prog := mustParse(t, `
if (a) {
  f();
} else if (b) {
  g();
} else {
  h();
}`)
	require.Len(t, prog.Stmts, 1)

	outer := prog.Stmts[0].(*IfStmt)
	require.Len(t, outer.Else, 1)
	inner := outer.Else[0].(*IfStmt)
	require.Len(t, inner.Else, 1)
}

func TestParse_While(t *testing.T) {
	prog := mustParse(t, `while (i < 10) { i = i + 1; }`)
	loop := prog.Stmts[0].(*WhileStmt)
	require.Len(t, loop.Body, 1)

	assign := loop.Body[0].(*AssignStmt)
	assert.Equal(t, "i", assign.Target.(*Ident).Name)
}

func TestParse_AssignmentTargets(t *testing.T) {
	prog := mustParse(t, `x = 1; obj.field = 2; arr[0] = 3;`)
	require.Len(t, prog.Stmts, 3)

	assert.IsType(t, &Ident{}, prog.Stmts[0].(*AssignStmt).Target)
	assert.IsType(t, &MemberExpr{}, prog.Stmts[1].(*AssignStmt).Target)
	assert.IsType(t, &IndexExpr{}, prog.Stmts[2].(*AssignStmt).Target)

	se := parseError(t, `1 = 2;`)
	assert.Contains(t, se.Message, "invalid assignment target")
}

func TestParse_CallsAndMembers(t *testing.T) {
	prog := mustParse(t, `console.log("a", 1, true);`)
	call := prog.Stmts[0].(*ExprStmt).X.(*CallExpr)
	require.Len(t, call.Args, 3)

	member := call.Callee.(*MemberExpr)
	assert.Equal(t, "log", member.Property)
	assert.Equal(t, "console", member.Object.(*Ident).Name)
}

func TestParse_AwaitIsUnary(t *testing.T) {
	prog := mustParse(t, `await wait(100);`)
	unary := prog.Stmts[0].(*ExprStmt).X.(*UnaryExpr)
	assert.Equal(t, "await", unary.Op)
	assert.IsType(t, &CallExpr{}, unary.Operand)
}

func TestParse_ArrayLiteral(t *testing.T) {
	prog := mustParse(t, `let choices = ["a", "b", "c"];`)
	arr := prog.Stmts[0].(*DeclStmt).Value.(*ArrayLit)
	assert.Len(t, arr.Elems, 3)
}

func TestParse_OptionalSemicolons(t *testing.T) {
	prog := mustParse(t, "let a = 1\nlet b = 2\nreturn a + b")
	assert.Len(t, prog.Stmts, 3)
}

func TestParse_ReturnWithoutValue(t *testing.T) {
	prog := mustParse(t, `return;`)
	ret := prog.Stmts[0].(*ReturnStmt)
	assert.Nil(t, ret.Value)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{"function declaration", `function f() {}`, "function declarations are not supported"},
		{"stray else", `else { f(); }`, "without a matching if"},
		{"missing brace", `if (a) { f();`, "missing }"},
		{"unterminated string", `let s = "oops`, "unterminated string literal"},
		{"missing name", `let = 1;`, "expected variable name"},
		{"trailing operator", `let x = 1 +`, "unexpected end of script"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := parseError(t, tt.src)
			assert.Contains(t, se.Message, tt.message)
			assert.GreaterOrEqual(t, se.Line, 1)
			assert.GreaterOrEqual(t, se.Column, 1)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	se := parseError(t, "let a = 1;\nlet = 2;")
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, 5, se.Column)
}

func TestParse_EmptyInput(t *testing.T) {
	prog := mustParse(t, "")
	assert.Empty(t, prog.Stmts)

	prog = mustParse(t, "// just a comment\n")
	assert.Empty(t, prog.Stmts)
}
