//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eval runs a script in a throwaway sandbox and requires success.
func eval(t *testing.T, src string) any {
	t.Helper()
	result := ExecuteQuick(context.Background(), src, Card{ID: "c1", Title: "Card"})
	require.True(t, result.Success, "script failed: %v", result.Error)
	return result.ReturnValue
}

// evalError runs a script and requires a failure of the given type.
func evalError(t *testing.T, src string, typ ErrorType) *RuntimeError {
	t.Helper()
	result := ExecuteQuick(context.Background(), src, Card{ID: "c1", Title: "Card"})
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, typ, result.Error.Type)
	return result.Error
}

func TestInterp_Arithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{`return 2 + 3 * 4;`, 14.0},
		{`return (2 + 3) * 4;`, 20.0},
		{`return 10 / 4;`, 2.5},
		{`return 10 % 3;`, 1.0},
		{`return -5 + 2;`, -3.0},
		{`return 1 + 2 - 3;`, 0.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, eval(t, tt.src), tt.src)
	}
}

func TestInterp_StringConcat(t *testing.T) {
	assert.Equal(t, "score: 42", eval(t, `return "score: " + 42;`))
	assert.Equal(t, "3true", eval(t, `return 3 + "" + true;`))
	assert.Equal(t, "a null", eval(t, `return "a " + null;`))
}

func TestInterp_Equality(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{`return 1 == "1";`, true},
		{`return 1 === "1";`, false},
		{`return 1 === 1;`, true},
		{`return true == 1;`, true},
		{`return true === 1;`, false},
		{`return null == null;`, true},
		{`return "a" != "b";`, true},
		{`return 2 !== 2;`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, eval(t, tt.src), tt.src)
	}
}

func TestInterp_Relational(t *testing.T) {
	assert.Equal(t, true, eval(t, `return 1 < 2;`))
	assert.Equal(t, true, eval(t, `return "apple" < "banana";`))
	assert.Equal(t, true, eval(t, `return "10" > 9;`))
	evalError(t, `return null < [1];`, ErrType)
}

func TestInterp_ShortCircuit(t *testing.T) {
	// The right side must not evaluate when the left decides the result.
	assert.Equal(t, false, eval(t, `return false && missing();`))
	assert.Equal(t, true, eval(t, `return true || missing();`))
	// Operand values pass through, JS style.
	assert.Equal(t, "fallback", eval(t, `return "" || "fallback";`))
	assert.Equal(t, nil, eval(t, `return null && "never";`))
}

func TestInterp_Unary(t *testing.T) {
	assert.Equal(t, false, eval(t, `return !1;`))
	assert.Equal(t, true, eval(t, `return !"";`))
	assert.Equal(t, -2.0, eval(t, `return -(1 + 1);`))
	evalError(t, `return -"abc";`, ErrType)
}

func TestInterp_AwaitPassesThrough(t *testing.T) {
	assert.Equal(t, 5.0, eval(t, `let x = await 5; return x;`))
}

func TestInterp_VariablesAndScopes(t *testing.T) {
	assert.Equal(t, 3.0, eval(t, `let x = 1; x = x + 2; return x;`))

	// Inner blocks see and mutate outer bindings.
	assert.Equal(t, 10.0, eval(t, `
let total = 0;
let i = 0;
while (i < 4) {
  total = total + i;
  i = i + 1;
}
return total + i;`))

	// Block-local declarations do not leak out.
	evalError(t, `if (true) { let inner = 1; } return inner;`, ErrReference)
}

func TestInterp_DeclarationErrors(t *testing.T) {
	err := evalError(t, `let x = 1; let x = 2;`, ErrSyntax)
	assert.Contains(t, err.Message, "already been declared")

	err = evalError(t, `const c = 1; c = 2;`, ErrType)
	assert.Contains(t, err.Message, "Assignment to constant variable")

	err = evalError(t, `y = 5;`, ErrReference)
	assert.Contains(t, err.Message, "y is not defined")
}

func TestInterp_IfElse(t *testing.T) {
	assert.Equal(t, "big", eval(t, `
let n = 10;
if (n > 5) {
  return "big";
} else {
  return "small";
}`))
	assert.Equal(t, "mid", eval(t, `
let n = 5;
if (n > 7) {
  return "big";
} else if (n > 3) {
  return "mid";
} else {
  return "small";
}`))
}

func TestInterp_ArraysAndObjects(t *testing.T) {
	assert.Equal(t, "b", eval(t, `let a = ["a", "b"]; return a[1];`))
	// Reads out of range yield null rather than failing.
	assert.Equal(t, nil, eval(t, `let a = [1]; return a[5];`))
	// Writes out of range fail.
	evalError(t, `let a = [1]; a[5] = 2;`, ErrRange)
	evalError(t, `let a = [1]; return a["x"];`, ErrType)

	assert.Equal(t, "Card", eval(t, `return getCurrentCard().title;`))
	assert.Equal(t, "c1", eval(t, `let card = getCurrentCard(); return card["id"];`))
	evalError(t, `let n = null; return n.field;`, ErrType)
}

func TestInterp_CallErrors(t *testing.T) {
	err := evalError(t, `let x = 5; x();`, ErrType)
	assert.Contains(t, err.Message, "x is not a function")

	err = evalError(t, `nope(1);`, ErrReference)
	assert.Contains(t, err.Message, "nope is not defined")
}

func TestInterp_ErrorPositions(t *testing.T) {
	err := evalError(t, "let a = 1;\nmissing();", ErrReference)
	assert.Equal(t, 2, err.Line)
	assert.Equal(t, 1, err.Column)
}

func TestInterp_UndefinedGlobal(t *testing.T) {
	assert.Equal(t, nil, eval(t, `return undefined;`))
	assert.Equal(t, true, eval(t, `return undefined == null;`))
}
