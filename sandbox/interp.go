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
	"math"
	"strings"

	"trpc.group/trpc-go/storyscript/script"
)

// stepCheckInterval is how many evaluation steps pass between context
// deadline checks. The check makes preemption cooperative but unconditional:
// even a script stuck in `while (true) {}` observes the deadline.
const stepCheckInterval = 1000

// builtinFunc is a host capability callable from script code.
type builtinFunc struct {
	name string
	fn   func(at script.Pos, args []any) (any, *RuntimeError)
}

// binding is one declared name in a scope.
type binding struct {
	value    any
	constant bool
}

// scope is a lexical environment chained to its parent.
type scope struct {
	parent *scope
	vars   map[string]*binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]*binding)}
}

func (s *scope) lookup(name string) (*binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

func (s *scope) declare(name string, value any, constant bool) bool {
	if _, exists := s.vars[name]; exists {
		return false
	}
	s.vars[name] = &binding{value: value, constant: constant}
	return true
}

// interp is a tree-walking interpreter over the script AST. One instance
// serves one Execute call.
type interp struct {
	ctx        context.Context
	globals    *scope
	steps      int
	timeoutMsg string
}

func newInterp(ctx context.Context, globals *scope, timeoutMsg string) *interp {
	return &interp{ctx: ctx, globals: globals, timeoutMsg: timeoutMsg}
}

// run executes a program and returns the script's return value, if any.
func (i *interp) run(prog *script.Program) (any, *RuntimeError) {
	top := newScope(i.globals)
	value, _, err := i.execStmts(prog.Stmts, top)
	return value, err
}

func (i *interp) checkStep(at script.Pos) *RuntimeError {
	i.steps++
	if i.steps%stepCheckInterval == 0 && i.ctx.Err() != nil {
		return newError(ErrRuntime, at.Line, at.Column, "%s", i.timeoutMsg)
	}
	return nil
}

// execStmts runs a statement list. The bool result reports whether a
// return statement terminated the list.
func (i *interp) execStmts(stmts []script.Stmt, sc *scope) (any, bool, *RuntimeError) {
	for _, stmt := range stmts {
		value, returned, err := i.execStmt(stmt, sc)
		if err != nil {
			return nil, false, err
		}
		if returned {
			return value, true, nil
		}
	}
	return nil, false, nil
}

func (i *interp) execStmt(stmt script.Stmt, sc *scope) (any, bool, *RuntimeError) {
	if err := i.checkStep(stmt.Pos()); err != nil {
		return nil, false, err
	}

	switch s := stmt.(type) {
	case *script.DeclStmt:
		var value any
		if s.Value != nil {
			v, err := i.evalExpr(s.Value, sc)
			if err != nil {
				return nil, false, err
			}
			value = v
		}
		if !sc.declare(s.Name, value, s.Keyword == "const") {
			return nil, false, newError(ErrSyntax, s.At.Line, s.At.Column,
				"Identifier %q has already been declared", s.Name)
		}
		return nil, false, nil

	case *script.AssignStmt:
		return nil, false, i.execAssign(s, sc)

	case *script.ExprStmt:
		_, err := i.evalExpr(s.X, sc)
		return nil, false, err

	case *script.IfStmt:
		cond, err := i.evalExpr(s.Cond, sc)
		if err != nil {
			return nil, false, err
		}
		if truthy(cond) {
			return i.execStmts(s.Then, newScope(sc))
		}
		if len(s.Else) > 0 {
			return i.execStmts(s.Else, newScope(sc))
		}
		return nil, false, nil

	case *script.WhileStmt:
		for {
			if err := i.checkStep(s.At); err != nil {
				return nil, false, err
			}
			cond, err := i.evalExpr(s.Cond, sc)
			if err != nil {
				return nil, false, err
			}
			if !truthy(cond) {
				return nil, false, nil
			}
			value, returned, err := i.execStmts(s.Body, newScope(sc))
			if err != nil || returned {
				return value, returned, err
			}
		}

	case *script.ReturnStmt:
		if s.Value == nil {
			return nil, true, nil
		}
		value, err := i.evalExpr(s.Value, sc)
		if err != nil {
			return nil, false, err
		}
		return value, true, nil

	case *script.EmptyStmt:
		return nil, false, nil

	default:
		return nil, false, newError(ErrRuntime, stmt.Pos().Line, stmt.Pos().Column,
			"unsupported statement")
	}
}

func (i *interp) execAssign(s *script.AssignStmt, sc *scope) *RuntimeError {
	value, err := i.evalExpr(s.Value, sc)
	if err != nil {
		return err
	}

	switch target := s.Target.(type) {
	case *script.Ident:
		b, ok := sc.lookup(target.Name)
		if !ok {
			// Strict mode: assignment never creates an implicit global.
			return newError(ErrReference, target.At.Line, target.At.Column,
				"%s is not defined", target.Name)
		}
		if b.constant {
			return newError(ErrType, target.At.Line, target.At.Column,
				"Assignment to constant variable %q", target.Name)
		}
		b.value = value
		return nil

	case *script.MemberExpr:
		object, err := i.evalExpr(target.Object, sc)
		if err != nil {
			return err
		}
		obj, ok := object.(map[string]any)
		if !ok {
			return newError(ErrType, target.At.Line, target.At.Column,
				"Cannot set property %q on %s", target.Property, typeName(object))
		}
		obj[target.Property] = value
		return nil

	case *script.IndexExpr:
		object, err := i.evalExpr(target.Object, sc)
		if err != nil {
			return err
		}
		index, err := i.evalExpr(target.Index, sc)
		if err != nil {
			return err
		}
		switch obj := object.(type) {
		case []any:
			idx, ok := index.(float64)
			if !ok || idx != math.Trunc(idx) || idx < 0 || int(idx) >= len(obj) {
				return newError(ErrRange, target.At.Line, target.At.Column,
					"Invalid array index %s", display(index))
			}
			obj[int(idx)] = value
			return nil
		case map[string]any:
			key, ok := index.(string)
			if !ok {
				return newError(ErrType, target.At.Line, target.At.Column,
					"Object keys must be strings, got %s", typeName(index))
			}
			obj[key] = value
			return nil
		default:
			return newError(ErrType, target.At.Line, target.At.Column,
				"Cannot index %s", typeName(object))
		}

	default:
		return newError(ErrType, s.At.Line, s.At.Column, "invalid assignment target")
	}
}

func (i *interp) evalExpr(expr script.Expr, sc *scope) (any, *RuntimeError) {
	if err := i.checkStep(expr.Pos()); err != nil {
		return nil, err
	}

	switch e := expr.(type) {
	case *script.NumberLit:
		return e.Value, nil
	case *script.StringLit:
		return e.Value, nil
	case *script.BoolLit:
		return e.Value, nil
	case *script.NullLit:
		return nil, nil

	case *script.Ident:
		b, ok := sc.lookup(e.Name)
		if !ok {
			return nil, newError(ErrReference, e.At.Line, e.At.Column,
				"%s is not defined", e.Name)
		}
		return b.value, nil

	case *script.MemberExpr:
		object, err := i.evalExpr(e.Object, sc)
		if err != nil {
			return nil, err
		}
		if object == nil {
			return nil, newError(ErrType, e.At.Line, e.At.Column,
				"Cannot read property %q of null", e.Property)
		}
		if obj, ok := object.(map[string]any); ok {
			return obj[e.Property], nil
		}
		return nil, newError(ErrType, e.At.Line, e.At.Column,
			"Cannot read property %q of %s", e.Property, typeName(object))

	case *script.IndexExpr:
		return i.evalIndex(e, sc)

	case *script.CallExpr:
		return i.evalCall(e, sc)

	case *script.ArrayLit:
		elems := make([]any, len(e.Elems))
		for idx, elem := range e.Elems {
			v, err := i.evalExpr(elem, sc)
			if err != nil {
				return nil, err
			}
			elems[idx] = v
		}
		return elems, nil

	case *script.UnaryExpr:
		operand, err := i.evalExpr(e.Operand, sc)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case "!":
			return !truthy(operand), nil
		case "-":
			n, ok := operand.(float64)
			if !ok {
				return nil, newError(ErrType, e.At.Line, e.At.Column,
					"Cannot negate %s", typeName(operand))
			}
			return -n, nil
		case "await":
			// Host capabilities resolve synchronously; await passes through.
			return operand, nil
		default:
			return nil, newError(ErrRuntime, e.At.Line, e.At.Column,
				"unsupported operator %s", e.Op)
		}

	case *script.BinaryExpr:
		return i.evalBinary(e, sc)

	default:
		return nil, newError(ErrRuntime, expr.Pos().Line, expr.Pos().Column,
			"unsupported expression")
	}
}

func (i *interp) evalIndex(e *script.IndexExpr, sc *scope) (any, *RuntimeError) {
	object, err := i.evalExpr(e.Object, sc)
	if err != nil {
		return nil, err
	}
	index, err := i.evalExpr(e.Index, sc)
	if err != nil {
		return nil, err
	}
	switch obj := object.(type) {
	case []any:
		idx, ok := index.(float64)
		if !ok || idx != math.Trunc(idx) {
			return nil, newError(ErrType, e.At.Line, e.At.Column,
				"Array index must be an integer, got %s", display(index))
		}
		if idx < 0 || int(idx) >= len(obj) {
			return nil, nil
		}
		return obj[int(idx)], nil
	case map[string]any:
		key, ok := index.(string)
		if !ok {
			return nil, newError(ErrType, e.At.Line, e.At.Column,
				"Object keys must be strings, got %s", typeName(index))
		}
		return obj[key], nil
	default:
		return nil, newError(ErrType, e.At.Line, e.At.Column,
			"Cannot index %s", typeName(object))
	}
}

func (i *interp) evalCall(e *script.CallExpr, sc *scope) (any, *RuntimeError) {
	callee, err := i.evalExpr(e.Callee, sc)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*builtinFunc)
	if !ok {
		return nil, newError(ErrType, e.At.Line, e.At.Column,
			"%s is not a function", calleeName(e.Callee))
	}

	args := make([]any, len(e.Args))
	for idx, arg := range e.Args {
		v, err := i.evalExpr(arg, sc)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}
	return fn.fn(e.At, args)
}

// calleeName renders the callee expression for "x is not a function"
// diagnostics.
func calleeName(expr script.Expr) string {
	switch e := expr.(type) {
	case *script.Ident:
		return e.Name
	case *script.MemberExpr:
		return calleeName(e.Object) + "." + e.Property
	default:
		return "expression"
	}
}

func (i *interp) evalBinary(e *script.BinaryExpr, sc *scope) (any, *RuntimeError) {
	// Short-circuit operators evaluate the right side lazily and return
	// operand values, matching JS semantics.
	if e.Op == "&&" || e.Op == "||" {
		left, err := i.evalExpr(e.Left, sc)
		if err != nil {
			return nil, err
		}
		if e.Op == "&&" && !truthy(left) {
			return left, nil
		}
		if e.Op == "||" && truthy(left) {
			return left, nil
		}
		return i.evalExpr(e.Right, sc)
	}

	left, err := i.evalExpr(e.Left, sc)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right, sc)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "+":
		if ls, ok := left.(string); ok {
			return ls + display(right), nil
		}
		if rs, ok := right.(string); ok {
			return display(left) + rs, nil
		}
		ln, lok := left.(float64)
		rn, rok := right.(float64)
		if lok && rok {
			return ln + rn, nil
		}
		return nil, i.numericOpError(e, left, right)
	case "-", "*", "/", "%":
		ln, lok := left.(float64)
		rn, rok := right.(float64)
		if !lok || !rok {
			return nil, i.numericOpError(e, left, right)
		}
		switch e.Op {
		case "-":
			return ln - rn, nil
		case "*":
			return ln * rn, nil
		case "/":
			return ln / rn, nil
		default:
			return math.Mod(ln, rn), nil
		}
	case "<", "<=", ">", ">=":
		return i.evalRelational(e, left, right)
	case "==":
		return looseEquals(left, right), nil
	case "!=":
		return !looseEquals(left, right), nil
	case "===":
		return strictEquals(left, right), nil
	case "!==":
		return !strictEquals(left, right), nil
	default:
		return nil, newError(ErrRuntime, e.At.Line, e.At.Column,
			"unsupported operator %s", e.Op)
	}
}

func (i *interp) evalRelational(e *script.BinaryExpr, left, right any) (any, *RuntimeError) {
	if ls, lok := left.(string); lok {
		if rs, rok := right.(string); rok {
			return compareOrdered(e.Op, strings.Compare(ls, rs)), nil
		}
	}
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if !lok || !rok {
		return nil, newError(ErrType, e.At.Line, e.At.Column,
			"Cannot compare %s and %s", typeName(left), typeName(right))
	}
	switch {
	case ln < rn:
		return compareOrdered(e.Op, -1), nil
	case ln > rn:
		return compareOrdered(e.Op, 1), nil
	default:
		return compareOrdered(e.Op, 0), nil
	}
}

func compareOrdered(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	default:
		return cmp >= 0
	}
}

func (i *interp) numericOpError(e *script.BinaryExpr, left, right any) *RuntimeError {
	return newError(ErrType, e.At.Line, e.At.Column,
		"Operator %q requires numbers, got %s and %s",
		e.Op, typeName(left), typeName(right))
}
