//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package script

// Pos is a 1-indexed source position.
type Pos struct {
	Line   int
	Column int
}

// Stmt is a statement node.
type Stmt interface {
	Pos() Pos
	stmt()
}

// Expr is an expression node.
type Expr interface {
	Pos() Pos
	expr()
}

// Program is a parsed script: an ordered list of top-level statements.
type Program struct {
	Stmts []Stmt
}

// DeclStmt is a let/const/var declaration.
type DeclStmt struct {
	Keyword string // "let", "const" or "var"
	Name    string
	Value   Expr // nil when declared without initializer
	At      Pos
}

// AssignStmt assigns to an identifier, member or index target.
type AssignStmt struct {
	Target Expr
	Value  Expr
	At     Pos
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	X  Expr
	At Pos
}

// IfStmt branches on a condition. Else holds either the else-block
// statements or a single nested IfStmt for else-if chains.
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
	At   Pos
}

// WhileStmt loops while the condition is truthy.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
	At   Pos
}

// ReturnStmt terminates the script, optionally with a value.
type ReturnStmt struct {
	Value Expr // nil for a bare return
	At    Pos
}

// EmptyStmt is a lone semicolon.
type EmptyStmt struct {
	At Pos
}

func (s *DeclStmt) Pos() Pos   { return s.At }
func (s *AssignStmt) Pos() Pos { return s.At }
func (s *ExprStmt) Pos() Pos   { return s.At }
func (s *IfStmt) Pos() Pos     { return s.At }
func (s *WhileStmt) Pos() Pos  { return s.At }
func (s *ReturnStmt) Pos() Pos { return s.At }
func (s *EmptyStmt) Pos() Pos  { return s.At }

func (*DeclStmt) stmt()   {}
func (*AssignStmt) stmt() {}
func (*ExprStmt) stmt()   {}
func (*IfStmt) stmt()     {}
func (*WhileStmt) stmt()  {}
func (*ReturnStmt) stmt() {}
func (*EmptyStmt) stmt()  {}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
	At    Pos
}

// StringLit is a string literal.
type StringLit struct {
	Value string
	At    Pos
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
	At    Pos
}

// NullLit is the null literal.
type NullLit struct {
	At Pos
}

// Ident references a name in scope.
type Ident struct {
	Name string
	At   Pos
}

// MemberExpr accesses a named property, e.g. console.log.
type MemberExpr struct {
	Object   Expr
	Property string
	At       Pos
}

// IndexExpr accesses an element by computed key, e.g. choices[0].
type IndexExpr struct {
	Object Expr
	Index  Expr
	At     Pos
}

// CallExpr invokes a callee with arguments.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	At     Pos
}

// ArrayLit is an array literal.
type ArrayLit struct {
	Elems []Expr
	At    Pos
}

// UnaryExpr applies a prefix operator: "!", "-" or "await".
// Await is accepted for compatibility with scripts written against the
// async host API; the interpreter treats it as a no-op.
type UnaryExpr struct {
	Op      string
	Operand Expr
	At      Pos
}

// BinaryExpr applies an infix operator.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	At    Pos
}

func (e *NumberLit) Pos() Pos  { return e.At }
func (e *StringLit) Pos() Pos  { return e.At }
func (e *BoolLit) Pos() Pos    { return e.At }
func (e *NullLit) Pos() Pos    { return e.At }
func (e *Ident) Pos() Pos      { return e.At }
func (e *MemberExpr) Pos() Pos { return e.At }
func (e *IndexExpr) Pos() Pos  { return e.At }
func (e *CallExpr) Pos() Pos   { return e.At }
func (e *ArrayLit) Pos() Pos   { return e.At }
func (e *UnaryExpr) Pos() Pos  { return e.At }
func (e *BinaryExpr) Pos() Pos { return e.At }

func (*NumberLit) expr()  {}
func (*StringLit) expr()  {}
func (*BoolLit) expr()    {}
func (*NullLit) expr()    {}
func (*Ident) expr()      {}
func (*MemberExpr) expr() {}
func (*IndexExpr) expr()  {}
func (*CallExpr) expr()   {}
func (*ArrayLit) expr()   {}
func (*UnaryExpr) expr()  {}
func (*BinaryExpr) expr() {}
