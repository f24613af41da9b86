//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package sandbox

import "fmt"

// ErrorType classifies a runtime error the way the player UI expects.
type ErrorType string

// Runtime error types.
const (
	ErrSyntax    ErrorType = "SyntaxError"
	ErrReference ErrorType = "ReferenceError"
	ErrType      ErrorType = "TypeError"
	ErrRange     ErrorType = "RangeError"
	ErrRuntime   ErrorType = "RuntimeError"
)

// RuntimeError is a structured, fatal script failure. It is always caught
// and surfaced through the execution result, never as a panic or an
// unhandled error.
type RuntimeError struct {
	// Message is the human-readable failure description.
	Message string `json:"message"`

	// Line and Column locate the failure in the script, 1-indexed.
	// Zero means the position is unknown.
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`

	// Script is the script text that failed, for the console panel.
	Script string `json:"script"`

	// Type is the error classification.
	Type ErrorType `json:"type"`
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d, column %d)", e.Type, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// newError builds a RuntimeError at a source position. The Script field is
// filled in by the sandbox before the error is returned to the caller.
func newError(typ ErrorType, line, column int, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  column,
		Type:    typ,
	}
}
