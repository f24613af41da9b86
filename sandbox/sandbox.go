//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

// Package sandbox executes story card scripts against a deliberately
// narrow capability surface. Scripts run on a tree-walking interpreter
// over the script AST, so no host code evaluation is ever involved; the
// only names visible to a script are the curated capabilities installed
// here. Execution is bounded by a wall-clock deadline that the interpreter
// observes cooperatively at every evaluation step interval, so even a
// script stuck in a tight synchronous loop terminates.
//
// This is a safety net against authoring mistakes, not a security boundary
// equivalent to process isolation.
package sandbox

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/storyscript/log"
	"trpc.group/trpc-go/storyscript/script"
)

// Execution limits.
const (
	// DefaultTimeout bounds one Execute call.
	DefaultTimeout = 5 * time.Second

	// DefaultWaitCeiling caps a single wait() call regardless of the
	// requested duration.
	DefaultWaitCeiling = 10 * time.Second
)

// maxSafeBound limits random() arguments to values whose float-to-int
// conversion is exact. Bounds beyond it raise a RangeError.
const maxSafeBound = float64(1 << 53)

// timeoutMessage renders the deadline diagnostic with the configured limit.
func timeoutMessage(d time.Duration) string {
	return fmt.Sprintf("Script execution timed out (%s limit)", d)
}

// Card is the story card context a script executes against.
type Card struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Callbacks are the host hooks driving navigation, dialogs and choices at
// playback time. Nil callbacks turn the corresponding capability into a
// no-op, which is what script previews use.
type Callbacks struct {
	// OnNavigate is invoked by goToCard.
	OnNavigate func(ctx context.Context, cardID string) error

	// OnDialog is invoked by showDialog. Options may be nil.
	OnDialog func(ctx context.Context, message string, options map[string]any) error

	// OnChoice is invoked by showChoice and returns the selected index.
	OnChoice func(ctx context.Context, message string, choices []string) (int, error)
}

// ConsoleEntry is one captured console call.
type ConsoleEntry struct {
	Level     string    `json:"level"`
	Args      []any     `json:"args"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the outcome of one Execute call.
type Result struct {
	// ExecutionID correlates this run with log output.
	ExecutionID string `json:"executionId"`

	// Success is false iff the script failed or timed out.
	Success bool `json:"success"`

	// ReturnValue carries the script's return value, if any.
	ReturnValue any `json:"returnValue,omitempty"`

	// Error describes the failure when Success is false.
	Error *RuntimeError `json:"error,omitempty"`

	// ConsoleOutput is a snapshot of the captured console log, in the
	// exact order the script produced the entries. The caller may mutate it.
	ConsoleOutput []ConsoleEntry `json:"consoleOutput"`
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithTimeout overrides the execution deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Sandbox) { s.timeout = d }
}

// WithWaitCeiling overrides the wait() clamp.
func WithWaitCeiling(d time.Duration) Option {
	return func(s *Sandbox) { s.waitCeiling = d }
}

// WithVariables seeds the sandbox's variable store, e.g. to restore a
// playthrough session. The map is used directly and owned by the sandbox
// afterwards.
func WithVariables(vars map[string]any) Option {
	return func(s *Sandbox) {
		if vars != nil {
			s.vars = vars
		}
	}
}

// Sandbox executes scripts for one story card. The variable store persists
// across Execute calls on the same instance to support multi-script
// sessions on one card; the console log resets on every call. Sandboxes
// are independent of each other and may be used concurrently; one sandbox
// serializes its own Execute calls.
type Sandbox struct {
	mu          sync.Mutex
	card        Card
	callbacks   Callbacks
	vars        map[string]any
	console     []ConsoleEntry
	timeout     time.Duration
	waitCeiling time.Duration
	rand        *rand.Rand
}

// New creates a sandbox for a card with the given host callbacks.
func New(card Card, callbacks Callbacks, opts ...Option) *Sandbox {
	s := &Sandbox{
		card:        card,
		callbacks:   callbacks,
		vars:        make(map[string]any),
		timeout:     DefaultTimeout,
		waitCeiling: DefaultWaitCeiling,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs one script to completion or failure. It never panics and
// never lets a script error escape as a Go error; everything lands in the
// result.
func (s *Sandbox) Execute(ctx context.Context, src string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	execID := uuid.NewString()
	s.console = nil
	result := Result{ExecutionID: execID}

	prog, err := script.Parse(src)
	if err != nil {
		se, ok := err.(*script.SyntaxError)
		if !ok {
			se = &script.SyntaxError{Message: err.Error()}
		}
		result.Error = &RuntimeError{
			Message: se.Message,
			Line:    se.Line,
			Column:  se.Column,
			Script:  src,
			Type:    ErrSyntax,
		}
		result.ConsoleOutput = []ConsoleEntry{}
		return result
	}

	execCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log.Debugf("sandbox: executing script, execID=%s card=%s", execID, s.card.ID)

	it := newInterp(execCtx, s.globals(execCtx), timeoutMessage(s.timeout))
	value, rerr := s.runGuarded(it, prog)

	result.ConsoleOutput = append([]ConsoleEntry{}, s.console...)
	if rerr != nil {
		rerr.Script = src
		result.Error = rerr
		log.Debugf("sandbox: script failed, execID=%s err=%v", execID, rerr)
		return result
	}
	result.Success = true
	result.ReturnValue = value
	return result
}

// runGuarded executes the program and converts any panic out of a host
// capability into a RuntimeError, keeping Execute's never-panic contract
// even against a capability bug.
func (s *Sandbox) runGuarded(it *interp, prog *script.Program) (value any, rerr *RuntimeError) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			rerr = newError(ErrRuntime, 0, 0, "internal execution failure: %v", r)
		}
	}()
	return it.run(prog)
}

// Variables returns a snapshot copy of the sandbox's variable store.
func (s *Sandbox) Variables() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]any, len(s.vars))
	for k, v := range s.vars {
		snapshot[k] = v
	}
	return snapshot
}

// ExecuteQuick runs a script in a disposable sandbox with no host
// callbacks, so navigation, dialog and choice calls are no-ops. It is
// intended for quick previews in the editor.
func ExecuteQuick(ctx context.Context, src string, card Card) Result {
	return New(card, Callbacks{}).Execute(ctx, src)
}

// forbiddenTokens are substrings rejected by CanExecute without running
// the script.
var forbiddenTokens = []string{"eval", "Function(", "import(", "require("}

// CanExecute reports whether a script is safe to execute: it must parse
// and must not mention a forbidden token. The script is never run.
func CanExecute(src string) error {
	if _, err := script.Parse(src); err != nil {
		return err
	}
	for _, token := range forbiddenTokens {
		if strings.Contains(src, token) {
			return fmt.Errorf("script contains forbidden token %q", token)
		}
	}
	return nil
}

// globals builds the capability environment for one execution. It is the
// complete set of names visible to script code.
func (s *Sandbox) globals(ctx context.Context) *scope {
	sc := newScope(nil)
	sc.declare("undefined", nil, true)

	declare := func(name string, fn func(at script.Pos, args []any) (any, *RuntimeError)) {
		sc.declare(name, &builtinFunc{name: name, fn: fn}, true)
	}

	declare("goToCard", func(at script.Pos, args []any) (any, *RuntimeError) {
		id, err := argString("goToCard", "card id", args, 0, at)
		if err != nil {
			return nil, err
		}
		if s.callbacks.OnNavigate != nil {
			if cbErr := s.callbacks.OnNavigate(ctx, id); cbErr != nil {
				return nil, newError(ErrRuntime, at.Line, at.Column,
					"goToCard failed: %v", cbErr)
			}
		}
		return nil, nil
	})

	declare("getCurrentCard", func(at script.Pos, args []any) (any, *RuntimeError) {
		return map[string]any{"id": s.card.ID, "title": s.card.Title}, nil
	})

	declare("showDialog", func(at script.Pos, args []any) (any, *RuntimeError) {
		message, err := argString("showDialog", "message", args, 0, at)
		if err != nil {
			return nil, err
		}
		var options map[string]any
		if len(args) > 1 && args[1] != nil {
			opts, ok := args[1].(map[string]any)
			if !ok {
				return nil, newError(ErrType, at.Line, at.Column,
					"showDialog options must be an object, got %s", typeName(args[1]))
			}
			options = opts
		}
		if s.callbacks.OnDialog != nil {
			if cbErr := s.callbacks.OnDialog(ctx, message, options); cbErr != nil {
				return nil, newError(ErrRuntime, at.Line, at.Column,
					"showDialog failed: %v", cbErr)
			}
		}
		return nil, nil
	})

	declare("showChoice", func(at script.Pos, args []any) (any, *RuntimeError) {
		message, err := argString("showChoice", "message", args, 0, at)
		if err != nil {
			return nil, err
		}
		if len(args) < 2 {
			return nil, newError(ErrType, at.Line, at.Column,
				"showChoice requires a choices array")
		}
		raw, ok := args[1].([]any)
		if !ok || len(raw) == 0 {
			return nil, newError(ErrType, at.Line, at.Column,
				"showChoice choices must be a non-empty array")
		}
		choices := make([]string, len(raw))
		for i, c := range raw {
			text, ok := c.(string)
			if !ok {
				return nil, newError(ErrType, at.Line, at.Column,
					"showChoice choices must be strings, got %s", typeName(c))
			}
			choices[i] = text
		}
		if s.callbacks.OnChoice == nil {
			return float64(0), nil
		}
		index, cbErr := s.callbacks.OnChoice(ctx, message, choices)
		if cbErr != nil {
			return nil, newError(ErrRuntime, at.Line, at.Column,
				"showChoice failed: %v", cbErr)
		}
		return float64(index), nil
	})

	declare("getVariable", func(at script.Pos, args []any) (any, *RuntimeError) {
		name, err := argString("getVariable", "variable name", args, 0, at)
		if err != nil {
			return nil, err
		}
		return s.vars[name], nil
	})

	declare("setVariable", func(at script.Pos, args []any) (any, *RuntimeError) {
		name, err := argString("setVariable", "variable name", args, 0, at)
		if err != nil {
			return nil, err
		}
		if len(args) < 2 {
			return nil, newError(ErrType, at.Line, at.Column,
				"setVariable requires a value")
		}
		s.vars[name] = args[1]
		return nil, nil
	})

	declare("random", func(at script.Pos, args []any) (any, *RuntimeError) {
		if len(args) < 2 {
			return nil, newError(ErrType, at.Line, at.Column,
				"random requires min and max")
		}
		minN, minOK := args[0].(float64)
		maxN, maxOK := args[1].(float64)
		if !minOK || !maxOK {
			return nil, newError(ErrType, at.Line, at.Column,
				"random bounds must be numbers, got %s and %s",
				typeName(args[0]), typeName(args[1]))
		}
		if math.IsNaN(minN) || math.IsNaN(maxN) ||
			math.Abs(minN) > maxSafeBound || math.Abs(maxN) > maxSafeBound {
			return nil, newError(ErrRange, at.Line, at.Column,
				"random bounds are out of range: %s and %s",
				display(minN), display(maxN))
		}
		lo := int(math.Floor(minN))
		hi := int(math.Floor(maxN))
		if lo > hi {
			return nil, newError(ErrRange, at.Line, at.Column,
				"random: min %d is greater than max %d", lo, hi)
		}
		return float64(lo + s.rand.Intn(hi-lo+1)), nil
	})

	declare("wait", func(at script.Pos, args []any) (any, *RuntimeError) {
		ms, err := argNumber("wait", "milliseconds", args, 0, at)
		if err != nil {
			return nil, err
		}
		d := time.Duration(ms) * time.Millisecond
		if d < 0 {
			d = 0
		}
		// Clamped regardless of the requested duration.
		if d > s.waitCeiling {
			d = s.waitCeiling
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, newError(ErrRuntime, at.Line, at.Column,
				"%s", timeoutMessage(s.timeout))
		}
	})

	console := map[string]any{}
	for _, level := range []string{"log", "warn", "error", "info"} {
		level := level
		console[level] = &builtinFunc{
			name: "console." + level,
			fn: func(_ script.Pos, args []any) (any, *RuntimeError) {
				s.console = append(s.console, ConsoleEntry{
					Level:     level,
					Args:      args,
					Timestamp: time.Now(),
				})
				return nil, nil
			},
		}
	}
	sc.declare("console", console, true)

	return sc
}

func argString(fn, what string, args []any, idx int, at script.Pos) (string, *RuntimeError) {
	if idx >= len(args) {
		return "", newError(ErrType, at.Line, at.Column, "%s requires a %s", fn, what)
	}
	v, ok := args[idx].(string)
	if !ok {
		return "", newError(ErrType, at.Line, at.Column,
			"%s %s must be a string, got %s", fn, what, typeName(args[idx]))
	}
	return v, nil
}

func argNumber(fn, what string, args []any, idx int, at script.Pos) (float64, *RuntimeError) {
	if idx >= len(args) {
		return 0, newError(ErrType, at.Line, at.Column, "%s requires a %s", fn, what)
	}
	v, ok := args[idx].(float64)
	if !ok {
		return 0, newError(ErrType, at.Line, at.Column,
			"%s %s must be a number, got %s", fn, what, typeName(args[idx]))
	}
	return v, nil
}
