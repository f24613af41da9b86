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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/storyscript/script"
)

func TestExecute_ReturnValue(t *testing.T) {
	sb := New(Card{ID: "c1"}, Callbacks{})
	result := sb.Execute(context.Background(), `return 1 + 2;`)
	require.True(t, result.Success)
	assert.Equal(t, 3.0, result.ReturnValue)
	assert.NotEmpty(t, result.ExecutionID)
}

func TestExecute_SyntaxError(t *testing.T) {
	sb := New(Card{}, Callbacks{})
	result := sb.Execute(context.Background(), `let = 1;`)
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, ErrSyntax, result.Error.Type)
	assert.Equal(t, `let = 1;`, result.Error.Script)
	assert.NotNil(t, result.ConsoleOutput)
}

func TestExecute_ConsoleCapture(t *testing.T) {
	sb := New(Card{}, Callbacks{})
	result := sb.Execute(context.Background(), `
console.log("first", 1);
console.warn("second");
console.error("third");
console.info("fourth");`)
	require.True(t, result.Success, "err: %v", result.Error)

	require.Len(t, result.ConsoleOutput, 4)
	assert.Equal(t, "log", result.ConsoleOutput[0].Level)
	assert.Equal(t, []any{"first", 1.0}, result.ConsoleOutput[0].Args)
	assert.Equal(t, "warn", result.ConsoleOutput[1].Level)
	assert.Equal(t, "error", result.ConsoleOutput[2].Level)
	assert.Equal(t, "info", result.ConsoleOutput[3].Level)
}

func TestExecute_ConsoleResetsPerCall(t *testing.T) {
	sb := New(Card{}, Callbacks{})
	first := sb.Execute(context.Background(), `console.log("a");`)
	require.Len(t, first.ConsoleOutput, 1)

	second := sb.Execute(context.Background(), `console.log("b");`)
	require.Len(t, second.ConsoleOutput, 1)
	assert.Equal(t, []any{"b"}, second.ConsoleOutput[0].Args)
}

func TestVariablesPersistAcrossExecutions(t *testing.T) {
	sb := New(Card{}, Callbacks{})
	result := sb.Execute(context.Background(), `setVariable("score", 10);`)
	require.True(t, result.Success, "err: %v", result.Error)

	result = sb.Execute(context.Background(), `return getVariable("score") + 5;`)
	require.True(t, result.Success, "err: %v", result.Error)
	assert.Equal(t, 15.0, result.ReturnValue)

	// Variables() is a snapshot; mutating it must not touch the store.
	vars := sb.Variables()
	assert.Equal(t, 10.0, vars["score"])
	vars["score"] = 0.0
	assert.Equal(t, 10.0, sb.Variables()["score"])
}

func TestWithVariables(t *testing.T) {
	sb := New(Card{}, Callbacks{}, WithVariables(map[string]any{"hp": 7.0}))
	result := sb.Execute(context.Background(), `return getVariable("hp");`)
	require.True(t, result.Success)
	assert.Equal(t, 7.0, result.ReturnValue)
}

func TestGoToCard(t *testing.T) {
	var navigated string
	sb := New(Card{ID: "c1"}, Callbacks{
		OnNavigate: func(_ context.Context, cardID string) error {
			navigated = cardID
			return nil
		},
	})

	result := sb.Execute(context.Background(), `goToCard("c2");`)
	require.True(t, result.Success, "err: %v", result.Error)
	assert.Equal(t, "c2", navigated)

	// Non-string card ids fail with a type error.
	result = sb.Execute(context.Background(), `goToCard(42);`)
	require.False(t, result.Success)
	assert.Equal(t, ErrType, result.Error.Type)
}

func TestShowDialog(t *testing.T) {
	var gotMessage string
	sb := New(Card{}, Callbacks{
		OnDialog: func(_ context.Context, message string, _ map[string]any) error {
			gotMessage = message
			return nil
		},
	})

	result := sb.Execute(context.Background(), `showDialog("Hello!");`)
	require.True(t, result.Success, "err: %v", result.Error)
	assert.Equal(t, "Hello!", gotMessage)

	result = sb.Execute(context.Background(), `showDialog("hi", 5);`)
	require.False(t, result.Success)
	assert.Equal(t, ErrType, result.Error.Type)
}

func TestShowChoice(t *testing.T) {
	sb := New(Card{}, Callbacks{
		OnChoice: func(_ context.Context, _ string, choices []string) (int, error) {
			return len(choices) - 1, nil
		},
	})
	result := sb.Execute(context.Background(), `return showChoice("Pick", ["a", "b", "c"]);`)
	require.True(t, result.Success, "err: %v", result.Error)
	assert.Equal(t, 2.0, result.ReturnValue)

	// Without a host callback the first choice is selected.
	result = ExecuteQuick(context.Background(), `return showChoice("Pick", ["a", "b"]);`, Card{})
	require.True(t, result.Success)
	assert.Equal(t, 0.0, result.ReturnValue)

	result = ExecuteQuick(context.Background(), `showChoice("Pick", []);`, Card{})
	require.False(t, result.Success)
	assert.Equal(t, ErrType, result.Error.Type)

	result = ExecuteQuick(context.Background(), `showChoice("Pick", "not an array");`, Card{})
	require.False(t, result.Success)
	assert.Equal(t, ErrType, result.Error.Type)
}

func TestRandom(t *testing.T) {
	for i := 0; i < 20; i++ {
		result := ExecuteQuick(context.Background(), `return random(1, 6);`, Card{})
		require.True(t, result.Success)
		n := result.ReturnValue.(float64)
		assert.GreaterOrEqual(t, n, 1.0)
		assert.LessOrEqual(t, n, 6.0)
	}

	// Degenerate range is allowed.
	result := ExecuteQuick(context.Background(), `return random(3, 3);`, Card{})
	require.True(t, result.Success)
	assert.Equal(t, 3.0, result.ReturnValue)

	result = ExecuteQuick(context.Background(), `random(6, 1);`, Card{})
	require.False(t, result.Success)
	assert.Equal(t, ErrRange, result.Error.Type)
}

func TestRandom_ExtremeBounds(t *testing.T) {
	// Bounds beyond exact float-to-int conversion must fail with a
	// RangeError in the result, never escape Execute.
	for _, src := range []string{
		`return random(-9000000000000000000, 9000000000000000000);`,
		`return random(0, 90071992547409930);`,
		`return random(-90071992547409930, 0);`,
	} {
		result := ExecuteQuick(context.Background(), src, Card{})
		require.False(t, result.Success, src)
		require.NotNil(t, result.Error, src)
		assert.Equal(t, ErrRange, result.Error.Type, src)
		assert.Contains(t, result.Error.Message, "out of range", src)
	}
}

func TestExecuteRecoversFromCapabilityPanic(t *testing.T) {
	sb := New(Card{}, Callbacks{})
	sc := sb.globals(context.Background())
	sc.declare("boom", &builtinFunc{
		name: "boom",
		fn: func(_ script.Pos, _ []any) (any, *RuntimeError) {
			panic("capability bug")
		},
	}, true)

	prog, err := script.Parse(`boom();`)
	require.NoError(t, err)

	it := newInterp(context.Background(), sc, timeoutMessage(time.Second))
	value, rerr := sb.runGuarded(it, prog)
	assert.Nil(t, value)
	require.NotNil(t, rerr)
	assert.Equal(t, ErrRuntime, rerr.Type)
	assert.Contains(t, rerr.Message, "capability bug")
}

func TestTimeoutMessageStatesConfiguredLimit(t *testing.T) {
	// Sub-second timeouts must render the actual limit, not "0 second".
	sb := New(Card{}, Callbacks{}, WithTimeout(50*time.Millisecond))
	result := sb.Execute(context.Background(), `while (true) {}`)
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Message, "50ms limit")
}

func TestWait_ClampedByCeiling(t *testing.T) {
	sb := New(Card{}, Callbacks{}, WithWaitCeiling(10*time.Millisecond))
	start := time.Now()
	result := sb.Execute(context.Background(), `wait(60000);`)
	require.True(t, result.Success, "err: %v", result.Error)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWait_InterruptedByDeadline(t *testing.T) {
	sb := New(Card{}, Callbacks{}, WithTimeout(50*time.Millisecond))
	start := time.Now()
	result := sb.Execute(context.Background(), `wait(60000);`)
	assert.Less(t, time.Since(start), 3*time.Second)
	require.False(t, result.Success)
	assert.Contains(t, result.Error.Message, "timed out")
}

func TestExecute_InfiniteLoopTimesOut(t *testing.T) {
	sb := New(Card{}, Callbacks{}, WithTimeout(100*time.Millisecond))
	start := time.Now()
	result := sb.Execute(context.Background(), `while (true) {}`)
	assert.Less(t, time.Since(start), 3*time.Second)
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, ErrRuntime, result.Error.Type)
	assert.Contains(t, result.Error.Message, "timed out")
}

func TestExecuteQuick(t *testing.T) {
	// Callbacks are no-ops, so navigation and dialogs succeed silently.
	result := ExecuteQuick(context.Background(), `
goToCard("next");
showDialog("hi");
return "done";`, Card{ID: "preview"})
	require.True(t, result.Success, "err: %v", result.Error)
	assert.Equal(t, "done", result.ReturnValue)
}

func TestCanExecute(t *testing.T) {
	assert.NoError(t, CanExecute(`let x = 1; console.log(x);`))

	err := CanExecute(`eval("1 + 1")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden token")

	// Broken scripts are rejected before the token scan.
	assert.Error(t, CanExecute(`let = 1;`))
}

func TestRuntimeErrorCarriesScript(t *testing.T) {
	src := `missing();`
	result := ExecuteQuick(context.Background(), src, Card{})
	require.False(t, result.Success)
	assert.Equal(t, src, result.Error.Script)
}
