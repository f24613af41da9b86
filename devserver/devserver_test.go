//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/storyscript/graph"
	"trpc.group/trpc-go/storyscript/internal/config"
	"trpc.group/trpc-go/storyscript/lint"
	"trpc.group/trpc-go/storyscript/registry"
	"trpc.group/trpc-go/storyscript/sandbox"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(config.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleCompile(t *testing.T) {
	srv := newTestServer(t)
	g := graph.NodeGraph{
		Nodes: []graph.Node{
			{ID: "entry", Type: registry.TypeOnEnter},
			{ID: "dlg", Type: registry.TypeShowDialog,
				Data: graph.NodeData{Properties: map[string]any{"message": "hi"}}},
		},
		Edges: []graph.Edge{
			{Source: "entry", SourceHandle: graph.ExecHandle, Target: "dlg", TargetHandle: graph.ExecHandle},
		},
	}

	rec := postJSON(t, srv, "/api/v1/compile", g)
	require.Equal(t, http.StatusOK, rec.Code)

	var result graph.CompilationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "// on enter\nshowDialog(\"hi\");", result.Code)
}

func TestHandleCompile_BadJSON(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compile", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLint(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv, "/api/v1/lint", map[string]string{
		"script": `eval("x")`,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result lint.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.IsValid)
	assert.Equal(t, 1, result.Summary.ErrorCount)
}

func TestHandleExecute(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv, "/api/v1/execute", map[string]any{
		"script": `return 6 * 7;`,
		"card":   sandbox.Card{ID: "c1", Title: "Card"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result sandbox.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 42.0, result.ReturnValue)
	assert.NotEmpty(t, result.ExecutionID)
}

func TestHandleExecute_ScriptError(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv, "/api/v1/execute", map[string]any{
		"script": `missing();`,
	})
	// Script failures are payload, not transport errors.
	require.Equal(t, http.StatusOK, rec.Code)

	var result sandbox.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, sandbox.ErrReference, result.Error.Type)
}

func TestHandleNodes(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var defs []registry.Definition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defs))
	assert.NotEmpty(t, defs)

	types := make(map[string]bool, len(defs))
	for _, def := range defs {
		types[def.Type] = true
	}
	assert.True(t, types[registry.TypeOnEnter])
	assert.True(t, types[registry.TypeIfElse])
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWithRegistry(t *testing.T) {
	reg := registry.NewRegistry()
	reg.MustRegister(&registry.Definition{
		Type: "custom.only",
		Kind: registry.KindAction,
		Compile: func(_ registry.NodeView, _ map[string]string) string {
			return "custom();"
		},
	})

	srv, err := New(config.Default(), WithRegistry(reg))
	require.NoError(t, err)
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var defs []registry.Definition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defs))
	require.Len(t, defs, 1)
	assert.Equal(t, "custom.only", defs[0].Type)
}
