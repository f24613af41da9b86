//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

// Package devserver exposes the scripting toolchain over HTTP for the
// visual editor and the story player. It is the interface boundary to
// those external collaborators: compile a node graph, lint a script,
// execute a script preview, and list the node catalog for the editor
// palette.
package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/cors"

	"trpc.group/trpc-go/storyscript/graph"
	"trpc.group/trpc-go/storyscript/internal/config"
	"trpc.group/trpc-go/storyscript/lint"
	"trpc.group/trpc-go/storyscript/log"
	"trpc.group/trpc-go/storyscript/registry"
	"trpc.group/trpc-go/storyscript/sandbox"
)

// Server serves the toolchain API. Script executions run on a bounded
// goroutine pool so a burst of long-running scripts cannot exhaust the
// process.
type Server struct {
	cfg      *config.Config
	registry *registry.Registry
	compiler *graph.Compiler
	router   *mux.Router
	handler  http.Handler
	pool     *ants.Pool

	mu  sync.Mutex
	srv *http.Server
}

// Option configures the Server instance.
type Option func(*Server)

// WithRegistry overrides the node definition registry. If omitted, the
// default registry with the built-in catalog is used.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// New creates a devserver over the given configuration.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:      cfg,
		registry: registry.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.compiler = graph.NewCompiler(s.registry)

	pool, err := ants.NewPool(cfg.Server.MaxExecutions)
	if err != nil {
		return nil, err
	}
	s.pool = pool

	s.router = mux.NewRouter()
	s.routes()
	s.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.router)
	return s, nil
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/compile", s.handleCompile).Methods(http.MethodPost)
	api.HandleFunc("/lint", s.handleLint).Methods(http.MethodPost)
	api.HandleFunc("/execute", s.handleExecute).Methods(http.MethodPost)
	api.HandleFunc("/nodes", s.handleNodes).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving on the configured address and blocks until the
// server stops.
func (s *Server) Start() error {
	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.srv
	s.mu.Unlock()

	log.Infof("devserver: listening on %s", s.cfg.Server.Addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the server and releases the execution pool.
func (s *Server) Close() error {
	s.pool.Release()
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv != nil {
		return srv.Close()
	}
	return nil
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var g graph.NodeGraph
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeError(w, http.StatusBadRequest, "invalid graph JSON: "+err.Error())
		return
	}
	result := s.compiler.Compile(&g)
	log.Debugf("devserver: compiled graph, nodes=%d success=%v", len(g.Nodes), result.Success)
	writeJSON(w, http.StatusOK, result)
}

type lintRequest struct {
	Script string `json:"script"`
}

func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	var req lintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request JSON: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lint.Lint(req.Script))
}

type executeRequest struct {
	Script string       `json:"script"`
	Card   sandbox.Card `json:"card"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request JSON: "+err.Error())
		return
	}

	requestID := uuid.NewString()
	done := make(chan sandbox.Result, 1)
	submitErr := s.pool.Submit(func() {
		sb := sandbox.New(req.Card, sandbox.Callbacks{},
			sandbox.WithTimeout(s.cfg.Timeout()),
			sandbox.WithWaitCeiling(s.cfg.WaitCeiling()),
		)
		done <- sb.Execute(r.Context(), req.Script)
	})
	if submitErr != nil {
		log.Warnf("devserver: execution pool rejected request %s: %v", requestID, submitErr)
		writeError(w, http.StatusServiceUnavailable, "execution pool is saturated")
		return
	}
	writeJSON(w, http.StatusOK, <-done)
}

func (s *Server) handleNodes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.ListDefinitions())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("devserver: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
