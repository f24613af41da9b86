//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"fmt"

	"trpc.group/trpc-go/storyscript/registry"
)

// Validator validates node graphs against a definition registry.
// It performs two passes:
// 1. Definition validation (node types resolve, required inputs satisfied)
// 2. Topology validation (no cycles anywhere in the edge set)
// It never mutates the graph and never returns a Go error; all findings are
// reported as CompilationErrors so the editor can render inline diagnostics.
type Validator struct {
	registry *registry.Registry
}

// NewValidator creates a new validator with the given definition registry.
func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{
		registry: reg,
	}
}

// Validate returns zero or more findings for the graph. Error-severity
// findings mean the graph must not proceed to code generation.
func (v *Validator) Validate(g *NodeGraph) []CompilationError {
	if g == nil {
		return []CompilationError{{
			Message:  "graph is nil",
			Severity: SeverityError,
		}}
	}

	var findings []CompilationError
	findings = append(findings, v.validateDefinitions(g)...)
	findings = append(findings, v.detectCycles(g)...)
	return findings
}

// validateDefinitions checks that every node type resolves in the registry
// and that every required input slot is satisfied by either an incoming
// edge or a node property.
func (v *Validator) validateDefinitions(g *NodeGraph) []CompilationError {
	// Index incoming edges by target node + slot.
	wired := make(map[string]map[string]bool)
	for _, edge := range g.Edges {
		if wired[edge.Target] == nil {
			wired[edge.Target] = make(map[string]bool)
		}
		wired[edge.Target][edge.TargetHandle] = true
	}

	var findings []CompilationError
	for _, node := range g.Nodes {
		def, ok := v.registry.Get(node.Type)
		if !ok {
			// Unknown types skip input checks but still participate in
			// cycle detection below.
			findings = append(findings, CompilationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("Unknown node type: %s", node.Type),
				Severity: SeverityError,
			})
			continue
		}

		for _, slot := range def.Inputs {
			if !slot.Required || slot.Type == registry.SlotExec {
				continue
			}
			if wired[node.ID][slot.ID] {
				continue
			}
			if _, ok := node.Data.Properties[slot.ID]; ok {
				continue
			}
			// A warning, not an error: a compile-time literal default may
			// still apply at generation time.
			findings = append(findings, CompilationError{
				NodeID: node.ID,
				Message: fmt.Sprintf(
					"Required input %q is not connected and has no value", slot.ID,
				),
				Severity: SeverityWarning,
			})
		}
	}
	return findings
}

// detectCycles runs depth-first traversal with a recursion stack over the
// full edge set, exec and data edges alike. Every node is visited as a DFS
// root so cycles in disconnected subgraphs are caught, and each subgraph
// reports its own finding: within one DFS tree the first node revisited
// while still on the stack is reported once, then the scan continues over
// the remaining roots.
func (v *Validator) detectCycles(g *NodeGraph) []CompilationError {
	adjacency := make(map[string][]string)
	for _, edge := range g.Edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var findings []CompilationError

	var visit func(id string) bool
	visit = func(id string) bool {
		if onStack[id] {
			findings = append(findings, CompilationError{
				NodeID:   id,
				Message:  "Circular dependency detected",
				Severity: SeverityError,
			})
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		onStack[id] = true
		found := false
		for _, next := range adjacency[id] {
			if visit(next) {
				found = true
				break
			}
		}
		onStack[id] = false
		return found
	}

	for _, node := range g.Nodes {
		visit(node.ID)
	}
	return findings
}
