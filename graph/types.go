//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

// Package graph provides the node-graph model for visual story scripting,
// its validator and the compiler that lowers a graph into script text.
// Graph JSON is produced by the visual editor; this package owns only the
// execution semantics and intentionally avoids any UI concepts such as
// positions or visual layout information.
package graph

// ExecHandle is the edge handle that denotes execution-flow sequencing.
// Any other handle denotes a data dependency resolved by value.
const ExecHandle = "exec"

// NodeGraph is a complete node graph handed to the compiler once per
// compile request. It is never mutated by validation or code generation.
type NodeGraph struct {
	// Nodes are the node instances in this graph.
	Nodes []Node `json:"nodes"`

	// Edges define the connections between nodes.
	Edges []Edge `json:"edges"`
}

// Node is one node instance in a graph.
type Node struct {
	// ID is the unique node identifier within the graph.
	ID string `json:"id"`

	// Type is the node type key resolved against the definition registry.
	Type string `json:"type"`

	// Data carries the author-edited node payload.
	Data NodeData `json:"data"`
}

// NodeData is the author-edited payload of a node.
type NodeData struct {
	// Properties holds literal values keyed by input slot ID. A property is
	// the compile-time fallback when no edge is wired into the slot.
	Properties map[string]any `json:"properties,omitempty"`
}

// Edge is a directed connection between two node slots. An edge whose
// SourceHandle is "exec" sequences execution flow; all other edges carry
// data values.
type Edge struct {
	// Source is the source node ID.
	Source string `json:"source"`

	// SourceHandle is the output slot ID on the source node.
	SourceHandle string `json:"sourceHandle"`

	// Target is the target node ID.
	Target string `json:"target"`

	// TargetHandle is the input slot ID on the target node.
	TargetHandle string `json:"targetHandle"`
}

// Severity classifies a compilation finding.
type Severity string

// Compilation finding severities.
const (
	// SeverityError aborts compilation.
	SeverityError Severity = "error"

	// SeverityWarning is advisory and never blocks compilation.
	SeverityWarning Severity = "warning"
)

// CompilationError is a single finding produced during validation or code
// generation, attributed to a node.
type CompilationError struct {
	// NodeID identifies the node the finding is attributed to.
	NodeID string `json:"nodeId"`

	// Message is the human-readable diagnostic.
	Message string `json:"message"`

	// Severity is "error" or "warning".
	Severity Severity `json:"type"`
}

// CompilationResult is the outcome of one compile request.
type CompilationResult struct {
	// Code is the generated script text. Empty when compilation aborts.
	Code string `json:"code"`

	// Errors lists every finding from validation and generation.
	Errors []CompilationError `json:"errors"`

	// Success is true iff no error-severity finding exists.
	Success bool `json:"success"`
}

// HasErrors reports whether any error-severity finding is present.
func (r *CompilationResult) HasErrors() bool {
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}
