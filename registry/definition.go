//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package registry

// Kind classifies a node definition by its role in the graph.
type Kind string

// Node kinds.
const (
	// KindEvent marks playback triggers. Event nodes are the entry points
	// of code generation and expect no incoming exec edge.
	KindEvent Kind = "event"

	// KindData marks value-producing nodes. Data nodes compile to
	// expressions, never statements.
	KindData Kind = "data"

	// KindAction marks statement-producing nodes that participate in exec
	// chains.
	KindAction Kind = "action"

	// KindBranch marks control-flow nodes (currently only ifElse) that the
	// code generator lowers specially.
	KindBranch Kind = "branch"
)

// Slot type identifiers used by input/output descriptors.
const (
	SlotExec    = "exec"
	SlotString  = "string"
	SlotNumber  = "number"
	SlotBoolean = "boolean"
	SlotAny     = "any"
)

// Slot describes a single input or output connector of a node definition.
type Slot struct {
	// ID is the slot identifier referenced by edge handles (e.g., "exec",
	// "cardId", "value").
	ID string `json:"id"`

	// Name is the human-readable slot label for the editor palette.
	Name string `json:"name,omitempty"`

	// Type is the slot type: "exec", "string", "number", "boolean", "any".
	Type string `json:"type"`

	// Required indicates the compiler must find either an edge or a node
	// property for this input. Only meaningful on input slots.
	Required bool `json:"required,omitempty"`
}

// NodeView is the read-only view of a graph node handed to a definition's
// Compile function. It carries only what code generation needs, keeping the
// registry free of any dependency on the graph package.
type NodeView struct {
	// ID is the node's unique identifier within its graph.
	ID string

	// Properties holds the literal values the author set on the node.
	Properties map[string]any
}

// CompileFunc produces the code fragment for one node. For data nodes the
// fragment is an expression; for action nodes it is one or more statements.
// The inputs map is keyed by input slot ID and holds already-lowered
// expression text for every non-exec input.
type CompileFunc func(node NodeView, inputs map[string]string) string

// Definition describes one node type: its slots and how it lowers to code.
type Definition struct {
	// Type is the unique node type key (e.g., "goToCard", "ifElse").
	Type string `json:"type"`

	// Kind classifies the definition: event, data, action or branch.
	Kind Kind `json:"kind"`

	// Label is the human-readable name shown in the editor palette.
	Label string `json:"label,omitempty"`

	// Description explains what this node does.
	Description string `json:"description,omitempty"`

	// Inputs are the input slot descriptors.
	Inputs []Slot `json:"inputs,omitempty"`

	// Outputs are the output slot descriptors.
	Outputs []Slot `json:"outputs,omitempty"`

	// Compile lowers the node to a code fragment. It is never serialized.
	Compile CompileFunc `json:"-"`
}

// HasExecOutput reports whether the definition exposes an output slot with
// the given ID of type exec.
func (d *Definition) HasExecOutput(id string) bool {
	for _, out := range d.Outputs {
		if out.ID == id && out.Type == SlotExec {
			return true
		}
	}
	return false
}
