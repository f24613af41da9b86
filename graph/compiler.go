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
	"encoding/json"
	"fmt"
	"strings"

	"trpc.group/trpc-go/storyscript/registry"
)

// maxDepth caps recursive code generation per entry point. Graphs deeper
// than this abort the affected branch with an error finding.
const maxDepth = 100

// Compiler lowers validated node graphs into script text.
// This is the core of the visual scripting system, transforming the
// editor's declarative graph into imperative script code executed by the
// sandbox at playback time. Generation never executes the script; it only
// emits text.
type Compiler struct {
	registry *registry.Registry
}

// NewCompiler creates a new graph compiler over the given registry.
func NewCompiler(reg *registry.Registry) *Compiler {
	return &Compiler{
		registry: reg,
	}
}

// Compile validates and lowers a node graph. It never panics and never
// returns a Go error; all diagnostics land in the result. Success is true
// iff zero error-severity findings exist across validation and generation.
func (c *Compiler) Compile(g *NodeGraph) *CompilationResult {
	result := &CompilationResult{}
	result.Errors = NewValidator(c.registry).Validate(g)
	if result.HasErrors() {
		return result
	}

	gen := newGenerator(c.registry, g)
	result.Code = gen.run()
	result.Errors = append(result.Errors, gen.errors...)
	result.Success = !result.HasErrors()
	return result
}

// Compile lowers a node graph using the default definition registry.
func Compile(g *NodeGraph) *CompilationResult {
	return NewCompiler(registry.Default).Compile(g)
}

// generator holds the per-request indexes for one code generation run.
type generator struct {
	registry *registry.Registry
	nodes    map[string]*Node
	// execEdges is keyed by source node ID + output handle.
	execEdges map[string]map[string]*Edge
	// dataEdges is keyed by target node ID + input handle.
	dataEdges map[string]map[string]*Edge
	entries   []*Node
	errors    []CompilationError
}

func newGenerator(reg *registry.Registry, g *NodeGraph) *generator {
	gen := &generator{
		registry:  reg,
		nodes:     make(map[string]*Node, len(g.Nodes)),
		execEdges: make(map[string]map[string]*Edge),
		dataEdges: make(map[string]map[string]*Edge),
	}
	for i := range g.Nodes {
		node := &g.Nodes[i]
		gen.nodes[node.ID] = node
		if def, ok := reg.Get(node.Type); ok && def.Kind == registry.KindEvent {
			gen.entries = append(gen.entries, node)
		}
	}
	for i := range g.Edges {
		edge := &g.Edges[i]
		if edge.SourceHandle == ExecHandle || gen.isExecSource(edge) {
			if gen.execEdges[edge.Source] == nil {
				gen.execEdges[edge.Source] = make(map[string]*Edge)
			}
			gen.execEdges[edge.Source][edge.SourceHandle] = edge
			continue
		}
		if gen.dataEdges[edge.Target] == nil {
			gen.dataEdges[edge.Target] = make(map[string]*Edge)
		}
		gen.dataEdges[edge.Target][edge.TargetHandle] = edge
	}
	return gen
}

// isExecSource reports whether the edge leaves an exec-typed output slot.
// Branch nodes use "true"/"false" handles that are exec edges despite not
// being named "exec".
func (g *generator) isExecSource(edge *Edge) bool {
	node, ok := g.nodes[edge.Source]
	if !ok {
		return false
	}
	def, ok := g.registry.Get(node.Type)
	if !ok {
		return false
	}
	return def.HasExecOutput(edge.SourceHandle)
}

// run generates code for every entry point and joins the fragments with a
// blank line separator.
func (g *generator) run() string {
	if len(g.entries) == 0 {
		g.errors = append(g.errors, CompilationError{
			Message:  "No entry point found: add an event node to the graph",
			Severity: SeverityError,
		})
		return ""
	}

	var fragments []string
	for _, entry := range g.entries {
		if code := g.compileChain(entry.ID, 0); code != "" {
			fragments = append(fragments, code)
		}
	}
	return strings.Join(fragments, "\n\n")
}

// compileChain lowers one statement-producing node and, when it exposes an
// "exec" output, the chain of its successors.
func (g *generator) compileChain(nodeID string, depth int) string {
	if depth > maxDepth {
		g.depthExceeded(nodeID)
		return ""
	}
	node, ok := g.nodes[nodeID]
	if !ok {
		return ""
	}
	def, ok := g.registry.Get(node.Type)
	if !ok {
		return ""
	}

	if def.Kind == registry.KindBranch {
		return g.compileBranch(node, def, depth)
	}

	inputs := g.resolveInputs(node, def, depth)
	fragment := def.Compile(nodeView(node), inputs)

	if def.HasExecOutput(ExecHandle) {
		if edge := g.execEdges[node.ID][ExecHandle]; edge != nil {
			if next := g.compileChain(edge.Target, depth+1); next != "" {
				fragment = fragment + "\n" + next
			}
		}
	}
	return fragment
}

// compileBranch lowers an ifElse node into an if statement, compiling the
// subgraphs reachable from the "true" and "false" exec outputs
// independently. The else clause is omitted when the false branch is empty.
func (g *generator) compileBranch(node *Node, def *registry.Definition, depth int) string {
	inputs := g.resolveInputs(node, def, depth)
	condition := def.Compile(nodeView(node), inputs)

	trueBody := g.compileBranchBody(node.ID, "true", depth)
	falseBody := g.compileBranchBody(node.ID, "false", depth)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("if (%s) {", condition))
	if trueBody != "" {
		b.WriteString("\n" + indent(trueBody))
	}
	b.WriteString("\n}")
	if falseBody != "" {
		b.WriteString(" else {\n" + indent(falseBody) + "\n}")
	}
	return b.String()
}

func (g *generator) compileBranchBody(nodeID, handle string, depth int) string {
	edge := g.execEdges[nodeID][handle]
	if edge == nil {
		return ""
	}
	return g.compileChain(edge.Target, depth+1)
}

// resolveInputs lowers every declared non-exec input of a node. An input
// wired to a data edge recursively compiles the source node's expression;
// otherwise the node property literal applies.
func (g *generator) resolveInputs(node *Node, def *registry.Definition, depth int) map[string]string {
	inputs := make(map[string]string, len(def.Inputs))
	for _, slot := range def.Inputs {
		if slot.Type == registry.SlotExec {
			continue
		}
		if edge := g.dataEdges[node.ID][slot.ID]; edge != nil {
			inputs[slot.ID] = g.compileExpression(edge.Source, depth+1)
			continue
		}
		inputs[slot.ID] = formatLiteral(node.Data.Properties[slot.ID])
	}
	return inputs
}

// compileExpression lowers a data node to expression text.
func (g *generator) compileExpression(nodeID string, depth int) string {
	if depth > maxDepth {
		g.depthExceeded(nodeID)
		return "null"
	}
	node, ok := g.nodes[nodeID]
	if !ok {
		return "null"
	}
	def, ok := g.registry.Get(node.Type)
	if !ok {
		return "null"
	}
	inputs := g.resolveInputs(node, def, depth)
	return def.Compile(nodeView(node), inputs)
}

func (g *generator) depthExceeded(nodeID string) {
	g.errors = append(g.errors, CompilationError{
		NodeID:   nodeID,
		Message:  fmt.Sprintf("Maximum node depth (%d) exceeded", maxDepth),
		Severity: SeverityError,
	})
}

func nodeView(node *Node) registry.NodeView {
	return registry.NodeView{
		ID:         node.ID,
		Properties: node.Data.Properties,
	}
}

// formatLiteral renders a property value as script literal text. Strings
// become quoted string literals; all other JSON-serializable values keep
// their literal form. A missing or unserializable value renders as null.
func formatLiteral(v any) string {
	if v == nil {
		return "null"
	}
	text, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(text)
}

// indent prefixes every line of body with two spaces.
func indent(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}
