//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package registry

import "fmt"

// Built-in node type keys.
const (
	TypeOnEnter     = "onEnter"
	TypeOnClick     = "onClick"
	TypeGoToCard    = "goToCard"
	TypeShowDialog  = "showDialog"
	TypeSetVariable = "setVariable"
	TypeWait        = "wait"
	TypeLog         = "log"
	TypeString      = "string"
	TypeNumber      = "number"
	TypeBoolean     = "boolean"
	TypeVariable    = "variable"
	TypeMath        = "math"
	TypeConcat      = "concat"
	TypeCompare     = "compare"
	TypeRandom      = "random"
	TypeIfElse      = "ifElse"
)

func execOut() Slot  { return Slot{ID: "exec", Name: "Then", Type: SlotExec} }
func execIn() Slot   { return Slot{ID: "exec", Name: "Run", Type: SlotExec} }
func valueOut(t string) Slot {
	return Slot{ID: "value", Name: "Value", Type: t}
}

// mathOps maps the math node's op property to its script operator.
var mathOps = map[string]string{
	"add":      "+",
	"subtract": "-",
	"multiply": "*",
	"divide":   "/",
	"modulo":   "%",
}

// compareOps maps the compare node's op property to its script operator.
// Equality lowers to the strict forms so generated code never trips the
// linter's assignment-in-condition heuristic.
var compareOps = map[string]string{
	"eq":  "===",
	"neq": "!==",
	"lt":  "<",
	"lte": "<=",
	"gt":  ">",
	"gte": ">=",
}

// propString reads a string property with a fallback default.
func propString(node NodeView, key, fallback string) string {
	if v, ok := node.Properties[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func init() {
	// Event nodes. Their fragment is a comment header so chained action code
	// always appears after anything the entry node itself emits.
	MustRegister(&Definition{
		Type:        TypeOnEnter,
		Kind:        KindEvent,
		Label:       "On Enter",
		Description: "Runs when the card is shown.",
		Outputs:     []Slot{execOut()},
		Compile: func(node NodeView, _ map[string]string) string {
			return "// on enter"
		},
	})
	MustRegister(&Definition{
		Type:        TypeOnClick,
		Kind:        KindEvent,
		Label:       "On Click",
		Description: "Runs when the card is clicked.",
		Outputs:     []Slot{execOut()},
		Compile: func(node NodeView, _ map[string]string) string {
			return "// on click"
		},
	})

	// Action nodes.
	MustRegister(&Definition{
		Type:        TypeGoToCard,
		Kind:        KindAction,
		Label:       "Go To Card",
		Description: "Navigates to another story card.",
		Inputs: []Slot{
			execIn(),
			{ID: "cardId", Name: "Card ID", Type: SlotString, Required: true},
		},
		Outputs: []Slot{execOut()},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return fmt.Sprintf("goToCard(%s);", inputs["cardId"])
		},
	})
	MustRegister(&Definition{
		Type:        TypeShowDialog,
		Kind:        KindAction,
		Label:       "Show Dialog",
		Description: "Shows a modal dialog to the player.",
		Inputs: []Slot{
			execIn(),
			{ID: "message", Name: "Message", Type: SlotString, Required: true},
		},
		Outputs: []Slot{execOut()},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return fmt.Sprintf("showDialog(%s);", inputs["message"])
		},
	})
	MustRegister(&Definition{
		Type:        TypeSetVariable,
		Kind:        KindAction,
		Label:       "Set Variable",
		Description: "Stores a value in the story's variable map.",
		Inputs: []Slot{
			execIn(),
			{ID: "name", Name: "Name", Type: SlotString, Required: true},
			{ID: "value", Name: "Value", Type: SlotAny, Required: true},
		},
		Outputs: []Slot{execOut()},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return fmt.Sprintf("setVariable(%s, %s);", inputs["name"], inputs["value"])
		},
	})
	MustRegister(&Definition{
		Type:        TypeWait,
		Kind:        KindAction,
		Label:       "Wait",
		Description: "Pauses playback for a number of milliseconds.",
		Inputs: []Slot{
			execIn(),
			{ID: "ms", Name: "Milliseconds", Type: SlotNumber, Required: true},
		},
		Outputs: []Slot{execOut()},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return fmt.Sprintf("wait(%s);", inputs["ms"])
		},
	})
	MustRegister(&Definition{
		Type:        TypeLog,
		Kind:        KindAction,
		Label:       "Log",
		Description: "Writes a message to the developer console panel.",
		Inputs: []Slot{
			execIn(),
			{ID: "message", Name: "Message", Type: SlotAny, Required: true},
		},
		Outputs: []Slot{execOut()},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return fmt.Sprintf("console.log(%s);", inputs["message"])
		},
	})

	// Data nodes compile to expressions.
	MustRegister(&Definition{
		Type:        TypeString,
		Kind:        KindData,
		Label:       "String",
		Description: "A string literal.",
		Inputs: []Slot{
			{ID: "value", Name: "Value", Type: SlotString, Required: true},
		},
		Outputs: []Slot{valueOut(SlotString)},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return inputs["value"]
		},
	})
	MustRegister(&Definition{
		Type:        TypeNumber,
		Kind:        KindData,
		Label:       "Number",
		Description: "A number literal.",
		Inputs: []Slot{
			{ID: "value", Name: "Value", Type: SlotNumber, Required: true},
		},
		Outputs: []Slot{valueOut(SlotNumber)},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return inputs["value"]
		},
	})
	MustRegister(&Definition{
		Type:        TypeBoolean,
		Kind:        KindData,
		Label:       "Boolean",
		Description: "A boolean literal.",
		Inputs: []Slot{
			{ID: "value", Name: "Value", Type: SlotBoolean, Required: true},
		},
		Outputs: []Slot{valueOut(SlotBoolean)},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return inputs["value"]
		},
	})
	MustRegister(&Definition{
		Type:        TypeVariable,
		Kind:        KindData,
		Label:       "Get Variable",
		Description: "Reads a value from the story's variable map.",
		Inputs: []Slot{
			{ID: "name", Name: "Name", Type: SlotString, Required: true},
		},
		Outputs: []Slot{valueOut(SlotAny)},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return fmt.Sprintf("getVariable(%s)", inputs["name"])
		},
	})
	MustRegister(&Definition{
		Type:        TypeMath,
		Kind:        KindData,
		Label:       "Math",
		Description: "Arithmetic on two numbers.",
		Inputs: []Slot{
			{ID: "a", Name: "A", Type: SlotNumber, Required: true},
			{ID: "b", Name: "B", Type: SlotNumber, Required: true},
		},
		Outputs: []Slot{valueOut(SlotNumber)},
		Compile: func(node NodeView, inputs map[string]string) string {
			op, ok := mathOps[propString(node, "op", "add")]
			if !ok {
				op = "+"
			}
			return fmt.Sprintf("(%s %s %s)", inputs["a"], op, inputs["b"])
		},
	})
	MustRegister(&Definition{
		Type:        TypeConcat,
		Kind:        KindData,
		Label:       "Concatenate",
		Description: "Joins two values into a string.",
		Inputs: []Slot{
			{ID: "a", Name: "A", Type: SlotAny, Required: true},
			{ID: "b", Name: "B", Type: SlotAny, Required: true},
		},
		Outputs: []Slot{valueOut(SlotString)},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return fmt.Sprintf("(%s + %s)", inputs["a"], inputs["b"])
		},
	})
	MustRegister(&Definition{
		Type:        TypeCompare,
		Kind:        KindData,
		Label:       "Compare",
		Description: "Compares two values.",
		Inputs: []Slot{
			{ID: "a", Name: "A", Type: SlotAny, Required: true},
			{ID: "b", Name: "B", Type: SlotAny, Required: true},
		},
		Outputs: []Slot{valueOut(SlotBoolean)},
		Compile: func(node NodeView, inputs map[string]string) string {
			op, ok := compareOps[propString(node, "op", "eq")]
			if !ok {
				op = "==="
			}
			return fmt.Sprintf("(%s %s %s)", inputs["a"], op, inputs["b"])
		},
	})
	MustRegister(&Definition{
		Type:        TypeRandom,
		Kind:        KindData,
		Label:       "Random",
		Description: "A random integer between min and max, inclusive.",
		Inputs: []Slot{
			{ID: "min", Name: "Min", Type: SlotNumber, Required: true},
			{ID: "max", Name: "Max", Type: SlotNumber, Required: true},
		},
		Outputs: []Slot{valueOut(SlotNumber)},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return fmt.Sprintf("random(%s, %s)", inputs["min"], inputs["max"])
		},
	})

	// Branch node. The code generator lowers ifElse specially; Compile only
	// surfaces the condition expression.
	MustRegister(&Definition{
		Type:        TypeIfElse,
		Kind:        KindBranch,
		Label:       "If / Else",
		Description: "Branches execution on a condition.",
		Inputs: []Slot{
			execIn(),
			{ID: "condition", Name: "Condition", Type: SlotBoolean, Required: true},
		},
		Outputs: []Slot{
			{ID: "true", Name: "True", Type: SlotExec},
			{ID: "false", Name: "False", Type: SlotExec},
		},
		Compile: func(_ NodeView, inputs map[string]string) string {
			return inputs["condition"]
		},
	})
}
