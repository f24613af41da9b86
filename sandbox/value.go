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
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Script values are plain Go values: nil, bool, float64, string, []any and
// map[string]any. Builtin capabilities are *builtinFunc.

// typeName names a value's type for diagnostics.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case *builtinFunc:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// truthy applies JS-style truthiness.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0 && !math.IsNaN(val)
	case string:
		return val != ""
	default:
		return true
	}
}

// strictEquals implements === semantics: no coercion across types.
func strictEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	default:
		// Reference comparison for arrays, objects and functions.
		return fmt.Sprintf("%p", a) == fmt.Sprintf("%p", b)
	}
}

// looseEquals implements == semantics with the usual number/string/bool
// coercions.
func looseEquals(a, b any) bool {
	if strictEquals(a, b) {
		return true
	}
	an, aIsNum := toNumber(a)
	bn, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return an == bn
	}
	return false
}

// toNumber coerces a value to a number where JS would.
func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// display renders a value the way the console panel shows it.
func display(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val)
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = display(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		return "[object Object]"
	case *builtinFunc:
		return "function " + val.name
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatNumber renders integers without a decimal point.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
