//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

// Package lint statically analyzes story script text, whether hand-written
// or produced by the graph compiler. Analysis runs four passes: syntax
// validity, dangerous-API detection, common-mistake heuristics and
// legacy-syntax hints. Linting is pure: it never executes the script and
// never returns a Go error.
package lint

import (
	"regexp"
	"sort"
	"strings"

	"trpc.group/trpc-go/storyscript/script"
)

// Severity classifies a lint finding.
type Severity string

// Lint severities. Only error-severity findings block validity.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Error is a single lint finding. Line and Column are 1-indexed.
type Error struct {
	// Code is the stable finding identifier, e.g. "no-eval".
	Code string `json:"code"`

	// Message is the human-readable diagnostic.
	Message string `json:"message"`

	// Severity is "error", "warning" or "info".
	Severity Severity `json:"severity"`

	Line   int `json:"line"`
	Column int `json:"column"`

	// EndLine and EndColumn bound the finding when known.
	EndLine   int `json:"endLine,omitempty"`
	EndColumn int `json:"endColumn,omitempty"`

	// Suggestion is an optional short fix hint.
	Suggestion string `json:"suggestion,omitempty"`
}

// Summary tallies findings per severity.
type Summary struct {
	ErrorCount   int `json:"errorCount"`
	WarningCount int `json:"warningCount"`
	InfoCount    int `json:"infoCount"`
}

// Result is the outcome of linting one script.
type Result struct {
	// IsValid is true iff zero error-severity findings exist. Warnings and
	// info findings never block validity.
	IsValid bool `json:"isValid"`

	// Errors lists every finding, sorted by line then column.
	Errors []Error `json:"errors"`

	// Summary tallies the findings per severity.
	Summary Summary `json:"summary"`
}

// Lint analyzes a script and returns every finding. Empty or
// whitespace-only input is always valid with zero findings.
func Lint(src string) *Result {
	result := &Result{Errors: []Error{}}
	if strings.TrimSpace(src) == "" {
		result.IsValid = true
		return result
	}

	result.Errors = append(result.Errors, syntaxPass(src)...)
	result.Errors = append(result.Errors, dangerousPass(src)...)
	result.Errors = append(result.Errors, heuristicPass(src)...)
	result.Errors = append(result.Errors, legacyPass(src)...)

	sort.SliceStable(result.Errors, func(i, j int) bool {
		if result.Errors[i].Line != result.Errors[j].Line {
			return result.Errors[i].Line < result.Errors[j].Line
		}
		return result.Errors[i].Column < result.Errors[j].Column
	})

	for _, e := range result.Errors {
		switch e.Severity {
		case SeverityError:
			result.Summary.ErrorCount++
		case SeverityWarning:
			result.Summary.WarningCount++
		default:
			result.Summary.InfoCount++
		}
	}
	result.IsValid = result.Summary.ErrorCount == 0
	return result
}

// IsValidSyntax is a fast boolean-only variant of the syntax pass,
// intended for pre-save gating without the full four-pass analysis.
func IsValidSyntax(src string) bool {
	if strings.TrimSpace(src) == "" {
		return true
	}
	_, err := script.Parse(src)
	return err == nil
}

// syntaxPass parses the script and reports at most one finding.
func syntaxPass(src string) []Error {
	_, err := script.Parse(src)
	if err == nil {
		return nil
	}

	finding := Error{
		Code:     "syntax-error",
		Severity: SeverityError,
		Line:     1,
		Column:   1,
	}
	if se, ok := err.(*script.SyntaxError); ok {
		finding.Message = se.Message
		finding.Line = se.Line
		finding.Column = se.Column
	} else {
		finding.Message = err.Error()
	}
	// Parser positions can be unknown for truncated input; fall back to a
	// bracket-balance scan.
	if finding.Line < 1 {
		line, column := bracketScan(src)
		finding.Line = line
		finding.Column = column
	}
	finding.Suggestion = suggestFor(finding.Message)
	return []Error{finding}
}

// bracketScan locates the first closing bracket with no matching opener,
// or the last unmatched opener when brackets never go negative but some
// remain unclosed at the end of the script.
func bracketScan(src string) (line, column int) {
	type opener struct {
		ch           byte
		line, column int
	}
	pairs := map[byte]byte{'}': '{', ']': '[', ')': '('}

	var stack []opener
	line, column = 1, 1
	curLine, curColumn := 1, 1
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch ch {
		case '{', '[', '(':
			stack = append(stack, opener{ch: ch, line: curLine, column: curColumn})
		case '}', ']', ')':
			if len(stack) == 0 || stack[len(stack)-1].ch != pairs[ch] {
				return curLine, curColumn
			}
			stack = stack[:len(stack)-1]
		}
		if ch == '\n' {
			curLine++
			curColumn = 1
		} else {
			curColumn++
		}
	}
	if len(stack) > 0 {
		last := stack[len(stack)-1]
		return last.line, last.column
	}
	return line, column
}

// suggestFor attaches a short fix hint based on keywords in the parser
// message.
func suggestFor(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "unterminated string"):
		return "Close the string literal with a matching quote"
	case strings.Contains(lower, "missing }"),
		strings.Contains(lower, "end of script"):
		return "Check for missing closing brackets"
	case strings.Contains(lower, "unexpected token") &&
		(strings.Contains(message, "}") || strings.Contains(message, ")")):
		return "Check for unbalanced braces or parentheses"
	case strings.Contains(lower, "unexpected token"):
		return "Check the syntax near the reported position"
	default:
		return ""
	}
}

// dangerousPass scans the full text against the dangerous-pattern table.
// Matches are error severity regardless of lexical context.
func dangerousPass(src string) []Error {
	var findings []Error
	for _, pattern := range dangerousPatterns {
		for _, loc := range pattern.re.FindAllStringIndex(src, -1) {
			line, column := lineCol(src, loc[0])
			endLine, endColumn := lineCol(src, loc[1])
			findings = append(findings, Error{
				Code:      pattern.code,
				Message:   pattern.message,
				Severity:  SeverityError,
				Line:      line,
				Column:    column,
				EndLine:   endLine,
				EndColumn: endColumn,
				Suggestion: "Use the story API instead of host environment " +
					"features",
			})
		}
	}
	return findings
}

var (
	declRe = regexp.MustCompile(`\b(let|const|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	condRe = regexp.MustCompile(`\bif\s*\(([^)]*)\)`)

	consoleRe = regexp.MustCompile(`\bconsole\.(log|warn|error|info)\s*\(`)

	assignStartRe = regexp.MustCompile(`^\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*=([^=]|$)`)
)

// reservedWords are names the implicit-global heuristic never flags.
var reservedWords = map[string]bool{
	"let": true, "const": true, "var": true,
	"if": true, "else": true, "while": true, "return": true,
	"true": true, "false": true, "null": true, "undefined": true,
	"await": true, "function": true,
}

// heuristicPass runs the per-line common-mistake checks.
func heuristicPass(src string) []Error {
	var findings []Error
	declared := make(map[string]bool)

	for lineIdx, lineText := range strings.Split(src, "\n") {
		lineNo := lineIdx + 1

		// Duplicate declarations: a let/const/var whose name already
		// appeared in an earlier declaration.
		for _, match := range declRe.FindAllStringSubmatchIndex(lineText, -1) {
			name := lineText[match[4]:match[5]]
			if declared[name] {
				findings = append(findings, Error{
					Code:       "duplicate-declaration",
					Message:    "Variable " + quoted(name) + " is already declared",
					Severity:   SeverityError,
					Line:       lineNo,
					Column:     match[4] + 1,
					Suggestion: "Assign to the existing variable instead of redeclaring it",
				})
				continue
			}
			declared[name] = true
		}

		// Assignment inside an if condition: a bare = that is not part of
		// a comparison operator.
		for _, match := range condRe.FindAllStringSubmatchIndex(lineText, -1) {
			cond := lineText[match[2]:match[3]]
			if idx := bareAssignIndex(cond); idx >= 0 {
				findings = append(findings, Error{
					Code:       "assignment-in-condition",
					Message:    "Assignment inside a condition; did you mean a comparison?",
					Severity:   SeverityWarning,
					Line:       lineNo,
					Column:     match[2] + idx + 1,
					Suggestion: "Use === to compare values",
				})
			}
		}

		// A line that is only a semicolon.
		if strings.TrimSpace(lineText) == ";" {
			findings = append(findings, Error{
				Code:       "empty-statement",
				Message:    "Empty statement",
				Severity:   SeverityInfo,
				Line:       lineNo,
				Column:     strings.Index(lineText, ";") + 1,
				Suggestion: "Remove the stray semicolon",
			})
		}

		// Console calls are fine while debugging but noise in published
		// stories.
		for _, match := range consoleRe.FindAllStringIndex(lineText, -1) {
			findings = append(findings, Error{
				Code:       "console-statement",
				Message:    "Console output in story script",
				Severity:   SeverityInfo,
				Line:       lineNo,
				Column:     match[0] + 1,
				Suggestion: "Remove console calls before publishing",
			})
		}

		// Assignment at statement start to a name never declared above.
		if match := assignStartRe.FindStringSubmatchIndex(lineText); match != nil {
			name := lineText[match[2]:match[3]]
			if !reservedWords[name] && !declared[name] {
				findings = append(findings, Error{
					Code:       "implicit-global",
					Message:    "Variable " + quoted(name) + " is assigned without being declared",
					Severity:   SeverityWarning,
					Line:       lineNo,
					Column:     match[2] + 1,
					Suggestion: "Declare the variable with let or const first",
				})
			}
		}
	}
	return findings
}

// bareAssignIndex finds a = inside a condition that is not part of
// ==, ===, !=, !==, <= or >=. Returns -1 when none exists.
func bareAssignIndex(cond string) int {
	for i := 0; i < len(cond); i++ {
		if cond[i] != '=' {
			continue
		}
		if i+1 < len(cond) && cond[i+1] == '=' {
			// Skip the whole ==/=== run.
			for i+1 < len(cond) && cond[i+1] == '=' {
				i++
			}
			continue
		}
		if i > 0 && (cond[i-1] == '=' || cond[i-1] == '!' ||
			cond[i-1] == '<' || cond[i-1] == '>') {
			continue
		}
		return i
	}
	return -1
}

// legacyPass recognizes historical scripting idioms and suggests the
// modern capability API rewrite. Purely advisory, never blocking.
func legacyPass(src string) []Error {
	var findings []Error
	for _, pattern := range legacyPatterns {
		for _, match := range pattern.re.FindAllStringSubmatchIndex(src, -1) {
			groups := make([]string, 0, len(match)/2)
			for g := 0; g < len(match); g += 2 {
				if match[g] < 0 {
					groups = append(groups, "")
					continue
				}
				groups = append(groups, src[match[g]:match[g+1]])
			}
			line, column := lineCol(src, match[0])
			findings = append(findings, Error{
				Code:       pattern.code,
				Message:    pattern.message,
				Severity:   SeverityInfo,
				Line:       line,
				Column:     column,
				Suggestion: pattern.rewrite(groups),
			})
		}
	}
	return findings
}

// lineCol converts a byte offset into a 1-indexed line and column.
func lineCol(src string, offset int) (int, int) {
	line := 1
	lastNL := -1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			lastNL = i
		}
	}
	return line, offset - lastNL
}

func quoted(name string) string { return `"` + name + `"` }
