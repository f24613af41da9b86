//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

package lint

import "regexp"

// dangerousPattern pairs a regex with its stable finding code. Matches are
// reported anywhere in the script text, including inside string literals
// and comments. That is a deliberately conservative policy: even a mention
// of a forbidden API is flagged rather than risking a miss.
type dangerousPattern struct {
	re      *regexp.Regexp
	code    string
	message string
}

var dangerousPatterns = []dangerousPattern{
	{
		re:      regexp.MustCompile(`\beval\s*\(`),
		code:    "no-eval",
		message: "eval() is not allowed in story scripts",
	},
	{
		re:      regexp.MustCompile(`\bFunction\s*\(`),
		code:    "no-function-constructor",
		message: "Dynamic function construction is not allowed in story scripts",
	},
	{
		re:      regexp.MustCompile(`\bimport\s*\(`),
		code:    "no-dynamic-import",
		message: "Dynamic import() is not allowed in story scripts",
	},
	{
		re:      regexp.MustCompile(`\bfetch\s*\(`),
		code:    "no-fetch",
		message: "Network access via fetch() is not allowed in story scripts",
	},
	{
		re:      regexp.MustCompile(`\bXMLHttpRequest\b`),
		code:    "no-xhr",
		message: "Network access via XMLHttpRequest is not allowed in story scripts",
	},
	{
		re:      regexp.MustCompile(`\bdocument\.`),
		code:    "no-document",
		message: "DOM access via document is not allowed in story scripts",
	},
	{
		re:      regexp.MustCompile(`\bwindow\.`),
		code:    "no-window",
		message: "Global access via window is not allowed in story scripts",
	},
	{
		re:      regexp.MustCompile(`\blocalStorage\b`),
		code:    "no-local-storage",
		message: "localStorage is not available in story scripts",
	},
	{
		re:      regexp.MustCompile(`\bsessionStorage\b`),
		code:    "no-session-storage",
		message: "sessionStorage is not available in story scripts",
	},
}

// legacyPattern recognizes a historical scripting idiom and suggests the
// modern capability API equivalent. Purely advisory.
type legacyPattern struct {
	re      *regexp.Regexp
	code    string
	message string
	rewrite func(match []string) string
}

var legacyPatterns = []legacyPattern{
	{
		re:      regexp.MustCompile(`\bput\s+(.+?)\s+into\s+([A-Za-z_$][A-Za-z0-9_$]*)`),
		code:    "legacy-put",
		message: `"put ... into ..." is legacy syntax`,
		rewrite: func(match []string) string {
			return `Use setVariable("` + match[2] + `", ` + match[1] + `) instead`
		},
	},
	{
		re:      regexp.MustCompile(`\bgo\s+to\s+card\s+"([^"]+)"`),
		code:    "legacy-go-to",
		message: `"go to card" is legacy syntax`,
		rewrite: func(match []string) string {
			return `Use goToCard("` + match[1] + `") instead`
		},
	},
	{
		re:      regexp.MustCompile(`\banswer\s+"([^"]+)"`),
		code:    "legacy-answer",
		message: `"answer" is legacy syntax`,
		rewrite: func(match []string) string {
			return `Use showDialog("` + match[1] + `") instead`
		},
	},
}
