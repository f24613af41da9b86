//
// Tencent is pleased to support the open source community by making storyscript available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// storyscript is licensed under the Apache License Version 2.0.
//
//

// Command storyscript is the CLI for the story scripting toolchain:
// compile a node graph, lint a script, run a script preview, or serve the
// editor-facing HTTP API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"trpc.group/trpc-go/storyscript/devserver"
	"trpc.group/trpc-go/storyscript/graph"
	"trpc.group/trpc-go/storyscript/internal/config"
	"trpc.group/trpc-go/storyscript/lint"
	"trpc.group/trpc-go/storyscript/log"
	"trpc.group/trpc-go/storyscript/sandbox"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "compile":
		err = runCompile(os.Args[2:])
	case "lint":
		err = runLint(os.Args[2:])
	case "run":
		err = runScript(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: storyscript <command> [flags]

commands:
  compile <graph.json>   compile a node graph to script text
  lint <script file>     lint a script and print findings
  run <script file>      execute a script in a preview sandbox
  serve [-config path]   serve the editor-facing HTTP API`)
}

func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("compile expects exactly one graph file")
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	var g graph.NodeGraph
	if err := json.Unmarshal(raw, &g); err != nil {
		return fmt.Errorf("invalid graph JSON: %w", err)
	}

	result := graph.Compile(&g)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "%s: %s (node %s)\n", e.Severity, e.Message, e.NodeID)
	}
	if !result.Success {
		return fmt.Errorf("compilation failed")
	}
	fmt.Println(result.Code)
	return nil
}

func runLint(args []string) error {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("lint expects exactly one script file")
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	result := lint.Lint(string(raw))
	for _, e := range result.Errors {
		fmt.Printf("%d:%d %s [%s] %s\n", e.Line, e.Column, e.Severity, e.Code, e.Message)
		if e.Suggestion != "" {
			fmt.Printf("      suggestion: %s\n", e.Suggestion)
		}
	}
	fmt.Printf("%d errors, %d warnings, %d info\n",
		result.Summary.ErrorCount, result.Summary.WarningCount, result.Summary.InfoCount)
	if !result.IsValid {
		return fmt.Errorf("lint failed")
	}
	return nil
}

func runScript(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cardID := fs.String("card", "preview", "card id for the execution context")
	cardTitle := fs.String("title", "Preview", "card title for the execution context")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("run expects exactly one script file")
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	result := sandbox.ExecuteQuick(context.Background(), string(raw),
		sandbox.Card{ID: *cardID, Title: *cardTitle})
	for _, entry := range result.ConsoleOutput {
		fmt.Printf("[%s] ", entry.Level)
		for i, arg := range entry.Args {
			if i > 0 {
				fmt.Print(" ")
			}
			fmt.Printf("%v", arg)
		}
		fmt.Println()
	}
	if result.Error != nil {
		return fmt.Errorf("%s", result.Error.Error())
	}
	if result.ReturnValue != nil {
		fmt.Printf("=> %v\n", result.ReturnValue)
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to storyscript.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log.SetLevel(cfg.LogLevel)

	srv, err := devserver.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()
	return srv.Start()
}
