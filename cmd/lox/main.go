// Command lox is the CLI entry point for the lox-lang toolchain.
//
// Usage:
//
//	lox tokens <file>            Print tokens
//	lox tokens <file> --json     Print tokens as JSON
//	lox parse  <file>            Print AST as JSON
//	lox run    <file>            Run a source file
//	lox repl                     Start interactive REPL
//
// Exit codes follow sysexits: 64 for usage errors, 65 for errors in the
// source program, 70 for runtime errors.
package main

import (
	"fmt"
	"os"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/driver"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
)

const (
	exitUsage   = 64
	exitStatic  = 65
	exitRuntime = 70
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}

	command := os.Args[1]

	switch command {
	case "tokens":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "error: missing file argument")
			os.Exit(exitUsage)
		}
		source := readFile(os.Args[2])
		cmdTokens(source, os.Args[2], hasFlag("--json"))
	case "parse":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "error: missing file argument")
			os.Exit(exitUsage)
		}
		source := readFile(os.Args[2])
		cmdParse(source, os.Args[2])
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "error: missing file argument")
			os.Exit(exitUsage)
		}
		source := readFile(os.Args[2])
		cmdRun(source, os.Args[2])
	case "repl":
		cmdRepl()
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command '%s'\n", command)
		usage()
		os.Exit(exitUsage)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  lox tokens <file> [--json]   Tokenize and print tokens")
	fmt.Fprintln(os.Stderr, "  lox parse  <file>            Parse and print AST (JSON)")
	fmt.Fprintln(os.Stderr, "  lox run    <file>            Run a source file")
	fmt.Fprintln(os.Stderr, "  lox repl                     Start interactive REPL")
}

func readFile(filename string) string {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read file %s: %v\n", filename, err)
		os.Exit(exitUsage)
	}
	return string(source)
}

func hasFlag(flag string) bool {
	for _, arg := range os.Args[3:] {
		if arg == flag {
			return true
		}
	}
	return false
}

// ---- tokens command ----

func cmdTokens(source, filename string, jsonMode bool) {
	l := lexer.New(source, filename)
	tokens, diags := l.Tokenize()

	if jsonMode {
		printTokensJSON(tokens, diags)
	} else {
		printTokensText(tokens, diags)
	}

	if diag.HasErrors(diags) {
		os.Exit(exitStatic)
	}
}

// ---- parse command ----

func cmdParse(source, filename string) {
	file, diags := parser.ParseSource(source, filename)
	if file != nil && !diag.HasErrors(diags) {
		// Annotate resolution distances so they show up in the JSON; the
		// resolver's own diagnostics are reported alongside.
		diags = append(diags, resolver.Resolve(file)...)
	}

	var tree map[string]interface{}
	if file != nil {
		tree = ast.NodeToMap(file)
	}
	output := map[string]interface{}{
		"ast":         tree,
		"diagnostics": diagsToSlice(diags),
	}
	printJSON(output)

	if diag.HasErrors(diags) {
		os.Exit(exitStatic)
	}
}

// ---- run command ----

func cmdRun(source, filename string) {
	res := driver.Run(source, filename, os.Stdout)
	printDiagsText(res.Diags)

	switch res.Outcome {
	case driver.StaticError:
		os.Exit(exitStatic)
	case driver.RuntimeError:
		os.Exit(exitRuntime)
	}
}
