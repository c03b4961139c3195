package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
	"lox-lang/internal/runtime"
)

// ---- ANSI colors ----

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// ---- repl command ----

func cmdRepl() {
	// Determine history file path (~/.lox_history)
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".lox_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            colorGreen + "lox> " + colorReset,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	// Welcome banner
	fmt.Fprintf(rl.Stdout(), "%s%slox-lang REPL%s %s(type 'exit' or Ctrl+D to quit)%s\n\n",
		colorBold, colorCyan, colorReset, colorGray, colorReset)

	interp := runtime.New(rl.Stdout())
	var accumulated strings.Builder
	braceDepth := 0

	for {
		// Update prompt based on multi-line state
		if braceDepth > 0 {
			rl.SetPrompt(colorGray + "...  " + colorReset)
		} else {
			rl.SetPrompt(colorGreen + "lox> " + colorReset)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if braceDepth > 0 {
					// Cancel multi-line input
					accumulated.Reset()
					braceDepth = 0
					continue
				}
				// Show hint instead of exiting
				fmt.Fprintf(rl.Stdout(), "\n%s(use 'exit' or Ctrl+D to quit)%s\n", colorGray, colorReset)
				continue
			}
			// EOF (Ctrl+D) or other error → exit
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		// Exit command
		if braceDepth == 0 && strings.TrimSpace(line) == "exit" {
			break
		}

		// Count braces for multi-line input
		braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
		accumulated.WriteString(line)
		accumulated.WriteString("\n")

		// If braces are unbalanced, keep reading
		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		source := accumulated.String()
		accumulated.Reset()

		// Skip empty input
		if strings.TrimSpace(source) == "" {
			continue
		}

		evalChunk(rl, interp, source)
	}
}

// evalChunk runs one REPL input through the pipeline. A lone expression is
// evaluated and its value echoed; anything else executes as statements.
func evalChunk(rl *readline.Instance, interp *runtime.Interpreter, source string) {
	file, diags := parser.ParseSource(source, "<repl>")
	if diag.HasErrors(diags) {
		printDiagsColored(rl.Stderr(), diags)
		return
	}

	diags = resolver.Resolve(file)
	if diag.HasErrors(diags) {
		printDiagsColored(rl.Stderr(), diags)
		return
	}
	// Warnings are shown but don't stop execution.
	printWarningsColored(rl.Stderr(), diags)

	// Echo the value of a bare expression.
	if len(file.Stmts) == 1 {
		if exprStmt, ok := file.Stmts[0].(*ast.ExprStmt); ok {
			value, err := interp.Evaluate(exprStmt.Expr)
			if err != nil {
				fmt.Fprintf(rl.Stderr(), "%s%s%s\n", colorRed, err.Diagnostic(), colorReset)
				return
			}
			fmt.Fprintf(rl.Stdout(), "%s=> %s%s\n", colorGray, value.String(), colorReset)
			return
		}
	}

	if err := interp.Interpret(file); err != nil {
		fmt.Fprintf(rl.Stderr(), "%s%s%s\n", colorRed, err.Diagnostic(), colorReset)
	}
}

// printDiagsColored prints diagnostics with red color for REPL display.
func printDiagsColored(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s%s%s\n", colorRed, d.String(), colorReset)
	}
}

// printWarningsColored prints only the warnings, in yellow.
func printWarningsColored(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		if d.Severity == diag.Warning {
			fmt.Fprintf(w, "%s%s%s\n", colorYellow, d.String(), colorReset)
		}
	}
}
