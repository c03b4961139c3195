// Package driver chains the pipeline stages: scan, parse, resolve, run.
// Each stage only starts when no earlier stage produced an error; warnings
// pass through without stopping anything.
package driver

import (
	"io"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
	"lox-lang/internal/runtime"
)

// Outcome classifies how a run ended.
type Outcome int

const (
	// OK means the program ran to completion.
	OK Outcome = iota
	// StaticError means scanning, parsing, or resolution failed; nothing ran.
	StaticError
	// RuntimeError means execution started and hit an error.
	RuntimeError
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case StaticError:
		return "static error"
	case RuntimeError:
		return "runtime error"
	default:
		return "unknown"
	}
}

// Result is the outcome of running a program plus every diagnostic produced
// along the way, warnings included.
type Result struct {
	Outcome Outcome
	Diags   []diag.Diagnostic
}

// Run executes source through the whole pipeline, writing print output to
// out.
func Run(source, filename string, out io.Writer) Result {
	file, diags := Check(source, filename)
	if diag.HasErrors(diags) {
		return Result{Outcome: StaticError, Diags: diags}
	}

	interp := runtime.New(out)
	if err := interp.Interpret(file); err != nil {
		return Result{Outcome: RuntimeError, Diags: append(diags, err.Diagnostic())}
	}
	return Result{Outcome: OK, Diags: diags}
}

// Check runs the static stages only: scan, parse, resolve. The returned tree
// is resolved and ready to interpret when no diagnostic is an error; it is
// nil when scanning or parsing failed.
func Check(source, filename string) (*ast.File, []diag.Diagnostic) {
	file, diags := parser.ParseSource(source, filename)
	if diag.HasErrors(diags) {
		return nil, diags
	}
	diags = append(diags, resolver.Resolve(file)...)
	if diag.HasErrors(diags) {
		return nil, diags
	}
	return file, diags
}
