// Package diag provides the structured diagnostic types emitted by every
// pipeline stage. The core never formats or prints diagnostics to the user;
// it hands them to the surrounding tooling as values.
package diag

import (
	"fmt"
	"lox-lang/internal/span"
	"strings"
)

// Stage identifies which pipeline stage produced a diagnostic.
type Stage int

const (
	Scan Stage = iota
	Parse
	Resolve
	Runtime
)

func (s Stage) String() string {
	switch s {
	case Scan:
		return "scan"
	case Parse:
		return "parse"
	case Resolve:
		return "resolve"
	case Runtime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Severity indicates the severity of a diagnostic. Warnings are advisory and
// never block execution.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Frame is one entry of a runtime call-stack trace: the function being
// called and the line of the call site.
type Frame struct {
	Function string `json:"function"`
	Line     int    `json:"line"`
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Code     string    `json:"code"`            // stable code, e.g. "E2001"
	Stage    Stage     `json:"stage"`           // producing pipeline stage
	Severity Severity  `json:"severity"`        // error or warning
	Message  string    `json:"message"`         // human-readable description
	Span     span.Span `json:"span"`            // source location
	Stack    []Frame   `json:"stack,omitempty"` // call trace, runtime errors only
}

// String returns a human-readable representation of the diagnostic.
func (d Diagnostic) String() string {
	loc := fmt.Sprintf("%d:%d", d.Span.Start.Line, d.Span.Start.Column)
	msg := fmt.Sprintf("[%s] %s %s at %s: %s", d.Code, d.Stage, d.Severity, loc, d.Message)
	if len(d.Stack) > 0 {
		var b strings.Builder
		b.WriteString(msg)
		for i := len(d.Stack) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "\n  in %s (line %d)", d.Stack[i].Function, d.Stack[i].Line)
		}
		return b.String()
	}
	return msg
}

// Errorf creates an error diagnostic at the given span.
func Errorf(code string, stage Stage, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Stage:    stage,
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// Warningf creates a warning diagnostic at the given span.
func Warningf(code string, stage Stage, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Stage:    stage,
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// HasErrors reports whether any diagnostic in the slice has error severity.
// Warnings alone never stop the pipeline.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
