// Package runtime implements the tree-walking evaluator for lox-lang:
// runtime values, environments, builtins, and the interpreter itself.
package runtime

import (
	"strconv"

	"lox-lang/internal/ast"
)

// Value is the interface implemented by all runtime values.
type Value interface {
	// TypeName returns the type name used in error messages.
	TypeName() string
	// String returns the display form used by print.
	String() string
}

// NumberVal is a 64-bit float number.
type NumberVal float64

func (NumberVal) TypeName() string { return "number" }

// String renders without an exponent and without a trailing ".0", so 2.0
// prints as "2" and 2.5 as "2.5".
func (v NumberVal) String() string {
	return strconv.FormatFloat(float64(v), 'f', -1, 64)
}

// StringVal is a string value.
type StringVal string

func (StringVal) TypeName() string { return "string" }
func (v StringVal) String() string { return string(v) }

// BoolVal is a boolean value.
type BoolVal bool

func (BoolVal) TypeName() string { return "bool" }
func (v BoolVal) String() string {
	if v {
		return "true"
	}
	return "false"
}

// NilVal is the nil value.
type NilVal struct{}

func (NilVal) TypeName() string { return "nil" }
func (NilVal) String() string   { return "nil" }

// FuncVal is a user-declared function together with the environment it
// closed over at declaration time.
type FuncVal struct {
	Decl    *ast.FuncDecl
	Closure *Environment
}

func (FuncVal) TypeName() string { return "function" }
func (v FuncVal) String() string { return "<fn " + v.Decl.Name + ">" }
func (v FuncVal) Arity() int     { return len(v.Decl.Params) }

// BuiltinVal is a native function provided by the host.
type BuiltinVal struct {
	Name  string
	Arity int
	Fn    func(args []Value) (Value, error)
}

func (BuiltinVal) TypeName() string { return "function" }
func (v BuiltinVal) String() string { return "<native fn " + v.Name + ">" }

// IsTruthy reports the truthiness of a value: nil and false are falsy,
// everything else (including 0 and "") is truthy.
func IsTruthy(v Value) bool {
	switch x := v.(type) {
	case NilVal:
		return false
	case BoolVal:
		return bool(x)
	default:
		return true
	}
}

// valuesEqual implements the == operator: values of different types are
// never equal, and functions are equal only to themselves.
func valuesEqual(a, b Value) bool {
	switch x := a.(type) {
	case NilVal:
		_, ok := b.(NilVal)
		return ok
	case NumberVal:
		y, ok := b.(NumberVal)
		return ok && x == y
	case StringVal:
		y, ok := b.(StringVal)
		return ok && x == y
	case BoolVal:
		y, ok := b.(BoolVal)
		return ok && x == y
	case FuncVal:
		y, ok := b.(FuncVal)
		return ok && x.Decl == y.Decl && x.Closure == y.Closure
	case BuiltinVal:
		y, ok := b.(BuiltinVal)
		return ok && x.Name == y.Name
	default:
		return false
	}
}
