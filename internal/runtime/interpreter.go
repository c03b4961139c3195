package runtime

import (
	"fmt"
	"io"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// maxCallDepth bounds user-level recursion so runaway recursion surfaces as
// a reportable error instead of exhausting the host stack.
const maxCallDepth = 1024

// Error is a runtime error with the source location of the failing
// expression and a snapshot of the user call stack at the point of failure.
type Error struct {
	Code    string
	Message string
	Span    span.Span
	Stack   []diag.Frame
}

func (e *Error) Error() string { return e.Message }

// Diagnostic converts the error into a diagnostic value.
func (e *Error) Diagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Code:     e.Code,
		Stage:    diag.Runtime,
		Severity: diag.Error,
		Message:  e.Message,
		Span:     e.Span,
		Stack:    e.Stack,
	}
}

// signal distinguishes normal statement completion from control flow that
// unwinds enclosing statements.
type signal int

const (
	sigNone signal = iota
	sigReturn
)

// execResult is the outcome of executing one statement.
type execResult struct {
	sig   signal
	value Value // return value when sig == sigReturn
}

var done = execResult{sig: sigNone}

// Interpreter evaluates a resolved AST. Print output goes to out; the
// environment persists across Interpret calls so a REPL session keeps its
// definitions.
type Interpreter struct {
	globals *Environment
	env     *Environment
	out     io.Writer

	stack []diag.Frame // user call stack, innermost last
}

// New creates an Interpreter writing print output to out.
func New(out io.Writer) *Interpreter {
	globals := NewEnvironment(nil)
	installBuiltins(globals)
	return &Interpreter{
		globals: globals,
		env:     globals,
		out:     out,
	}
}

// Interpret executes the statements of a file in order, stopping at the
// first runtime error.
func (i *Interpreter) Interpret(file *ast.File) *Error {
	for _, stmt := range file.Stmts {
		if _, err := i.exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs a single statement. For REPL use.
func (i *Interpreter) Execute(stmt ast.Stmt) *Error {
	_, err := i.exec(stmt)
	return err
}

// Evaluate evaluates a single expression. For REPL use.
func (i *Interpreter) Evaluate(expr ast.Expr) (Value, *Error) {
	return i.eval(expr)
}

// errorAt builds a runtime error at the given span, capturing the current
// call stack.
func (i *Interpreter) errorAt(code string, s span.Span, format string, args ...interface{}) *Error {
	stack := make([]diag.Frame, len(i.stack))
	copy(stack, i.stack)
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    s,
		Stack:   stack,
	}
}

// ---- statements ----

func (i *Interpreter) exec(stmt ast.Stmt) (execResult, *Error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if _, err := i.eval(s.Expr); err != nil {
			return done, err
		}
		return done, nil

	case *ast.PrintStmt:
		v, err := i.eval(s.Expr)
		if err != nil {
			return done, err
		}
		fmt.Fprintln(i.out, v.String())
		return done, nil

	case *ast.VarDeclStmt:
		var value Value = NilVal{}
		if s.Init != nil {
			v, err := i.eval(s.Init)
			if err != nil {
				return done, err
			}
			value = v
		}
		i.env.Define(s.Name, value)
		return done, nil

	case *ast.BlockStmt:
		return i.execBlock(s.Stmts, NewEnvironment(i.env))

	case *ast.IfStmt:
		cond, err := i.eval(s.Condition)
		if err != nil {
			return done, err
		}
		if IsTruthy(cond) {
			return i.exec(s.Then)
		}
		if s.Else != nil {
			return i.exec(s.Else)
		}
		return done, nil

	case *ast.WhileStmt:
		for {
			cond, err := i.eval(s.Condition)
			if err != nil {
				return done, err
			}
			if !IsTruthy(cond) {
				return done, nil
			}
			res, err := i.exec(s.Body)
			if err != nil {
				return done, err
			}
			if res.sig == sigReturn {
				return res, nil
			}
		}

	case *ast.FuncDecl:
		// The closure is the environment at declaration time, so the
		// function's name is visible inside its own body for recursion.
		i.env.Define(s.Name, FuncVal{Decl: s, Closure: i.env})
		return done, nil

	case *ast.ReturnStmt:
		var value Value = NilVal{}
		if s.Value != nil {
			v, err := i.eval(s.Value)
			if err != nil {
				return done, err
			}
			value = v
		}
		return execResult{sig: sigReturn, value: value}, nil

	default:
		return done, i.errorAt("E4000", stmt.GetSpan(), "unsupported statement %T", stmt)
	}
}

// execBlock runs stmts in env, restoring the previous environment when done.
// A return signal stops the block and propagates to the caller.
func (i *Interpreter) execBlock(stmts []ast.Stmt, env *Environment) (execResult, *Error) {
	prev := i.env
	i.env = env
	defer func() { i.env = prev }()

	for _, stmt := range stmts {
		res, err := i.exec(stmt)
		if err != nil {
			return done, err
		}
		if res.sig == sigReturn {
			return res, nil
		}
	}
	return done, nil
}

// ---- expressions ----

func (i *Interpreter) eval(expr ast.Expr) (Value, *Error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return NumberVal(e.Value), nil
	case *ast.StringLiteral:
		return StringVal(e.Value), nil
	case *ast.BoolLiteral:
		return BoolVal(e.Value), nil
	case *ast.NilLiteral:
		return NilVal{}, nil
	case *ast.GroupingExpr:
		return i.eval(e.Inner)
	case *ast.UnaryExpr:
		return i.evalUnary(e)
	case *ast.BinaryExpr:
		return i.evalBinary(e)
	case *ast.LogicalExpr:
		return i.evalLogical(e)
	case *ast.VariableExpr:
		return i.evalVariable(e)
	case *ast.AssignExpr:
		return i.evalAssign(e)
	case *ast.CallExpr:
		return i.evalCall(e)
	default:
		return nil, i.errorAt("E4000", expr.GetSpan(), "unsupported expression %T", expr)
	}
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, *Error) {
	operand, err := i.eval(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.MINUS:
		n, ok := operand.(NumberVal)
		if !ok {
			return nil, i.errorAt("E4002", e.Span,
				"operand of '-' must be a number, got %s", operand.TypeName())
		}
		return -n, nil
	case token.BANG:
		return BoolVal(!IsTruthy(operand)), nil
	default:
		return nil, i.errorAt("E4000", e.Span, "unsupported unary operator %s", e.Op)
	}
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, *Error) {
	left, err := i.eval(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.eval(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.PLUS:
		// String concatenation wins when either side is a string; the other
		// side is rendered with its display form.
		_, ls := left.(StringVal)
		_, rs := right.(StringVal)
		if ls || rs {
			return StringVal(left.String() + right.String()), nil
		}
		ln, lok := left.(NumberVal)
		rn, rok := right.(NumberVal)
		if lok && rok {
			return ln + rn, nil
		}
		return nil, i.errorAt("E4002", e.Span,
			"operands of '+' must be numbers or strings, got %s and %s",
			left.TypeName(), right.TypeName())

	case token.MINUS, token.STAR, token.SLASH:
		ln, rn, nerr := i.numberOperands(e, left, right)
		if nerr != nil {
			return nil, nerr
		}
		switch e.Op {
		case token.MINUS:
			return ln - rn, nil
		case token.STAR:
			return ln * rn, nil
		default:
			// IEEE 754 semantics: x/0 is ±Inf, 0/0 is NaN.
			return ln / rn, nil
		}

	case token.GT, token.GTE, token.LT, token.LTE:
		ln, rn, nerr := i.numberOperands(e, left, right)
		if nerr != nil {
			return nil, nerr
		}
		switch e.Op {
		case token.GT:
			return BoolVal(ln > rn), nil
		case token.GTE:
			return BoolVal(ln >= rn), nil
		case token.LT:
			return BoolVal(ln < rn), nil
		default:
			return BoolVal(ln <= rn), nil
		}

	case token.EQ:
		return BoolVal(valuesEqual(left, right)), nil
	case token.NEQ:
		return BoolVal(!valuesEqual(left, right)), nil

	default:
		return nil, i.errorAt("E4000", e.Span, "unsupported binary operator %s", e.Op)
	}
}

func (i *Interpreter) numberOperands(e *ast.BinaryExpr, left, right Value) (NumberVal, NumberVal, *Error) {
	ln, lok := left.(NumberVal)
	rn, rok := right.(NumberVal)
	if !lok || !rok {
		return 0, 0, i.errorAt("E4002", e.Span,
			"operands of '%s' must be numbers, got %s and %s",
			e.Op, left.TypeName(), right.TypeName())
	}
	return ln, rn, nil
}

// evalLogical short-circuits and always yields a Bool of the result's
// truthiness.
func (i *Interpreter) evalLogical(e *ast.LogicalExpr) (Value, *Error) {
	left, err := i.eval(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op == token.KW_OR {
		if IsTruthy(left) {
			return BoolVal(true), nil
		}
	} else {
		if !IsTruthy(left) {
			return BoolVal(false), nil
		}
	}
	right, err := i.eval(e.Right)
	if err != nil {
		return nil, err
	}
	return BoolVal(IsTruthy(right)), nil
}

func (i *Interpreter) evalVariable(e *ast.VariableExpr) (Value, *Error) {
	if e.Resolved {
		if v, ok := i.env.GetAt(e.Distance, e.Name); ok {
			return v, nil
		}
	} else if v, ok := i.globals.Get(e.Name); ok {
		return v, nil
	}
	return nil, i.errorAt("E4001", e.Span, "undefined variable '%s'", e.Name)
}

func (i *Interpreter) evalAssign(e *ast.AssignExpr) (Value, *Error) {
	value, err := i.eval(e.Value)
	if err != nil {
		return nil, err
	}
	if e.Resolved {
		if i.env.SetAt(e.Distance, e.Name, value) {
			return value, nil
		}
	} else if i.globals.Set(e.Name, value) {
		return value, nil
	}
	return nil, i.errorAt("E4001", e.Span, "undefined variable '%s'", e.Name)
}

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, *Error) {
	callee, err := i.eval(e.Callee)
	if err != nil {
		return nil, err
	}

	switch fn := callee.(type) {
	case FuncVal:
		// Arity is checked against the argument count before any argument
		// is evaluated, so a mismatched call has no side effects.
		if len(e.Args) != fn.Arity() {
			return nil, i.errorAt("E4004", e.Span,
				"function '%s' expects %d arguments, got %d",
				fn.Decl.Name, fn.Arity(), len(e.Args))
		}
		args, err := i.evalArgs(e.Args)
		if err != nil {
			return nil, err
		}
		return i.callFunction(fn, args, e.Span)

	case BuiltinVal:
		if len(e.Args) != fn.Arity {
			return nil, i.errorAt("E4004", e.Span,
				"function '%s' expects %d arguments, got %d",
				fn.Name, fn.Arity, len(e.Args))
		}
		args, err := i.evalArgs(e.Args)
		if err != nil {
			return nil, err
		}
		result, callErr := fn.Fn(args)
		if callErr != nil {
			return nil, i.errorAt("E4006", e.Span, "%s: %s", fn.Name, callErr)
		}
		return result, nil

	default:
		return nil, i.errorAt("E4003", e.Span,
			"cannot call a value of type %s", callee.TypeName())
	}
}

func (i *Interpreter) evalArgs(exprs []ast.Expr) ([]Value, *Error) {
	args := make([]Value, len(exprs))
	for n, arg := range exprs {
		v, err := i.eval(arg)
		if err != nil {
			return nil, err
		}
		args[n] = v
	}
	return args, nil
}

// callFunction runs a user function body in a fresh scope enclosed by the
// function's closure, not by the caller's environment.
func (i *Interpreter) callFunction(fn FuncVal, args []Value, callSite span.Span) (Value, *Error) {
	if len(i.stack) >= maxCallDepth {
		return nil, i.errorAt("E4005", callSite,
			"stack overflow: call depth exceeds %d", maxCallDepth)
	}

	i.stack = append(i.stack, diag.Frame{
		Function: fn.Decl.Name,
		Line:     callSite.Start.Line,
	})
	defer func() { i.stack = i.stack[:len(i.stack)-1] }()

	env := NewEnvironment(fn.Closure)
	for n, param := range fn.Decl.Params {
		env.Define(param.Name, args[n])
	}

	res, err := i.execBlock(fn.Decl.Body.Stmts, env)
	if err != nil {
		return nil, err
	}
	if res.sig == sigReturn {
		return res.value, nil
	}
	return NilVal{}, nil
}
