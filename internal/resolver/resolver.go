// Package resolver performs static scope resolution over a parsed AST.
//
// The resolver walks every scope the interpreter will create and annotates
// each variable reference and assignment with the number of scope hops to
// its declaration. References it cannot find in any lexical scope are left
// unannotated and bind in the global environment at runtime: globals may be
// declared after use, so the resolver never tracks the global scope.
//
// Along the way it reports scoping mistakes: reading a variable in its own
// initializer, declaring the same local twice, returning outside a function,
// and (as a warning) locals that are never read.
package resolver

import (
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/span"
)

// varInfo tracks one local binding during resolution.
type varInfo struct {
	span    span.Span
	defined bool // initializer finished; reading before this is an error
	read    bool
	isParam bool
}

// Resolver annotates an AST with resolution distances and collects scoping
// diagnostics.
type Resolver struct {
	scopes    []map[string]*varInfo // innermost last; empty means global scope
	funcDepth int                   // nesting level of function bodies

	diags []diag.Diagnostic
}

// New creates a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve walks the file and returns all diagnostics. The tree is annotated
// in place; on error diagnostics the annotations must not be trusted.
func Resolve(file *ast.File) []diag.Diagnostic {
	r := New()
	for _, stmt := range file.Stmts {
		r.stmt(stmt)
	}
	return r.diags
}

// ---- scope management ----

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(map[string]*varInfo))
}

// endScope pops the innermost scope, warning about locals that were never
// read. Parameters are exempt: an unused parameter is a common and harmless
// part of matching a call shape.
func (r *Resolver) endScope() {
	scope := r.scopes[len(r.scopes)-1]
	r.scopes = r.scopes[:len(r.scopes)-1]
	for name, info := range scope {
		if !info.read && !info.isParam {
			r.diags = append(r.diags, diag.Warningf("W3004", diag.Resolve, info.span,
				"local variable '%s' is never used", name))
		}
	}
}

// declare introduces name in the innermost scope, not yet defined. In the
// global scope this is a no-op.
func (r *Resolver) declare(name string, s span.Span, isParam bool) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, exists := scope[name]; exists {
		r.diags = append(r.diags, diag.Errorf("E3002", diag.Resolve, s,
			"variable '%s' is already declared in this scope", name))
		return
	}
	scope[name] = &varInfo{span: s, isParam: isParam}
}

// define marks name as fully initialized in the innermost scope.
func (r *Resolver) define(name string) {
	if len(r.scopes) == 0 {
		return
	}
	if info, ok := r.scopes[len(r.scopes)-1][name]; ok {
		info.defined = true
	}
}

// lookup finds name in the lexical scopes, innermost first, returning the
// hop distance. ok is false when the name is not a local; it then binds in
// the global environment at runtime.
func (r *Resolver) lookup(name string) (info *varInfo, distance int, ok bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if info, found := r.scopes[i][name]; found {
			return info, len(r.scopes) - 1 - i, true
		}
	}
	return nil, 0, false
}

// ---- statements ----

func (r *Resolver) stmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		r.expr(s.Expr)

	case *ast.PrintStmt:
		r.expr(s.Expr)

	case *ast.VarDeclStmt:
		// Declare before resolving the initializer so "var a = a;" is caught
		// as a read of the half-declared binding.
		r.declare(s.Name, s.NameSpan, false)
		if s.Init != nil {
			r.expr(s.Init)
		}
		r.define(s.Name)

	case *ast.BlockStmt:
		r.beginScope()
		for _, inner := range s.Stmts {
			r.stmt(inner)
		}
		r.endScope()

	case *ast.IfStmt:
		r.expr(s.Condition)
		r.stmt(s.Then)
		if s.Else != nil {
			r.stmt(s.Else)
		}

	case *ast.WhileStmt:
		r.expr(s.Condition)
		r.stmt(s.Body)

	case *ast.FuncDecl:
		// The name is defined before the body resolves, so the function can
		// call itself.
		r.declare(s.Name, s.Span, false)
		r.define(s.Name)
		r.function(s)

	case *ast.ReturnStmt:
		if r.funcDepth == 0 {
			r.diags = append(r.diags, diag.Errorf("E3003", diag.Resolve, s.Span,
				"'return' outside of a function"))
		}
		if s.Value != nil {
			r.expr(s.Value)
		}
	}
}

// function resolves a function body. Parameters and body statements share a
// single scope, matching the environment the interpreter builds for a call.
func (r *Resolver) function(decl *ast.FuncDecl) {
	r.funcDepth++
	r.beginScope()
	for _, param := range decl.Params {
		r.declare(param.Name, param.Span, true)
		r.define(param.Name)
	}
	for _, stmt := range decl.Body.Stmts {
		r.stmt(stmt)
	}
	r.endScope()
	r.funcDepth--
}

// ---- expressions ----

func (r *Resolver) expr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.GroupingExpr:
		r.expr(e.Inner)
	case *ast.UnaryExpr:
		r.expr(e.Operand)
	case *ast.BinaryExpr:
		r.expr(e.Left)
		r.expr(e.Right)
	case *ast.LogicalExpr:
		r.expr(e.Left)
		r.expr(e.Right)
	case *ast.VariableExpr:
		r.variable(e)
	case *ast.AssignExpr:
		r.expr(e.Value)
		r.assign(e)
	case *ast.CallExpr:
		r.expr(e.Callee)
		for _, arg := range e.Args {
			r.expr(arg)
		}
	}
	// Literals resolve to themselves.
}

func (r *Resolver) variable(e *ast.VariableExpr) {
	info, distance, ok := r.lookup(e.Name)
	if !ok {
		return // global reference, bound at runtime
	}
	if !info.defined {
		r.diags = append(r.diags, diag.Errorf("E3001", diag.Resolve, e.Span,
			"cannot read variable '%s' in its own initializer", e.Name))
		return
	}
	info.read = true
	e.Distance = distance
	e.Resolved = true
}

// assign annotates an assignment target. Assigning is not reading, so the
// unused-variable tracking is untouched.
func (r *Resolver) assign(e *ast.AssignExpr) {
	if _, distance, ok := r.lookup(e.Name); ok {
		e.Distance = distance
		e.Resolved = true
	}
}
