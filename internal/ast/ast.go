// Package ast defines the abstract syntax tree for lox-lang.
//
// Every node kind is a closed variant: evaluation passes dispatch by type
// switch, so adding a pass (printer, resolver, interpreter) touches one file
// instead of every node. Variable and Assign nodes additionally carry a
// resolution annotation written once by the resolver and read by the
// interpreter; the tree is never structurally mutated after parsing.
package ast

import (
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// File (top-level AST root)
// ============================================================

// File represents the entire source file: an ordered list of statements.
type File struct {
	NodeBase
	Stmts []Stmt
}

// ============================================================
// Expressions
// ============================================================

// NumberLiteral represents a number literal.
type NumberLiteral struct {
	ExprBase
	Value float64
}

// StringLiteral represents a string literal.
type StringLiteral struct {
	ExprBase
	Value string
}

// BoolLiteral represents true or false.
type BoolLiteral struct {
	ExprBase
	Value bool
}

// NilLiteral represents nil.
type NilLiteral struct {
	ExprBase
}

// GroupingExpr represents a parenthesized expression: (expr).
type GroupingExpr struct {
	ExprBase
	Inner Expr
}

// UnaryExpr represents a unary operation: !x, -x.
type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// BinaryExpr represents a binary operation: a + b, x == y.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// LogicalExpr represents a short-circuiting logical operation: a and b,
// a or b. The right operand is only evaluated when the left does not decide
// the result.
type LogicalExpr struct {
	ExprBase
	Op    token.Kind // KW_AND or KW_OR
	Left  Expr
	Right Expr
}

// VariableExpr represents a variable reference.
type VariableExpr struct {
	ExprBase
	Name string

	// Resolution annotation: number of enclosing-scope hops to the
	// declaring environment. Resolved == false means the name binds in
	// the global environment at runtime.
	Distance int
	Resolved bool
}

// AssignExpr represents an assignment: name = value. Assignment is an
// expression and yields the assigned value.
type AssignExpr struct {
	ExprBase
	Name  string
	Value Expr

	// Resolution annotation, same meaning as on VariableExpr.
	Distance int
	Resolved bool
}

// CallExpr represents a function call: callee(args). The node span's start
// line is used as the call-site line in runtime stack traces.
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// PrintStmt represents a print statement: print expr;.
type PrintStmt struct {
	StmtBase
	Expr Expr
}

// VarDeclStmt represents a variable declaration: var name [= expr];.
type VarDeclStmt struct {
	StmtBase
	Name     string
	NameSpan span.Span
	Init     Expr // may be nil; the name then binds to nil
}

// BlockStmt represents a block of statements: { ... }. A block owns a fresh
// lexical scope.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt represents an if statement with an optional else branch.
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      Stmt
	Else      Stmt // may be nil
}

// WhileStmt represents a while loop. The parser also produces WhileStmt for
// C-style for loops, desugared into a block around a while.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      Stmt
}

// FuncDecl represents a function declaration: fun name(params) { ... }.
// The declared function captures the environment active at its declaration.
type FuncDecl struct {
	StmtBase
	Name   string
	Params []Param
	Body   *BlockStmt
}

// Param is a single function parameter.
type Param struct {
	Name string
	Span span.Span
}

// ReturnStmt represents a return statement with an optional value.
type ReturnStmt struct {
	StmtBase
	Value Expr // may be nil; the call then yields nil
}
