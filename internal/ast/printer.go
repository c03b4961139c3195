package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders a node back to canonical source form. Parsing the result
// again yields a structurally identical tree (spans aside), which is what
// the printer round-trip tests rely on.
func Print(node Node) string {
	var p printer
	p.node(node)
	return p.b.String()
}

type printer struct {
	b     strings.Builder
	depth int
}

func (p *printer) indent() {
	for i := 0; i < p.depth; i++ {
		p.b.WriteString("  ")
	}
}

func (p *printer) node(node Node) {
	switch n := node.(type) {
	case *File:
		for _, s := range n.Stmts {
			p.stmt(s)
		}
	case Stmt:
		p.stmt(n)
	case Expr:
		p.b.WriteString(p.expr(n))
	}
}

func (p *printer) stmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *ExprStmt:
		p.indent()
		p.b.WriteString(p.expr(s.Expr))
		p.b.WriteString(";\n")

	case *PrintStmt:
		p.indent()
		p.b.WriteString("print ")
		p.b.WriteString(p.expr(s.Expr))
		p.b.WriteString(";\n")

	case *VarDeclStmt:
		p.indent()
		p.b.WriteString("var ")
		p.b.WriteString(s.Name)
		if s.Init != nil {
			p.b.WriteString(" = ")
			p.b.WriteString(p.expr(s.Init))
		}
		p.b.WriteString(";\n")

	case *BlockStmt:
		p.indent()
		p.block(s)
		p.b.WriteString("\n")

	case *IfStmt:
		p.indent()
		p.b.WriteString("if (")
		p.b.WriteString(p.expr(s.Condition))
		p.b.WriteString(")")
		p.branch(s.Then)
		if s.Else != nil {
			p.b.WriteString(" else")
			p.branch(s.Else)
		}
		p.b.WriteString("\n")

	case *WhileStmt:
		p.indent()
		p.b.WriteString("while (")
		p.b.WriteString(p.expr(s.Condition))
		p.b.WriteString(")")
		p.branch(s.Body)
		p.b.WriteString("\n")

	case *FuncDecl:
		p.indent()
		p.b.WriteString("fun ")
		p.b.WriteString(s.Name)
		p.b.WriteString("(")
		for i, param := range s.Params {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.b.WriteString(param.Name)
		}
		p.b.WriteString(") ")
		p.block(s.Body)
		p.b.WriteString("\n")

	case *ReturnStmt:
		p.indent()
		p.b.WriteString("return")
		if s.Value != nil {
			p.b.WriteString(" ")
			p.b.WriteString(p.expr(s.Value))
		}
		p.b.WriteString(";\n")
	}
}

// branch prints a statement used as an if/while branch: blocks stay inline
// with the header, anything else goes on its own line.
func (p *printer) branch(stmt Stmt) {
	if block, ok := stmt.(*BlockStmt); ok {
		p.b.WriteString(" ")
		p.block(block)
		return
	}
	p.b.WriteString("\n")
	p.depth++
	p.stmt(stmt)
	p.depth--
	// Trim the trailing newline so the caller controls line endings.
	out := p.b.String()
	if strings.HasSuffix(out, "\n") {
		p.b.Reset()
		p.b.WriteString(strings.TrimSuffix(out, "\n"))
	}
}

func (p *printer) block(block *BlockStmt) {
	p.b.WriteString("{\n")
	p.depth++
	for _, s := range block.Stmts {
		p.stmt(s)
	}
	p.depth--
	p.indent()
	p.b.WriteString("}")
}

func (p *printer) expr(expr Expr) string {
	switch e := expr.(type) {
	case *NumberLiteral:
		return strconv.FormatFloat(e.Value, 'f', -1, 64)
	case *StringLiteral:
		return "\"" + e.Value + "\""
	case *BoolLiteral:
		return strconv.FormatBool(e.Value)
	case *NilLiteral:
		return "nil"
	case *GroupingExpr:
		return "(" + p.expr(e.Inner) + ")"
	case *UnaryExpr:
		return e.Op.String() + p.expr(e.Operand)
	case *BinaryExpr:
		return fmt.Sprintf("%s %s %s", p.expr(e.Left), e.Op, p.expr(e.Right))
	case *LogicalExpr:
		return fmt.Sprintf("%s %s %s", p.expr(e.Left), e.Op, p.expr(e.Right))
	case *VariableExpr:
		return e.Name
	case *AssignExpr:
		return e.Name + " = " + p.expr(e.Value)
	case *CallExpr:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = p.expr(arg)
		}
		return p.expr(e.Callee) + "(" + strings.Join(args, ", ") + ")"
	default:
		return "<?>"
	}
}
