// Package parser implements the recursive-descent parser for lox-lang.
//
// The parser accumulates diagnostics rather than stopping at the first
// error: after a syntax error it synchronizes to the next statement boundary
// and keeps going, so one pass reports every independent problem.
package parser

import (
	"errors"
	"strconv"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// maxCallArgs is the upper bound on call arguments. Exceeding it is reported
// but does not abort the parse.
const maxCallArgs = 255

// errParse signals that a diagnostic has already been recorded and the
// current statement should be abandoned.
var errParse = errors.New("parse error")

// Parser parses a token stream into an AST.
type Parser struct {
	tokens   []token.Token
	pos      int
	filename string

	diags []diag.Diagnostic
}

// New creates a Parser over a token slice. The slice must end with an EOF
// token, as produced by the lexer.
func New(tokens []token.Token, filename string) *Parser {
	return &Parser{tokens: tokens, filename: filename}
}

// ParseSource is a convenience that scans and parses source in one step.
// Lexical errors suppress parsing: a broken token stream would only produce
// cascading parse noise.
func ParseSource(source, filename string) (*ast.File, []diag.Diagnostic) {
	tokens, diags := lexer.New(source, filename).Tokenize()
	if diag.HasErrors(diags) {
		return nil, diags
	}
	file, parseDiags := New(tokens, filename).ParseFile()
	return file, append(diags, parseDiags...)
}

// ParseFile parses the whole token stream into a File. The returned tree
// covers every statement that parsed cleanly; diagnostics cover the rest.
func (p *Parser) ParseFile() (*ast.File, []diag.Diagnostic) {
	start := p.peek().Span.Start
	var stmts []ast.Stmt
	for !p.atEnd() {
		stmt, err := p.declaration()
		if err != nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	file := &ast.File{Stmts: stmts}
	file.Span = span.Span{Start: start, End: p.peek().Span.End}
	return file, p.diags
}

// ---- token stream helpers ----

func (p *Parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.pos-1]
}

func (p *Parser) atEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peek().Kind == kind
}

// match consumes the next token when it is one of the given kinds.
func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of the given kind or records a diagnostic and
// returns errParse.
func (p *Parser) expect(kind token.Kind, msg string) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAt(p.peek(), "E2001", "%s, found %q", msg, p.describe(p.peek()))
}

// describe renders a token for error messages.
func (p *Parser) describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of input"
	}
	return tok.Lexeme
}

// errorAt records a parse diagnostic and returns errParse.
func (p *Parser) errorAt(tok token.Token, code, format string, args ...interface{}) error {
	p.diags = append(p.diags, diag.Errorf(code, diag.Parse, tok.Span, format, args...))
	return errParse
}

// synchronize discards tokens until a likely statement boundary: just past a
// semicolon, or just before a keyword that starts a statement. It always
// consumes at least one token so recovery makes progress.
func (p *Parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}
		switch p.peek().Kind {
		case token.KW_CLASS, token.KW_FUN, token.KW_VAR, token.KW_FOR,
			token.KW_IF, token.KW_WHILE, token.KW_PRINT, token.KW_RETURN:
			return
		}
		p.advance()
	}
}

// makeSpan builds a span from start to the end of the previously consumed
// token.
func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.previous().Span.End}
}

// ---- declarations and statements ----

func (p *Parser) declaration() (ast.Stmt, error) {
	switch {
	case p.match(token.KW_VAR):
		return p.varDecl()
	case p.match(token.KW_FUN):
		return p.funDecl()
	default:
		return p.statement()
	}
}

func (p *Parser) varDecl() (ast.Stmt, error) {
	start := p.previous().Span.Start

	name, err := p.expect(token.IDENT, "expected variable name after 'var'")
	if err != nil {
		return nil, err
	}

	var init ast.Expr
	if p.match(token.ASSIGN) {
		init, err = p.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(token.SEMICOLON, "expected ';' after variable declaration"); err != nil {
		return nil, err
	}

	stmt := &ast.VarDeclStmt{Name: name.Lexeme, NameSpan: name.Span, Init: init}
	stmt.Span = p.makeSpan(start)
	return stmt, nil
}

func (p *Parser) funDecl() (ast.Stmt, error) {
	start := p.previous().Span.Start

	name, err := p.expect(token.IDENT, "expected function name after 'fun'")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LPAREN, "expected '(' after function name"); err != nil {
		return nil, err
	}

	var params []ast.Param
	if !p.check(token.RPAREN) {
		for {
			if len(params) >= maxCallArgs {
				p.diags = append(p.diags, diag.Errorf("E2004", diag.Parse, p.peek().Span,
					"function cannot have more than %d parameters", maxCallArgs))
			}
			param, err := p.expect(token.IDENT, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, ast.Param{Name: param.Lexeme, Span: param.Span})
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(token.RPAREN, "expected ')' after parameters"); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LBRACE, "expected '{' before function body"); err != nil {
		return nil, err
	}
	body, err := p.blockBody(p.previous().Span.Start)
	if err != nil {
		return nil, err
	}

	stmt := &ast.FuncDecl{Name: name.Lexeme, Params: params, Body: body}
	stmt.Span = p.makeSpan(start)
	return stmt, nil
}

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.match(token.KW_PRINT):
		return p.printStmt()
	case p.match(token.LBRACE):
		return p.blockBody(p.previous().Span.Start)
	case p.match(token.KW_IF):
		return p.ifStmt()
	case p.match(token.KW_WHILE):
		return p.whileStmt()
	case p.match(token.KW_FOR):
		return p.forStmt()
	case p.match(token.KW_RETURN):
		return p.returnStmt()
	default:
		return p.exprStmt()
	}
}

func (p *Parser) printStmt() (ast.Stmt, error) {
	start := p.previous().Span.Start
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "expected ';' after print value"); err != nil {
		return nil, err
	}
	stmt := &ast.PrintStmt{Expr: expr}
	stmt.Span = p.makeSpan(start)
	return stmt, nil
}

// blockBody parses the statements of a block whose '{' is already consumed.
func (p *Parser) blockBody(start span.Position) (*ast.BlockStmt, error) {
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.atEnd() {
		stmt, err := p.declaration()
		if err != nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(token.RBRACE, "expected '}' after block"); err != nil {
		return nil, err
	}
	block := &ast.BlockStmt{Stmts: stmts}
	block.Span = p.makeSpan(start)
	return block, nil
}

func (p *Parser) ifStmt() (ast.Stmt, error) {
	start := p.previous().Span.Start

	if _, err := p.expect(token.LPAREN, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "expected ')' after if condition"); err != nil {
		return nil, err
	}

	then, err := p.statement()
	if err != nil {
		return nil, err
	}

	var elseStmt ast.Stmt
	if p.match(token.KW_ELSE) {
		elseStmt, err = p.statement()
		if err != nil {
			return nil, err
		}
	}

	stmt := &ast.IfStmt{Condition: cond, Then: then, Else: elseStmt}
	stmt.Span = p.makeSpan(start)
	return stmt, nil
}

func (p *Parser) whileStmt() (ast.Stmt, error) {
	start := p.previous().Span.Start

	if _, err := p.expect(token.LPAREN, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "expected ')' after while condition"); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	stmt := &ast.WhileStmt{Condition: cond, Body: body}
	stmt.Span = p.makeSpan(start)
	return stmt, nil
}

// forStmt desugars a C-style for loop into a while loop:
//
//	for (init; cond; incr) body
//
// becomes
//
//	{ init; while (cond) { body; incr; } }
func (p *Parser) forStmt() (ast.Stmt, error) {
	start := p.previous().Span.Start

	if _, err := p.expect(token.LPAREN, "expected '(' after 'for'"); err != nil {
		return nil, err
	}

	var init ast.Stmt
	var err error
	switch {
	case p.match(token.SEMICOLON):
		// no initializer
	case p.match(token.KW_VAR):
		init, err = p.varDecl()
		if err != nil {
			return nil, err
		}
	default:
		init, err = p.exprStmt()
		if err != nil {
			return nil, err
		}
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		cond, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON, "expected ';' after for condition"); err != nil {
		return nil, err
	}

	var incr ast.Expr
	if !p.check(token.RPAREN) {
		incr, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN, "expected ')' after for clauses"); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	full := p.makeSpan(start)

	if incr != nil {
		incrStmt := &ast.ExprStmt{Expr: incr}
		incrStmt.Span = incr.GetSpan()
		block := &ast.BlockStmt{Stmts: []ast.Stmt{body, incrStmt}}
		block.Span = full
		body = block
	}

	if cond == nil {
		lit := &ast.BoolLiteral{Value: true}
		lit.Span = full
		cond = lit
	}

	var loop ast.Stmt = &ast.WhileStmt{Condition: cond, Body: body}
	loop.(*ast.WhileStmt).Span = full

	if init != nil {
		block := &ast.BlockStmt{Stmts: []ast.Stmt{init, loop}}
		block.Span = full
		loop = block
	}
	return loop, nil
}

func (p *Parser) returnStmt() (ast.Stmt, error) {
	start := p.previous().Span.Start

	var value ast.Expr
	var err error
	if !p.check(token.SEMICOLON) {
		value, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON, "expected ';' after return"); err != nil {
		return nil, err
	}

	stmt := &ast.ReturnStmt{Value: value}
	stmt.Span = p.makeSpan(start)
	return stmt, nil
}

func (p *Parser) exprStmt() (ast.Stmt, error) {
	start := p.peek().Span.Start
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "expected ';' after expression"); err != nil {
		return nil, err
	}
	stmt := &ast.ExprStmt{Expr: expr}
	stmt.Span = p.makeSpan(start)
	return stmt, nil
}

// ---- expressions, lowest to highest precedence ----

func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

// assignment parses right-associative assignment. The left side is parsed as
// a general expression first and then checked to be a valid target.
func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.logicOr()
	if err != nil {
		return nil, err
	}

	if p.match(token.ASSIGN) {
		eq := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}

		target, ok := expr.(*ast.VariableExpr)
		if !ok {
			return nil, p.errorAt(eq, "E2003", "invalid assignment target")
		}

		assign := &ast.AssignExpr{Name: target.Name, Value: value}
		assign.Span = span.Span{Start: expr.GetSpan().Start, End: value.GetSpan().End}
		return assign, nil
	}
	return expr, nil
}

func (p *Parser) logicOr() (ast.Expr, error) {
	expr, err := p.logicAnd()
	if err != nil {
		return nil, err
	}
	for p.match(token.KW_OR) {
		right, err := p.logicAnd()
		if err != nil {
			return nil, err
		}
		logical := &ast.LogicalExpr{Op: token.KW_OR, Left: expr, Right: right}
		logical.Span = span.Span{Start: expr.GetSpan().Start, End: right.GetSpan().End}
		expr = logical
	}
	return expr, nil
}

func (p *Parser) logicAnd() (ast.Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(token.KW_AND) {
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		logical := &ast.LogicalExpr{Op: token.KW_AND, Left: expr, Right: right}
		logical.Span = span.Span{Start: expr.GetSpan().Start, End: right.GetSpan().End}
		expr = logical
	}
	return expr, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	return p.binaryLevel(p.comparison, token.EQ, token.NEQ)
}

func (p *Parser) comparison() (ast.Expr, error) {
	return p.binaryLevel(p.term, token.GT, token.GTE, token.LT, token.LTE)
}

func (p *Parser) term() (ast.Expr, error) {
	return p.binaryLevel(p.factor, token.PLUS, token.MINUS)
}

func (p *Parser) factor() (ast.Expr, error) {
	return p.binaryLevel(p.unary, token.STAR, token.SLASH)
}

// binaryLevel parses one left-associative binary precedence level.
func (p *Parser) binaryLevel(next func() (ast.Expr, error), ops ...token.Kind) (ast.Expr, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for p.match(ops...) {
		op := p.previous().Kind
		right, err := next()
		if err != nil {
			return nil, err
		}
		bin := &ast.BinaryExpr{Op: op, Left: expr, Right: right}
		bin.Span = span.Span{Start: expr.GetSpan().Start, End: right.GetSpan().End}
		expr = bin
	}
	return expr, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(token.BANG, token.MINUS) {
		op := p.previous()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		expr := &ast.UnaryExpr{Op: op.Kind, Operand: operand}
		expr.Span = span.Span{Start: op.Span.Start, End: operand.GetSpan().End}
		return expr, nil
	}
	return p.call()
}

// call parses a primary expression followed by any number of call suffixes,
// so f(1)(2) chains.
func (p *Parser) call() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.match(token.LPAREN) {
		expr, err = p.finishCall(expr)
		if err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			if len(args) >= maxCallArgs {
				p.diags = append(p.diags, diag.Errorf("E2004", diag.Parse, p.peek().Span,
					"call cannot have more than %d arguments", maxCallArgs))
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	rparen, err := p.expect(token.RPAREN, "expected ')' after arguments")
	if err != nil {
		return nil, err
	}

	call := &ast.CallExpr{Callee: callee, Args: args}
	call.Span = span.Span{Start: callee.GetSpan().Start, End: rparen.Span.End}
	return call, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		value, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorAt(tok, "E2005", "invalid number literal %q", tok.Lexeme)
		}
		expr := &ast.NumberLiteral{Value: value}
		expr.Span = tok.Span
		return expr, nil

	case token.STRING:
		p.advance()
		expr := &ast.StringLiteral{Value: tok.Lexeme}
		expr.Span = tok.Span
		return expr, nil

	case token.KW_TRUE, token.KW_FALSE:
		p.advance()
		expr := &ast.BoolLiteral{Value: tok.Kind == token.KW_TRUE}
		expr.Span = tok.Span
		return expr, nil

	case token.KW_NIL:
		p.advance()
		expr := &ast.NilLiteral{}
		expr.Span = tok.Span
		return expr, nil

	case token.IDENT:
		p.advance()
		expr := &ast.VariableExpr{Name: tok.Lexeme}
		expr.Span = tok.Span
		return expr, nil

	case token.LPAREN:
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		rparen, err := p.expect(token.RPAREN, "expected ')' after expression")
		if err != nil {
			return nil, err
		}
		expr := &ast.GroupingExpr{Inner: inner}
		expr.Span = span.Span{Start: tok.Span.Start, End: rparen.Span.End}
		return expr, nil

	default:
		return nil, p.errorAt(tok, "E2002", "expected expression, found %q", p.describe(tok))
	}
}
