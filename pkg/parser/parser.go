// Package parser implements a recursive-descent parser that turns a ToyC
// token stream into a pkg/ast.Unit. This is the external collaborator
// spec.md §1 calls out as out of scope for the core; it exists here so the
// repository compiles and runs end to end, and it produces exactly the AST
// shape pkg/ast and the semantic analyzer expect.
package parser

import (
	"fmt"

	"github.com/toyc/toycc/pkg/ast"
	"github.com/toyc/toycc/pkg/lexer"
)

// Parser consumes a token slice and builds an ast.Unit.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New creates a Parser over an already-tokenized input.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a full compilation unit: zero or more function definitions.
func (p *Parser) Parse() (*ast.Unit, error) {
	unit := &ast.Unit{}
	for !p.isAtEnd() {
		fn, err := p.parseFuncDef()
		if err != nil {
			return nil, err
		}
		unit.Funcs = append(unit.Funcs, *fn)
	}
	return unit, nil
}

func (p *Parser) parseFuncDef() (*ast.FuncDef, error) {
	retType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}

	var params []ast.Param
	if !p.check(lexer.RPAREN) {
		for {
			pt, err := p.parseType()
			if err != nil {
				return nil, err
			}
			pname, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			params = append(params, ast.Param{Type: pt, Name: pname})
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	if err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.FuncDef{ReturnType: retType, Name: name, Params: params, Body: body}, nil
}

func (p *Parser) parseType() (ast.Type, error) {
	switch {
	case p.match(lexer.KW_INT):
		return ast.Int, nil
	case p.match(lexer.KW_VOID):
		return ast.Void, nil
	default:
		return 0, p.errorf("expected type, got %s", p.current().Type)
	}
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	if err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	block := &ast.Block{}
	for !p.check(lexer.RBRACE) && !p.isAtEnd() {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, s)
	}
	if err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.check(lexer.LBRACE):
		return p.parseBlock()
	case p.match(lexer.SEMI):
		return ast.EmptyStmt{}, nil
	case p.check(lexer.KW_INT), p.check(lexer.KW_VOID):
		return p.parseVarDecl()
	case p.match(lexer.KW_IF):
		return p.parseIf()
	case p.match(lexer.KW_WHILE):
		return p.parseWhile()
	case p.match(lexer.KW_BREAK):
		if err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return ast.Break{}, nil
	case p.match(lexer.KW_CONTINUE):
		if err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return ast.Continue{}, nil
	case p.match(lexer.KW_RETURN):
		return p.parseReturn()
	default:
		return p.parseAssignOrExprStmt()
	}
}

func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.match(lexer.ASSIGN) {
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return ast.VarDecl{Type: typ, Name: name, Init: init}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	if err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var els ast.Stmt
	if p.match(lexer.KW_ELSE) { // dangling-else binds to the nearest `if`
		els, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return ast.If{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	if err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	if p.match(lexer.SEMI) {
		return ast.Return{}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return ast.Return{Expr: e}, nil
}

// parseAssignOrExprStmt disambiguates `name = expr;` from a bare
// expression-statement by looking one token ahead after an identifier.
func (p *Parser) parseAssignOrExprStmt() (ast.Stmt, error) {
	if p.check(lexer.IDENT) && p.peekType(1) == lexer.ASSIGN {
		name := p.current().Literal
		p.advance() // ident
		p.advance() // '='
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return ast.Assign{Name: name, Expr: e}, nil
	}

	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return ast.ExprStmt{Expr: e}, nil
}

// Precedence table, low to high: || , && , ==/!= , relational , +/- , */ /%,
// unary !/+/-, primaries and calls. See spec.md §6.
var binPrecedence = map[lexer.TokenType]int{
	lexer.OR_OR:   1,
	lexer.AND_AND: 2,
	lexer.EQ_EQ:   3,
	lexer.NOT_EQ:  3,
	lexer.LT:      4,
	lexer.LE:      4,
	lexer.GT:      4,
	lexer.GE:      4,
	lexer.PLUS:    5,
	lexer.MINUS:   5,
	lexer.STAR:    6,
	lexer.SLASH:   6,
	lexer.PERCENT: 6,
}

var binOps = map[lexer.TokenType]ast.BinOp{
	lexer.OR_OR:   ast.Or,
	lexer.AND_AND: ast.And,
	lexer.EQ_EQ:   ast.Eq,
	lexer.NOT_EQ:  ast.Ne,
	lexer.LT:      ast.Lt,
	lexer.LE:      ast.Le,
	lexer.GT:      ast.Gt,
	lexer.GE:      ast.Ge,
	lexer.PLUS:    ast.Add,
	lexer.MINUS:   ast.Sub,
	lexer.STAR:    ast.Mul,
	lexer.SLASH:   ast.Div,
	lexer.PERCENT: ast.Mod,
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		prec, ok := binPrecedence[p.current().Type]
		if !ok || prec < minPrec {
			return left, nil
		}
		op := binOps[p.current().Type]
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch {
	case p.match(lexer.BANG):
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.Not, Expr: e}, nil
	case p.match(lexer.MINUS):
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.Neg, Expr: e}, nil
	case p.match(lexer.PLUS):
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Op: ast.Pos, Expr: e}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.current()
	switch tok.Type {
	case lexer.INT:
		p.advance()
		n, err := parseInt32(tok.Literal)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q: %v", tok.Literal, err)
		}
		return ast.IntLit{Value: n}, nil
	case lexer.IDENT:
		p.advance()
		if p.match(lexer.LPAREN) {
			var args []ast.Expr
			if !p.check(lexer.RPAREN) {
				for {
					a, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if !p.match(lexer.COMMA) {
						break
					}
				}
			}
			if err := p.expect(lexer.RPAREN); err != nil {
				return nil, err
			}
			return ast.CallExpr{Name: tok.Literal, Args: args}, nil
		}
		return ast.Var{Name: tok.Literal}, nil
	case lexer.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errorf("unexpected token %s", tok.Type)
	}
}

func parseInt32(lit string) (int32, error) {
	var n int64
	for _, c := range lit {
		n = n*10 + int64(c-'0')
	}
	return int32(n), nil
}

// --- token stream helpers ---

func (p *Parser) current() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekType(n int) lexer.TokenType {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return lexer.EOF
	}
	return p.tokens[idx].Type
}

func (p *Parser) advance() {
	if !p.isAtEnd() {
		p.pos++
	}
}

func (p *Parser) isAtEnd() bool {
	return p.current().Type == lexer.EOF
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.current().Type == t
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(t lexer.TokenType) error {
	if p.check(t) {
		p.advance()
		return nil
	}
	return p.errorf("expected %s, got %s", t, p.current().Type)
}

func (p *Parser) expectIdent() (string, error) {
	if !p.check(lexer.IDENT) {
		return "", p.errorf("expected identifier, got %s", p.current().Type)
	}
	lit := p.current().Literal
	p.advance()
	return lit, nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	tok := p.current()
	detail := fmt.Sprintf(format, args...)
	return fmt.Errorf("syntax error at line %d, column %d: %s", tok.Line, tok.Column, detail)
}
