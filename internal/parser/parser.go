// Package parser builds an ast.Node tree from a lexer.Token stream. Like the
// lexer, it is an external collaborator (spec.md §1): it only has to
// populate the AST or report syntax errors, one function per grammar
// production, one token of lookahead.
package parser

import (
	"github.com/brunoczim/compiler-course/internal/ast"
	"github.com/brunoczim/compiler-course/internal/diag"
	"github.com/brunoczim/compiler-course/internal/lexer"
	"github.com/brunoczim/compiler-course/internal/types"
)

// Parser holds the token stream and a cursor into it.
type Parser struct {
	toks   []lexer.Token
	pos    int
	errors *diag.Errors
}

// New creates a Parser over toks, reporting syntax errors into errs.
func New(toks []lexer.Token, errs *diag.Errors) *Parser {
	return &Parser{toks: toks, errors: errs}
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) atEnd() bool       { return p.cur().Kind == lexer.EOF }
func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if !p.atEnd() {
		p.pos++
	}
	return t
}

func (p *Parser) check(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) match(k lexer.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k lexer.Kind, what string) lexer.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errors.Add(p.cur().Line, "expected %s but found %q", what, p.cur().Text)
	return p.cur()
}

func isTypeKeyword(k lexer.Kind) bool {
	return k == lexer.KwCara || k == lexer.KwInte || k == lexer.KwReal
}

func baseOf(k lexer.Kind) types.Base {
	switch k {
	case lexer.KwCara:
		return types.Cara
	case lexer.KwReal:
		return types.Real
	default:
		return types.Inte
	}
}

// ParseProgram parses the whole translation unit.
func (p *Parser) ParseProgram() *ast.Node {
	prog := &ast.Node{Kind: ast.Program, Line: 1}
	for !p.atEnd() {
		decl := p.parseTopDecl()
		if decl != nil {
			prog.Nodes = append(prog.Nodes, decl)
		}
	}
	return prog
}

func (p *Parser) parseTopDecl() *ast.Node {
	if !isTypeKeyword(p.cur().Kind) {
		p.errors.Add(p.cur().Line, "expected a declaration but found %q", p.cur().Text)
		p.advance()
		return nil
	}
	line := p.cur().Line
	base := baseOf(p.advance().Kind)
	name := p.expect(lexer.Ident, "identifier").Text

	if p.check(lexer.LParen) {
		return p.parseFuncDecl(line, base, name)
	}
	return p.parseVarDecl(line, base, name)
}

func (p *Parser) parseFuncDecl(line int, ret types.Base, name string) *ast.Node {
	p.expect(lexer.LParen, "(")
	fn := &ast.Node{Kind: ast.FuncDecl, Line: line, Name: name, Type: ret}
	for !p.check(lexer.RParen) && !p.atEnd() {
		if !isTypeKeyword(p.cur().Kind) {
			p.errors.Add(p.cur().Line, "expected a parameter type but found %q", p.cur().Text)
			break
		}
		pline := p.cur().Line
		pbase := baseOf(p.advance().Kind)
		pname := p.expect(lexer.Ident, "identifier").Text
		param := &ast.Node{Kind: ast.Param, Line: pline, Name: pname, Type: pbase}
		if p.match(lexer.LBracket) {
			param.IsVector = true
			p.expect(lexer.RBracket, "]")
		}
		fn.Nodes = append(fn.Nodes, param)
		if !p.match(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RParen, ")")
	fn.Body = p.parseBlock()
	return fn
}

// parseVarDecl parses a global scalar or vector declaration. The source
// language has no block-local declarations (original_source/src/ast.h's
// ast_statement_tag has no decl variant) — only assignment to an
// already-declared name is a statement.
func (p *Parser) parseVarDecl(line int, base types.Base, name string) *ast.Node {
	if p.match(lexer.LBracket) {
		lenTok := p.expect(lexer.IntLit, "a vector length")
		p.expect(lexer.RBracket, "]")
		decl := &ast.Node{Kind: ast.VectorDecl, Line: line, Name: name, Type: base, IsVector: true, Length: int(lenTok.IntValue)}
		if p.match(lexer.Assign) {
			p.expect(lexer.LBrace, "{")
			for !p.check(lexer.RBrace) && !p.atEnd() {
				decl.Nodes = append(decl.Nodes, p.parseExpr())
				if !p.match(lexer.Comma) {
					break
				}
			}
			p.expect(lexer.RBrace, "}")
		}
		p.expect(lexer.Semicolon, ";")
		return decl
	}
	decl := &ast.Node{Kind: ast.ScalarDecl, Line: line, Name: name, Type: base}
	if p.match(lexer.Assign) {
		decl.X = p.parseExpr()
	}
	p.expect(lexer.Semicolon, ";")
	return decl
}

func (p *Parser) parseBlock() *ast.Node {
	line := p.cur().Line
	p.expect(lexer.LBrace, "{")
	block := &ast.Node{Kind: ast.Block, Line: line}
	for !p.check(lexer.RBrace) && !p.atEnd() {
		block.Nodes = append(block.Nodes, p.parseStmt())
	}
	p.expect(lexer.RBrace, "}")
	return block
}

func (p *Parser) parseStmt() *ast.Node {
	switch {
	case p.check(lexer.LBrace):
		return p.parseBlock()
	case p.check(lexer.KwSe):
		return p.parseIf()
	case p.check(lexer.KwEnquanto):
		return p.parseWhile()
	case p.check(lexer.KwRetorne):
		return p.parseReturn()
	case p.check(lexer.KwEscreva):
		return p.parseEscreva()
	case p.check(lexer.Ident):
		return p.parseAssignOrExprStmt()
	default:
		line := p.cur().Line
		expr := p.parseExpr()
		p.expect(lexer.Semicolon, ";")
		return &ast.Node{Kind: ast.ExprStmt, Line: line, X: expr}
	}
}

func (p *Parser) parseIf() *ast.Node {
	line := p.advance().Line // 'se'
	p.expect(lexer.LParen, "(")
	cond := p.parseExpr()
	p.expect(lexer.RParen, ")")
	then := p.parseBlock()
	node := &ast.Node{Kind: ast.If, Line: line, X: cond, Body: then}
	if p.match(lexer.KwSenaum) {
		if p.check(lexer.KwSe) {
			node.Else = p.parseIf()
		} else {
			node.Else = p.parseBlock()
		}
	}
	return node
}

func (p *Parser) parseWhile() *ast.Node {
	line := p.advance().Line // 'enquanto'
	p.expect(lexer.LParen, "(")
	cond := p.parseExpr()
	p.expect(lexer.RParen, ")")
	body := p.parseBlock()
	return &ast.Node{Kind: ast.While, Line: line, X: cond, Body: body}
}

func (p *Parser) parseReturn() *ast.Node {
	line := p.advance().Line // 'retorne'
	node := &ast.Node{Kind: ast.Return, Line: line}
	if !p.check(lexer.Semicolon) {
		node.X = p.parseExpr()
	}
	p.expect(lexer.Semicolon, ";")
	return node
}

func (p *Parser) parseEscreva() *ast.Node {
	line := p.advance().Line // 'escreva'
	node := &ast.Node{Kind: ast.Escreva, Line: line}
	node.Nodes = append(node.Nodes, p.parseExpr())
	for p.match(lexer.Comma) {
		node.Nodes = append(node.Nodes, p.parseExpr())
	}
	p.expect(lexer.Semicolon, ";")
	return node
}

// parseAssignOrExprStmt disambiguates `ident = expr;`, `ident[expr] = expr;`
// and a bare call expression statement, all of which start with an Ident.
func (p *Parser) parseAssignOrExprStmt() *ast.Node {
	line := p.cur().Line
	name := p.advance().Text
	if p.match(lexer.LBracket) {
		idx := p.parseExpr()
		p.expect(lexer.RBracket, "]")
		p.expect(lexer.Assign, "=")
		rhs := p.parseExpr()
		p.expect(lexer.Semicolon, ";")
		base := &ast.Node{Kind: ast.Ident, Line: line, Name: name}
		return &ast.Node{Kind: ast.IndexAssign, Line: line, X: base, Y: idx, Body: rhs}
	}
	if p.match(lexer.Assign) {
		rhs := p.parseExpr()
		p.expect(lexer.Semicolon, ";")
		return &ast.Node{Kind: ast.Assign, Line: line, Name: name, X: rhs}
	}
	// Not an assignment: re-parse as a primary-led expression statement.
	p.pos--
	expr := p.parseExpr()
	p.expect(lexer.Semicolon, ";")
	return &ast.Node{Kind: ast.ExprStmt, Line: line, X: expr}
}

// === Expressions, by precedence (lowest to highest) ===

func (p *Parser) parseExpr() *ast.Node { return p.parseOr() }

func (p *Parser) parseOr() *ast.Node {
	left := p.parseAnd()
	for p.check(lexer.OrOr) {
		line := p.cur().Line
		op := p.advance().Text
		right := p.parseAnd()
		left = &ast.Node{Kind: ast.Binary, Line: line, Name: op, X: left, Y: right}
	}
	return left
}

func (p *Parser) parseAnd() *ast.Node {
	left := p.parseEquality()
	for p.check(lexer.AndAnd) {
		line := p.cur().Line
		op := p.advance().Text
		right := p.parseEquality()
		left = &ast.Node{Kind: ast.Binary, Line: line, Name: op, X: left, Y: right}
	}
	return left
}

func (p *Parser) parseEquality() *ast.Node {
	left := p.parseRelational()
	for p.check(lexer.Eq) || p.check(lexer.Neq) {
		line := p.cur().Line
		op := p.advance().Text
		right := p.parseRelational()
		left = &ast.Node{Kind: ast.Binary, Line: line, Name: op, X: left, Y: right}
	}
	return left
}

func (p *Parser) parseRelational() *ast.Node {
	left := p.parseAdditive()
	for p.check(lexer.Lt) || p.check(lexer.Leq) || p.check(lexer.Gt) || p.check(lexer.Geq) {
		line := p.cur().Line
		op := p.advance().Text
		right := p.parseAdditive()
		left = &ast.Node{Kind: ast.Binary, Line: line, Name: op, X: left, Y: right}
	}
	return left
}

func (p *Parser) parseAdditive() *ast.Node {
	left := p.parseMultiplicative()
	for p.check(lexer.Plus) || p.check(lexer.Minus) {
		line := p.cur().Line
		op := p.advance().Text
		right := p.parseMultiplicative()
		left = &ast.Node{Kind: ast.Binary, Line: line, Name: op, X: left, Y: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() *ast.Node {
	left := p.parseUnary()
	for p.check(lexer.Star) || p.check(lexer.Slash) {
		line := p.cur().Line
		op := p.advance().Text
		right := p.parseUnary()
		left = &ast.Node{Kind: ast.Binary, Line: line, Name: op, X: left, Y: right}
	}
	return left
}

// parseUnary handles only `!` — the source language's one unary operator
// (original_source/src/ast.h ast_unary_operator is AST_NOT alone; unary
// minus does not exist, matching the absence of a TAC "neg" opcode).
func (p *Parser) parseUnary() *ast.Node {
	if p.check(lexer.Bang) {
		line := p.cur().Line
		op := p.advance().Text
		operand := p.parseUnary()
		return &ast.Node{Kind: ast.Unary, Line: line, Name: op, X: operand}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *ast.Node {
	expr := p.parsePrimary()
	for p.check(lexer.LBracket) {
		line := p.advance().Line
		idx := p.parseExpr()
		p.expect(lexer.RBracket, "]")
		expr = &ast.Node{Kind: ast.Index, Line: line, X: expr, Y: idx}
	}
	return expr
}

func (p *Parser) parsePrimary() *ast.Node {
	tok := p.cur()
	switch tok.Kind {
	case lexer.IntLit:
		p.advance()
		return &ast.Node{Kind: ast.IntLit, Line: tok.Line, Name: tok.Text}
	case lexer.CharLit:
		p.advance()
		return &ast.Node{Kind: ast.CharLit, Line: tok.Line, Name: string(tok.CharValue)}
	case lexer.FloatLit:
		p.advance()
		return &ast.Node{Kind: ast.FloatLit, Line: tok.Line, Name: tok.Text}
	case lexer.StringLit:
		p.advance()
		return &ast.Node{Kind: ast.StringLit, Line: tok.Line, Name: string(tok.StrValue)}
	case lexer.KwEntrada:
		p.advance()
		return &ast.Node{Kind: ast.Entrada, Line: tok.Line}
	case lexer.Ident:
		p.advance()
		if p.match(lexer.LParen) {
			call := &ast.Node{Kind: ast.Call, Line: tok.Line, Name: tok.Text}
			for !p.check(lexer.RParen) && !p.atEnd() {
				call.Nodes = append(call.Nodes, p.parseExpr())
				if !p.match(lexer.Comma) {
					break
				}
			}
			p.expect(lexer.RParen, ")")
			return call
		}
		return &ast.Node{Kind: ast.Ident, Line: tok.Line, Name: tok.Text}
	case lexer.LParen:
		p.advance()
		expr := p.parseExpr()
		p.expect(lexer.RParen, ")")
		return expr
	default:
		p.errors.Add(tok.Line, "unexpected token %q", tok.Text)
		p.advance()
		return &ast.Node{Kind: ast.IntLit, Line: tok.Line, Name: "0"}
	}
}
