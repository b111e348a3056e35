// Package sema resolves names, checks types and folds constant initializers
// over an ast.Node tree, the way original_source/src/semantics.c walks its
// own AST — one scope stack, one pass, diagnostics accumulated rather than
// raised immediately so a single run reports everything wrong with a file.
package sema

import (
	"github.com/brunoczim/compiler-course/internal/ast"
	"github.com/brunoczim/compiler-course/internal/constfold"
	"github.com/brunoczim/compiler-course/internal/diag"
	"github.com/brunoczim/compiler-course/internal/symtab"
	"github.com/brunoczim/compiler-course/internal/types"
)

// entry is one scope-stack record: where a name was declared and what it is.
type entry struct {
	line int
	typ  types.Base
	vec  bool
	fn   *types.Func
}

// scope is a single lexical level; Checker keeps a stack of these.
type scope struct {
	names map[string]*entry
}

// Checker walks a Program node, resolving identifiers against a scope stack
// and checking every operation's operand types against spec.md's rules.
type Checker struct {
	errors  *diag.Errors
	interns *symtab.Interner
	scopes  []*scope
	funcs   map[string]*entry
	curRet  types.Base
}

// New creates a Checker reporting into errs and interning literals into in.
func New(errs *diag.Errors, in *symtab.Interner) *Checker {
	return &Checker{errors: errs, interns: in, funcs: map[string]*entry{}}
}

func (c *Checker) push() { c.scopes = append(c.scopes, &scope{names: map[string]*entry{}}) }
func (c *Checker) pop()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) declare(name string, line int, e *entry) {
	top := c.scopes[len(c.scopes)-1]
	if prev := c.lookup(name); prev != nil {
		c.errors.Add(line, "symbol `%s` (originally declared at line %d) redeclared", name, prev.line)
		return
	}
	top.names[name] = e
}

func (c *Checker) lookup(name string) *entry {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if e, ok := c.scopes[i].names[name]; ok {
			return e
		}
	}
	return nil
}

// Check walks the whole program, mutating n in place (Type/Sym fields).
func (c *Checker) Check(prog *ast.Node) {
	c.push()
	defer c.pop()
	for _, decl := range prog.Nodes {
		if decl.Kind == ast.FuncDecl {
			params := make([]types.Base, len(decl.Nodes))
			for i, p := range decl.Nodes {
				params[i] = p.Type
			}
			c.funcs[decl.Name] = &entry{line: decl.Line, typ: decl.Type, fn: &types.Func{Return: decl.Type, Params: params}}
		}
	}
	for _, decl := range prog.Nodes {
		c.checkTopDecl(decl)
	}
}

func (c *Checker) checkTopDecl(n *ast.Node) {
	switch n.Kind {
	case ast.ScalarDecl, ast.VectorDecl:
		c.checkVarDecl(n)
	case ast.FuncDecl:
		c.checkFuncDecl(n)
	default:
		diag.ICE("sema: unexpected top-level kind %d", n.Kind)
	}
}

func (c *Checker) checkVarDecl(n *ast.Node) {
	c.declare(n.Name, n.Line, &entry{line: n.Line, typ: n.Type, vec: n.Kind == ast.VectorDecl})
	if n.Kind == ast.ScalarDecl && n.X != nil {
		t := c.checkExpr(n.X)
		c.expectType(n.Type, t, n.X.Line)
		constfold.Fold(n.X, c.interns)
	}
	if n.Kind == ast.VectorDecl {
		for _, elem := range n.Nodes {
			t := c.checkExpr(elem)
			c.expectType(n.Type, t, elem.Line)
			constfold.Fold(elem, c.interns)
		}
	}
}

func (c *Checker) checkFuncDecl(n *ast.Node) {
	c.push()
	defer c.pop()
	for _, p := range n.Nodes {
		c.declare(p.Name, p.Line, &entry{line: p.Line, typ: p.Type, vec: p.IsVector})
	}
	prevRet := c.curRet
	c.curRet = n.Type
	c.checkBlock(n.Body, false)
	c.curRet = prevRet
}

func (c *Checker) checkBlock(n *ast.Node, newScope bool) {
	if newScope {
		c.push()
		defer c.pop()
	}
	for _, stmt := range n.Nodes {
		c.checkStmt(stmt)
	}
}

func (c *Checker) checkStmt(n *ast.Node) {
	switch n.Kind {
	case ast.Block:
		c.checkBlock(n, true)
	case ast.If:
		c.checkExpr(n.X)
		c.checkBlock(n.Body, true)
		if n.Else != nil {
			if n.Else.Kind == ast.If {
				c.checkStmt(n.Else)
			} else {
				c.checkBlock(n.Else, true)
			}
		}
	case ast.While:
		c.checkExpr(n.X)
		c.checkBlock(n.Body, true)
	case ast.Return:
		if n.X != nil {
			t := c.checkExpr(n.X)
			c.expectType(c.curRet, t, n.Line)
		}
	case ast.Escreva:
		for _, arg := range n.Nodes {
			c.checkExpr(arg)
		}
	case ast.Assign:
		e := c.lookup(n.Name)
		if e == nil {
			c.errors.Add(n.Line, "symbol `%s` is not in scope", n.Name)
			c.checkExpr(n.X)
			return
		}
		t := c.checkExpr(n.X)
		c.expectType(e.typ, t, n.Line)
	case ast.IndexAssign:
		c.checkIndexBase(n.X)
		it := c.checkExpr(n.Y)
		c.expectIndexType(it, n.Y.Line)
		e := c.lookup(n.X.Name)
		rt := c.checkExpr(n.Body)
		if e != nil {
			c.expectType(e.typ, rt, n.Line)
		}
	case ast.ExprStmt:
		c.checkExpr(n.X)
	default:
		diag.ICE("sema: unexpected statement kind %d", n.Kind)
	}
}

func (c *Checker) checkIndexBase(n *ast.Node) {
	e := c.lookup(n.Name)
	if e == nil {
		c.errors.Add(n.Line, "symbol `%s` is not in scope", n.Name)
		return
	}
	n.Type = e.typ
	n.Sym = nil
}

// checkExpr resolves and type-checks n, returning its inferred base type.
func (c *Checker) checkExpr(n *ast.Node) types.Base {
	switch n.Kind {
	case ast.IntLit:
		n.Type = types.Inte
	case ast.CharLit:
		n.Type = types.Cara
	case ast.FloatLit:
		n.Type = types.Real
	case ast.StringLit:
		n.Type = types.Cara
	case ast.Entrada:
		n.Type = types.Inte
	case ast.Ident:
		e := c.lookup(n.Name)
		if e == nil {
			c.errors.Add(n.Line, "symbol `%s` is not in scope", n.Name)
			n.Type = types.Inte
			break
		}
		n.Type = e.typ
	case ast.Index:
		c.checkIndexBase(n.X)
		it := c.checkExpr(n.Y)
		c.expectIndexType(it, n.Y.Line)
		n.Type = n.X.Type
	case ast.Unary:
		n.Type = c.checkExpr(n.X)
	case ast.Binary:
		lt := c.checkExpr(n.X)
		rt := c.checkExpr(n.Y)
		c.expectType(lt, rt, n.Line)
		switch n.Name {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			n.Type = types.Inte
		default:
			n.Type = lt
		}
	case ast.Call:
		fn, ok := c.funcs[n.Name]
		if !ok {
			c.errors.Add(n.Line, "symbol `%s` is not in scope", n.Name)
			n.Type = types.Inte
			break
		}
		if len(n.Nodes) != len(fn.fn.Params) {
			c.errors.Add(n.Line, "function call expects %d parameters, given %d", len(fn.fn.Params), len(n.Nodes))
		}
		for i, arg := range n.Nodes {
			at := c.checkExpr(arg)
			if i < len(fn.fn.Params) {
				c.expectType(fn.fn.Params[i], at, arg.Line)
			}
		}
		n.Type = fn.fn.Return
	default:
		diag.ICE("sema: unexpected expression kind %d", n.Kind)
	}
	return n.Type
}

func (c *Checker) expectType(want, got types.Base, line int) {
	if want != got {
		c.errors.Add(line, "expected type %s but found type %s", want, got)
	}
}

func (c *Checker) expectIndexType(got types.Base, line int) {
	if got != types.Inte && got != types.Cara {
		c.errors.Add(line, "index must be inte or cara, found %s", got)
	}
}
