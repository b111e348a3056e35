package tac

import (
	"strconv"

	"github.com/brunoczim/compiler-course/internal/ast"
	"github.com/brunoczim/compiler-course/internal/diag"
	"github.com/brunoczim/compiler-course/internal/symtab"
	"github.com/brunoczim/compiler-course/internal/types"
)

// Producer lowers a well-typed ast.Node tree into a Sequence, per §4.2. It
// owns no state beyond the shared interner and the return type of the
// function being lowered: the source language has no
// block-scoped local declarations (original_source/src/ast.h's
// ast_statement_tag carries no decl variant), so every named symbol is
// either a global, lowered once, or a function parameter, whose `InScope`
// flag the producer flips on at `beginfun` and off at `endfun` — mirroring
// semantics.c's own scope bookkeeping on the shared symbol table.
type Producer struct {
	in     *symtab.Interner
	curRet types.Base
}

// New creates a Producer that mints and resolves symbols through in.
func New(in *symtab.Interner) *Producer {
	return &Producer{in: in}
}

// Lower concatenates the lowered form of every top-level declaration, in
// source order, into one Sequence.
func (p *Producer) Lower(prog *ast.Node) *Sequence {
	seq := NewSequence()
	for _, decl := range prog.Nodes {
		p.lowerDecl(seq, decl)
	}
	return seq
}

func (p *Producer) lowerDecl(seq *Sequence, n *ast.Node) {
	switch n.Kind {
	case ast.ScalarDecl:
		sym := p.in.Intern(n.Name)
		sym.Kind = symtab.KindScalarVar
		sym.VarType = n.Type
		sym.InScope = true
		n.Sym = sym
		lit := p.constOrZero(n.X, n.Type)
		seq.Append(Defs, sym, lit, nil, n.Line)
	case ast.VectorDecl:
		sym := p.in.Intern(n.Name)
		sym.Kind = symtab.KindVectorVar
		sym.VarType = n.Type
		sym.InScope = true
		n.Sym = sym
		lenLit := p.in.InternIntLiteral(n.Line, int64(n.Length))
		seq.Append(BeginVec, sym, lenLit, nil, n.Line)
		k := 0
		for _, elem := range n.Nodes {
			lit := p.constOrZero(elem, n.Type)
			seq.Append(Defv, sym, lit, nil, elem.Line)
			k++
		}
		fill := p.in.InternIntLiteral(n.Line, int64(n.Length-k))
		seq.Append(EndVec, sym, fill, nil, n.Line)
	case ast.FuncDecl:
		p.lowerFunc(seq, n)
	default:
		diag.ICE("tac: unexpected top-level kind %d", n.Kind)
	}
}

func (p *Producer) lowerFunc(seq *Sequence, n *ast.Node) {
	sym := p.in.Intern(n.Name)
	params := make([]types.Base, len(n.Nodes))
	for i, param := range n.Nodes {
		params[i] = param.Type
	}
	sym.Kind = symtab.KindFunction
	sym.Signature = types.Func{Return: n.Type, Params: params}
	n.Sym = sym

	seq.Append(BeginFun, sym, nil, nil, n.Line)
	for _, param := range n.Nodes {
		psym := p.in.Intern(param.Name)
		if param.IsVector {
			psym.Kind = symtab.KindVectorVar
		} else {
			psym.Kind = symtab.KindScalarVar
		}
		psym.VarType = param.Type
		psym.InScope = true
		psym.IsParam = true
		param.Sym = psym
		seq.Append(Defp, psym, nil, nil, param.Line)
	}

	prevRet := p.curRet
	p.curRet = n.Type
	p.lowerBlock(seq, n.Body)
	p.curRet = prevRet

	if !blockReturns(n.Body) {
		seq.Append(Ret, nil, p.zeroOf(n.Type), nil, n.Line)
	}
	for _, param := range n.Nodes {
		param.Sym.InScope = false
	}
	seq.Append(EndFun, nil, nil, nil, n.Line)
}

// blockReturns mirrors original_source/src/ast.c's ast_body_returns: a body
// returns if ANY statement inside it does, checked in any order.
func blockReturns(block *ast.Node) bool {
	for _, stmt := range block.Nodes {
		if stmtReturns(stmt) {
			return true
		}
	}
	return false
}

func stmtReturns(n *ast.Node) bool {
	switch n.Kind {
	case ast.Return:
		return true
	case ast.Block:
		return blockReturns(n)
	case ast.If:
		return n.Else != nil && stmtReturns(n.Body) && stmtReturns(n.Else)
	default:
		return false
	}
}

func (p *Producer) lowerBlock(seq *Sequence, block *ast.Node) {
	for _, stmt := range block.Nodes {
		p.lowerStmt(seq, stmt)
	}
}

func (p *Producer) lowerStmt(seq *Sequence, n *ast.Node) {
	switch n.Kind {
	case ast.Block:
		p.lowerBlock(seq, n)
	case ast.If:
		cond := p.lowerExpr(seq, n.X)
		thenEnd := p.in.MintLabel()
		seq.Append(Ifz, thenEnd, cond, nil, n.Line)
		p.lowerStmtOrBlock(seq, n.Body)
		elseEnd := p.in.MintLabel()
		seq.Append(Jump, elseEnd, nil, nil, n.Line)
		seq.Append(Label, thenEnd, nil, nil, n.Line)
		if n.Else != nil {
			p.lowerStmtOrBlock(seq, n.Else)
		}
		seq.Append(Label, elseEnd, nil, nil, n.Line)
	case ast.While:
		head := p.in.MintLabel()
		seq.Append(Label, head, nil, nil, n.Line)
		cond := p.lowerExpr(seq, n.X)
		exit := p.in.MintLabel()
		seq.Append(Ifz, exit, cond, nil, n.Line)
		p.lowerStmtOrBlock(seq, n.Body)
		seq.Append(Jump, head, nil, nil, n.Line)
		seq.Append(Label, exit, nil, nil, n.Line)
	case ast.Return:
		var v *symtab.Symbol
		if n.X != nil {
			v = p.lowerExpr(seq, n.X)
		} else {
			v = p.zeroOf(p.curRet)
		}
		seq.Append(Ret, nil, v, nil, n.Line)
	case ast.Escreva:
		for _, arg := range n.Nodes {
			if arg.Kind == ast.StringLit {
				lit := p.in.InternStringLiteral(arg.Line, []byte(arg.Name))
				seq.Append(Print, nil, lit, nil, arg.Line)
				continue
			}
			v := p.lowerExpr(seq, arg)
			seq.Append(Print, nil, v, nil, arg.Line)
		}
	case ast.Assign:
		dst := p.in.Intern(n.Name)
		p.lowerInto(seq, n.X, dst)
	case ast.IndexAssign:
		vecSym := p.in.Intern(n.X.Name)
		idx := p.lowerExpr(seq, n.Y)
		val := p.lowerExpr(seq, n.Body)
		seq.Append(Movv, vecSym, idx, val, n.Line)
	case ast.ExprStmt:
		p.lowerExprRaw(seq, n.X)
		if last := seq.Last(); last != nil && last.Op == Move && last.Dst == nil {
			seq.RemoveLast()
		}
	default:
		diag.ICE("tac: unexpected statement kind %d", n.Kind)
	}
}

// lowerStmtOrBlock lowers an if/while arm, which the parser always hands
// over as a Block (or, for `senaum se`, a nested If).
func (p *Producer) lowerStmtOrBlock(seq *Sequence, n *ast.Node) {
	if n.Kind == ast.If {
		p.lowerStmt(seq, n)
		return
	}
	p.lowerBlock(seq, n)
}

// lowerExpr lowers e and applies destination propagation (§4.2): a terminal
// pseudo-move is consumed and its source returned directly; otherwise a
// fresh temporary becomes the last instruction's destination.
func (p *Producer) lowerExpr(seq *Sequence, n *ast.Node) *symtab.Symbol {
	p.lowerExprRaw(seq, n)
	last := seq.Last()
	if last.Op == Move && last.Dst == nil {
		seq.RemoveLast()
		return last.Src0
	}
	tmp := p.in.MintTempScalar(n.Type)
	last.Dst = tmp
	return tmp
}

// lowerInto lowers e the same way but rewrites the final instruction's
// destination to dst directly, skipping the fresh-temporary mint — the
// statement-level half of destination propagation (`x = e`).
func (p *Producer) lowerInto(seq *Sequence, n *ast.Node, dst *symtab.Symbol) {
	p.lowerExprRaw(seq, n)
	seq.Last().Dst = dst
}

func (p *Producer) lowerExprRaw(seq *Sequence, n *ast.Node) {
	switch n.Kind {
	case ast.IntLit, ast.CharLit, ast.FloatLit, ast.StringLit:
		seq.Append(Move, nil, p.internLiteral(n), nil, n.Line)
	case ast.Entrada:
		seq.Append(Read, nil, nil, nil, n.Line)
	case ast.Ident:
		seq.Append(Move, nil, p.in.Intern(n.Name), nil, n.Line)
	case ast.Index:
		vecSym := p.in.Intern(n.X.Name)
		idx := p.lowerExpr(seq, n.Y)
		seq.Append(Movi, nil, vecSym, idx, n.Line)
	case ast.Unary:
		src := p.lowerExpr(seq, n.X)
		seq.Append(Not, nil, src, nil, n.Line)
	case ast.Binary:
		lhs := p.lowerExpr(seq, n.X)
		rhs := p.lowerExpr(seq, n.Y)
		seq.Append(binaryOpcode(n.Name), nil, lhs, rhs, n.Line)
	case ast.Call:
		for _, arg := range n.Nodes {
			v := p.lowerExpr(seq, arg)
			seq.Append(Arg, nil, v, nil, arg.Line)
		}
		fn := p.in.Intern(n.Name)
		seq.Append(Call, nil, fn, nil, n.Line)
	default:
		diag.ICE("tac: unexpected expression kind %d", n.Kind)
	}
}

func binaryOpcode(op string) Opcode {
	switch op {
	case "+":
		return Add
	case "-":
		return Sub
	case "*":
		return Mul
	case "/":
		return Div
	case "<":
		return Lt
	case ">":
		return Gt
	case "<=":
		return Le
	case ">=":
		return Ge
	case "==":
		return Eq
	case "!=":
		return Ne
	case "&&":
		return And
	case "||":
		return Or
	}
	diag.ICE("tac: unknown binary operator %q", op)
	return Add
}

// internLiteral interns n's literal value under its canonical emitted form.
func (p *Producer) internLiteral(n *ast.Node) *symtab.Symbol {
	switch n.Kind {
	case ast.IntLit:
		v, _ := strconv.ParseInt(n.Name, 10, 64)
		return p.in.InternIntLiteral(n.Line, v)
	case ast.CharLit:
		return p.in.InternCharLiteral(n.Line, n.Name[0])
	case ast.FloatLit:
		v, _ := strconv.ParseFloat(n.Name, 64)
		return p.in.InternFloatLiteral(n.Line, v)
	case ast.StringLit:
		return p.in.InternStringLiteral(n.Line, []byte(n.Name))
	}
	diag.ICE("tac: internLiteral on non-literal kind %d", n.Kind)
	return nil
}

// constOrZero interns n as a literal if it folded to one, or the
// type-specific zero if folding failed or no initializer was given — the
// producer's half of §4.2's "constant-folded initializer... or zero" rule
// (the fold itself runs in internal/sema via internal/constfold).
func (p *Producer) constOrZero(n *ast.Node, t types.Base) *symtab.Symbol {
	if n != nil {
		switch n.Kind {
		case ast.IntLit, ast.CharLit, ast.FloatLit, ast.StringLit:
			return p.internLiteral(n)
		}
	}
	return p.zeroOf(t)
}

func (p *Producer) zeroOf(t types.Base) *symtab.Symbol {
	switch t {
	case types.Cara:
		return p.in.InternCharLiteral(0, 0)
	case types.Real:
		return p.in.InternFloatLiteral(0, 0)
	default:
		return p.in.InternIntLiteral(0, 0)
	}
}
