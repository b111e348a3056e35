// Package codegen lowers a tac.Sequence to an asm.AssemblyUnit for the
// x86-64 System V ABI on Linux (§4.5): a .data section for global and
// parameter storage, a .rodata section for anonymous string/float
// constants, and a .text section holding every function body plus the
// hand-emitted `entrada` runtime routine.
package codegen

import (
	"github.com/brunoczim/compiler-course/internal/asm"
	"github.com/brunoczim/compiler-course/internal/diag"
	"github.com/brunoczim/compiler-course/internal/symtab"
	"github.com/brunoczim/compiler-course/internal/tac"
	"github.com/brunoczim/compiler-course/internal/types"
)

// Generator walks one TAC sequence and accumulates the three sections of
// the output assembly unit.
type Generator struct {
	in *symtab.Interner

	data   []asm.Statement
	rodata []asm.Statement
	text   []asm.Statement

	paramStorage map[*symtab.Symbol]bool
	usedEntrada  bool
}

// New creates a Generator resolving literal/variable symbols through in.
func New(in *symtab.Interner) *Generator {
	return &Generator{in: in}
}

// Generate lowers seq into a complete assembly unit.
func Generate(seq *tac.Sequence, in *symtab.Interner) *asm.AssemblyUnit {
	g := New(in)
	g.run(seq)
	if g.usedEntrada {
		emitEntrada(g)
	}
	out := &asm.AssemblyUnit{}
	out.Dir("section", ".data")
	out.Statements = append(out.Statements, g.data...)
	out.Dir("section", ".rodata")
	out.Statements = append(out.Statements, g.rodata...)
	out.Dir("section", ".text")
	out.Statements = append(out.Statements, g.text...)
	return out
}

func (g *Generator) run(seq *tac.Sequence) {
	nodes := seq.Slice()
	i := 0
	for i < len(nodes) {
		n := nodes[i]
		switch n.Op {
		case tac.Defs:
			g.emitDefs(n)
			i++
		case tac.BeginVec:
			i = g.emitVector(nodes, i)
		case tac.BeginFun:
			i = g.emitFunction(nodes, i)
		default:
			diag.ICE("codegen: unexpected top-level opcode %s", n.Op)
		}
	}
}

// === .data: global scalar and vector definitions (§4.5 "Data section") ===

func (g *Generator) emitDefs(n *tac.Node) {
	sym := n.Dst
	align := sym.VarType.Align()
	g.data = append(g.data, asm.Directive{Name: "align", Args: []string{itoa(align)}})
	g.data = append(g.data, asm.Label{Name: sym.Content})
	g.data = append(g.data, scalarInitDirective(sym.VarType, n.Src0))
}

func scalarInitDirective(base types.Base, lit *symtab.Symbol) asm.Directive {
	switch base {
	case types.Cara:
		return asm.Directive{Name: "ascii", Args: []string{quoteByte(lit.CharValue)}}
	case types.Real:
		return asm.Directive{Name: "double", Args: []string{floatArg(lit.FloatValue)}}
	default:
		return asm.Directive{Name: "quad", Args: []string{itoa64(lit.IntValue)}}
	}
}

func (g *Generator) emitVector(nodes []*tac.Node, i int) int {
	begin := nodes[i]
	sym := begin.Dst
	align := sym.VarType.Align()
	g.data = append(g.data, asm.Directive{Name: "align", Args: []string{itoa(align)}})
	g.data = append(g.data, asm.Label{Name: sym.Content})
	i++
	for nodes[i].Op == tac.Defv {
		g.data = append(g.data, scalarInitDirective(sym.VarType, nodes[i].Src0))
		i++
	}
	end := nodes[i]
	fill := end.Src0.IntValue * int64(sym.VarType.Size())
	if fill > 0 {
		g.data = append(g.data, asm.Directive{Name: "zero", Args: []string{itoa64(fill)}})
	}
	return i + 1
}

// === .rodata: anonymous string/float constants, materialized on use ===

// rodataAddr returns lit's cached rodata label, materializing one (and
// emitting its .rodata entry) on first use (§4.5 "Rodata section").
func (g *Generator) rodataAddr(lit *symtab.Symbol) string {
	switch lit.Kind {
	case symtab.KindStringLit:
		if lit.StrAddr == nil {
			lit.StrAddr = g.in.MintStrAddr()
			g.rodata = append(g.rodata, asm.Label{Name: lit.StrAddr.Content})
			g.rodata = append(g.rodata, asm.Directive{Name: "ascii", Args: []string{quoteBytes(lit.StringBytes)}})
		}
		return lit.StrAddr.Content
	case symtab.KindFloatLit:
		if lit.FloatAddr == nil {
			lit.FloatAddr = g.in.MintFloatAddr()
			g.rodata = append(g.rodata, asm.Directive{Name: "align", Args: []string{"8"}})
			g.rodata = append(g.rodata, asm.Label{Name: lit.FloatAddr.Content})
			g.rodata = append(g.rodata, asm.Directive{Name: "double", Args: []string{floatArg(lit.FloatValue)}})
		}
		return lit.FloatAddr.Content
	}
	diag.ICE("codegen: rodataAddr on non-literal kind %s", lit.Kind)
	return ""
}
