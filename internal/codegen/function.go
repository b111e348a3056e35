package codegen

import (
	"github.com/brunoczim/compiler-course/internal/asm"
	"github.com/brunoczim/compiler-course/internal/symtab"
	"github.com/brunoczim/compiler-course/internal/tac"
	"github.com/brunoczim/compiler-course/internal/types"
)

// emitFunction lowers one beginfun..endfun run (§4.5 "Function prologue and
// body"): parameter storage, stack-frame sizing, prologue, body, and
// returns the index just past the matching endfun.
func (g *Generator) emitFunction(nodes []*tac.Node, i int) int {
	fn := nodes[i].Dst
	i++

	var params []*symtab.Symbol
	for nodes[i].Op == tac.Defp {
		params = append(params, nodes[i].Dst)
		i++
	}

	bodyStart := i
	for nodes[i].Op != tac.EndFun {
		i++
	}
	body := nodes[bodyStart:i]
	i++

	for _, psym := range params {
		g.emitParamStorage(psym)
	}

	fr := buildFrame(body)

	g.dir("globl", fn.Content)
	g.lbl(fn.Content)
	g.inst("push", dreg(asm.RBP))
	g.inst("mov", dreg(asm.RSP), dreg(asm.RBP))
	if fr.size > 0 {
		g.inst("sub", asm.Immediate{Value: int64(fr.size)}, dreg(asm.RSP))
	}

	g.emitParamUnpack(params)
	g.emitBody(body, fr)

	return i
}

// emitParamStorage gives a parameter its backing .data global, the first
// time this interned symbol is seen as a parameter. The same content-keyed
// symbol is reused by every later function declaring a same-named
// parameter (the scope-toggle design producer.go documents), so its
// storage is declared exactly once.
func (g *Generator) emitParamStorage(psym *symtab.Symbol) {
	if g.paramStorage == nil {
		g.paramStorage = map[*symtab.Symbol]bool{}
	}
	if g.paramStorage[psym] {
		return
	}
	g.paramStorage[psym] = true

	if psym.Kind == symtab.KindVectorVar {
		// A vector parameter is passed by reference: the backing global
		// holds the caller's base address, not element storage.
		g.data = append(g.data, asm.Directive{Name: "align", Args: []string{itoa(8)}})
		g.data = append(g.data, asm.Label{Name: psym.Content})
		g.data = append(g.data, asm.Directive{Name: "quad", Args: []string{"0"}})
		return
	}
	g.data = append(g.data, asm.Directive{Name: "align", Args: []string{itoa(psym.VarType.Align())}})
	g.data = append(g.data, asm.Label{Name: psym.Content})
	g.data = append(g.data, asm.Directive{Name: "zero", Args: []string{itoa(psym.VarType.Size())}})
}

// emitParamUnpack copies each parameter out of its ABI-assigned register (or
// stack slot, once the six integer / eight float argument registers are
// exhausted) into its backing global.
func (g *Generator) emitParamUnpack(params []*symtab.Symbol) {
	floatRegs := asm.FloatArgRegs()
	intIdx, fltIdx, stackIdx := 0, 0, 0
	for _, psym := range params {
		if psym.Kind == symtab.KindVectorVar {
			g.unpackInt(psym.Content, asm.Qword, &intIdx, &stackIdx)
			continue
		}
		base := psym.VarType
		if base == types.Real {
			if fltIdx < len(floatRegs) {
				g.instNoSuffix("movsd", dreg(floatRegs[fltIdx]), asm.Address{Symbol: psym.Content})
				fltIdx++
			} else {
				g.instNoSuffix("movsd", stackArgOperand(stackIdx), dreg(asm.XMM(15)))
				g.instNoSuffix("movsd", dreg(asm.XMM(15)), asm.Address{Symbol: psym.Content})
				stackIdx++
			}
			continue
		}
		g.unpackInt(psym.Content, sizeOf(base), &intIdx, &stackIdx)
	}
}

func (g *Generator) unpackInt(dstGlobal string, size asm.Size, intIdx, stackIdx *int) {
	if *intIdx < len(asm.IntArgRegs) {
		g.inst("mov", dreg(asm.IntArgRegs[*intIdx].At(size)), asm.Address{Symbol: dstGlobal})
		*intIdx++
		return
	}
	g.inst("mov", stackArgOperand(*stackIdx), dreg(asm.R10.At(size)))
	g.inst("mov", dreg(asm.R10.At(size)), asm.Address{Symbol: dstGlobal})
	*stackIdx++
}

// stackArgOperand addresses the n'th argument spilled to the caller's
// stack: the return address occupies 8(%rbp), so the first spilled
// argument sits at 16(%rbp).
func stackArgOperand(n int) asm.Operand {
	return asm.Displaced{Disp: int64(16 + 8*n), Base: asm.RBP}
}
