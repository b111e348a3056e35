package codegen

import (
	"github.com/brunoczim/compiler-course/internal/asm"
	"github.com/brunoczim/compiler-course/internal/diag"
	"github.com/brunoczim/compiler-course/internal/symtab"
	"github.com/brunoczim/compiler-course/internal/tac"
	"github.com/brunoczim/compiler-course/internal/types"
)

// frame holds one function's stack-slot assignment (§4.5 step 5): every
// temporary scalar gets an 8-byte slot, laid out downward from %rbp.
type frame struct {
	slots map[*symtab.Symbol]int
	size  int
}

// buildFrame walks a function's body nodes (already resolved through the
// reuse-replacement chain by the TAC optimizer, if it ran) and assigns a
// slot to every distinct temporary scalar referenced.
func buildFrame(body []*tac.Node) *frame {
	fr := &frame{slots: map[*symtab.Symbol]int{}}
	consider := func(s *symtab.Symbol) {
		if s == nil || s.Kind != symtab.KindTempScalar {
			return
		}
		s = symtab.Resolved(s)
		if _, ok := fr.slots[s]; !ok {
			fr.slots[s] = len(fr.slots)
		}
	}
	for _, n := range body {
		consider(n.Dst)
		consider(n.Src0)
		consider(n.Src1)
	}
	size := len(fr.slots) * 8
	if size%16 != 0 {
		size += 8
	}
	fr.size = size
	return fr
}

func (fr *frame) slotOperand(s *symtab.Symbol) asm.Operand {
	s = symtab.Resolved(s)
	idx, ok := fr.slots[s]
	if !ok {
		diag.ICE("codegen: temporary %q has no stack slot", s.Content)
	}
	return asm.Displaced{Disp: -8 * int64(idx+1), Base: asm.RBP}
}

// baseTypeOf returns the scalar base type that should drive a symbol's
// register class (integer vs. XMM) and operand width.
func baseTypeOf(s *symtab.Symbol) types.Base {
	switch s.Kind {
	case symtab.KindCharLit:
		return types.Cara
	case symtab.KindIntLit:
		return types.Inte
	case symtab.KindFloatLit:
		return types.Real
	case symtab.KindScalarVar, symtab.KindVectorVar, symtab.KindTempScalar:
		return s.VarType
	default:
		return types.Inte
	}
}

func sizeOf(base types.Base) asm.Size {
	if base == types.Cara {
		return asm.Byte
	}
	return asm.Qword
}

// operand resolves sym to its addressing-mode operand: a stack slot for a
// temporary, a `name(%rip)` address for a global/parameter, or an
// immediate/rodata reference for a literal.
func (g *Generator) operand(sym *symtab.Symbol, fr *frame) asm.Operand {
	sym = symtab.Resolved(sym)
	switch sym.Kind {
	case symtab.KindTempScalar:
		return fr.slotOperand(sym)
	case symtab.KindScalarVar, symtab.KindVectorVar:
		return asm.Address{Symbol: sym.Content}
	case symtab.KindIntLit:
		return asm.Immediate{Value: sym.IntValue}
	case symtab.KindCharLit:
		return asm.Immediate{Value: int64(sym.CharValue)}
	case symtab.KindFloatLit:
		return asm.Address{Symbol: g.rodataAddr(sym)}
	case symtab.KindStringLit:
		return asm.Address{Symbol: g.rodataAddr(sym)}
	case symtab.KindExternal:
		return asm.PLTAddress{Symbol: sym.Content}
	}
	diag.ICE("codegen: no operand form for symbol kind %s", sym.Kind)
	return nil
}

// loadInt emits the instruction(s) that load sym's integer/char value into
// reg, selecting mov vs. movabs per §6 and the element size for cara.
func (g *Generator) loadInt(sym *symtab.Symbol, reg asm.Reg, fr *frame) {
	base := baseTypeOf(symtab.Resolved(sym))
	sized := reg.At(sizeOf(base))
	op := g.operand(sym, fr)
	if imm, ok := op.(asm.Immediate); ok && asm.NeedsMovabs(imm.Value) {
		g.inst("movabs", asm.Immediate{Value: imm.Value}, asm.Direct{Reg: reg.At(asm.Qword)})
		return
	}
	g.inst("mov", op, asm.Direct{Reg: sized})
}

// storeInt is loadInt's inverse: write reg into sym's storage.
func (g *Generator) storeInt(sym *symtab.Symbol, reg asm.Reg, fr *frame) {
	base := baseTypeOf(symtab.Resolved(sym))
	sized := reg.At(sizeOf(base))
	g.inst("mov", asm.Direct{Reg: sized}, g.operand(sym, fr))
}

func (g *Generator) loadFloat(sym *symtab.Symbol, xmm asm.Reg, fr *frame) {
	g.instNoSuffix("movsd", g.operand(sym, fr), asm.Direct{Reg: xmm})
}

func (g *Generator) storeFloat(sym *symtab.Symbol, xmm asm.Reg, fr *frame) {
	g.instNoSuffix("movsd", asm.Direct{Reg: xmm}, g.operand(sym, fr))
}

// controlTarget resolves a label or function symbol to its jmp/call operand:
// a bare quoted name for locally defined labels and functions, `@PLT` for
// libc externals (§6).
func controlTarget(sym *symtab.Symbol) asm.Operand {
	if sym.Kind == symtab.KindExternal {
		return asm.PLTAddress{Symbol: sym.Content}
	}
	return asm.Bare{Symbol: sym.Content}
}

func dreg(r asm.Reg) asm.Direct { return asm.Direct{Reg: r} }
