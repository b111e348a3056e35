package codegen

import (
	"github.com/brunoczim/compiler-course/internal/asm"
	"github.com/brunoczim/compiler-course/internal/diag"
	"github.com/brunoczim/compiler-course/internal/symtab"
	"github.com/brunoczim/compiler-course/internal/tac"
	"github.com/brunoczim/compiler-course/internal/types"
)

// emitBody lowers one function's straight-line and control-flow body nodes
// (§4.5's per-opcode lowering table). Arg nodes accumulate into pending
// until the Call that consumes them.
func (g *Generator) emitBody(body []*tac.Node, fr *frame) {
	var pending []*symtab.Symbol
	for _, n := range body {
		switch n.Op {
		case tac.Label:
			g.lbl(n.Dst.Content)
		case tac.Jump:
			g.inst("jmp", controlTarget(n.Dst))
		case tac.Ifz:
			g.loadInt(n.Src0, asm.R8, fr)
			g.inst("test", dreg(asm.R8), dreg(asm.R8))
			g.inst("jz", controlTarget(n.Dst))
		case tac.Ret:
			g.emitRet(n, fr)
		case tac.Move:
			g.emitMove(n, fr)
		case tac.Movi:
			g.emitMovi(n, fr)
		case tac.Movv:
			g.emitMovv(n, fr)
		case tac.Not:
			g.emitNot(n, fr)
		case tac.Add, tac.Sub, tac.Mul, tac.Div:
			g.emitArith(n, fr)
		case tac.Shmul, tac.Shdiv:
			g.emitShift(n, fr)
		case tac.And, tac.Or:
			g.emitBitwiseBool(n, fr)
		case tac.Lt, tac.Gt, tac.Le, tac.Ge, tac.Eq, tac.Ne:
			g.emitCompare(n, fr)
		case tac.Arg:
			pending = append(pending, n.Src0)
		case tac.Call:
			g.emitCall(n, pending, fr)
			pending = nil
		case tac.Print:
			g.emitPrint(n, fr)
		case tac.Read:
			g.usedEntrada = true
			g.inst("call", asm.PLTAddress{Symbol: "entrada"})
			if n.Dst != nil {
				g.storeInt(n.Dst, asm.RAX, fr)
			}
		default:
			diag.ICE("codegen: unexpected body opcode %s", n.Op)
		}
	}
}

func (g *Generator) emitRet(n *tac.Node, fr *frame) {
	if n.Src0 != nil {
		if baseTypeOf(symtab.Resolved(n.Src0)) == types.Real {
			g.loadFloat(n.Src0, asm.XMM0, fr)
		} else {
			g.loadInt(n.Src0, asm.RAX, fr)
		}
	}
	g.inst("leave")
	g.inst("ret")
}

func (g *Generator) emitMove(n *tac.Node, fr *frame) {
	dst := n.Dst
	if baseTypeOf(symtab.Resolved(dst)) == types.Real {
		g.loadFloat(n.Src0, asm.XMM12, fr)
		g.storeFloat(dst, asm.XMM12, fr)
		return
	}
	g.loadInt(n.Src0, asm.R8, fr)
	g.storeInt(dst, asm.R8, fr)
}

// loadVectorBase puts vecSym's element-0 address into reg: a `lea` of its
// own storage for a plain global vector, or a load of the stored pointer
// for a vector passed by reference as a parameter.
func (g *Generator) loadVectorBase(vecSym *symtab.Symbol, reg asm.Reg) {
	if vecSym.IsParam {
		g.inst("mov", asm.Address{Symbol: vecSym.Content}, dreg(reg))
		return
	}
	g.inst("lea", asm.Address{Symbol: vecSym.Content}, dreg(reg))
}

func (g *Generator) emitMovi(n *tac.Node, fr *frame) {
	vecSym := n.Src0
	elemBase := vecSym.VarType
	g.loadVectorBase(vecSym, asm.R9)
	g.loadInt(n.Src1, asm.R10, fr)
	addr := asm.Indexed{Base: asm.R9, Index: asm.R10, Scale: elemBase.Size()}
	if elemBase == types.Real {
		g.instNoSuffix("movsd", addr, dreg(asm.XMM12))
		g.storeFloat(n.Dst, asm.XMM12, fr)
		return
	}
	g.inst("mov", addr, dreg(asm.R8.At(sizeOf(elemBase))))
	g.storeInt(n.Dst, asm.R8, fr)
}

func (g *Generator) emitMovv(n *tac.Node, fr *frame) {
	vecSym := n.Dst
	elemBase := vecSym.VarType
	g.loadVectorBase(vecSym, asm.R9)
	g.loadInt(n.Src0, asm.R10, fr)
	addr := asm.Indexed{Base: asm.R9, Index: asm.R10, Scale: elemBase.Size()}
	if elemBase == types.Real {
		g.loadFloat(n.Src1, asm.XMM12, fr)
		g.instNoSuffix("movsd", dreg(asm.XMM12), addr)
		return
	}
	g.loadInt(n.Src1, asm.R8, fr)
	g.inst("mov", dreg(asm.R8.At(sizeOf(elemBase))), addr)
}

func (g *Generator) emitNot(n *tac.Node, fr *frame) {
	g.loadInt(n.Src0, asm.R8, fr)
	g.inst("test", dreg(asm.R8), dreg(asm.R8))
	g.inst("sete", dreg(asm.R8.At(asm.Byte)))
	g.inst("movzbq", dreg(asm.R8.At(asm.Byte)), dreg(asm.R8.At(asm.Qword)))
	g.storeInt(n.Dst, asm.R8, fr)
}

func (g *Generator) emitArith(n *tac.Node, fr *frame) {
	operandBase := baseTypeOf(symtab.Resolved(n.Src0))
	if operandBase == types.Real {
		g.loadFloat(n.Src0, asm.XMM12, fr)
		g.loadFloat(n.Src1, asm.XMM13, fr)
		mnemonic := map[tac.Opcode]string{tac.Add: "addsd", tac.Sub: "subsd", tac.Mul: "mulsd", tac.Div: "divsd"}[n.Op]
		g.instNoSuffix(mnemonic, dreg(asm.XMM13), dreg(asm.XMM12))
		g.storeFloat(n.Dst, asm.XMM12, fr)
		return
	}

	sized := sizeOf(operandBase)
	g.loadInt(n.Src0, asm.R8, fr)
	g.loadInt(n.Src1, asm.R9, fr)
	switch n.Op {
	case tac.Add:
		g.inst("add", dreg(asm.R9.At(sized)), dreg(asm.R8.At(sized)))
	case tac.Sub:
		g.inst("sub", dreg(asm.R9.At(sized)), dreg(asm.R8.At(sized)))
	case tac.Mul:
		g.inst("imul", dreg(asm.R9.At(asm.Qword)), dreg(asm.R8.At(asm.Qword)))
	case tac.Div:
		g.inst("mov", dreg(asm.R8.At(asm.Qword)), dreg(asm.RAX))
		g.instNoSuffix("cqo")
		g.inst("idiv", dreg(asm.R9.At(asm.Qword)))
		g.inst("mov", dreg(asm.RAX.At(sized)), dreg(asm.R8.At(sized)))
	}
	g.storeInt(n.Dst, asm.R8, fr)
}

// emitShift lowers the power-of-two mul/div rewrites (§4.4): a negative
// shift amount means the original literal was negative, so the magnitude
// shift is followed by a sign flip.
func (g *Generator) emitShift(n *tac.Node, fr *frame) {
	raw := n.Src1.IntValue
	k := raw
	negate := false
	if k < 0 {
		k = -k
		negate = true
	}

	g.loadInt(n.Src0, asm.R8, fr)
	if n.Op == tac.Shmul {
		if k > 0 {
			g.inst("shl", asm.Immediate{Value: k}, dreg(asm.R8.At(asm.Qword)))
		}
	} else {
		if k > 0 {
			g.inst("mov", dreg(asm.R8.At(asm.Qword)), dreg(asm.R9))
			g.inst("sar", asm.Immediate{Value: 63}, dreg(asm.R9))
			g.inst("shr", asm.Immediate{Value: 64 - k}, dreg(asm.R9))
			g.inst("add", dreg(asm.R9), dreg(asm.R8.At(asm.Qword)))
			g.inst("sar", asm.Immediate{Value: k}, dreg(asm.R8.At(asm.Qword)))
		}
	}
	if negate {
		g.inst("neg", dreg(asm.R8.At(asm.Qword)))
	}
	g.storeInt(n.Dst, asm.R8, fr)
}

func (g *Generator) emitBitwiseBool(n *tac.Node, fr *frame) {
	g.loadInt(n.Src0, asm.R8, fr)
	g.loadInt(n.Src1, asm.R9, fr)
	op := "and"
	if n.Op == tac.Or {
		op = "or"
	}
	g.inst(op, dreg(asm.R9.At(asm.Qword)), dreg(asm.R8.At(asm.Qword)))
	g.storeInt(n.Dst, asm.R8, fr)
}

func (g *Generator) emitCompare(n *tac.Node, fr *frame) {
	operandBase := baseTypeOf(symtab.Resolved(n.Src0))
	if operandBase == types.Real {
		g.emitFloatCompare(n, fr)
		return
	}
	sized := sizeOf(operandBase)
	g.loadInt(n.Src0, asm.R8, fr)
	g.loadInt(n.Src1, asm.R9, fr)
	g.inst("cmp", dreg(asm.R9.At(sized)), dreg(asm.R8.At(sized)))
	setOp := map[tac.Opcode]string{
		tac.Eq: "sete", tac.Ne: "setne",
		tac.Lt: "setl", tac.Le: "setle", tac.Gt: "setg", tac.Ge: "setge",
	}[n.Op]
	g.inst(setOp, dreg(asm.R8.At(asm.Byte)))
	g.inst("movzbq", dreg(asm.R8.At(asm.Byte)), dreg(asm.R8.At(asm.Qword)))
	g.storeInt(n.Dst, asm.R8, fr)
}

// emitFloatCompare ANDs/ORs in a parity check alongside the condition code,
// so an unordered (NaN-involving) comparison never reports a false
// lt/le/gt/ge/eq hit (§4.5's NaN-safety note).
func (g *Generator) emitFloatCompare(n *tac.Node, fr *frame) {
	g.loadFloat(n.Src0, asm.XMM12, fr)
	g.loadFloat(n.Src1, asm.XMM13, fr)
	g.instNoSuffix("ucomisd", dreg(asm.XMM13), dreg(asm.XMM12))

	setOp := map[tac.Opcode]string{
		tac.Eq: "sete", tac.Ne: "setne",
		tac.Lt: "setb", tac.Le: "setbe", tac.Gt: "seta", tac.Ge: "setae",
	}[n.Op]
	g.inst(setOp, dreg(asm.R8.At(asm.Byte)))

	if n.Op == tac.Ne {
		g.inst("setp", dreg(asm.R9.At(asm.Byte)))
		g.inst("or", dreg(asm.R9.At(asm.Byte)), dreg(asm.R8.At(asm.Byte)))
	} else {
		g.inst("setnp", dreg(asm.R9.At(asm.Byte)))
		g.inst("and", dreg(asm.R9.At(asm.Byte)), dreg(asm.R8.At(asm.Byte)))
	}
	g.inst("movzbq", dreg(asm.R8.At(asm.Byte)), dreg(asm.R8.At(asm.Qword)))
	g.storeInt(n.Dst, asm.R8, fr)
}

// emitCall lowers a user function call: arguments placed per the System V
// class (integer/pointer vs. double), overflow arguments spilled to the
// stack with the padding needed to keep it 16-byte aligned at the call.
func (g *Generator) emitCall(n *tac.Node, args []*symtab.Symbol, fr *frame) {
	fn := n.Src0
	floatRegs := asm.FloatArgRegs()

	var stackArgs []*symtab.Symbol
	intIdx, fltIdx := 0, 0
	for i, arg := range args {
		ptype := types.Inte
		if i < len(fn.Signature.Params) {
			ptype = fn.Signature.Params[i]
		}
		if ptype == types.Real {
			if fltIdx < len(floatRegs) {
				g.loadFloat(arg, floatRegs[fltIdx], fr)
				fltIdx++
				continue
			}
		} else if intIdx < len(asm.IntArgRegs) {
			g.loadInt(arg, asm.IntArgRegs[intIdx], fr)
			intIdx++
			continue
		}
		stackArgs = append(stackArgs, arg)
	}

	pushed := 0
	if len(stackArgs)%2 == 1 {
		g.inst("push", asm.Immediate{Value: 0})
		pushed++
	}
	for i := len(stackArgs) - 1; i >= 0; i-- {
		g.loadInt(stackArgs[i], asm.R10, fr)
		g.inst("push", dreg(asm.R10))
		pushed++
	}

	g.inst("call", controlTarget(fn))
	if pushed > 0 {
		g.inst("add", asm.Immediate{Value: int64(8 * pushed)}, dreg(asm.RSP))
	}

	if n.Dst != nil {
		if fn.Signature.Return == types.Real {
			g.storeFloat(n.Dst, asm.XMM0, fr)
		} else {
			g.storeInt(n.Dst, asm.RAX, fr)
		}
	}
}

// emitPrint lowers one escreva argument (§4.5 "print dispatch"). Strings
// are not NUL-terminated in .rodata (quoteBytes emits a bare .ascii), so
// they go out via fwrite(buf, 1, len, stdout) (spec.md:188) rather than
// printf("%s", ...). Every other base type goes through printf with a
// format chosen by its type; AL carries the number of vector registers
// used, as the System V ABI requires for those variadic calls. fwrite
// itself is not variadic and needs no such count.
func (g *Generator) emitPrint(n *tac.Node, fr *frame) {
	printf := g.in.InternExternal("printf")
	v := n.Src0

	if v.Kind == symtab.KindStringLit {
		fwrite := g.in.InternExternal("fwrite")
		g.inst("lea", asm.Address{Symbol: g.rodataAddr(v)}, dreg(asm.RDI))
		g.inst("mov", asm.Immediate{Value: 1}, dreg(asm.RSI))
		g.inst("mov", asm.Immediate{Value: int64(len(v.StringBytes))}, dreg(asm.RDX))
		g.inst("mov", asm.Address{Symbol: "stdout"}, dreg(asm.RCX))
		g.inst("call", controlTarget(fwrite))
		return
	}

	base := baseTypeOf(symtab.Resolved(v))
	switch base {
	case types.Cara:
		fmtLit := g.in.InternStringLiteral(0, []byte("%c"))
		g.inst("lea", asm.Address{Symbol: g.rodataAddr(fmtLit)}, dreg(asm.RDI))
		g.loadInt(v, asm.RSI, fr)
		g.inst("movzbq", dreg(asm.RSI.At(asm.Byte)), dreg(asm.RSI.At(asm.Qword)))
		g.inst("mov", asm.Immediate{Value: 0}, dreg(asm.RAX.At(asm.Byte)))
		g.inst("call", controlTarget(printf))
	case types.Real:
		fmtLit := g.in.InternStringLiteral(0, []byte("%lf"))
		g.inst("lea", asm.Address{Symbol: g.rodataAddr(fmtLit)}, dreg(asm.RDI))
		g.loadFloat(v, asm.XMM0, fr)
		g.inst("mov", asm.Immediate{Value: 1}, dreg(asm.RAX.At(asm.Byte)))
		g.inst("call", controlTarget(printf))
	default:
		fmtLit := g.in.InternStringLiteral(0, []byte("%ld"))
		g.inst("lea", asm.Address{Symbol: g.rodataAddr(fmtLit)}, dreg(asm.RDI))
		g.loadInt(v, asm.RSI, fr)
		g.inst("mov", asm.Immediate{Value: 0}, dreg(asm.RAX.At(asm.Byte)))
		g.inst("call", controlTarget(printf))
	}
}
