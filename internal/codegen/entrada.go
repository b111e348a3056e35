package codegen

import "github.com/brunoczim/compiler-course/internal/asm"

// emitEntrada hand-writes the `entrada` runtime routine backing the
// `entrada` read-expression (spec.md:191): consume bytes from stdin via
// getchar, discarding and retrying on any byte that is not '+', '-', or a
// digit, then push the first matching byte back with ungetc and retry
// scanf("%li", ...) until it reports one converted field. The parsed value
// comes back in %rax.
func emitEntrada(g *Generator) {
	getchar := g.in.InternExternal("getchar")
	ungetc := g.in.InternExternal("ungetc")
	scanf := g.in.InternExternal("__isoc99_scanf")
	fmtLit := g.in.InternStringLiteral(0, []byte("%li"))

	const skipLoop = "@entrada_skip"
	const skipDone = "@entrada_skip_done"
	const retryLoop = "@entrada_retry"

	g.dir("globl", "entrada")
	g.lbl("entrada")
	g.inst("push", dreg(asm.RBP))
	g.inst("mov", dreg(asm.RSP), dreg(asm.RBP))
	g.inst("sub", asm.Immediate{Value: 16}, dreg(asm.RSP))

	g.lbl(skipLoop)
	g.inst("call", controlTarget(getchar))
	g.inst("cmp", asm.Immediate{Value: '+'}, dreg(asm.RAX.At(asm.Dword)))
	g.inst("je", asm.Bare{Symbol: skipDone})
	g.inst("cmp", asm.Immediate{Value: '-'}, dreg(asm.RAX.At(asm.Dword)))
	g.inst("je", asm.Bare{Symbol: skipDone})
	g.inst("mov", dreg(asm.RAX.At(asm.Dword)), dreg(asm.RCX.At(asm.Dword)))
	g.inst("sub", asm.Immediate{Value: '0'}, dreg(asm.RCX.At(asm.Dword)))
	g.inst("cmp", asm.Immediate{Value: 9}, dreg(asm.RCX.At(asm.Dword)))
	g.inst("jbe", asm.Bare{Symbol: skipDone})
	g.inst("jmp", asm.Bare{Symbol: skipLoop})

	g.lbl(skipDone)
	g.inst("mov", dreg(asm.RAX.At(asm.Dword)), dreg(asm.RDI.At(asm.Dword)))
	g.inst("mov", asm.Address{Symbol: "stdin"}, dreg(asm.RSI))
	g.inst("call", controlTarget(ungetc))

	g.lbl(retryLoop)
	g.inst("lea", asm.Address{Symbol: g.rodataAddr(fmtLit)}, dreg(asm.RDI))
	g.inst("lea", asm.Displaced{Disp: -8, Base: asm.RBP}, dreg(asm.RSI))
	g.inst("mov", asm.Immediate{Value: 0}, dreg(asm.RAX.At(asm.Byte)))
	g.inst("call", controlTarget(scanf))
	g.inst("cmp", asm.Immediate{Value: 1}, dreg(asm.RAX.At(asm.Dword)))
	g.inst("jne", asm.Bare{Symbol: retryLoop})

	g.inst("mov", asm.Displaced{Disp: -8, Base: asm.RBP}, dreg(asm.RAX))
	g.inst("leave")
	g.inst("ret")
}
