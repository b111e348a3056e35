package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderInfersSuffixFromWidestDirectRegister(t *testing.T) {
	unit := &AssemblyUnit{}
	unit.Inst("mov", Immediate{Value: 1}, Direct{Reg: RAX.At(Dword)})
	unit.Inst("mov", Direct{Reg: RAX.At(Byte)}, Direct{Reg: RBX.At(Qword)})

	text := Render(unit)
	assert.Contains(t, text, "movl $1, %eax")
	assert.Contains(t, text, "movq %al, %rbx")
}

func TestRenderOmitsSuffixForSuffixlessOps(t *testing.T) {
	unit := &AssemblyUnit{}
	unit.Inst("call", PLTAddress{Symbol: "printf"})
	unit.Inst("sete", Direct{Reg: RAX.At(Byte)})
	unit.Inst("jz", Bare{Symbol: "L0"})
	unit.instNoSuffixHelper("movsd", Direct{Reg: XMM(0)}, Direct{Reg: XMM(1)})

	text := Render(unit)
	assert.Contains(t, text, `call "printf"@PLT`)
	assert.Contains(t, text, "sete %al")
	assert.Contains(t, text, `jz "L0"`)
	assert.Contains(t, text, "movsd %xmm0, %xmm1")
}

// instNoSuffixHelper mirrors codegen's own instNoSuffix, kept local so this
// test doesn't need to import the codegen package for one call shape.
func (u *AssemblyUnit) instNoSuffixHelper(op string, operands ...Operand) {
	u.Statements = append(u.Statements, Instruction{Op: op, Operands: operands, NoSuffix: true})
}

func TestRegFamilySharedAcrossWidths(t *testing.T) {
	assert.Equal(t, RAX.At(Byte).Family(), RAX.At(Qword).Family())
	assert.Equal(t, "ax", RAX.Family())
}

func TestNeedsMovabsBoundary(t *testing.T) {
	assert.False(t, NeedsMovabs(2147483647))
	assert.True(t, NeedsMovabs(2147483648))
	assert.False(t, NeedsMovabs(-2147483648))
	assert.True(t, NeedsMovabs(-2147483649))
}
