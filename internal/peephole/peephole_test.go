package peephole

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoczim/compiler-course/internal/asm"
)

func TestDedupAndIncContractWhenDestDeadAfterward(t *testing.T) {
	unit := &asm.AssemblyUnit{Statements: []asm.Statement{
		asm.Instruction{Op: "mov", Operands: []asm.Operand{asm.Direct{Reg: asm.RAX}, asm.Direct{Reg: asm.RBX}}},
		asm.Instruction{Op: "add", Operands: []asm.Operand{asm.Immediate{Value: 1}, asm.Direct{Reg: asm.RBX}}},
	}}

	DedupMoves(unit)
	require.Len(t, unit.Statements, 1)
	fused, ok := asInstruction(unit.Statements[0])
	require.True(t, ok)
	assert.Equal(t, "add", fused.Op)
	assert.Equal(t, asm.Immediate{Value: 1}, fused.Operands[0])
	reg, ok := asm.RegOf(fused.Operands[1])
	require.True(t, ok)
	assert.Equal(t, "ax", reg.Family())

	ContractIncDec(unit)
	inst, ok := asInstruction(unit.Statements[0])
	require.True(t, ok)
	assert.Equal(t, "inc", inst.Op)
	assert.Len(t, inst.Operands, 1)
}

func TestDedupLeavesMoveWhenDestReadLater(t *testing.T) {
	unit := &asm.AssemblyUnit{Statements: []asm.Statement{
		asm.Instruction{Op: "mov", Operands: []asm.Operand{asm.Direct{Reg: asm.RAX}, asm.Direct{Reg: asm.RBX}}},
		asm.Instruction{Op: "add", Operands: []asm.Operand{asm.Immediate{Value: 1}, asm.Direct{Reg: asm.RBX}}},
		asm.Instruction{Op: "mov", Operands: []asm.Operand{asm.Direct{Reg: asm.RBX}, asm.Direct{Reg: asm.RCX}}},
	}}

	DedupMoves(unit)
	// The first mov stays because %rbx is read after the add; the add itself
	// then fuses into the trailing plain mov of its result.
	require.Len(t, unit.Statements, 2)
	first, ok := asInstruction(unit.Statements[0])
	require.True(t, ok)
	assert.Equal(t, "mov", first.Op)

	ContractIncDec(unit)
	second, ok := asInstruction(unit.Statements[1])
	require.True(t, ok)
	assert.Equal(t, "inc", second.Op)
}

func TestDedupAbortsOnMemoryToMemory(t *testing.T) {
	unit := &asm.AssemblyUnit{Statements: []asm.Statement{
		asm.Instruction{Op: "mov", Operands: []asm.Operand{
			asm.Displaced{Disp: -8, Base: asm.RBP}, asm.Direct{Reg: asm.RAX},
		}},
		asm.Instruction{Op: "mov", Operands: []asm.Operand{
			asm.Direct{Reg: asm.RAX}, asm.Displaced{Disp: -16, Base: asm.RBP},
		}},
	}}

	DedupMoves(unit)
	require.Len(t, unit.Statements, 2)
}
