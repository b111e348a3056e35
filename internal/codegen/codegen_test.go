package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoczim/compiler-course/internal/asm"
	"github.com/brunoczim/compiler-course/internal/symtab"
	"github.com/brunoczim/compiler-course/internal/tac"
	"github.com/brunoczim/compiler-course/internal/types"
)

// buildMinimalProgram hand-assembles a tac.Sequence for:
//   inte x = 5;
//   inte principal() { retorne 42; }
// bypassing the lexer/parser/producer to isolate codegen's own lowering.
func buildMinimalProgram(in *symtab.Interner) *tac.Sequence {
	x := in.InternAt("x", 1)
	x.Kind = symtab.KindScalarVar
	x.VarType = types.Inte

	seq := tac.NewSequence()
	seq.Append(tac.Defs, x, in.InternIntLiteral(1, 5), nil, 1)

	fn := in.InternAt("principal", 2)
	fn.Kind = symtab.KindFunction
	fn.Signature = types.Func{Return: types.Inte}

	seq.Append(tac.BeginFun, fn, nil, nil, 2)
	seq.Append(tac.Ret, nil, in.InternIntLiteral(2, 42), nil, 2)
	seq.Append(tac.EndFun, fn, nil, nil, 2)
	return seq
}

func TestGenerateEmitsGlobalAndFunction(t *testing.T) {
	in := symtab.New()
	seq := buildMinimalProgram(in)

	unit := Generate(seq, in)
	text := asm.Render(unit)

	assert.Contains(t, text, ".section .data")
	assert.Contains(t, text, "x\":")
	assert.Contains(t, text, ".quad 5")
	assert.Contains(t, text, "\"principal\":")
	assert.Contains(t, text, ".globl principal")
	assert.Contains(t, text, "leave")
	assert.Contains(t, text, "ret")
}

func TestGenerateStackAlignedCallSequence(t *testing.T) {
	in := symtab.New()

	callee := in.InternAt("soma", 1)
	callee.Kind = symtab.KindFunction
	callee.Signature = types.Func{Return: types.Inte, Params: []types.Base{types.Inte, types.Inte}}

	caller := in.InternAt("principal", 2)
	caller.Kind = symtab.KindFunction
	caller.Signature = types.Func{Return: types.Inte}

	paramA := in.InternAt("a", 1)
	paramA.Kind = symtab.KindScalarVar
	paramA.VarType = types.Inte
	paramA.IsParam = true
	paramB := in.InternAt("b", 1)
	paramB.Kind = symtab.KindScalarVar
	paramB.VarType = types.Inte
	paramB.IsParam = true

	seq := tac.NewSequence()
	seq.Append(tac.BeginFun, callee, nil, nil, 1)
	seq.Append(tac.Defp, paramA, nil, nil, 1)
	seq.Append(tac.Defp, paramB, nil, nil, 1)
	seq.Append(tac.Ret, nil, paramA, nil, 1)
	seq.Append(tac.EndFun, callee, nil, nil, 1)

	seq.Append(tac.BeginFun, caller, nil, nil, 2)
	seq.Append(tac.Arg, nil, in.InternIntLiteral(2, 1), nil, 2)
	seq.Append(tac.Arg, nil, in.InternIntLiteral(2, 2), nil, 2)
	result := in.MintTempScalar(types.Inte)
	seq.Append(tac.Call, result, callee, nil, 2)
	seq.Append(tac.Ret, nil, result, nil, 2)
	seq.Append(tac.EndFun, caller, nil, nil, 2)

	unit := Generate(seq, in)
	text := asm.Render(unit)

	require.True(t, strings.Contains(text, "call \"soma\""))
	// Two integer args both fit in registers: no stack spill, so no argument
	// is pushed (the prologue's own push %rbp is still there).
	assert.NotContains(t, text, "push %r10")
}

func TestGeneratePrintStringLiteralUsesFwriteNotPrintf(t *testing.T) {
	in := symtab.New()

	fn := in.InternAt("principal", 1)
	fn.Kind = symtab.KindFunction
	fn.Signature = types.Func{Return: types.Inte}

	lit := in.InternStringLiteral(1, []byte("oi"))

	seq := tac.NewSequence()
	seq.Append(tac.BeginFun, fn, nil, nil, 1)
	seq.Append(tac.Print, nil, lit, nil, 1)
	seq.Append(tac.Ret, nil, in.InternIntLiteral(1, 0), nil, 1)
	seq.Append(tac.EndFun, fn, nil, nil, 1)

	unit := Generate(seq, in)
	text := asm.Render(unit)

	assert.Contains(t, text, "call \"fwrite\"")
	assert.Contains(t, text, "stdout")
	// A bare-printf %s call on the literal's buffer would be the bug this
	// guards against: printf is still used by non-string prints elsewhere,
	// so assert that no "%s" format string is emitted instead of asserting
	// printf's absence from the whole unit.
	assert.NotContains(t, text, "\"%s\"")
}
