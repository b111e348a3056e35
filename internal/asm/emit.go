package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// noSuffixOps never take a GAS size suffix: movabs is spelled out already,
// movq crosses the GPR/XMM bank boundary as a bitcast (§6), SSE opcodes
// carry their own "sd" suffix, and these control/stack mnemonics are
// suffix-free by convention.
var noSuffixOps = map[string]bool{
	"movabs": true, "movq": true, "movzbq": true, "movzbl": true,
	"addsd": true, "subsd": true, "mulsd": true, "divsd": true,
	"ucomisd": true, "cvtsi2sd": true, "cvttsd2si": true,
	"call": true, "jmp": true, "ret": true,
	"push": true, "pop": true, "leave": true, "cqo": true, "lea": true,
	"label": true,
}

// suffixless reports whether op must never carry a GAS size suffix: the
// fixed table above, plus every `set*` and `j*` (conditional jump) mnemonic,
// whose condition-code suffix already fully determines the encoding.
func suffixless(op string) bool {
	if noSuffixOps[op] {
		return true
	}
	if strings.HasPrefix(op, "set") {
		return true
	}
	if len(op) > 1 && op[0] == 'j' {
		return true
	}
	return false
}

// Render writes the whole assembly unit as GAS/AT&T syntax text.
func Render(u *AssemblyUnit) string {
	var sb strings.Builder
	for _, st := range u.Statements {
		switch s := st.(type) {
		case Label:
			fmt.Fprintf(&sb, "%q:\n", s.Name)
		case Directive:
			sb.WriteByte('.')
			sb.WriteString(s.Name)
			if len(s.Args) > 0 {
				sb.WriteByte(' ')
				sb.WriteString(strings.Join(s.Args, ", "))
			}
			sb.WriteByte('\n')
		case Instruction:
			renderInstruction(&sb, s)
		case *Instruction:
			renderInstruction(&sb, *s)
		}
	}
	return sb.String()
}

func renderInstruction(sb *strings.Builder, inst Instruction) {
	mnemonic := inst.Op
	if !inst.NoSuffix && !suffixless(inst.Op) {
		size := inst.ForceSize
		if !inst.HasForce {
			size = inferSize(inst)
		}
		mnemonic += string(size.Suffix())
	}
	sb.WriteString(mnemonic)
	if len(inst.Operands) > 0 {
		sb.WriteByte(' ')
		parts := make([]string, len(inst.Operands))
		for i, op := range inst.Operands {
			parts[i] = renderOperand(op)
		}
		sb.WriteString(strings.Join(parts, ", "))
	}
	sb.WriteByte('\n')
}

// inferSize picks the suffix-determining size: the widest direct register
// operand, per §8's "the larger direct register determines the suffix".
// Instructions with no register operand (pure memory/immediate forms,
// which this generator never emits) default to Qword.
func inferSize(inst Instruction) Size {
	widest := Byte
	seen := false
	for _, op := range inst.Operands {
		if reg, ok := RegOf(op); ok {
			if !seen || reg.Size > widest {
				widest = reg.Size
			}
			seen = true
		}
	}
	if !seen {
		return Qword
	}
	return widest
}

func renderOperand(op Operand) string {
	switch o := op.(type) {
	case Direct:
		return o.Reg.String()
	case Immediate:
		return "$" + strconv.FormatInt(o.Value, 10)
	case Address:
		return fmt.Sprintf("%q(%%rip)", o.Symbol)
	case PLTAddress:
		return fmt.Sprintf("%q@PLT", o.Symbol)
	case Bare:
		return fmt.Sprintf("%q", o.Symbol)
	case Displaced:
		return fmt.Sprintf("%d(%s)", o.Disp, o.Base)
	case Indexed:
		return fmt.Sprintf("%d(%s,%s,%d)", o.Disp, o.Base, o.Index, o.Scale)
	case Scaled:
		return fmt.Sprintf("%d(,%s,%d)", o.Disp, o.Index, o.Scale)
	}
	return "?"
}
