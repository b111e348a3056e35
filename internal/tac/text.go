package tac

import (
	"fmt"
	"strings"

	"github.com/brunoczim/compiler-course/internal/symtab"
)

func symOrAt0(s *symtab.Symbol) string {
	if s == nil {
		return "@0"
	}
	return s.Content
}

// DebugLine renders one node in the fixed debug-TAC form (§6):
// TAC(<MNEMONIC>, <dst|@0>, <src0|@0>, <src1|@0>).
func DebugLine(n *Node) string {
	return fmt.Sprintf("TAC(%s, %s, %s, %s)",
		strings.ToUpper(n.Op.String()), symOrAt0(n.Dst), symOrAt0(n.Src0), symOrAt0(n.Src1))
}

// DebugText renders every node of seq as one debug-TAC line, in order.
func DebugText(seq *Sequence) string {
	var sb strings.Builder
	seq.Each(func(n *Node) {
		sb.WriteString(DebugLine(n))
		sb.WriteByte('\n')
	})
	return sb.String()
}

// isMarker reports whether n is rendered as an unindented "name:" line in
// the textual form rather than an indented instruction.
func isMarker(n *Node) bool {
	return n.Op == Label || n.Op == BeginFun
}

// indentOf renders the textual form's configurable indent: a literal -1
// selects a tab, any n >= 0 selects n spaces (§6).
func indentOf(spaces int) string {
	if spaces < 0 {
		return "\t"
	}
	return strings.Repeat(" ", spaces)
}

// Render produces the textual pseudo-assembly TAC form (§6): markers
// unindented with a trailing colon, straight-line instructions indented
// with comma-separated operands after the mnemonic.
func Render(seq *Sequence, indentSpaces int) string {
	indent := indentOf(indentSpaces)
	var sb strings.Builder
	seq.Each(func(n *Node) {
		if isMarker(n) {
			sb.WriteString(n.Dst.Content)
			sb.WriteString(":\n")
			return
		}
		sb.WriteString(indent)
		sb.WriteString(n.Op.String())
		ops := operandList(n)
		if len(ops) > 0 {
			sb.WriteByte(' ')
			sb.WriteString(strings.Join(ops, ", "))
		}
		sb.WriteByte('\n')
	})
	return sb.String()
}

func operandList(n *Node) []string {
	var ops []string
	switch n.Op {
	case BeginVec, Defv, EndVec:
		ops = append(ops, n.Dst.Content, literalText(n.Src0))
	case Defs:
		ops = append(ops, n.Dst.Content, literalText(n.Src0))
	case Shmul, Shdiv:
		ops = append(ops, n.Dst.Content, n.Src0.Content, n.Src1.Content)
	default:
		for _, s := range []*symtab.Symbol{n.Dst, n.Src0, n.Src1} {
			if s != nil {
				ops = append(ops, s.Content)
			}
		}
	}
	return ops
}

func literalText(s *symtab.Symbol) string {
	if s == nil {
		return "@0"
	}
	return s.Content
}
