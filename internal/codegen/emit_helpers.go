package codegen

import "github.com/brunoczim/compiler-course/internal/asm"

// inst appends a suffix-inferred instruction to the function body text.
func (g *Generator) inst(op string, operands ...asm.Operand) {
	g.text = append(g.text, asm.Instruction{Op: op, Operands: operands})
}

// instNoSuffix appends an instruction that must never take a GAS size
// suffix (SSE opcodes, movabs, control flow); most of these are already
// listed in asm.noSuffixOps, but movsd's own emission path routes through
// here explicitly for clarity at the call site.
func (g *Generator) instNoSuffix(op string, operands ...asm.Operand) {
	g.text = append(g.text, asm.Instruction{Op: op, Operands: operands, NoSuffix: true})
}

func (g *Generator) lbl(name string) {
	g.text = append(g.text, asm.Label{Name: name})
}

func (g *Generator) dir(name string, args ...string) {
	g.text = append(g.text, asm.Directive{Name: name, Args: args})
}
