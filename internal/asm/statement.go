package asm

// Statement is one line of an AssemblyUnit: an Instruction, a Label, or a
// Directive (§3).
type Statement interface {
	isStatement()
}

// Instruction is one mnemonic plus its operands, in AT&T order
// (source(s) before destination). ForceSize, when HasForce is set, replaces
// the size the emitter would otherwise infer for the suffix; NoSuffix forces
// the emitter to omit a suffix (movq between GPR/XMM banks, SSE opcodes) and
// takes precedence over ForceSize.
type Instruction struct {
	Op        string
	Operands  []Operand
	NoSuffix  bool
	ForceSize Size
	HasForce  bool
}

// Label is a definition point, quoted per §6 ("name":).
type Label struct{ Name string }

// Directive is an assembler directive (.globl, .align, .quad, ...).
type Directive struct {
	Name string
	Args []string
}

func (Instruction) isStatement() {}
func (Label) isStatement()       {}
func (Directive) isStatement()   {}

// AssemblyUnit is the ordered statement sequence the generator builds and
// the peephole optimizer rewrites in place.
type AssemblyUnit struct {
	Statements []Statement
}

// Emit appends a statement.
func (u *AssemblyUnit) Emit(s Statement) {
	u.Statements = append(u.Statements, s)
}

// Inst is a convenience constructor for an Instruction statement.
func (u *AssemblyUnit) Inst(op string, operands ...Operand) *Instruction {
	inst := &Instruction{Op: op, Operands: operands}
	u.Statements = append(u.Statements, inst)
	return inst
}

// Lbl emits a label.
func (u *AssemblyUnit) Lbl(name string) {
	u.Statements = append(u.Statements, Label{Name: name})
}

// Dir emits a directive.
func (u *AssemblyUnit) Dir(name string, args ...string) {
	u.Statements = append(u.Statements, Directive{Name: name, Args: args})
}
