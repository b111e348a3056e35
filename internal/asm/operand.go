// Package asm is the typed x86-64 assembly model (§3 "Assembly unit") and
// its GNU Assembler / AT&T syntax textual emitter (§6). The code generator
// builds an AssemblyUnit; nothing in this package knows about TAC.
package asm

import "fmt"

// Size is an operand's width, carried by register operands so the emitter
// can pick the right opcode suffix and by memory operands so it can pick
// the right element stride.
type Size int

const (
	Byte Size = iota
	Word
	Dword
	Qword
	XMMSize
)

// Suffix returns the GAS size suffix for non-SSE opcodes (b/w/l/q).
func (s Size) Suffix() byte {
	switch s {
	case Byte:
		return 'b'
	case Word:
		return 'w'
	case Dword:
		return 'l'
	default:
		return 'q'
	}
}

// Bytes returns the operand's width in bytes.
func (s Size) Bytes() int {
	switch s {
	case Byte:
		return 1
	case Word:
		return 2
	case Dword:
		return 4
	default:
		return 8
	}
}

// Reg is a physical register, general-purpose or XMM, named at a given
// size; RAX at Dword size prints as %eax, at Byte as %al, and so on.
type Reg struct {
	family string // canonical 64-bit/xmm family name: "ax", "r8", "xmm0", ...
	Size   Size
}

func (r Reg) String() string {
	return "%" + r.attName()
}

func (r Reg) attName() string {
	if r.Size == XMMSize {
		return r.family
	}
	// Legacy 8 general registers have irregular byte/word/dword spellings;
	// r8-r15 just append a size letter.
	if legacy, ok := legacyNames[r.family]; ok {
		switch r.Size {
		case Byte:
			return legacy[0]
		case Word:
			return legacy[1]
		case Dword:
			return legacy[2]
		default:
			return legacy[3]
		}
	}
	switch r.Size {
	case Byte:
		return r.family + "b"
	case Word:
		return r.family + "w"
	case Dword:
		return r.family + "d"
	default:
		return r.family
	}
}

var legacyNames = map[string][4]string{
	"ax": {"al", "ax", "eax", "rax"},
	"bx": {"bl", "bx", "ebx", "rbx"},
	"cx": {"cl", "cx", "ecx", "rcx"},
	"dx": {"dl", "dx", "edx", "rdx"},
	"si": {"sil", "si", "esi", "rsi"},
	"di": {"dil", "di", "edi", "rdi"},
	"bp": {"bpl", "bp", "ebp", "rbp"},
	"sp": {"spl", "sp", "esp", "rsp"},
}

// At returns r resized to size.
func (r Reg) At(size Size) Reg { return Reg{family: r.family, Size: size} }

// Family identifies r's physical register independent of the width it was
// named at — %eax and %rax share a family, so the peephole optimizer can
// recognize a read/write of "the same register" across size-suffixed forms.
func (r Reg) Family() string { return r.family }

// Fixed-role registers named by the code generator (§4.5's "scratch
// register convention" and the ABI argument registers).
var (
	RAX = Reg{family: "ax", Size: Qword}
	RBX = Reg{family: "bx", Size: Qword}
	RCX = Reg{family: "cx", Size: Qword}
	RDX = Reg{family: "dx", Size: Qword}
	RSI = Reg{family: "si", Size: Qword}
	RDI = Reg{family: "di", Size: Qword}
	RBP = Reg{family: "bp", Size: Qword}
	RSP = Reg{family: "sp", Size: Qword}
	R8  = Reg{family: "r8", Size: Qword}
	R9  = Reg{family: "r9", Size: Qword}
	R10 = Reg{family: "r10", Size: Qword}
	R11 = Reg{family: "r11", Size: Qword}
)

// XMM returns the n'th (0-15) XMM register.
func XMM(n int) Reg { return Reg{family: fmt.Sprintf("xmm%d", n), Size: XMMSize} }

// XMM0 carries float returns; XMM12 and XMM13 are the generator's float
// scratch registers.
var (
	XMM0  = XMM(0)
	XMM12 = XMM(12)
	XMM13 = XMM(13)
)

// IntArgRegs and FloatArgRegs list the System V argument-passing registers
// in positional order (§4.5 ABI).
var IntArgRegs = []Reg{RDI, RSI, RDX, RCX, R8, R9}

func FloatArgRegs() []Reg {
	regs := make([]Reg, 8)
	for i := range regs {
		regs[i] = XMM(i)
	}
	return regs
}

// Operand is any addressable x86-64 operand (§3's addressing-mode list).
type Operand interface {
	isOperand()
}

// Direct is a bare register operand.
type Direct struct{ Reg Reg }

// Immediate is a `$N` constant. Whether a value needs movabs rather than
// mov (outside the signed 32-bit range) is decided by NeedsMovabs.
type Immediate struct {
	Value int64
}

// Address is a `name(%rip)`-style direct reference to a label — used for
// globals and rodata constants under the `-fpic`-free model §4 assumes.
type Address struct{ Symbol string }

// PLTAddress is `"name"@PLT`, used for external call targets.
type PLTAddress struct{ Symbol string }

// Bare is a quoted label reference with no addressing-mode decoration,
// used as a jmp/jz/call target for locally defined labels and functions.
type Bare struct{ Symbol string }

// Displaced is `disp(base)`.
type Displaced struct {
	Disp int64
	Base Reg
}

// Indexed is `disp(base,index,scale)`.
type Indexed struct {
	Disp  int64
	Base  Reg
	Index Reg
	Scale int
}

// Scaled is `disp(,index,scale)` — indexed with no base register.
type Scaled struct {
	Disp  int64
	Index Reg
	Scale int
}

func (Direct) isOperand()     {}
func (Immediate) isOperand()  {}
func (Address) isOperand()    {}
func (PLTAddress) isOperand() {}
func (Bare) isOperand()       {}
func (Displaced) isOperand()  {}
func (Indexed) isOperand()    {}
func (Scaled) isOperand()     {}

// RegOf returns the register a Direct operand wraps, and whether op is one.
func RegOf(op Operand) (Reg, bool) {
	if d, ok := op.(Direct); ok {
		return d.Reg, true
	}
	return Reg{}, false
}

// NeedsMovabs reports whether an immediate value requires movabs (outside
// signed INT32 range), per §6's "Integer literals ≤ INT32 use mov; wider
// ones use movabs".
func NeedsMovabs(v int64) bool {
	return v > 2147483647 || v < -2147483648
}
