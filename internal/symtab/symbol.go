package symtab

import "github.com/brunoczim/compiler-course/internal/types"

// Kind classifies a Symbol's payload, matching the source language's
// symbol_type enumeration one-for-one.
type Kind int

const (
	KindUnresolved Kind = iota
	KindIntLit
	KindCharLit
	KindFloatLit
	KindStringLit
	KindScalarVar
	KindVectorVar
	KindTempScalar
	KindFunction
	KindLabel
	KindStrAddr
	KindFloatAddr
	KindExternal
	KindDirective
)

func (k Kind) String() string {
	switch k {
	case KindUnresolved:
		return "unresolved"
	case KindIntLit:
		return "int-lit"
	case KindCharLit:
		return "char-lit"
	case KindFloatLit:
		return "float-lit"
	case KindStringLit:
		return "string-lit"
	case KindScalarVar:
		return "scalar-var"
	case KindVectorVar:
		return "vector-var"
	case KindTempScalar:
		return "temp-scalar"
	case KindFunction:
		return "function"
	case KindLabel:
		return "label"
	case KindStrAddr:
		return "str-addr"
	case KindFloatAddr:
		return "float-addr"
	case KindExternal:
		return "external"
	case KindDirective:
		return "directive"
	}
	return "?"
}

// Symbol is the interner's sole record type: one discriminated payload per
// Kind, per spec.md §3. Two symbols of the same identity are never
// allocated twice — see Interner.Intern.
type Symbol struct {
	Content string
	Kind    Kind
	Line    int

	// KindIntLit
	IntValue int64

	// KindCharLit
	CharValue byte

	// KindFloatLit
	FloatValue float64
	FloatAddr  *Symbol // cached rodata address, populated lazily by codegen

	// KindStringLit
	StringBytes []byte
	StrAddr     *Symbol // cached rodata address, populated lazily by codegen

	// KindScalarVar, KindVectorVar, KindTempScalar
	VarType     types.Base
	InScope     bool
	StackSlot   int
	IsParam     bool // declared as a function parameter, not a top-level global
	Replacement *Symbol // temporary-reuse replacement, set by the TAC optimizer

	// KindFunction
	Signature types.Func
}

// IsTemp reports whether the symbol is a compiler-minted temporary scalar.
func (s *Symbol) IsTemp() bool {
	return s != nil && s.Kind == KindTempScalar
}

// Resolved follows the reuse-replacement chain installed by the temporary
// reuse optimizer (§4.4) to the symbol that should actually back storage.
func Resolved(s *Symbol) *Symbol {
	for s != nil && s.Replacement != nil {
		s = s.Replacement
	}
	return s
}
