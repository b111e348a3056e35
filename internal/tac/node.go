package tac

import "github.com/brunoczim/compiler-course/internal/symtab"

// Sentinel local-id / block-id values, per §3's "Ids use the sentinel
// values" note. Normal ids are >= 0.
const (
	IDUnknown  = -1
	IDBoundary = -2
	IDNonLocal = -3
)

// LocalValue is a temporary's live range confined to one basic block inside
// one function (§3 "Local value record").
type LocalValue struct {
	FunctionID int
	BlockID    int
	StartID    int
	EndID      int
	StartNode  *Node
	EndNode    *Node

	OldSymbol     *symtab.Symbol
	SymbolInUse   *symtab.Symbol
	SymbolOffered *symtab.Symbol
}

// Node is one TAC instruction: an opcode, up to one destination and two
// source operands (any may be nil), plus the locality bookkeeping the
// analyzer and optimizer attach. Prev/Next link it into its owning Sequence.
type Node struct {
	Prev, Next *Node

	Op   Opcode
	Dst  *symtab.Symbol
	Src0 *symtab.Symbol
	Src1 *symtab.Symbol
	Line int

	FunctionID int
	BlockID    int
	LocalID    int

	StartingLocalValue *LocalValue
	EndingLocalValues  []*LocalValue

	LocalityComputed bool
}

// Sequence is a doubly linked list of Nodes in program order, owning every
// node and local-value record it holds.
type Sequence struct {
	Head, Tail *Node

	localityComputed bool
	nextFunctionID    int
}

// NewSequence returns an empty instruction sequence.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Append adds a new node to the tail of the sequence and returns it.
func (s *Sequence) Append(op Opcode, dst, src0, src1 *symtab.Symbol, line int) *Node {
	n := &Node{
		Op: op, Dst: dst, Src0: src0, Src1: src1, Line: line,
		FunctionID: IDUnknown, BlockID: IDUnknown, LocalID: IDUnknown,
	}
	if s.Tail == nil {
		s.Head, s.Tail = n, n
	} else {
		n.Prev = s.Tail
		s.Tail.Next = n
		s.Tail = n
	}
	return n
}

// Last returns the tail node, or nil if the sequence is empty.
func (s *Sequence) Last() *Node { return s.Tail }

// RemoveLast detaches and discards the tail node.
func (s *Sequence) RemoveLast() {
	if s.Tail == nil {
		return
	}
	s.Tail = s.Tail.Prev
	if s.Tail == nil {
		s.Head = nil
	} else {
		s.Tail.Next = nil
	}
}

// Each calls fn for every node from Head to Tail, in order.
func (s *Sequence) Each(fn func(*Node)) {
	for n := s.Head; n != nil; n = n.Next {
		fn(n)
	}
}

// Slice materializes the sequence as a slice, for passes that prefer random
// access (the optimizer's per-block pooling, the peephole's cursor sweep's
// assembly-side counterpart).
func (s *Sequence) Slice() []*Node {
	var out []*Node
	s.Each(func(n *Node) { out = append(out, n) })
	return out
}

// AppendSequence joins other onto the end of s, in place.
func (s *Sequence) AppendSequence(other *Sequence) {
	if other == nil || other.Head == nil {
		return
	}
	if s.Tail == nil {
		s.Head, s.Tail = other.Head, other.Tail
		return
	}
	s.Tail.Next = other.Head
	other.Head.Prev = s.Tail
	s.Tail = other.Tail
}
