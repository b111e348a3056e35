package tac

import (
	"strconv"

	"github.com/brunoczim/compiler-course/internal/symtab"
)

// Flags selects which TAC-level optimizer passes run, per §4.4's
// "gated by individual flags, union-of-flags semantics".
type Flags struct {
	PowerOfTwo bool
	ReuseTemps bool
}

// Optimize runs the requested passes over seq in place.
func Optimize(seq *Sequence, f Flags) {
	if f.PowerOfTwo {
		powerOfTwo(seq)
	}
	if f.ReuseTemps {
		Analyze(seq)
		reuseTemps(seq)
	}
}

// log2Exact returns (k, true) if |n| is a nonzero power of two, per §4.4's
// "stripping its sign and trailing zero bits leaves exactly 1" test.
func log2Exact(n int64) (int, bool) {
	if n == 0 {
		return 0, false
	}
	abs := n
	if abs < 0 {
		abs = -abs
	}
	k := 0
	v := abs
	for v&1 == 0 {
		v >>= 1
		k++
	}
	if v != 1 {
		return 0, false
	}
	return k, true
}

func powerOfTwo(seq *Sequence) {
	seq.Each(func(n *Node) {
		switch n.Op {
		case Mul:
			if lit, other, ok := litOperand(n.Src0, n.Src1); ok {
				if k, isPow := log2Exact(lit.IntValue); isPow {
					shift := k
					if lit.IntValue < 0 {
						shift = -k
					}
					n.Op = Shmul
					n.Src0 = other
					n.Src1 = shiftLiteral(shift)
				}
			}
		case Div:
			if lit, ok := intLiteral(n.Src1); ok {
				if k, isPow := log2Exact(lit.IntValue); isPow {
					shift := k
					if lit.IntValue < 0 {
						shift = -k
					}
					n.Op = Shdiv
					n.Src1 = shiftLiteral(shift)
				}
			}
		}
	})
}

func intLiteral(s *symtab.Symbol) (*symtab.Symbol, bool) {
	if s != nil && s.Kind == symtab.KindIntLit {
		return s, true
	}
	return nil, false
}

// litOperand finds which of a,b (if either) is an integer literal and
// returns it plus the other operand.
func litOperand(a, b *symtab.Symbol) (lit, other *symtab.Symbol, ok bool) {
	if lit, ok := intLiteral(a); ok {
		return lit, b, true
	}
	if lit, ok := intLiteral(b); ok {
		return lit, a, true
	}
	return nil, nil, false
}

// shiftLiteral mints a synthetic int-literal symbol for a shift amount; it
// is never interned under a user-visible key since `k` is a codegen-only
// value, not a source literal, so a fresh record avoids colliding with an
// equal-valued source literal's entry.
func shiftLiteral(k int) *symtab.Symbol {
	return &symtab.Symbol{Kind: symtab.KindIntLit, IntValue: int64(k), Content: strconv.FormatInt(int64(k), 10)}
}

// reuseTemps implements §4.4's temporary-reuse pass: after locality
// analysis, walk each block maintaining a pool of freed local values; reuse
// one's offered symbol whenever a fresh local range starts.
func reuseTemps(seq *Sequence) {
	nodes := seq.Slice()
	blocks := splitBlocks(nodes)
	for _, blk := range blocks {
		reuseBlock(blk)
	}
}

func reuseBlock(blk *block) {
	var pool []*LocalValue
	for _, n := range blk.nodes {
		substituteReplacements(n)

		starting := n.StartingLocalValue
		for _, lv := range n.EndingLocalValues {
			if lv == starting {
				// A range that starts and ends here is freed only after its
				// own symbol is chosen, so it never reuses itself.
				continue
			}
			lv.SymbolOffered = lv.SymbolInUse
			pool = append(pool, lv)
		}

		if lv := starting; lv != nil && len(pool) > 0 {
			freed := pool[len(pool)-1]
			pool = pool[:len(pool)-1]
			lv.SymbolInUse = freed.SymbolOffered
			n.Dst = lv.SymbolInUse
			lv.OldSymbol.Replacement = lv.SymbolInUse
		}
		if starting != nil && starting.EndNode == n {
			starting.SymbolOffered = starting.SymbolInUse
			pool = append(pool, starting)
		}
	}
}

// substituteReplacements rewrites n's source operands through any
// reuse-replacement chain installed by an earlier node in this block.
func substituteReplacements(n *Node) {
	if n.Src0 != nil {
		n.Src0 = symtab.Resolved(n.Src0)
	}
	if n.Src1 != nil {
		n.Src1 = symtab.Resolved(n.Src1)
	}
}
