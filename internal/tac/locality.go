package tac

import "github.com/brunoczim/compiler-course/internal/symtab"

// Analyze runs the locality analyzer over seq (§4.3): it assigns
// function/block/local ids to every node, then discovers which
// temporary-scalar live ranges are confined to a single basic block. It is
// idempotent — a second call on the same sequence is a no-op.
func Analyze(seq *Sequence) {
	if seq.localityComputed {
		return
	}
	seq.localityComputed = true

	nodes := seq.Slice()
	assignIDs(nodes)
	blocks := splitBlocks(nodes)
	for _, blk := range blocks {
		findLocalValues(blk, nodes)
	}
}

// assignIDs is the analyzer's forward pass: boundaries get the BOUNDARY
// sentinel, straight-line nodes inherit the enclosing function id and a
// block id that increments after every boundary, with a fresh per-block
// local-id counter.
func assignIDs(nodes []*Node) {
	funcID := IDUnknown
	blockID := IDUnknown
	localSeq := 0
	inFunc := false

	for _, n := range nodes {
		switch {
		case n.Op == BeginFun:
			funcID++
			inFunc = true
			blockID = 0
			localSeq = 0
			n.FunctionID, n.BlockID, n.LocalID = funcID, IDBoundary, IDBoundary
		case n.Op == EndFun:
			n.FunctionID, n.BlockID, n.LocalID = funcID, IDBoundary, IDBoundary
			inFunc = false
		case !inFunc:
			// Global data declarations (defs/beginvec/defv/endvec) sit
			// outside any function; they are boundaries with no block.
			n.FunctionID, n.BlockID, n.LocalID = IDUnknown, IDBoundary, IDBoundary
		case n.Op.IsBoundary():
			n.FunctionID, n.BlockID, n.LocalID = funcID, IDBoundary, IDBoundary
			blockID++
			localSeq = 0
		default:
			n.FunctionID, n.BlockID, n.LocalID = funcID, blockID, localSeq
			localSeq++
		}
	}
}

// block is one maximal straight-line run, tagged with the ids assignIDs
// gave its members.
type block struct {
	functionID int
	blockID    int
	nodes      []*Node
}

func splitBlocks(nodes []*Node) []*block {
	var blocks []*block
	var cur *block
	for _, n := range nodes {
		if n.BlockID == IDBoundary {
			cur = nil
			continue
		}
		if cur == nil || cur.functionID != n.FunctionID || cur.blockID != n.BlockID {
			cur = &block{functionID: n.FunctionID, blockID: n.BlockID}
			blocks = append(blocks, cur)
		}
		cur.nodes = append(cur.nodes, n)
	}
	return blocks
}

func refsSymbol(n *Node, sym *symtab.Symbol) bool {
	return n.Dst == sym || n.Src0 == sym || n.Src1 == sym
}

// findLocalValues implements step 2-3 of §4.3 for one block: for every
// straight-line node defining a temporary, find the last in-block use, then
// cancel the range if the symbol is referenced anywhere else in the
// function outside that span.
func findLocalValues(blk *block, all []*Node) {
	for i, start := range blk.nodes {
		sym := start.Dst
		if sym == nil || sym.Kind != symtab.KindTempScalar {
			continue
		}
		endIdx := i
		for j := i + 1; j < len(blk.nodes); j++ {
			if refsSymbol(blk.nodes[j], sym) {
				endIdx = j
			}
		}
		end := blk.nodes[endIdx]

		if referencedOutside(all, sym, start.FunctionID, blk.nodes[i:endIdx+1]) {
			continue
		}

		lv := &LocalValue{
			FunctionID:  blk.functionID,
			BlockID:     blk.blockID,
			StartID:     start.LocalID,
			EndID:       end.LocalID,
			StartNode:   start,
			EndNode:     end,
			OldSymbol:   sym,
			SymbolInUse: sym,
		}
		start.StartingLocalValue = lv
		insertEndingSorted(end, lv)
	}
}

// referencedOutside reports whether sym is read or written by any node in
// the same function that is not part of span.
func referencedOutside(all []*Node, sym *symtab.Symbol, functionID int, span []*Node) bool {
	inSpan := make(map[*Node]bool, len(span))
	for _, n := range span {
		inSpan[n] = true
	}
	for _, n := range all {
		if n.FunctionID != functionID || inSpan[n] {
			continue
		}
		if refsSymbol(n, sym) {
			return true
		}
	}
	return false
}

// insertEndingSorted inserts lv into end.EndingLocalValues in order by
// (StartID, BlockID), per §3's local value record ordering.
func insertEndingSorted(end *Node, lv *LocalValue) {
	list := end.EndingLocalValues
	i := 0
	for i < len(list) && (list[i].StartID < lv.StartID ||
		(list[i].StartID == lv.StartID && list[i].BlockID < lv.BlockID)) {
		i++
	}
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = lv
	end.EndingLocalValues = list
}
