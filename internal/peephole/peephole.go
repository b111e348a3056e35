// Package peephole runs the two assembly-level optimizer passes of §4.6
// over an already-emitted asm.AssemblyUnit: move deduplication and inc/dec
// contraction. Both operate on the flat Statements slice in place, treating
// a Label or Directive as the edge of the straight-line region a candidate
// instruction's destination register can be tracked across.
package peephole

import "github.com/brunoczim/compiler-course/internal/asm"

// implicitClobbers lists, per mnemonic, the register families it writes as
// a fixed side effect beyond whatever its own operand list names.
var implicitClobbers = map[string][]string{
	"imul": {"ax"},
	"idiv": {"ax", "dx"},
	"cqo":  {"ax", "dx"},
	"push": {"sp"},
	"pop":  {"sp"},
}

func asInstruction(st asm.Statement) (asm.Instruction, bool) {
	switch v := st.(type) {
	case asm.Instruction:
		return v, true
	case *asm.Instruction:
		return *v, true
	}
	return asm.Instruction{}, false
}

// isFusable reports whether inst qualifies as a move-dedup candidate: its
// last operand (the destination, per this package's AT&T "source(s) before
// destination" operand order) is a direct register write. movq is excluded
// because it crosses the GPR/XMM bank; movabs is excluded because its
// 64-bit immediate may not fit a narrower follower destination.
func isFusable(inst asm.Instruction) bool {
	if len(inst.Operands) < 2 || inst.Op == "movq" || inst.Op == "movabs" {
		return false
	}
	_, ok := asm.RegOf(inst.Operands[len(inst.Operands)-1])
	return ok
}

// endsRegion reports whether inst is control flow: a candidate's
// destination register can't be tracked past it.
func endsRegion(inst asm.Instruction) bool {
	if inst.Op == "call" || inst.Op == "ret" || inst.Op == "leave" {
		return true
	}
	return len(inst.Op) > 1 && inst.Op[0] == 'j'
}

func directReadIndex(inst asm.Instruction, reg asm.Reg) (int, bool) {
	for idx, op := range inst.Operands {
		if r, ok := asm.RegOf(op); ok && r.Family() == reg.Family() {
			return idx, true
		}
	}
	return 0, false
}

// writesWithoutReading reports whether inst overwrites reg in its
// destination slot without reading it anywhere in the instruction first
// (rule b: a write with no intervening read ends the candidate's life).
func writesWithoutReading(inst asm.Instruction, reg asm.Reg) bool {
	if len(inst.Operands) == 0 {
		return false
	}
	dst, ok := asm.RegOf(inst.Operands[len(inst.Operands)-1])
	if !ok || dst.Family() != reg.Family() {
		return false
	}
	_, reads := directReadIndex(inst, reg)
	return !reads
}

func clobbersImplicitly(inst asm.Instruction, reg asm.Reg) bool {
	for _, fam := range implicitClobbers[inst.Op] {
		if fam == reg.Family() {
			return true
		}
	}
	return false
}

// fitsDest reports whether imm's value fits in dest's operand width,
// per the "never fuse an immediate larger than the follower's destination"
// safety restriction.
func fitsDest(imm asm.Immediate, dest asm.Operand) bool {
	reg, ok := asm.RegOf(dest)
	if !ok {
		return true
	}
	bits := uint(reg.Size.Bytes() * 8)
	if bits >= 64 {
		return true
	}
	limit := int64(1) << (bits - 1)
	return imm.Value >= -limit && imm.Value < limit
}

// fuse merges cand into follower (which reads cand's destination register
// at operand index readIdx), returning the replacement for follower and
// whether the merge was safe to perform.
func fuse(cand, follower asm.Instruction, readIdx int) (asm.Instruction, bool) {
	src := cand.Operands[0]
	followerDst := follower.Operands[len(follower.Operands)-1]

	if _, destMem := followerDst.(asm.Displaced); destMem {
		if _, srcMem := src.(asm.Displaced); srcMem {
			return asm.Instruction{}, false // never fuse memory-to-memory
		}
	}
	if imm, ok := src.(asm.Immediate); ok && !fitsDest(imm, followerDst) {
		return asm.Instruction{}, false
	}

	if cand.Op == "mov" {
		out := follower
		out.Operands = append([]asm.Operand(nil), follower.Operands...)
		out.Operands[readIdx] = src
		return out, true
	}

	// A non-move candidate (add, lea, ...) only fuses into a follower that
	// is a plain mov of its result: the candidate's own opcode and sources
	// take the follower's place, writing directly to the follower's real
	// destination.
	if follower.Op != "mov" || len(follower.Operands) != 2 || readIdx != 0 {
		return asm.Instruction{}, false
	}
	out := asm.Instruction{Op: cand.Op}
	out.Operands = append(out.Operands, cand.Operands[:len(cand.Operands)-1]...)
	out.Operands = append(out.Operands, followerDst)
	return out, true
}

// readLaterUnsafe reports whether, scanning forward from stmts[from] within
// the current straight-line region, reg is read before it is next
// rewritten — meaning a fusion that retargets reg's producer would starve
// that later read.
func readLaterUnsafe(stmts []asm.Statement, from int, reg asm.Reg) bool {
	for k := from; k < len(stmts); k++ {
		inst, ok := asInstruction(stmts[k])
		if !ok {
			return false
		}
		if endsRegion(inst) {
			return false
		}
		if _, reads := directReadIndex(inst, reg); reads {
			return true
		}
		if writesWithoutReading(inst, reg) {
			return false
		}
	}
	return false
}

// DedupMoves runs the move-deduplication pass over unit in place.
func DedupMoves(unit *asm.AssemblyUnit) {
	stmts := append([]asm.Statement(nil), unit.Statements...)
	drop := make([]bool, len(stmts))

	for i := range stmts {
		if drop[i] {
			continue
		}
		cand, ok := asInstruction(stmts[i])
		if !ok || !isFusable(cand) {
			continue
		}
		dstReg, _ := asm.RegOf(cand.Operands[len(cand.Operands)-1])

		for j := i + 1; j < len(stmts); j++ {
			if drop[j] {
				continue
			}
			follower, ok := asInstruction(stmts[j])
			if !ok {
				break // label or directive: leaves the straight-line region
			}
			if endsRegion(follower) {
				break // rule (a)
			}
			if writesWithoutReading(follower, dstReg) {
				break // rule (b)
			}
			if clobbersImplicitly(follower, dstReg) {
				break // rule (c)
			}
			readIdx, reads := directReadIndex(follower, dstReg)
			if !reads {
				continue
			}
			if readLaterUnsafe(stmts, j+1, dstReg) {
				break
			}
			fused, ok := fuse(cand, follower, readIdx)
			if !ok {
				break
			}
			stmts[j] = fused
			drop[i] = true
			break
		}
	}

	out := make([]asm.Statement, 0, len(stmts))
	for i, st := range stmts {
		if !drop[i] {
			out = append(out, st)
		}
	}
	unit.Statements = out
}

// ContractIncDec collapses `add reg, $1`/`add reg, $-1`/`sub reg, $1`/
// `sub reg, $-1` into `inc reg`/`dec reg` as the sign dictates.
func ContractIncDec(unit *asm.AssemblyUnit) {
	for i, st := range unit.Statements {
		inst, ok := asInstruction(st)
		if !ok || len(inst.Operands) != 2 {
			continue
		}
		imm, ok := inst.Operands[0].(asm.Immediate)
		if !ok {
			continue
		}
		dst := inst.Operands[1]
		switch {
		case inst.Op == "add" && imm.Value == 1:
			unit.Statements[i] = asm.Instruction{Op: "inc", Operands: []asm.Operand{dst}}
		case inst.Op == "add" && imm.Value == -1:
			unit.Statements[i] = asm.Instruction{Op: "dec", Operands: []asm.Operand{dst}}
		case inst.Op == "sub" && imm.Value == 1:
			unit.Statements[i] = asm.Instruction{Op: "dec", Operands: []asm.Operand{dst}}
		case inst.Op == "sub" && imm.Value == -1:
			unit.Statements[i] = asm.Instruction{Op: "inc", Operands: []asm.Operand{dst}}
		}
	}
}
