package tac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoczim/compiler-course/internal/ast"
	"github.com/brunoczim/compiler-course/internal/symtab"
	"github.com/brunoczim/compiler-course/internal/types"
)

func scalarAssign(name string, line int, lhs, rhs string, op string) *ast.Node {
	return &ast.Node{
		Kind: ast.Assign, Line: line, Name: name,
		X: &ast.Node{Kind: ast.Binary, Line: line, Name: op, Type: types.Inte,
			X: &ast.Node{Kind: ast.Ident, Line: line, Name: lhs, Type: types.Inte},
			Y: &ast.Node{Kind: ast.Ident, Line: line, Name: rhs, Type: types.Inte},
		},
	}
}

func intLit(line int, v string) *ast.Node {
	return &ast.Node{Kind: ast.IntLit, Line: line, Name: v, Type: types.Inte}
}

func ident(line int, name string) *ast.Node {
	return &ast.Node{Kind: ast.Ident, Line: line, Name: name, Type: types.Inte}
}

func TestPowerOfTwoRewritesMul(t *testing.T) {
	in := symtab.New()
	seq := NewSequence()
	x := in.Intern("x")
	t0 := in.MintTempScalar(types.Inte)
	eight := in.InternIntLiteral(1, 8)
	seq.Append(Mul, t0, x, eight, 1)

	Optimize(seq, Flags{PowerOfTwo: true})

	n := seq.Head
	require.Equal(t, Shmul, n.Op)
	assert.Same(t, x, n.Src0)
	assert.Equal(t, int64(3), n.Src1.IntValue)
	seq.Each(func(n *Node) { assert.NotEqual(t, Mul, n.Op) })
}

func TestNegativePowerOfTwoDivisorNegatesShift(t *testing.T) {
	in := symtab.New()
	seq := NewSequence()
	x := in.Intern("x")
	t0 := in.MintTempScalar(types.Inte)
	negOne := in.InternIntLiteral(1, -1)
	seq.Append(Div, t0, x, negOne, 1)

	Optimize(seq, Flags{PowerOfTwo: true})

	n := seq.Head
	require.Equal(t, Shdiv, n.Op)
	assert.Equal(t, int64(0), n.Src1.IntValue)
}

func TestTemporaryReuseWithinBlock(t *testing.T) {
	in := symtab.New()
	p := New(in)
	prog := &ast.Node{Kind: ast.Program, Nodes: []*ast.Node{
		{Kind: ast.ScalarDecl, Name: "a", Type: types.Inte, Line: 1},
		{Kind: ast.ScalarDecl, Name: "b", Type: types.Inte, Line: 1},
		{Kind: ast.ScalarDecl, Name: "c", Type: types.Inte, Line: 1},
		{Kind: ast.ScalarDecl, Name: "d", Type: types.Inte, Line: 1},
		{Kind: ast.FuncDecl, Name: "f", Type: types.Inte, Line: 2, Body: &ast.Node{
			Kind: ast.Block, Nodes: []*ast.Node{
				scalarAssign("a", 3, "a", "b", "+"), // uses a,b directly (not temps)
				{Kind: ast.Return, Line: 4, X: intLit(4, "0")},
			},
		}},
	}}
	seq := p.Lower(prog)
	_ = seq

	// Build the literal four-temporary chain from §8 scenario 2 directly,
	// since it needs temporaries (not named vars) to exercise reuse.
	seq2 := NewSequence()
	a := in.Intern("a")
	b := in.Intern("b")
	c := in.Intern("c")
	d := in.Intern("d")
	t1 := in.MintTempScalar(types.Inte)
	t2 := in.MintTempScalar(types.Inte)
	t3 := in.MintTempScalar(types.Inte)
	t4 := in.MintTempScalar(types.Inte)
	// No trailing Ret/consumer of t4 here, matching §8 scenario 2's literal
	// form exactly: a Ret reading t4 would put it live past the block's own
	// node span and cancel its eligibility for reuse.
	seq2.Append(BeginFun, in.Intern("f2"), nil, nil, 1)
	seq2.Append(Add, t1, a, b, 1)
	seq2.Append(Add, t2, t1, c, 2)
	seq2.Append(Add, t3, c, d, 3)
	seq2.Append(Add, t4, t3, t2, 4)
	seq2.Append(EndFun, nil, nil, nil, 5)

	Optimize(seq2, Flags{ReuseTemps: true})

	distinct := map[*symtab.Symbol]bool{}
	seq2.Each(func(n *Node) {
		for _, s := range []*symtab.Symbol{n.Dst, n.Src0, n.Src1} {
			if s != nil && s.Kind == symtab.KindTempScalar {
				distinct[symtab.Resolved(s)] = true
			}
		}
	})
	assert.LessOrEqual(t, len(distinct), 2)
}

func TestLocalityInvariantsHold(t *testing.T) {
	in := symtab.New()
	seq := NewSequence()
	a := in.Intern("a")
	t1 := in.MintTempScalar(types.Inte)
	seq.Append(BeginFun, in.Intern("f"), nil, nil, 1)
	seq.Append(Add, t1, a, a, 1)
	seq.Append(Ret, nil, t1, nil, 2)
	seq.Append(EndFun, nil, nil, nil, 3)

	Analyze(seq)

	add := seq.Head.Next
	lv := add.StartingLocalValue
	require.NotNil(t, lv)
	assert.Equal(t, lv.StartNode.BlockID, lv.EndNode.BlockID)
	assert.Equal(t, lv.BlockID, lv.StartNode.BlockID)
	assert.LessOrEqual(t, lv.StartID, lv.EndID)
}

func TestEveryIfzAndJumpTargetIsLabeled(t *testing.T) {
	in := symtab.New()
	p := New(in)
	prog := &ast.Node{Kind: ast.Program, Nodes: []*ast.Node{
		{Kind: ast.FuncDecl, Name: "f", Type: types.Inte, Line: 1, Body: &ast.Node{
			Kind: ast.Block, Nodes: []*ast.Node{
				{Kind: ast.If, Line: 2, X: ident(2, "x"), Body: &ast.Node{Kind: ast.Block}},
				{Kind: ast.Return, Line: 3, X: intLit(3, "0")},
			},
		}},
	}}
	in.Intern("x").Kind = symtab.KindScalarVar
	seq := p.Lower(prog)

	labels := map[string]bool{}
	seq.Each(func(n *Node) {
		if n.Op == Label {
			labels[n.Dst.Content] = true
		}
	})
	seq.Each(func(n *Node) {
		if n.Op == Ifz || n.Op == Jump {
			assert.True(t, labels[n.Dst.Content])
		}
	})
}

func TestDebugLineFormat(t *testing.T) {
	in := symtab.New()
	x := in.Intern("x")
	y := in.Intern("y")
	t0 := in.MintTempScalar(types.Inte)
	n := &Node{Op: Add, Dst: t0, Src0: x, Src1: y}
	assert.Equal(t, "TAC(ADD, @scalar_0, x, y)", DebugLine(n))

	n2 := &Node{Op: Ret, Src0: x}
	assert.Equal(t, "TAC(RET, @0, x, @0)", DebugLine(n2))
}
