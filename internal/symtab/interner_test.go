package symtab

import (
	"testing"

	"github.com/brunoczim/compiler-course/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternIdempotence(t *testing.T) {
	in := New()
	a := in.Intern("x")
	b := in.Intern("x")
	assert.Same(t, a, b, "intern(s.content) must return the same record")
}

func TestInternLiteralsCanonicalize(t *testing.T) {
	in := New()
	// Two different sources that parse to the same int64 share a record.
	a := in.InternIntLiteral(1, 42)
	b := in.InternIntLiteral(2, 42)
	assert.Same(t, a, b)
	require.Equal(t, "42", a.Content)

	f1 := in.InternFloatLiteral(1, 1.5)
	f2 := in.InternFloatLiteral(2, 1.5)
	assert.Same(t, f1, f2)

	s1 := in.InternStringLiteral(1, []byte("hi\n"))
	s2 := in.InternStringLiteral(2, []byte("hi\n"))
	assert.Same(t, s1, s2)
	assert.Equal(t, `"hi\n"`, s1.Content)
}

func TestMintFreshNamesAreUnique(t *testing.T) {
	in := New()
	t1 := in.MintTempScalar(types.Inte)
	t2 := in.MintTempScalar(types.Inte)
	assert.NotEqual(t, t1.Content, t2.Content)
	assert.Equal(t, "@scalar_0", t1.Content)
	assert.Equal(t, "@scalar_1", t2.Content)

	l1 := in.MintLabel()
	l2 := in.MintLabel()
	assert.NotEqual(t, l1.Content, l2.Content)
}

func TestCompareOrdersByKindThenPayload(t *testing.T) {
	in := New()
	i1 := in.InternIntLiteral(1, 1)
	i2 := in.InternIntLiteral(1, 2)
	assert.Equal(t, -1, Compare(i1, i2))
	assert.Equal(t, 1, Compare(i2, i1))
	assert.Equal(t, 0, Compare(i1, i1))
	assert.Equal(t, -1, Compare(nil, i1))
}

func TestFloatLiteralFormatting(t *testing.T) {
	assert.Equal(t, "1.5", formatFloatLiteral(1.5))
	assert.Equal(t, "0.0", formatFloatLiteral(0.0))
	assert.Equal(t, "2.0", formatFloatLiteral(2.0))
}

func TestResolvedFollowsReplacementChain(t *testing.T) {
	in := New()
	a := in.MintTempScalar(types.Inte)
	b := in.MintTempScalar(types.Inte)
	c := in.MintTempScalar(types.Inte)
	a.Replacement = b
	b.Replacement = c
	assert.Same(t, c, Resolved(a))
}
