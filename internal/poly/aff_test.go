package poly

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/num"
)

func TestAffArithmetic(t *testing.T) {
	ctx := NewContext()
	ls := NewLocalSpace(NewSetSpace(ctx, 1, 1)) // one parameter, one dim
	x, err := AffVar(ls, DimOut, 0)
	require.NoError(t, err)
	n, err := AffVar(ls, DimParam, 0)
	require.NoError(t, err)

	s, err := x.Add(n)
	require.NoError(t, err)
	// (x + n) at n=2, x=5 is 7.
	assert.Equal(t, "7/1", s.Eval(num.VecOf(2, 5)).String())

	d, err := s.Sub(x)
	require.NoError(t, err)
	assert.True(t, d.PlainEqual(n))

	half, err := x.ScaleDown(big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, "5/2", half.Eval(num.VecOf(0, 5)).String())

	tripled := x.Scale(big.NewInt(3))
	assert.Equal(t, int64(3), tripled.Coefficient(DimOut, 0).Int64())
}

func TestAffFloorIntroducesDiv(t *testing.T) {
	ctx := NewContext()
	ls := NewLocalSpace(NewSetSpace(ctx, 0, 1))
	x, err := AffVar(ls, DimOut, 0)
	require.NoError(t, err)
	half, err := x.ScaleDown(big.NewInt(2))
	require.NoError(t, err)
	fl := half.Floor()
	assert.Equal(t, 1, fl.LocalSpace().NDiv())
	assert.True(t, num.IsOne(fl.Denom()))
	// floor(5/2) = 2: the div variable carries the value.
	assert.Equal(t, "2/1", fl.Eval(num.VecOf(5, 2)).String())
}

func TestAffComparisonSets(t *testing.T) {
	ctx := NewContext()
	ls := NewLocalSpace(NewSetSpace(ctx, 0, 1))
	x, err := AffVar(ls, DimOut, 0)
	require.NoError(t, err)
	five := AffConstant(ls, big.NewInt(5))

	le, err := x.LeSet(five)
	require.NoError(t, err)
	ge, err := x.GeSet(five)
	require.NoError(t, err)
	both, err := le.Intersect(ge)
	require.NoError(t, err)
	// x <= 5 and x >= 5 leaves exactly x = 5.
	p, err := both.BasicSetAt(0).Sample()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(5), p[0].Int64())
}

func TestPwAffMin(t *testing.T) {
	ctx := NewContext()
	ls := NewLocalSpace(NewSetSpace(ctx, 0, 1))
	x, err := AffVar(ls, DimOut, 0)
	require.NoError(t, err)
	c := AffConstant(ls, big.NewInt(4))

	p := PwAffFromAff(x)
	q := PwAffFromAff(c)
	m, err := p.Min(q)
	require.NoError(t, err)
	require.Equal(t, 2, m.NPiece())

	// On x <= 4 the minimum is x, above it is the constant 4.
	for i := 0; i < m.NPiece(); i++ {
		pc := m.Piece(i)
		if pc.Aff.PlainEqual(x) {
			in, err := SetFromBasicSet(func() *BasicSet {
				bs := NewBasicSet(ls.space)
				bs.ineq = append(bs.ineq, num.VecOf(4, -1))
				return bs
			}()).IsSubset(pc.Set)
			require.NoError(t, err)
			assert.True(t, in)
		}
	}
}
