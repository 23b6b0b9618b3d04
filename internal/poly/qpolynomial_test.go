package poly

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/num"
)

func TestQPolynomialArithmetic(t *testing.T) {
	ctx := NewContext()
	ls := NewLocalSpace(NewSetSpace(ctx, 0, 2))
	x, err := AffVar(ls, DimOut, 0)
	require.NoError(t, err)
	y, err := AffVar(ls, DimOut, 1)
	require.NoError(t, err)

	qx := QPolynomialFromAff(x)
	qy := QPolynomialFromAff(y)

	sum, err := qx.Add(qy)
	require.NoError(t, err)
	assert.Equal(t, "5/1", sum.Eval(num.VecOf(2, 3)).String())

	prod, err := qx.Mul(sum)
	require.NoError(t, err)
	// x(x + y) at (2, 3) = 10.
	assert.Equal(t, "10/1", prod.Eval(num.VecOf(2, 3)).String())

	zero, err := sum.Sub(sum)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestQPolynomialNormalizeMergesTerms(t *testing.T) {
	ctx := NewContext()
	ls := NewLocalSpace(NewSetSpace(ctx, 0, 1))
	x, err := AffVar(ls, DimOut, 0)
	require.NoError(t, err)
	q := QPolynomialFromAff(x)
	doubled, err := q.Add(q)
	require.NoError(t, err)
	require.Len(t, doubled.terms, 1)
	assert.Equal(t, int64(2), doubled.terms[0].coef.Int64())
}

func TestFoldEval(t *testing.T) {
	ctx := NewContext()
	ls := NewLocalSpace(NewSetSpace(ctx, 0, 1))
	x, err := AffVar(ls, DimOut, 0)
	require.NoError(t, err)
	c := AffConstant(ls, big.NewInt(4))

	f := FoldFromQPolynomial(FoldMin, QPolynomialFromAff(x))
	f, err = f.Merge(FoldFromQPolynomial(FoldMin, QPolynomialFromAff(c)))
	require.NoError(t, err)
	assert.Equal(t, 2, f.NQPolynomial())

	assert.Equal(t, "2/1", f.Eval(num.VecOf(2)).String())
	assert.Equal(t, "4/1", f.Eval(num.VecOf(9)).String())
}

func TestPwQPolynomialBoundRange(t *testing.T) {
	ctx := NewContext()
	// x^2 over 0 <= x <= 3 is bounded above by 9.
	set := NewBasicSet(NewSetSpace(ctx, 0, 1))
	require.NoError(t, set.AddInequality(num.VecOf(0, 1)))
	require.NoError(t, set.AddInequality(num.VecOf(3, -1)))

	ls := NewLocalSpace(set.Space())
	x, err := AffVar(ls, DimOut, 0)
	require.NoError(t, err)
	qx := QPolynomialFromAff(x)
	sq, err := qx.Mul(qx)
	require.NoError(t, err)

	p := &PwQPolynomial{space: set.Space(), pieces: []PwQPolynomialPiece{{Set: SetFromBasicSet(set), QP: sq}}}
	f, err := p.Bound(FoldMax)
	require.NoError(t, err)
	assert.Equal(t, "9/1", f.Eval(num.VecOf(0)).String())
}
