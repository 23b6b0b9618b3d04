package poly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/num"
)

func TestGaussEchelonAndContradiction(t *testing.T) {
	ctx := NewContext()
	bs := NewBasicSet(NewSetSpace(ctx, 0, 2))
	// x + y = 3, x - y = 1  =>  x = 2, y = 1
	require.NoError(t, bs.AddEquality(num.VecOf(-3, 1, 1)))
	require.NoError(t, bs.AddEquality(num.VecOf(-1, 1, -1)))
	bs.Gauss()
	require.False(t, bs.IsMarkedEmpty())
	assert.Equal(t, 2, bs.NEq())

	p, err := bs.Sample()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(2), p[0].Int64())
	assert.Equal(t, int64(1), p[1].Int64())
}

func TestGaussIntegerInfeasibleEquality(t *testing.T) {
	ctx := NewContext()
	bs := NewBasicSet(NewSetSpace(ctx, 0, 1))
	// 2x = 1 has no integer solution.
	require.NoError(t, bs.AddEquality(num.VecOf(-1, 2)))
	bs.Gauss()
	assert.True(t, bs.IsMarkedEmpty())
}

func TestDetectEqualitiesFromOppositePair(t *testing.T) {
	ctx := NewContext()
	bs := NewBasicSet(NewSetSpace(ctx, 0, 1))
	// x >= 4 and x <= 4.
	require.NoError(t, bs.AddInequality(num.VecOf(-4, 1)))
	require.NoError(t, bs.AddInequality(num.VecOf(4, -1)))
	bs.DetectEqualities()
	require.False(t, bs.IsMarkedEmpty())
	assert.Equal(t, 1, bs.NEq())
	assert.Equal(t, 0, bs.NIneq())
}

func TestDetectEqualitiesContradiction(t *testing.T) {
	ctx := NewContext()
	bs := NewBasicSet(NewSetSpace(ctx, 0, 1))
	// x >= 5 and x <= 4.
	require.NoError(t, bs.AddInequality(num.VecOf(-5, 1)))
	require.NoError(t, bs.AddInequality(num.VecOf(4, -1)))
	empty, err := bs.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestDetectEqualitiesRankDeficiency(t *testing.T) {
	ctx := NewContext()
	bs := NewBasicSet(NewSetSpace(ctx, 0, 2))
	// x >= 0, y >= 0, -x - y >= 0: no pairwise negation, but the three
	// rows sum to zero, so all of them are implicit equalities.
	require.NoError(t, bs.AddInequality(num.VecOf(0, 1, 0)))
	require.NoError(t, bs.AddInequality(num.VecOf(0, 0, 1)))
	require.NoError(t, bs.AddInequality(num.VecOf(0, -1, -1)))
	bs.DetectEqualities()
	require.False(t, bs.IsMarkedEmpty())
	assert.Equal(t, 2, bs.NEq())
	assert.Equal(t, 0, bs.NIneq())

	p, err := bs.Sample()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(0), p[0].Int64())
	assert.Equal(t, int64(0), p[1].Int64())
}

func TestDetectEqualitiesIdempotent(t *testing.T) {
	ctx := NewContext()
	bs := NewBasicSet(NewSetSpace(ctx, 0, 2))
	require.NoError(t, bs.AddInequality(num.VecOf(0, 1, 1)))
	require.NoError(t, bs.AddInequality(num.VecOf(0, -1, -1)))
	require.NoError(t, bs.AddInequality(num.VecOf(10, -1, 0)))
	bs.DetectEqualities()
	once := bs.Copy()
	bs.DetectEqualities()
	assert.True(t, bs.PlainEqual(once.BasicMap))
}

func TestMergeDivsSharedDiv(t *testing.T) {
	ctx := NewContext()
	sp := NewSetSpace(ctx, 0, 1)
	a := NewLocalSpace(sp)
	// e0 = floor(x/2) in both inputs.
	a.AddDiv(num.VecOf(2, 0, 1))
	b := NewLocalSpace(sp)
	b.AddDiv(num.VecOf(2, 0, 1))
	merged, expa, expb, err := MergeDivs(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, merged.NDiv())
	assert.Equal(t, []int{0}, expa)
	assert.Equal(t, []int{0}, expb)

	c := NewLocalSpace(sp)
	c.AddDiv(num.VecOf(3, 0, 1))
	merged2, _, _, err := MergeDivs(a, c)
	require.NoError(t, err)
	assert.Equal(t, 2, merged2.NDiv())
}

func TestEliminateKeepsDimensionInPlace(t *testing.T) {
	ctx := NewContext()
	bs := NewBasicSet(NewSetSpace(ctx, 0, 2))
	// 0 <= x <= 5, y = x.
	require.NoError(t, bs.AddInequality(num.VecOf(0, 1, 0)))
	require.NoError(t, bs.AddInequality(num.VecOf(5, -1, 0)))
	require.NoError(t, bs.AddEquality(num.VecOf(0, 1, -1)))

	w, err := bs.Eliminate(DimOut, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Dim(DimOut))
	// y is now unconstrained: (3, 42) must satisfy the result.
	probe := w.Copy()
	require.NoError(t, probe.AddEquality(num.VecOf(-3, 1, 0)))
	require.NoError(t, probe.AddEquality(num.VecOf(-42, 0, 1)))
	empty, err := probe.IsEmpty()
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestComputeDivsResolvesStride(t *testing.T) {
	ctx := NewContext()
	bs := NewBasicSet(NewSetSpace(ctx, 0, 1))
	// x = 2e with e an unresolved existential.
	bs.AddDiv(num.NewVec(2 + bs.Total()))
	row := num.NewVec(1 + bs.Total())
	row[1].SetInt64(1)
	row[2].SetInt64(-2)
	require.NoError(t, bs.AddEquality(row))

	w := bs.ComputeDivs()
	assert.True(t, w.LocalSpace().AllDivsKnown())
}

func TestTabFeasibility(t *testing.T) {
	ctx := NewContext()
	bs := NewBasicSet(NewSetSpace(ctx, 0, 2))
	// 0 <= x <= 3, x + y = 5
	require.NoError(t, bs.AddInequality(num.VecOf(0, 1, 0)))
	require.NoError(t, bs.AddInequality(num.VecOf(3, -1, 0)))
	require.NoError(t, bs.AddEquality(num.VecOf(-5, 1, 1)))
	empty, err := bs.rationallyEmpty()
	require.NoError(t, err)
	assert.False(t, empty)

	obj := num.VecOf(0, 0, 1) // y
	lo, hi, emp, err := affBounds(bs.BasicMap, obj)
	require.NoError(t, err)
	require.False(t, emp)
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	// y = 5 - x with x in [0,3]: y in [2,5].
	assert.Equal(t, "2/1", lo.String())
	assert.Equal(t, "5/1", hi.String())
}
