package poly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/num"
)

func TestIdentifierInterning(t *testing.T) {
	ctx := NewContext()
	a := ctx.ID("n")
	b := ctx.ID("n")
	c := ctx.ID("m")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "n", a.Name())
}

func TestErrorSlot(t *testing.T) {
	ctx := NewContext()
	assert.Equal(t, ErrNone, ctx.LastError())

	bs := NewBasicSet(NewSetSpace(ctx, 0, 1))
	err := bs.AddEquality(num.VecOf(0, 1, 2)) // wrong width
	require.Error(t, err)
	assert.Equal(t, ErrInvalid, ctx.LastError())

	ctx.ResetError()
	assert.Equal(t, ErrNone, ctx.LastError())
}

func TestAbortStopsIteration(t *testing.T) {
	ctx := NewContext()
	bs := NewBasicSet(NewSetSpace(ctx, 0, 2))
	require.NoError(t, bs.AddInequality(num.VecOf(0, 1, 0)))
	require.NoError(t, bs.AddInequality(num.VecOf(100, -1, 0)))

	ctx.Abort()
	_, err := bs.Sample()
	require.Error(t, err)
	assert.Equal(t, ErrAbort, ctx.LastError())

	ctx.Resume()
	p, err := bs.Sample()
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestGbrPolicyCountsLPs(t *testing.T) {
	ctx := NewContext()
	ctx.Opt.Gbr = GbrAlways
	bs := NewBasicSet(NewSetSpace(ctx, 0, 2))
	require.NoError(t, bs.AddInequality(num.VecOf(0, 1, 0)))
	require.NoError(t, bs.AddInequality(num.VecOf(3, -1, 0)))
	require.NoError(t, bs.AddInequality(num.VecOf(0, 0, 1)))
	require.NoError(t, bs.AddInequality(num.VecOf(3, 0, -1)))
	p, err := bs.Sample()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Greater(t, ctx.Stats.GbrSolvedLPs, int64(0))
}
