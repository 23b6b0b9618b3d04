package poly_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/poly"
)

func TestTransitiveClosureExactTranslation(t *testing.T) {
	ctx := poly.NewContext()
	m := mustMap(t, ctx,
		"[n] -> { [x] -> [y] : y = x + 1 and 0 <= x <= n and 0 <= y <= n }")
	closed, exact, err := m.TransitiveClosure()
	require.NoError(t, err)
	assert.True(t, exact)

	want := mustMap(t, ctx,
		"[n] -> { [x] -> [y] : x < y and 0 <= x and y <= n and 0 <= y and x <= n }")
	assertMapEqual(t, closed, want)
}

func TestClosureMonotonicity(t *testing.T) {
	ctx := poly.NewContext()
	m := mustMap(t, ctx,
		"{ [x] -> [y] : y = x + 2 and 0 <= x <= 8 and y <= 10 }")
	closed, exact, err := m.TransitiveClosure()
	require.NoError(t, err)
	assert.True(t, exact)

	// R ⊆ R⁺
	sub, err := m.IsSubset(closed)
	require.NoError(t, err)
	assert.True(t, sub)

	// R⁺ ∘ R ⊆ R⁺
	step, err := closed.ApplyRange(m)
	require.NoError(t, err)
	sub, err = step.IsSubset(closed)
	require.NoError(t, err)
	assert.True(t, sub)
}

func TestClosureBoxOverApproximates(t *testing.T) {
	ctx := poly.NewContext()
	ctx.Opt.Closure = poly.ClosureBox
	m := mustMap(t, ctx,
		"{ [x] -> [y] : y = x + 1 and 0 <= x <= 9 and y <= 10 }")
	closed, _, err := m.TransitiveClosure()
	require.NoError(t, err)

	// The box result must still contain the real closure.
	ctx.Opt.Closure = poly.ClosureISL
	exactClosure, exact, err := m.TransitiveClosure()
	require.NoError(t, err)
	require.True(t, exact)
	sub, err := exactClosure.IsSubset(closed)
	require.NoError(t, err)
	assert.True(t, sub)
}

func TestPowerMatchesClosure(t *testing.T) {
	ctx := poly.NewContext()
	m := mustMap(t, ctx, "{ [x] -> [y] : y = x + 1 and 0 <= x <= 4 and y <= 5 }")
	p, exactP, err := m.Power()
	require.NoError(t, err)
	c, exactC, err := m.TransitiveClosure()
	require.NoError(t, err)
	assert.Equal(t, exactC, exactP)
	assertMapEqual(t, p, c)
}

func TestUnionMapClosureAcrossSpaces(t *testing.T) {
	ctx := poly.NewContext()
	m := mustMap(t, ctx, "{ [x] -> [y] : y = x + 1 and 0 <= x <= 3 }")
	u := poly.UnionMapFromMap(m)
	closed, exact, err := u.TransitiveClosure()
	require.NoError(t, err)
	assert.True(t, exact)

	var got *poly.Map
	err = closed.ForeachMap(func(mm *poly.Map) poly.Continuation {
		got = mm
		return poly.Continue
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	want := mustMap(t, ctx, "{ [x] -> [y] : x < y and 0 <= x <= 3 and y <= 4 }")
	assertMapEqual(t, got, want)
}
