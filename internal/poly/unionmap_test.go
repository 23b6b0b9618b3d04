package poly_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/poly"
)

func TestUnionMapKeysBySpace(t *testing.T) {
	ctx := poly.NewContext()
	m1 := mustMap(t, ctx, "{ [x] -> [y] : y = x + 1 and 0 <= x <= 3 }")
	s1 := mustSet(t, ctx, "{ [a, b] : a = b }")

	u := poly.NewUnionMap(ctx, 0)
	require.NoError(t, u.AddMap(m1))
	require.NoError(t, u.AddMap(s1.Map))
	assert.Equal(t, 2, u.NMap())

	// Same-space maps union into one entry.
	m2 := mustMap(t, ctx, "{ [x] -> [y] : y = x + 2 and 0 <= x <= 3 }")
	require.NoError(t, u.AddMap(m2))
	assert.Equal(t, 2, u.NMap())
}

func TestUnionMapForeachBreak(t *testing.T) {
	ctx := poly.NewContext()
	u := poly.NewUnionMap(ctx, 0)
	require.NoError(t, u.AddMap(mustMap(t, ctx, "{ [x] -> [y] : y = x }")))
	require.NoError(t, u.AddMap(mustMap(t, ctx, "{ [a, b] -> [c] : c = a + b }")))

	visits := 0
	err := u.ForeachMap(func(*poly.Map) poly.Continuation {
		visits++
		return poly.Break
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visits)
}

func TestUnionMapSetOps(t *testing.T) {
	ctx := poly.NewContext()
	a := poly.UnionMapFromMap(mustMap(t, ctx, "{ [x] -> [y] : 0 <= x <= 5 and y = x }"))
	b := poly.UnionMapFromMap(mustMap(t, ctx, "{ [x] -> [y] : 3 <= x <= 9 and y = x }"))

	un, err := a.Union(b)
	require.NoError(t, err)
	in, err := a.Intersect(b)
	require.NoError(t, err)
	diff, err := un.Subtract(in)
	require.NoError(t, err)

	want := poly.UnionMapFromMap(mustMap(t, ctx,
		"{ [x] -> [y] : y = x and 0 <= x <= 2; [x] -> [y] : y = x and 6 <= x <= 9 }"))
	eq, err := diff.IsEqual(want)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestUnionSetAcrossSpaces(t *testing.T) {
	ctx := poly.NewContext()
	a := poly.UnionSetFromSet(mustSet(t, ctx, "{ [x] : 0 <= x <= 3 }"))
	b := poly.UnionSetFromSet(mustSet(t, ctx, "{ [x, y] : x = y }"))
	u, err := a.Union(b)
	require.NoError(t, err)
	assert.Equal(t, 2, u.NMap())

	d, err := u.Subtract(a)
	require.NoError(t, err)
	assert.Equal(t, 1, d.NMap())
}

func TestUnionMapApplyRangeMatchesSpaces(t *testing.T) {
	ctx := poly.NewContext()
	a := poly.UnionMapFromMap(mustMap(t, ctx, "{ [x] -> [y] : y = x + 1 }"))
	b := poly.UnionMapFromMap(mustMap(t, ctx, "{ [y] -> [z] : z = 2*y }"))
	c, err := a.ApplyRange(b)
	require.NoError(t, err)

	want := poly.UnionMapFromMap(mustMap(t, ctx, "{ [x] -> [z] : z = 2*x + 2 }"))
	eq, err := c.IsEqual(want)
	require.NoError(t, err)
	assert.True(t, eq)
}
