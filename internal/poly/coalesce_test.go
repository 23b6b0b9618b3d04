package poly_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/poly"
)

func TestCoalesceAdjacentRectangles(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx,
		"{ [x, y] : 0 <= x <= 10 and 0 <= y <= 10; [x, y] : 10 <= x <= 20 and 0 <= y <= 10 }")
	require.Equal(t, 2, s.NBasicSet())

	c, err := s.Coalesce()
	require.NoError(t, err)
	assert.Equal(t, 1, c.NBasicSet())

	want := mustSet(t, ctx, "{ [x, y] : 0 <= x <= 20 and 0 <= y <= 10 }")
	assertMapEqual(t, c.Map, want.Map)
}

func TestCoalesceWithParameter(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx,
		"[n] -> { [i] : i = 1 and n >= 2; [i] : 2 <= i <= n }")
	require.Equal(t, 2, s.NBasicSet())

	c, err := s.Coalesce()
	require.NoError(t, err)
	assert.Equal(t, 1, c.NBasicSet())

	want := mustSet(t, ctx, "[n] -> { [i] : 1 <= i <= n and n >= 2 }")
	assertMapEqual(t, c.Map, want.Map)
}

func TestCoalesceKeepsSeparatedPieces(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx, "{ [x] : 0 <= x <= 3; [x] : 5 <= x <= 8 }")
	c, err := s.Coalesce()
	require.NoError(t, err)
	assert.Equal(t, 2, c.NBasicSet())
	assertMapEqual(t, c.Map, s.Map)
}

func TestCoalesceSubsetDrops(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx, "{ [x] : 0 <= x <= 10; [x] : 2 <= x <= 5 }")
	c, err := s.Coalesce()
	require.NoError(t, err)
	assert.Equal(t, 1, c.NBasicSet())
	assertMapEqual(t, c.Map, mustSet(t, ctx, "{ [x] : 0 <= x <= 10 }").Map)
}

func TestCoalesceIdempotent(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx,
		"{ [x] : 0 <= x <= 4; [x] : 4 <= x <= 9; [x] : 20 <= x <= 30 }")
	once, err := s.Coalesce()
	require.NoError(t, err)
	twice, err := once.Coalesce()
	require.NoError(t, err)
	assert.Equal(t, once.NBasicSet(), twice.NBasicSet())
	assertMapEqual(t, once.Map, twice.Map)
	assertMapEqual(t, once.Map, s.Map)
}
