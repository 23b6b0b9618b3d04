package poly_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/poly"
)

func TestAffineHullOfLine(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx, "{ [x, y] : y = 2*x and 0 <= x <= 5 }")
	hull, err := s.AffineHull()
	require.NoError(t, err)
	// The hull is the full line y = 2x, without the bounds.
	hs := poly.SetFromBasicSet(hull)
	want := mustSet(t, ctx, "{ [x, y] : y = 2*x }")
	assertMapEqual(t, hs.Map, want.Map)
}

func TestAffineHullGrowsAcrossDisjuncts(t *testing.T) {
	ctx := poly.NewContext()
	// Two points spanning a line; a third disjunct off the line forces
	// the full plane.
	s := mustSet(t, ctx, "{ [0, 0]; [2, 2]; [1, 0] }")
	hull, err := s.AffineHull()
	require.NoError(t, err)
	assert.Equal(t, 0, hull.NEq())
}

func TestConvexHullSoundness(t *testing.T) {
	for _, algo := range []poly.HullAlgorithm{poly.HullWrap, poly.HullFM} {
		ctx := poly.NewContext()
		ctx.Opt.ConvexHull = algo
		s := mustSet(t, ctx, "{ [x] : 0 <= x <= 3; [x] : 7 <= x <= 10 }")
		hull, err := s.ConvexHull()
		require.NoError(t, err)
		hs := poly.SetFromBasicSet(hull)

		// S ⊆ convex_hull(S)
		sub, err := s.IsSubset(hs)
		require.NoError(t, err)
		assert.True(t, sub, "algorithm %d", algo)

		// convex_hull(S) ⊆ affine_hull(S)
		aff, err := s.AffineHull()
		require.NoError(t, err)
		as := poly.SetFromBasicSet(aff)
		sub, err = hs.IsSubset(as)
		require.NoError(t, err)
		assert.True(t, sub, "algorithm %d", algo)
	}
}

func TestConvexHullFMExactOnIntervals(t *testing.T) {
	ctx := poly.NewContext()
	ctx.Opt.ConvexHull = poly.HullFM
	s := mustSet(t, ctx, "{ [x] : 0 <= x <= 3; [x] : 7 <= x <= 10 }")
	hull, err := s.ConvexHull()
	require.NoError(t, err)
	hs := poly.SetFromBasicSet(hull)
	want := mustSet(t, ctx, "{ [x] : 0 <= x <= 10 }")
	assertMapEqual(t, hs.Map, want.Map)
}

func TestGistEquivalence(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx, "{ [x] : 0 <= x <= 10 and x >= 2 }")
	c := mustSet(t, ctx, "{ [x] : 2 <= x <= 8 }")
	g, err := s.Gist(c)
	require.NoError(t, err)

	// gist(S, C) ∩ C = S ∩ C
	lhs, err := g.Intersect(c)
	require.NoError(t, err)
	rhs, err := s.Intersect(c)
	require.NoError(t, err)
	assertMapEqual(t, lhs.Map, rhs.Map)

	// The bounds implied by the context disappear.
	cons := 0
	gb := g.BasicSetAt(0)
	cons = gb.NEq() + gb.NIneq()
	sb := s.BasicSetAt(0)
	assert.Less(t, cons, sb.NEq()+sb.NIneq())
}
