package poly_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/parser"
	"presburger/internal/poly"
)

func mustMap(t *testing.T, ctx *poly.Context, s string) *poly.Map {
	t.Helper()
	m, err := parser.ParseMap(ctx, s)
	require.NoError(t, err, "parsing %q", s)
	return m
}

func mustSet(t *testing.T, ctx *poly.Context, s string) *poly.Set {
	t.Helper()
	set, err := parser.ParseSet(ctx, s)
	require.NoError(t, err, "parsing %q", s)
	return set
}

func assertMapEqual(t *testing.T, a, b *poly.Map) {
	t.Helper()
	eq, err := a.IsEqual(b)
	require.NoError(t, err)
	assert.True(t, eq, "%s != %s", a, b)
}

func TestUnionIntersectNeutrality(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx, "{ [x] : 0 <= x <= 10 }")

	u, err := s.Union(s.Copy())
	require.NoError(t, err)
	assertMapEqual(t, u.Map, s.Map)

	i, err := s.Intersect(s.Copy())
	require.NoError(t, err)
	assertMapEqual(t, i.Map, s.Map)

	d, err := s.Subtract(s.Copy())
	require.NoError(t, err)
	empty, err := d.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestComposeWithIdentity(t *testing.T) {
	ctx := poly.NewContext()
	m := mustMap(t, ctx, "{ [x] -> [y] : y = x + 2 and 0 <= x <= 5 }")
	id, err := poly.IdentityMap(m.Space())
	require.NoError(t, err)
	c, err := m.ApplyRange(id)
	require.NoError(t, err)
	assertMapEqual(t, c, m)
}

func TestSubtractSplitsInterval(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx, "{ [x] : 0 <= x <= 10 }")
	mid := mustSet(t, ctx, "{ [x] : 4 <= x <= 6 }")
	d, err := s.Subtract(mid)
	require.NoError(t, err)
	want := mustSet(t, ctx, "{ [x] : 0 <= x <= 3 or 7 <= x <= 10 }")
	assertMapEqual(t, d.Map, want.Map)
}

func TestProjectOut(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx, "{ [x, y] : 0 <= x <= 10 and x <= y <= x + 2 }")
	p, err := s.ProjectOut(poly.DimOut, 1, 1)
	require.NoError(t, err)
	want := mustSet(t, ctx, "{ [x] : 0 <= x <= 10 }")
	assertMapEqual(t, p.Map, want.Map)
}

func TestProjectOutWithStride(t *testing.T) {
	ctx := poly.NewContext()
	// Projecting y away from x = 2y keeps the evenness of x; it does not
	// free x entirely.
	s := mustSet(t, ctx, "{ [x, y] : x = 2*y and 0 <= x <= 10 }")
	p, err := s.ProjectOut(poly.DimOut, 1, 1)
	require.NoError(t, err)
	want := mustSet(t, ctx, "{ [x] : exists (e = floor((x)/2): x = 2*e and 0 <= x <= 10) }")
	assertMapEqual(t, p.Map, want.Map)

	notWant := mustSet(t, ctx, "{ [x] : 0 <= x <= 10 }")
	eq, err := p.Map.IsEqual(notWant.Map)
	require.NoError(t, err)
	assert.False(t, eq, "projection must keep the stride constraint")
}

func TestDomainRangeDeltas(t *testing.T) {
	ctx := poly.NewContext()
	m := mustMap(t, ctx, "{ [x] -> [y] : y = x + 3 and 0 <= x <= 4 }")

	dom, err := m.Domain()
	require.NoError(t, err)
	assertMapEqual(t, dom.Map, mustSet(t, ctx, "{ [x] : 0 <= x <= 4 }").Map)

	ran, err := m.Range()
	require.NoError(t, err)
	assertMapEqual(t, ran.Map, mustSet(t, ctx, "{ [y] : 3 <= y <= 7 }").Map)

	d, err := m.Deltas()
	require.NoError(t, err)
	assertMapEqual(t, d.Map, mustSet(t, ctx, "{ [d] : d = 3 }").Map)
}

func TestBijectivityDetection(t *testing.T) {
	ctx := poly.NewContext()
	bij := mustMap(t, ctx, "[N, M] -> { [i, j] -> [2*i, j] }")
	ok, err := bij.IsBijective()
	require.NoError(t, err)
	assert.True(t, ok)

	notBij := mustMap(t, ctx, "[N, M] -> { [i, j] -> [i + j] }")
	ok, err = notBij.IsBijective()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsEmptyAndUniverse(t *testing.T) {
	ctx := poly.NewContext()
	e := mustSet(t, ctx, "{ [x] : x >= 1 and x <= 0 }")
	empty, err := e.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	u := mustSet(t, ctx, "{ [x] }")
	empty, err = u.IsEmpty()
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestParityEmptiness(t *testing.T) {
	ctx := poly.NewContext()
	// An even number equal to 7 does not exist.
	s := mustSet(t, ctx, "{ [x] : x = 7 and exists (e = floor((x)/2): x = 2*e) }")
	empty, err := s.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}
