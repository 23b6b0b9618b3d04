package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/parser"
	"presburger/internal/poly"
)

func roundTrip(t *testing.T, source string) {
	t.Helper()
	ctx := poly.NewContext()
	m, err := parser.ParseMap(ctx, source)
	require.NoError(t, err, "parsing %q", source)

	printed := m.String()
	back, err := parser.ParseMap(ctx, printed)
	require.NoError(t, err, "reparsing %q", printed)

	eq, err := m.IsEqual(back)
	require.NoError(t, err)
	assert.True(t, eq, "round trip changed %q -> %q", source, printed)
}

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"{ [x] : 0 <= x <= 10 }",
		"{ [x, y] : 0 <= x <= 10 and x <= y }",
		"[n] -> { [i] : 0 <= i < n }",
		"{ [x] -> [y] : y = x + 1 }",
		"[n] -> { [x] -> [y] : y = x + 1 and 0 <= x <= n }",
		"{ [x] : x = 1; [x] : 3 <= x <= 5 }",
		"{ [x] : exists (e = floor((x)/2): x = 2*e and 0 <= x <= 8) }",
		"{ [x] : x mod 3 = 1 and 0 <= x <= 20 }",
		"{ [x] -> [y] : y = floor((x + 1)/2) and 0 <= x <= 9 }",
		"{ }",
	}
	for _, c := range cases {
		roundTrip(t, c)
	}
}

func TestRoundTripEmptyRelation(t *testing.T) {
	ctx := poly.NewContext()
	m, err := parser.ParseMap(ctx, "{ [x] : x >= 1 and x <= 0 }")
	require.NoError(t, err)
	back, err := parser.ParseMap(ctx, m.String())
	require.NoError(t, err)
	empty, err := back.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestParseSetRejectsMap(t *testing.T) {
	ctx := poly.NewContext()
	_, err := parser.ParseSet(ctx, "{ [x] -> [y] }")
	require.Error(t, err)
}

func TestParseUnknownIdentifier(t *testing.T) {
	ctx := poly.NewContext()
	_, err := parser.ParseMap(ctx, "{ [x] : x <= q }")
	require.Error(t, err)
}

func TestParseTupleExpressions(t *testing.T) {
	ctx := poly.NewContext()
	m, err := parser.ParseMap(ctx, "{ [2, i, 0] -> [i] : 0 <= i <= 3 }")
	require.NoError(t, err)
	dom, err := m.Domain()
	require.NoError(t, err)
	want, err := parser.ParseSet(ctx, "{ [a, i, c] : a = 2 and c = 0 and 0 <= i <= 3 }")
	require.NoError(t, err)
	eq, err := dom.IsEqual(want)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestParseStrictInequalities(t *testing.T) {
	ctx := poly.NewContext()
	a, err := parser.ParseSet(ctx, "{ [x] : 0 < x < 5 }")
	require.NoError(t, err)
	b, err := parser.ParseSet(ctx, "{ [x] : 1 <= x <= 4 }")
	require.NoError(t, err)
	eq, err := a.IsEqual(b)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestMinMaxExpansion(t *testing.T) {
	ctx := poly.NewContext()
	a, err := parser.ParseSet(ctx, "{ [x] : x <= min(7, 12) and x >= 0 }")
	require.NoError(t, err)
	b, err := parser.ParseSet(ctx, "{ [x] : 0 <= x <= 7 }")
	require.NoError(t, err)
	eq, err := a.IsEqual(b)
	require.NoError(t, err)
	assert.True(t, eq)

	// max on the small side of <= expands to a conjunction as well.
	c, err := parser.ParseSet(ctx, "{ [x] : max(0, -3) <= x and x <= 5 }")
	require.NoError(t, err)
	d, err := parser.ParseSet(ctx, "{ [x] : 0 <= x <= 5 }")
	require.NoError(t, err)
	eq, err = c.IsEqual(d)
	require.NoError(t, err)
	assert.True(t, eq)

	// The disjunctive polarity is rejected.
	_, err = parser.ParseSet(ctx, "{ [x] : min(3, 5) <= x }")
	require.Error(t, err)
}
