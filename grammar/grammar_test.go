package grammar_test

import (
	"testing"

	"github.com/alecthomas/participle/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/grammar"
)

func TestParseParametricMap(t *testing.T) {
	rel, err := grammar.ParseSource("test", "[n, m] -> { [i, j] -> [k] : 0 <= i <= n and k = i + j }")
	require.NoError(t, err)

	require.NotNil(t, rel.Params)
	assert.Equal(t, []string{"n", "m"}, rel.Params.Names)

	require.Len(t, rel.Disjuncts, 1)
	d := rel.Disjuncts[0]
	assert.Len(t, d.In.Entries, 2)
	require.NotNil(t, d.Out)
	assert.Len(t, d.Out.Entries, 1)

	require.NotNil(t, d.Cons)
	require.Len(t, d.Cons.Ands, 1)
	assert.Len(t, d.Cons.Ands[0].Cons, 2)

	// The first constraint is the chained comparison 0 <= i <= n.
	chain := d.Cons.Ands[0].Cons[0].Cmp
	require.NotNil(t, chain)
	assert.Len(t, chain.Rest, 2)
	assert.Equal(t, "<=", chain.Rest[0].Op)
}

func TestParseDisjunctsAndOr(t *testing.T) {
	rel, err := grammar.ParseSource("test", "{ [x] : x = 1 or 2 <= x <= 4; [x] : x = 9 }")
	require.NoError(t, err)
	require.Len(t, rel.Disjuncts, 2)
	require.NotNil(t, rel.Disjuncts[0].Cons)
	assert.Len(t, rel.Disjuncts[0].Cons.Ands, 2)
	assert.Nil(t, rel.Disjuncts[0].Out)
}

func TestParseExistsWithFloor(t *testing.T) {
	rel, err := grammar.ParseSource("test",
		"{ [x] : exists (e = floor((x)/2): x = 2*e) }")
	require.NoError(t, err)
	c := rel.Disjuncts[0].Cons.Ands[0].Cons[0]
	require.NotNil(t, c.Exists)
	require.Len(t, c.Exists.Vars, 1)
	assert.Equal(t, "e", c.Exists.Vars[0].Name)
	require.NotNil(t, c.Exists.Vars[0].Def)
	assert.Equal(t, "2", c.Exists.Vars[0].Def.Den)
	assert.Len(t, c.Exists.Cons, 1)
}

func TestParseModAndMinMax(t *testing.T) {
	_, err := grammar.ParseSource("test", "{ [x] : x mod 2 = 0 }")
	require.NoError(t, err)

	rel, err := grammar.ParseSource("test", "{ [x] -> [y] : y <= min(x, 10) }")
	require.NoError(t, err)
	cmp := rel.Disjuncts[0].Cons.Ands[0].Cons[0].Cmp
	require.NotNil(t, cmp)
	mm := cmp.Rest[0].Expr.First.First.MinMax
	require.NotNil(t, mm)
	assert.Equal(t, "min", mm.Op)
	assert.Len(t, mm.Args, 2)
}

func TestParseErrorHasPosition(t *testing.T) {
	_, err := grammar.ParseSource("test", "{ [x] : <= 3 }")
	require.Error(t, err)
	var perr participle.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Position().Line)
	assert.Positive(t, perr.Position().Column)
}

func TestParseEmptyBraces(t *testing.T) {
	rel, err := grammar.ParseSource("test", "{ }")
	require.NoError(t, err)
	assert.Len(t, rel.Disjuncts, 0)
}
