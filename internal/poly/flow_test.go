package poly_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/poly"
)

// levelFromPosition orders the statement instances of the flow tests
// by the leading position coordinate: every pair interleaves at the
// outermost level.
func levelFromPosition(first, second any) int {
	return 1
}

func TestFlowLastWriterWithOverride(t *testing.T) {
	ctx := poly.NewContext()
	sink := mustMap(t, ctx, "{ [2, i, 0] -> [i] : 0 <= i <= 10 }")
	src1 := mustMap(t, ctx, "{ [0, i, 0] -> [i] : 0 <= i <= 10 }")
	src2 := mustMap(t, ctx, "{ [1, i, 0] -> [5] : 0 <= i <= 10 }")

	res, err := poly.ComputeFlow(&poly.AccessInfo{
		Sink: &poly.Access{Map: sink, Must: true, User: "sink"},
		Sources: []*poly.Access{
			{Map: src1, Must: true, User: "a"},
			{Map: src2, Must: true, User: "b"},
		},
		LevelBefore: levelFromPosition,
	})
	require.NoError(t, err)
	require.Len(t, res.Deps, 2)

	want1 := mustMap(t, ctx,
		"{ [0, i, 0] -> [2, i, 0] : 0 <= i <= 4 or 6 <= i <= 10 }")
	assertMapEqual(t, res.Deps[0].Map, want1)
	assert.True(t, res.Deps[0].Must)

	want2 := mustMap(t, ctx, "{ [1, 10, 0] -> [2, 5, 0] }")
	assertMapEqual(t, res.Deps[1].Map, want2)
	assert.True(t, res.Deps[1].Must)

	empty, err := res.NoSource.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestFlowCompleteness(t *testing.T) {
	ctx := poly.NewContext()
	sink := mustMap(t, ctx, "{ [1, i] -> [i] : 0 <= i <= 10 }")
	src := mustMap(t, ctx, "{ [0, i] -> [i] : 0 <= i <= 4 }")

	res, err := poly.ComputeFlow(&poly.AccessInfo{
		Sink:        &poly.Access{Map: sink, Must: true, User: "sink"},
		Sources:     []*poly.Access{{Map: src, Must: true, User: "w"}},
		LevelBefore: levelFromPosition,
	})
	require.NoError(t, err)

	// Union of covered sink iterations and the no-source set equals
	// the sink domain.
	covered, err := res.Deps[0].Map.Range()
	require.NoError(t, err)
	all, err := covered.Union(res.NoSource)
	require.NoError(t, err)
	dom, err := sink.Domain()
	require.NoError(t, err)
	assertMapEqual(t, all.Map, dom.Map)

	noSrc := mustSet(t, ctx, "{ [1, i] : 5 <= i <= 10 }")
	assertMapEqual(t, res.NoSource.Map, noSrc.Map)
}
