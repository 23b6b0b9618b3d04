package num

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVecNormalizeContent(t *testing.T) {
	v := VecOf(4, -6, 10)
	v.NormalizeContent()
	assert.True(t, v.Equal(VecOf(2, -3, 5)))

	z := VecOf(0, 0)
	z.NormalizeContent()
	assert.True(t, z.Equal(VecOf(0, 0)))
}

func TestVecCombine(t *testing.T) {
	v := VecOf(1, 2)
	w := VecOf(3, -1)
	v.Combine(I(2), I(3), w) // 2v + 3w
	assert.True(t, v.Equal(VecOf(11, 1)))
}

func TestRowEchelonRank(t *testing.T) {
	m := MatOf(
		[]int64{1, 2, 3},
		[]int64{2, 4, 6},
		[]int64{1, 0, 1},
	)
	assert.Equal(t, 2, m.Rank())

	id := MatOf(
		[]int64{1, 0},
		[]int64{0, 1},
	)
	assert.Equal(t, 2, id.Rank())
}

func TestNullspace(t *testing.T) {
	m := MatOf(
		[]int64{1, 1, -2},
		[]int64{1, -1, 0},
	)
	basis := m.Nullspace()
	require.Len(t, basis, 1)
	// Every basis row must be annihilated by m.
	for _, b := range basis {
		for _, row := range m {
			assert.Equal(t, int64(0), row.Dot(b).Int64())
		}
	}
	// The kernel of this matrix is spanned by (1, 1, 1).
	assert.True(t, basis[0].Equal(VecOf(1, 1, 1)) || basis[0].Equal(VecOf(-1, -1, -1)))
}

func TestTranspose(t *testing.T) {
	m := MatOf([]int64{1, 2, 3}, []int64{4, 5, 6})
	w := m.Transpose()
	require.Len(t, w, 3)
	assert.True(t, w[0].Equal(VecOf(1, 4)))
	assert.True(t, w[2].Equal(VecOf(3, 6)))
	back := w.Transpose()
	assert.True(t, back[1].Equal(VecOf(4, 5, 6)))
}

func TestInsertDropCols(t *testing.T) {
	m := MatOf([]int64{1, 2}, []int64{3, 4})
	w := m.InsertCols(1, 2)
	assert.Equal(t, 4, w.Cols())
	assert.True(t, w[0].Equal(VecOf(1, 0, 0, 2)))
	back := w.DropCols(1, 2)
	assert.True(t, back[1].Equal(VecOf(3, 4)))
}
