package num

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDivision(t *testing.T) {
	cases := []struct {
		a, b, q, r int64
	}{
		{7, 2, 3, 1},
		{-7, 2, -4, 1},
		{7, -2, -4, -1},
		{-7, -2, 3, -1},
		{6, 3, 2, 0},
		{-6, 3, -2, 0},
		{0, 5, 0, 0},
	}
	for _, c := range cases {
		q := FdivQ(I(c.a), I(c.b))
		r := FdivR(I(c.a), I(c.b))
		assert.Equal(t, c.q, q.Int64(), "FdivQ(%d, %d)", c.a, c.b)
		assert.Equal(t, c.r, r.Int64(), "FdivR(%d, %d)", c.a, c.b)
	}
}

func TestCeilDivision(t *testing.T) {
	assert.Equal(t, int64(4), CdivQ(I(7), I(2)).Int64())
	assert.Equal(t, int64(-3), CdivQ(I(-7), I(2)).Int64())
	assert.Equal(t, int64(2), CdivQ(I(6), I(3)).Int64())
}

func TestGcdLcm(t *testing.T) {
	assert.Equal(t, int64(6), Gcd(I(12), I(-18)).Int64())
	assert.Equal(t, int64(0), Gcd(I(0), I(0)).Int64())
	assert.Equal(t, int64(36), Lcm(I(12), I(18)).Int64())
	assert.Equal(t, int64(0), Lcm(I(0), I(7)).Int64())
}

func TestDivExact(t *testing.T) {
	if got := DivExact(I(-12), I(4)); got.Cmp(big.NewInt(-3)) != 0 {
		t.Fatalf("DivExact(-12, 4) = %s", got)
	}
}
