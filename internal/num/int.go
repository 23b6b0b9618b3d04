// Package num provides the exact-arithmetic building blocks of the
// library: helpers over math/big integers with flooring division
// semantics, dense integer vectors, and dense integer matrices with
// in-place row operations.
//
// Division helpers follow floor semantics (rounding toward minus
// infinity) regardless of operand signs, so FdivQ(-7, 2) = -4 and
// FdivR(-7, 2) = 1. math/big's Quo/Rem truncate toward zero and are
// never used directly by the rest of the library.
package num

import "math/big"

var one = big.NewInt(1)

// I returns a fresh big integer with the given value.
func I(v int64) *big.Int {
	return big.NewInt(v)
}

// FdivQ returns floor(a / b). b must be nonzero.
func FdivQ(a, b *big.Int) *big.Int {
	q := new(big.Int)
	m := new(big.Int)
	q.DivMod(a, b, m)
	// big.Int.DivMod is Euclidean: 0 <= m < |b|. For positive b that
	// coincides with flooring; for negative b the quotient needs a
	// correction whenever the remainder is nonzero.
	if b.Sign() < 0 && m.Sign() != 0 {
		q.Sub(q, one)
	}
	return q
}

// FdivR returns a - b*floor(a/b), the remainder of flooring division.
// The result has the sign of b (or is zero).
func FdivR(a, b *big.Int) *big.Int {
	q := FdivQ(a, b)
	r := new(big.Int).Mul(q, b)
	return r.Sub(a, r)
}

// CdivQ returns ceil(a / b). b must be nonzero.
func CdivQ(a, b *big.Int) *big.Int {
	neg := new(big.Int).Neg(a)
	q := FdivQ(neg, b)
	return q.Neg(q)
}

// DivExact returns a / b, which must be an exact division.
func DivExact(a, b *big.Int) *big.Int {
	return new(big.Int).Quo(a, b)
}

// Gcd returns gcd(|a|, |b|); Gcd(0, 0) = 0.
func Gcd(a, b *big.Int) *big.Int {
	return new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
}

// Lcm returns lcm(|a|, |b|); zero if either argument is zero.
func Lcm(a, b *big.Int) *big.Int {
	if a.Sign() == 0 || b.Sign() == 0 {
		return new(big.Int)
	}
	g := Gcd(a, b)
	l := new(big.Int).Mul(a, b)
	l.Abs(l)
	return l.Quo(l, g)
}

// IsZero reports whether a is zero.
func IsZero(a *big.Int) bool { return a.Sign() == 0 }

// IsOne reports whether a is one.
func IsOne(a *big.Int) bool { return a.Cmp(one) == 0 }

// IsNegOne reports whether a is minus one.
func IsNegOne(a *big.Int) bool {
	return a.Sign() < 0 && a.CmpAbs(one) == 0
}

// AbsEq reports whether |a| == |b|.
func AbsEq(a, b *big.Int) bool { return a.CmpAbs(b) == 0 }
