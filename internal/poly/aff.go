package poly

import (
	"math/big"

	"presburger/internal/num"
)

// Aff is an integer affine expression over a LocalSpace, stored as
// [denom | const | coeffs] with denom > 0 and the content gcd
// normalized to one.
type Aff struct {
	ls *LocalSpace
	v  num.Vec
}

// NewAff returns the zero expression over ls.
func NewAff(ls *LocalSpace) *Aff {
	a := &Aff{ls: ls.Clone(), v: num.NewVec(2 + ls.Total())}
	a.v[0].SetInt64(1)
	return a
}

// AffVar returns the expression selecting dimension pos of type t.
func AffVar(ls *LocalSpace, t DimType, pos int) (*Aff, error) {
	if pos < 0 || pos >= ls.Dim(t) {
		return nil, ls.Ctx().Errorf(ErrInvalid, "affine variable out of range")
	}
	a := NewAff(ls)
	a.v[1+ls.Offset(t)+pos].SetInt64(1)
	return a, nil
}

// AffConstant returns the constant expression c.
func AffConstant(ls *LocalSpace, c *big.Int) *Aff {
	a := NewAff(ls)
	a.v[1].Set(c)
	return a
}

// Ctx returns the owning Context.
func (a *Aff) Ctx() *Context { return a.ls.Ctx() }

// LocalSpace returns the expression's local space.
func (a *Aff) LocalSpace() *LocalSpace { return a.ls }

// Copy returns a deep copy.
func (a *Aff) Copy() *Aff {
	return &Aff{ls: a.ls.Clone(), v: a.v.Clone()}
}

// Denom returns the denominator.
func (a *Aff) Denom() *big.Int { return new(big.Int).Set(a.v[0]) }

// Coefficient returns the coefficient of dimension pos of type t,
// still scaled by the denominator.
func (a *Aff) Coefficient(t DimType, pos int) *big.Int {
	return new(big.Int).Set(a.v[2+a.ls.Offset(t)+pos-1])
}

// Constant returns the numerator's constant term.
func (a *Aff) Constant() *big.Int { return new(big.Int).Set(a.v[1]) }

// normalize restores the denominator-positive, content-one invariant.
func (a *Aff) normalize() *Aff {
	if a.v[0].Sign() < 0 {
		a.v.Neg()
	}
	a.v.NormalizeContent()
	return a
}

// alignAff rewrites two affs over a merged LocalSpace.
func alignAff(a, b *Aff) (*Aff, *Aff, error) {
	if a.ls.Equal(b.ls) {
		return a.Copy(), b.Copy(), nil
	}
	merged, expa, expb, err := MergeDivs(a.ls, b.ls)
	if err != nil {
		return nil, nil, err
	}
	nv := a.ls.space.nParam + a.ls.space.nIn + a.ls.space.nOut
	ra := &Aff{ls: merged.Clone()}
	ra.v = expandAffVec(a.v, nv, a.ls.NDiv(), merged.NDiv(), expa)
	rb := &Aff{ls: merged.Clone()}
	rb.v = expandAffVec(b.v, nv, b.ls.NDiv(), merged.NDiv(), expb)
	return ra, rb, nil
}

func expandAffVec(v num.Vec, nv, oldDiv, newDiv int, exp []int) num.Vec {
	out := num.NewVec(2 + nv + newDiv)
	for c := 0; c < 2+nv; c++ {
		out[c].Set(v[c])
	}
	for d := 0; d < oldDiv; d++ {
		out[2+nv+exp[d]].Set(v[2+nv+d])
	}
	return out
}

// Add returns a + b.
func (a *Aff) Add(b *Aff) (*Aff, error) {
	ra, rb, err := alignAff(a, b)
	if err != nil {
		return nil, err
	}
	g := num.Gcd(ra.v[0], rb.v[0])
	fa := num.DivExact(rb.v[0], g)
	fb := num.DivExact(ra.v[0], g)
	den := new(big.Int).Mul(ra.v[0], fa)
	num.Vec(ra.v[1:]).Combine(fa, fb, rb.v[1:])
	ra.v[0].Set(den)
	return ra.normalize(), nil
}

// Sub returns a - b.
func (a *Aff) Sub(b *Aff) (*Aff, error) {
	return a.Add(b.Copy().Neg())
}

// Neg negates in place and returns a.
func (a *Aff) Neg() *Aff {
	num.Vec(a.v[1:]).Neg()
	return a
}

// Scale multiplies by the integer f.
func (a *Aff) Scale(f *big.Int) *Aff {
	w := a.Copy()
	num.Vec(w.v[1:]).Scale(f)
	return w.normalize()
}

// ScaleDown divides by the positive integer f, extending the
// denominator.
func (a *Aff) ScaleDown(f *big.Int) (*Aff, error) {
	if f.Sign() <= 0 {
		return nil, a.Ctx().Errorf(ErrInvalid, "scale-down by a non-positive integer")
	}
	w := a.Copy()
	w.v[0].Mul(w.v[0], f)
	return w.normalize(), nil
}

// Floor returns floor(a) as an integral expression, introducing a div
// when the denominator is not one.
func (a *Aff) Floor() *Aff {
	if num.IsOne(a.v[0]) {
		return a.Copy()
	}
	w := &Aff{ls: a.ls.Clone()}
	w.ls.AddDiv(a.v.Clone())
	w.v = num.NewVec(2 + w.ls.Total())
	w.v[0].SetInt64(1)
	w.v[2+w.ls.Total()-1].SetInt64(1)
	return w
}

// Eval evaluates the expression at a point giving values for every
// variable column of the local space.
func (a *Aff) Eval(point num.Vec) *big.Rat {
	n := num.Vec(a.v[1:]).Dot(append(num.Vec{big.NewInt(1)}, point...))
	return new(big.Rat).SetFrac(n, a.v[0])
}

// PlainEqual reports structural equality.
func (a *Aff) PlainEqual(b *Aff) bool {
	return a.ls.Equal(b.ls) && a.v.Equal(b.v)
}

// constraintRow converts the expression into a constraint row over its
// local space, dropping the denominator (positive, so irrelevant to
// the sign).
func (a *Aff) constraintRow() num.Vec {
	return a.v[1:].Clone()
}

// NonnegSet returns the set where a >= 0.
func (a *Aff) NonnegSet() (*Set, error) {
	bs := NewBasicSet(a.ls.space)
	bs.ls = a.ls.Clone()
	if err := bs.AddInequality(a.constraintRow()); err != nil {
		return nil, err
	}
	return SetFromBasicSet(bs), nil
}

// ZeroSet returns the set where a = 0.
func (a *Aff) ZeroSet() (*Set, error) {
	bs := NewBasicSet(a.ls.space)
	bs.ls = a.ls.Clone()
	if err := bs.AddEquality(a.constraintRow()); err != nil {
		return nil, err
	}
	return SetFromBasicSet(bs), nil
}

// LeSet returns the set where a <= b.
func (a *Aff) LeSet(b *Aff) (*Set, error) {
	d, err := b.Sub(a)
	if err != nil {
		return nil, err
	}
	return d.NonnegSet()
}

// GeSet returns the set where a >= b.
func (a *Aff) GeSet(b *Aff) (*Set, error) { return b.LeSet(a) }

// PwAffPiece is one (cell, expression) pair of a piecewise affine
// expression.
type PwAffPiece struct {
	Set *Set
	Aff *Aff
}

// PwAff is a piecewise affine expression with pairwise disjoint cells.
type PwAff struct {
	space  *Space
	pieces []PwAffPiece
}

// PwAffFromAff wraps an expression defined on its whole space.
func PwAffFromAff(a *Aff) *PwAff {
	return &PwAff{
		space:  a.ls.space,
		pieces: []PwAffPiece{{Set: UniverseSet(a.ls.space), Aff: a.Copy()}},
	}
}

// Space returns the shared space of the pieces.
func (p *PwAff) Space() *Space { return p.space }

// NPiece returns the number of pieces.
func (p *PwAff) NPiece() int { return len(p.pieces) }

// Piece returns piece i.
func (p *PwAff) Piece(i int) PwAffPiece { return p.pieces[i] }

// Copy returns a deep copy.
func (p *PwAff) Copy() *PwAff {
	w := &PwAff{space: p.space}
	for _, pc := range p.pieces {
		w.pieces = append(w.pieces, PwAffPiece{Set: pc.Set.Copy(), Aff: pc.Aff.Copy()})
	}
	return w
}

// binOp combines two piecewise expressions cell by cell.
func (p *PwAff) binOp(q *PwAff, f func(a, b *Aff) (*Aff, error)) (*PwAff, error) {
	w := &PwAff{space: p.space}
	for _, pa := range p.pieces {
		for _, pb := range q.pieces {
			cell, err := pa.Set.Intersect(pb.Set)
			if err != nil {
				return nil, err
			}
			empty, err := cell.IsEmpty()
			if err != nil {
				return nil, err
			}
			if empty {
				continue
			}
			v, err := f(pa.Aff, pb.Aff)
			if err != nil {
				return nil, err
			}
			w.pieces = append(w.pieces, PwAffPiece{Set: cell, Aff: v})
		}
	}
	return w, nil
}

// Add returns the piecewise sum.
func (p *PwAff) Add(q *PwAff) (*PwAff, error) {
	return p.binOp(q, func(a, b *Aff) (*Aff, error) { return a.Add(b) })
}

// extreme returns the piecewise minimum (or maximum) of p and q on the
// intersection of their domains.
func (p *PwAff) extreme(q *PwAff, max bool) (*PwAff, error) {
	w := &PwAff{space: p.space}
	for _, pa := range p.pieces {
		for _, pb := range q.pieces {
			cell, err := pa.Set.Intersect(pb.Set)
			if err != nil {
				return nil, err
			}
			le, err := pa.Aff.LeSet(pb.Aff)
			if err != nil {
				return nil, err
			}
			first, err := cell.Intersect(le)
			if err != nil {
				return nil, err
			}
			rest, err := cell.Subtract(first)
			if err != nil {
				return nil, err
			}
			lo, hi := pa.Aff, pb.Aff
			if max {
				lo, hi = hi, lo
			}
			for _, part := range []PwAffPiece{{Set: first, Aff: lo}, {Set: rest, Aff: hi}} {
				empty, err := part.Set.IsEmpty()
				if err != nil {
					return nil, err
				}
				if !empty {
					w.pieces = append(w.pieces, PwAffPiece{Set: part.Set, Aff: part.Aff.Copy()})
				}
			}
		}
	}
	return w, nil
}

// Min returns the piecewise minimum.
func (p *PwAff) Min(q *PwAff) (*PwAff, error) { return p.extreme(q, false) }

// Max returns the piecewise maximum.
func (p *PwAff) Max(q *PwAff) (*PwAff, error) { return p.extreme(q, true) }
