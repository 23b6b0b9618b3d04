package poly

import (
	"math/big"

	"presburger/internal/num"
)

// pointSpan returns the affine equalities satisfied by every row of
// points (each a vector of nv coordinates): the nullspace of the
// homogenized point matrix.
func pointSpan(points num.Mat, nv int) num.Mat {
	h := make(num.Mat, len(points))
	for i, p := range points {
		row := num.NewVec(1 + nv)
		row[0].SetInt64(1)
		for j := 0; j < nv; j++ {
			row[1+j].Set(p[j])
		}
		h[i] = row
	}
	return h.Nullspace()
}

// AffineHull returns the smallest affine subspace containing the set:
// repeated sampling of points and recomputation of their span until
// every span equality is valid on the whole set.
func (s *Set) AffineHull() (*BasicSet, error) {
	nv := s.space.nParam + s.space.nOut
	var points num.Mat
	for _, bm := range s.bmaps {
		p, err := bm.Sample()
		if err != nil {
			return nil, err
		}
		if p != nil {
			points = append(points, p[:nv])
		}
	}
	if len(points) == 0 {
		return EmptyBasicSet(s.space), nil
	}
	for {
		if err := s.ctx.checkAbort(); err != nil {
			return nil, err
		}
		eqs := pointSpan(points, nv)
		grown := false
		for _, e := range eqs {
			for _, bm := range s.bmaps {
				// A point of bm off the hyperplane grows the span.
				for _, dir := range []num.Vec{e, e.Clone().Neg()} {
					probe := bm.Copy()
					row := dir.Clone()
					row[0].Sub(row[0], big.NewInt(1))
					if err := probe.AddInequality(row); err != nil {
						return nil, err
					}
					p, err := probe.Sample()
					if err != nil {
						return nil, err
					}
					if p != nil {
						points = append(points, p[:nv])
						grown = true
						break
					}
				}
				if grown {
					break
				}
			}
			if grown {
				break
			}
		}
		if !grown {
			hull := NewBasicSet(s.space)
			for _, e := range eqs {
				if err := hull.AddEquality(e); err != nil {
					return nil, err
				}
			}
			hull.Gauss()
			return hull, nil
		}
	}
}

// AffineHull of a basic set: bring the equalities to echelon form and
// return them.
func (bs *BasicSet) AffineHull() (*BasicSet, error) {
	if bs.ls.NDiv() > 0 {
		return SetFromBasicSet(bs).AffineHull()
	}
	w := bs.Copy()
	w.Gauss()
	if w.IsMarkedEmpty() {
		return EmptyBasicSet(bs.Space()), nil
	}
	hull := NewBasicSet(bs.Space())
	hull.eq = w.eq.Clone()
	return hull, nil
}

// hullDirections collects the distinct div-free constraint directions
// occurring in the set (equalities contribute both directions).
func hullDirections(s *Set) num.Mat {
	nv := s.space.nParam + s.space.nOut
	seen := map[string]bool{}
	var dirs num.Mat
	add := func(r num.Vec) {
		d := num.NewVec(nv)
		for j := 0; j < nv; j++ {
			d[j].Set(r[1+j])
		}
		for j := nv; j < len(r)-1; j++ {
			if r[1+j].Sign() != 0 {
				return // involves a div
			}
		}
		if d.IsZero() {
			return
		}
		d.NormalizeContent()
		k := rowKey(d)
		if !seen[k] {
			seen[k] = true
			dirs = append(dirs, d)
		}
	}
	for _, bm := range s.bmaps {
		for _, r := range bm.ineq {
			add(r)
		}
		for _, r := range bm.eq {
			add(r)
			add(r.Clone().Neg())
		}
	}
	return dirs
}

// dirMin returns the integer-safe lower bound of dir·x over the set
// (ceil of the rational minimum), or ok=false when dir·x is unbounded
// below on some disjunct or every disjunct is empty.
func dirMin(s *Set, dir num.Vec) (*big.Int, bool, error) {
	nv := s.space.nParam + s.space.nOut
	var best *big.Int
	for _, bm := range s.bmaps {
		obj := num.NewVec(1 + bm.Total())
		for j := 0; j < nv; j++ {
			obj[1+j].Set(dir[j])
		}
		lo, _, empty, err := affBounds(bm, obj)
		if err != nil {
			return nil, false, err
		}
		if empty {
			continue
		}
		if lo == nil {
			return nil, false, nil
		}
		c := num.CdivQ(lo.Num(), lo.Denom())
		if best == nil || c.Cmp(best) < 0 {
			best = c
		}
	}
	return best, best != nil, nil
}

// wrapHull computes a convex over-approximation from the valid
// constraint directions: each direction is tightened to the tightest
// bound valid on every disjunct, and the affine hull's equalities are
// intersected in.
func wrapHull(s *Set) (*BasicSet, error) {
	hull := NewBasicSet(s.space)
	for _, dir := range hullDirections(s) {
		m, ok, err := dirMin(s, dir)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		row := num.NewVec(1 + hull.Total())
		row[0].Neg(m)
		for j := 0; j < len(dir); j++ {
			row[1+j].Set(dir[j])
		}
		if err := hull.AddInequality(row); err != nil {
			return nil, err
		}
	}
	aff, err := s.AffineHull()
	if err != nil {
		return nil, err
	}
	if aff.IsMarkedEmpty() {
		return EmptyBasicSet(s.space), nil
	}
	w, err := hull.Intersect(aff)
	if err != nil {
		return nil, err
	}
	w.Gauss()
	return w, nil
}

// flatIneqs returns the inequality description of bs over
// nv + ndiv columns with every div materialized as a plain variable
// and equalities expanded into inequality pairs.
func flatIneqs(bs *BasicSet) (num.Mat, int) {
	w := bs.withDivConstraints()
	var rows num.Mat
	for _, r := range w.ineq {
		rows = append(rows, r.Clone())
	}
	for _, r := range w.eq {
		rows = append(rows, r.Clone(), r.Clone().Neg())
	}
	return rows, w.Total()
}

// fmPairHull computes the rational convex hull of a ∪ b by projecting
// the standard lifted convex-combination system with Fourier-Motzkin,
// then tightening the constants to integer bounds.
func fmPairHull(a, b *BasicSet) (*BasicSet, error) {
	rowsA, nA := flatIneqs(a)
	rowsB, nB := flatIneqs(b)
	sp := a.Space()
	nv := sp.nParam + sp.nOut

	// Variables: x (nv), zA (nA), zB extra divs (nB - nv), lambda.
	// The convex combination is x = u + v with u = lambda-scaled point
	// of a (coordinates zA) and v = (1-lambda)-scaled point of b whose
	// first nv coordinates are x - zA[:nv].
	extraB := nB - nv
	total := nv + nA + extraB + 1
	oZ := nv
	oW := nv + nA
	oL := nv + nA + extraB
	var sys num.Mat
	// a's constraints on (zA, lambda): c·lambda + sum a_j z_j >= 0.
	for _, r := range rowsA {
		row := num.NewVec(1 + total)
		row[1+oL].Set(r[0])
		for j := 0; j < nA; j++ {
			row[1+oZ+j].Set(r[1+j])
		}
		sys = append(sys, row)
	}
	// b's constraints on (x - z, w, 1-lambda).
	for _, r := range rowsB {
		row := num.NewVec(1 + total)
		row[0].Set(r[0])
		row[1+oL].Neg(r[0])
		for j := 0; j < nv; j++ {
			row[1+j].Set(r[1+j])
			row[1+oZ+j].Neg(r[1+j])
		}
		for j := 0; j < extraB; j++ {
			row[1+oW+j].Set(r[1+nv+j])
		}
		sys = append(sys, row)
	}
	// 0 <= lambda <= 1.
	l0 := num.NewVec(1 + total)
	l0[1+oL].SetInt64(1)
	l1 := num.NewVec(1 + total)
	l1[0].SetInt64(1)
	l1[1+oL].SetInt64(-1)
	sys = append(sys, l0, l1)

	scratch := NewBasicSet(NewSetSpace(a.ctx, 0, total))
	scratch.ineq = sys
	for c := total; c > nv; c-- {
		scratch.fmEliminate(c)
		scratch.normalizeRows()
	}

	hull := NewBasicSet(sp)
	for _, r := range scratch.ineq {
		row := num.NewVec(1 + hull.Total())
		row[0].Set(r[0])
		for j := 0; j < nv; j++ {
			row[1+j].Set(r[1+j])
		}
		if err := hull.AddInequality(row); err != nil {
			return nil, err
		}
	}
	hull.Gauss()
	return hull, nil
}

// ConvexHull returns a convex basic set containing the set, computed
// with the algorithm selected by the ConvexHull option: wrap
// (direction tightening) or fm (lifted Fourier-Motzkin).
func (s *Set) ConvexHull() (*BasicSet, error) {
	empty, err := s.IsEmpty()
	if err != nil {
		return nil, err
	}
	if empty {
		return EmptyBasicSet(s.space), nil
	}
	if s.ctx.Opt.ConvexHull == HullFM {
		hull := s.BasicSetAt(0).Copy()
		for i := 1; i < len(s.bmaps); i++ {
			if err := s.ctx.checkAbort(); err != nil {
				return nil, err
			}
			hull, err = fmPairHull(hull, s.BasicSetAt(i))
			if err != nil {
				return nil, err
			}
		}
		return hull, nil
	}
	return wrapHull(s)
}
