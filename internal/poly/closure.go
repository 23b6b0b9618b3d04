package poly

import (
	"math/big"

	"presburger/internal/num"
)

// closureMaxIter bounds the fixpoint iteration before falling back to
// the box over-approximation.
const closureMaxIter = 12

// translationOffset checks whether bm is a plain translation
// { x -> x + delta } for a constant integer vector delta and returns
// the offset.
func translationOffset(bm *BasicMap) (num.Vec, bool, error) {
	n := bm.Space().nIn
	if n != bm.Space().nOut {
		return nil, false, nil
	}
	d, err := MapFromBasicMap(bm).Deltas()
	if err != nil {
		return nil, false, err
	}
	if len(d.bmaps) != 1 {
		return nil, false, nil
	}
	db := d.bmaps[0]
	p, err := db.Sample()
	if err != nil || p == nil {
		return nil, false, err
	}
	oOut := db.Offset(DimOut)
	delta := make(num.Vec, n)
	for i := 0; i < n; i++ {
		delta[i] = new(big.Int).Set(p[oOut-1+i])
		row := num.NewVec(1 + db.Total())
		row[oOut+i].SetInt64(1)
		row[0].Neg(delta[i])
		ok, err := eqValidFor(row, db)
		if err != nil || !ok {
			return nil, false, err
		}
	}
	return delta, true, nil
}

// translationClosure builds { x -> x + k·delta : k >= 1, x ∈ dom,
// x + k·delta ∈ ran } with k an existential variable.
func translationClosure(m *Map, delta num.Vec) (*Map, error) {
	n := m.space.nIn
	dom, err := m.Domain()
	if err != nil {
		return nil, err
	}
	ran, err := m.Range()
	if err != nil {
		return nil, err
	}
	w := EmptyMap(m.space)
	for _, db := range dom.bmaps {
		for _, rb := range ran.bmaps {
			bm := NewBasicMap(m.space)
			k := bm.AddDiv(num.NewVec(2 + bm.Total()))
			oIn, oOut, oDiv := bm.Offset(DimIn), bm.Offset(DimOut), bm.Offset(DimDiv)
			for i := 0; i < n; i++ {
				row := num.NewVec(1 + bm.Total())
				row[oOut+i].SetInt64(1)
				row[oIn+i].SetInt64(-1)
				row[oDiv+k].Neg(delta[i])
				if err := bm.AddEquality(row); err != nil {
					return nil, err
				}
			}
			kPos := num.NewVec(1 + bm.Total())
			kPos[0].SetInt64(-1)
			kPos[oDiv+k].SetInt64(1)
			if err := bm.AddInequality(kPos); err != nil {
				return nil, err
			}
			bm, err = bm.intersectDims(db, DimIn)
			if err != nil {
				return nil, err
			}
			bm, err = bm.intersectDims(rb, DimOut)
			if err != nil {
				return nil, err
			}
			bm.DetectEqualities()
			if !bm.IsMarkedEmpty() {
				w.bmaps = append(w.bmaps, bm)
			}
		}
	}
	return w, nil
}

// checkClosureExact verifies Q = R ∪ (R ; Q) for a candidate closure Q
// that is known to contain R⁺.
func checkClosureExact(r, q *Map) (bool, error) {
	step, err := r.ApplyRange(q)
	if err != nil {
		return false, err
	}
	rhs, err := r.Union(step)
	if err != nil {
		return false, err
	}
	return q.IsSubset(rhs)
}

// boxClosure over-approximates R⁺ by bounding the per-step difference
// vector in a box: y - x must lie in k scaled copies of the box for
// some k >= 1, with x in the domain and y in the range of R.
func boxClosure(m *Map) (*Map, error) {
	n := m.space.nIn
	d, err := m.Deltas()
	if err != nil {
		return nil, err
	}
	dom, err := m.Domain()
	if err != nil {
		return nil, err
	}
	ran, err := m.Range()
	if err != nil {
		return nil, err
	}
	w := EmptyMap(m.space)
	for _, db := range dom.bmaps {
		for _, rb := range ran.bmaps {
			bm := NewBasicMap(m.space)
			k := bm.AddDiv(num.NewVec(2 + bm.Total()))
			oIn, oOut, oDiv := bm.Offset(DimIn), bm.Offset(DimOut), bm.Offset(DimDiv)
			kPos := num.NewVec(1 + bm.Total())
			kPos[0].SetInt64(-1)
			kPos[oDiv+k].SetInt64(1)
			if err := bm.AddInequality(kPos); err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				// Directions over (params, dims) with only dim i set.
				dir := num.NewVec(d.space.nParam + n)
				dir[d.space.nParam+i].SetInt64(1)
				lo, okLo, err := dirMin(d, dir)
				if err != nil {
					return nil, err
				}
				if okLo {
					// y_i - x_i - k·lo_i >= 0
					row := num.NewVec(1 + bm.Total())
					row[oOut+i].SetInt64(1)
					row[oIn+i].SetInt64(-1)
					row[oDiv+k].Neg(lo)
					if err := bm.AddInequality(row); err != nil {
						return nil, err
					}
				}
				hi, okHi, err := dirMin(d, dir.Clone().Neg())
				if err != nil {
					return nil, err
				}
				if okHi {
					// k·hi_i - (y_i - x_i) >= 0, with hi = -min(-dir)
					row := num.NewVec(1 + bm.Total())
					row[oOut+i].SetInt64(-1)
					row[oIn+i].SetInt64(1)
					row[oDiv+k].Neg(hi)
					if err := bm.AddInequality(row); err != nil {
						return nil, err
					}
				}
			}
			bm, err = bm.intersectDims(db, DimIn)
			if err != nil {
				return nil, err
			}
			bm, err = bm.intersectDims(rb, DimOut)
			if err != nil {
				return nil, err
			}
			bm.DetectEqualities()
			if !bm.IsMarkedEmpty() {
				w.bmaps = append(w.bmaps, bm)
			}
		}
	}
	return w, nil
}

// TransitiveClosure computes R⁺ together with an exactness flag. A
// single-translation relation gets the closed form; otherwise the
// union R ∪ R;R ∪ … is iterated to a fixpoint, and if none is reached
// a sound box over-approximation is returned with exact = false. The
// Closure option can force the box computation.
func (m *Map) TransitiveClosure() (*Map, bool, error) {
	if m.space.nIn != m.space.nOut {
		return nil, false, m.ctx.Errorf(ErrInvalid, "transitive closure of a non-square map")
	}
	if m.ctx.Opt.Closure == ClosureBox {
		q, err := boxClosure(m)
		if err != nil {
			return nil, false, err
		}
		exact, err := checkClosureExact(m, q)
		if err != nil {
			return nil, false, err
		}
		return q, exact, nil
	}
	if len(m.bmaps) == 1 {
		delta, ok, err := translationOffset(m.bmaps[0])
		if err != nil {
			return nil, false, err
		}
		if ok {
			q, err := translationClosure(m, delta)
			if err != nil {
				return nil, false, err
			}
			exact, err := checkClosureExact(m, q)
			if err != nil {
				return nil, false, err
			}
			if exact {
				q, err = q.Coalesce()
				if err != nil {
					return nil, false, err
				}
				return q, true, nil
			}
		}
	}
	p := m.Copy()
	for i := 0; i < closureMaxIter; i++ {
		if err := m.ctx.checkAbort(); err != nil {
			return nil, false, err
		}
		step, err := p.ApplyRange(m)
		if err != nil {
			return nil, false, err
		}
		next, err := p.Union(step)
		if err != nil {
			return nil, false, err
		}
		next, err = next.Coalesce()
		if err != nil {
			return nil, false, err
		}
		same, err := next.IsEqual(p)
		if err != nil {
			return nil, false, err
		}
		if same {
			return p, true, nil
		}
		p = next
	}
	q, err := boxClosure(m)
	if err != nil {
		return nil, false, err
	}
	return q, false, nil
}

// Power computes R⁺ = ⋃_{k>=1} R^k: the closed form for a single
// affine translation, the general transitive closure otherwise.
func (m *Map) Power() (*Map, bool, error) {
	return m.TransitiveClosure()
}
