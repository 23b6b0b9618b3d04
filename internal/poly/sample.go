package poly

import (
	"math/big"

	"presburger/internal/num"
)

// sampleWindow caps the number of candidate values tried per variable
// when a direction is rationally unbounded. Equality substitution and
// the bounded directions are searched exhaustively, so the cap is only
// reached on systems that are unbounded toward the candidate side; a
// search that hits it without finding a point reports undecided
// instead of empty (see Sample).
const sampleWindow = 1024

// withDivConstraints returns a copy of bm in which every known div
// definition has been materialized as its pair of bounding
// inequalities, so the divs can be treated as plain integer variables.
func (bm *BasicMap) withDivConstraints() *BasicMap {
	w := bm.Copy()
	total := w.Total()
	oDiv := w.Offset(DimDiv)
	for i := 0; i < w.ls.NDiv(); i++ {
		d := w.ls.Div(i)
		if d[0].Sign() <= 0 {
			continue
		}
		lower := num.NewVec(1 + total)
		for c := 0; c <= total; c++ {
			lower[c].Set(d[1+c])
		}
		lower[oDiv+i].Sub(lower[oDiv+i], d[0])
		upper := lower.Clone().Neg()
		upper[0].Add(upper[0], d[0])
		upper[0].Sub(upper[0], big.NewInt(1))
		w.ineq = append(w.ineq, lower, upper)
	}
	return w
}

// flatSystem is the working state of the integer point search: a
// conjunction over nvar anonymous variables. truncated is shared by
// every clone and records that some unbounded direction was cut off at
// sampleWindow candidates.
type flatSystem struct {
	ctx       *Context
	nvar      int
	eq        num.Mat
	ineq      num.Mat
	truncated *bool
}

func (fs *flatSystem) clone() *flatSystem {
	return &flatSystem{ctx: fs.ctx, nvar: fs.nvar, eq: fs.eq.Clone(), ineq: fs.ineq.Clone(), truncated: fs.truncated}
}

func (fs *flatSystem) toBasicSet() *BasicSet {
	bs := NewBasicSet(NewSetSpace(fs.ctx, 0, fs.nvar))
	bs.eq = fs.eq.Clone()
	bs.ineq = fs.ineq.Clone()
	return bs
}

// fix substitutes variable col (0-based) with value v in place.
func (fs *flatSystem) fix(col int, v *big.Int) {
	t := new(big.Int)
	for _, r := range fs.eq {
		t.Mul(r[1+col], v)
		r[0].Add(r[0], t)
		r[1+col].SetInt64(0)
	}
	for _, r := range fs.ineq {
		t.Mul(r[1+col], v)
		r[0].Add(r[0], t)
		r[1+col].SetInt64(0)
	}
}

// varBounds returns the rational bounds of variable col over fs.
func (fs *flatSystem) varBounds(col int) (lo, hi *big.Rat, empty bool, err error) {
	obj := num.NewVec(1 + fs.nvar)
	obj[1+col].SetInt64(1)
	return affBounds(fs.toBasicSet().BasicMap, obj)
}

// search assigns integer values to the variables in rem (in the order
// chosen by the GBR heuristic), backtracking on dead ends. point
// receives the values found so far.
func (fs *flatSystem) search(rem []int, point num.Vec, depth int) (bool, error) {
	if err := fs.ctx.checkAbort(); err != nil {
		return false, err
	}
	if len(rem) == 0 {
		// Only constants remain; verify them.
		for _, r := range fs.eq {
			if r[0].Sign() != 0 {
				return false, nil
			}
		}
		for _, r := range fs.ineq {
			if r[0].Sign() < 0 {
				return false, nil
			}
		}
		return true, nil
	}
	pick, lo, hi, empty, err := chooseDirection(fs, rem, depth)
	if err != nil || empty {
		return false, err
	}
	col := rem[pick]
	rest := make([]int, 0, len(rem)-1)
	rest = append(rest, rem[:pick]...)
	rest = append(rest, rem[pick+1:]...)

	first, last, down := candidateRange(lo, hi)
	if first == nil {
		return false, nil
	}
	v := new(big.Int).Set(first)
	step := big.NewInt(1)
	if down {
		step.SetInt64(-1)
	}
	for i := 0; ; i++ {
		if last != nil {
			if !down && v.Cmp(last) > 0 {
				break
			}
			if down && v.Cmp(last) < 0 {
				break
			}
		} else if i >= sampleWindow {
			*fs.truncated = true
			break
		}
		sub := fs.clone()
		sub.fix(col, v)
		ok, err := sub.search(rest, point, depth+1)
		if err != nil {
			return false, err
		}
		if ok {
			point[col].Set(v)
			return true, nil
		}
		v.Add(v, step)
	}
	return false, nil
}

// candidateRange turns rational bounds into an integer iteration range.
// down reports iteration toward smaller values (used when only an upper
// bound exists). A nil first means the range is empty.
func candidateRange(lo, hi *big.Rat) (first, last *big.Int, down bool) {
	switch {
	case lo != nil && hi != nil:
		f := ratCeil(lo)
		l := ratFloor(hi)
		if f.Cmp(l) > 0 {
			return nil, nil, false
		}
		return f, l, false
	case lo != nil:
		return ratCeil(lo), nil, false
	case hi != nil:
		return ratFloor(hi), nil, true
	default:
		return new(big.Int), nil, false
	}
}

func ratFloor(r *big.Rat) *big.Int {
	return num.FdivQ(r.Num(), r.Denom())
}

func ratCeil(r *big.Rat) *big.Int {
	return num.CdivQ(r.Num(), r.Denom())
}

// Sample returns an integer point satisfying bm, as values for all
// Total() variable columns, or nil when bm is empty. A search that had
// to cut off an unbounded direction without finding a point cannot
// certify emptiness and reports ErrUnsupported instead.
func (bm *BasicMap) Sample() (num.Vec, error) {
	w := bm.Copy().DetectEqualities()
	if w.IsMarkedEmpty() {
		return nil, nil
	}
	w = w.withDivConstraints()
	fs := &flatSystem{ctx: bm.ctx, nvar: w.Total(), eq: w.eq.Clone(), ineq: w.ineq.Clone(), truncated: new(bool)}
	rem := make([]int, fs.nvar)
	for i := range rem {
		rem[i] = i
	}
	point := num.NewVec(fs.nvar)
	ok, err := fs.search(rem, point, 0)
	if err != nil {
		return nil, err
	}
	if !ok {
		if *fs.truncated {
			return nil, bm.ctx.Errorf(ErrUnsupported, "integer feasibility undecided within the search window")
		}
		return nil, nil
	}
	return point, nil
}

// IsEmpty reports whether bm contains no integer point. The result is
// cached in the empty flag.
func (bm *BasicMap) IsEmpty() (bool, error) {
	if bm.IsMarkedEmpty() {
		return true, nil
	}
	if bm.flags&bmRationalEmpty != 0 {
		bm.MarkEmpty()
		return true, nil
	}
	re, err := bm.rationallyEmpty()
	if err != nil {
		return false, err
	}
	if re {
		bm.MarkEmpty()
		return true, nil
	}
	p, err := bm.Sample()
	if err != nil {
		return false, err
	}
	if p == nil {
		bm.MarkEmpty()
		return true, nil
	}
	return false, nil
}

// IsUniverse reports whether bm has no constraints at all.
func (bm *BasicMap) IsUniverse() bool {
	return !bm.IsMarkedEmpty() && len(bm.eq) == 0 && len(bm.ineq) == 0
}
