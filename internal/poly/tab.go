package poly

import (
	"math/big"

	"github.com/tliron/commonlog"
	"presburger/internal/num"
)

var tabLog = commonlog.GetLogger("presburger.tab")

// tabVar records where a tableau variable currently lives.
type tabVar struct {
	isRow  bool
	index  int
	nonneg bool
}

// tab is a rational simplex tableau in dictionary form with integer
// entries. Row i has layout [den | const | coeff per column] and means
//
//	rowvar_i = (const + Σ coeff_j · colvar_j) / den
//
// with den > 0. Column variables hold value zero in the current sample,
// so a row's sample value is const/den. Variables 0..n-1 are the basic
// map's variables (sign-unrestricted); slack variables introduced for
// constraints are restricted to be nonnegative.
type tab struct {
	ctx    *Context
	mat    num.Mat
	rowVar []int
	colVar []int
	vars   []tabVar
	n      int // original variables
}

// newTab builds a feasibility tableau for the constraints of bm: one
// slack row per inequality, two per equality, plus the bounding rows of
// every known div definition (d·e <= num + coeffs·x <= d·e + d - 1).
func newTab(bm *BasicMap) *tab {
	total := bm.Total()
	t := &tab{ctx: bm.ctx, n: total}
	t.colVar = make([]int, total)
	t.vars = make([]tabVar, total)
	for v := 0; v < total; v++ {
		t.colVar[v] = v
		t.vars[v] = tabVar{isRow: false, index: v}
	}
	for _, r := range bm.ineq {
		t.addConstraint(r)
	}
	for _, r := range bm.eq {
		t.addConstraint(r)
		t.addConstraint(r.Clone().Neg())
	}
	oDiv := bm.Offset(DimDiv)
	for i := 0; i < bm.ls.NDiv(); i++ {
		d := bm.ls.Div(i)
		if d[0].Sign() <= 0 {
			continue
		}
		// d·e <= num + coeffs·x <= d·e + d - 1
		lower := num.NewVec(1 + total)
		for c := 0; c <= total; c++ {
			lower[c].Set(d[1+c])
		}
		lower[oDiv+i].Sub(lower[oDiv+i], d[0])
		t.addConstraint(lower)
		upper := lower.Clone().Neg()
		upper[0].Add(upper[0], d[0])
		upper[0].Sub(upper[0], big.NewInt(1))
		t.addConstraint(upper)
	}
	return t
}

func (t *tab) nCol() int { return len(t.colVar) }

// addConstraint introduces a nonnegative slack variable defined by a
// constraint row over the original variables and returns its variable
// id.
func (t *tab) addConstraint(row num.Vec) int {
	id := len(t.vars)
	t.vars = append(t.vars, tabVar{isRow: true, index: len(t.mat), nonneg: true})
	t.rowVar = append(t.rowVar, id)
	t.mat = append(t.mat, t.dictionaryRow(row))
	return id
}

// addObjective introduces an unrestricted variable for an affine
// objective and returns its row index.
func (t *tab) addObjective(row num.Vec) int {
	id := len(t.vars)
	t.vars = append(t.vars, tabVar{isRow: true, index: len(t.mat), nonneg: false})
	t.rowVar = append(t.rowVar, id)
	t.mat = append(t.mat, t.dictionaryRow(row))
	return len(t.mat) - 1
}

// dictionaryRow rewrites a constraint row over the original variables
// into the tableau's current dictionary.
func (t *tab) dictionaryRow(row num.Vec) num.Vec {
	w := num.NewVec(2 + t.nCol())
	den := w[0]
	den.SetInt64(1)
	w[1].Set(row[0])
	tmp := new(big.Int)
	for v := 0; v < t.n; v++ {
		c := row[1+v]
		if c.Sign() == 0 {
			continue
		}
		tv := t.vars[v]
		if !tv.isRow {
			tmp.Mul(c, den)
			w[2+tv.index].Add(w[2+tv.index], tmp)
			continue
		}
		src := t.mat[tv.index]
		// w/den += c * src[1:]/src[0]
		num.Vec(w[1:]).Scale(src[0])
		f := new(big.Int).Mul(c, new(big.Int).Set(den))
		num.Vec(w[1:]).AddScaled(f, src[1:])
		den.Mul(den, src[0])
	}
	w.NormalizeContent()
	if w[0].Sign() < 0 {
		w.Neg()
	}
	return w
}

// pivot exchanges row r with column c.
func (t *tab) pivot(r, c int) {
	t.ctx.Stats.Pivots++
	A := t.mat[r]
	d := new(big.Int).Set(A[0])
	ac := new(big.Int).Set(A[2+c])

	// Express the old column variable in terms of the old row variable.
	nr := A.Clone()
	nr[0].Set(ac)
	nr[1].Neg(A[1])
	for k := 0; k < t.nCol(); k++ {
		nr[2+k].Neg(A[2+k])
	}
	nr[2+c].Set(d)
	if nr[0].Sign() < 0 {
		nr.Neg()
	}
	nr.NormalizeContent()
	t.mat[r] = nr

	rv, cv := t.rowVar[r], t.colVar[c]
	t.rowVar[r], t.colVar[c] = cv, rv
	t.vars[rv] = tabVar{isRow: false, index: c, nonneg: t.vars[rv].nonneg}
	t.vars[cv] = tabVar{isRow: true, index: r, nonneg: t.vars[cv].nonneg}

	nden := nr[0]
	for i := range t.mat {
		if i == r {
			continue
		}
		B := t.mat[i]
		bc := new(big.Int).Set(B[2+c])
		if bc.Sign() == 0 {
			continue
		}
		B[2+c].SetInt64(0)
		dd := new(big.Int).Set(B[0])
		num.Vec(B[1:]).Scale(nden)
		num.Vec(B[1:]).AddScaled(bc, nr[1:])
		B[0].Mul(dd, nden)
		B.NormalizeContent()
	}
}

// sign of row i's sample value.
func (t *tab) rowSign(i int) int { return t.mat[i][1].Sign() }

// findRestore locates the restricted row with the lowest variable id
// whose sample value is negative, or -1.
func (t *tab) findRestore() int {
	best := -1
	for i := range t.mat {
		v := t.rowVar[i]
		if !t.vars[v].nonneg || t.rowSign(i) >= 0 {
			continue
		}
		if best < 0 || v < t.rowVar[best] {
			best = i
		}
	}
	return best
}

// improvingCol finds the lowest-id column along which row r's value can
// be increased: a positive coefficient, or any nonzero coefficient on
// an unrestricted column. dir is +1 to move the column variable up,
// -1 down. Returns column -1 if the row is at its maximum.
func (t *tab) improvingCol(r int) (col, dir int) {
	col = -1
	A := t.mat[r]
	for j := 0; j < t.nCol(); j++ {
		s := A[2+j].Sign()
		if s == 0 {
			continue
		}
		if s < 0 && t.vars[t.colVar[j]].nonneg {
			continue
		}
		if col < 0 || t.colVar[j] < t.colVar[col] {
			col = j
			if s > 0 {
				dir = 1
			} else {
				dir = -1
			}
		}
	}
	return col, dir
}

// ratioLimit finds the restricted feasible row that first reaches zero
// when column j moves by t >= 0 in direction dir. skip is a row whose
// own limit is tracked by the caller (or -1). Ties break toward the
// lowest variable id.
func (t *tab) ratioLimit(j, dir, skip int) int {
	best := -1
	bn, bd := new(big.Int), new(big.Int)
	cn := new(big.Int)
	for i := range t.mat {
		if i == skip || !t.vars[t.rowVar[i]].nonneg || t.rowSign(i) < 0 {
			continue
		}
		rate := new(big.Int).Mul(t.mat[i][2+j], big.NewInt(int64(dir)))
		if rate.Sign() >= 0 {
			continue
		}
		// Limit in column units: const_i / |rate| (denominators cancel).
		rate.Neg(rate)
		if best < 0 {
			best = i
			bn.Set(t.mat[i][1])
			bd.Set(rate)
			continue
		}
		// t.mat[i][1]/rate < bn/bd ?
		cn.Mul(t.mat[i][1], bd)
		c2 := new(big.Int).Mul(bn, rate)
		cmp := cn.Cmp(c2)
		if cmp < 0 || (cmp == 0 && t.rowVar[i] < t.rowVar[best]) {
			best = i
			bn.Set(t.mat[i][1])
			bd.Set(rate)
		}
	}
	return best
}

// restore pivots until row r's sample value is nonnegative, keeping all
// other restricted rows feasible. Reports false if r's value is
// negative at its maximum, i.e. the tableau is empty.
func (t *tab) restore(r int) (bool, error) {
	for t.rowSign(r) < 0 {
		if err := t.ctx.checkAbort(); err != nil {
			return false, err
		}
		j, dir := t.improvingCol(r)
		if j < 0 {
			return false, nil
		}
		limit := t.ratioLimit(j, dir, r)
		if limit < 0 {
			t.pivot(r, j)
			continue
		}
		// r reaches zero at (-const_r)/rateR column units, the limiting
		// row at const_l/|rate_l|; pivot whichever stops first.
		rateR := new(big.Int).Mul(t.mat[r][2+j], big.NewInt(int64(dir)))
		rateL := new(big.Int).Mul(t.mat[limit][2+j], big.NewInt(int64(dir)))
		rateL.Neg(rateL)
		lhs := new(big.Int).Neg(t.mat[r][1])
		lhs.Mul(lhs, rateL)
		rhs := new(big.Int).Mul(t.mat[limit][1], rateR)
		if lhs.Cmp(rhs) <= 0 {
			t.pivot(r, j)
		} else {
			t.pivot(limit, j)
		}
	}
	return true, nil
}

// feasible drives every restricted row to a nonnegative sample value.
// It reports whether the rational relaxation is nonempty.
func (t *tab) feasible() (bool, error) {
	for {
		if err := t.ctx.checkAbort(); err != nil {
			return false, err
		}
		r := t.findRestore()
		if r < 0 {
			return true, nil
		}
		ok, err := t.restore(r)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
}

// minimize pivots the objective row r to its minimum over the feasible
// region. Returns the minimum and whether it is bounded below. The
// tableau must be feasible on entry and stays feasible.
func (t *tab) minimize(r int) (*big.Rat, bool, error) {
	for {
		if err := t.ctx.checkAbort(); err != nil {
			return nil, false, err
		}
		A := t.mat[r]
		col, dir := -1, 0
		for j := 0; j < t.nCol(); j++ {
			s := A[2+j].Sign()
			if s == 0 {
				continue
			}
			var d int
			if s < 0 {
				d = 1 // pushing the column up decreases the objective
			} else {
				if t.vars[t.colVar[j]].nonneg {
					continue
				}
				d = -1
			}
			if col < 0 || t.colVar[j] < t.colVar[col] {
				col, dir = j, d
			}
		}
		if col < 0 {
			return new(big.Rat).SetFrac(t.mat[r][1], t.mat[r][0]), true, nil
		}
		limit := t.ratioLimit(col, dir, r)
		if limit < 0 {
			return nil, false, nil
		}
		t.pivot(limit, col)
	}
}

// affBounds returns the rational minimum and maximum of an affine form
// over bm (nil when unbounded in that direction), or empty=true when
// the rational relaxation is empty.
func affBounds(bm *BasicMap, obj num.Vec) (lo, hi *big.Rat, empty bool, err error) {
	t := newTab(bm)
	ok, err := t.feasible()
	if err != nil {
		return nil, nil, false, err
	}
	if !ok {
		return nil, nil, true, nil
	}
	r := t.addObjective(obj)
	min, bounded, err := t.minimize(r)
	if err != nil {
		return nil, nil, false, err
	}
	if bounded {
		lo = min
	}
	t2 := newTab(bm)
	if ok, err = t2.feasible(); err != nil || !ok {
		return nil, nil, !ok, err
	}
	neg := obj.Clone().Neg()
	r2 := t2.addObjective(neg)
	max, bounded2, err := t2.minimize(r2)
	if err != nil {
		return nil, nil, false, err
	}
	if bounded2 {
		hi = new(big.Rat).Neg(max)
	}
	return lo, hi, false, nil
}

// rationallyEmpty reports whether bm's rational relaxation is empty.
func (bm *BasicMap) rationallyEmpty() (bool, error) {
	if bm.IsMarkedEmpty() {
		return true, nil
	}
	t := newTab(bm)
	ok, err := t.feasible()
	if err != nil {
		return false, err
	}
	if !ok {
		bm.flags |= bmRationalEmpty
		tabLog.Debugf("rationally empty after %d total pivots", bm.ctx.Stats.Pivots)
	}
	return !ok, nil
}
