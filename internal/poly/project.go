package poly

import (
	"math/big"

	"presburger/internal/num"
)

// spaceDropDims returns space with n dims of type t removed starting at
// first.
func spaceDropDims(s *Space, t DimType, first, n int) *Space {
	w := s.clone()
	switch t {
	case DimParam:
		w.nParam -= n
		w.paramIds = append(append([]*Id(nil), s.paramIds[:first]...), s.paramIds[first+n:]...)
	case DimIn:
		w.nIn -= n
		w.nested[0] = nil
	default:
		w.nOut -= n
		w.nested[1] = nil
	}
	return w
}

// spaceInsertDims returns space with n anonymous dims of type t
// inserted at position pos.
func spaceInsertDims(s *Space, t DimType, pos, n int) *Space {
	w := s.clone()
	switch t {
	case DimParam:
		w.nParam += n
		ids := make([]*Id, 0, len(s.paramIds)+n)
		ids = append(ids, s.paramIds[:pos]...)
		ids = append(ids, make([]*Id, n)...)
		ids = append(ids, s.paramIds[pos:]...)
		w.paramIds = ids
	case DimIn:
		w.nIn += n
		w.nested[0] = nil
	default:
		w.nOut += n
		w.nested[1] = nil
	}
	return w
}

// InsertDims adds n unconstrained dimensions of type t at position pos.
func (bm *BasicMap) InsertDims(t DimType, pos, n int) *BasicMap {
	w := bm.Copy()
	col := w.Offset(t) + pos
	w.eq = w.eq.InsertCols(col, n)
	w.ineq = w.ineq.InsertCols(col, n)
	w.ls.divs = w.ls.divs.InsertCols(1+col, n)
	w.ls.space = spaceInsertDims(w.ls.space, t, pos, n)
	w.invalidate()
	return w
}

// materializeDivDef turns div i's definition into its two bounding
// inequalities and marks the div unknown. Needed before a variable
// referenced by the definition is moved or eliminated.
func (bm *BasicMap) materializeDivDef(i int) {
	d := bm.ls.divs[i]
	if d[0].Sign() <= 0 {
		return
	}
	total := bm.Total()
	oDiv := bm.Offset(DimDiv)
	lower := num.NewVec(1 + total)
	for c := 0; c <= total; c++ {
		lower[c].Set(d[1+c])
	}
	lower[oDiv+i].Sub(lower[oDiv+i], d[0])
	upper := lower.Clone().Neg()
	upper[0].Add(upper[0], d[0])
	upper[0].Sub(upper[0], big.NewInt(1))
	bm.ineq = append(bm.ineq, lower, upper)
	for c := range d {
		d[c].SetInt64(0)
	}
}

// divDefsInvolve reports whether any div definition references
// constraint-row column col.
func (bm *BasicMap) divDefsInvolve(col int) bool {
	for _, d := range bm.ls.divs {
		if d[1+col].Sign() != 0 {
			return true
		}
	}
	return false
}

// dropZeroCol removes constraint-row column col, which must be zero in
// every constraint and div definition, adjusting the space or div list.
func (bm *BasicMap) dropZeroCol(col int, t DimType, dimPos int) {
	bm.eq = bm.eq.DropCols(col, 1)
	bm.ineq = bm.ineq.DropCols(col, 1)
	bm.ls.divs = bm.ls.divs.DropCols(1+col, 1)
	if t == DimDiv {
		bm.ls.divs = append(bm.ls.divs[:dimPos:dimPos], bm.ls.divs[dimPos+1:]...)
	} else {
		bm.ls.space = spaceDropDims(bm.ls.space, t, dimPos, 1)
	}
}

// existentializeCol moves the variable in constraint-row column col to
// the tail of the div block as an unknown div. The column count is
// unchanged; the space loses the dimension.
func (bm *BasicMap) existentializeCol(col int, t DimType, dimPos int) {
	for i := range bm.ls.divs {
		if bm.ls.divs[i][1+col].Sign() != 0 {
			bm.materializeDivDef(i)
		}
	}
	total := bm.Total()
	move := func(row num.Vec, off int) num.Vec {
		out := make(num.Vec, 0, len(row))
		out = append(out, row[:off+col]...)
		out = append(out, row[off+col+1:]...)
		out = append(out, row[off+col])
		return out
	}
	for i := range bm.eq {
		bm.eq[i] = move(bm.eq[i], 1)
	}
	for i := range bm.ineq {
		bm.ineq[i] = move(bm.ineq[i], 1)
	}
	for i := range bm.ls.divs {
		bm.ls.divs[i] = move(bm.ls.divs[i], 2)
	}
	unknown := num.NewVec(2 + total)
	bm.ls.divs = append(bm.ls.divs, unknown)
	bm.ls.space = spaceDropDims(bm.ls.space, t, dimPos, 1)
	bm.invalidate()
}

// elimColViaEquality eliminates column col using equality row e. For a
// unit pivot this is plain substitution; otherwise the variable is
// captured as a known div so the divisibility constraint survives.
// Reports whether elimination succeeded.
func (bm *BasicMap) elimColViaEquality(col int, e int) bool {
	row := bm.eq[e]
	a := new(big.Int).Abs(row[col])
	if !num.IsOne(a) {
		// x = rest/a needs a | rest: introduce d = floor(rest/a) and
		// replace x by d; the equality rest - a·d = 0 keeps the
		// divisibility. Divs referencing x must be materialized first.
		for i := range bm.ls.divs {
			if bm.ls.divs[i][1+col].Sign() != 0 {
				bm.materializeDivDef(i)
			}
		}
		// rest = -(row with col zeroed), scaled to make x's coeff +a.
		rest := row.Clone()
		if row[col].Sign() > 0 {
			rest.Neg()
		}
		rest[col].SetInt64(0)
		def := make(num.Vec, 0, 2+bm.Total())
		def = append(def, new(big.Int).Set(a))
		def = append(def, rest...)
		d := bm.AddDiv(def)
		oDiv := bm.Offset(DimDiv)
		// x := d in every row; the defining equality becomes
		// rest - a·d = 0.
		for i := range bm.eq {
			bm.eq[i][oDiv+d].Add(bm.eq[i][oDiv+d], bm.eq[i][col])
			bm.eq[i][col].SetInt64(0)
		}
		for i := range bm.ineq {
			bm.ineq[i][oDiv+d].Add(bm.ineq[i][oDiv+d], bm.ineq[i][col])
			bm.ineq[i][col].SetInt64(0)
		}
		return true
	}
	p := row
	if p[col].Sign() < 0 {
		p.Neg()
	}
	for k := range bm.eq {
		if k != e {
			elimColFromRow(bm.eq[k], p, col)
		}
	}
	for k := range bm.ineq {
		elimColFromRow(bm.ineq[k], p, col)
	}
	for k := range bm.ls.divs {
		elimColFromDiv(bm.ls.divs[k], p, col)
	}
	// Drop the defining equality; the variable is now unconstrained.
	bm.eq = append(bm.eq[:e:e], bm.eq[e+1:]...)
	return true
}

// fmExact reports whether Fourier-Motzkin elimination of column col
// preserves the integer projection: every combined pair must involve a
// unit coefficient.
func (bm *BasicMap) fmExact(col int) bool {
	for i, r := range bm.ineq {
		si := r[col].Sign()
		if si == 0 {
			continue
		}
		for j := i + 1; j < len(bm.ineq); j++ {
			sj := bm.ineq[j][col].Sign()
			if sj == 0 || si == sj {
				continue
			}
			if !num.IsOne(new(big.Int).Abs(r[col])) &&
				!num.IsOne(new(big.Int).Abs(bm.ineq[j][col])) {
				return false
			}
		}
	}
	return true
}

// fmEliminate removes column col from the inequalities by combining
// every lower bound with every upper bound.
func (bm *BasicMap) fmEliminate(col int) {
	var keep, pos, neg num.Mat
	for _, r := range bm.ineq {
		switch r[col].Sign() {
		case 0:
			keep = append(keep, r)
		case 1:
			pos = append(pos, r)
		default:
			neg = append(neg, r)
		}
	}
	for _, p := range pos {
		for _, n := range neg {
			row := p.Clone()
			row.Combine(new(big.Int).Neg(n[col]), p[col], n)
			row[col].SetInt64(0)
			row.NormalizeContent()
			keep = append(keep, row)
		}
	}
	bm.ineq = keep
}

// projectCol eliminates the variable at constraint-row column col
// (dimension dimPos of type t), removing the column when possible and
// existentializing into an unknown div otherwise.
func (bm *BasicMap) projectCol(col int, t DimType, dimPos int) {
	bm.Gauss()
	if bm.IsMarkedEmpty() {
		return
	}
	for e := range bm.eq {
		if bm.eq[e][col].Sign() != 0 {
			bm.elimColViaEquality(col, e)
			bm.dropZeroCol(col, t, dimPos)
			return
		}
	}
	if !bm.divDefsInvolve(col) && bm.fmExact(col) {
		bm.fmEliminate(col)
		bm.dropZeroCol(col, t, dimPos)
		return
	}
	bm.existentializeCol(col, t, dimPos)
}

// ProjectOut existentially projects away n dimensions of type t
// starting at first: substitution through an equality involving the
// dimension (with divisibility capture) when there is one, otherwise
// Fourier-Motzkin when the integer projection is preserved, falling
// back to unresolved existential divs.
func (bm *BasicMap) ProjectOut(t DimType, first, n int) (*BasicMap, error) {
	if t == DimDiv {
		return nil, bm.ctx.Errorf(ErrInvalid, "cannot project out divs directly")
	}
	if first < 0 || first+n > bm.Dim(t) {
		return nil, bm.ctx.Errorf(ErrInvalid, "project out of range: [%d,%d) of %d", first, first+n, bm.Dim(t))
	}
	w := bm.Copy()
	for k := n - 1; k >= 0; k-- {
		col := w.Offset(t) + first + k
		w.projectCol(col, t, first+k)
		if w.IsMarkedEmpty() {
			// The current dimension was not dropped before the
			// contradiction surfaced.
			return EmptyBasicMap(spaceDropDims(w.ls.space, t, first, k+1)), nil
		}
	}
	w.invalidate()
	return w, nil
}

// Eliminate removes all knowledge about the given dimensions while
// keeping them in place: the result is the cylinder over the
// projection.
func (bm *BasicMap) Eliminate(t DimType, first, n int) (*BasicMap, error) {
	w, err := bm.ProjectOut(t, first, n)
	if err != nil {
		return nil, err
	}
	return w.InsertDims(t, first, n), nil
}

// ComputeDivs attempts to eliminate unresolved existential divs through
// the constraint system; divs that cannot be resolved stay unknown.
func (bm *BasicMap) ComputeDivs() *BasicMap {
	w := bm.Copy()
	w.simplifyExistentials()
	return w
}

// simplifyExistentials removes unknown divs that can be eliminated
// exactly: by substitution through an equality or by exact FM.
func (bm *BasicMap) simplifyExistentials() {
	bm.Gauss()
	if bm.IsMarkedEmpty() {
		return
	}
	oDiv := bm.Offset(DimDiv)
	for i := bm.ls.NDiv() - 1; i >= 0; i-- {
		if bm.ls.DivIsKnown(i) {
			continue
		}
		col := oDiv + i
		if bm.divDefsInvolve(col) {
			continue
		}
		eliminated := false
		for e := range bm.eq {
			if bm.eq[e][col].Sign() != 0 {
				if num.IsOne(new(big.Int).Abs(bm.eq[e][col])) {
					bm.elimColViaEquality(col, e)
					bm.dropZeroCol(col, DimDiv, i)
					eliminated = true
				} else {
					bm.resolveDivFromEquality(i, e)
				}
				break
			}
		}
		if eliminated {
			bm.Gauss()
			oDiv = bm.Offset(DimDiv)
			continue
		}
		if bm.fmExact(col) && !bm.eqInvolves(col) {
			bm.fmEliminate(col)
			bm.dropZeroCol(col, DimDiv, i)
			bm.Gauss()
			oDiv = bm.Offset(DimDiv)
		}
	}
}

// resolveDivFromEquality gives an unknown div a definition from an
// equality a·e + R = 0: under the (retained) equality, e equals
// floor(rest/|a|). The definition is only installed when rest does not
// reference the div itself or any later div, preserving the ordering
// invariant.
func (bm *BasicMap) resolveDivFromEquality(i, e int) {
	col := bm.Offset(DimDiv) + i
	row := bm.eq[e]
	for c := col; c <= bm.Total(); c++ {
		if c != col && row[c].Sign() != 0 {
			return
		}
	}
	a := new(big.Int).Abs(row[col])
	rest := row.Clone()
	if row[col].Sign() > 0 {
		rest.Neg()
	}
	rest[col].SetInt64(0)
	def := num.NewVec(2 + bm.Total())
	def[0].Set(a)
	for c := 0; c <= bm.Total(); c++ {
		def[1+c].Set(rest[c])
	}
	bm.ls.divs[i] = def
	bm.invalidate()
}

func (bm *BasicMap) eqInvolves(col int) bool {
	for _, r := range bm.eq {
		if r[col].Sign() != 0 {
			return true
		}
	}
	return false
}
