package poly

import (
	"math/big"

	"presburger/internal/num"
)

// boundsOn eliminates all output columns after col from a copy of bm,
// keeping the column layout intact (eliminated columns stay as zero
// columns): equalities involving an eliminated column are turned into
// inequality pairs and the column removed by rational Fourier-Motzkin.
// Div definitions referencing an eliminated column are materialized
// first. The result's inequalities bound the column using only earlier
// variables.
func boundsOn(bm *BasicMap, col int) *BasicMap {
	w := bm.Copy()
	oOut := w.Offset(DimOut)
	last := oOut + w.Dim(DimOut) - 1
	for c := last; c > col; c-- {
		for i := range w.ls.divs {
			if w.ls.divs[i][1+c].Sign() != 0 {
				w.materializeDivDef(i)
			}
		}
		var keep num.Mat
		for _, r := range w.eq {
			if r[c].Sign() == 0 {
				keep = append(keep, r)
				continue
			}
			w.ineq = append(w.ineq, r.Clone(), r.Clone().Neg())
		}
		w.eq = keep
		w.fmEliminate(c)
	}
	return w
}

// pinCandidate adds to piece the choice that lower bound cand (a row
// with positive coefficient a at col) is active: y = ceil(-rest/a),
// introducing a ceil-div when a > 1. Earlier candidates are forced to
// be strictly smaller so the pieces of one level partition the domain.
func pinCandidate(piece *BasicMap, cand num.Vec, col int, earlier []num.Vec) error {
	a := cand[col]
	for _, e := range earlier {
		// Their bound must stay below y: a_e·(y-1) + rest_e >= 0.
		r := e.Clone()
		r[0].Sub(r[0], e[col])
		if err := piece.AddInequality(r); err != nil {
			return err
		}
	}
	if num.IsOne(a) {
		return piece.AddEquality(cand)
	}
	// d = floor((-rest + a - 1)/a), y = d.
	def := make(num.Vec, 0, 2+piece.Total())
	def = append(def, new(big.Int).Set(a))
	body := cand.Clone().Neg()
	body[col].SetInt64(0)
	body[0].Add(body[0], a)
	body[0].Sub(body[0], big.NewInt(1))
	def = append(def, body...)
	d := piece.AddDiv(def)
	row := num.NewVec(1 + piece.Total())
	row[col].SetInt64(-1)
	row[piece.Offset(DimDiv)+d].SetInt64(1)
	return piece.AddEquality(row)
}

// lexminRec pins output dimensions from the most significant onward.
func lexminRec(bm *BasicMap, k int) ([]*BasicMap, error) {
	if err := bm.ctx.checkAbort(); err != nil {
		return nil, err
	}
	empty, err := bm.IsEmpty()
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, nil
	}
	nOut := bm.Dim(DimOut)
	if k == nOut {
		return []*BasicMap{bm}, nil
	}
	col := bm.Offset(DimOut) + k
	w := boundsOn(bm, col)
	if w.IsMarkedEmpty() {
		return nil, nil
	}
	var lowers num.Mat
	pinned := false
	for _, r := range w.eq {
		if r[col].Sign() != 0 {
			// An equality over earlier variables pins y already.
			pinned = true
			break
		}
	}
	if !pinned {
		for _, r := range w.ineq {
			if r[col].Sign() > 0 {
				lowers = append(lowers, r)
			}
		}
		if len(lowers) == 0 {
			return nil, bm.ctx.Errorf(ErrUnsupported, "lexicographic optimum is unbounded")
		}
	}
	if pinned {
		return lexminRec(bm, k+1)
	}
	var pieces []*BasicMap
	for i, cand := range lowers {
		piece := bm.Copy()
		if err := pinCandidate(piece, cand, col, lowers[:i]); err != nil {
			return nil, err
		}
		piece.DetectEqualities()
		if piece.IsMarkedEmpty() {
			continue
		}
		sub, err := lexminRec(piece, k+1)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, sub...)
	}
	return pieces, nil
}

// partialLexmin returns the lexicographically minimal output of a
// single disjunct as a map over the disjunct's domain, with pairwise
// disjoint pieces.
func partialLexmin(bm *BasicMap) (*Map, error) {
	pieces, err := lexminRec(bm.Copy().DetectEqualities(), 0)
	if err != nil {
		return nil, err
	}
	w := EmptyMap(bm.Space())
	for _, p := range pieces {
		w.bmaps = append(w.bmaps, p)
	}
	return w, nil
}

// LexLEMap returns { u -> v : u lexicographically <= v } (or < when
// strict) over n-dimensional tuples with nParam parameters.
func LexLEMap(ctx *Context, nParam, n int, strict bool) *Map {
	sp := NewSpace(ctx, nParam, n, n)
	m := EmptyMap(sp)
	for k := 0; k < n; k++ {
		bm := NewBasicMap(sp)
		oIn, oOut := bm.Offset(DimIn), bm.Offset(DimOut)
		for j := 0; j < k; j++ {
			row := num.NewVec(1 + bm.Total())
			row[oIn+j].SetInt64(-1)
			row[oOut+j].SetInt64(1)
			bm.eq = append(bm.eq, row)
		}
		row := num.NewVec(1 + bm.Total())
		row[oIn+k].SetInt64(-1)
		row[oOut+k].SetInt64(1)
		row[0].SetInt64(-1)
		bm.ineq = append(bm.ineq, row)
		m.bmaps = append(m.bmaps, bm)
	}
	if !strict {
		bm := NewBasicMap(sp)
		oIn, oOut := bm.Offset(DimIn), bm.Offset(DimOut)
		for j := 0; j < n; j++ {
			row := num.NewVec(1 + bm.Total())
			row[oIn+j].SetInt64(-1)
			row[oOut+j].SetInt64(1)
			bm.eq = append(bm.eq, row)
		}
		m.bmaps = append(m.bmaps, bm)
	}
	return m
}

// restrictDomain intersects the domain of m with s.
func (m *Map) restrictDomain(s *Set) (*Map, error) {
	w := EmptyMap(m.space)
	for _, a := range m.bmaps {
		for _, b := range s.bmaps {
			r, err := a.intersectDims(b, DimIn)
			if err != nil {
				return nil, err
			}
			r.DetectEqualities()
			if !r.IsMarkedEmpty() {
				w.bmaps = append(w.bmaps, r)
			}
		}
	}
	return w, nil
}

// intersectDims intersects bm with a basic set bs whose dimensions are
// identified with bm's block of type t.
func (bm *BasicMap) intersectDims(bs *BasicMap, t DimType) (*BasicMap, error) {
	sp, bsp := bm.Space(), bs.Space()
	if bsp.nOut != bm.Dim(t) || bsp.nParam != sp.nParam {
		return nil, bm.ctx.Errorf(ErrInvalid, "dimension mismatch in constraint intersection")
	}
	w := bm.Copy()
	base := w.ls.NDiv()
	// Remap from bs columns to w columns; div references are added as
	// we append, so the map can be built incrementally.
	remap := func(width int) []int {
		r := make([]int, width)
		r[0] = 0
		for i := 0; i < bsp.nParam; i++ {
			r[1+i] = 1 + i
		}
		for i := 0; i < bsp.nOut; i++ {
			r[bs.Offset(DimOut)+i] = w.Offset(t) + i
		}
		for i := 0; i < bs.ls.NDiv(); i++ {
			r[bs.Offset(DimDiv)+i] = w.Offset(DimDiv) + base + i
		}
		return r
	}
	for i := 0; i < bs.ls.NDiv(); i++ {
		src := bs.ls.Div(i)
		rm := remap(1 + bs.Total())
		def := num.NewVec(2 + w.Total())
		def[0].Set(src[0])
		for c := 0; c <= bs.Total(); c++ {
			if rm[c] <= w.Total() {
				def[1+rm[c]].Set(src[1+c])
			}
		}
		w.AddDiv(def[:2+w.Total()])
	}
	rm := remap(1 + bs.Total())
	for _, r := range bs.eq {
		w.eq = append(w.eq, applyRemap(r, rm, 1+w.Total()))
	}
	for _, r := range bs.ineq {
		w.ineq = append(w.ineq, applyRemap(r, rm, 1+w.Total()))
	}
	w.invalidate()
	return w, nil
}

// combineLexmin merges two partial lexmin maps: where both domains
// overlap the lexicographically smaller value wins (ties go to m1).
func combineLexmin(m1, m2 *Map) (*Map, error) {
	n := m1.space.nOut
	dom1, err := m1.Domain()
	if err != nil {
		return nil, err
	}
	dom2, err := m2.Domain()
	if err != nil {
		return nil, err
	}
	only1, err := dom1.Subtract(dom2)
	if err != nil {
		return nil, err
	}
	only2, err := dom2.Subtract(dom1)
	if err != nil {
		return nil, err
	}
	// Domain where m1's value is lex <= m2's.
	le, err := m1.ApplyRange(LexLEMap(m1.ctx, m1.space.nParam, n, false))
	if err != nil {
		return nil, err
	}
	le, err = le.Intersect(m2)
	if err != nil {
		return nil, err
	}
	leDom, err := le.Domain()
	if err != nil {
		return nil, err
	}
	lt, err := m2.ApplyRange(LexLEMap(m2.ctx, m2.space.nParam, n, true))
	if err != nil {
		return nil, err
	}
	lt, err = lt.Intersect(m1)
	if err != nil {
		return nil, err
	}
	ltDom, err := lt.Domain()
	if err != nil {
		return nil, err
	}

	parts := EmptyMap(m1.space)
	add := func(m *Map, dom *Set) error {
		r, err := m.restrictDomain(dom)
		if err != nil {
			return err
		}
		parts.bmaps = append(parts.bmaps, r.bmaps...)
		return nil
	}
	if err := add(m1, only1); err != nil {
		return nil, err
	}
	if err := add(m2, only2); err != nil {
		return nil, err
	}
	if err := add(m1, leDom); err != nil {
		return nil, err
	}
	if err := add(m2, ltDom); err != nil {
		return nil, err
	}
	return parts, nil
}

// Lexmin returns, for every input, the lexicographically smallest
// output related to it. The resulting pieces partition the domain.
func (m *Map) Lexmin() (*Map, error) {
	var res *Map
	for _, bm := range m.bmaps {
		if err := m.ctx.checkAbort(); err != nil {
			return nil, err
		}
		p, err := partialLexmin(bm)
		if err != nil {
			return nil, err
		}
		if res == nil {
			res = p
			continue
		}
		res, err = combineLexmin(res, p)
		if err != nil {
			return nil, err
		}
	}
	if res == nil {
		res = EmptyMap(m.space)
	}
	return res.Coalesce()
}

// negateOut flips the sign of every output dimension.
func (m *Map) negateOut() *Map {
	w := m.Copy()
	for _, bm := range w.bmaps {
		oOut := bm.Offset(DimOut)
		for i := 0; i < bm.Dim(DimOut); i++ {
			for _, r := range bm.eq {
				r[oOut+i].Neg(r[oOut+i])
			}
			for _, r := range bm.ineq {
				r[oOut+i].Neg(r[oOut+i])
			}
			for _, d := range bm.ls.divs {
				d[1+oOut+i].Neg(d[1+oOut+i])
			}
		}
		bm.invalidate()
	}
	return w
}

// Lexmax returns, for every input, the lexicographically largest
// output related to it.
func (m *Map) Lexmax() (*Map, error) {
	w, err := m.negateOut().Lexmin()
	if err != nil {
		return nil, err
	}
	return w.negateOut(), nil
}

// Lexmin returns the lexicographically smallest element of each
// parameter context of the set.
func (s *Set) Lexmin() (*Set, error) {
	m, err := s.Map.Lexmin()
	if err != nil {
		return nil, err
	}
	m.space.set = true
	return &Set{m}, nil
}

// Lexmax returns the lexicographically largest element.
func (s *Set) Lexmax() (*Set, error) {
	m, err := s.Map.Lexmax()
	if err != nil {
		return nil, err
	}
	m.space.set = true
	return &Set{m}, nil
}
