package poly

import (
	"math/big"

	"presburger/internal/num"
)

type mapFlags uint

const (
	mapDisjoint mapFlags = 1 << iota
)

// Map is a finite union of BasicMaps over one Space. The order of
// disjuncts carries no meaning; operations may reorder them.
type Map struct {
	ctx   *Context
	space *Space
	bmaps []*BasicMap
	flags mapFlags
}

// Set is a Map over a set space.
type Set struct {
	*Map
}

// EmptyMap returns a map with no disjuncts.
func EmptyMap(space *Space) *Map {
	return &Map{ctx: space.ctx, space: space, flags: mapDisjoint}
}

// EmptySet returns a set with no disjuncts.
func EmptySet(space *Space) *Set { return &Set{EmptyMap(space)} }

// UniverseMap returns the map containing every tuple of its space.
func UniverseMap(space *Space) *Map {
	m := EmptyMap(space)
	m.bmaps = append(m.bmaps, NewBasicMap(space))
	return m
}

// UniverseSet returns the set containing every tuple of its space.
func UniverseSet(space *Space) *Set { return &Set{UniverseMap(space)} }

// MapFromBasicMap wraps a single disjunct.
func MapFromBasicMap(bm *BasicMap) *Map {
	m := EmptyMap(bm.Space())
	if !bm.IsMarkedEmpty() {
		m.bmaps = append(m.bmaps, bm.Copy())
	}
	return m
}

// SetFromBasicSet wraps a single basic set.
func SetFromBasicSet(bs *BasicSet) *Set {
	return &Set{MapFromBasicMap(bs.BasicMap)}
}

// Ctx returns the owning Context.
func (m *Map) Ctx() *Context { return m.ctx }

// Space returns the shared space of all disjuncts.
func (m *Map) Space() *Space { return m.space }

// NBasicMap returns the number of disjuncts.
func (m *Map) NBasicMap() int { return len(m.bmaps) }

// BasicMapAt returns disjunct i.
func (m *Map) BasicMapAt(i int) *BasicMap { return m.bmaps[i] }

// NBasicSet returns the number of disjuncts.
func (s *Set) NBasicSet() int { return len(s.bmaps) }

// BasicSetAt returns disjunct i.
func (s *Set) BasicSetAt(i int) *BasicSet { return &BasicSet{s.bmaps[i]} }

// Copy returns a deep copy.
func (m *Map) Copy() *Map {
	w := &Map{ctx: m.ctx, space: m.space, flags: m.flags}
	for _, bm := range m.bmaps {
		w.bmaps = append(w.bmaps, bm.Copy())
	}
	return w
}

// Copy returns a deep copy.
func (s *Set) Copy() *Set { return &Set{s.Map.Copy()} }

// AddBasicMap adds a disjunct, which must share the map's space.
func (m *Map) AddBasicMap(bm *BasicMap) error {
	if !m.space.Equal(bm.Space()) {
		return m.ctx.Errorf(ErrInvalid, "adding disjunct of different space")
	}
	if !bm.IsMarkedEmpty() {
		m.bmaps = append(m.bmaps, bm.Copy())
		m.flags &^= mapDisjoint
	}
	return nil
}

// addDisjoint appends a disjunct known to be disjoint from the rest,
// preserving the disjointness flag.
func (m *Map) addDisjoint(bm *BasicMap) {
	if !bm.IsMarkedEmpty() {
		m.bmaps = append(m.bmaps, bm)
	}
}

// Union returns the set-theoretic union of m and o.
func (m *Map) Union(o *Map) (*Map, error) {
	if !m.space.Equal(o.space) {
		return nil, m.ctx.Errorf(ErrInvalid, "union of maps over different spaces")
	}
	w := m.Copy()
	w.flags &^= mapDisjoint
	for _, bm := range o.bmaps {
		w.bmaps = append(w.bmaps, bm.Copy())
	}
	return w, nil
}

// Union returns the union of two sets.
func (s *Set) Union(o *Set) (*Set, error) {
	m, err := s.Map.Union(o.Map)
	if err != nil {
		return nil, err
	}
	return &Set{m}, nil
}

// Intersect returns the intersection, distributing over disjuncts.
func (m *Map) Intersect(o *Map) (*Map, error) {
	if !m.space.Equal(o.space) {
		return nil, m.ctx.Errorf(ErrInvalid, "intersection of maps over different spaces")
	}
	w := EmptyMap(m.space)
	for _, a := range m.bmaps {
		if err := m.ctx.checkAbort(); err != nil {
			return nil, err
		}
		for _, b := range o.bmaps {
			bm, err := a.Intersect(b)
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

// Intersect returns the intersection of two sets.
func (s *Set) Intersect(o *Set) (*Set, error) {
	m, err := s.Map.Intersect(o.Map)
	if err != nil {
		return nil, err
	}
	return &Set{m}, nil
}

// subtractBasic returns a (disjoint) list of pieces of a with b
// removed. b's constraints are negated one at a time after aligning
// the div lists, so each piece excludes one more constraint of b.
func subtractBasic(a, b *BasicMap) ([]*BasicMap, error) {
	if b.IsMarkedEmpty() {
		return []*BasicMap{a.Copy()}, nil
	}
	if !b.ls.AllDivsKnown() {
		bb := b.ComputeDivs()
		if !bb.ls.AllDivsKnown() {
			return nil, a.ctx.Errorf(ErrUnsupported, "subtracting a relation with unresolved existentials")
		}
		b = bb
	}
	ra, rb, err := alignDivs(a, b)
	if err != nil {
		return nil, err
	}
	one := big.NewInt(1)
	var pieces []*BasicMap
	keep := ra.Copy()
	negate := func(row num.Vec) ([]num.Vec, error) {
		// ¬(row >= 0) over the integers is -row - 1 >= 0.
		neg := row.Clone().Neg()
		neg[0].Sub(neg[0], one)
		return []num.Vec{neg}, nil
	}
	addPiece := func(base *BasicMap, rows ...num.Vec) error {
		p := base.Copy()
		for _, r := range rows {
			if err := p.AddInequality(r); err != nil {
				return err
			}
		}
		p.DetectEqualities()
		if !p.IsMarkedEmpty() {
			pieces = append(pieces, p)
		}
		return nil
	}
	for _, r := range rb.eq {
		// x outside the hyperplane: r >= 1 or -r >= 1.
		up := r.Clone()
		up[0].Sub(up[0], one)
		if err := addPiece(keep, up); err != nil {
			return nil, err
		}
		dn := r.Clone().Neg()
		dn[0].Sub(dn[0], one)
		if err := addPiece(keep, dn); err != nil {
			return nil, err
		}
		if err := keep.AddEquality(r); err != nil {
			return nil, err
		}
	}
	for _, r := range rb.ineq {
		negRows, err := negate(r)
		if err != nil {
			return nil, err
		}
		if err := addPiece(keep, negRows...); err != nil {
			return nil, err
		}
		if err := keep.AddInequality(r); err != nil {
			return nil, err
		}
	}
	return pieces, nil
}

// Subtract returns m with every point of o removed.
func (m *Map) Subtract(o *Map) (*Map, error) {
	if !m.space.Equal(o.space) {
		return nil, m.ctx.Errorf(ErrInvalid, "difference of maps over different spaces")
	}
	cur := m.Copy()
	for _, b := range o.bmaps {
		if err := m.ctx.checkAbort(); err != nil {
			return nil, err
		}
		w := EmptyMap(m.space)
		if cur.flags&mapDisjoint == 0 && len(cur.bmaps) > 1 {
			w.flags &^= mapDisjoint
		}
		for _, a := range cur.bmaps {
			pieces, err := subtractBasic(a, b)
			if err != nil {
				return nil, err
			}
			for _, p := range pieces {
				// Pieces of one complement are pairwise disjoint.
				w.addDisjoint(p)
			}
		}
		cur = w
	}
	return cur, nil
}

// Subtract returns the set difference.
func (s *Set) Subtract(o *Set) (*Set, error) {
	m, err := s.Map.Subtract(o.Map)
	if err != nil {
		return nil, err
	}
	return &Set{m}, nil
}

// IsEmpty reports whether the map denotes the empty relation.
func (m *Map) IsEmpty() (bool, error) {
	for _, bm := range m.bmaps {
		if err := m.ctx.checkAbort(); err != nil {
			return false, err
		}
		empty, err := bm.IsEmpty()
		if err != nil {
			return false, err
		}
		if !empty {
			return false, nil
		}
	}
	return true, nil
}

// IsSubset reports m ⊆ o.
func (m *Map) IsSubset(o *Map) (bool, error) {
	diff, err := m.Subtract(o)
	if err != nil {
		return false, err
	}
	return diff.IsEmpty()
}

// IsEqual reports denotational equality.
func (m *Map) IsEqual(o *Map) (bool, error) {
	sub, err := m.IsSubset(o)
	if err != nil || !sub {
		return false, err
	}
	return o.IsSubset(m)
}

// IsEqual reports denotational equality of sets.
func (s *Set) IsEqual(o *Set) (bool, error) { return s.Map.IsEqual(o.Map) }

// IsSubset reports s ⊆ o.
func (s *Set) IsSubset(o *Set) (bool, error) { return s.Map.IsSubset(o.Map) }

// Reverse swaps domain and range.
func (m *Map) Reverse() *Map {
	w := EmptyMap(m.space.Reverse())
	for _, bm := range m.bmaps {
		w.bmaps = append(w.bmaps, bm.Reverse())
	}
	w.flags = m.flags
	return w
}

// IdentityMap returns { x -> x } over a map space with equal tuple
// sizes.
func IdentityMap(space *Space) (*Map, error) {
	if space.nIn != space.nOut {
		return nil, space.ctx.Errorf(ErrInvalid, "identity needs equal tuple sizes")
	}
	bm := NewBasicMap(space)
	oIn, oOut := bm.Offset(DimIn), bm.Offset(DimOut)
	for i := 0; i < space.nIn; i++ {
		row := num.NewVec(1 + bm.Total())
		row[oIn+i].SetInt64(-1)
		row[oOut+i].SetInt64(1)
		if err := bm.AddEquality(row); err != nil {
			return nil, err
		}
	}
	return MapFromBasicMap(bm), nil
}

// applyJoin builds the composition a;b (a: A->B, b: B->C) as a basic
// map over A->C with the B tuple existentialized.
func applyJoin(a, b *BasicMap) (*BasicMap, error) {
	sa, sb := a.Space(), b.Space()
	if sa.nOut != sb.nIn || sa.nParam != sb.nParam {
		return nil, a.ctx.Errorf(ErrInvalid, "composition tuple mismatch: %d vs %d", sa.nOut, sb.nIn)
	}
	nB := sa.nOut
	sp := NewSpace(sa.ctx, sa.nParam, sa.nIn, sb.nOut)
	sp.paramIds = append([]*Id(nil), sa.paramIds...)
	for i, id := range sp.paramIds {
		if id == nil {
			sp.paramIds[i] = sb.paramIds[i]
		}
	}
	sp.tupleIds[0] = sa.tupleIds[0]
	sp.tupleIds[1] = sb.tupleIds[1]
	w := NewBasicMap(sp)
	// Divs: nB unknown divs for the joined tuple, then a's divs, then
	// b's divs.
	for i := 0; i < nB+a.ls.NDiv()+b.ls.NDiv(); i++ {
		w.ls.divs = append(w.ls.divs, nil)
	}
	total := sp.nParam + sp.nIn + sp.nOut + len(w.ls.divs)
	oDiv := 1 + sp.nParam + sp.nIn + sp.nOut
	for i := range w.ls.divs {
		w.ls.divs[i] = num.NewVec(2 + total)
	}

	// Column remap for a: params, in stay; out -> divs[0:nB]; divs ->
	// divs[nB:].
	remapA := make([]int, 1+a.Total())
	remapA[0] = 0
	for i := 0; i < sa.nParam+sa.nIn; i++ {
		remapA[1+i] = 1 + i
	}
	for i := 0; i < nB; i++ {
		remapA[a.Offset(DimOut)+i] = oDiv + i
	}
	for i := 0; i < a.ls.NDiv(); i++ {
		remapA[a.Offset(DimDiv)+i] = oDiv + nB + i
	}
	// Column remap for b: params stay; in -> divs[0:nB]; out -> out;
	// divs -> divs[nB+nDivA:].
	remapB := make([]int, 1+b.Total())
	remapB[0] = 0
	for i := 0; i < sb.nParam; i++ {
		remapB[1+i] = 1 + i
	}
	for i := 0; i < nB; i++ {
		remapB[b.Offset(DimIn)+i] = oDiv + i
	}
	for i := 0; i < sb.nOut; i++ {
		remapB[b.Offset(DimOut)+i] = 1 + sp.nParam + sp.nIn + i
	}
	for i := 0; i < b.ls.NDiv(); i++ {
		remapB[b.Offset(DimDiv)+i] = oDiv + nB + a.ls.NDiv() + i
	}

	width := 1 + total
	for _, r := range a.eq {
		w.eq = append(w.eq, applyRemap(r, remapA, width))
	}
	for _, r := range a.ineq {
		w.ineq = append(w.ineq, applyRemap(r, remapA, width))
	}
	for _, r := range b.eq {
		w.eq = append(w.eq, applyRemap(r, remapB, width))
	}
	for _, r := range b.ineq {
		w.ineq = append(w.ineq, applyRemap(r, remapB, width))
	}
	for i := 0; i < a.ls.NDiv(); i++ {
		src := a.ls.Div(i)
		dst := w.ls.divs[nB+i]
		dst[0].Set(src[0])
		for c := 0; c < len(src)-1; c++ {
			dst[1+remapA[c]].Set(src[1+c])
		}
	}
	for i := 0; i < b.ls.NDiv(); i++ {
		src := b.ls.Div(i)
		dst := w.ls.divs[nB+a.ls.NDiv()+i]
		dst[0].Set(src[0])
		for c := 0; c < len(src)-1; c++ {
			dst[1+remapB[c]].Set(src[1+c])
		}
	}
	w.simplifyExistentials()
	return w, nil
}

// ApplyRange composes m with o: (m.ApplyRange(o))(x) = o(m(x)).
func (m *Map) ApplyRange(o *Map) (*Map, error) {
	sp := NewSpace(m.ctx, m.space.nParam, m.space.nIn, o.space.nOut)
	sp.paramIds = append([]*Id(nil), m.space.paramIds...)
	for i, id := range sp.paramIds {
		if id == nil {
			sp.paramIds[i] = o.space.paramIds[i]
		}
	}
	sp.tupleIds[0] = m.space.tupleIds[0]
	sp.tupleIds[1] = o.space.tupleIds[1]
	w := EmptyMap(sp)
	first := true
	for _, a := range m.bmaps {
		if err := m.ctx.checkAbort(); err != nil {
			return nil, err
		}
		for _, b := range o.bmaps {
			j, err := applyJoin(a, b)
			if err != nil {
				return nil, err
			}
			if first {
				w.space = j.Space()
				first = false
			}
			j.DetectEqualities()
			if !j.IsMarkedEmpty() {
				w.bmaps = append(w.bmaps, j)
			}
		}
	}
	return w, nil
}

// Apply transforms a set through a map.
func (s *Set) Apply(m *Map) (*Set, error) {
	// A set is a nullary relation; compose directly.
	w, err := s.Map.ApplyRange(m)
	if err != nil {
		return nil, err
	}
	w.space.set = true
	return &Set{w}, nil
}

// Domain returns the set of inputs related to at least one output.
func (m *Map) Domain() (*Set, error) {
	w := EmptySet(m.space.Domain())
	for _, bm := range m.bmaps {
		p, err := bm.ProjectOut(DimOut, 0, m.space.nOut)
		if err != nil {
			return nil, err
		}
		// Re-view the inputs as set dimensions.
		q := p.Reverse()
		q.ls.space = m.space.Domain()
		if !q.IsMarkedEmpty() {
			w.bmaps = append(w.bmaps, q)
		}
	}
	return w, nil
}

// Range returns the set of outputs related to at least one input.
func (m *Map) Range() (*Set, error) {
	w := EmptySet(m.space.Range())
	for _, bm := range m.bmaps {
		p, err := bm.ProjectOut(DimIn, 0, m.space.nIn)
		if err != nil {
			return nil, err
		}
		p.ls.space = m.space.Range()
		if !p.IsMarkedEmpty() {
			w.bmaps = append(w.bmaps, p)
		}
	}
	return w, nil
}

// Deltas returns the difference set { y - x : x -> y in m } of a map
// with equal tuple sizes.
func (m *Map) Deltas() (*Set, error) {
	n := m.space.nIn
	if n != m.space.nOut {
		return nil, m.ctx.Errorf(ErrInvalid, "deltas of a non-square map")
	}
	w := EmptySet(NewSetSpace(m.ctx, m.space.nParam, n))
	for _, bm := range m.bmaps {
		d := bm.InsertDims(DimOut, m.space.nOut, n)
		oIn, oOut := d.Offset(DimIn), d.Offset(DimOut)
		for i := 0; i < n; i++ {
			row := num.NewVec(1 + d.Total())
			row[oOut+n+i].SetInt64(1)
			row[oOut+i].SetInt64(-1)
			row[oIn+i].SetInt64(1)
			if err := d.AddEquality(row); err != nil {
				return nil, err
			}
		}
		p, err := d.ProjectOut(DimOut, 0, n)
		if err != nil {
			return nil, err
		}
		p, err = p.ProjectOut(DimIn, 0, n)
		if err != nil {
			return nil, err
		}
		p.ls.space = w.space
		p.DetectEqualities()
		if !p.IsMarkedEmpty() {
			w.bmaps = append(w.bmaps, p)
		}
	}
	return w, nil
}

// IsSingleValued reports whether each input maps to at most one output.
func (m *Map) IsSingleValued() (bool, error) {
	j, err := m.Reverse().ApplyRange(m)
	if err != nil {
		return false, err
	}
	id, err := IdentityMap(j.Space())
	if err != nil {
		return false, err
	}
	return j.IsSubset(id)
}

// IsInjective reports whether each output has at most one input.
func (m *Map) IsInjective() (bool, error) {
	return m.Reverse().IsSingleValued()
}

// IsBijective reports whether the map is single-valued and injective.
func (m *Map) IsBijective() (bool, error) {
	sv, err := m.IsSingleValued()
	if err != nil || !sv {
		return false, err
	}
	return m.IsInjective()
}

// DetectEqualities normalizes every disjunct and drops empty ones.
func (m *Map) DetectEqualities() *Map {
	var keep []*BasicMap
	for _, bm := range m.bmaps {
		bm.DetectEqualities()
		if !bm.IsMarkedEmpty() {
			keep = append(keep, bm)
		}
	}
	m.bmaps = keep
	return m
}

// ProjectOut existentially projects dimensions away from every
// disjunct.
func (m *Map) ProjectOut(t DimType, first, n int) (*Map, error) {
	var w *Map
	for _, bm := range m.bmaps {
		p, err := bm.ProjectOut(t, first, n)
		if err != nil {
			return nil, err
		}
		if w == nil {
			w = EmptyMap(p.Space())
		}
		if !p.IsMarkedEmpty() {
			w.bmaps = append(w.bmaps, p)
		}
	}
	if w == nil {
		sp := spaceDropDims(m.space, t, first, n)
		w = EmptyMap(sp)
	}
	return w, nil
}

// ProjectOut existentially projects dimensions away from every
// disjunct of a set.
func (s *Set) ProjectOut(t DimType, first, n int) (*Set, error) {
	m, err := s.Map.ProjectOut(t, first, n)
	if err != nil {
		return nil, err
	}
	m.space.set = true
	return &Set{m}, nil
}

// Continuation is the three-valued result of a foreach callback.
type Continuation int

const (
	Continue Continuation = iota
	Break
	Stop
)

// ForeachBasicMap visits every disjunct. The callback may continue,
// break out of the loop, or signal an error via Stop.
func (m *Map) ForeachBasicMap(f func(*BasicMap) Continuation) error {
	for _, bm := range m.bmaps {
		switch f(bm) {
		case Break:
			return nil
		case Stop:
			return m.ctx.Errorf(ErrUnknown, "foreach callback failed")
		}
	}
	return nil
}
