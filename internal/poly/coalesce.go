package poly

import (
	"math/big"

	"github.com/tliron/commonlog"
	"presburger/internal/num"
)

var coalesceLog = commonlog.GetLogger("presburger.coalesce")

// rowValidFor reports whether bm ⊆ { row >= 0 }, i.e. the inequality is
// valid on all of bm. Answered as an integer emptiness query on
// bm ∩ { -row - 1 >= 0 }.
func rowValidFor(row num.Vec, bm *BasicMap) (bool, error) {
	neg := row.Clone().Neg()
	neg[0].Sub(neg[0], big.NewInt(1))
	probe := bm.Copy()
	if err := probe.AddInequality(neg); err != nil {
		return false, err
	}
	empty, err := probe.IsEmpty()
	if err != nil {
		return false, err
	}
	return empty, nil
}

// eqValidFor reports whether bm lies inside the hyperplane row = 0.
func eqValidFor(row num.Vec, bm *BasicMap) (bool, error) {
	ok, err := rowValidFor(row, bm)
	if err != nil || !ok {
		return ok, err
	}
	return rowValidFor(row.Clone().Neg(), bm)
}

// coalescePair tries to replace the pair (a, b) with a single basic
// map covering exactly a ∪ b. The recognized situations:
//
//   - b ⊆ a (every constraint of a is valid for b): keep a;
//   - a ⊆ b: keep b;
//   - fusion: the conjunction of all constraints of a valid for b and
//     all constraints of b valid for a; kept only when it adds no
//     points beyond a ∪ b, verified by an exact emptiness query. This
//     covers adjacency along a dropped cut as well as single-constraint
//     extensions.
//
// Pairs whose aligned local spaces still contain unresolved divs are
// left alone.
func coalescePair(a, b *BasicMap) (*BasicMap, bool, error) {
	ra, rb, err := alignDivs(a, b)
	if err != nil {
		return nil, false, err
	}
	if !ra.ls.AllDivsKnown() {
		return nil, false, nil
	}

	type status struct {
		row num.Vec
		eq  bool
		ok  bool
	}
	classify := func(src, other *BasicMap) ([]status, bool, error) {
		all := true
		var sts []status
		for _, r := range src.eq {
			// An equality is classified as its two opposite inequalities,
			// so a half that is valid for other can join the fusion.
			for _, half := range []num.Vec{r, r.Clone().Neg()} {
				ok, err := rowValidFor(half, other)
				if err != nil {
					return nil, false, err
				}
				all = all && ok
				sts = append(sts, status{row: half, eq: false, ok: ok})
			}
		}
		for _, r := range src.ineq {
			ok, err := rowValidFor(r, other)
			if err != nil {
				return nil, false, err
			}
			all = all && ok
			sts = append(sts, status{row: r, eq: false, ok: ok})
		}
		return sts, all, nil
	}

	stsA, allA, err := classify(ra, rb)
	if err != nil {
		return nil, false, err
	}
	if allA {
		// b satisfies every constraint of a.
		return ra, true, nil
	}
	stsB, allB, err := classify(rb, ra)
	if err != nil {
		return nil, false, err
	}
	if allB {
		return rb, true, nil
	}

	// Fusion candidate: constraints valid on both disjuncts.
	fused := &BasicMap{ctx: ra.ctx, ls: ra.ls.Clone()}
	for _, st := range append(stsA, stsB...) {
		if !st.ok {
			continue
		}
		if st.eq {
			fused.eq = append(fused.eq, st.row.Clone())
		} else {
			fused.ineq = append(fused.ineq, st.row.Clone())
		}
	}
	fused.DetectEqualities()
	if fused.IsMarkedEmpty() {
		return nil, false, nil
	}
	// Exactness: fused must not reach beyond a ∪ b.
	cover, err := MapFromBasicMap(ra).Union(MapFromBasicMap(rb))
	if err != nil {
		return nil, false, err
	}
	extra, err := MapFromBasicMap(fused).Subtract(cover)
	if err != nil {
		return nil, false, err
	}
	empty, err := extra.IsEmpty()
	if err != nil {
		return nil, false, err
	}
	if !empty {
		return nil, false, nil
	}
	return fused, true, nil
}

// Coalesce repeatedly merges pairs of disjuncts whose union is convex.
// Every successful merge strictly decreases the number of disjuncts,
// and the pass restarts because the merged disjunct may combine with a
// third one. The denotation is preserved exactly.
func (m *Map) Coalesce() (*Map, error) {
	w := m.Copy().DetectEqualities()
	for {
		if err := w.ctx.checkAbort(); err != nil {
			return nil, err
		}
		merged := false
	pairs:
		for i := 0; i < len(w.bmaps) && !merged; i++ {
			for j := i + 1; j < len(w.bmaps); j++ {
				f, ok, err := coalescePair(w.bmaps[i], w.bmaps[j])
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				coalesceLog.Debugf("coalesced disjuncts %d and %d of %d", i, j, len(w.bmaps))
				w.bmaps[i] = f
				w.bmaps = append(w.bmaps[:j], w.bmaps[j+1:]...)
				merged = true
				break pairs
			}
		}
		if !merged {
			for i, bm := range w.bmaps {
				r, err := bm.RemoveRedundancies()
				if err != nil {
					return nil, err
				}
				w.bmaps[i] = r
			}
			return w, nil
		}
	}
}

// Coalesce merges adjacent disjuncts of a set.
func (s *Set) Coalesce() (*Set, error) {
	m, err := s.Map.Coalesce()
	if err != nil {
		return nil, err
	}
	return &Set{m}, nil
}
