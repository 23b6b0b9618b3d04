package poly

import "math/big"

// chooseDirection implements the generalized-basis-reduction heuristic
// of the integer point search: among the remaining variables it
// prefers the direction along which the polytope is thinnest, so that
// the branching factor stays small. The Gbr option controls how often
// the widths are re-measured:
//
//	GbrNever  – take the remaining variables in order, no measuring
//	GbrOnce   – measure at the root only (depth 0)
//	GbrAlways – measure at every level
//
// It returns the index into rem of the chosen variable together with
// that variable's rational bounds, or empty=true when the rational
// relaxation has become empty.
func chooseDirection(fs *flatSystem, rem []int, depth int) (pick int, lo, hi *big.Rat, empty bool, err error) {
	policy := fs.ctx.Opt.Gbr
	measure := policy == GbrAlways || (policy == GbrOnce && depth == 0)
	if !measure {
		lo, hi, empty, err = fs.varBounds(rem[0])
		fs.ctx.Stats.GbrSolvedLPs++
		return 0, lo, hi, empty, err
	}

	bestWidth := new(big.Rat)
	haveBest := false
	half := -1
	var halfLo, halfHi *big.Rat
	var freeLo, freeHi *big.Rat
	for i, col := range rem {
		l, h, emp, e := fs.varBounds(col)
		fs.ctx.Stats.GbrSolvedLPs++
		if e != nil {
			return 0, nil, nil, false, e
		}
		if emp {
			return 0, nil, nil, true, nil
		}
		if l == nil || h == nil {
			// Unbounded directions are searched last; a direction with
			// one finite side still beats a fully free one.
			if half < 0 && (l != nil || h != nil) {
				half, halfLo, halfHi = i, l, h
			}
			if i == 0 {
				freeLo, freeHi = l, h
			}
			continue
		}
		w := new(big.Rat).Sub(h, l)
		if !haveBest || w.Cmp(bestWidth) < 0 {
			haveBest = true
			bestWidth.Set(w)
			pick, lo, hi = i, l, h
		}
	}
	if !haveBest {
		if half >= 0 {
			return half, halfLo, halfHi, false, nil
		}
		return 0, freeLo, freeHi, false, nil
	}
	return pick, lo, hi, false, nil
}
