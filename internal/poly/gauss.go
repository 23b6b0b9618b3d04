package poly

import (
	"math/big"

	"presburger/internal/num"
)

// normalizeDivRow divides a div definition by the gcd of its
// denominator and all numerator entries. floor((k·e)/(k·d)) = floor(e/d),
// so this preserves the div's value.
func normalizeDivRow(d num.Vec) {
	if d[0].Sign() == 0 {
		return
	}
	g := d.ContentGcd()
	if g.Sign() == 0 || num.IsOne(g) {
		return
	}
	for _, x := range d {
		x.Quo(x, g)
	}
}

// elimColFromRow clears column col of row using pivot row p (with
// p[col] > 0): row = p[col]*row - row[col]*p, content-normalized.
func elimColFromRow(row, p num.Vec, col int) {
	if row[col].Sign() == 0 {
		return
	}
	f := new(big.Int).Set(row[col])
	row.Scale(p[col])
	row.AddScaled(new(big.Int).Neg(f), p)
	row.NormalizeContent()
}

// elimColFromDiv clears column col of div row d (constraint-row column
// col corresponds to d[1+col]). Both the numerator and the denominator
// are scaled so the floor value is unchanged.
func elimColFromDiv(d, p num.Vec, col int) {
	if d[0].Sign() == 0 || d[1+col].Sign() == 0 {
		return
	}
	f := new(big.Int).Set(d[1+col])
	d[0].Mul(d[0], p[col])
	num.Vec(d[1:]).Scale(p[col])
	num.Vec(d[1:]).AddScaled(new(big.Int).Neg(f), p)
	normalizeDivRow(d)
}

// Gauss brings the equality rows to row-echelon form over the variable
// columns and substitutes the resulting pivots into the inequalities
// and div definitions. Pivot order is deterministic: columns are
// scanned from the highest index to the lowest, and among the equality
// rows with a nonzero coefficient in the scanned column the one with
// the smallest absolute coefficient wins, ties broken by row index.
// Contradictory rows mark the basic map empty.
func (bm *BasicMap) Gauss() *BasicMap {
	if bm.IsMarkedEmpty() {
		return bm
	}
	total := bm.Total()
	done := 0
	for col := total; col >= 1 && done < len(bm.eq); col-- {
		pivot := -1
		for k := done; k < len(bm.eq); k++ {
			if bm.eq[k][col].Sign() == 0 {
				continue
			}
			if pivot < 0 || bm.eq[k][col].CmpAbs(bm.eq[pivot][col]) < 0 {
				pivot = k
			}
		}
		if pivot < 0 {
			continue
		}
		bm.eq.SwapRows(done, pivot)
		if bm.eq[done][col].Sign() < 0 {
			bm.eq[done].Neg()
		}
		p := bm.eq[done]
		for k := range bm.eq {
			if k != done {
				elimColFromRow(bm.eq[k], p, col)
			}
		}
		for k := range bm.ineq {
			elimColFromRow(bm.ineq[k], p, col)
		}
		for k := range bm.ls.divs {
			elimColFromDiv(bm.ls.divs[k], p, col)
		}
		done++
	}
	bm.normalizeRows()
	bm.flags |= bmNormalized
	return bm
}

// normalizeRows gcd-normalizes every row, tightens inequality
// constants, drops trivial rows, and marks the basic map empty on a
// contradiction (including integer-infeasible equalities whose
// coefficient gcd does not divide the constant).
func (bm *BasicMap) normalizeRows() {
	var eqs num.Mat
	for _, r := range bm.eq {
		g := num.Vec(r[1:]).ContentGcd()
		if g.Sign() == 0 {
			if r[0].Sign() != 0 {
				bm.MarkEmpty()
				return
			}
			continue
		}
		if !num.IsOne(g) {
			if new(big.Int).Mod(r[0], g).Sign() != 0 {
				// No integer point satisfies g | constant.
				bm.MarkEmpty()
				return
			}
			for _, x := range r {
				x.Quo(x, g)
			}
		}
		if last := num.Vec(r[1:]).LastNonzero(); last >= 0 && r[1+last].Sign() < 0 {
			r.Neg()
		}
		eqs = append(eqs, r)
	}
	bm.eq = eqs

	var ineqs num.Mat
	seen := map[string]int{}
	for _, r := range bm.ineq {
		g := num.Vec(r[1:]).ContentGcd()
		if g.Sign() == 0 {
			if r[0].Sign() < 0 {
				bm.MarkEmpty()
				return
			}
			continue
		}
		if !num.IsOne(g) {
			r[0].Set(num.FdivQ(r[0], g))
			for _, x := range r[1:] {
				x.Quo(x, g)
			}
		}
		key := rowKey(r[1:])
		if at, ok := seen[key]; ok {
			// Parallel constraint: keep the tighter (smaller) constant.
			if r[0].Cmp(ineqs[at][0]) < 0 {
				ineqs[at] = r
			}
			continue
		}
		seen[key] = len(ineqs)
		ineqs = append(ineqs, r)
	}
	bm.ineq = ineqs
}

func rowKey(v num.Vec) string {
	b := make([]byte, 0, 8*len(v))
	for _, x := range v {
		b = append(b, x.String()...)
		b = append(b, ',')
	}
	return string(b)
}

// DetectEqualities finds implicit equalities by pairing opposite
// inequalities: a·x + c >= 0 and -a·x - c >= 0 together force
// a·x + c = 0. Detected pairs are promoted to equality rows and the
// system re-echeloned.
func (bm *BasicMap) DetectEqualities() *BasicMap {
	if bm.IsMarkedEmpty() {
		return bm
	}
	if bm.flags&bmNoImplicit != 0 {
		return bm
	}
	bm.Gauss()
	if bm.IsMarkedEmpty() {
		return bm
	}
	byCoeffs := map[string]int{}
	for i, r := range bm.ineq {
		byCoeffs[rowKey(r[1:])] = i
	}
	used := make([]bool, len(bm.ineq))
	changed := false
	sum := new(big.Int)
	for i, r := range bm.ineq {
		if used[i] {
			continue
		}
		j, ok := byCoeffs[rowKey(num.Vec(r[1:]).Clone().Neg())]
		if !ok || used[j] || j == i {
			continue
		}
		// r and an opposite-direction constraint: the constant sum
		// decides between contradiction, implicit equality, and a
		// plain bounded pair.
		sum.Add(r[0], bm.ineq[j][0])
		switch {
		case sum.Sign() < 0:
			bm.MarkEmpty()
			return bm
		case sum.Sign() == 0:
			used[i], used[j] = true, true
			bm.eq = append(bm.eq, r.Clone())
			changed = true
		}
	}
	if changed {
		var rest num.Mat
		for i, r := range bm.ineq {
			if !used[i] {
				rest = append(rest, r)
			}
		}
		bm.ineq = rest
		bm.Gauss()
	}
	if !bm.IsMarkedEmpty() && bm.detectRankDeficiency() {
		bm.Gauss()
	}
	bm.flags |= bmNoImplicit
	return bm
}

// detectRankDeficiency finds inequalities forced to equalities without
// an opposite partner: a combination λ >= 0, λ != 0 with
// Σ λ_i·row_i = 0 (constant column included) forces every row with
// λ_i > 0 to hold with equality. Candidates come from a basis of the
// left nullspace of the inequality block (its Gaussian rank
// deficiency); every sign-definite basis vector is promoted. Reports
// whether any inequality was promoted.
func (bm *BasicMap) detectRankDeficiency() bool {
	if len(bm.ineq) < 2 {
		return false
	}
	basis := bm.ineq.Transpose().Nullspace()
	promoted := make([]bool, len(bm.ineq))
	changed := false
	for _, lam := range basis {
		pos, neg := false, false
		for _, x := range lam {
			switch x.Sign() {
			case 1:
				pos = true
			case -1:
				neg = true
			}
		}
		if pos == neg {
			// Mixed signs say nothing; all-zero cannot occur in a basis.
			continue
		}
		for i, x := range lam {
			if x.Sign() != 0 && !promoted[i] {
				promoted[i] = true
				changed = true
			}
		}
	}
	if !changed {
		return false
	}
	var rest num.Mat
	for i, r := range bm.ineq {
		if promoted[i] {
			bm.eq = append(bm.eq, r)
		} else {
			rest = append(rest, r)
		}
	}
	bm.ineq = rest
	return true
}
