package poly

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	"presburger/internal/num"
)

// qTerm is one monomial: an integer coefficient and an exponent per
// variable column of the local space.
type qTerm struct {
	coef *big.Int
	exps []int
}

func (t qTerm) key() string {
	var b strings.Builder
	for _, e := range t.exps {
		b.WriteString(strconv.Itoa(e))
		b.WriteByte(',')
	}
	return b.String()
}

// QPolynomial is a quasi-polynomial: a polynomial over the variables
// and divs of a LocalSpace with a common positive denominator.
type QPolynomial struct {
	ls    *LocalSpace
	den   *big.Int
	terms []qTerm
}

// QPolynomialZero returns the zero polynomial over ls.
func QPolynomialZero(ls *LocalSpace) *QPolynomial {
	return &QPolynomial{ls: ls.Clone(), den: big.NewInt(1)}
}

// QPolynomialFromAff converts an affine expression.
func QPolynomialFromAff(a *Aff) *QPolynomial {
	q := QPolynomialZero(a.ls)
	q.den.Set(a.v[0])
	total := a.ls.Total()
	if a.v[1].Sign() != 0 {
		q.terms = append(q.terms, qTerm{coef: new(big.Int).Set(a.v[1]), exps: make([]int, total)})
	}
	for i := 0; i < total; i++ {
		if a.v[2+i].Sign() == 0 {
			continue
		}
		e := make([]int, total)
		e[i] = 1
		q.terms = append(q.terms, qTerm{coef: new(big.Int).Set(a.v[2+i]), exps: e})
	}
	return q.normalize()
}

// Copy returns a deep copy.
func (q *QPolynomial) Copy() *QPolynomial {
	w := &QPolynomial{ls: q.ls.Clone(), den: new(big.Int).Set(q.den)}
	for _, t := range q.terms {
		w.terms = append(w.terms, qTerm{coef: new(big.Int).Set(t.coef), exps: append([]int(nil), t.exps...)})
	}
	return w
}

// LocalSpace returns the polynomial's local space.
func (q *QPolynomial) LocalSpace() *LocalSpace { return q.ls }

// IsZero reports whether the polynomial has no terms.
func (q *QPolynomial) IsZero() bool { return len(q.terms) == 0 }

// normalize merges equal monomials, drops zero terms, reduces the
// denominator, and sorts the terms for a canonical form.
func (q *QPolynomial) normalize() *QPolynomial {
	merged := map[string]*qTerm{}
	var order []string
	for i := range q.terms {
		k := q.terms[i].key()
		if t, ok := merged[k]; ok {
			t.coef.Add(t.coef, q.terms[i].coef)
		} else {
			cp := qTerm{coef: new(big.Int).Set(q.terms[i].coef), exps: q.terms[i].exps}
			merged[k] = &cp
			order = append(order, k)
		}
	}
	q.terms = q.terms[:0]
	sort.Strings(order)
	g := new(big.Int).Set(q.den)
	for _, k := range order {
		if merged[k].coef.Sign() != 0 {
			q.terms = append(q.terms, *merged[k])
			g.GCD(nil, nil, g, new(big.Int).Abs(merged[k].coef))
		}
	}
	if len(q.terms) == 0 {
		q.den.SetInt64(1)
		return q
	}
	if !num.IsOne(g) {
		q.den.Quo(q.den, g)
		for i := range q.terms {
			q.terms[i].coef.Quo(q.terms[i].coef, g)
		}
	}
	return q
}

// alignQP rewrites two polynomials over a merged local space.
func alignQP(a, b *QPolynomial) (*QPolynomial, *QPolynomial, error) {
	if a.ls.Equal(b.ls) {
		return a.Copy(), b.Copy(), nil
	}
	merged, expa, expb, err := MergeDivs(a.ls, b.ls)
	if err != nil {
		return nil, nil, err
	}
	nv := a.ls.space.nParam + a.ls.space.nIn + a.ls.space.nOut
	remapTerm := func(t qTerm, exp []int, oldDiv int) qTerm {
		e := make([]int, nv+merged.NDiv())
		copy(e, t.exps[:nv])
		for d := 0; d < oldDiv; d++ {
			e[nv+exp[d]] = t.exps[nv+d]
		}
		return qTerm{coef: new(big.Int).Set(t.coef), exps: e}
	}
	ra := &QPolynomial{ls: merged.Clone(), den: new(big.Int).Set(a.den)}
	for _, t := range a.terms {
		ra.terms = append(ra.terms, remapTerm(t, expa, a.ls.NDiv()))
	}
	rb := &QPolynomial{ls: merged.Clone(), den: new(big.Int).Set(b.den)}
	for _, t := range b.terms {
		rb.terms = append(rb.terms, remapTerm(t, expb, b.ls.NDiv()))
	}
	return ra, rb, nil
}

// Add returns q + r.
func (q *QPolynomial) Add(r *QPolynomial) (*QPolynomial, error) {
	ra, rb, err := alignQP(q, r)
	if err != nil {
		return nil, err
	}
	g := num.Gcd(ra.den, rb.den)
	fa := num.DivExact(rb.den, g)
	fb := num.DivExact(ra.den, g)
	for i := range ra.terms {
		ra.terms[i].coef.Mul(ra.terms[i].coef, fa)
	}
	for _, t := range rb.terms {
		ra.terms = append(ra.terms, qTerm{coef: new(big.Int).Mul(t.coef, fb), exps: t.exps})
	}
	ra.den.Mul(ra.den, fa)
	return ra.normalize(), nil
}

// Neg returns -q.
func (q *QPolynomial) Neg() *QPolynomial {
	w := q.Copy()
	for i := range w.terms {
		w.terms[i].coef.Neg(w.terms[i].coef)
	}
	return w
}

// Sub returns q - r.
func (q *QPolynomial) Sub(r *QPolynomial) (*QPolynomial, error) {
	return q.Add(r.Neg())
}

// Mul returns the product q·r.
func (q *QPolynomial) Mul(r *QPolynomial) (*QPolynomial, error) {
	ra, rb, err := alignQP(q, r)
	if err != nil {
		return nil, err
	}
	w := &QPolynomial{ls: ra.ls, den: new(big.Int).Mul(ra.den, rb.den)}
	for _, ta := range ra.terms {
		for _, tb := range rb.terms {
			e := make([]int, len(ta.exps))
			for i := range e {
				e[i] = ta.exps[i] + tb.exps[i]
			}
			w.terms = append(w.terms, qTerm{coef: new(big.Int).Mul(ta.coef, tb.coef), exps: e})
		}
	}
	return w.normalize(), nil
}

// Eval evaluates the polynomial at a point giving values for every
// variable column (divs included).
func (q *QPolynomial) Eval(point num.Vec) *big.Rat {
	s := new(big.Int)
	for _, t := range q.terms {
		m := new(big.Int).Set(t.coef)
		for i, e := range t.exps {
			for k := 0; k < e; k++ {
				m.Mul(m, point[i])
			}
		}
		s.Add(s, m)
	}
	return new(big.Rat).SetFrac(s, q.den)
}

// PlainEqual reports structural equality of normalized polynomials.
func (q *QPolynomial) PlainEqual(r *QPolynomial) bool {
	if !q.ls.Equal(r.ls) || q.den.Cmp(r.den) != 0 || len(q.terms) != len(r.terms) {
		return false
	}
	for i := range q.terms {
		if q.terms[i].coef.Cmp(r.terms[i].coef) != 0 || q.terms[i].key() != r.terms[i].key() {
			return false
		}
	}
	return true
}

// FoldType tells whether a fold tracks a minimum or a maximum.
type FoldType int

const (
	FoldMin FoldType = iota
	FoldMax
)

// Fold is the min or max of finitely many quasi-polynomials, used for
// symbolic bounds.
type Fold struct {
	typ FoldType
	qps []*QPolynomial
}

// FoldFromQPolynomial wraps a single polynomial.
func FoldFromQPolynomial(t FoldType, q *QPolynomial) *Fold {
	return &Fold{typ: t, qps: []*QPolynomial{q.Copy()}}
}

// Type returns the fold type.
func (f *Fold) Type() FoldType { return f.typ }

// NQPolynomial returns the number of folded polynomials.
func (f *Fold) NQPolynomial() int { return len(f.qps) }

// Merge combines two folds of the same type.
func (f *Fold) Merge(g *Fold) (*Fold, error) {
	if f.typ != g.typ {
		return nil, f.qps[0].ls.Ctx().Errorf(ErrInvalid, "merging folds of different types")
	}
	w := &Fold{typ: f.typ}
	for _, q := range f.qps {
		w.qps = append(w.qps, q.Copy())
	}
	for _, q := range g.qps {
		w.qps = append(w.qps, q.Copy())
	}
	return w, nil
}

// Eval evaluates the fold at a point.
func (f *Fold) Eval(point num.Vec) *big.Rat {
	var best *big.Rat
	for _, q := range f.qps {
		v := q.Eval(point)
		if best == nil ||
			(f.typ == FoldMin && v.Cmp(best) < 0) ||
			(f.typ == FoldMax && v.Cmp(best) > 0) {
			best = v
		}
	}
	return best
}

// PwQPolynomialPiece is one (cell, polynomial) pair.
type PwQPolynomialPiece struct {
	Set *Set
	QP  *QPolynomial
}

// PwQPolynomial is a piecewise quasi-polynomial with disjoint cells.
type PwQPolynomial struct {
	space  *Space
	pieces []PwQPolynomialPiece
}

// PwQPolynomialFromQP wraps a polynomial defined on its whole space.
func PwQPolynomialFromQP(q *QPolynomial) *PwQPolynomial {
	return &PwQPolynomial{
		space:  q.ls.space,
		pieces: []PwQPolynomialPiece{{Set: UniverseSet(q.ls.space), QP: q.Copy()}},
	}
}

// NPiece returns the number of pieces.
func (p *PwQPolynomial) NPiece() int { return len(p.pieces) }

// Piece returns piece i.
func (p *PwQPolynomial) Piece(i int) PwQPolynomialPiece { return p.pieces[i] }

// Add returns the piecewise sum over intersecting cells.
func (p *PwQPolynomial) Add(r *PwQPolynomial) (*PwQPolynomial, error) {
	w := &PwQPolynomial{space: p.space}
	for _, pa := range p.pieces {
		for _, pb := range r.pieces {
			cell, err := pa.Set.Intersect(pb.Set)
			if err != nil {
				return nil, err
			}
			empty, err := cell.IsEmpty()
			if err != nil {
				return nil, err
			}
			if empty {
				continue
			}
			s, err := pa.QP.Add(pb.QP)
			if err != nil {
				return nil, err
			}
			w.pieces = append(w.pieces, PwQPolynomialPiece{Set: cell, QP: s})
		}
	}
	return w, nil
}

// Bound computes a constant symbolic bound of the polynomial over each
// cell by interval arithmetic on the ranges of the variables (the
// range method; the Bernstein method is not provided). The fold type
// selects an upper (max) or lower (min) bound.
func (p *PwQPolynomial) Bound(t FoldType) (*Fold, error) {
	var res *Fold
	for _, pc := range p.pieces {
		b, err := rangeBound(pc, t)
		if err != nil {
			return nil, err
		}
		if res == nil {
			res = b
			continue
		}
		res, err = res.Merge(b)
		if err != nil {
			return nil, err
		}
	}
	if res == nil {
		return nil, p.space.ctx.Errorf(ErrInvalid, "bound of an empty piecewise polynomial")
	}
	return res, nil
}

// rangeBound bounds one piece by substituting per-variable integer
// ranges into every monomial.
func rangeBound(pc PwQPolynomialPiece, t FoldType) (*Fold, error) {
	s := pc.Set
	nv := s.space.nParam + s.space.nOut
	lo := make([]*big.Int, nv)
	hi := make([]*big.Int, nv)
	for i := 0; i < nv; i++ {
		dir := num.NewVec(nv)
		dir[i].SetInt64(1)
		l, okLo, err := dirMin(s, dir)
		if err != nil {
			return nil, err
		}
		h, okHi, err := dirMin(s, dir.Clone().Neg())
		if err != nil {
			return nil, err
		}
		if !okLo || !okHi {
			return nil, s.ctx.Errorf(ErrUnsupported, "range bound over an unbounded cell")
		}
		lo[i] = l
		hi[i] = new(big.Int).Neg(h)
	}
	bound := new(big.Rat)
	for _, term := range pc.QP.terms {
		for i := nv; i < len(term.exps); i++ {
			if term.exps[i] > 0 {
				return nil, s.ctx.Errorf(ErrUnsupported, "range bound of a div-dependent polynomial")
			}
		}
		m := termExtreme(term, lo, hi, t == FoldMax)
		bound.Add(bound, new(big.Rat).SetFrac(m, pc.QP.den))
	}
	c := AffConstant(NewLocalSpace(s.space), bound.Num())
	c.v[0].Set(bound.Denom())
	return FoldFromQPolynomial(t, QPolynomialFromAff(c.normalize())), nil
}

// termExtreme returns the extreme value of one monomial over the box
// [lo, hi], trying for each variable it involves both ends of its range
// and, when the range straddles zero, the value 0.
func termExtreme(t qTerm, lo, hi []*big.Int, max bool) *big.Int {
	var vars []int
	for i := range lo {
		if i < len(t.exps) && t.exps[i] > 0 {
			vars = append(vars, i)
		}
	}
	best := new(big.Int)
	first := true
	zero := new(big.Int)
	// Two bits of mask per variable select lo, hi or 0.
	for mask := 0; mask < 1<<(2*len(vars)); mask++ {
		v := new(big.Int).Set(t.coef)
		for bi, i := range vars {
			x := lo[i]
			switch (mask >> (2 * bi)) & 3 {
			case 1:
				x = hi[i]
			case 2:
				if lo[i].Sign() < 0 && hi[i].Sign() > 0 {
					x = zero
				}
			}
			for k := 0; k < t.exps[i]; k++ {
				v.Mul(v, x)
			}
		}
		if first || (max && v.Cmp(best) > 0) || (!max && v.Cmp(best) < 0) {
			best.Set(v)
			first = false
		}
	}
	return best
}
