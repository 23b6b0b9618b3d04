// Package parser lowers the ISL concrete syntax into engine objects:
// the participle parse tree from the grammar package becomes a Map or
// Set with constraint rows, divs for floor/ceil/mod sugar, and one
// disjunct per semicolon- or or-separated branch.
package parser

import (
	"math/big"

	"presburger/grammar"
	"presburger/internal/num"
	"presburger/internal/poly"
)

// ParseMap parses source into a map (or a set, represented as a map
// over a set space).
func ParseMap(ctx *poly.Context, source string) (*poly.Map, error) {
	ast, err := grammar.ParseSource("<input>", source)
	if err != nil {
		return nil, err
	}
	return lowerRelation(ctx, ast)
}

// ParseSet parses source into a set; an arrow in the input is an
// error.
func ParseSet(ctx *poly.Context, source string) (*poly.Set, error) {
	m, err := ParseMap(ctx, source)
	if err != nil {
		return nil, err
	}
	if !m.Space().IsSet() {
		return nil, ctx.Errorf(poly.ErrInvalid, "expected a set, got a map")
	}
	return &poly.Set{Map: m}, nil
}

// lowerRelation checks the tuple shapes and lowers every disjunct.
func lowerRelation(ctx *poly.Context, rel *grammar.Relation) (*poly.Map, error) {
	var paramNames []string
	if rel.Params != nil {
		paramNames = rel.Params.Names
	}
	if len(rel.Disjuncts) == 0 {
		return poly.EmptyMap(poly.NewSetSpace(ctx, len(paramNames), 0)), nil
	}

	first := rel.Disjuncts[0]
	isMap := first.Out != nil
	nIn, nOut := 0, len(first.In.Entries)
	if isMap {
		nIn = len(first.In.Entries)
		nOut = len(first.Out.Entries)
	}
	var space *poly.Space
	if isMap {
		space = poly.NewSpace(ctx, len(paramNames), nIn, nOut)
	} else {
		space = poly.NewSetSpace(ctx, len(paramNames), nOut)
	}
	for i, name := range paramNames {
		space = space.SetParamID(i, ctx.ID(name))
	}

	m := poly.EmptyMap(space)
	for _, d := range rel.Disjuncts {
		if (d.Out != nil) != isMap {
			return nil, ctx.Errorf(poly.ErrInvalid, "mixing sets and maps in one relation")
		}
		if isMap && (len(d.In.Entries) != nIn || len(d.Out.Entries) != nOut) {
			return nil, ctx.Errorf(poly.ErrInvalid, "mismatched tuple sizes between disjuncts")
		}
		if !isMap && len(d.In.Entries) != nOut {
			return nil, ctx.Errorf(poly.ErrInvalid, "mismatched tuple sizes between disjuncts")
		}
		branches := []*grammar.AndCons{nil}
		if d.Cons != nil {
			branches = d.Cons.Ands
		}
		for _, and := range branches {
			bm, err := lowerDisjunct(ctx, space, paramNames, d, and)
			if err != nil {
				return nil, err
			}
			if err := m.AddBasicMap(bm); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// lowerer carries the state of lowering one disjunct.
type lowerer struct {
	ctx   *poly.Context
	bm    *poly.BasicMap
	scope map[string]int // name -> constraint-row column
}

func (lo *lowerer) width() int { return 1 + lo.bm.Total() }

// pad extends v with zeros to the current row width (divs may have
// been added since v was built).
func (lo *lowerer) pad(v num.Vec) num.Vec {
	for len(v) < lo.width() {
		v = append(v, new(big.Int))
	}
	return v
}

func lowerDisjunct(ctx *poly.Context, space *poly.Space, params []string, d *grammar.Disjunct, and *grammar.AndCons) (*poly.BasicMap, error) {
	lo := &lowerer{ctx: ctx, bm: poly.NewBasicMap(space), scope: map[string]int{}}
	for i, name := range params {
		lo.scope[name] = 1 + i
	}

	bind := func(t *grammar.Tuple, dim poly.DimType) error {
		off := lo.bm.Offset(dim)
		// First pass: bare fresh identifiers name their dimension.
		deferred := make([]int, 0, len(t.Entries))
		for k, e := range t.Entries {
			if name, ok := bareIdent(e); ok {
				if _, bound := lo.scope[name]; !bound {
					lo.scope[name] = off + k
					continue
				}
			}
			deferred = append(deferred, k)
		}
		// Second pass: every other entry pins its dimension.
		for _, k := range deferred {
			v, err := lo.expr(t.Entries[k])
			if err != nil {
				return err
			}
			row := lo.pad(v.Clone().Neg())
			row[off+k].Add(row[off+k], big.NewInt(1))
			if err := lo.bm.AddEquality(row); err != nil {
				return err
			}
		}
		return nil
	}

	if d.Out != nil {
		if err := bind(d.In, poly.DimIn); err != nil {
			return nil, err
		}
		if err := bind(d.Out, poly.DimOut); err != nil {
			return nil, err
		}
	} else {
		if err := bind(d.In, poly.DimOut); err != nil {
			return nil, err
		}
	}

	if and != nil {
		for _, c := range and.Cons {
			if err := lo.constraint(c); err != nil {
				return nil, err
			}
		}
	}
	return lo.bm, nil
}

// bareIdent reports whether e is a single plain identifier.
func bareIdent(e *grammar.Expr) (string, bool) {
	if len(e.Rest) != 0 || len(e.First.Muls) != 0 || e.First.Mod != nil {
		return "", false
	}
	f := e.First.First
	if f.Ident != nil {
		return *f.Ident, true
	}
	return "", false
}

func (lo *lowerer) constraint(c *grammar.Constraint) error {
	if c.Exists != nil {
		return lo.exists(c.Exists)
	}
	return lo.cmpChain(c.Cmp)
}

func (lo *lowerer) exists(e *grammar.Exists) error {
	saved := map[string]*int{}
	for _, v := range e.Vars {
		if old, ok := lo.scope[v.Name]; ok {
			o := old
			saved[v.Name] = &o
		} else {
			saved[v.Name] = nil
		}
		var def num.Vec
		if v.Def != nil {
			numv, err := lo.expr(v.Def.Num)
			if err != nil {
				return err
			}
			den, ok := new(big.Int).SetString(v.Def.Den, 10)
			if !ok || den.Sign() <= 0 {
				return lo.ctx.Errorf(poly.ErrInvalid, "invalid div denominator %q", v.Def.Den)
			}
			def = append(num.Vec{den}, lo.pad(numv)...)
		} else {
			def = num.NewVec(2 + lo.bm.Total())
		}
		pos := lo.bm.AddDiv(def)
		lo.scope[v.Name] = lo.bm.Offset(poly.DimDiv) + pos
	}
	for _, c := range e.Cons {
		if err := lo.constraint(c); err != nil {
			return err
		}
	}
	for name, old := range saved {
		if old == nil {
			delete(lo.scope, name)
		} else {
			lo.scope[name] = *old
		}
	}
	return nil
}

// side is one half of a comparison: a plain expression, or the sugar
// min/max of several.
type side struct {
	kind string // "plain", "min", "max"
	vecs []num.Vec
}

func (lo *lowerer) side(e *grammar.Expr) (*side, error) {
	if len(e.Rest) == 0 && len(e.First.Muls) == 0 && e.First.Mod == nil && e.First.First.MinMax != nil {
		mm := e.First.First.MinMax
		s := &side{kind: mm.Op}
		for _, a := range mm.Args {
			v, err := lo.expr(a)
			if err != nil {
				return nil, err
			}
			s.vecs = append(s.vecs, v)
		}
		return s, nil
	}
	v, err := lo.expr(e)
	if err != nil {
		return nil, err
	}
	return &side{kind: "plain", vecs: []num.Vec{v}}, nil
}

func (lo *lowerer) cmpChain(c *grammar.CmpChain) error {
	left, err := lo.side(c.First)
	if err != nil {
		return err
	}
	for _, rel := range c.Rest {
		right, err := lo.side(rel.Expr)
		if err != nil {
			return err
		}
		if err := lo.relate(left, rel.Op, right); err != nil {
			return err
		}
		left = right
	}
	return nil
}

// relate adds the constraint rows for l op r, expanding min/max sugar
// when the polarity keeps the result a conjunction.
func (lo *lowerer) relate(l *side, op string, r *side) error {
	switch op {
	case ">", ">=":
		// Rewrite as a <= relation.
		if op == ">" {
			op = "<"
		} else {
			op = "<="
		}
		l, r = r, l
	}
	switch op {
	case "=":
		if l.kind != "plain" || r.kind != "plain" {
			return lo.ctx.Errorf(poly.ErrUnsupported, "min/max in an equality")
		}
		row := lo.sub(r.vecs[0], l.vecs[0])
		return lo.bm.AddEquality(row)
	case "<", "<=":
		if l.kind == "min" || r.kind == "max" {
			return lo.ctx.Errorf(poly.ErrUnsupported, "this min/max polarity needs a disjunction")
		}
		for _, lv := range l.vecs {
			for _, rv := range r.vecs {
				row := lo.sub(rv, lv)
				if op == "<" {
					row[0].Sub(row[0], big.NewInt(1))
				}
				if err := lo.bm.AddInequality(row); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return lo.ctx.Errorf(poly.ErrInternal, "unknown comparison %q", op)
}

// sub returns a - b, padded to the current width.
func (lo *lowerer) sub(a, b num.Vec) num.Vec {
	ra := lo.pad(a.Clone())
	rb := lo.pad(b.Clone())
	ra.AddScaled(big.NewInt(-1), rb)
	return ra
}

func (lo *lowerer) expr(e *grammar.Expr) (num.Vec, error) {
	v, err := lo.term(e.First)
	if err != nil {
		return nil, err
	}
	for _, ot := range e.Rest {
		w, err := lo.term(ot.Term)
		if err != nil {
			return nil, err
		}
		v = lo.pad(v)
		f := big.NewInt(1)
		if ot.Op == "-" {
			f.SetInt64(-1)
		}
		v.AddScaled(f, lo.pad(w))
	}
	return v, nil
}

func (lo *lowerer) term(t *grammar.Term) (num.Vec, error) {
	v, err := lo.factor(t.First)
	if err != nil {
		return nil, err
	}
	for _, f := range t.Muls {
		w, err := lo.factor(f)
		if err != nil {
			return nil, err
		}
		v, err = lo.mul(v, w)
		if err != nil {
			return nil, err
		}
	}
	if t.Mod != nil {
		m, ok := new(big.Int).SetString(*t.Mod, 10)
		if !ok || m.Sign() <= 0 {
			return nil, lo.ctx.Errorf(poly.ErrInvalid, "invalid modulus %q", *t.Mod)
		}
		// a mod m = a - m*floor(a/m)
		div := lo.addDiv(v, m)
		v = lo.pad(v)
		v[div].Sub(v[div], m)
	}
	return v, nil
}

// mul multiplies two affine vectors; one side must be constant.
func (lo *lowerer) mul(a, b num.Vec) (num.Vec, error) {
	if isConstVec(a) {
		return lo.pad(b.Clone()).Scale(a[0]), nil
	}
	if isConstVec(b) {
		return lo.pad(a.Clone()).Scale(b[0]), nil
	}
	return nil, lo.ctx.Errorf(poly.ErrInvalid, "non-affine product")
}

func isConstVec(v num.Vec) bool {
	for i := 1; i < len(v); i++ {
		if v[i].Sign() != 0 {
			return false
		}
	}
	return true
}

// addDiv introduces floor((v)/den) and returns its constraint-row
// column.
func (lo *lowerer) addDiv(v num.Vec, den *big.Int) int {
	def := append(num.Vec{new(big.Int).Set(den)}, lo.pad(v.Clone())...)
	pos := lo.bm.AddDiv(def)
	return lo.bm.Offset(poly.DimDiv) + pos
}

func (lo *lowerer) factor(f *grammar.Factor) (num.Vec, error) {
	switch {
	case f.Number != nil:
		n, ok := new(big.Int).SetString(*f.Number, 10)
		if !ok {
			return nil, lo.ctx.Errorf(poly.ErrInvalid, "invalid number %q", *f.Number)
		}
		v := num.NewVec(lo.width())
		v[0].Set(n)
		return v, nil
	case f.Ident != nil:
		col, ok := lo.scope[*f.Ident]
		if !ok {
			return nil, lo.ctx.Errorf(poly.ErrInvalid, "unknown identifier %q", *f.Ident)
		}
		v := num.NewVec(lo.width())
		v[col].SetInt64(1)
		return v, nil
	case f.Neg != nil:
		v, err := lo.factor(f.Neg)
		if err != nil {
			return nil, err
		}
		return v.Neg(), nil
	case f.Paren != nil:
		return lo.expr(f.Paren)
	case f.Floor != nil:
		v, err := lo.expr(f.Floor.Num)
		if err != nil {
			return nil, err
		}
		den, ok := new(big.Int).SetString(f.Floor.Den, 10)
		if !ok || den.Sign() <= 0 {
			return nil, lo.ctx.Errorf(poly.ErrInvalid, "invalid floor denominator %q", f.Floor.Den)
		}
		col := lo.addDiv(v, den)
		w := num.NewVec(lo.width())
		w[col].SetInt64(1)
		return w, nil
	case f.Ceil != nil:
		v, err := lo.expr(f.Ceil.Num)
		if err != nil {
			return nil, err
		}
		den, ok := new(big.Int).SetString(f.Ceil.Den, 10)
		if !ok || den.Sign() <= 0 {
			return nil, lo.ctx.Errorf(poly.ErrInvalid, "invalid ceil denominator %q", f.Ceil.Den)
		}
		// ceil(e/d) = floor((e + d - 1)/d)
		v = lo.pad(v.Clone())
		v[0].Add(v[0], den)
		v[0].Sub(v[0], big.NewInt(1))
		col := lo.addDiv(v, den)
		w := num.NewVec(lo.width())
		w[col].SetInt64(1)
		return w, nil
	case f.MinMax != nil:
		return nil, lo.ctx.Errorf(poly.ErrUnsupported, "min/max outside a comparison")
	}
	return nil, lo.ctx.Errorf(poly.ErrInternal, "empty factor")
}
