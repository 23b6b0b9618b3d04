package poly

import (
	"math/big"

	"presburger/internal/num"
)

// gistBasic drops from a every constraint that the context (together
// with a's remaining constraints) already implies.
func gistBasic(a *BasicMap, context *Map) (*BasicMap, error) {
	w := a.Copy()
	implied := func(rest *BasicMap, row num.Vec) (bool, error) {
		probe := rest.Copy()
		neg := row.Clone().Neg()
		neg[0].Sub(neg[0], big.NewInt(1))
		if err := probe.AddInequality(neg); err != nil {
			return false, err
		}
		m, err := MapFromBasicMap(probe).Intersect(context)
		if err != nil {
			return false, err
		}
		return m.IsEmpty()
	}
	for i := len(w.ineq) - 1; i >= 0; i-- {
		rest := w.Copy()
		rest.ineq = append(rest.ineq[:i:i], rest.ineq[i+1:]...)
		ok, err := implied(rest, w.ineq[i])
		if err != nil {
			return nil, err
		}
		if ok {
			w.ineq = append(w.ineq[:i:i], w.ineq[i+1:]...)
		}
	}
	for i := len(w.eq) - 1; i >= 0; i-- {
		rest := w.Copy()
		rest.eq = append(rest.eq[:i:i], rest.eq[i+1:]...)
		row := w.eq[i]
		up, err := implied(rest, row)
		if err != nil {
			return nil, err
		}
		if !up {
			continue
		}
		dn, err := implied(rest, row.Clone().Neg())
		if err != nil {
			return nil, err
		}
		if dn {
			w.eq = append(w.eq[:i:i], w.eq[i+1:]...)
		}
	}
	w.invalidate()
	return w, nil
}

// RemoveRedundancies drops every inequality implied by the remaining
// constraints, each tested as an integer emptiness query.
func (bm *BasicMap) RemoveRedundancies() (*BasicMap, error) {
	if bm.flags&bmNoRedundant != 0 {
		return bm.Copy(), nil
	}
	w := bm.Copy()
	for i := len(w.ineq) - 1; i >= 0; i-- {
		rest := w.Copy()
		rest.ineq = append(rest.ineq[:i:i], rest.ineq[i+1:]...)
		neg := w.ineq[i].Clone().Neg()
		neg[0].Sub(neg[0], big.NewInt(1))
		if err := rest.AddInequality(neg); err != nil {
			return nil, err
		}
		empty, err := rest.IsEmpty()
		if err != nil {
			return nil, err
		}
		if empty {
			w.ineq = append(w.ineq[:i:i], w.ineq[i+1:]...)
		}
	}
	w.invalidate()
	w.flags |= bmNoRedundant
	return w, nil
}

// Gist simplifies m under the assumption that context holds: the
// result r satisfies r ∩ context = m ∩ context, with constraints
// implied by the context removed.
func (m *Map) Gist(context *Map) (*Map, error) {
	if !m.space.Equal(context.space) {
		return nil, m.ctx.Errorf(ErrInvalid, "gist context over a different space")
	}
	w := EmptyMap(m.space)
	for _, a := range m.bmaps {
		if err := m.ctx.checkAbort(); err != nil {
			return nil, err
		}
		live, err := MapFromBasicMap(a).Intersect(context)
		if err != nil {
			return nil, err
		}
		empty, err := live.IsEmpty()
		if err != nil {
			return nil, err
		}
		if empty {
			// Invisible under the context.
			continue
		}
		g, err := gistBasic(a, context)
		if err != nil {
			return nil, err
		}
		w.bmaps = append(w.bmaps, g)
	}
	return w, nil
}

// Gist simplifies a set under a context set.
func (s *Set) Gist(context *Set) (*Set, error) {
	m, err := s.Map.Gist(context.Map)
	if err != nil {
		return nil, err
	}
	return &Set{m}, nil
}
