package poly

import "sort"

// UnionMap is a union of maps over different spaces, keyed by the
// per-disjunct space. Maps over structurally equal spaces are unioned
// into one entry.
type UnionMap struct {
	ctx    *Context
	nParam int
	tables map[string]*Map
}

// UnionSet is a union of sets over different spaces.
type UnionSet struct {
	*UnionMap
}

// NewUnionMap returns an empty union over a parameter space.
func NewUnionMap(ctx *Context, nParam int) *UnionMap {
	return &UnionMap{ctx: ctx, nParam: nParam, tables: make(map[string]*Map)}
}

// NewUnionSet returns an empty union of sets.
func NewUnionSet(ctx *Context, nParam int) *UnionSet {
	return &UnionSet{NewUnionMap(ctx, nParam)}
}

// UnionMapFromMap wraps a single map.
func UnionMapFromMap(m *Map) *UnionMap {
	u := NewUnionMap(m.ctx, m.space.nParam)
	u.tables[m.space.hashKey()] = m.Copy()
	return u
}

// UnionSetFromSet wraps a single set.
func UnionSetFromSet(s *Set) *UnionSet {
	return &UnionSet{UnionMapFromMap(s.Map)}
}

// Ctx returns the owning Context.
func (u *UnionMap) Ctx() *Context { return u.ctx }

// NMap returns the number of per-space entries.
func (u *UnionMap) NMap() int { return len(u.tables) }

// Copy returns a deep copy.
func (u *UnionMap) Copy() *UnionMap {
	w := NewUnionMap(u.ctx, u.nParam)
	for k, m := range u.tables {
		w.tables[k] = m.Copy()
	}
	return w
}

// AddMap unions a map into the entry of its space.
func (u *UnionMap) AddMap(m *Map) error {
	if m.space.nParam != u.nParam {
		return u.ctx.Errorf(ErrInvalid, "adding a map with a different parameter count")
	}
	key := m.space.hashKey()
	if cur, ok := u.tables[key]; ok {
		merged, err := cur.Union(m)
		if err != nil {
			return err
		}
		u.tables[key] = merged
		return nil
	}
	u.tables[key] = m.Copy()
	return nil
}

// Union returns the union of two union sets.
func (u *UnionSet) Union(o *UnionSet) (*UnionSet, error) {
	w, err := u.UnionMap.Union(o.UnionMap)
	if err != nil {
		return nil, err
	}
	return &UnionSet{w}, nil
}

// Subtract returns the pointwise difference of two union sets.
func (u *UnionSet) Subtract(o *UnionSet) (*UnionSet, error) {
	w, err := u.UnionMap.Subtract(o.UnionMap)
	if err != nil {
		return nil, err
	}
	return &UnionSet{w}, nil
}

// sortedKeys gives a deterministic iteration order.
func (u *UnionMap) sortedKeys() []string {
	keys := make([]string, 0, len(u.tables))
	for k := range u.tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ForeachMap visits every per-space map with a three-valued
// continuation.
func (u *UnionMap) ForeachMap(f func(*Map) Continuation) error {
	for _, k := range u.sortedKeys() {
		switch f(u.tables[k]) {
		case Break:
			return nil
		case Stop:
			return u.ctx.Errorf(ErrUnknown, "foreach callback failed")
		}
	}
	return nil
}

// Union returns the union of two union maps.
func (u *UnionMap) Union(o *UnionMap) (*UnionMap, error) {
	w := u.Copy()
	for _, k := range o.sortedKeys() {
		if err := w.AddMap(o.tables[k]); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Intersect intersects entries over matching spaces; unmatched entries
// disappear.
func (u *UnionMap) Intersect(o *UnionMap) (*UnionMap, error) {
	w := NewUnionMap(u.ctx, u.nParam)
	for k, m := range u.tables {
		om, ok := o.tables[k]
		if !ok {
			continue
		}
		r, err := m.Intersect(om)
		if err != nil {
			return nil, err
		}
		empty, err := r.IsEmpty()
		if err != nil {
			return nil, err
		}
		if !empty {
			w.tables[k] = r
		}
	}
	return w, nil
}

// Subtract removes matching-space entries pointwise.
func (u *UnionMap) Subtract(o *UnionMap) (*UnionMap, error) {
	w := NewUnionMap(u.ctx, u.nParam)
	for k, m := range u.tables {
		om, ok := o.tables[k]
		if !ok {
			w.tables[k] = m.Copy()
			continue
		}
		r, err := m.Subtract(om)
		if err != nil {
			return nil, err
		}
		empty, err := r.IsEmpty()
		if err != nil {
			return nil, err
		}
		if !empty {
			w.tables[k] = r
		}
	}
	return w, nil
}

// ApplyRange composes every pair of entries whose intermediate spaces
// agree.
func (u *UnionMap) ApplyRange(o *UnionMap) (*UnionMap, error) {
	w := NewUnionMap(u.ctx, u.nParam)
	for _, ka := range u.sortedKeys() {
		a := u.tables[ka]
		for _, kb := range o.sortedKeys() {
			b := o.tables[kb]
			if a.space.Range().hashKey() != b.space.Domain().hashKey() {
				continue
			}
			r, err := a.ApplyRange(b)
			if err != nil {
				return nil, err
			}
			empty, err := r.IsEmpty()
			if err != nil {
				return nil, err
			}
			if !empty {
				if err := w.AddMap(r); err != nil {
					return nil, err
				}
			}
		}
	}
	return w, nil
}

// IsEmpty reports whether every entry is empty.
func (u *UnionMap) IsEmpty() (bool, error) {
	for _, m := range u.tables {
		empty, err := m.IsEmpty()
		if err != nil {
			return false, err
		}
		if !empty {
			return false, nil
		}
	}
	return true, nil
}

// IsEqual reports pointwise denotational equality.
func (u *UnionMap) IsEqual(o *UnionMap) (bool, error) {
	d1, err := u.Subtract(o)
	if err != nil {
		return false, err
	}
	e1, err := d1.IsEmpty()
	if err != nil || !e1 {
		return false, err
	}
	d2, err := o.Subtract(u)
	if err != nil {
		return false, err
	}
	return d2.IsEmpty()
}

// sccComponents groups the entry spaces of a square union map into
// strongly connected components of the "range feeds domain" graph,
// in reverse topological order.
func (u *UnionMap) sccComponents() [][]string {
	keys := u.sortedKeys()
	idx := map[string]int{}
	domOf := make([]string, len(keys))
	ranOf := make([]string, len(keys))
	for i, k := range keys {
		idx[k] = i
		domOf[i] = u.tables[k].space.Domain().hashKey()
		ranOf[i] = u.tables[k].space.Range().hashKey()
	}
	adj := make([][]int, len(keys))
	for i := range keys {
		for j := range keys {
			if ranOf[i] == domOf[j] {
				adj[i] = append(adj[i], j)
			}
		}
	}
	// Tarjan.
	var (
		index   = make([]int, len(keys))
		low     = make([]int, len(keys))
		onStack = make([]bool, len(keys))
		stack   []int
		next    = 1
		comps   [][]string
	)
	var strong func(v int)
	strong = func(v int) {
		index[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range adj[v] {
			if index[w] == 0 {
				strong(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && index[w] < low[v] {
				low[v] = index[w]
			}
		}
		if low[v] == index[v] {
			var comp []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, keys[w])
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}
	for v := range keys {
		if index[v] == 0 {
			strong(v)
		}
	}
	return comps
}

// TransitiveClosure decomposes the union map into strongly connected
// components over its spaces, closes each single-entry component whose
// map sends a space to itself, and then composes the entries repeatedly
// until no new pairs appear; components spanning several spaces are
// closed only by that repeated composition. exact is true only when
// every component closure is provably exact.
func (u *UnionMap) TransitiveClosure() (*UnionMap, bool, error) {
	exact := true
	cur := u.Copy()
	for _, comp := range cur.sccComponents() {
		if len(comp) != 1 {
			continue
		}
		m := cur.tables[comp[0]]
		if m.space.nIn != m.space.nOut || m.space.Domain().hashKey() != m.space.Range().hashKey() {
			continue
		}
		closed, ex, err := m.TransitiveClosure()
		if err != nil {
			return nil, false, err
		}
		exact = exact && ex
		cur.tables[comp[0]] = closed
	}
	// Chain across components until no new pairs appear.
	for i := 0; i < closureMaxIter; i++ {
		if err := u.ctx.checkAbort(); err != nil {
			return nil, false, err
		}
		step, err := cur.ApplyRange(cur)
		if err != nil {
			return nil, false, err
		}
		next, err := cur.Union(step)
		if err != nil {
			return nil, false, err
		}
		same, err := next.IsEqual(cur)
		if err != nil {
			return nil, false, err
		}
		if same {
			return cur, exact, nil
		}
		cur = next
	}
	return cur, false, nil
}
