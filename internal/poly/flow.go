package poly

import (
	"presburger/internal/num"
)

// Access describes one access relation: a map from iteration vectors
// to memory locations, a must/may flag, and an opaque user token
// handed to the LevelBefore callback.
type Access struct {
	Map  *Map
	Must bool
	User any
}

// AccessInfo is the input of the dependence-flow computation: one sink
// access, an ordered list of source accesses, and the schedule order.
// LevelBefore(a, b) returns 0 when iterations of a can never execute
// before iterations of b, and otherwise the (1-based) level at which
// they interleave: the iteration vectors agree on the first level-1
// coordinates and compare strictly at coordinate level-1.
type AccessInfo struct {
	Sink        *Access
	Sources     []*Access
	LevelBefore func(first, second any) int
}

// Dep is one computed dependence: a relation from source iterations to
// the sink iterations they flow to.
type Dep struct {
	Map  *Map
	Must bool
}

// FlowResult pairs the per-source dependences with the sink iterations
// that read a value no listed source wrote.
type FlowResult struct {
	Deps     []Dep
	NoSource *Set
}

// beforeAtLevel returns { v -> u : u executes before v at level L },
// with v ranging over sinkDim-vectors and u over srcDim-vectors.
func beforeAtLevel(ctx *Context, nParam, sinkDim, srcDim, level int) *Map {
	sp := NewSpace(ctx, nParam, sinkDim, srcDim)
	bm := NewBasicMap(sp)
	oIn, oOut := bm.Offset(DimIn), bm.Offset(DimOut)
	for t := 0; t < level-1; t++ {
		row := num.NewVec(1 + bm.Total())
		row[oOut+t].SetInt64(1)
		row[oIn+t].SetInt64(-1)
		bm.eq = append(bm.eq, row)
	}
	row := num.NewVec(1 + bm.Total())
	row[oIn+level-1].SetInt64(1)
	row[oOut+level-1].SetInt64(-1)
	row[0].SetInt64(-1)
	bm.ineq = append(bm.ineq, row)
	return MapFromBasicMap(bm)
}

// candidates returns { sink iteration -> source iteration } pairs that
// access the same memory cell with the source executing before the
// sink at the given level.
func candidates(info *AccessInfo, j int, level int) (*Map, error) {
	src := info.Sources[j]
	cand, err := info.Sink.Map.ApplyRange(src.Map.Reverse())
	if err != nil {
		return nil, err
	}
	order := beforeAtLevel(cand.ctx, cand.space.nParam, cand.space.nIn, cand.space.nOut, level)
	return cand.Intersect(order)
}

// ComputeFlow finds, for every sink iteration, the last source
// iteration writing the memory cell it reads. Levels are processed
// from the innermost out; within a level the sources keep their given
// order, and writes overwritten by a later write of another source are
// subtracted so only the last writer survives.
func ComputeFlow(info *AccessInfo) (*FlowResult, error) {
	ctx := info.Sink.Map.ctx
	todo, err := info.Sink.Map.Domain()
	if err != nil {
		return nil, err
	}

	levels := make([]int, len(info.Sources))
	maxLevel := 0
	for j, src := range info.Sources {
		levels[j] = info.LevelBefore(src.User, info.Sink.User)
		if levels[j] > maxLevel {
			maxLevel = levels[j]
		}
	}

	// Unrestricted candidate relations, used for the intermediate-
	// writer subtraction.
	full := make([]*Map, len(info.Sources))
	for j := range info.Sources {
		if levels[j] == 0 {
			continue
		}
		full[j], err = candidates(info, j, levels[j])
		if err != nil {
			return nil, err
		}
	}

	deps := make([]Dep, len(info.Sources))
	for j, src := range info.Sources {
		sp := NewSpace(ctx, todo.space.nParam, src.Map.space.nIn, info.Sink.Map.space.nIn)
		sp.paramIds = append([]*Id(nil), todo.space.paramIds...)
		deps[j] = Dep{Map: EmptyMap(sp), Must: src.Must}
	}

	for level := maxLevel; level >= 1; level-- {
		if err := ctx.checkAbort(); err != nil {
			return nil, err
		}
		start := todo.Copy()
		var parts []*Map // per source at this level, sink -> last source iter
		var who []int
		for j, src := range info.Sources {
			if levels[j] != level {
				continue
			}
			cand, err := full[j].restrictDomain(start)
			if err != nil {
				return nil, err
			}
			if !src.Must {
				// A may-write contributes every candidate pair.
				parts = append(parts, cand)
				who = append(who, j)
				continue
			}
			last, err := cand.Lexmax()
			if err != nil {
				return nil, err
			}
			parts = append(parts, last)
			who = append(who, j)
		}
		for pi, part := range parts {
			j := who[pi]
			dep := part.Reverse() // source iter -> sink iter
			// Subtract pairs overwritten by a later write of another
			// must source.
			for k := range info.Sources {
				if k == j || levels[k] == 0 || !info.Sources[k].Must {
					continue
				}
				if dep.space.nIn != full[k].space.nOut {
					continue
				}
				lt := LexLEMap(ctx, dep.space.nParam, dep.space.nIn, true)
				over, err := lt.ApplyRange(full[k].Reverse())
				if err != nil {
					return nil, err
				}
				over, err = over.Intersect(dep)
				if err != nil {
					return nil, err
				}
				dep, err = dep.Subtract(over)
				if err != nil {
					return nil, err
				}
			}
			dep, err = dep.Coalesce()
			if err != nil {
				return nil, err
			}
			u, err := deps[j].Map.Union(dep)
			if err != nil {
				return nil, err
			}
			deps[j].Map = u
			if info.Sources[j].Must {
				covered, err := dep.Range()
				if err != nil {
					return nil, err
				}
				todo, err = todo.Subtract(covered)
				if err != nil {
					return nil, err
				}
			}
		}
	}
	noSource, err := todo.Coalesce()
	if err != nil {
		return nil, err
	}
	return &FlowResult{Deps: deps, NoSource: noSource}, nil
}
