package poly

import (
	"math/big"

	"presburger/internal/num"
)

// LocalSpace is a Space together with an ordered list of integer
// division definitions. Div row i has the layout
//
//	[ d_i | num_i | coeffs over (params, in, out, earlier divs) ]
//
// of length 2 + Total() and encodes div_i = floor((num_i + coeffs·x) / d_i).
// A div is known iff d_i > 0; d_i = 0 marks an unresolved existential.
// Div i may reference only divs with index below i.
type LocalSpace struct {
	space *Space
	divs  num.Mat
}

// NewLocalSpace returns a LocalSpace over space with no divs.
func NewLocalSpace(space *Space) *LocalSpace {
	return &LocalSpace{space: space}
}

// Ctx returns the owning Context.
func (ls *LocalSpace) Ctx() *Context { return ls.space.ctx }

// Space returns the underlying Space.
func (ls *LocalSpace) Space() *Space { return ls.space }

// NDiv returns the number of divs.
func (ls *LocalSpace) NDiv() int { return len(ls.divs) }

// Div returns div row i.
func (ls *LocalSpace) Div(i int) num.Vec { return ls.divs[i] }

// Dim returns the number of dimensions of the given type.
func (ls *LocalSpace) Dim(t DimType) int {
	if t == DimDiv {
		return len(ls.divs)
	}
	return ls.space.Dim(t)
}

// Total returns the number of variable columns: parameters, inputs,
// outputs, and divs.
func (ls *LocalSpace) Total() int {
	return ls.space.nParam + ls.space.nIn + ls.space.nOut + len(ls.divs)
}

// Offset returns the column of the first dimension of type t in a
// constraint row (column 0 is the constant).
func (ls *LocalSpace) Offset(t DimType) int {
	off := 1
	switch t {
	case DimParam:
		return off
	case DimIn:
		return off + ls.space.nParam
	case DimOut:
		return off + ls.space.nParam + ls.space.nIn
	default:
		return off + ls.space.nParam + ls.space.nIn + ls.space.nOut
	}
}

// Clone returns a deep copy.
func (ls *LocalSpace) Clone() *LocalSpace {
	return &LocalSpace{space: ls.space, divs: ls.divs.Clone()}
}

// Equal reports structural equality of spaces and div matrices.
func (ls *LocalSpace) Equal(o *LocalSpace) bool {
	if !ls.space.Equal(o.space) {
		return false
	}
	if len(ls.divs) != len(o.divs) {
		return false
	}
	for i := range ls.divs {
		if !ls.divs[i].Equal(o.divs[i]) {
			return false
		}
	}
	return true
}

// DivIsKnown reports whether div i has a definition.
func (ls *LocalSpace) DivIsKnown(i int) bool {
	return ls.divs[i][0].Sign() > 0
}

// AllDivsKnown reports whether every div has a definition.
func (ls *LocalSpace) AllDivsKnown() bool {
	for i := range ls.divs {
		if !ls.DivIsKnown(i) {
			return false
		}
	}
	return true
}

// AddDiv appends a div row (length 2 + Total() before the call, i.e.
// not referencing itself) and returns the index of the new div. The row
// is extended with a zero self-column.
func (ls *LocalSpace) AddDiv(row num.Vec) int {
	r := row.Clone()
	r = append(r, new(big.Int))
	for i := range ls.divs {
		ls.divs[i] = append(ls.divs[i], new(big.Int))
	}
	ls.divs = append(ls.divs, r)
	return len(ls.divs) - 1
}

// cmpDivRows orders two div rows of equal width: unknown divs after all
// known divs, then by the position of the last nonzero coefficient
// column, then lexicographically over the whole row.
func cmpDivRows(a, b num.Vec) int {
	ka, kb := a[0].Sign() > 0, b[0].Sign() > 0
	if ka != kb {
		if ka {
			return -1
		}
		return 1
	}
	la, lb := a[2:].LastNonzero(), b[2:].LastNonzero()
	if la != lb {
		if la < lb {
			return -1
		}
		return 1
	}
	return a.Lexcmp(b)
}

// expandDivRow rewrites div row i of ls into a row of width
// 2 + nv + wide, remapping div-reference columns through exp.
func (ls *LocalSpace) expandDivRow(i int, nv, wide int, exp []int) num.Vec {
	src := ls.divs[i]
	row := num.NewVec(2 + nv + wide)
	for c := 0; c < 2+nv; c++ {
		row[c].Set(src[c])
	}
	for d := 0; d < i; d++ {
		row[2+nv+exp[d]].Set(src[2+nv+d])
	}
	return row
}

// MergeDivs combines the div lists of two LocalSpaces over the same
// Space. It returns the merged LocalSpace plus expansion maps taking
// each input's div index to its index in the merged list. Both inputs
// must have their divs in canonical order; equal known rows merge to a
// single div, unknown divs are kept apart and sink to the tail.
func MergeDivs(a, b *LocalSpace) (*LocalSpace, []int, []int, error) {
	if !a.space.Equal(b.space) {
		return nil, nil, nil, a.Ctx().Errorf(ErrInvalid, "merging divs of different spaces")
	}
	nv := a.space.nParam + a.space.nIn + a.space.nOut
	na, nb := len(a.divs), len(b.divs)
	wide := na + nb

	expa := make([]int, na)
	expb := make([]int, nb)
	var merged num.Mat
	i, j := 0, 0
	for i < na || j < nb {
		switch {
		case i >= na:
			merged = append(merged, b.expandDivRow(j, nv, wide, expb))
			expb[j] = len(merged) - 1
			j++
		case j >= nb:
			merged = append(merged, a.expandDivRow(i, nv, wide, expa))
			expa[i] = len(merged) - 1
			i++
		default:
			ra := a.expandDivRow(i, nv, wide, expa)
			rb := b.expandDivRow(j, nv, wide, expb)
			c := cmpDivRows(ra, rb)
			known := ra[0].Sign() > 0 && rb[0].Sign() > 0
			if c == 0 && known {
				merged = append(merged, ra)
				expa[i] = len(merged) - 1
				expb[j] = len(merged) - 1
				i++
				j++
			} else if c <= 0 {
				merged = append(merged, ra)
				expa[i] = len(merged) - 1
				i++
			} else {
				merged = append(merged, rb)
				expb[j] = len(merged) - 1
				j++
			}
		}
	}

	// Shrink rows from the provisional width to the final div count.
	n := len(merged)
	for r := range merged {
		merged[r] = merged[r][:2+nv+n]
	}
	return &LocalSpace{space: a.space, divs: merged}, expa, expb, nil
}
