package poly

import (
	"fmt"
	"strings"
)

// DimType names a block of variables in the column layout of a
// constraint row: parameters, input tuple, output tuple, then local
// divisions. Sets store their dimensions in the output block.
type DimType int

const (
	DimParam DimType = iota
	DimIn
	DimOut
	DimDiv
)

// Space is the tuple signature of a relation: parameter count, input
// and output tuple sizes, optional identifiers, and optional nested
// spaces for wrapped relations. Spaces are immutable; derived spaces
// are fresh values.
type Space struct {
	ctx    *Context
	nParam int
	nIn    int
	nOut   int
	set    bool

	paramIds []*Id
	tupleIds [2]*Id
	nested   [2]*Space
}

// NewSpace returns a map space with the given tuple sizes.
func NewSpace(ctx *Context, nParam, nIn, nOut int) *Space {
	return &Space{
		ctx:      ctx,
		nParam:   nParam,
		nIn:      nIn,
		nOut:     nOut,
		paramIds: make([]*Id, nParam),
	}
}

// NewSetSpace returns a set space with dim dimensions, stored in the
// output block.
func NewSetSpace(ctx *Context, nParam, dim int) *Space {
	s := NewSpace(ctx, nParam, 0, dim)
	s.set = true
	return s
}

// NewParamSpace returns a space with parameters only.
func NewParamSpace(ctx *Context, nParam int) *Space {
	return NewSetSpace(ctx, nParam, 0)
}

// Ctx returns the owning Context.
func (s *Space) Ctx() *Context { return s.ctx }

// IsSet reports whether s is a set space.
func (s *Space) IsSet() bool { return s.set }

// Dim returns the number of dimensions of the given type.
func (s *Space) Dim(t DimType) int {
	switch t {
	case DimParam:
		return s.nParam
	case DimIn:
		return s.nIn
	case DimOut:
		return s.nOut
	}
	return 0
}

// clone returns a deep copy that may be modified before publication.
func (s *Space) clone() *Space {
	w := *s
	w.paramIds = append([]*Id(nil), s.paramIds...)
	return &w
}

// SetParamID returns a copy of s with parameter pos named id.
func (s *Space) SetParamID(pos int, id *Id) *Space {
	w := s.clone()
	w.paramIds[pos] = id
	return w
}

// ParamID returns the identifier of parameter pos (possibly nil).
func (s *Space) ParamID(pos int) *Id { return s.paramIds[pos] }

// SetTupleID returns a copy of s with the given tuple named id. t must
// be DimIn or DimOut.
func (s *Space) SetTupleID(t DimType, id *Id) *Space {
	w := s.clone()
	if t == DimIn {
		w.tupleIds[0] = id
	} else {
		w.tupleIds[1] = id
	}
	return w
}

// TupleID returns the identifier of the given tuple (possibly nil).
func (s *Space) TupleID(t DimType) *Id {
	if t == DimIn {
		return s.tupleIds[0]
	}
	return s.tupleIds[1]
}

// Nested returns the nested space wrapped in the given tuple slot, or
// nil.
func (s *Space) Nested(t DimType) *Space {
	if t == DimIn {
		return s.nested[0]
	}
	return s.nested[1]
}

// Equal reports structural equality: same tuple counts, matching
// identifiers at equal positions, and structurally equal nested spaces.
func (s *Space) Equal(o *Space) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.nParam != o.nParam || s.nIn != o.nIn || s.nOut != o.nOut || s.set != o.set {
		return false
	}
	for i := range s.paramIds {
		if s.paramIds[i] != o.paramIds[i] {
			return false
		}
	}
	if s.tupleIds != o.tupleIds {
		return false
	}
	for i := range s.nested {
		a, b := s.nested[i], o.nested[i]
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && !a.Equal(b) {
			return false
		}
	}
	return true
}

// Reverse swaps the input and output tuples of a map space.
func (s *Space) Reverse() *Space {
	w := s.clone()
	w.nIn, w.nOut = s.nOut, s.nIn
	w.tupleIds[0], w.tupleIds[1] = s.tupleIds[1], s.tupleIds[0]
	w.nested[0], w.nested[1] = s.nested[1], s.nested[0]
	return w
}

// Wrap turns a map space into the set space over its wrapped relation.
func (s *Space) Wrap() *Space {
	w := NewSetSpace(s.ctx, s.nParam, s.nIn+s.nOut)
	w.paramIds = append([]*Id(nil), s.paramIds...)
	w.nested[1] = s
	return w
}

// Unwrap recovers the map space wrapped by a set space, or nil.
func (s *Space) Unwrap() *Space {
	if !s.set {
		return nil
	}
	return s.nested[1]
}

// Domain returns the set space over the input tuple.
func (s *Space) Domain() *Space {
	w := NewSetSpace(s.ctx, s.nParam, s.nIn)
	w.paramIds = append([]*Id(nil), s.paramIds...)
	w.tupleIds[1] = s.tupleIds[0]
	w.nested[1] = s.nested[0]
	return w
}

// Range returns the set space over the output tuple.
func (s *Space) Range() *Space {
	w := NewSetSpace(s.ctx, s.nParam, s.nOut)
	w.paramIds = append([]*Id(nil), s.paramIds...)
	w.tupleIds[1] = s.tupleIds[1]
	w.nested[1] = s.nested[1]
	return w
}

// MapFromDomainRange builds the map space dom -> ran. The two set
// spaces must agree on parameters.
func MapFromDomainRange(dom, ran *Space) *Space {
	w := NewSpace(dom.ctx, dom.nParam, dom.nOut, ran.nOut)
	w.paramIds = append([]*Id(nil), dom.paramIds...)
	w.tupleIds[0] = dom.tupleIds[1]
	w.tupleIds[1] = ran.tupleIds[1]
	w.nested[0] = dom.nested[1]
	w.nested[1] = ran.nested[1]
	return w
}

// hashKey returns a string identifying the space up to structural
// equality, used as the key of UnionMap tables.
func (s *Space) hashKey() string {
	var b strings.Builder
	s.writeKey(&b)
	return b.String()
}

func (s *Space) writeKey(b *strings.Builder) {
	fmt.Fprintf(b, "%d/%d/%d/%t", s.nParam, s.nIn, s.nOut, s.set)
	for _, id := range s.paramIds {
		fmt.Fprintf(b, ",%s", id.Name())
	}
	fmt.Fprintf(b, ";%s;%s", s.tupleIds[0].Name(), s.tupleIds[1].Name())
	for _, n := range s.nested {
		if n != nil {
			b.WriteByte('[')
			n.writeKey(b)
			b.WriteByte(']')
		}
	}
}
