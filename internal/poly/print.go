package poly

import (
	"fmt"
	"math/big"
	"strings"

	"presburger/internal/num"
)

// Format enumerates the supported textual output formats.
type Format int

const (
	FormatISL Format = iota
	FormatOmega
	FormatPolylib
	FormatLatex
)

// ParseFormat maps an option value to a Format.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "isl":
		return FormatISL, true
	case "omega":
		return FormatOmega, true
	case "polylib":
		return FormatPolylib, true
	case "latex":
		return FormatLatex, true
	}
	return FormatISL, false
}

// varNames returns the printed name of every variable column of ls.
func varNames(ls *LocalSpace) []string {
	sp := ls.space
	names := make([]string, 0, ls.Total())
	for i := 0; i < sp.nParam; i++ {
		if id := sp.paramIds[i]; id != nil {
			names = append(names, id.Name())
		} else {
			names = append(names, fmt.Sprintf("p%d", i))
		}
	}
	for i := 0; i < sp.nIn; i++ {
		names = append(names, fmt.Sprintf("i%d", i))
	}
	for i := 0; i < sp.nOut; i++ {
		if sp.set {
			names = append(names, fmt.Sprintf("i%d", i))
		} else {
			names = append(names, fmt.Sprintf("o%d", i))
		}
	}
	for i := 0; i < ls.NDiv(); i++ {
		names = append(names, fmt.Sprintf("e%d", i))
	}
	return names
}

// writeAffine prints constant + coefficient terms of a constraint row.
func writeAffine(b *strings.Builder, row num.Vec, names []string, latex bool) {
	wrote := false
	term := func(c *big.Int, name string) {
		if c.Sign() == 0 {
			return
		}
		s := c.String()
		if wrote {
			if c.Sign() > 0 {
				b.WriteString(" + ")
			} else {
				b.WriteString(" - ")
				s = new(big.Int).Neg(c).String()
			}
		}
		if name == "" {
			b.WriteString(s)
		} else {
			if s == "1" {
				b.WriteString(name)
			} else if s == "-1" && !wrote {
				b.WriteString("-")
				b.WriteString(name)
			} else {
				b.WriteString(s)
				if latex {
					b.WriteString(" ")
				} else {
					b.WriteString("*")
				}
				b.WriteString(name)
			}
		}
		wrote = true
	}
	for i := 1; i < len(row); i++ {
		term(row[i], names[i-1])
	}
	term(row[0], "")
	if !wrote {
		b.WriteString("0")
	}
}

// writeConstraints prints the constraint list of one disjunct.
func writeConstraints(b *strings.Builder, bm *BasicMap, names []string, and, geq, eq string, latex bool) bool {
	wrote := false
	sep := func() {
		if wrote {
			b.WriteString(and)
		}
		wrote = true
	}
	for _, r := range bm.eq {
		sep()
		writeAffine(b, r, names, latex)
		b.WriteString(eq)
	}
	for _, r := range bm.ineq {
		sep()
		writeAffine(b, r, names, latex)
		b.WriteString(geq)
	}
	return wrote
}

// writeDisjunct prints one basic map body: tuples, exists wrapper, and
// constraints.
func writeDisjunct(b *strings.Builder, bm *BasicMap, f Format) {
	sp := bm.Space()
	names := varNames(bm.ls)
	latex := f == FormatLatex
	arrow := " -> "
	if latex {
		arrow = ` \to `
	}
	tuple := func(off, n int) {
		b.WriteString("[")
		for i := 0; i < n; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(names[off+i])
		}
		b.WriteString("]")
	}
	if !sp.set {
		tuple(sp.nParam, sp.nIn)
		b.WriteString(arrow)
	}
	tuple(sp.nParam+sp.nIn, sp.nOut)

	and := " and "
	geq := " >= 0"
	eq := " = 0"
	switch f {
	case FormatOmega:
		and = " && "
	case FormatLatex:
		and = ` \wedge `
		geq = ` \geq 0`
		eq = " = 0"
	}

	hasBody := len(bm.eq)+len(bm.ineq) > 0 || bm.ls.NDiv() > 0
	if !hasBody {
		return
	}
	b.WriteString(" : ")
	if n := bm.ls.NDiv(); n > 0 {
		b.WriteString("exists (")
		for i := 0; i < n; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			d := bm.ls.Div(i)
			b.WriteString(names[bm.Offset(DimDiv)-1+i])
			if d[0].Sign() > 0 {
				b.WriteString(" = floor((")
				writeAffine(b, d[1:], names, latex)
				b.WriteString(")/")
				b.WriteString(d[0].String())
				b.WriteString(")")
			}
		}
		b.WriteString(": ")
		if !writeConstraints(b, bm, names, and, geq, eq, latex) {
			b.WriteString("0 = 0")
		}
		b.WriteString(")")
		return
	}
	writeConstraints(b, bm, names, and, geq, eq, latex)
}

// formatMap renders the map in the textual formats sharing the braced
// shape (isl, omega, latex).
func formatMap(m *Map, f Format) string {
	var b strings.Builder
	lbrace, rbrace := "{ ", " }"
	if f == FormatLatex {
		lbrace, rbrace = `\{ `, ` \}`
	}
	if m.space.nParam > 0 && f == FormatISL {
		b.WriteString("[")
		for i := 0; i < m.space.nParam; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			if id := m.space.paramIds[i]; id != nil {
				b.WriteString(id.Name())
			} else {
				fmt.Fprintf(&b, "p%d", i)
			}
		}
		b.WriteString("] -> ")
	}
	b.WriteString(lbrace)
	for i, bm := range m.bmaps {
		if i > 0 {
			b.WriteString("; ")
		}
		writeDisjunct(&b, bm, f)
	}
	if len(m.bmaps) == 0 {
		// An explicitly empty relation: a tuple with an unsatisfiable
		// constraint.
		writeDisjunct(&b, EmptyBasicMap(m.space), f)
	}
	b.WriteString(rbrace)
	return b.String()
}

// formatPolylib renders every disjunct as a constraint matrix: one row
// per constraint, first column 0 for an equality and 1 for an
// inequality, then the variable coefficients, then the constant.
func formatPolylib(m *Map) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", len(m.bmaps))
	for _, bm := range m.bmaps {
		rows := len(bm.eq) + len(bm.ineq)
		fmt.Fprintf(&b, "%d %d\n", rows, 2+bm.Total())
		write := func(kind int, r num.Vec) {
			fmt.Fprintf(&b, "%d", kind)
			for i := 1; i < len(r); i++ {
				fmt.Fprintf(&b, " %s", r[i].String())
			}
			fmt.Fprintf(&b, " %s\n", r[0].String())
		}
		for _, r := range bm.eq {
			write(0, r)
		}
		for _, r := range bm.ineq {
			write(1, r)
		}
	}
	return b.String()
}

// FormatMap renders m in the requested output format.
func FormatMap(m *Map, f Format) string {
	if f == FormatPolylib {
		return formatPolylib(m)
	}
	return formatMap(m, f)
}

// FormatSet renders s in the requested output format.
func FormatSet(s *Set, f Format) string { return FormatMap(s.Map, f) }

// String renders the map in the ISL concrete syntax.
func (m *Map) String() string { return formatMap(m, FormatISL) }

// String renders the set in the ISL concrete syntax.
func (s *Set) String() string { return formatMap(s.Map, FormatISL) }

// String renders a single-disjunct view of the basic map.
func (bm *BasicMap) String() string { return MapFromBasicMap(bm).String() }

// String renders a single-disjunct view of the basic set.
func (bs *BasicSet) String() string { return MapFromBasicMap(bs.BasicMap).String() }

// String renders the affine expression as a quotient.
func (a *Aff) String() string {
	var b strings.Builder
	names := varNames(a.ls)
	if !num.IsOne(a.v[0]) {
		b.WriteString("(")
	}
	writeAffine(&b, a.v[1:], names, false)
	if !num.IsOne(a.v[0]) {
		fmt.Fprintf(&b, ")/%s", a.v[0].String())
	}
	return b.String()
}

// String renders the union map as a semicolon-joined list of maps.
func (u *UnionMap) String() string {
	var parts []string
	for _, k := range u.sortedKeys() {
		parts = append(parts, u.tables[k].String())
	}
	if len(parts) == 0 {
		return "{ }"
	}
	return strings.Join(parts, "; ")
}
