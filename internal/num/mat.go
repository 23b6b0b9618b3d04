package num

import "math/big"

// Mat is a dense matrix of big integers stored as a slice of rows.
// Rows may be appended and reordered freely; all rows of a well-formed
// matrix have the same length.
type Mat []Vec

// NewMat returns a zero-initialized matrix with the given shape.
func NewMat(rows, cols int) Mat {
	m := make(Mat, rows)
	for i := range m {
		m[i] = NewVec(cols)
	}
	return m
}

// MatOf builds a matrix from int64 literal rows.
func MatOf(rows ...[]int64) Mat {
	m := make(Mat, len(rows))
	for i, r := range rows {
		m[i] = VecOf(r...)
	}
	return m
}

// Clone returns a deep copy of m.
func (m Mat) Clone() Mat {
	w := make(Mat, len(m))
	for i, r := range m {
		w[i] = r.Clone()
	}
	return w
}

// Cols returns the number of columns (zero for an empty matrix).
func (m Mat) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// SwapRows exchanges rows i and j in place.
func (m Mat) SwapRows(i, j int) {
	m[i], m[j] = m[j], m[i]
}

// ScaleRow multiplies row i by f in place.
func (m Mat) ScaleRow(i int, f *big.Int) {
	m[i].Scale(f)
}

// ElimRow performs the fraction-free elimination step clearing column
// col of row dst using row src as pivot:
//
//	dst = pivot*dst - dst[col]*src
//
// followed by content normalization of dst.
func (m Mat) ElimRow(dst, src, col int) {
	pivot := m[src][col]
	f := new(big.Int).Set(m[dst][col])
	m[dst].Scale(pivot)
	m[dst].AddScaled(new(big.Int).Neg(f), m[src])
	m[dst].NormalizeContent()
}

// InsertCols returns a copy of m with n zero columns inserted before
// column pos in every row.
func (m Mat) InsertCols(pos, n int) Mat {
	w := make(Mat, len(m))
	for i, r := range m {
		row := make(Vec, 0, len(r)+n)
		row = append(row, r[:pos].Clone()...)
		row = append(row, NewVec(n)...)
		row = append(row, r[pos:].Clone()...)
		w[i] = row
	}
	return w
}

// DropCols returns a copy of m with n columns removed starting at pos.
func (m Mat) DropCols(pos, n int) Mat {
	w := make(Mat, len(m))
	for i, r := range m {
		row := make(Vec, 0, len(r)-n)
		row = append(row, r[:pos].Clone()...)
		row = append(row, r[pos+n:].Clone()...)
		w[i] = row
	}
	return w
}

// Transpose returns a new matrix with rows and columns exchanged.
func (m Mat) Transpose() Mat {
	w := NewMat(m.Cols(), len(m))
	for i, r := range m {
		for j, x := range r {
			w[j][i].Set(x)
		}
	}
	return w
}

// RowEchelon reduces m in place to a fraction-free row-echelon form and
// returns the rank. Column order is left to right; pivot rows keep
// normalized content. Zero rows sink to the bottom.
func (m Mat) RowEchelon() int {
	rank := 0
	cols := m.Cols()
	for col := 0; col < cols && rank < len(m); col++ {
		pivot := -1
		for i := rank; i < len(m); i++ {
			if m[i][col].Sign() != 0 {
				if pivot < 0 || m[i][col].CmpAbs(m[pivot][col]) < 0 {
					pivot = i
				}
			}
		}
		if pivot < 0 {
			continue
		}
		m.SwapRows(rank, pivot)
		for i := 0; i < len(m); i++ {
			if i != rank && m[i][col].Sign() != 0 {
				m.ElimRow(i, rank, col)
			}
		}
		rank++
	}
	return rank
}

// Rank returns the rank of m without modifying it.
func (m Mat) Rank() int {
	return m.Clone().RowEchelon()
}

// Nullspace returns an integer basis of the right kernel of m: a matrix
// whose rows b satisfy m·bᵀ = 0, with content-normalized rows. The basis
// spans the rational kernel.
func (m Mat) Nullspace() Mat {
	cols := m.Cols()
	w := m.Clone()
	w.RowEchelon()

	// Locate the pivot column of each nonzero row.
	pivotOf := make([]int, 0, len(w))
	isPivot := make([]bool, cols)
	for _, r := range w {
		lead := -1
		for j := 0; j < cols; j++ {
			if r[j].Sign() != 0 {
				lead = j
				break
			}
		}
		if lead < 0 {
			break
		}
		pivotOf = append(pivotOf, lead)
		isPivot[lead] = true
	}

	var basis Mat
	for free := 0; free < cols; free++ {
		if isPivot[free] {
			continue
		}
		// Solve for the pivot coordinates with the free column set to
		// the lcm of the pivot entries so the solution stays integral.
		b := NewVec(cols)
		scale := big.NewInt(1)
		for i := range pivotOf {
			scale = Lcm(scale, w[i][pivotOf[i]])
		}
		b[free].Set(scale)
		for i := len(pivotOf) - 1; i >= 0; i-- {
			s := w[i].Dot(b)
			s.Neg(s)
			b[pivotOf[i]] = s.Quo(s, w[i][pivotOf[i]])
		}
		b.NormalizeContent()
		basis = append(basis, b)
	}
	return basis
}

// Product returns the matrix product m·w.
func (m Mat) Product(w Mat) Mat {
	inner := m.Cols()
	out := NewMat(len(m), w.Cols())
	t := new(big.Int)
	for i := range m {
		for j := 0; j < w.Cols(); j++ {
			s := out[i][j]
			for k := 0; k < inner; k++ {
				t.Mul(m[i][k], w[k][j])
				s.Add(s, t)
			}
		}
	}
	return out
}
