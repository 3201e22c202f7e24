package common

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ColumnSums collapses a matrix to one value per column
func ColumnSums(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	sums := make([]float64, cols)
	for i := range rows {
		floats.Add(sums, m.RawRowView(i))
	}
	return sums
}

// RowsWithSignal returns the indices of rows holding any non-zero value in
// columns [c0, c1).
func RowsWithSignal(m *mat.Dense, c0, c1 int) []int {
	rows, cols := m.Dims()
	c0 = max(c0, 0)
	c1 = min(c1, cols)
	var out []int
	if c0 >= c1 {
		return out
	}
	for i := range rows {
		row := m.RawRowView(i)[c0:c1]
		for _, v := range row {
			if v != 0 {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// RowSpan returns the first and last row (both inclusive) with signal in
// columns [c0, c1). ok is false when the span is silent.
func RowSpan(m *mat.Dense, c0, c1 int) (first, last int, ok bool) {
	rows := RowsWithSignal(m, c0, c1)
	if len(rows) == 0 {
		return 0, 0, false
	}
	return rows[0], rows[len(rows)-1], true
}

// ElementwiseDot returns sum(a .* b) for two matrices of identical shape,
// the same value as the dot product of both flattened matrices.
func ElementwiseDot(a, b *mat.Dense) float64 {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		panic(mat.ErrShape)
	}
	total := 0.0
	for i := range ar {
		total += floats.Dot(a.RawRowView(i), b.RawRowView(i))
	}
	return total
}

// SumOfSquares returns sum(m .* m)
func SumOfSquares(m *mat.Dense) float64 {
	return ElementwiseDot(m, m)
}

// ColumnSlice returns a view of all rows restricted to columns [c0, c1)
func ColumnSlice(m *mat.Dense, c0, c1 int) *mat.Dense {
	rows, _ := m.Dims()
	return m.Slice(0, rows, c0, c1).(*mat.Dense)
}
