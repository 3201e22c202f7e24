package analysis

import (
	"fmt"

	"github.com/RyanBlaney/chipper/algorithms/common"
	"gonum.org/v1/gonum/mat"
)

// DefaultCorrelationThreshold is the percentage at which two syllables count as the same type
const DefaultCorrelationThreshold = 50.0

// CorrelationMatrix is a symmetric N x N similarity matrix between syllables.
// Correlation values are percentages with a diagonal of 100; a binarized
// matrix holds 0 or 1.
type CorrelationMatrix struct {
	sym *mat.SymDense // nil when there are no syllables
}

func newCorrelationMatrix(n int) *CorrelationMatrix {
	if n == 0 {
		return &CorrelationMatrix{}
	}
	return &CorrelationMatrix{sym: mat.NewSymDense(n, nil)}
}

// Size returns N
func (c *CorrelationMatrix) Size() int {
	if c.sym == nil {
		return 0
	}
	return c.sym.SymmetricDim()
}

// At returns the entry at (i, j)
func (c *CorrelationMatrix) At(i, j int) float64 {
	return c.sym.At(i, j)
}

func (c *CorrelationMatrix) set(i, j int, v float64) {
	c.sym.SetSym(i, j, v)
}

// Binarize returns a matrix with 1 where the correlation is at least threshold
func (c *CorrelationMatrix) Binarize(threshold float64) *CorrelationMatrix {
	n := c.Size()
	out := newCorrelationMatrix(n)
	for i := range n {
		for j := i; j < n; j++ {
			if c.At(i, j) >= threshold {
				out.set(i, j, 1)
			}
		}
	}
	return out
}

// Rows returns the matrix as nested slices
func (c *CorrelationMatrix) Rows() [][]float64 {
	n := c.Size()
	out := make([][]float64, n)
	for i := range n {
		out[i] = make([]float64, n)
		for j := range n {
			out[i][j] = c.At(i, j)
		}
	}
	return out
}

// syllableSpan is the frequency box of one syllable in the row-cropped sonogram
type syllableSpan struct {
	onset, offset int
	selfEnergy    float64
	ymin, ymax    int // inclusive
	hasSignal     bool
}

// CorrelateSyllables compares every pair of syllables of a binary sonogram.
//
// Each syllable is restricted to the union of both frequency boxes, and the
// shorter one slides across the longer. The score is the best overlap divided
// by the larger self energy, in percent. Syllables whose boxes share no row
// score 0, as do syllables without signal.
func CorrelateSyllables(sonogram *mat.Dense, onsets, offsets []int) (*CorrelationMatrix, error) {
	if len(onsets) != len(offsets) {
		return nil, fmt.Errorf("the number of offsets (%d) does not match the number of onsets (%d)", len(offsets), len(onsets))
	}

	n := len(onsets)
	corr := newCorrelationMatrix(n)
	if n == 0 {
		return corr, nil
	}
	for j := range n {
		corr.set(j, j, 100)
	}

	_, cols := sonogram.Dims()
	first, last, ok := common.RowSpan(sonogram, 0, cols)
	if !ok {
		return corr, nil
	}
	cropped := sonogram.Slice(first, last+1, 0, cols).(*mat.Dense)

	spans := make([]syllableSpan, n)
	for j := range n {
		spans[j] = measureSyllable(cropped, onsets[j], offsets[j])
	}

	for j := range n {
		a := spans[j]
		for k := j + 1; k < n; k++ {
			b := spans[k]
			if !a.hasSignal || !b.hasSignal {
				continue
			}
			if b.ymin > a.ymax || a.ymin > b.ymax {
				continue
			}

			maxOverlap := max(a.selfEnergy, b.selfEnergy)
			if maxOverlap == 0 {
				continue
			}

			ymin := min(a.ymin, b.ymin)
			ymax := max(a.ymax, b.ymax) + 1
			s1 := cropped.Slice(ymin, ymax, a.onset, a.offset).(*mat.Dense)
			s2 := cropped.Slice(ymin, ymax, b.onset, b.offset).(*mat.Dense)

			corr.set(j, k, slidingMaxOverlap(s1, s2)*100/maxOverlap)
		}
	}

	return corr, nil
}

func measureSyllable(sonogram *mat.Dense, onset, offset int) syllableSpan {
	span := syllableSpan{onset: onset, offset: offset}

	_, cols := sonogram.Dims()
	if onset < 0 || offset > cols || onset >= offset {
		return span
	}

	span.selfEnergy = common.SumOfSquares(common.ColumnSlice(sonogram, onset, offset))
	span.ymin, span.ymax, span.hasSignal = common.RowSpan(sonogram, onset, offset)
	return span
}

// slidingMaxOverlap slides the narrower matrix across the wider one and returns
// the largest elementwise dot product. Both matrices have the same rows.
func slidingMaxOverlap(s1, s2 *mat.Dense) float64 {
	_, w1 := s1.Dims()
	_, w2 := s2.Dims()
	if w1 < w2 {
		s1, s2 = s2, s1
		w1, w2 = w2, w1
	}

	rows, _ := s1.Dims()
	best := 0.0
	for i := 0; i <= w1-w2; i++ {
		window := s1.Slice(0, rows, i, i+w2).(*mat.Dense)
		best = max(best, common.ElementwiseDot(window, s2))
	}
	return best
}
