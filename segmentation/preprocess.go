package segmentation

import (
	"fmt"

	"github.com/RyanBlaney/chipper/algorithms/common"
	"github.com/RyanBlaney/chipper/algorithms/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultSmoothingRadius is the half-width, in frames, of the energy moving average
const DefaultSmoothingRadius = 500

// Pad returns a copy of s widened by padding zero columns on each side
func Pad(s *mat.Dense, padding int) *mat.Dense {
	rows, cols := s.Dims()
	padding = max(padding, 0)

	out := mat.NewDense(rows, cols+2*padding, nil)
	out.Slice(0, rows, padding, padding+cols).(*mat.Dense).Copy(s)
	return out
}

// HighPassFilter zeroes every row at index >= boundary in place. Row 0 is the
// highest frequency, so those rows are the low end of the spectrum. A boundary
// outside (0, rows) leaves s untouched.
func HighPassFilter(s *mat.Dense, boundary int) *mat.Dense {
	rows, cols := s.Dims()
	if boundary <= 0 || boundary >= rows {
		return s
	}

	s.Slice(boundary, rows, 0, cols).(*mat.Dense).Zero()
	return s
}

// NormalizeAmplitude boosts quiet passages by dividing each column by its
// locally averaged energy, scaled so the loudest neighbourhood keeps its level.
// Columns whose local average is zero stay zero.
func NormalizeAmplitude(s *mat.Dense, radius int) (*mat.Dense, error) {
	rows, cols := s.Dims()

	energy := common.ColumnSums(s)
	average := common.CenteredMovingAverage(energy, radius)

	peak := floats.Max(average)
	if peak == 0 {
		return nil, &DomainError{Op: "normalize amplitude", Reason: "energy vector is entirely zero"}
	}
	floats.Scale(1/peak, average)

	out := mat.NewDense(rows, cols, nil)
	for i := range rows {
		src := s.RawRowView(i)
		dst := out.RawRowView(i)
		for j, a := range average {
			if a == 0 {
				continue
			}
			dst[j] = src[j] / a
		}
	}

	return out, nil
}

// ThresholdImage binarizes s, keeping roughly the loudest topPercent of pixels:
// 1 where the value strictly exceeds the (100-topPercent) percentile.
func ThresholdImage(topPercent float64, s *mat.Dense) (*mat.Dense, error) {
	rows, cols := s.Dims()

	flat := make([]float64, 0, rows*cols)
	for i := range rows {
		flat = append(flat, s.RawRowView(i)...)
	}

	cut, err := stats.NewPercentiles().CalculatePercentile(flat, 100-topPercent)
	if err != nil {
		return nil, fmt.Errorf("failed to compute threshold: %w", err)
	}

	out := mat.NewDense(rows, cols, nil)
	for i := range rows {
		src := s.RawRowView(i)
		dst := out.RawRowView(i)
		for j, v := range src {
			if v > cut {
				dst[j] = 1
			}
		}
	}

	return out, nil
}
