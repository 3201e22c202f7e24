package stats

import (
	"fmt"
	"math"
	"slices"
)

// Percentiles computes sample percentiles by linear interpolation between the
// closest ranks, index = q*(n-1)
type Percentiles struct{}

// NewPercentiles creates a percentile calculator
func NewPercentiles() *Percentiles {
	return &Percentiles{}
}

// CalculatePercentile computes a single percentile (0-100) of data.
// data is not modified.
func (p *Percentiles) CalculatePercentile(data []float64, percentile float64) (float64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty data")
	}

	if percentile < 0 || percentile > 100 {
		return 0, fmt.Errorf("percentile must be between 0 and 100, got %v", percentile)
	}

	values := slices.Clone(data)
	slices.Sort(values)

	return p.fromSorted(values, percentile), nil
}

// fromSorted computes a percentile of already sorted, non-empty data
func (p *Percentiles) fromSorted(sortedData []float64, percentile float64) float64 {
	n := len(sortedData)
	if n == 1 {
		return sortedData[0]
	}

	h := percentile / 100.0 * float64(n-1)
	lower := int(math.Floor(h))
	upper := int(math.Ceil(h))
	lower = min(max(lower, 0), n-1)
	upper = min(max(upper, 0), n-1)

	if lower == upper {
		return sortedData[lower]
	}
	fraction := h - float64(lower)
	return sortedData[lower] + fraction*(sortedData[upper]-sortedData[lower])
}
