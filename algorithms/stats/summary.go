package stats

import (
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/chipper/algorithms/common"
)

// BasicStats is the largest/smallest/avg/std convention applied to syllable,
// silence and note durations and to frequency modulation
type BasicStats struct {
	Largest  Value `json:"largest"`
	Smallest Value `json:"smallest"`
	Avg      Value `json:"avg"`
	Std      Value `json:"std"` // sample standard deviation, ddof=1
}

// ComputeBasicStats summarizes a sample. An empty sample reports NA in every
// field; a single sample has an NA standard deviation.
func ComputeBasicStats(sample []float64) BasicStats {
	if len(sample) == 0 {
		return BasicStats{Largest: NA(), Smallest: NA(), Avg: NA(), Std: NA()}
	}

	return BasicStats{
		Largest:  Of(floats.Max(sample)),
		Smallest: Of(floats.Min(sample)),
		Avg:      Of(common.Mean(sample)),
		Std:      Of(common.StandardDeviation(sample)),
	}
}
