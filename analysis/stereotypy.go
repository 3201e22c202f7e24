package analysis

import (
	"math"

	"github.com/RyanBlaney/chipper/algorithms/common"
	"github.com/RyanBlaney/chipper/algorithms/stats"
	"gonum.org/v1/gonum/floats"
)

// Stereotypy holds per-cluster similarity scores, indexed by cluster id.
// Ids that are not used by at least two syllables are NaN.
type Stereotypy struct {
	Mean []float64
	Max  []float64
	Min  []float64
}

// CalcSyllableStereotypy scores how alike the members of each cluster are,
// using the lower triangle of their pairwise correlations. Zero correlations
// do not participate.
func CalcSyllableStereotypy(corr *CorrelationMatrix, pattern []int) Stereotypy {
	n := corr.Size()
	out := Stereotypy{
		Mean: make([]float64, n),
		Max:  make([]float64, n),
		Min:  make([]float64, n),
	}

	members := make(map[int][]int, n)
	for idx, id := range pattern {
		members[id] = append(members[id], idx)
	}

	for c := range n {
		out.Mean[c], out.Max[c], out.Min[c] = math.NaN(), math.NaN(), math.NaN()

		locs := members[c]
		if len(locs) < 2 {
			continue
		}

		var values []float64
		for k := range locs {
			for h := range k {
				if v := corr.At(locs[k], locs[h]); v != 0 && !math.IsNaN(v) {
					values = append(values, v)
				}
			}
		}
		if len(values) == 0 {
			continue
		}

		out.Mean[c] = common.Mean(values)
		out.Max[c] = floats.Max(values)
		out.Min[c] = floats.Min(values)
	}

	return out
}

// Scores returns the cluster means that are defined
func (s Stereotypy) Scores() []float64 {
	return common.DropNaN(s.Mean)
}

// Summary returns the mean and sample standard deviation of the defined scores
func (s Stereotypy) Summary() (mean, std stats.Value) {
	scores := s.Scores()
	return stats.Of(common.Mean(scores)), stats.Of(common.StandardDeviation(scores))
}
