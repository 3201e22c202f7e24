package analysis

import (
	"math"

	"github.com/RyanBlaney/chipper/algorithms/common"
	"github.com/RyanBlaney/chipper/algorithms/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FrequencyBounds converts row bounds to Hz. upper rows are inclusive and
// lower rows exclusive; row 0 is the highest frequency, so each row index is
// subtracted from the row count before scaling.
func FrequencyBounds(upper, lower []int, rows int, hzPerPixel float64) FrequencyStats {
	if len(upper) == 0 || len(lower) == 0 {
		return FrequencyStats{
			AvgUpper:     stats.NA(),
			AvgLower:     stats.NA(),
			Max:          stats.NA(),
			Min:          stats.NA(),
			OverallRange: stats.NA(),
			Modulation:   stats.ComputeBasicStats(nil),
		}
	}

	up := common.ToFloat64(upper)
	low := common.ToFloat64(lower)
	r := float64(rows)

	maxRow := floats.Min(up)      // highest frequency
	minRow := floats.Max(low) - 1 // lowest frequency, made inclusive

	n := min(len(up), len(low))
	modulation := make([]float64, n)
	for i := range n {
		modulation[i] = math.Abs(up[i]-low[i]) * hzPerPixel
	}

	return FrequencyStats{
		AvgUpper:     stats.Of((r - common.Mean(up)) * hzPerPixel),
		AvgLower:     stats.Of((r - (common.Mean(low) - 1)) * hzPerPixel),
		Max:          stats.Of((r - maxRow) * hzPerPixel),
		Min:          stats.Of((r - minRow) * hzPerPixel),
		OverallRange: stats.Of((math.Abs(maxRow-minRow) + 1) * hzPerPixel),
		Modulation:   stats.ComputeBasicStats(modulation),
	}
}

// SyllableFrequencyRanges returns the first row with signal (inclusive) and the
// row after the last one (exclusive) for each syllable. Syllables without
// signal are skipped.
func SyllableFrequencyRanges(sonogram *mat.Dense, onsets, offsets []int) (upper, lower []int) {
	_, cols := sonogram.Dims()
	for j := range min(len(onsets), len(offsets)) {
		on, off := onsets[j], offsets[j]
		if on < 0 || off > cols || on >= off {
			continue
		}
		first, last, ok := common.RowSpan(sonogram, on, off)
		if !ok {
			continue
		}
		upper = append(upper, first)
		lower = append(lower, last+1)
	}
	return upper, lower
}

// ComputeBoutStats derives durations and counts from the syllable boundaries
func ComputeBoutStats(onsets, offsets []int, msPerPixel float64) BoutStats {
	n := min(len(onsets), len(offsets))

	durations := make([]float64, n)
	for j := range n {
		durations[j] = float64(offsets[j]-onsets[j]) * msPerPixel
	}

	var silences []float64
	for j := 1; j < n; j++ {
		silences = append(silences, float64(onsets[j]-offsets[j-1])*msPerPixel)
	}

	out := BoutStats{
		Duration:             stats.NA(),
		NumSyllables:         n,
		SyllablesPerDuration: stats.NA(),
		SyllableDuration:     stats.ComputeBasicStats(durations),
		SilenceDuration:      stats.ComputeBasicStats(silences),
	}
	if n > 0 {
		duration := float64(offsets[n-1]-onsets[0]) * msPerPixel
		out.Duration = stats.Of(duration)
		out.SyllablesPerDuration = stats.Of(float64(n) / duration)
	}
	return out
}

// SequentialRepetition is the fraction of consecutive syllables sharing a
// cluster id. It is NA for fewer than two syllables.
func SequentialRepetition(pattern []int) stats.Value {
	if len(pattern) <= 1 {
		return stats.NA()
	}
	repeats := 0
	for _, d := range common.Diff(pattern) {
		if d == 0 {
			repeats++
		}
	}
	return stats.Of(float64(repeats) / float64(len(pattern)-1))
}

// ratio returns num/den, NA when den is zero
func ratio(num, den int) stats.Value {
	if den == 0 {
		return stats.NA()
	}
	return stats.Of(float64(num) / float64(den))
}
