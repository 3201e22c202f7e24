package segmentation

import (
	"github.com/RyanBlaney/chipper/algorithms/common"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultAmplitudeThreshold is the scaled column energy above which a frame is loud
const DefaultAmplitudeThreshold = 4.0

// Boundaries holds raw syllable candidates.
//
// Onsets[j] is the first loud frame of a region; the final onset is the
// synthetic sentinel len(Profile). Offsets[j] is the first silent frame after
// the preceding region; the first offset is the synthetic sentinel 1.
// SilenceDurations[j] = Onsets[j] - Offsets[j] for j < len(Onsets)-1.
type Boundaries struct {
	Onsets           []int
	Offsets          []int
	SilenceDurations []int
	Profile          []float64 // column energy scaled to [0, rows]
}

// DetectBoundaries finds onset/offset candidates in a binary sonogram
func DetectBoundaries(binary *mat.Dense, amplitudeThreshold float64) Boundaries {
	rows, _ := binary.Dims()

	profile := common.ColumnSums(binary)
	if len(profile) > 0 {
		if peak := floats.Max(profile); peak > 0 {
			floats.Scale(float64(rows)/peak, profile)
		}
	}

	high := make([]bool, len(profile))
	for i, v := range profile {
		high[i] = v > amplitudeThreshold
	}
	if n := len(high); n > 0 {
		high[0] = false
		high[n-1] = false
	}

	onsets := []int{}
	offsets := []int{1}
	for k := 1; k < len(high); k++ {
		switch {
		case high[k] && !high[k-1]:
			onsets = append(onsets, k)
		case !high[k] && high[k-1]:
			offsets = append(offsets, k)
		}
	}
	onsets = append(onsets, len(profile))

	silence := make([]int, len(onsets)-1)
	for j := range silence {
		silence[j] = onsets[j] - offsets[j]
	}

	return Boundaries{
		Onsets:           onsets,
		Offsets:          offsets,
		SilenceDurations: silence,
		Profile:          profile,
	}
}
