package analysis

import (
	"github.com/RyanBlaney/chipper/algorithms/morphology"
	"gonum.org/v1/gonum/mat"
)

// DefaultNoteThreshold is the bounding-box area, in pixels, at or below which
// a component is treated as noise
const DefaultNoteThreshold = 60

// Note is one connected component of the bout
type Note struct {
	UpperRow int // inclusive; row 0 is the highest frequency
	LowerRow int // exclusive
	StartCol int // inclusive
	EndCol   int // exclusive
	Area     int // labelled pixels

	// Filled is the component mask over the bounding box, holes filled
	Filled [][]bool
}

// Duration returns the note width in frames
func (n Note) Duration() int {
	return n.EndCol - n.StartCol
}

// DetectNotes labels the 4-connected components between the first onset and
// the last offset and keeps those whose bounding box is larger than threshold
// pixels.
func DetectNotes(sonogram *mat.Dense, onsets, offsets []int, threshold int) []Note {
	if len(onsets) == 0 || len(offsets) == 0 {
		return nil
	}

	rows, cols := sonogram.Dims()
	begin := min(max(onsets[0], 0), cols)
	end := min(max(offsets[len(offsets)-1], begin), cols)

	cropped := mat.NewDense(rows, cols, nil)
	if begin < end {
		cropped.Slice(0, rows, begin, end).(*mat.Dense).Copy(sonogram.Slice(0, rows, begin, end))
	}

	regions := morphology.RegionProps(morphology.Label(cropped))

	notes := make([]Note, 0, len(regions))
	for _, r := range regions {
		if r.BBoxArea() <= threshold {
			continue
		}
		notes = append(notes, Note{
			UpperRow: r.MinRow,
			LowerRow: r.MaxRow,
			StartCol: r.MinCol,
			EndCol:   r.MaxCol,
			Area:     r.Area,
			Filled:   r.Filled,
		})
	}
	return notes
}
