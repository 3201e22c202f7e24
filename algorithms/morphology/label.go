package morphology

import (
	"gonum.org/v1/gonum/mat"
)

// neighbours sharing an edge with a pixel
var fourOffsets = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// LabelImage holds one component label per pixel, 0 for background
type LabelImage struct {
	Rows   int
	Cols   int
	Labels []int // row-major
	Count  int
}

// At returns the label at (r, c)
func (l *LabelImage) At(r, c int) int {
	return l.Labels[r*l.Cols+c]
}

// Label assigns consecutive labels 1..n to the 4-connected non-zero regions of m.
// Labels are numbered in raster order of each region's first pixel.
func Label(m *mat.Dense) *LabelImage {
	rows, cols := m.Dims()
	img := &LabelImage{
		Rows:   rows,
		Cols:   cols,
		Labels: make([]int, rows*cols),
	}

	queue := make([]int, 0, 64)

	for r := range rows {
		row := m.RawRowView(r)
		for c := range cols {
			if row[c] == 0 || img.Labels[r*cols+c] != 0 {
				continue
			}

			img.Count++
			label := img.Count
			img.Labels[r*cols+c] = label
			queue = append(queue[:0], r*cols+c)

			for len(queue) > 0 {
				idx := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				pr, pc := idx/cols, idx%cols

				for _, off := range fourOffsets {
					nr, nc := pr+off[0], pc+off[1]
					if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
						continue
					}
					nidx := nr*cols + nc
					if img.Labels[nidx] != 0 || m.At(nr, nc) == 0 {
						continue
					}
					img.Labels[nidx] = label
					queue = append(queue, nidx)
				}
			}
		}
	}

	return img
}
