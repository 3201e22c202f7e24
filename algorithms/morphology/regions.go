package morphology

// Region describes one labelled component
type Region struct {
	Label int
	Area  int // number of pixels carrying the label

	// Bounding box: min inclusive, max exclusive
	MinRow int
	MinCol int
	MaxRow int
	MaxCol int

	// Filled is the region mask over its bounding box with interior holes filled,
	// indexed [row-MinRow][col-MinCol]
	Filled [][]bool
}

// Height is the number of rows spanned by the bounding box
func (r Region) Height() int { return r.MaxRow - r.MinRow }

// Width is the number of columns spanned by the bounding box
func (r Region) Width() int { return r.MaxCol - r.MinCol }

// BBoxArea is the size of the bounding box (and of the Filled image)
func (r Region) BBoxArea() int { return r.Height() * r.Width() }

// RegionProps measures every labelled region, ordered by label
func RegionProps(img *LabelImage) []Region {
	regions := make([]Region, img.Count)
	for i := range regions {
		regions[i] = Region{
			Label:  i + 1,
			MinRow: img.Rows,
			MinCol: img.Cols,
			MaxRow: -1,
			MaxCol: -1,
		}
	}

	for r := range img.Rows {
		for c := range img.Cols {
			label := img.Labels[r*img.Cols+c]
			if label == 0 {
				continue
			}
			reg := &regions[label-1]
			reg.Area++
			reg.MinRow = min(reg.MinRow, r)
			reg.MinCol = min(reg.MinCol, c)
			reg.MaxRow = max(reg.MaxRow, r+1)
			reg.MaxCol = max(reg.MaxCol, c+1)
		}
	}

	for i := range regions {
		regions[i].Filled = fillHoles(img, &regions[i])
	}

	return regions
}

// fillHoles floods the background of the bounding box from its border with
// 4-connectivity; background pixels the flood cannot reach are holes.
func fillHoles(img *LabelImage, reg *Region) [][]bool {
	h, w := reg.Height(), reg.Width()
	member := func(r, c int) bool {
		return img.Labels[(r+reg.MinRow)*img.Cols+(c+reg.MinCol)] == reg.Label
	}

	outside := make([][]bool, h)
	for r := range outside {
		outside[r] = make([]bool, w)
	}

	var stack [][2]int
	push := func(r, c int) {
		if r < 0 || r >= h || c < 0 || c >= w || outside[r][c] || member(r, c) {
			return
		}
		outside[r][c] = true
		stack = append(stack, [2]int{r, c})
	}

	for c := range w {
		push(0, c)
		push(h-1, c)
	}
	for r := range h {
		push(r, 0)
		push(r, w-1)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, off := range fourOffsets {
			push(p[0]+off[0], p[1]+off[1])
		}
	}

	filled := make([][]bool, h)
	for r := range filled {
		filled[r] = make([]bool, w)
		for c := range w {
			filled[r][c] = !outside[r][c]
		}
	}
	return filled
}
