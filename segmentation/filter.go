package segmentation

// ApplyMinSilence merges loud regions separated by gaps of at most minSilence
// frames. The result has one slot per raw onset with zero placeholders for
// merged pairs; the first offset is cleared and the last slot carries the final
// true offset, so the bout keeps its extent.
func ApplyMinSilence(minSilence int, onsets, offsets, silenceDurations []int) (sylOnsets, sylOffsets []int) {
	n := len(onsets)
	sylOnsets = make([]int, n)
	sylOffsets = make([]int, n)
	if n == 0 {
		return sylOnsets, sylOffsets
	}

	for j, gap := range silenceDurations {
		if j >= n || j >= len(offsets) {
			break
		}
		if gap > minSilence {
			sylOnsets[j] = onsets[j]
			sylOffsets[j] = offsets[j]
		}
	}

	sylOffsets[0] = 0
	if len(offsets) > 0 {
		sylOffsets[min(len(silenceDurations), n-1)] = offsets[len(offsets)-1]
	}

	return sylOnsets, sylOffsets
}

// ApplyMinSyllable drops placeholders, drops a leading offset that precedes the
// first onset, and discards pairs shorter than minSyllable frames. The output
// always has equal lengths. Applying it twice gives the same result.
func ApplyMinSyllable(minSyllable int, onsets, offsets []int) (sylOnsets, sylOffsets []int) {
	on := nonZero(onsets)
	off := nonZero(offsets)
	if len(on) == 0 {
		return []int{}, []int{}
	}

	if len(off) > 0 && off[0] < on[0] {
		off = off[1:]
	}

	n := min(len(on), len(off))
	on, off = on[:n], off[:n]

	for j := range n {
		if off[j]-on[j] < minSyllable {
			on[j] = 0
			off[j] = 0
		}
	}

	return nonZero(on), nonZero(off)
}

// Crop keeps the syllables lying entirely inside [begin, end]
func Crop(begin, end int, onsets, offsets []int) (sylOnsets, sylOffsets []int) {
	sylOnsets = []int{}
	sylOffsets = []int{}
	for j := range min(len(onsets), len(offsets)) {
		if onsets[j] >= begin && offsets[j] <= end {
			sylOnsets = append(sylOnsets, onsets[j])
			sylOffsets = append(sylOffsets, offsets[j])
		}
	}
	return sylOnsets, sylOffsets
}

// nonZero returns a new slice without zero entries
func nonZero(values []int) []int {
	out := make([]int, 0, len(values))
	for _, v := range values {
		if v != 0 {
			out = append(out, v)
		}
	}
	return out
}
