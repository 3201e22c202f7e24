package analysis

import "fmt"

// FindSyllablePattern assigns every syllable the index of the lowest syllable
// it is correlated with, then resolves chains so that the id of every
// syllable is itself a resolved id.
func FindSyllablePattern(binary *CorrelationMatrix) []int {
	n := binary.Size()
	raw := make([]int, n)
	for j := range n {
		raw[j] = j
		for i := range j {
			if binary.At(i, j) == 1 {
				raw[j] = i
				break
			}
		}
	}
	return ResolvePattern(raw)
}

// ResolvePattern repairs backward references in a raw pattern with one forward
// pass. Labels pointing at an earlier syllable take that syllable's resolved
// label, which is final because it was computed earlier in the same pass.
func ResolvePattern(raw []int) []int {
	resolved := make([]int, len(raw))
	for j, label := range raw {
		if label < j && label >= 0 {
			resolved[j] = resolved[label]
		} else {
			resolved[j] = j
		}

		if r := resolved[j]; resolved[r] != r {
			panic(fmt.Sprintf("analysis: pattern label %d of syllable %d is not a root", r, j))
		}
	}
	return resolved
}

// UniqueCount returns the number of distinct ids in a pattern
func UniqueCount(pattern []int) int {
	seen := make(map[int]struct{}, len(pattern))
	for _, id := range pattern {
		seen[id] = struct{}{}
	}
	return len(seen)
}
