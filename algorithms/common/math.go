package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical helpers shared by segmentation and analysis, built on gonum

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	return stat.Mean(data, nil)
}

// StandardDeviation calculates the sample standard deviation (ddof=1).
// Fewer than two samples yield NaN.
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	return stat.StdDev(data, nil)
}

// DropNaN returns the values of data that are not NaN
func DropNaN(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// CenteredMovingAverage averages data over [i-radius, i+radius] for every i.
// The window shrinks at the array edges instead of wrapping or padding.
func CenteredMovingAverage(data []float64, radius int) []float64 {
	n := len(data)
	result := make([]float64, n)
	if n == 0 {
		return result
	}
	if radius < 0 {
		radius = 0
	}

	// prefix[i] holds sum(data[:i])
	prefix := make([]float64, n+1)
	floats.CumSum(prefix[1:], data)

	for i := range n {
		start := max(0, i-radius)
		end := min(n, i+radius+1)
		result[i] = (prefix[end] - prefix[start]) / float64(end-start)
	}

	return result
}

// Diff returns data[i+1]-data[i] for consecutive elements
func Diff(data []int) []int {
	if len(data) < 2 {
		return []int{}
	}
	out := make([]int, len(data)-1)
	for i := range out {
		out[i] = data[i+1] - data[i]
	}
	return out
}

// ToFloat64 converts an int slice
func ToFloat64(data []int) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}
