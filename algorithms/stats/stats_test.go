package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBasicStatsEmpty(t *testing.T) {
	got := ComputeBasicStats(nil)
	for _, v := range []Value{got.Largest, got.Smallest, got.Avg, got.Std} {
		assert.False(t, v.Valid())
		assert.Equal(t, NAString, v.String())
	}
}

func TestComputeBasicStats(t *testing.T) {
	got := ComputeBasicStats([]float64{1, 2, 3, 4})
	assert.Equal(t, 4.0, got.Largest.Float())
	assert.Equal(t, 1.0, got.Smallest.Float())
	assert.Equal(t, 2.5, got.Avg.Float())
	assert.InDelta(t, 1.2910, got.Std.Float(), 1e-4)
}

func TestComputeBasicStatsSingleSample(t *testing.T) {
	got := ComputeBasicStats([]float64{7})
	assert.Equal(t, 7.0, got.Avg.Float())
	assert.False(t, got.Std.Valid())
}

func TestValue(t *testing.T) {
	assert.False(t, Of(math.NaN()).Valid())
	assert.False(t, Of(math.Inf(1)).Valid())
	assert.True(t, math.IsNaN(NA().Float()))
	assert.Equal(t, "2.5", Of(2.5).String())

	data, err := json.Marshal([]Value{Of(1.5), NA()})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null]`, string(data))

	var back []Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []Value{Of(1.5), NA()}, back)
}

func TestCalculatePercentileLinear(t *testing.T) {
	data := []float64{4, 1, 3, 2}

	tests := []struct {
		name string
		pct  float64
		want float64
	}{
		{"median", 50, 2.5},
		{"min", 0, 1},
		{"max", 100, 4},
		{"p95", 95, 3.85},
		{"p70", 70, 3.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPercentiles().CalculatePercentile(data, tt.pct)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	// input must not be reordered
	assert.Equal(t, []float64{4, 1, 3, 2}, data)
}

func TestCalculatePercentileErrors(t *testing.T) {
	p := NewPercentiles()
	_, err := p.CalculatePercentile(nil, 50)
	assert.Error(t, err)
	_, err = p.CalculatePercentile([]float64{1}, 101)
	assert.Error(t, err)
}
