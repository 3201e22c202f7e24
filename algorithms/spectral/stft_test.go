package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestSTFTShapeAndConversion(t *testing.T) {
	stft, err := NewSTFT(64, 16, nil)
	require.NoError(t, err)

	son, err := stft.Compute(sine(1000, 8000, 640), 8000)
	require.NoError(t, err)

	assert.Equal(t, 32, son.Rows())
	assert.Equal(t, 37, son.Frames())
	assert.InDelta(t, 2.0, son.MsPerPixel, 1e-12)
	assert.InDelta(t, 125.0, son.HzPerPixel, 1e-12)
}

func TestSTFTHighFrequencyOnTop(t *testing.T) {
	stft, err := NewSTFT(64, 16, nil)
	require.NoError(t, err)

	// 1000 Hz falls on bin 8 at 8 kHz with a 64-point window
	son, err := stft.Compute(sine(1000, 8000, 640), 8000)
	require.NoError(t, err)

	col := mat.Col(nil, 10, son.Data)
	peak := 0
	for i, v := range col {
		if v > col[peak] {
			peak = i
		}
	}
	assert.Equal(t, 32-1-8, peak)
}

func TestSTFTErrors(t *testing.T) {
	_, err := NewSTFT(1, 16, nil)
	assert.Error(t, err)

	_, err = NewSTFT(64, 0, nil)
	assert.Error(t, err)

	stft, err := NewSTFT(64, 16, nil)
	require.NoError(t, err)

	_, err = stft.Compute(nil, 8000)
	assert.Error(t, err)

	_, err = stft.Compute(make([]float64, 10), 8000)
	assert.Error(t, err)

	_, err = stft.Compute(make([]float64, 128), 0)
	assert.Error(t, err)
}
