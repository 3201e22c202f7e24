package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the real-input transform of mjibson/go-dsp
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of x
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// go-dsp handles non-power-of-2 sizes
	return fft.FFTReal(x)
}

// Magnitude writes |X[k]| for k in [0, len(dst)) into dst
func (f *FFT) Magnitude(x []float64, dst []float64) {
	spectrum := f.Compute(x)
	for k := range dst {
		if k >= len(spectrum) {
			dst[k] = 0
			continue
		}
		dst[k] = cmplx.Abs(spectrum[k])
	}
}
