package spectral

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/RyanBlaney/chipper/logging"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/mat"
)

// Sonogram is a magnitude spectrogram laid out for segmentation:
// rows are frequency bins with row 0 the highest frequency, columns are frames.
type Sonogram struct {
	Data *mat.Dense

	MsPerPixel float64 // milliseconds per column
	HzPerPixel float64 // hertz per row

	SampleRate int
	WindowSize int
	HopSize    int
}

// Rows returns the number of frequency bins
func (s *Sonogram) Rows() int {
	r, _ := s.Data.Dims()
	return r
}

// Frames returns the number of time frames
func (s *Sonogram) Frames() int {
	_, c := s.Data.Dims()
	return c
}

// STFT computes Hann-windowed magnitude sonograms
type STFT struct {
	fft        *FFT
	windowSize int
	hopSize    int
	window     []float64
	logger     logging.Logger
}

// NewSTFT creates a short-time transform with the given frame geometry
func NewSTFT(windowSize, hopSize int, logger logging.Logger) (*STFT, error) {
	if windowSize < 2 {
		return nil, fmt.Errorf("window size must be at least 2, got %d", windowSize)
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive, got %d", hopSize)
	}

	return &STFT{
		fft:        NewFFT(),
		windowSize: windowSize,
		hopSize:    hopSize,
		window:     window.Hann(windowSize),
		logger:     logging.OrGlobal(logger),
	}, nil
}

// Compute builds the sonogram of a mono signal. The matrix has windowSize/2 rows,
// flipped so that row 0 holds the highest frequency bin.
func (s *STFT) Compute(signal []float64, sampleRate int) (*Sonogram, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	numFrames := (len(signal)-s.windowSize)/s.hopSize + 1
	if len(signal) < s.windowSize || numFrames <= 0 {
		return nil, fmt.Errorf("signal of %d samples too short for window size %d", len(signal), s.windowSize)
	}

	rows := s.windowSize / 2
	data := mat.NewDense(rows, numFrames, nil)

	numWorkers := optimalWorkerCount(numFrames)
	jobs := make(chan int, numWorkers*2)

	// Each worker owns whole columns, so writes never overlap
	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			frame := make([]float64, s.windowSize)
			mags := make([]float64, rows)

			for frameIdx := range jobs {
				start := frameIdx * s.hopSize
				copy(frame, signal[start:start+s.windowSize])
				for i, w := range s.window {
					frame[i] *= w
				}

				s.fft.Magnitude(frame, mags)
				for k, m := range mags {
					data.Set(rows-1-k, frameIdx, m)
				}
			}
		}()
	}

	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)
	wg.Wait()

	son := &Sonogram{
		Data:       data,
		MsPerPixel: 1000 * float64(s.hopSize) / float64(sampleRate),
		HzPerPixel: float64(sampleRate) / 2 / float64(rows),
		SampleRate: sampleRate,
		WindowSize: s.windowSize,
		HopSize:    s.hopSize,
	}

	s.logger.Debug("Computed sonogram", logging.Fields{
		"component": "stft",
		"rows":      rows,
		"frames":    numFrames,
		"workers":   numWorkers,
	})

	return son, nil
}

// optimalWorkerCount scales the pool with the workload
func optimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}
	if numFrames < 1000 {
		return min(numCPU, 8)
	}
	return numCPU
}
