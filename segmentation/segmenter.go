package segmentation

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/chipper/config"
	"github.com/RyanBlaney/chipper/logging"
	"gonum.org/v1/gonum/mat"
)

// Result is the segmentation of one recording. Column indices refer to the
// padded sonogram.
type Result struct {
	Onsets     []int
	Offsets    []int
	Binary     *mat.Dense // thresholded, padded sonogram
	Boundaries Boundaries // raw candidates before filtering
}

// NumSyllables returns the number of detected syllables
func (r *Result) NumSyllables() int {
	return len(r.Onsets)
}

// Segmenter runs the full preprocessing and syllable detection pipeline
type Segmenter struct {
	cfg    config.SegmentationConfig
	logger logging.Logger
}

// NewSegmenter creates a segmenter. Zero-valued empirical constants fall back
// to their defaults.
func NewSegmenter(cfg config.SegmentationConfig, logger logging.Logger) *Segmenter {
	if cfg.AmplitudeThreshold == 0 {
		cfg.AmplitudeThreshold = DefaultAmplitudeThreshold
	}
	if cfg.SmoothingRadius == 0 {
		cfg.SmoothingRadius = DefaultSmoothingRadius
	}
	return &Segmenter{
		cfg:    cfg,
		logger: logging.OrGlobal(logger).WithFields(logging.Fields{"component": "segmenter"}),
	}
}

// Config returns the effective configuration
func (s *Segmenter) Config() config.SegmentationConfig {
	return s.cfg
}

// Segment finds the syllables of a raw (unpadded) sonogram
func (s *Segmenter) Segment(ctx context.Context, sonogram *mat.Dense) (*Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid segmentation config: %w", err)
	}

	logger := s.logger.WithContext(ctx)

	padded := Pad(sonogram, s.cfg.Padding)
	HighPassFilter(padded, s.cfg.HighPassFilter)

	scaled, err := NormalizeAmplitude(padded, s.cfg.SmoothingRadius)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	binary, err := ThresholdImage(s.cfg.PercentSignalKeep, scaled)
	if err != nil {
		return nil, err
	}

	bounds := DetectBoundaries(binary, s.cfg.AmplitudeThreshold)
	logger.Debug("Detected raw boundaries", logging.Fields{
		"candidates": len(bounds.Onsets) - 1,
	})

	onsets, offsets := ApplyMinSilence(s.cfg.MinSilence, bounds.Onsets, bounds.Offsets, bounds.SilenceDurations)
	onsets, offsets = ApplyMinSyllable(s.cfg.MinSyllable, onsets, offsets)

	if r := s.cfg.BoutRange; r != nil {
		onsets, offsets = Crop(r.Begin, r.End, onsets, offsets)
	}

	logger.Debug("Segmented syllables", logging.Fields{
		"syllables": len(onsets),
	})

	return &Result{
		Onsets:     onsets,
		Offsets:    offsets,
		Binary:     binary,
		Boundaries: bounds,
	}, nil
}
