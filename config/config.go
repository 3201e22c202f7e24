package config

import (
	"errors"
	"fmt"
	"runtime"
)

// BoutRange limits segmentation to columns [Begin, End] of the padded sonogram
type BoutRange struct {
	Begin int `mapstructure:"begin" json:"begin" yaml:"begin"`
	End   int `mapstructure:"end" json:"end" yaml:"end"`
}

// SegmentationConfig configures the preprocessing, boundary detection and
// syllable filtering stages
type SegmentationConfig struct {
	Padding int `mapstructure:"padding" json:"padding" yaml:"padding"` // zero columns added on each side

	// HighPassFilter is the frequency-bin row at and below which content is removed.
	// Values <= 0 disable the filter.
	HighPassFilter int `mapstructure:"high_pass_filter" json:"high_pass_filter" yaml:"high_pass_filter"`

	PercentSignalKeep float64 `mapstructure:"percent_signal_keep" json:"percent_signal_keep" yaml:"percent_signal_keep"` // top percent of pixels kept by the threshold
	MinSilence        int     `mapstructure:"min_silence" json:"min_silence" yaml:"min_silence"`                         // frames
	MinSyllable       int     `mapstructure:"min_syllable" json:"min_syllable" yaml:"min_syllable"`                      // frames

	// BoutRange is optional; nil keeps every syllable
	BoutRange *BoutRange `mapstructure:"bout_range" json:"bout_range,omitempty" yaml:"bout_range,omitempty"`

	// Empirical constants of the boundary detector
	AmplitudeThreshold float64 `mapstructure:"amplitude_threshold" json:"amplitude_threshold" yaml:"amplitude_threshold"`
	SmoothingRadius    int     `mapstructure:"smoothing_radius" json:"smoothing_radius" yaml:"smoothing_radius"`
}

// AnalysisConfig configures note detection and syllable similarity
type AnalysisConfig struct {
	// NoteThreshold is the bounding-box pixel area at or below which a component is noise
	NoteThreshold int     `mapstructure:"note_threshold" json:"note_threshold" yaml:"note_threshold"`
	SyllableSim   float64 `mapstructure:"syllable_similarity" json:"syllable_similarity" yaml:"syllable_similarity"` // percent
}

// SonogramConfig configures sonogram generation from WAV input
type SonogramConfig struct {
	WindowSize int `mapstructure:"window_size" json:"window_size" yaml:"window_size"`
	HopSize    int `mapstructure:"hop_size" json:"hop_size" yaml:"hop_size"`
}

// BatchConfig configures the file-level worker pool
type BatchConfig struct {
	Workers int `mapstructure:"workers" json:"workers" yaml:"workers"`
}

// OutputConfig configures where results are written
type OutputConfig struct {
	Directory string `mapstructure:"directory" json:"directory" yaml:"directory"`

	// Table is the statistics table path, default AnalysisOutput_<timestamp>.txt
	Table string `mapstructure:"table" json:"table" yaml:"table"`

	// SQLiteDSN enables the optional results store
	SQLiteDSN string `mapstructure:"sqlite_dsn" json:"sqlite_dsn" yaml:"sqlite_dsn"`
}

// Config is the root application configuration
type Config struct {
	LogLevel     string             `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	Segmentation SegmentationConfig `mapstructure:"segmentation" json:"segmentation" yaml:"segmentation"`
	Analysis     AnalysisConfig     `mapstructure:"analysis" json:"analysis" yaml:"analysis"`
	Sonogram     SonogramConfig     `mapstructure:"sonogram" json:"sonogram" yaml:"sonogram"`
	Batch        BatchConfig        `mapstructure:"batch" json:"batch" yaml:"batch"`
	Output       OutputConfig       `mapstructure:"output" json:"output" yaml:"output"`
}

// DefaultSegmentationConfig returns the parameters used when none are given
func DefaultSegmentationConfig() SegmentationConfig {
	return SegmentationConfig{
		Padding:            150,
		HighPassFilter:     0,
		PercentSignalKeep:  3,
		MinSilence:         10,
		MinSyllable:        20,
		AmplitudeThreshold: 4,
		SmoothingRadius:    500,
	}
}

// DefaultAnalysisConfig returns the parameters used when none are given
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		NoteThreshold: 60,
		SyllableSim:   50,
	}
}

// DefaultSonogramConfig matches a 1024-point window with 1010 samples of overlap
func DefaultSonogramConfig() SonogramConfig {
	return SonogramConfig{
		WindowSize: 1024,
		HopSize:    14,
	}
}

// DefaultConfig returns a complete configuration with defaults applied
func DefaultConfig() Config {
	return Config{
		LogLevel:     "info",
		Segmentation: DefaultSegmentationConfig(),
		Analysis:     DefaultAnalysisConfig(),
		Sonogram:     DefaultSonogramConfig(),
		Batch:        BatchConfig{Workers: runtime.NumCPU()},
	}
}

// Validate checks the segmentation parameters
func (c SegmentationConfig) Validate() error {
	var errs []error
	if c.Padding < 0 {
		errs = append(errs, errors.New("padding cannot be negative"))
	}
	if c.PercentSignalKeep <= 0 || c.PercentSignalKeep > 100 {
		errs = append(errs, fmt.Errorf("percent signal keep must be in (0, 100], got %v", c.PercentSignalKeep))
	}
	if c.MinSilence < 0 {
		errs = append(errs, errors.New("min silence cannot be negative"))
	}
	if c.MinSyllable < 0 {
		errs = append(errs, errors.New("min syllable cannot be negative"))
	}
	if c.SmoothingRadius < 0 {
		errs = append(errs, errors.New("smoothing radius cannot be negative"))
	}
	if c.BoutRange != nil && c.BoutRange.End < c.BoutRange.Begin {
		errs = append(errs, fmt.Errorf("bout range end %d precedes begin %d", c.BoutRange.End, c.BoutRange.Begin))
	}
	return errors.Join(errs...)
}

// Validate checks the analysis parameters
func (c AnalysisConfig) Validate() error {
	var errs []error
	if c.NoteThreshold < 0 {
		errs = append(errs, errors.New("note threshold cannot be negative"))
	}
	if c.SyllableSim < 0 || c.SyllableSim > 100 {
		errs = append(errs, fmt.Errorf("syllable similarity must be between 0 and 100, got %v", c.SyllableSim))
	}
	return errors.Join(errs...)
}

// Validate checks the sonogram parameters
func (c SonogramConfig) Validate() error {
	if c.WindowSize < 2 {
		return fmt.Errorf("window size must be at least 2, got %d", c.WindowSize)
	}
	if c.HopSize <= 0 {
		return fmt.Errorf("hop size must be positive, got %d", c.HopSize)
	}
	return nil
}

// Validate checks the whole configuration
func (c Config) Validate() error {
	var errs []error
	if err := c.Segmentation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("segmentation: %w", err))
	}
	if err := c.Analysis.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("analysis: %w", err))
	}
	if err := c.Sonogram.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sonogram: %w", err))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, errors.New("batch: workers cannot be negative"))
	}
	return errors.Join(errs...)
}
