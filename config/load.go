package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SetDefaults registers every default with v so that environment variables
// and config files can override any key
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("segmentation.padding", d.Segmentation.Padding)
	v.SetDefault("segmentation.high_pass_filter", d.Segmentation.HighPassFilter)
	v.SetDefault("segmentation.percent_signal_keep", d.Segmentation.PercentSignalKeep)
	v.SetDefault("segmentation.min_silence", d.Segmentation.MinSilence)
	v.SetDefault("segmentation.min_syllable", d.Segmentation.MinSyllable)
	v.SetDefault("segmentation.amplitude_threshold", d.Segmentation.AmplitudeThreshold)
	v.SetDefault("segmentation.smoothing_radius", d.Segmentation.SmoothingRadius)

	v.SetDefault("analysis.note_threshold", d.Analysis.NoteThreshold)
	v.SetDefault("analysis.syllable_similarity", d.Analysis.SyllableSim)

	v.SetDefault("sonogram.window_size", d.Sonogram.WindowSize)
	v.SetDefault("sonogram.hop_size", d.Sonogram.HopSize)

	v.SetDefault("batch.workers", d.Batch.Workers)

	v.SetDefault("output.directory", "")
	v.SetDefault("output.table", "")
	v.SetDefault("output.sqlite_dsn", "")
}

// Load decodes the configuration held by v on top of the defaults and
// validates it
func Load(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
