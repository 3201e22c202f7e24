package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/chipper/algorithms/spectral"
	"github.com/RyanBlaney/chipper/batch"
	"github.com/RyanBlaney/chipper/boutio"
	"github.com/RyanBlaney/chipper/config"
	"github.com/RyanBlaney/chipper/logging"
	"github.com/RyanBlaney/chipper/segmentation"
	"github.com/RyanBlaney/chipper/transcode"
)

var segmentBoutRange []int

var segmentCmd = &cobra.Command{
	Use:   "segment [flags] <wav files or directories...>",
	Short: "Segment WAV recordings into syllables",
	Long: `Compute the sonogram of each WAV recording, detect syllable onsets and
offsets, and write one SegSyllsOutput_<name>.gzip record per recording.

Examples:
  # segment a directory with the default parameters
  chipper segment ./songs

  # keep the top 5% of the signal, drop content below row 40, and limit
  # segmentation to a bout between columns 300 and 2200
  chipper segment --percent-keep 5 --high-pass 40 --bout-range 300,2200 song.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSegment,
}

func init() {
	rootCmd.AddCommand(segmentCmd)

	d := config.DefaultConfig()
	segmentCmd.Flags().Int("padding", d.Segmentation.Padding,
		"silent columns added on each side of the sonogram")
	segmentCmd.Flags().Int("high-pass", d.Segmentation.HighPassFilter,
		"frequency row at and below which content is removed (0 disables)")
	segmentCmd.Flags().Float64("percent-keep", d.Segmentation.PercentSignalKeep,
		"top percent of sonogram pixels kept as signal")
	segmentCmd.Flags().Int("min-silence", d.Segmentation.MinSilence,
		"minimum silence between syllables, in columns")
	segmentCmd.Flags().Int("min-syllable", d.Segmentation.MinSyllable,
		"minimum syllable duration, in columns")
	segmentCmd.Flags().IntSliceVar(&segmentBoutRange, "bout-range", nil,
		"begin,end columns of the bout in the padded sonogram")
	segmentCmd.Flags().Int("window-size", d.Sonogram.WindowSize,
		"STFT window size in samples")
	segmentCmd.Flags().Int("hop-size", d.Sonogram.HopSize,
		"STFT hop size in samples")
	segmentCmd.Flags().StringP("output-dir", "o", "",
		"directory for the segmented records (default is next to each recording)")
}

type segmentPipeline struct {
	decoder   *transcode.Decoder
	stft      *spectral.STFT
	segmenter *segmentation.Segmenter
	cfg       config.Config
	logger    logging.Logger
}

func runSegment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	switch len(segmentBoutRange) {
	case 0:
	case 2:
		cfg.Segmentation.BoutRange = &config.BoutRange{Begin: segmentBoutRange[0], End: segmentBoutRange[1]}
		if err := cfg.Segmentation.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("bout range needs exactly two values, got %d", len(segmentBoutRange))
	}

	files, err := batch.DiscoverAudio(args)
	if err != nil {
		return err
	}

	logger := logging.GetGlobalLogger().WithFields(logging.Fields{"command": "segment"})

	stft, err := spectral.NewSTFT(cfg.Sonogram.WindowSize, cfg.Sonogram.HopSize, logger)
	if err != nil {
		return err
	}
	pipeline := &segmentPipeline{
		decoder:   transcode.NewDecoder(logger),
		stft:      stft,
		segmenter: segmentation.NewSegmenter(cfg.Segmentation, logger),
		cfg:       cfg,
		logger:    logger,
	}

	if cfg.Output.Directory != "" {
		if err := os.MkdirAll(cfg.Output.Directory, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	runner := batch.NewRunner(cfg.Batch.Workers, logger)
	bar := newProgressBar(cmd.ErrOrStderr(), "Segmenting: ", len(files))
	runner.OnProgress(bar.update)

	results, runErr := batch.Run(cmd.Context(), runner, files, pipeline.segmentFile)
	bar.wait()

	failed := batch.Failed(results)
	for _, res := range failed {
		logger.Error(xerrors.New(res.Err), "Failed to segment recording", logging.Fields{"file": res.File})
	}
	for _, res := range results {
		if res.Err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", res.File, res.Value)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Segmented %d of %d recordings\n", len(results)-len(failed), len(results))

	return runErr
}

// segmentFile turns one WAV recording into a bout record and returns its path
func (p *segmentPipeline) segmentFile(ctx context.Context, file string) (string, error) {
	audio, err := p.decoder.DecodeFile(ctx, file)
	if err != nil {
		return "", err
	}

	son, err := p.stft.Compute(audio.PCM, audio.SampleRate)
	if err != nil {
		return "", fmt.Errorf("failed to compute sonogram: %w", err)
	}

	res, err := p.segmenter.Segment(ctx, son.Data)
	if err != nil {
		return "", err
	}

	rec := &boutio.BoutRecord{
		Params:     boutio.NewParams(filepath.Base(file), p.segmenter.Config()),
		Onsets:     res.Onsets,
		Offsets:    res.Offsets,
		Sonogram:   res.Binary,
		MsPerPixel: son.MsPerPixel,
		HzPerPixel: son.HzPerPixel,
	}

	dir := p.cfg.Output.Directory
	if dir == "" {
		dir = filepath.Dir(file)
	}
	out := filepath.Join(dir, boutio.OutputName(file))
	if err := boutio.Save(out, rec); err != nil {
		return "", err
	}

	p.logger.Debug("Segmented recording", logging.Fields{
		"file":      file,
		"syllables": res.NumSyllables(),
		"output":    out,
	})
	return out, nil
}
