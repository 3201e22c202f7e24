package analysis

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/chipper/algorithms/stats"
	"github.com/RyanBlaney/chipper/config"
	"github.com/RyanBlaney/chipper/logging"
	"gonum.org/v1/gonum/mat"
)

// Bout is the segmented recording the analysis consumes
type Bout struct {
	FileName   string
	Onsets     []int
	Offsets    []int
	Sonogram   *mat.Dense // binary, padded
	MsPerPixel float64
	HzPerPixel float64
}

// Analyzer computes the statistics record of segmented bouts
type Analyzer struct {
	cfg    config.AnalysisConfig
	logger logging.Logger
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(cfg config.AnalysisConfig, logger logging.Logger) *Analyzer {
	return &Analyzer{
		cfg:    cfg,
		logger: logging.OrGlobal(logger).WithFields(logging.Fields{"component": "analyzer"}),
	}
}

// Analyze runs bout, syllable and note statistics for one recording
func (a *Analyzer) Analyze(ctx context.Context, bout Bout) (*Record, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	if bout.Sonogram == nil {
		return nil, fmt.Errorf("bout %q has no sonogram", bout.FileName)
	}
	if len(bout.Onsets) != len(bout.Offsets) {
		return nil, fmt.Errorf("bout %q has %d onsets but %d offsets", bout.FileName, len(bout.Onsets), len(bout.Offsets))
	}

	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{"file": bout.FileName})

	record := &Record{
		FileName: bout.FileName,
		Bout:     ComputeBoutStats(bout.Onsets, bout.Offsets, bout.MsPerPixel),
	}

	syllables, err := a.syllableStats(ctx, bout)
	if err != nil {
		return nil, err
	}
	record.Syllable = syllables
	record.Note = a.noteStats(bout)

	logger.Debug("Analyzed bout", logging.Fields{
		"syllables":        record.Bout.NumSyllables,
		"unique_syllables": record.Syllable.NumUnique,
		"notes":            record.Note.NumNotes,
	})

	return record, nil
}

func (a *Analyzer) syllableStats(ctx context.Context, bout Bout) (SyllableStats, error) {
	corr, err := CorrelateSyllables(bout.Sonogram, bout.Onsets, bout.Offsets)
	if err != nil {
		return SyllableStats{}, fmt.Errorf("failed to correlate syllables: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return SyllableStats{}, err
	}

	pattern := FindSyllablePattern(corr.Binarize(a.cfg.SyllableSim))
	n := len(pattern)
	unique := UniqueCount(pattern)

	out := SyllableStats{
		CorrelationThreshold: a.cfg.SyllableSim,
		NumUnique:            unique,
		SyllablesPerUnique:   ratio(n, unique),
		Pattern:              pattern,
		SequentialRepetition: SequentialRepetition(pattern),
	}

	if n > 1 {
		st := CalcSyllableStereotypy(corr, pattern)
		out.Stereotypy = st.Scores()
		out.MeanStereotypy, out.StdStereotypy = st.Summary()
	} else {
		out.MeanStereotypy, out.StdStereotypy = stats.NA(), stats.NA()
	}

	rows, _ := bout.Sonogram.Dims()
	upper, lower := SyllableFrequencyRanges(bout.Sonogram, bout.Onsets, bout.Offsets)
	out.Frequency = FrequencyBounds(upper, lower, rows, bout.HzPerPixel)

	return out, nil
}

func (a *Analyzer) noteStats(bout Bout) NoteStats {
	notes := DetectNotes(bout.Sonogram, bout.Onsets, bout.Offsets, a.cfg.NoteThreshold)

	durations := make([]float64, len(notes))
	upper := make([]int, len(notes))
	lower := make([]int, len(notes))
	for i, n := range notes {
		durations[i] = float64(n.Duration()) * bout.MsPerPixel
		upper[i] = n.UpperRow
		lower[i] = n.LowerRow
	}

	rows, _ := bout.Sonogram.Dims()
	return NoteStats{
		SizeThreshold:    a.cfg.NoteThreshold,
		NumNotes:         len(notes),
		NotesPerSyllable: ratio(len(notes), len(bout.Onsets)),
		NoteDuration:     stats.ComputeBasicStats(durations),
		Frequency:        FrequencyBounds(upper, lower, rows, bout.HzPerPixel),
	}
}
