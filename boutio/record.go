package boutio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/chipper/analysis"
	"github.com/RyanBlaney/chipper/config"
	"gonum.org/v1/gonum/mat"
)

// Keys of the persisted record
const (
	KeyFileName          = "FileName"
	KeyBoutRange         = "BoutRange"
	KeyPercentSignalKeep = "PercentSignalKeep"
	KeyHighPassFilter    = "HighPassFilter"
	KeyMinSilence        = "MinSilenceDuration"
	KeyMinSyllable       = "MinSyllableDuration"
	KeyPadding           = "Padding"

	KeyOnsets   = "Onsets"
	KeyOffsets  = "Offsets"
	KeySonogram = "Sonogram"
	KeyTimeAxis = "timeAxisConversion"
	KeyFreqAxis = "freqAxisConversion"
)

const (
	outputPrefix = "SegSyllsOutput_"
	outputSuffix = ".gzip"
)

// BoutRecord is the segmentation output of one recording, as persisted between
// the segment and analyze steps
type BoutRecord struct {
	Params     map[string]any
	Onsets     []int
	Offsets    []int
	Sonogram   *mat.Dense // binary, padded
	MsPerPixel float64
	HzPerPixel float64
}

// NewParams records the segmentation settings used for a file
func NewParams(fileName string, cfg config.SegmentationConfig) map[string]any {
	params := map[string]any{
		KeyFileName:          fileName,
		KeyPercentSignalKeep: cfg.PercentSignalKeep,
		KeyHighPassFilter:    cfg.HighPassFilter,
		KeyMinSilence:        cfg.MinSilence,
		KeyMinSyllable:       cfg.MinSyllable,
		KeyPadding:           cfg.Padding,
	}
	if cfg.BoutRange != nil {
		params[KeyBoutRange] = []int{cfg.BoutRange.Begin, cfg.BoutRange.End}
	}
	return params
}

// FileName returns the source name stored in the params, if any
func (r *BoutRecord) FileName() string {
	if name, ok := r.Params[KeyFileName].(string); ok {
		return name
	}
	return ""
}

// Validate checks the structural invariants of the record
func (r *BoutRecord) Validate() error {
	if r.Sonogram == nil {
		return fmt.Errorf("record has no sonogram")
	}
	if len(r.Onsets) != len(r.Offsets) {
		return fmt.Errorf("record has %d onsets but %d offsets", len(r.Onsets), len(r.Offsets))
	}
	_, cols := r.Sonogram.Dims()
	for i := range r.Onsets {
		if r.Onsets[i] >= r.Offsets[i] {
			return fmt.Errorf("syllable %d onset %d is not before offset %d", i, r.Onsets[i], r.Offsets[i])
		}
		if r.Onsets[i] < 0 || r.Offsets[i] > cols {
			return fmt.Errorf("syllable %d [%d, %d) outside sonogram of %d columns", i, r.Onsets[i], r.Offsets[i], cols)
		}
	}
	return nil
}

// Bout converts the record into analysis input
func (r *BoutRecord) Bout(fileName string) analysis.Bout {
	return analysis.Bout{
		FileName:   fileName,
		Onsets:     r.Onsets,
		Offsets:    r.Offsets,
		Sonogram:   r.Sonogram,
		MsPerPixel: r.MsPerPixel,
		HzPerPixel: r.HzPerPixel,
	}
}

// OutputName returns the file name the segmenter writes for a source recording
func OutputName(source string) string {
	base := filepath.Base(source)
	prefix := strings.TrimSuffix(base, filepath.Ext(base))
	return outputPrefix + prefix + outputSuffix
}
