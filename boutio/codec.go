package boutio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// DataFormatError reports a record file that neither the pickle decoder nor
// the legacy JSON-lines decoder could read
type DataFormatError struct {
	File    string
	Primary error // gzip + pickle
	Legacy  error // gzip + JSON lines
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("unreadable bout record %s: pickle: %v; json lines: %v", e.File, e.Primary, e.Legacy)
}

// Unwrap exposes both decoder failures to errors.Is and errors.As
func (e *DataFormatError) Unwrap() []error {
	return []error{e.Primary, e.Legacy}
}

// Load reads a bout record, trying the gzip pickle encoding first and the
// legacy gzip JSON-lines encoding second
func Load(path string) (*BoutRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bout record: %w", err)
	}

	rec, primaryErr := decodeGzip(raw, decodePickle)
	if primaryErr == nil {
		return rec, nil
	}

	rec, legacyErr := decodeGzip(raw, decodeJSONLines)
	if legacyErr == nil {
		return rec, nil
	}

	return nil, &DataFormatError{File: path, Primary: primaryErr, Legacy: legacyErr}
}

func decodeGzip(raw []byte, decode func(io.Reader) (*BoutRecord, error)) (*BoutRecord, error) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer zr.Close()

	rec, err := decode(zr)
	if err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

type boundariesLine struct {
	Onsets  []float64 `json:"Onsets"`
	Offsets []float64 `json:"Offsets"`
}

type sonogramLine struct {
	Sonogram [][]float64 `json:"Sonogram"`
}

type conversionLine struct {
	TimeAxisConversion *float64 `json:"timeAxisConversion"`
	FreqAxisConversion *float64 `json:"freqAxisConversion"`
}

func decodeJSONLines(r io.Reader) (*BoutRecord, error) {
	dec := json.NewDecoder(bufio.NewReader(r))

	var params map[string]any
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("params line: %w", err)
	}

	var bounds boundariesLine
	if err := dec.Decode(&bounds); err != nil {
		return nil, fmt.Errorf("boundaries line: %w", err)
	}
	if bounds.Onsets == nil || bounds.Offsets == nil {
		return nil, errors.New("boundaries line: missing Onsets or Offsets")
	}

	var son sonogramLine
	if err := dec.Decode(&son); err != nil {
		return nil, fmt.Errorf("sonogram line: %w", err)
	}
	sonogram, err := denseFromRows(son.Sonogram)
	if err != nil {
		return nil, fmt.Errorf("sonogram line: %w", err)
	}

	var conv conversionLine
	if err := dec.Decode(&conv); err != nil {
		return nil, fmt.Errorf("conversion line: %w", err)
	}
	if conv.TimeAxisConversion == nil || conv.FreqAxisConversion == nil {
		return nil, errors.New("conversion line: missing axis conversion")
	}

	if params == nil {
		params = map[string]any{}
	}
	return &BoutRecord{
		Params:     params,
		Onsets:     toInts(bounds.Onsets),
		Offsets:    toInts(bounds.Offsets),
		Sonogram:   sonogram,
		MsPerPixel: *conv.TimeAxisConversion,
		HzPerPixel: *conv.FreqAxisConversion,
	}, nil
}

func nonNil(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}

func toInts(values []float64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}

// Save writes rec to path in the gzip JSON-lines encoding
func Save(path string, rec *BoutRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid record: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create bout record: %w", err)
	}

	if err := writeJSONLines(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSONLines(w io.Writer, rec *BoutRecord) error {
	zw := gzip.NewWriter(w)
	enc := json.NewEncoder(zw)

	rows, _ := rec.Sonogram.Dims()
	sonogram := make([][]float64, rows)
	for i := range rows {
		sonogram[i] = rec.Sonogram.RawRowView(i)
	}

	msPerPixel, hzPerPixel := rec.MsPerPixel, rec.HzPerPixel
	lines := []any{
		rec.Params,
		map[string][]int{KeyOnsets: nonNil(rec.Onsets), KeyOffsets: nonNil(rec.Offsets)},
		sonogramLine{Sonogram: sonogram},
		conversionLine{TimeAxisConversion: &msPerPixel, FreqAxisConversion: &hzPerPixel},
	}
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			zw.Close()
			return fmt.Errorf("failed to encode bout record: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to flush bout record: %w", err)
	}
	return nil
}
