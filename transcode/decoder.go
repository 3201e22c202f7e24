package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/RyanBlaney/chipper/logging"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned when the input is not a RIFF/WAVE stream
var ErrInvalidWAV = errors.New("invalid wav file")

// AudioData represents decoded audio
type AudioData struct {
	PCM        []float64     `json:"-"` // mono samples in [-1, 1]
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"` // channel count of the source; PCM holds channel 0
	BitDepth   int           `json:"bit_depth"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source,omitempty"`
}

// Decoder reads WAV recordings into mono float PCM
type Decoder struct {
	logger logging.Logger
}

// NewDecoder creates a WAV decoder
func NewDecoder(logger logging.Logger) *Decoder {
	return &Decoder{logger: logging.OrGlobal(logger)}
}

// DecodeFile opens and decodes the WAV file at path
func (d *Decoder) DecodeFile(ctx context.Context, path string) (*AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	data, err := d.Decode(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	data.Source = path
	return data, nil
}

// Decode reads a complete WAV stream and returns its first channel
func (d *Decoder) Decode(ctx context.Context, r io.ReadSeeker) (*AudioData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read pcm data: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format chunk", ErrInvalidWAV)
	}

	channels := buf.Format.NumChannels
	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = int(buf.SourceBitDepth)
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := math.Exp2(float64(bitDepth - 1))

	frames := len(buf.Data) / channels
	pcm := make([]float64, frames)
	// multichannel recordings keep only the first channel
	for i := range frames {
		pcm[i] = float64(buf.Data[i*channels]) / scale
	}

	data := &AudioData{
		PCM:        pcm,
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
		Duration:   time.Duration(frames) * time.Second / time.Duration(buf.Format.SampleRate),
	}

	d.logger.Debug("Decoded wav", logging.Fields{
		"component":   "decoder",
		"sample_rate": data.SampleRate,
		"channels":    channels,
		"bit_depth":   bitDepth,
		"samples":     frames,
	})

	return data, nil
}
