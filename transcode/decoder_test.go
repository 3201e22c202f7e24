package transcode

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, samples []int, channels, sampleRate int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "song.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func TestDecodeStereoTakesFirstChannel(t *testing.T) {
	// left/right pairs; the right channel must not leak into the output
	samples := []int{16384, 0, -16384, 16384, 32767, -32768, 0, 8192}
	path := writeWAV(t, samples, 2, 8000)

	data, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 8000, data.SampleRate)
	assert.Equal(t, 2, data.Channels)
	assert.Equal(t, 16, data.BitDepth)
	require.Len(t, data.PCM, 4)
	assert.InDelta(t, 0.5, data.PCM[0], 1e-6)
	assert.InDelta(t, -0.5, data.PCM[1], 1e-6)
	assert.InDelta(t, 32767.0/32768.0, data.PCM[2], 1e-6)
	assert.Equal(t, 0.0, data.PCM[3])
	assert.Equal(t, 500*time.Microsecond, data.Duration)
	assert.Equal(t, path, data.Source)
}

func TestDecodeRejectsNonWAV(t *testing.T) {
	_, err := NewDecoder(nil).Decode(context.Background(), bytes.NewReader([]byte("definitely not riff data")))
	assert.True(t, errors.Is(err, ErrInvalidWAV))
}

func TestDecodeHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDecoder(nil).Decode(ctx, bytes.NewReader(nil))
	assert.ErrorIs(t, err, context.Canceled)
}
