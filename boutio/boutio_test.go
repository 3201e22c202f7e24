package boutio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RyanBlaney/chipper/analysis"
	"github.com/RyanBlaney/chipper/config"
	"github.com/klauspost/compress/gzip"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// pickleWriter emits the handful of opcodes the record tests need
type pickleWriter struct {
	bytes.Buffer
}

func newPickleWriter() *pickleWriter {
	return newPickleWriterProto(3)
}

func newPickleWriterProto(version byte) *pickleWriter {
	p := &pickleWriter{}
	p.Write([]byte{0x80, version}) // PROTO
	return p
}

func (p *pickleWriter) op(b byte) { p.WriteByte(b) }

func (p *pickleWriter) str(s string) {
	p.WriteByte('X')
	binary.Write(&p.Buffer, binary.LittleEndian, uint32(len(s)))
	p.WriteString(s)
}

func (p *pickleWriter) int(v int32) {
	p.WriteByte('J')
	binary.Write(&p.Buffer, binary.LittleEndian, v)
}

func (p *pickleWriter) float(f float64) {
	p.WriteByte('G')
	binary.Write(&p.Buffer, binary.BigEndian, math.Float64bits(f))
}

func (p *pickleWriter) raw(b []byte) {
	p.WriteByte('C')
	p.WriteByte(byte(len(b)))
	p.Write(b)
}

// byteArray8 emits BYTEARRAY8, protocol 5
func (p *pickleWriter) byteArray8(b []byte) {
	p.WriteByte(0x96)
	binary.Write(&p.Buffer, binary.LittleEndian, uint64(len(b)))
	p.Write(b)
}

func (p *pickleWriter) global(module, name string) {
	p.WriteByte('c')
	p.WriteString(module + "\n" + name + "\n")
}

func (p *pickleWriter) intList(values ...int32) {
	p.op(']')
	p.op('(')
	for _, v := range values {
		p.int(v)
	}
	p.op('e')
}

// numpyArray pickles a little-endian float64 array the way ndarray.__reduce__ does
func (p *pickleWriter) numpyArray(rows, cols int32, data []float64) {
	p.global("numpy.core.multiarray", "_reconstruct")
	p.op('(')
	p.global("numpy", "ndarray")
	p.op('(')
	p.int(0)
	p.op('t')
	p.raw([]byte("b"))
	p.op('t')
	p.op('R')

	p.op('(')
	p.int(1)
	p.op('(')
	p.int(rows)
	p.int(cols)
	p.op('t')
	p.global("numpy", "dtype")
	p.op('(')
	p.str("f8")
	p.op(0x89)
	p.op(0x88)
	p.op('t')
	p.op('R')
	p.op('(')
	p.int(3)
	p.str("<")
	p.op('N')
	p.op('N')
	p.op('N')
	p.int(-1)
	p.int(-1)
	p.int(0)
	p.op('t')
	p.op('b')
	p.op(0x89)
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	p.raw(buf)
	p.op('t')
	p.op('b')
}

// numpyFrombuffer pickles an array the way protocol 5 reduces a writable
// ndarray: _frombuffer(bytearray, dtype, shape, order)
func (p *pickleWriter) numpyFrombuffer(rows, cols int32, data []float64) {
	p.global("numpy.core.numeric", "_frombuffer")
	p.op('(')
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	p.byteArray8(buf)
	p.global("numpy", "dtype")
	p.op('(')
	p.str("f8")
	p.op(0x89)
	p.op(0x88)
	p.op('t')
	p.op('R')
	p.op('(')
	p.int(3)
	p.str("<")
	p.op('N')
	p.op('N')
	p.op('N')
	p.int(-1)
	p.int(-1)
	p.int(0)
	p.op('t')
	p.op('b')
	p.op('(')
	p.int(rows)
	p.int(cols)
	p.op('t')
	p.str("C")
	p.op('t')
	p.op('R')
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return out.Bytes()
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "SegSyllsOutput_bird.gzip")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sampleRecord() *BoutRecord {
	son := mat.NewDense(3, 8, []float64{
		0, 1, 1, 0, 0, 1, 1, 0,
		0, 1, 0, 0, 0, 0, 1, 0,
		0, 0, 0, 0, 0, 1, 1, 0,
	})
	cfg := config.DefaultConfig().Segmentation
	cfg.BoutRange = &config.BoutRange{Begin: 1, End: 7}
	return &BoutRecord{
		Params:     NewParams("bird.wav", cfg),
		Onsets:     []int{1, 5},
		Offsets:    []int{3, 7},
		Sonogram:   son,
		MsPerPixel: 0.3175,
		HzPerPixel: 21.533,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gzip")
	rec := sampleRecord()
	require.NoError(t, Save(path, rec))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, rec.Onsets, got.Onsets)
	assert.Equal(t, rec.Offsets, got.Offsets)
	assert.True(t, mat.Equal(rec.Sonogram, got.Sonogram))
	assert.InDelta(t, rec.MsPerPixel, got.MsPerPixel, 1e-12)
	assert.InDelta(t, rec.HzPerPixel, got.HzPerPixel, 1e-12)
	assert.Equal(t, "bird.wav", got.FileName())
	assert.Equal(t, []any{1.0, 7.0}, got.Params[KeyBoutRange])
}

func TestSaveEmptyBoundaries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gzip")
	rec := sampleRecord()
	rec.Onsets, rec.Offsets = nil, nil
	require.NoError(t, Save(path, rec))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, got.Onsets)
	assert.Empty(t, got.Offsets)
}

func TestSaveRejectsInvalidRecord(t *testing.T) {
	rec := sampleRecord()
	rec.Offsets = []int{3}
	err := Save(filepath.Join(t.TempDir(), "out.gzip"), rec)
	assert.Error(t, err)
}

func TestLoadPlainPickle(t *testing.T) {
	p := newPickleWriter()
	p.op(']')
	p.op('(')

	p.op('}')
	p.str(KeyFileName)
	p.str("bird.wav")
	p.op('s')
	p.str(KeyPercentSignalKeep)
	p.float(3)
	p.op('s')

	p.op('}')
	p.str(KeyOnsets)
	p.intList(1)
	p.op('s')
	p.str(KeyOffsets)
	p.intList(3)
	p.op('s')

	p.op('}')
	p.str(KeySonogram)
	p.op(']')
	p.op('(')
	p.intList(0, 1, 1, 0)
	p.intList(0, 1, 0, 0)
	p.op('e')
	p.op('s')

	p.op('}')
	p.str(KeyTimeAxis)
	p.float(0.5)
	p.op('s')
	p.str(KeyFreqAxis)
	p.float(20)
	p.op('s')

	p.op('e')
	p.op('.')

	rec, err := Load(writeFile(t, gzipBytes(t, p.Bytes())))
	require.NoError(t, err)

	assert.Equal(t, []int{1}, rec.Onsets)
	assert.Equal(t, []int{3}, rec.Offsets)
	assert.True(t, mat.Equal(mat.NewDense(2, 4, []float64{0, 1, 1, 0, 0, 1, 0, 0}), rec.Sonogram))
	assert.Equal(t, 0.5, rec.MsPerPixel)
	assert.Equal(t, 20.0, rec.HzPerPixel)
	assert.Equal(t, "bird.wav", rec.FileName())
	assert.Equal(t, 3.0, rec.Params[KeyPercentSignalKeep])
}

func TestLoadNumpyPickle(t *testing.T) {
	p := newPickleWriter()
	p.op('(')

	p.op('}')
	p.str(KeyFileName)
	p.str("wren.wav")
	p.op('s')

	p.op('}')
	p.str(KeyOnsets)
	p.intList(0, 2)
	p.op('s')
	p.str(KeyOffsets)
	p.intList(2, 3)
	p.op('s')

	p.op('}')
	p.str(KeySonogram)
	p.numpyArray(2, 3, []float64{1, 0, 1, 1, 1, 0})
	p.op('s')

	p.op('}')
	p.str(KeyTimeAxis)
	p.float(1.5)
	p.op('s')
	p.str(KeyFreqAxis)
	p.float(43)
	p.op('s')

	p.op('t')
	p.op('.')

	rec, err := Load(writeFile(t, gzipBytes(t, p.Bytes())))
	require.NoError(t, err)

	assert.True(t, mat.Equal(mat.NewDense(2, 3, []float64{1, 0, 1, 1, 1, 0}), rec.Sonogram))
	assert.Equal(t, []int{0, 2}, rec.Onsets)
	assert.Equal(t, []int{2, 3}, rec.Offsets)
	assert.Equal(t, 1.5, rec.MsPerPixel)
}

func TestLoadProtocol5Frombuffer(t *testing.T) {
	p := newPickleWriterProto(5)
	p.op('(')

	p.op('}')
	p.str(KeyFileName)
	p.str("finch.wav")
	p.op('s')

	p.op('}')
	p.str(KeyOnsets)
	p.intList(0)
	p.op('s')
	p.str(KeyOffsets)
	p.intList(3)
	p.op('s')

	p.op('}')
	p.str(KeySonogram)
	p.numpyFrombuffer(2, 3, []float64{0, 1, 1, 1, 0, 1})
	p.op('s')

	p.op('}')
	p.str(KeyTimeAxis)
	p.float(0.3175)
	p.op('s')
	p.str(KeyFreqAxis)
	p.float(21.5)
	p.op('s')

	p.op('t')
	p.op('.')

	rec, err := Load(writeFile(t, gzipBytes(t, p.Bytes())))
	require.NoError(t, err)

	assert.True(t, mat.Equal(mat.NewDense(2, 3, []float64{0, 1, 1, 1, 0, 1}), rec.Sonogram))
	assert.Equal(t, []int{0}, rec.Onsets)
	assert.Equal(t, []int{3}, rec.Offsets)
	assert.Equal(t, "finch.wav", rec.FileName())
	assert.Equal(t, 21.5, rec.HzPerPixel)
}

func TestRawBytesAcceptsByteArrays(t *testing.T) {
	ba := types.ByteArray("ab")
	for _, v := range []any{[]byte("ab"), "ab", ba, &ba} {
		got, ok := rawBytes(v)
		require.True(t, ok, "%T", v)
		assert.Equal(t, []byte("ab"), got)
	}
	_, ok := rawBytes(42)
	assert.False(t, ok)
}

func TestLoadUnreadable(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not gzip", []byte("definitely not a record")},
		{"gzip garbage", gzipBytes(t, []byte("{\"FileName\": 1}\nnope"))},
		{"truncated json", gzipBytes(t, []byte("{}\n{\"Onsets\": [1], \"Offsets\": [2]}\n"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.data))
			require.Error(t, err)

			var formatErr *DataFormatError
			require.True(t, errors.As(err, &formatErr))
			assert.Error(t, formatErr.Primary)
			assert.Error(t, formatErr.Legacy)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.gzip"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "SegSyllsOutput_bird.gzip", OutputName("/data/songs/bird.wav"))
	assert.Equal(t, "SegSyllsOutput_a.b.gzip", OutputName("a.b.WAV"))
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *BoutRecord)
	}{
		{"no sonogram", func(r *BoutRecord) { r.Sonogram = nil }},
		{"length mismatch", func(r *BoutRecord) { r.Onsets = []int{1} }},
		{"onset after offset", func(r *BoutRecord) { r.Onsets = []int{3, 5} }},
		{"past the end", func(r *BoutRecord) { r.Offsets = []int{3, 9} }},
		{"negative onset", func(r *BoutRecord) { r.Onsets = []int{-1, 5} }},
	}

	assert.NoError(t, sampleRecord().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord()
			tt.mutate(rec)
			assert.Error(t, rec.Validate())
		})
	}
}

func TestAppendTable(t *testing.T) {
	dir := t.TempDir()
	base := DefaultTableName(dir, time.Date(2024, 5, 2, 13, 4, 5, 0, time.UTC))
	assert.Equal(t, filepath.Join(dir, "AnalysisOutput_20240502_T130405"), base)

	rec := &analysis.Record{FileName: "SegSyllsOutput_bird.gzip"}

	path, err := AppendTable(base, []*analysis.Record{rec})
	require.NoError(t, err)
	assert.Equal(t, base+".txt", path)

	_, err = AppendTable(base, []*analysis.Record{rec, rec})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 4)

	header := strings.Split(lines[0], "\t")
	assert.Equal(t, IndexColumn, header[0])
	assert.Equal(t, analysis.ColumnNames(), header[1:])

	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		assert.Len(t, fields, len(header))
		assert.Equal(t, "SegSyllsOutput_bird.gzip", fields[0])
	}
}

func TestTablePath(t *testing.T) {
	assert.Equal(t, "out.txt", TablePath("out.txt"))
	assert.Equal(t, "out.txt", TablePath("out"))
	assert.Equal(t, "outtxt", TablePath("outtxt"))
}
