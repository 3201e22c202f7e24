package boutio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
	"gonum.org/v1/gonum/mat"
)

// decodePickle reads a pickled four-element record. Values may be plain
// lists or numpy arrays and scalars.
func decodePickle(r io.Reader) (*BoutRecord, error) {
	u := pickle.NewUnpickler(r)
	u.FindClass = findNumpyClass

	obj, err := u.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to unpickle: %w", err)
	}

	parts, err := sequence(obj)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	if len(parts) < 4 {
		return nil, fmt.Errorf("record has %d parts, want 4", len(parts))
	}

	dicts := make([]*types.Dict, 4)
	for i := range dicts {
		d, ok := parts[i].(*types.Dict)
		if !ok {
			return nil, fmt.Errorf("record part %d is %T, want dict", i, parts[i])
		}
		dicts[i] = d
	}

	rec := &BoutRecord{Params: map[string]any{}}
	for _, key := range []string{KeyFileName, KeyBoutRange, KeyPercentSignalKeep, KeyHighPassFilter, KeyMinSilence, KeyMinSyllable, KeyPadding} {
		if v, ok := dicts[0].Get(key); ok {
			rec.Params[key] = plainValue(v)
		}
	}

	if rec.Onsets, err = intsAt(dicts[1], KeyOnsets); err != nil {
		return nil, err
	}
	if rec.Offsets, err = intsAt(dicts[1], KeyOffsets); err != nil {
		return nil, err
	}

	son, ok := dicts[2].Get(KeySonogram)
	if !ok {
		return nil, fmt.Errorf("missing %s", KeySonogram)
	}
	if rec.Sonogram, err = matrix(son); err != nil {
		return nil, fmt.Errorf("%s: %w", KeySonogram, err)
	}

	if rec.MsPerPixel, err = floatAt(dicts[3], KeyTimeAxis); err != nil {
		return nil, err
	}
	if rec.HzPerPixel, err = floatAt(dicts[3], KeyFreqAxis); err != nil {
		return nil, err
	}

	return rec, nil
}

func intsAt(d *types.Dict, key string) ([]int, error) {
	v, ok := d.Get(key)
	if !ok {
		return nil, fmt.Errorf("missing %s", key)
	}
	values, err := floatSlice(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	out := make([]int, len(values))
	for i, f := range values {
		out[i] = int(f)
	}
	return out, nil
}

func floatAt(d *types.Dict, key string) (float64, error) {
	v, ok := d.Get(key)
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	f, err := scalar(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// sequence unwraps python lists and tuples
func sequence(v any) ([]any, error) {
	switch s := v.(type) {
	case *types.List:
		out := make([]any, s.Len())
		for i := range out {
			out[i] = s.Get(i)
		}
		return out, nil
	case *types.Tuple:
		out := make([]any, s.Len())
		for i := range out {
			out[i] = s.Get(i)
		}
		return out, nil
	case []any:
		return s, nil
	}
	return nil, fmt.Errorf("expected a sequence, got %T", v)
}

func scalar(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f, nil
	case *ndarray:
		if len(x.data) != 1 {
			return 0, fmt.Errorf("expected a scalar, got array of %d values", len(x.data))
		}
		return x.data[0], nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func floatSlice(v any) ([]float64, error) {
	if arr, ok := v.(*ndarray); ok {
		return arr.data, nil
	}
	items, err := sequence(v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		if out[i], err = scalar(item); err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
	}
	return out, nil
}

func matrix(v any) (*mat.Dense, error) {
	if arr, ok := v.(*ndarray); ok {
		if len(arr.shape) != 2 || arr.shape[0] == 0 || arr.shape[1] == 0 {
			return nil, fmt.Errorf("expected a non-empty 2d array, got shape %v", arr.shape)
		}
		return mat.NewDense(arr.shape[0], arr.shape[1], arr.data), nil
	}

	rows, err := sequence(v)
	if err != nil {
		return nil, err
	}
	values := make([][]float64, len(rows))
	for i, row := range rows {
		if values[i], err = floatSlice(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return denseFromRows(values)
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("empty matrix")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// plainValue converts a decoded param into a Go value
func plainValue(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case *types.List, *types.Tuple, *ndarray:
		values, err := floatSlice(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return values
	}
	if f, err := scalar(v); err == nil {
		return f
	}
	return fmt.Sprint(v)
}

// findNumpyClass resolves the numpy globals referenced by pickled arrays
func findNumpyClass(module, name string) (any, error) {
	switch module + "." + name {
	case "numpy.core.multiarray._reconstruct", "numpy._core.multiarray._reconstruct":
		return reconstructFunc{}, nil
	case "numpy.core.multiarray.scalar", "numpy._core.multiarray.scalar":
		return scalarFunc{}, nil
	case "numpy.core.numeric._frombuffer", "numpy._core.numeric._frombuffer":
		return frombufferFunc{}, nil
	case "numpy.ndarray":
		return ndarrayClass{}, nil
	case "numpy.dtype":
		return dtypeFunc{}, nil
	case "_codecs.encode":
		return codecsEncodeFunc{}, nil
	}
	return nil, fmt.Errorf("unsupported pickle global %s.%s", module, name)
}

type ndarrayClass struct{}

// dtype describes a numpy element type such as "<f8"
type dtype struct {
	kind  byte // 'f', 'i', 'u' or 'b'
	size  int
	order byte // '<', '>' or '|'
}

type dtypeFunc struct{}

func (dtypeFunc) Call(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("dtype: missing type code")
	}
	code, ok := args[0].(string)
	if !ok || len(code) < 2 {
		return nil, fmt.Errorf("dtype: bad type code %v", args[0])
	}
	size, err := strconv.Atoi(code[1:])
	if err != nil {
		return nil, fmt.Errorf("dtype: bad type code %q", code)
	}
	return &dtype{kind: code[0], size: size, order: '<'}, nil
}

// PySetState receives (version, byteorder, ...)
func (d *dtype) PySetState(state any) error {
	items, err := sequence(state)
	if err != nil {
		return fmt.Errorf("dtype state: %w", err)
	}
	if len(items) > 1 {
		if order, ok := items[1].(string); ok && len(order) == 1 {
			d.order = order[0]
		}
	}
	return nil
}

func (d *dtype) byteOrder() binary.ByteOrder {
	if d.order == '>' {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// decode converts raw element bytes to float64 values
func (d *dtype) decode(raw []byte) ([]float64, error) {
	if d.size <= 0 || len(raw)%d.size != 0 {
		return nil, fmt.Errorf("buffer of %d bytes is not a multiple of element size %d", len(raw), d.size)
	}
	order := d.byteOrder()
	out := make([]float64, len(raw)/d.size)
	for i := range out {
		b := raw[i*d.size : (i+1)*d.size]
		switch {
		case d.kind == 'f' && d.size == 8:
			out[i] = math.Float64frombits(order.Uint64(b))
		case d.kind == 'f' && d.size == 4:
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case (d.kind == 'b' || d.kind == 'u') && d.size == 1:
			out[i] = float64(b[0])
		case d.kind == 'i' && d.size == 1:
			out[i] = float64(int8(b[0]))
		case d.kind == 'i' && d.size == 2:
			out[i] = float64(int16(order.Uint16(b)))
		case d.kind == 'u' && d.size == 2:
			out[i] = float64(order.Uint16(b))
		case d.kind == 'i' && d.size == 4:
			out[i] = float64(int32(order.Uint32(b)))
		case d.kind == 'u' && d.size == 4:
			out[i] = float64(order.Uint32(b))
		case d.kind == 'i' && d.size == 8:
			out[i] = float64(int64(order.Uint64(b)))
		case d.kind == 'u' && d.size == 8:
			out[i] = float64(order.Uint64(b))
		default:
			return nil, fmt.Errorf("unsupported dtype %c%d", d.kind, d.size)
		}
	}
	return out, nil
}

// ndarray holds a decoded numpy array in row-major order
type ndarray struct {
	shape []int
	data  []float64
}

type reconstructFunc struct{}

func (reconstructFunc) Call(args ...any) (any, error) {
	return &ndarray{}, nil
}

// PySetState receives (version, shape, dtype, is_fortran, rawdata)
func (a *ndarray) PySetState(state any) error {
	items, err := sequence(state)
	if err != nil {
		return fmt.Errorf("ndarray state: %w", err)
	}
	if len(items) != 5 {
		return fmt.Errorf("ndarray state has %d items, want 5", len(items))
	}

	shape, err := shapeOf(items[1])
	if err != nil {
		return err
	}
	fortran, _ := items[3].(bool)

	var data []float64
	if dt, ok := items[2].(*dtype); ok {
		if raw, ok := rawBytes(items[4]); ok {
			if data, err = dt.decode(raw); err != nil {
				return err
			}
		}
	}
	if data == nil {
		if data, err = floatSlice(items[4]); err != nil {
			return fmt.Errorf("ndarray data: %w", err)
		}
	}

	return a.fill(shape, data, fortran)
}

func (a *ndarray) fill(shape []int, data []float64, fortran bool) error {
	total := 1
	for _, d := range shape {
		total *= d
	}
	if total != len(data) {
		return fmt.Errorf("ndarray shape %v does not match %d values", shape, len(data))
	}
	if fortran && len(shape) == 2 {
		rows, cols := shape[0], shape[1]
		rowMajor := make([]float64, len(data))
		for c := range cols {
			for r := range rows {
				rowMajor[r*cols+c] = data[c*rows+r]
			}
		}
		data = rowMajor
	}
	a.shape = shape
	a.data = data
	return nil
}

type frombufferFunc struct{}

// Call receives (buffer, dtype, shape, order)
func (frombufferFunc) Call(args ...any) (any, error) {
	if len(args) < 4 {
		return nil, fmt.Errorf("_frombuffer: got %d arguments, want 4", len(args))
	}
	raw, ok := rawBytes(args[0])
	if !ok {
		return nil, fmt.Errorf("_frombuffer: unsupported buffer %T", args[0])
	}
	dt, ok := args[1].(*dtype)
	if !ok {
		return nil, fmt.Errorf("_frombuffer: unsupported dtype %T", args[1])
	}
	shape, err := shapeOf(args[2])
	if err != nil {
		return nil, err
	}
	data, err := dt.decode(raw)
	if err != nil {
		return nil, err
	}
	order, _ := args[3].(string)

	arr := &ndarray{}
	if err := arr.fill(shape, data, order == "F"); err != nil {
		return nil, err
	}
	return arr, nil
}

type scalarFunc struct{}

// Call receives (dtype, rawbytes)
func (scalarFunc) Call(args ...any) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("scalar: got %d arguments, want 2", len(args))
	}
	dt, ok := args[0].(*dtype)
	if !ok {
		return nil, fmt.Errorf("scalar: unsupported dtype %T", args[0])
	}
	raw, ok := rawBytes(args[1])
	if !ok {
		return nil, fmt.Errorf("scalar: unsupported payload %T", args[1])
	}
	values, err := dt.decode(raw)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("scalar: decoded %d values", len(values))
	}
	return values[0], nil
}

func shapeOf(v any) ([]int, error) {
	dims, err := floatSlice(v)
	if err != nil {
		return nil, fmt.Errorf("ndarray shape: %w", err)
	}
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	return shape, nil
}

func rawBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case *types.ByteArray:
		return []byte(*b), true
	case types.ByteArray:
		return []byte(b), true
	case string:
		return []byte(b), true
	}
	return nil, false
}

type codecsEncodeFunc struct{}

// Call receives (text, encoding); python 3 writes bytes this way under protocol 2
func (codecsEncodeFunc) Call(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("_codecs.encode: missing text")
	}
	text, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("_codecs.encode: unsupported text %T", args[0])
	}
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xff {
			return nil, fmt.Errorf("_codecs.encode: rune %U outside latin-1", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}
