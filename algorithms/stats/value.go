package stats

import (
	"encoding/json"
	"math"
	"strconv"
)

// NAString is how an absent value is rendered in output tables
const NAString = "NA"

// Value is a scalar statistic that may be absent (NA), e.g. the mean of an
// empty sample. NaN is treated as absent.
type Value struct {
	v     float64
	valid bool
}

// Of wraps v; NaN and infinities become NA
func Of(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, valid: true}
}

// NA returns an absent value
func NA() Value {
	return Value{}
}

// Valid reports whether the value is present
func (v Value) Valid() bool {
	return v.valid
}

// Float returns the value, or NaN when absent
func (v Value) Float() float64 {
	if !v.valid {
		return math.NaN()
	}
	return v.v
}

// String renders the value for tabular output
func (v Value) String() string {
	if !v.valid {
		return NAString
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}

// MarshalJSON encodes NA as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes null as NA
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = NA()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}
