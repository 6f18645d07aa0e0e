package types

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a number that may be unavailable. The zero Value is unavailable.
type Value struct {
	v  float64
	ok bool
}

// Unavailable is the single "could not be determined" marker. It equals the
// zero Value; do not reassign it. Compare with Available, not with ==.
var Unavailable = Value{}

// Of wraps f. NaN and infinities become Unavailable.
func Of(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Unavailable
	}
	return Value{v: f, ok: true}
}

// OfPtr wraps an optional number; nil is Unavailable.
func OfPtr(f *float64) Value {
	if f == nil {
		return Unavailable
	}
	return Of(*f)
}

// Get returns the number and whether it is available.
func (x Value) Get() (float64, bool) { return x.v, x.ok }

// Available reports whether x holds a number.
func (x Value) Available() bool { return x.ok }

// IsZero reports whether x is available and exactly zero.
func (x Value) IsZero() bool { return x.ok && x.v == 0 }

// Float returns the number, or def when unavailable.
func (x Value) Float(def float64) float64 {
	if !x.ok {
		return def
	}
	return x.v
}

func (x Value) String() string {
	if !x.ok {
		return "N/A"
	}
	return strconv.FormatFloat(x.v, 'f', -1, 64)
}

// Format renders x with a fixed number of decimals, or "N/A".
func (x Value) Format(decimals int) string {
	if !x.ok {
		return "N/A"
	}
	return strconv.FormatFloat(x.v, 'f', decimals, 64)
}

func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

func (x *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*x = Unavailable
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*x = Of(f)
	return nil
}
