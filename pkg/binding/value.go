package binding

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// ErrInvalidValue is returned by DecodeValue when JSON is neither a number
// nor a pair. Decoders that wrap UnmarshalJSON errors as text, json-iterator
// among them, lose it; call DecodeValue to match on it.
var ErrInvalidValue = errors.New("binding: value must be a number or a [low, high] pair")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Value is a single number or an ordered low/high pair.
type Value struct {
	low, high float64
	pair      bool
}

// Single returns a single-number value.
func Single(v float64) Value {
	return Value{low: v}
}

// Pair returns a low/high pair value.
func Pair(low, high float64) Value {
	return Value{low: low, high: high, pair: true}
}

// IsPair reports whether v is a pair.
func (v Value) IsPair() bool {
	return v.pair
}

// Float returns the single number, or the low end of a pair.
func (v Value) Float() float64 {
	return v.low
}

// Bounds returns both ends of a pair. For a single value both are the same.
func (v Value) Bounds() (low, high float64) {
	if !v.pair {
		return v.low, v.low
	}
	return v.low, v.high
}

// String renders the value the way the slider widget does: "5" or "2;7".
func (v Value) String() string {
	s := strconv.FormatFloat(v.low, 'f', -1, 64)
	if v.pair {
		s += ";" + strconv.FormatFloat(v.high, 'f', -1, 64)
	}
	return s
}

// ApproxEqual reports whether v and o have the same shape and their numbers
// differ by at most tol.
func (v Value) ApproxEqual(o Value, tol float64) bool {
	if v.pair != o.pair {
		return false
	}
	if !near(v.low, o.low, tol) {
		return false
	}
	return !v.pair || near(v.high, o.high, tol)
}

func near(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= tol
}

// MarshalJSON encodes a single value as a number and a pair as an array.
// NaN and infinities encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.pair {
		return appendNumber(nil, v.low), nil
	}
	buf := []byte{'['}
	buf = appendNumber(buf, v.low)
	buf = append(buf, ',')
	buf = appendNumber(buf, v.high)
	return append(buf, ']'), nil
}

func appendNumber(buf []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(buf, "null"...)
	}
	return strconv.AppendFloat(buf, f, 'f', -1, 64)
}

// UnmarshalJSON accepts a number, null (NaN) or a two-element array.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := DecodeValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// DecodeValue parses a JSON number, null (NaN) or two-element array.
func DecodeValue(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	switch x := raw.(type) {
	case nil:
		return Single(math.NaN()), nil
	case float64:
		return Single(x), nil
	case []any:
		if len(x) != 2 {
			return Value{}, fmt.Errorf("%w: got %d elements", ErrInvalidValue, len(x))
		}
		lo, ok1 := asNumber(x[0])
		hi, ok2 := asNumber(x[1])
		if !ok1 || !ok2 {
			return Value{}, fmt.Errorf("%w: non-numeric element", ErrInvalidValue)
		}
		return Pair(lo, hi), nil
	default:
		return Value{}, fmt.Errorf("%w: got %T", ErrInvalidValue, raw)
	}
}

func asNumber(x any) (float64, bool) {
	switch n := x.(type) {
	case float64:
		return n, true
	case nil:
		return math.NaN(), true
	default:
		return 0, false
	}
}
