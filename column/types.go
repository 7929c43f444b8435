package column

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errNotScalar = errors.New("objects and arrays are not accepted here")
	errNotString = errors.New("expected a string")
)

// Integer types accept JSON numbers and numeric strings.

func Int8() *scalar[int8]   { return signed[int8]("Int8", 8) }
func Int16() *scalar[int16] { return signed[int16]("Int16", 16) }
func Int32() *scalar[int32] { return signed[int32]("Int32", 32) }
func Int64() *scalar[int64] { return signed[int64]("Int64", 64) }

func UInt8() *scalar[uint8]   { return unsigned[uint8]("UInt8", 8) }
func UInt16() *scalar[uint16] { return unsigned[uint16]("UInt16", 16) }
func UInt32() *scalar[uint32] { return unsigned[uint32]("UInt32", 32) }
func UInt64() *scalar[uint64] { return unsigned[uint64]("UInt64", 64) }

func signed[T int8 | int16 | int32 | int64](name string, bits int) *scalar[T] {
	return &scalar[T]{name: name, parse: func(raw []byte) (T, error) {
		s, err := numberText(raw)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(s, 10, bits)
		return T(n), err
	}}
}

func unsigned[T uint8 | uint16 | uint32 | uint64](name string, bits int) *scalar[T] {
	return &scalar[T]{name: name, parse: func(raw []byte) (T, error) {
		s, err := numberText(raw)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseUint(s, 10, bits)
		return T(n), err
	}}
}

func Float32() *scalar[float32] {
	return &scalar[float32]{name: "Float32", parse: func(raw []byte) (float32, error) {
		s, err := numberText(raw)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	}}
}

func Float64() *scalar[float64] {
	return &scalar[float64]{name: "Float64", parse: func(raw []byte) (float64, error) {
		s, err := numberText(raw)
		if err != nil {
			return 0, err
		}
		return strconv.ParseFloat(s, 64)
	}}
}

// Bool accepts true/false, 0/1 and their quoted forms.
func Bool() *scalar[bool] {
	return &scalar[bool]{name: "Bool", parse: func(raw []byte) (bool, error) {
		s, err := numberText(raw)
		if err != nil {
			return false, err
		}
		switch s {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean %q", s)
	}}
}

// String stores string values; numbers and booleans are kept as their text.
func String() *scalar[string] {
	return &scalar[string]{name: "String", parse: func(raw []byte) (string, error) {
		return numberText(raw)
	}}
}

func UUID() *scalar[uuid.UUID] {
	return &scalar[uuid.UUID]{name: "UUID", parse: func(raw []byte) (uuid.UUID, error) {
		if raw[0] != '"' {
			return uuid.Nil, errNotString
		}
		s, err := numberText(raw)
		if err != nil {
			return uuid.Nil, err
		}
		return uuid.Parse(s)
	}}
}

// Decimal stores fixed-point numbers with the given precision and scale.
// Digits beyond the scale are truncated; too many integer digits fail.
func Decimal(precision, scale int32) (*scalar[decimal.Decimal], error) {
	if precision < 1 || precision > 76 || scale < 0 || scale > precision {
		return nil, fmt.Errorf("invalid Decimal(%d, %d)", precision, scale)
	}
	limit := decimal.New(1, precision-scale)
	return &scalar[decimal.Decimal]{
		name: fmt.Sprintf("Decimal(%d, %d)", precision, scale),
		parse: func(raw []byte) (decimal.Decimal, error) {
			s, err := numberText(raw)
			if err != nil {
				return decimal.Zero, err
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return decimal.Zero, err
			}
			d = d.Truncate(scale)
			if d.Abs().GreaterThanOrEqual(limit) {
				return decimal.Zero, fmt.Errorf("value exceeds %d integer digits", precision-scale)
			}
			return d, nil
		},
	}, nil
}

// JSON stores any JSON value in compact form. Value returns it decoded into
// map[string]any, []any and friends.
func JSON() *scalar[string] {
	return &scalar[string]{
		name: "JSON",
		def:  "null",
		parse: func(raw []byte) (string, error) {
			v := jsontext.Value(append([]byte(nil), raw...))
			if err := v.Compact(); err != nil {
				return "", err
			}
			return string(v), nil
		},
		export: func(s string) any {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return s
			}
			return out
		},
	}
}

// numberText returns the text of a scalar token: the content of a string, or
// the token itself for numbers and literals.
func numberText(raw []byte) (string, error) {
	switch raw[0] {
	case '"':
		b, err := jsontext.AppendUnquote(nil, raw)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case '{', '[':
		return "", errNotScalar
	}
	return string(raw), nil
}

// checkFinite is used by formats that cannot represent NaN or infinities.
func checkFinite(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number %v", f)
	}
	return nil
}
