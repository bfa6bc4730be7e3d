// Package codec encodes plain property values as single-line JSON literals.
package codec

import (
	"math"
	"reflect"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

var (
	ErrAbstractType = errors.New("codec: cannot decode into an interface type")
	ErrNonFinite    = errors.New("codec: non-finite float outside a named-float field")
)

// Named floating point literals, written quoted.
const (
	nan    = `"NaN"`
	posInf = `"Infinity"`
	negInf = `"-Infinity"`
)

// Encode returns the JSON literal for v. Top-level NaN and infinities are
// written as quoted names since JSON has no literal for them. Nested floats
// must go through AppendFloat in the owning type's MarshalJSON; anything else
// that is not valid JSON is rejected with ErrNonFinite.
func Encode(v any) (string, error) {
	switch f := v.(type) {
	case float64:
		if s, ok := namedFloat(f); ok {
			return s, nil
		}
	case float32:
		if s, ok := namedFloat(float64(f)); ok {
			return s, nil
		}
	}

	bz, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrapf(err, "encode %T", v)
	}
	if !json.Valid(bz) {
		return "", errors.Wrapf(ErrNonFinite, "encode %T", v)
	}
	return string(bz), nil
}

// Decode parses text into a fresh value of typ.
func Decode(text string, typ reflect.Type) (any, error) {
	if text == "null" {
		return reflect.Zero(typ).Interface(), nil
	}
	if typ.Kind() == reflect.Interface {
		return nil, errors.Wrapf(ErrAbstractType, "decode %s", typ)
	}

	if typ.Kind() == reflect.Float32 || typ.Kind() == reflect.Float64 {
		if f, ok := parseNamedFloat(text); ok {
			return reflect.ValueOf(f).Convert(typ).Interface(), nil
		}
	}

	ptr := reflect.New(typ)
	if err := json.Unmarshal([]byte(text), ptr.Interface()); err != nil {
		return nil, errors.Wrapf(err, "decode %s from %s", typ, strconv.Quote(text))
	}
	return ptr.Elem().Interface(), nil
}

// DecodeAs is Decode for a static type.
func DecodeAs[T any](text string) (T, error) {
	v, err := Decode(text, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

// AppendFloat appends f as a JSON number, or as its quoted name when it is
// NaN or infinite. bits is 32 or 64.
func AppendFloat(dst []byte, f float64, bits int) []byte {
	if s, ok := namedFloat(f); ok {
		return append(dst, s...)
	}
	return strconv.AppendFloat(dst, f, 'g', -1, bits)
}

// ParseFloat reads a JSON number or a quoted float name.
func ParseFloat(data []byte) (float64, error) {
	if f, ok := parseNamedFloat(string(data)); ok {
		return f, nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, errors.Wrapf(err, "decode float from %s", strconv.Quote(string(data)))
	}
	return f, nil
}

func namedFloat(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return nan, true
	case math.IsInf(f, 1):
		return posInf, true
	case math.IsInf(f, -1):
		return negInf, true
	}
	return "", false
}

func parseNamedFloat(text string) (float64, bool) {
	switch text {
	case nan:
		return math.NaN(), true
	case posInf:
		return math.Inf(1), true
	case negInf:
		return math.Inf(-1), true
	}
	return 0, false
}
