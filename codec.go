package webstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Separator joins the type tag and the payload of every stored value.
const Separator = "_prfx_"

// Kind is the type tag carried by a stored value.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// Value is a decoded stored value. The concrete type is one of
// String, Number, Boolean, Object or Array.
type Value interface {
	Kind() Kind
	// Any returns the plain Go representation of the value.
	Any() any

	value()
}

type (
	String  string
	Number  float64
	Boolean bool
	Object  map[string]any
	Array   []any
)

func (String) Kind() Kind  { return KindString }
func (Number) Kind() Kind  { return KindNumber }
func (Boolean) Kind() Kind { return KindBoolean }
func (Object) Kind() Kind  { return KindObject }
func (Array) Kind() Kind   { return KindArray }

func (v String) Any() any  { return string(v) }
func (v Number) Any() any  { return float64(v) }
func (v Boolean) Any() any { return bool(v) }
func (v Object) Any() any  { return map[string]any(v) }
func (v Array) Any() any   { return []any(v) }

func (String) value()  {}
func (Number) value()  {}
func (Boolean) value() {}
func (Object) value()  {}
func (Array) value()   {}

// Encode tags v with its kind and serializes it into a single string.
// It never fails: values that cannot be represented otherwise are stored
// as strings. A nil slice is stored as an empty array.
//
// Integers are written exactly, but numbers always decode as float64, so
// magnitudes above 2^53 lose precision on the way back.
func Encode(v any) string {
	kind, payload := encode(v)
	return string(kind) + Separator + payload
}

func encode(v any) (Kind, string) {
	switch t := v.(type) {
	case nil:
		return KindObject, "null"
	case String:
		return KindString, string(t)
	case Number:
		return KindNumber, formatFloat(float64(t))
	case Boolean:
		return KindBoolean, strconv.FormatBool(bool(t))
	case Object:
		return encodeJSON(KindObject, map[string]any(t))
	case Array:
		if t == nil {
			return KindArray, "[]"
		}
		return encodeJSON(KindArray, []any(t))
	case string:
		return KindString, t
	case []byte:
		return KindString, string(t)
	case bool:
		return KindBoolean, strconv.FormatBool(t)
	case json.Number:
		return KindNumber, t.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindNumber, strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return KindNumber, strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return KindNumber, formatFloat(rv.Float())
	case reflect.Bool:
		return KindBoolean, strconv.FormatBool(rv.Bool())
	case reflect.String:
		return KindString, rv.String()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return KindArray, "[]"
		}
		return encodeJSON(KindArray, v)
	case reflect.Map, reflect.Struct:
		return encodeJSON(KindObject, v)
	case reflect.Pointer:
		if rv.IsNil() {
			return KindObject, "null"
		}
		return encode(rv.Elem().Interface())
	}
	return KindString, fmt.Sprint(v)
}

func encodeJSON(kind Kind, v any) (Kind, string) {
	data, err := json.Marshal(v)
	if err != nil {
		return KindString, fmt.Sprint(v)
	}
	return kind, string(data)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// DecodeRaw splits a stored value on the first separator and decodes it.
func DecodeRaw(raw string) (Value, error) {
	tag, payload, ok := strings.Cut(raw, Separator)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q separator", ErrDecode, Separator)
	}
	return Decode(tag, payload)
}

// Decode converts a payload back into a Value according to its tag.
// Every failure wraps ErrDecode.
func Decode(tag, payload string) (Value, error) {
	switch Kind(strings.ToLower(tag)) {
	case KindArray:
		var arr []any
		if err := decodeJSON(payload, &arr); err != nil {
			return nil, fmt.Errorf("%w: array: %v", ErrDecode, err)
		}
		if arr == nil {
			return nil, fmt.Errorf("%w: parsed data is not an array", ErrDecode)
		}
		return Array(arr), nil
	case KindObject:
		var obj map[string]any
		if err := decodeJSON(payload, &obj); err != nil {
			return nil, fmt.Errorf("%w: object: %v", ErrDecode, err)
		}
		if obj == nil {
			return nil, fmt.Errorf("%w: parsed data is not an object", ErrDecode)
		}
		return Object(obj), nil
	case KindNumber:
		n, err := parseNumber(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return Number(n), nil
	case KindString:
		return String(payload), nil
	case KindBoolean:
		return Boolean(strings.EqualFold(payload, "true")), nil
	}
	return nil, fmt.Errorf("%w: %w %q", ErrDecode, ErrUnsupportedType, tag)
}

// decodeJSON rejects mismatched shapes through the typed destination:
// unmarshaling an array into a map (or the reverse) is an error, while
// "null" leaves the destination nil.
func decodeJSON(payload string, dst any) error {
	return json.Unmarshal([]byte(payload), dst)
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0, nil
	case "Infinity", "+Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	// ParseFloat accepts spellings such as "nan" and "inf" that are not
	// decimal text.
	if strings.ContainsAny(s, "nNiI") {
		return 0, fmt.Errorf("%q is not a valid number", s)
	}
	// Out of range text saturates to ±Inf or 0 rather than failing.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%q is not a valid number", s)
	}
	return f, nil
}

// Unmarshal copies a decoded value into out, which must be a pointer.
func Unmarshal(v Value, out any) error {
	if v == nil {
		return ErrNotFound
	}
	data, err := json.Marshal(v.Any())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
