package param

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// ErrUnsupportedType is returned by [Of] for values that have no wire representation.
var ErrUnsupportedType = errors.New("unsupported parameter type")

// Kind identifies the variant held by a [Value].
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindNumber
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single call parameter. The zero Value is null.
type Value struct {
	kind Kind
	text string // string contents or number literal
	b    bool
	list []Value
	m    map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer number Value.
func Int(n int64) Value { return Value{kind: KindNumber, text: strconv.FormatInt(n, 10)} }

// Uint returns an unsigned integer number Value.
func Uint(n uint64) Value { return Value{kind: KindNumber, text: strconv.FormatUint(n, 10)} }

// Float returns a number Value. NaN and infinities are not representable in
// JSON and are rejected.
func Float(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: non-finite float %v", ErrUnsupportedType, f)
	}
	return Value{kind: KindNumber, text: strconv.FormatFloat(f, 'f', -1, 64)}, nil
}

// Number returns a number Value from a JSON number literal. Surrounding
// whitespace is not part of a literal and is rejected.
func Number(n json.Number) (Value, error) {
	if n == "" || !(n[0] == '-' || isDigit(n[0])) || !isDigit(n[len(n)-1]) || !json.Valid([]byte(n)) {
		return Value{}, fmt.Errorf("%w: invalid number literal %q", ErrUnsupportedType, string(n))
	}
	return Value{kind: KindNumber, text: string(n)}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// List returns a list Value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Map returns a map Value.
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Of converts a Go value into a Value. Supported inputs are nil, Value,
// string, []byte holding UTF-8 text, bool, the integer and float types,
// json.Number, and slices or string-keyed maps of supported values.
func Of(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Value:
		if t == nil {
			return Null(), nil
		}
		return *t, nil
	case string:
		return String(t), nil
	case []byte:
		if !utf8.Valid(t) {
			return Value{}, fmt.Errorf("%w: byte string is not valid UTF-8", ErrUnsupportedType)
		}
		return String(string(t)), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Uint(uint64(t)), nil
	case uint8:
		return Uint(uint64(t)), nil
	case uint16:
		return Uint(uint64(t)), nil
	case uint32:
		return Uint(uint64(t)), nil
	case uint64:
		return Uint(t), nil
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case json.Number:
		return Number(t)
	case []any:
		return listOf(len(t), func(i int) any { return t[i] })
	case []string:
		return listOf(len(t), func(i int) any { return t[i] })
	case map[string]any:
		return mapOf(t)
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return mapOf(m)
	}

	// Fall back to reflection for other slice and map shapes, e.g. []int.
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return listOf(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return mapOf(m)
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return Of(rv.Elem().Interface())
	}

	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, x)
}

func listOf(n int, at func(int) any) (Value, error) {
	items := make([]Value, n)
	for i := range n {
		v, err := Of(at(i))
		if err != nil {
			return Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		items[i] = v
	}
	return List(items...), nil
}

func mapOf(src map[string]any) (Value, error) {
	m := make(map[string]Value, len(src))
	for k, x := range src {
		v, err := Of(x)
		if err != nil {
			return Value{}, fmt.Errorf("key %q: %w", k, err)
		}
		m[k] = v
	}
	return Map(m), nil
}

// Encode returns the wire representation of v. ok is false for null, which
// must be left out of the request entirely.
func (v Value) Encode() (wire string, ok bool) {
	switch v.kind {
	case KindNull:
		return "", false
	case KindString, KindNumber:
		return v.text, true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			// Constructors validate their input, so a failure here is a bug.
			panic(fmt.Sprintf("param: encoding %s value: %v", v.kind, err))
		}
		return string(b), true
	}
}

// MarshalJSON implements [json.Marshaler]. The output is compact and does
// not escape HTML characters.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.native()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// native converts v to the types encoding/json understands.
func (v Value) native() any {
	switch v.kind {
	case KindString:
		return v.text
	case KindBool:
		return v.b
	case KindNumber:
		return json.Number(v.text)
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.native()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.native()
		}
		return out
	default:
		return nil
	}
}
