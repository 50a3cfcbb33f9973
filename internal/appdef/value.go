package appdef

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
)

// Value is a coerced scalar: an integer, a boolean or a string.
type Value struct {
	kind Kind
	i    int64
	b    bool
	s    string
}

// IntValue wraps an integer.
func IntValue(v int64) Value { return Value{kind: KindInt, i: v} }

// BoolValue wraps a boolean.
func BoolValue(v bool) Value { return Value{kind: KindBool, b: v} }

// StringValue wraps a string.
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

// Coerce converts a raw attribute string into a Value.
//
// A string with no colon that parses as a base-10 integer becomes an integer,
// exactly "true" or "false" becomes a boolean, and anything else is kept as is.
// Space separated lists, enums and time literals are not recognized and stay strings.
// Integers outside the int64 range also stay strings.
func Coerce(raw string) Value {
	if !strings.Contains(raw, ":") {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IntValue(n)
		}
	}
	switch raw {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	return StringValue(raw)
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer and whether v holds one.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Bool returns the boolean and whether v holds one.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Str returns the string and whether v holds one.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Interface returns the held scalar as int64, bool or string.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	default:
		return v.s
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}
