// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which variant of the union a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is one node of a body tree. The zero Value is Null.
//
// Values are treated as immutable once handed to another component.
// Arrays and objects share their backing storage on copy.
type Value struct {
	kind    Kind
	boolean bool
	// text holds the string for KindString and the literal for KindNumber.
	text   string
	array  []Value
	object Object
	raw    []byte
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Int returns an integer number value.
func Int(n int64) Value {
	return Value{kind: KindNumber, text: strconv.FormatInt(n, 10)}
}

// Float returns a floating point number value. NaN and infinities have
// no JSON representation and become null.
func Float(f float64) Value {
	literal := strconv.FormatFloat(f, 'g', -1, 64)
	if literal == "NaN" || literal == "+Inf" || literal == "-Inf" {
		return Null()
	}
	return Value{kind: KindNumber, text: literal}
}

// NumberLiteral returns a number value from its literal text. The
// literal is validated against the JSON number grammar.
func NumberLiteral(literal string) (Value, error) {
	if !validNumber(literal) {
		return Value{}, fmt.Errorf("%w: invalid number literal %q", ErrMalformed, literal)
	}
	return Value{kind: KindNumber, text: literal}, nil
}

// Array returns an array value holding elements.
func Array(elements ...Value) Value {
	return Value{kind: KindArray, array: elements}
}

// ObjectValue wraps an Object as a Value.
func ObjectValue(object Object) Value {
	return Value{kind: KindObject, object: object}
}

// Raw returns a value whose serialization is exactly data. The bytes are
// copied. Raw does not validate data; callers that accept raw spans from
// the network should obtain them through [ParseObjectMembers], which
// only produces validated spans.
func Raw(data []byte) Value {
	return Value{kind: KindRaw, raw: bytes.Clone(data)}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolean, true
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.text, true
}

// AsNumber returns the literal text of a number value.
func (v Value) AsNumber() (string, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return v.text, true
}

// AsInt returns the number held by v as an int64. Fails for non-numbers
// and for numbers with a fraction or exponent that do not fit.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	n, err := strconv.ParseInt(v.text, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AsArray returns the elements of an array value.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.array, true
}

// AsObject returns the object held by v.
func (v Value) AsObject() (Object, bool) {
	if v.kind != KindObject {
		return Object{}, false
	}
	return v.object, true
}

// RawBytes returns the stored span of a Raw value. The caller must not
// modify the returned slice.
func (v Value) RawBytes() ([]byte, bool) {
	if v.kind != KindRaw {
		return nil, false
	}
	return v.raw, true
}

// Resolve returns v with a top-level Raw span parsed into a tree. Other
// kinds are returned unchanged.
func (v Value) Resolve() (Value, error) {
	if v.kind != KindRaw {
		return v, nil
	}
	return Parse(v.raw)
}

// Equal reports whether v and other describe the same JSON data. Raw
// spans are parsed before comparison, so a Raw span and the tree it
// encodes are equal. Object member order is significant.
func (v Value) Equal(other Value) bool {
	if v.kind == KindRaw || other.kind == KindRaw {
		left, leftErr := v.Resolve()
		right, rightErr := other.Resolve()
		if leftErr != nil || rightErr != nil {
			return bytes.Equal(Marshal(v), Marshal(other))
		}
		return left.Equal(right)
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber, KindString:
		return v.text == other.text
	case KindArray:
		if len(v.array) != len(other.array) {
			return false
		}
		for i := range v.array {
			if !v.array[i].Equal(other.array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.object.Equal(other.object)
	}
	return false
}

// String returns the serialized form of v.
func (v Value) String() string {
	return string(Marshal(v))
}

// MarshalJSON implements json.Marshaler. Note that encoding/json
// compacts the returned bytes, so whitespace inside Raw spans does not
// survive a pass through json.Marshal. Use [Marshal] when byte-exact
// output matters.
func (v Value) MarshalJSON() ([]byte, error) {
	return Marshal(v), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromGo converts a Go value to a Value through encoding/json. The
// result is a Raw span holding the encoding, without HTML escaping.
// Values that are already a Value or Object are returned as-is.
func FromGo(goValue any) (Value, error) {
	switch typed := goValue.(type) {
	case Value:
		return typed, nil
	case *Value:
		if typed == nil {
			return Null(), nil
		}
		return *typed, nil
	case Object:
		return ObjectValue(typed), nil
	}
	encoded, err := encodeGo(goValue)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindRaw, raw: encoded}, nil
}

// Decode unmarshals v into target through encoding/json.
func (v Value) Decode(target any) error {
	return json.Unmarshal(Marshal(v), target)
}

// encodeGo marshals goValue with HTML escaping disabled and the trailing
// newline from json.Encoder removed.
func encodeGo(goValue any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(goValue); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}
