// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"
)

// ErrMalformed is the error wrapped by every parse failure.
var ErrMalformed = errors.New("wire: malformed JSON")

// maxDepth bounds array/object nesting in Parse. Deeper input is
// rejected rather than recursed into.
const maxDepth = 512

// Parse decodes data into a Value tree. Any syntax error, trailing data
// after the first value, empty input, or nesting deeper than the
// supported limit fails with an error wrapping [ErrMalformed].
func Parse(data []byte) (Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	value, err := parseValue(decoder, 0)
	if err != nil {
		return Value{}, malformed(err)
	}
	if err := expectEOF(decoder); err != nil {
		return Value{}, err
	}
	return value, nil
}

// ParseObjectMembers decodes the top level of a JSON object, keeping each
// member value as a Raw span copied verbatim from data. Member values are
// validated but not interpreted. Fails with [ErrMalformed] when data is
// not a single well-formed JSON object.
func ParseObjectMembers(data []byte) (Object, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return Object{}, malformed(err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return Object{}, fmt.Errorf("%w: expected object", ErrMalformed)
	}

	var object Object
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return Object{}, malformed(err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return Object{}, fmt.Errorf("%w: object key is not a string", ErrMalformed)
		}
		var span json.RawMessage
		if err := decoder.Decode(&span); err != nil {
			return Object{}, malformed(err)
		}
		object.Set(key, Value{kind: KindRaw, raw: span})
	}
	if _, err := decoder.Token(); err != nil {
		return Object{}, malformed(err)
	}
	if err := expectEOF(decoder); err != nil {
		return Object{}, err
	}
	return object, nil
}

// ParseJSONC parses JSON extended with // and /* */ comments and trailing
// commas. Intended for hand-authored files, not wire input.
func ParseJSONC(data []byte) (Value, error) {
	return Parse(jsonc.ToJSON(data))
}

func parseValue(decoder *json.Decoder, depth int) (Value, error) {
	token, err := decoder.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	return parseToken(decoder, token, depth)
}

func parseToken(decoder *json.Decoder, token json.Token, depth int) (Value, error) {
	switch typed := token.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(typed), nil
	case string:
		return String(typed), nil
	case json.Number:
		return Value{kind: KindNumber, text: typed.String()}, nil
	case json.Delim:
		if depth >= maxDepth {
			return Value{}, fmt.Errorf("nesting exceeds %d levels", maxDepth)
		}
		switch typed {
		case '{':
			return parseObject(decoder, depth+1)
		case '[':
			return parseArray(decoder, depth+1)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", rune(typed))
	}
	return Value{}, fmt.Errorf("unexpected token %T", token)
}

func parseObject(decoder *json.Decoder, depth int) (Value, error) {
	var object Object
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyToken.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is not a string")
		}
		member, err := parseValue(decoder, depth)
		if err != nil {
			return Value{}, err
		}
		object.Set(key, member)
	}
	if _, err := decoder.Token(); err != nil {
		return Value{}, err
	}
	return ObjectValue(object), nil
}

func parseArray(decoder *json.Decoder, depth int) (Value, error) {
	elements := []Value{}
	for decoder.More() {
		element, err := parseValue(decoder, depth)
		if err != nil {
			return Value{}, err
		}
		elements = append(elements, element)
	}
	if _, err := decoder.Token(); err != nil {
		return Value{}, err
	}
	return Array(elements...), nil
}

// expectEOF fails if anything other than whitespace follows the value
// the decoder has consumed.
func expectEOF(decoder *json.Decoder) error {
	token, err := decoder.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return malformed(err)
	}
	return fmt.Errorf("%w: trailing data after value (%v)", ErrMalformed, token)
}

func malformed(err error) error {
	if errors.Is(err, ErrMalformed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}

// validNumber checks literal against the JSON number grammar:
// -? (0 | [1-9][0-9]*) (. [0-9]+)? ([eE] [+-]? [0-9]+)?
func validNumber(literal string) bool {
	i := 0
	if i < len(literal) && literal[i] == '-' {
		i++
	}
	if i >= len(literal) {
		return false
	}
	if literal[i] == '0' {
		i++
	} else if isDigit(literal[i]) {
		for i < len(literal) && isDigit(literal[i]) {
			i++
		}
	} else {
		return false
	}
	if i < len(literal) && literal[i] == '.' {
		i++
		start := i
		for i < len(literal) && isDigit(literal[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(literal) && (literal[i] == 'e' || literal[i] == 'E') {
		i++
		if i < len(literal) && (literal[i] == '+' || literal[i] == '-') {
			i++
		}
		start := i
		for i < len(literal) && isDigit(literal[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(literal)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
