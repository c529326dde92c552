// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"slices"

	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// Transcoder maps values of one struct type to and from the parts of a
// wire message, following the type's compiled [Placement]. It is
// immutable and safe for concurrent use.
type Transcoder[T any] struct {
	placement *Placement
}

// NewTranscoder compiles the placement of T for the given role.
func NewTranscoder[T any](role Role) (*Transcoder[T], error) {
	placement, err := compilePlacement(reflect.TypeFor[T](), role)
	if err != nil {
		return nil, err
	}
	return &Transcoder[T]{placement: placement}, nil
}

// Placement returns the compiled field layout.
func (t *Transcoder[T]) Placement() *Placement { return t.placement }

// bodyKind says what the encoded body holds.
type bodyKind uint8

const (
	noBody bodyKind = iota
	jsonBody
	rawBody
)

// messageParts is the output of encode, before the path is rendered and
// the parts are assembled into a message.
type messageParts struct {
	bindings map[string]string
	query    []QueryPair
	header   http.Header
	body     []byte
	bodyKind bodyKind
}

// encode routes each field of value to its placement. It fails only when
// a field's own marshaler fails.
func (t *Transcoder[T]) encode(value T) (messageParts, error) {
	placement := t.placement
	root := reflect.ValueOf(value)
	parts := messageParts{
		bindings: make(map[string]string),
		header:   make(http.Header),
	}

	var object wire.Object
	var extras wire.Object

	for _, field := range placement.Fields {
		fieldValue := root.FieldByIndex(field.index)
		switch field.Kind {
		case PathParam:
			text, err := formatScalar(fieldValue)
			if err != nil {
				return parts, fmt.Errorf("api: encoding path parameter %q: %w", field.Name, err)
			}
			parts.bindings[field.Name] = text

		case QueryParam:
			pairs, err := encodeQuery(field, fieldValue)
			if err != nil {
				return parts, fmt.Errorf("api: encoding query parameter %q: %w", field.Name, err)
			}
			parts.query = append(parts.query, pairs...)

		case QueryMap:
			keys := make([]string, 0, fieldValue.Len())
			for _, key := range fieldValue.MapKeys() {
				keys = append(keys, key.String())
			}
			slices.Sort(keys)
			for _, key := range keys {
				value := fieldValue.MapIndex(reflect.ValueOf(key).Convert(fieldValue.Type().Key()))
				if value.Kind() != reflect.Slice {
					parts.query = append(parts.query, QueryPair{Name: key, Value: value.String()})
					continue
				}
				for index := range value.Len() {
					parts.query = append(parts.query, QueryPair{Name: key, Value: value.Index(index).String()})
				}
			}

		case Header:
			if fieldValue.Kind() == reflect.Pointer {
				if fieldValue.IsNil() {
					continue
				}
				fieldValue = fieldValue.Elem()
			}
			text, err := formatScalar(fieldValue)
			if err != nil {
				return parts, fmt.Errorf("api: encoding header %q: %w", field.Name, err)
			}
			if text == "" && field.Optional {
				continue
			}
			parts.header.Set(field.Name, text)

		case BodyField:
			if (field.omitEmpty && isEmptyValue(fieldValue)) || (field.omitZero && fieldValue.IsZero()) {
				continue
			}
			member, err := toWireValue(fieldValue)
			if err != nil {
				return parts, fmt.Errorf("api: encoding body field %q: %w", field.Name, err)
			}
			object.Set(field.Name, member)

		case ExtraFields:
			extras = fieldValue.Interface().(wire.Object)

		case RawBody:
			parts.bodyKind = rawBody
			if fieldValue.Type() == wireValueType {
				raw := fieldValue.Interface().(wire.Value)
				if raw.IsNull() {
					continue
				}
				parts.body = wire.Marshal(raw)
				continue
			}
			parts.body = bytes.Clone(fieldValue.Bytes())

		case NewType:
			member, err := toWireValue(fieldValue)
			if err != nil {
				return parts, fmt.Errorf("api: encoding body: %w", err)
			}
			parts.body = wire.Marshal(member)
			parts.bodyKind = jsonBody
		}
	}

	if placement.hasBodyObject() {
		for _, member := range extras.Members() {
			if !object.Has(member.Key) {
				object.Set(member.Key, member.Value)
			}
		}
		parts.body = wire.Marshal(wire.ObjectValue(object))
		parts.bodyKind = jsonBody
	}
	return parts, nil
}

func toWireValue(fieldValue reflect.Value) (wire.Value, error) {
	switch fieldValue.Type() {
	case wireValueType:
		return fieldValue.Interface().(wire.Value), nil
	case wireObjectType:
		return wire.ObjectValue(fieldValue.Interface().(wire.Object)), nil
	}
	return wire.FromGo(fieldValue.Interface())
}

func encodeQuery(field FieldPlacement, fieldValue reflect.Value) ([]QueryPair, error) {
	explicit := false
	if fieldValue.Kind() == reflect.Pointer {
		if fieldValue.IsNil() {
			return nil, nil
		}
		fieldValue = fieldValue.Elem()
		explicit = true
	}

	if isRepeatedQuery(fieldValue.Type()) {
		pairs := make([]QueryPair, 0, fieldValue.Len())
		for index := 0; index < fieldValue.Len(); index++ {
			text, err := formatScalar(fieldValue.Index(index))
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, QueryPair{Name: field.Name, Value: text})
		}
		return pairs, nil
	}

	if field.Optional && !explicit && isEmptyValue(fieldValue) {
		return nil, nil
	}
	if isScalar(fieldValue.Type()) {
		text, err := formatScalar(fieldValue)
		if err != nil {
			return nil, err
		}
		return []QueryPair{{Name: field.Name, Value: text}}, nil
	}
	encoded, err := toWireValue(fieldValue)
	if err != nil {
		return nil, err
	}
	return []QueryPair{{Name: field.Name, Value: string(wire.Marshal(encoded))}}, nil
}

// decode rebuilds a value from the parts of a received message. bindings
// are the placeholder captures of the matched variant.
func (t *Transcoder[T]) decode(bindings map[string]string, rawQuery string, header http.Header, body []byte) (T, *DecodeError) {
	var result T
	placement := t.placement
	root := reflect.ValueOf(&result).Elem()

	var query url.Values
	queryParsed := false
	parseQuery := func() *DecodeError {
		if queryParsed {
			return nil
		}
		queryParsed = true
		parsed, err := url.ParseQuery(rawQuery)
		if err != nil {
			return &DecodeError{Kind: WrongType, Field: "query string", Expected: "URL-encoded query", Cause: err}
		}
		query = parsed
		return nil
	}

	var members wire.Object
	if placement.hasBodyObject() {
		parsed, decodeErr := parseBodyObject(body)
		if decodeErr != nil {
			return result, decodeErr
		}
		members = parsed
	}

	for _, field := range placement.Fields {
		fieldValue := root.FieldByIndex(field.index)
		switch field.Kind {
		case PathParam:
			text, ok := bindings[field.Name]
			if !ok {
				return result, &DecodeError{Kind: MissingField, Field: field.Name}
			}
			if err := parseScalar(text, fieldValue); err != nil {
				return result, wrongType(field, err)
			}

		case QueryParam:
			if decodeErr := parseQuery(); decodeErr != nil {
				return result, decodeErr
			}
			values := query[field.Name]
			if len(values) == 0 {
				if field.Optional {
					continue
				}
				return result, &DecodeError{Kind: MissingField, Field: field.Name}
			}
			if err := decodeQuery(fieldValue, values); err != nil {
				return result, wrongType(field, err)
			}

		case QueryMap:
			if decodeErr := parseQuery(); decodeErr != nil {
				return result, decodeErr
			}
			mapType := fieldValue.Type()
			captured := reflect.MakeMapWithSize(mapType, len(query))
			for key, values := range query {
				var element reflect.Value
				if mapType.Elem().Kind() == reflect.Slice {
					element = reflect.MakeSlice(mapType.Elem(), len(values), len(values))
					for index, value := range values {
						element.Index(index).SetString(value)
					}
				} else {
					element = reflect.ValueOf(values[0]).Convert(mapType.Elem())
				}
				captured.SetMapIndex(reflect.ValueOf(key).Convert(mapType.Key()), element)
			}
			fieldValue.Set(captured)

		case Header:
			values := header.Values(field.Name)
			if len(values) == 0 {
				if field.Optional {
					continue
				}
				return result, &DecodeError{Kind: MissingField, Field: field.Name}
			}
			text := values[0]
			if text == "" && field.Optional {
				continue
			}
			target := fieldValue
			if fieldValue.Kind() == reflect.Pointer {
				target = reflect.New(fieldValue.Type().Elem()).Elem()
			}
			if err := parseScalar(text, target); err != nil {
				return result, wrongType(field, err)
			}
			if fieldValue.Kind() == reflect.Pointer {
				fieldValue.Set(target.Addr())
			}

		case BodyField:
			member, ok := members.Get(field.Name)
			if !ok {
				if field.Optional {
					continue
				}
				return result, &DecodeError{Kind: MissingField, Field: field.Name}
			}
			if err := decodeMember(member, fieldValue); err != nil {
				return result, wrongType(field, err)
			}

		case ExtraFields:
			var extras wire.Object
			for _, member := range members.Members() {
				if !placement.bodyKeys[member.Key] {
					extras.Set(member.Key, member.Value)
				}
			}
			fieldValue.Set(reflect.ValueOf(extras))

		case RawBody:
			if fieldValue.Type() == wireValueType {
				if len(body) > 0 {
					fieldValue.Set(reflect.ValueOf(wire.Raw(body)))
				}
				continue
			}
			fieldValue.Set(reflect.ValueOf(bytes.Clone(body)).Convert(fieldValue.Type()))

		case NewType:
			data := bytes.TrimSpace(body)
			if len(data) == 0 {
				data = []byte("{}")
			}
			if !json.Valid(data) {
				return result, &DecodeError{Kind: MalformedBody, Cause: fmt.Errorf("%w: body is not valid JSON", wire.ErrMalformed)}
			}
			if fieldValue.Type() == wireValueType {
				fieldValue.Set(reflect.ValueOf(wire.Raw(data)))
				continue
			}
			if err := json.Unmarshal(data, fieldValue.Addr().Interface()); err != nil {
				return result, &DecodeError{Kind: WrongType, Field: "body", Expected: describeType(fieldValue.Type()), Cause: err}
			}
		}
	}
	return result, nil
}

// parseBodyObject splits a JSON object body into raw member spans. An
// empty body is an empty object.
func parseBodyObject(body []byte) (wire.Object, *DecodeError) {
	if len(bytes.TrimSpace(body)) == 0 {
		return wire.Object{}, nil
	}
	members, err := wire.ParseObjectMembers(body)
	if err == nil {
		return members, nil
	}
	if json.Valid(body) {
		return wire.Object{}, &DecodeError{Kind: MalformedBody, Detail: "body is not a JSON object"}
	}
	return wire.Object{}, &DecodeError{Kind: MalformedBody, Cause: err}
}

// decodeMember stores one body member into fieldValue. wire.Value fields
// keep the raw span; wire.Object fields keep raw spans for their
// members, so both re-encode byte-for-byte.
func decodeMember(member wire.Value, fieldValue reflect.Value) error {
	data, ok := member.RawBytes()
	if !ok {
		data = wire.Marshal(member)
	}
	switch fieldValue.Type() {
	case wireValueType:
		fieldValue.Set(reflect.ValueOf(member))
		return nil
	case wireObjectType:
		object, err := wire.ParseObjectMembers(data)
		if err != nil {
			return errors.New("expected a JSON object")
		}
		fieldValue.Set(reflect.ValueOf(object))
		return nil
	}
	return json.Unmarshal(data, fieldValue.Addr().Interface())
}

func decodeQuery(fieldValue reflect.Value, values []string) error {
	if fieldValue.Kind() == reflect.Pointer {
		target := reflect.New(fieldValue.Type().Elem())
		if err := decodeQuery(target.Elem(), values); err != nil {
			return err
		}
		fieldValue.Set(target)
		return nil
	}
	if isRepeatedQuery(fieldValue.Type()) {
		decoded := reflect.MakeSlice(fieldValue.Type(), len(values), len(values))
		for index, text := range values {
			if err := parseScalar(text, decoded.Index(index)); err != nil {
				return err
			}
		}
		fieldValue.Set(decoded)
		return nil
	}
	if isScalar(fieldValue.Type()) {
		return parseScalar(values[0], fieldValue)
	}
	return json.Unmarshal([]byte(values[0]), fieldValue.Addr().Interface())
}

func wrongType(field FieldPlacement, cause error) *DecodeError {
	return &DecodeError{
		Kind:     WrongType,
		Field:    field.Name,
		Expected: describeType(field.fieldType),
		Cause:    cause,
	}
}
