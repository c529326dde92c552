// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
)

// PlacementKind says where on the wire a struct field lives.
type PlacementKind uint8

const (
	// PathParam: one placeholder of the path template. Tag `path:"name"`.
	PathParam PlacementKind = iota + 1
	// QueryParam: one query key. Tag `query:"name"` or
	// `query:"name,optional"`. Slices become repeated keys; non-scalar
	// types are JSON-encoded into the value.
	QueryParam
	// Header: one HTTP header. Tag `header:"Name"` or
	// `header:"Name,optional"`.
	Header
	// BodyField: one member of the JSON body object. Exported fields
	// without another placement tag; the key comes from the json tag.
	BodyField
	// RawBody: the whole body as opaque bytes. Tag `wire:"body"` on a
	// []byte, json.RawMessage or wire.Value field.
	RawBody
	// NewType: the whole body is the JSON encoding of this one field.
	// Tag `wire:"newtype"`.
	NewType
	// ExtraFields captures body members no BodyField declares, and merges
	// them back on encode. Tag `wire:"extra"` on a wire.Object field.
	ExtraFields
	// QueryMap captures every query pair. Tag `wire:"querymap"` on a
	// map[string]string field, which keeps only the first value of a
	// repeated key, or on a map[string][]string field, which keeps every
	// value in order.
	QueryMap
)

func (k PlacementKind) String() string {
	switch k {
	case PathParam:
		return "path"
	case QueryParam:
		return "query"
	case Header:
		return "header"
	case BodyField:
		return "body"
	case RawBody:
		return "raw-body"
	case NewType:
		return "newtype"
	case ExtraFields:
		return "extra"
	case QueryMap:
		return "querymap"
	default:
		return fmt.Sprintf("PlacementKind(%d)", uint8(k))
	}
}

// FieldPlacement is the compiled placement of one struct field.
type FieldPlacement struct {
	Kind PlacementKind
	// Name is the wire name: placeholder, query key, canonical header
	// name or JSON key. Empty for RawBody, NewType, ExtraFields, QueryMap.
	Name string
	// GoName is the Go field name.
	GoName string
	// Optional fields decode to their zero value when absent.
	Optional bool

	omitEmpty bool
	omitZero  bool
	index     []int
	fieldType reflect.Type
}

// Role selects which placements a type may use. Responses have no path
// or query string.
type Role uint8

const (
	RequestRole Role = iota
	ResponseRole
)

func (r Role) String() string {
	if r == ResponseRole {
		return "response"
	}
	return "request"
}

// Placement is the compiled field layout of one request or response
// type. It is immutable after compilation.
type Placement struct {
	Type   reflect.Type
	Role   Role
	Fields []FieldPlacement

	// Indexes into Fields, -1 when absent.
	rawBody  int
	newType  int
	extras   int
	queryMap int

	bodyKeys map[string]bool
}

// PathParams returns the placeholder names the type binds, in field
// order.
func (p *Placement) PathParams() []string {
	var names []string
	for _, field := range p.Fields {
		if field.Kind == PathParam {
			names = append(names, field.Name)
		}
	}
	return names
}

// hasBodyObject reports whether the body is a JSON object assembled from
// BodyFields and extras.
func (p *Placement) hasBodyObject() bool {
	return len(p.bodyKeys) > 0 || p.extras >= 0
}

func compilePlacement(structType reflect.Type, role Role) (*Placement, error) {
	if structType.Kind() != reflect.Struct {
		return nil, configErrorf(structType.String(), "%s type must be a struct, got %s", role, structType.Kind())
	}

	placement := &Placement{
		Type:     structType,
		Role:     role,
		rawBody:  -1,
		newType:  -1,
		extras:   -1,
		queryMap: -1,
		bodyKeys: make(map[string]bool),
	}
	seen := make(map[PlacementKind]map[string]bool)

	for index := 0; index < structType.NumField(); index++ {
		structField := structType.Field(index)
		field, skip, err := compileField(structType, structField, role)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}

		if field.Name != "" {
			names := seen[field.Kind]
			if names == nil {
				names = make(map[string]bool)
				seen[field.Kind] = names
			}
			if names[field.Name] {
				return nil, configErrorf(structType.String(), "%s name %q declared twice", field.Kind, field.Name)
			}
			names[field.Name] = true
		}

		position := len(placement.Fields)
		switch field.Kind {
		case RawBody, NewType:
			if placement.rawBody >= 0 || placement.newType >= 0 {
				return nil, configErrorf(structType.String(), "more than one whole-body field")
			}
			if field.Kind == RawBody {
				placement.rawBody = position
			} else {
				placement.newType = position
			}
		case ExtraFields:
			if placement.extras >= 0 {
				return nil, configErrorf(structType.String(), "more than one extra-fields capture")
			}
			placement.extras = position
		case QueryMap:
			if placement.queryMap >= 0 {
				return nil, configErrorf(structType.String(), "more than one query map")
			}
			placement.queryMap = position
		case BodyField:
			placement.bodyKeys[field.Name] = true
		}
		placement.Fields = append(placement.Fields, field)
	}

	if (placement.rawBody >= 0 || placement.newType >= 0) && placement.hasBodyObject() {
		return nil, configErrorf(structType.String(), "whole-body field cannot be combined with body fields or extras")
	}
	if placement.queryMap >= 0 && len(seen[QueryParam]) > 0 {
		return nil, configErrorf(structType.String(), "query map cannot be combined with query fields")
	}
	return placement, nil
}

// compileField reads the placement tags of one struct field. skip is
// true for unexported fields and fields tagged json:"-".
func compileField(structType reflect.Type, structField reflect.StructField, role Role) (FieldPlacement, bool, error) {
	owner := structType.String()
	if !structField.IsExported() {
		return FieldPlacement{}, true, nil
	}

	field := FieldPlacement{
		GoName:    structField.Name,
		index:     structField.Index,
		fieldType: structField.Type,
	}
	fieldType := structField.Type

	var locations []string
	for _, key := range []string{"path", "query", "header", "wire"} {
		if _, ok := structField.Tag.Lookup(key); ok {
			locations = append(locations, key)
		}
	}
	if len(locations) > 1 {
		return field, false, configErrorf(owner, "field %s has conflicting placement tags %v", structField.Name, locations)
	}

	if structField.Anonymous && len(locations) == 0 && structField.Tag.Get("json") != "-" {
		return field, false, configErrorf(owner, "embedded field %s is not supported; declare it as a named field", structField.Name)
	}

	if len(locations) == 0 {
		return compileBodyField(owner, structField, field)
	}

	if role == ResponseRole && (locations[0] == "path" || locations[0] == "query") {
		return field, false, configErrorf(owner, "response field %s cannot use %s placement", structField.Name, locations[0])
	}

	tag := structField.Tag.Get(locations[0])
	name, options, _ := strings.Cut(tag, ",")
	optional := options == "optional"
	if options != "" && !optional {
		return field, false, configErrorf(owner, "field %s has unknown tag option %q", structField.Name, options)
	}

	switch locations[0] {
	case "path":
		if name == "" || optional {
			return field, false, configErrorf(owner, "path field %s needs a placeholder name and cannot be optional", structField.Name)
		}
		if !isScalar(fieldType) {
			return field, false, configErrorf(owner, "path field %s has non-scalar type %s", structField.Name, fieldType)
		}
		field.Kind, field.Name = PathParam, name

	case "query":
		if name == "" {
			return field, false, configErrorf(owner, "query field %s needs a key", structField.Name)
		}
		field.Kind, field.Name = QueryParam, name
		field.Optional = optional || fieldType.Kind() == reflect.Pointer || isRepeatedQuery(fieldType)

	case "header":
		if name == "" {
			return field, false, configErrorf(owner, "header field %s needs a header name", structField.Name)
		}
		scalarType := fieldType
		if scalarType.Kind() == reflect.Pointer {
			scalarType = scalarType.Elem()
		}
		if !isScalar(scalarType) {
			return field, false, configErrorf(owner, "header field %s has non-scalar type %s", structField.Name, fieldType)
		}
		field.Kind, field.Name = Header, http.CanonicalHeaderKey(name)
		field.Optional = optional || fieldType.Kind() == reflect.Pointer

	case "wire":
		if options != "" {
			return field, false, configErrorf(owner, "wire tag on field %s takes no options", structField.Name)
		}
		switch name {
		case "body":
			if fieldType != wireValueType && !isByteSlice(fieldType) {
				return field, false, configErrorf(owner, "raw body field %s must be []byte, json.RawMessage or wire.Value", structField.Name)
			}
			field.Kind, field.Optional = RawBody, true
		case "newtype":
			field.Kind = NewType
		case "extra":
			if fieldType != wireObjectType {
				return field, false, configErrorf(owner, "extra-fields capture %s must be wire.Object", structField.Name)
			}
			field.Kind, field.Optional = ExtraFields, true
		case "querymap":
			if role == ResponseRole {
				return field, false, configErrorf(owner, "response field %s cannot use querymap placement", structField.Name)
			}
			if !isQueryMapType(fieldType) {
				return field, false, configErrorf(owner, "query map %s must be map[string]string or map[string][]string", structField.Name)
			}
			field.Kind, field.Optional = QueryMap, true
		default:
			return field, false, configErrorf(owner, "field %s has unknown wire placement %q", structField.Name, name)
		}
	}
	return field, false, nil
}

func isQueryMapType(fieldType reflect.Type) bool {
	if fieldType.Kind() != reflect.Map || fieldType.Key().Kind() != reflect.String {
		return false
	}
	elem := fieldType.Elem()
	if elem.Kind() == reflect.Slice {
		elem = elem.Elem()
	}
	return elem.Kind() == reflect.String
}

func compileBodyField(owner string, structField reflect.StructField, field FieldPlacement) (FieldPlacement, bool, error) {
	tag := structField.Tag.Get("json")
	if tag == "-" {
		return field, true, nil
	}
	name, options, _ := strings.Cut(tag, ",")
	if name == "" {
		name = structField.Name
	}
	for _, option := range strings.Split(options, ",") {
		switch option {
		case "omitempty":
			field.omitEmpty = true
		case "omitzero":
			field.omitZero = true
		case "":
		default:
			return field, false, configErrorf(owner, "field %s has unknown json option %q", structField.Name, option)
		}
	}
	field.Kind, field.Name = BodyField, name
	field.Optional = field.omitEmpty || field.omitZero ||
		structField.Type.Kind() == reflect.Pointer || structField.Type.Kind() == reflect.Interface
	return field, false, nil
}

// isRepeatedQuery reports whether a query field renders as repeated keys.
func isRepeatedQuery(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && !isByteSlice(t) && isScalar(t.Elem())
}

func isByteSlice(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}
