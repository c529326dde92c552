// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"unicode/utf8"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/endpoints/clientapi"
	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// parseRequestFixture reads a hand-written request description (JSON
// with comments):
//
//	{
//	  "path":   {"roomId": "!abc:example.org"},
//	  "query":  {"dir": "b", "limit": 10, "via": ["a.example", "b.example"]},
//	  "header": {"Content-Type": "text/plain"},
//	  "body":   {"msgtype": "m.text", "body": "hi"}
//	}
//
// "body_text" replaces "body" for raw (non-JSON) bodies. Every member
// is optional.
func parseRequestFixture(data []byte) (api.RequestParts, error) {
	var parts api.RequestParts
	object, err := parseFixtureObject(data)
	if err != nil {
		return parts, err
	}

	for _, member := range object.Members() {
		switch member.Key {
		case "path":
			parts.Path = make(map[string]string)
			err = eachMember(member, func(name string, value wire.Value) error {
				text, ok := scalarText(value)
				if !ok {
					return fmt.Errorf("path.%s must be a string or number", name)
				}
				parts.Path[name] = text
				return nil
			})
		case "query":
			parts.Query = make(url.Values)
			err = eachMember(member, func(name string, value wire.Value) error {
				values, err := queryValues(name, value)
				parts.Query[name] = values
				return err
			})
		case "header":
			parts.Header = make(http.Header)
			err = eachMember(member, func(name string, value wire.Value) error {
				values, err := headerValues(name, value)
				for _, text := range values {
					parts.Header.Add(name, text)
				}
				return err
			})
		case "body":
			parts.Body = wire.Marshal(member.Value)
		case "body_text":
			text, ok := member.Value.AsString()
			if !ok {
				return parts, fmt.Errorf("body_text must be a string")
			}
			parts.Body = []byte(text)
		default:
			return parts, fmt.Errorf("unknown fixture member %q", member.Key)
		}
		if err != nil {
			return parts, err
		}
	}
	return parts, nil
}

// responseFixture is a canned response for "serve".
type responseFixture struct {
	// Endpoint overrides the endpoint name taken from the file name.
	Endpoint string
	Status   int
	Body     []byte
}

// parseResponseFixture reads {"endpoint": ..., "status": 200, "body": ...}.
// Status defaults to 200.
func parseResponseFixture(data []byte) (responseFixture, error) {
	fixture := responseFixture{Status: http.StatusOK}
	object, err := parseFixtureObject(data)
	if err != nil {
		return fixture, err
	}
	for _, member := range object.Members() {
		switch member.Key {
		case "endpoint":
			name, ok := member.Value.AsString()
			if !ok {
				return fixture, fmt.Errorf("endpoint must be a string")
			}
			fixture.Endpoint = name
		case "status":
			status, ok := member.Value.AsInt()
			if !ok || status < 100 || status > 599 {
				return fixture, fmt.Errorf("status must be an HTTP status code, got %s", member.Value)
			}
			fixture.Status = int(status)
		case "body":
			fixture.Body = wire.Marshal(member.Value)
		default:
			return fixture, fmt.Errorf("unknown fixture member %q", member.Key)
		}
	}
	return fixture, nil
}

// parseSupportedVersions decodes a saved /versions response body.
func parseSupportedVersions(data []byte) (api.SupportedVersions, error) {
	return clientapi.GetSupportedVersions.ParseResponse(&api.IncomingMessage{
		StatusCode: http.StatusOK,
		Body:       jsonc.ToJSON(data),
	})
}

func parseFixtureObject(data []byte) (wire.Object, error) {
	value, err := wire.ParseJSONC(data)
	if err != nil {
		return wire.Object{}, fmt.Errorf("parsing fixture: %w", err)
	}
	object, ok := value.AsObject()
	if !ok {
		return wire.Object{}, fmt.Errorf("fixture must be a JSON object, got %s", value.Kind())
	}
	return object, nil
}

func eachMember(member wire.Member, visit func(name string, value wire.Value) error) error {
	object, ok := member.Value.AsObject()
	if !ok {
		return fmt.Errorf("%s must be an object, got %s", member.Key, member.Value.Kind())
	}
	for _, inner := range object.Members() {
		if err := visit(inner.Key, inner.Value); err != nil {
			return err
		}
	}
	return nil
}

// scalarText renders strings as-is and numbers and booleans as their
// JSON literals.
func scalarText(value wire.Value) (string, bool) {
	switch value.Kind() {
	case wire.KindString:
		text, _ := value.AsString()
		return text, true
	case wire.KindNumber, wire.KindBool:
		return string(wire.Marshal(value)), true
	default:
		return "", false
	}
}

// queryValues accepts a scalar, an array of scalars (a repeated key) or
// an object, which is sent JSON-encoded as filter parameters are.
func queryValues(name string, value wire.Value) ([]string, error) {
	if text, ok := scalarText(value); ok {
		return []string{text}, nil
	}
	switch value.Kind() {
	case wire.KindArray:
		elements, _ := value.AsArray()
		values := make([]string, 0, len(elements))
		for _, element := range elements {
			text, ok := scalarText(element)
			if !ok {
				return nil, fmt.Errorf("query.%s: array elements must be scalars", name)
			}
			values = append(values, text)
		}
		return values, nil
	case wire.KindObject:
		return []string{string(wire.Marshal(value))}, nil
	default:
		return nil, fmt.Errorf("query.%s: unsupported %s value", name, value.Kind())
	}
}

func headerValues(name string, value wire.Value) ([]string, error) {
	if text, ok := value.AsString(); ok {
		return []string{text}, nil
	}
	elements, ok := value.AsArray()
	if !ok {
		return nil, fmt.Errorf("header.%s must be a string or an array of strings", name)
	}
	values := make([]string, 0, len(elements))
	for _, element := range elements {
		text, ok := element.AsString()
		if !ok {
			return nil, fmt.Errorf("header.%s must be a string or an array of strings", name)
		}
		values = append(values, text)
	}
	return values, nil
}

// bodyView is a message body for display: parsed JSON when it is JSON,
// text when it is UTF-8, base64 otherwise.
type bodyView struct {
	JSON   *wire.Value `json:"body,omitempty"`
	Text   string      `json:"body_text,omitempty"`
	Base64 string      `json:"body_base64,omitempty"`
}

func newBodyView(body []byte) bodyView {
	if len(body) == 0 {
		return bodyView{}
	}
	if value, err := wire.Parse(body); err == nil {
		return bodyView{JSON: &value}
	}
	if utf8.Valid(body) {
		return bodyView{Text: string(body)}
	}
	return bodyView{Base64: base64.StdEncoding.EncodeToString(body)}
}

type queryView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// messageView is the JSON rendering of an OutgoingMessage.
type messageView struct {
	Endpoint       string      `json:"endpoint"`
	Method         string      `json:"method"`
	URL            string      `json:"url"`
	Query          []queryView `json:"query,omitempty"`
	Header         http.Header `json:"header,omitempty"`
	NeedsSignature bool        `json:"needs_signature,omitempty"`
	bodyView
}

func newMessageView(message *api.OutgoingMessage) messageView {
	view := messageView{
		Endpoint:       message.Endpoint,
		Method:         message.Method,
		URL:            message.URL(),
		Header:         message.Header,
		NeedsSignature: message.NeedsSignature,
		bodyView:       newBodyView(message.Body),
	}
	for _, pair := range message.Query {
		view.Query = append(view.Query, queryView{Name: pair.Name, Value: pair.Value})
	}
	return view
}

// responseView is the JSON rendering of an OutgoingResponse.
type responseView struct {
	Status int         `json:"status"`
	Header http.Header `json:"header,omitempty"`
	bodyView
}

func newResponseView(response *api.OutgoingResponse) responseView {
	return responseView{
		Status:   response.StatusCode,
		Header:   response.Header,
		bodyView: newBodyView(response.Body),
	}
}
