// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// Endpoint is the typed descriptor of one protocol operation: its
// static Metadata plus the compiled transcoders of its request and
// response types. Catalogue packages declare endpoints as package-level
// variables built with [MustEndpoint]; after init they are immutable
// and safe for concurrent use.
type Endpoint[Req, Resp any] struct {
	metadata Metadata
	request  *Transcoder[Req]
	response *Transcoder[Resp]
}

// NewEndpoint validates metadata, compiles the request and response
// placements, and checks that the request's path fields bind exactly
// the placeholders of every variant.
func NewEndpoint[Req, Resp any](metadata Metadata) (*Endpoint[Req, Resp], error) {
	metadata = metadata.clone()
	if err := metadata.Validate(); err != nil {
		return nil, err
	}
	request, err := NewTranscoder[Req](RequestRole)
	if err != nil {
		return nil, withEndpoint(err, metadata.Name)
	}
	response, err := NewTranscoder[Resp](ResponseRole)
	if err != nil {
		return nil, withEndpoint(err, metadata.Name)
	}

	params := request.placement.PathParams()
	slices.Sort(params)
	for _, variant := range metadata.Variants {
		placeholders := variant.Template.Placeholders()
		slices.Sort(placeholders)
		if !slices.Equal(params, placeholders) {
			return nil, configErrorf(metadata.Name,
				"path fields [%s] of %s do not match placeholders [%s] of %s",
				strings.Join(params, ", "), request.placement.Type,
				strings.Join(placeholders, ", "), variant.Template)
		}
	}

	return &Endpoint[Req, Resp]{metadata: metadata, request: request, response: response}, nil
}

// MustEndpoint is like NewEndpoint but panics on error. Use for
// package-level declarations.
func MustEndpoint[Req, Resp any](metadata Metadata) *Endpoint[Req, Resp] {
	endpoint, err := NewEndpoint[Req, Resp](metadata)
	if err != nil {
		panic(err)
	}
	return endpoint
}

func withEndpoint(err error, name string) error {
	var configErr *ConfigurationError
	if errors.As(err, &configErr) {
		return &ConfigurationError{Endpoint: name, Reason: fmt.Sprintf("%s: %s", configErr.Endpoint, configErr.Reason)}
	}
	return err
}

// Metadata returns the endpoint's descriptor. The returned value shares
// its variant slice with the endpoint and must not be modified.
func (e *Endpoint[Req, Resp]) Metadata() Metadata { return e.metadata }

// RequestPlacement returns the compiled request layout.
func (e *Endpoint[Req, Resp]) RequestPlacement() *Placement { return e.request.placement }

// ResponsePlacement returns the compiled response layout.
func (e *Endpoint[Req, Resp]) ResponsePlacement() *Placement { return e.response.placement }

// Encode serializes request for the given variant. The variant must be
// one of the endpoint's own; rendering a template whose placeholders
// the request type does not bind is a contract violation and panics.
// The error result reports a field marshaler failure.
func (e *Endpoint[Req, Resp]) Encode(request Req, variant PathVariant) (*OutgoingMessage, error) {
	parts, err := e.request.encode(request)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.metadata.Name, err)
	}
	path, err := variant.Template.Render(parts.bindings)
	if err != nil {
		panic(fmt.Sprintf("api: %s: %v", e.metadata.Name, err))
	}

	message := &OutgoingMessage{
		Endpoint: e.metadata.Name,
		Method:   e.metadata.Method,
		Path:     path,
		Query:    parts.query,
		Header:   parts.header,
		Body:     parts.body,
	}
	switch parts.bodyKind {
	case jsonBody:
		message.Header.Set("Content-Type", "application/json")
	case noBody:
		if e.metadata.Method == http.MethodPost || e.metadata.Method == http.MethodPut {
			message.Body = []byte("{}")
			message.Header.Set("Content-Type", "application/json")
		}
	}
	return message, nil
}

// Decode reconstructs a request from a received message, matching its
// path against the given variant only. Failures are *DecodeError.
func (e *Endpoint[Req, Resp]) Decode(incoming *IncomingMessage, variant PathVariant) (Req, error) {
	bindings, ok := variant.Template.Match(incoming.Path)
	if !ok {
		var zero Req
		return zero, &DecodeError{Kind: UnmatchedPath, Detail: fmt.Sprintf("%s does not match %s", incoming.Path, variant.Template)}
	}
	request, decodeErr := e.request.decode(bindings, incoming.RawQuery, incoming.Header, incoming.Body)
	if decodeErr != nil {
		return request, decodeErr
	}
	return request, nil
}

// EncodeResponse serializes a successful response with status 200.
func (e *Endpoint[Req, Resp]) EncodeResponse(response Resp) (*OutgoingResponse, error) {
	parts, err := e.response.encode(response)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.metadata.Name, err)
	}
	outgoing := &OutgoingResponse{StatusCode: http.StatusOK, Header: parts.header, Body: parts.body}
	switch parts.bodyKind {
	case jsonBody:
		outgoing.Header.Set("Content-Type", "application/json")
	case noBody:
		outgoing.Body = []byte("{}")
		outgoing.Header.Set("Content-Type", "application/json")
	}
	return outgoing, nil
}

// EncodeError serializes a protocol error. The status comes from the
// envelope, then the endpoint's ErrorStatus overrides, then the default
// table.
func (e *Endpoint[Req, Resp]) EncodeError(envelope *ErrorEnvelope) *OutgoingResponse {
	return encodeErrorResponse(envelope, e.metadata.ErrorStatus)
}

// EncodeErrorResponse serializes a protocol error that no endpoint has
// claimed yet, such as an unroutable request.
func EncodeErrorResponse(envelope *ErrorEnvelope) *OutgoingResponse {
	return encodeErrorResponse(envelope, nil)
}

func encodeErrorResponse(envelope *ErrorEnvelope, overrides map[ErrorKind]int) *OutgoingResponse {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &OutgoingResponse{
		StatusCode: envelope.StatusFor(overrides),
		Header:     header,
		Body:       wire.Marshal(envelope.body()),
	}
}

// DecodeResponse reconstructs a successful response body. Failures are
// *DecodeError.
func (e *Endpoint[Req, Resp]) DecodeResponse(incoming *IncomingMessage) (Resp, error) {
	response, decodeErr := e.response.decode(nil, "", incoming.Header, incoming.Body)
	if decodeErr != nil {
		return response, decodeErr
	}
	return response, nil
}

// ParseResponse is the client-role entry point: a 2xx message decodes
// to Resp, anything else to an *ErrorEnvelope returned as the error.
func (e *Endpoint[Req, Resp]) ParseResponse(incoming *IncomingMessage) (Resp, error) {
	if incoming.StatusCode < 200 || incoming.StatusCode > 299 {
		var zero Resp
		return zero, FromWire(incoming.StatusCode, incoming.Body)
	}
	return e.DecodeResponse(incoming)
}
