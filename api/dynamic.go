// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// RequestParts is a request split by wire location, for callers that
// hold a request as data rather than as a typed value. Path holds
// unescaped placeholder values.
type RequestParts struct {
	Path   map[string]string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Dynamic is the untyped view of an Endpoint, for tools that pick
// endpoints by name at run time. Every *Endpoint implements it.
type Dynamic interface {
	Route
	// BuildParts decodes parts into the request type and builds it.
	BuildParts(options BuildOptions, parts RequestParts) (*OutgoingMessage, error)
	// NormalizeRequest parses a received request and re-encodes the
	// decoded value for the variant that matched, carrying its
	// credential over as an Authorization header. A rejected request
	// yields its envelope instead.
	NormalizeRequest(incoming *IncomingMessage) (*OutgoingMessage, *ErrorEnvelope)
	// NormalizeResponse parses a received response and re-encodes it.
	// Error responses come back as encoded envelopes with their
	// original status; only a success body that fails to decode is an
	// error.
	NormalizeResponse(incoming *IncomingMessage) (*OutgoingResponse, error)
	EncodeError(envelope *ErrorEnvelope) *OutgoingResponse
}

var _ Dynamic = (*Endpoint[struct{}, struct{}])(nil)

// DecodeParts rebuilds a typed request from parts. Failures are
// *DecodeError.
func (e *Endpoint[Req, Resp]) DecodeParts(parts RequestParts) (Req, error) {
	request, decodeErr := e.request.decode(parts.Path, parts.Query.Encode(), parts.Header, parts.Body)
	if decodeErr != nil {
		return request, decodeErr
	}
	return request, nil
}

func (e *Endpoint[Req, Resp]) BuildParts(options BuildOptions, parts RequestParts) (*OutgoingMessage, error) {
	request, err := e.DecodeParts(parts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.metadata.Name, err)
	}
	return e.NewRequest(options).Build(request)
}

func (e *Endpoint[Req, Resp]) NormalizeRequest(incoming *IncomingMessage) (*OutgoingMessage, *ErrorEnvelope) {
	parsed := e.ParseRequest(incoming)
	if parsed.State == Rejected {
		return nil, parsed.Envelope()
	}
	message, err := e.Encode(parsed.Value, parsed.Variant)
	if err != nil {
		return nil, NewError(KindUnknown, err.Error())
	}
	switch {
	case parsed.Signature != "":
		message.Sign(parsed.Signature)
	case parsed.AccessToken != "":
		message.Header.Set("Authorization", "Bearer "+parsed.AccessToken)
	}
	return message, nil
}

func (e *Endpoint[Req, Resp]) NormalizeResponse(incoming *IncomingMessage) (*OutgoingResponse, error) {
	response, err := e.ParseResponse(incoming)
	if err != nil {
		var envelope *ErrorEnvelope
		if errors.As(err, &envelope) {
			return e.EncodeError(envelope), nil
		}
		return nil, fmt.Errorf("%s: %w", e.metadata.Name, err)
	}
	return e.EncodeResponse(response)
}
