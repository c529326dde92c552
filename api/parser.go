// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseState is the terminal state of an IncomingRequest.
type ParseState uint8

const (
	Decoded ParseState = iota + 1
	Rejected
)

func (s ParseState) String() string {
	switch s {
	case Decoded:
		return "decoded"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("ParseState(%d)", uint8(s))
	}
}

// IncomingRequest is the result of parsing a received request in the
// server role. Exactly one of Value (Decoded) or Err (Rejected) is
// meaningful.
type IncomingRequest[Req any] struct {
	State ParseState
	Value Req
	// Variant is the path variant whose template matched.
	Variant PathVariant
	// AccessToken is the bearer token from the Authorization header, or
	// from the legacy access_token query parameter.
	AccessToken string
	// Signature is an "X-Matrix ..." Authorization header, verbatim.
	Signature string
	Err       *DecodeError
}

// Envelope returns the protocol error for a Rejected request, or nil.
func (r *IncomingRequest[Req]) Envelope() *ErrorEnvelope {
	if r.State != Rejected || r.Err == nil {
		return nil
	}
	return r.Err.Envelope()
}

// ParseRequest matches incoming against the endpoint's variants in
// declared order and decodes it with the first whose template matches.
// It never returns nil.
func (e *Endpoint[Req, Resp]) ParseRequest(incoming *IncomingMessage) *IncomingRequest[Req] {
	result := &IncomingRequest[Req]{}
	result.AccessToken, result.Signature = Credentials(incoming)

	var matched *PathVariant
	var bindings map[string]string
	for index := range e.metadata.Variants {
		if captured, ok := e.metadata.Variants[index].Template.Match(incoming.Path); ok {
			matched, bindings = &e.metadata.Variants[index], captured
			break
		}
	}
	if matched == nil {
		result.State = Rejected
		result.Err = &DecodeError{Kind: UnmatchedPath, Detail: fmt.Sprintf("%s does not match %s", incoming.Path, e.metadata.Name)}
		return result
	}
	result.Variant = *matched

	if incoming.Method != e.metadata.Method {
		result.State = Rejected
		result.Err = &DecodeError{Kind: MethodMismatch, Detail: fmt.Sprintf("%s expects %s, got %s", e.metadata.Name, e.metadata.Method, incoming.Method)}
		return result
	}

	value, decodeErr := e.request.decode(bindings, incoming.RawQuery, incoming.Header, incoming.Body)
	if decodeErr != nil {
		result.State = Rejected
		result.Err = decodeErr
		return result
	}
	result.State = Decoded
	result.Value = value
	return result
}

// Credentials extracts the bearer token (Authorization header, else the
// legacy access_token query parameter) and the X-Matrix signature header
// without decoding the request.
func Credentials(incoming *IncomingMessage) (accessToken, signature string) {
	authorization := incoming.Header.Get("Authorization")
	switch {
	case strings.HasPrefix(authorization, "Bearer "):
		accessToken = strings.TrimPrefix(authorization, "Bearer ")
	case strings.HasPrefix(authorization, "X-Matrix "):
		signature = authorization
	}
	if accessToken == "" && incoming.RawQuery != "" {
		if query, err := url.ParseQuery(incoming.RawQuery); err == nil {
			accessToken = query.Get("access_token")
		}
	}
	return accessToken, signature
}
