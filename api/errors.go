// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// ErrBuilderUsed is returned by [RequestBuilder.Build] on every call
// after the first.
var ErrBuilderUsed = errors.New("api: request builder already used")

// ErrNeedsAuthentication is returned when an endpoint requires an access
// token and the build options carry none.
var ErrNeedsAuthentication = errors.New("api: endpoint requires an access token")

// ConfigurationError reports an endpoint declaration that violates a
// structural invariant: overlapping variants, misordered versions, a
// struct tag the transcoder cannot honor. These are programming mistakes
// and never reach a network peer; the Must* constructors panic with
// them at init.
type ConfigurationError struct {
	// Endpoint is the Metadata.Name of the offending declaration, or
	// the Go type name when the error comes from placement compilation.
	Endpoint string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Endpoint == "" {
		return "api: invalid endpoint configuration: " + e.Reason
	}
	return fmt.Sprintf("api: invalid endpoint configuration for %s: %s", e.Endpoint, e.Reason)
}

func configErrorf(endpoint, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Endpoint: endpoint, Reason: fmt.Sprintf(format, args...)}
}

// DecodeErrorKind classifies why a received message could not be
// decoded.
type DecodeErrorKind uint8

const (
	// MissingField: a required path, query, header or body field is absent.
	MissingField DecodeErrorKind = iota + 1
	// WrongType: a field is present but does not parse as its declared type.
	WrongType
	// MalformedBody: the body is not valid JSON, or not the JSON shape
	// the type requires.
	MalformedBody
	// UnmatchedPath: no variant template matches the observed path.
	UnmatchedPath
	// NoMatchingVersion: no variant satisfies the version constraints.
	NoMatchingVersion
	// MethodMismatch: the path matched but the HTTP method did not.
	MethodMismatch
)

func (k DecodeErrorKind) String() string {
	switch k {
	case MissingField:
		return "missing field"
	case WrongType:
		return "wrong type"
	case MalformedBody:
		return "malformed body"
	case UnmatchedPath:
		return "unmatched path"
	case NoMatchingVersion:
		return "no matching version"
	case MethodMismatch:
		return "method mismatch"
	default:
		return fmt.Sprintf("DecodeErrorKind(%d)", uint8(k))
	}
}

// DecodeError is a recoverable failure caused by a malformed or
// unexpected peer message. Servers convert it to a protocol error with
// [DecodeError.Envelope]; clients receive it as a typed failure.
type DecodeError struct {
	Kind DecodeErrorKind
	// Field names the offending wire field (query key, header name, JSON
	// key, placeholder) for MissingField and WrongType.
	Field string
	// Expected describes the declared type for WrongType.
	Expected string
	// Detail is a human-readable description for the other kinds.
	Detail string
	Cause  error
}

func (e *DecodeError) Error() string {
	var message string
	switch e.Kind {
	case MissingField:
		message = fmt.Sprintf("api: missing field %q", e.Field)
	case WrongType:
		message = fmt.Sprintf("api: field %q is not a valid %s", e.Field, e.Expected)
	default:
		message = "api: " + e.Kind.String()
		if e.Detail != "" {
			message += ": " + e.Detail
		}
	}
	if e.Cause != nil {
		message += ": " + e.Cause.Error()
	}
	return message
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Envelope converts the failure into the protocol error a server sends
// back to the peer.
func (e *DecodeError) Envelope() *ErrorEnvelope {
	switch e.Kind {
	case MissingField:
		return &ErrorEnvelope{
			Kind:       KindMissingParam,
			Code:       KindMissingParam.Code(),
			Message:    fmt.Sprintf("missing required field %q", e.Field),
			StatusCode: http.StatusBadRequest,
		}
	case WrongType:
		return &ErrorEnvelope{
			Kind:       KindInvalidParam,
			Code:       KindInvalidParam.Code(),
			Message:    fmt.Sprintf("field %q must be a valid %s", e.Field, e.Expected),
			StatusCode: http.StatusBadRequest,
		}
	case MalformedBody:
		kind := KindBadJSON
		if errors.Is(e.Cause, wire.ErrMalformed) {
			kind = KindNotJSON
		}
		return &ErrorEnvelope{
			Kind:       kind,
			Code:       kind.Code(),
			Message:    e.messageWithCause("request body is malformed"),
			StatusCode: http.StatusBadRequest,
		}
	case MethodMismatch:
		return &ErrorEnvelope{
			Kind:       KindUnrecognizedRequest,
			Code:       KindUnrecognizedRequest.Code(),
			Message:    e.messageWithCause("method not allowed"),
			StatusCode: http.StatusMethodNotAllowed,
		}
	default:
		return &ErrorEnvelope{
			Kind:       KindUnrecognizedRequest,
			Code:       KindUnrecognizedRequest.Code(),
			Message:    e.messageWithCause("unrecognized request"),
			StatusCode: http.StatusNotFound,
		}
	}
}

func (e *DecodeError) messageWithCause(fallback string) string {
	message := fallback
	if e.Detail != "" {
		message = e.Detail
	}
	if e.Cause != nil {
		message += ": " + e.Cause.Error()
	}
	return message
}

// IsDecodeError reports whether err is a *DecodeError of the given kind.
func IsDecodeError(err error, kind DecodeErrorKind) bool {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Kind == kind
	}
	return false
}
