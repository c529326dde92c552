// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// ErrorEnvelope is the protocol error shape shared by every endpoint:
// an errcode, a human-readable message, and whatever other keys the peer
// sent. It implements error, so a client-role caller receives it from
// [Endpoint.ParseResponse] and inspects it with errors.As:
//
//	var envelope *api.ErrorEnvelope
//	if errors.As(err, &envelope) && envelope.Kind == api.KindLimitExceeded {
//	    delay, _ := envelope.RetryAfter()
//	    ...
//	}
type ErrorEnvelope struct {
	// Kind is the decoded errcode. KindUnrecognized means the code is
	// not in this package's table; Code then holds it verbatim.
	Kind ErrorKind
	// Code is the errcode as it appears on the wire.
	Code string
	// Message is the "error" member.
	Message string
	// Extra holds every other body member in wire order (retry_after_ms,
	// room_version, soft_logout, ...). Values decoded from the wire are
	// raw spans and re-encode byte-for-byte.
	Extra wire.Object
	// StatusCode is the HTTP status. Zero means "derive from Kind".
	StatusCode int

	// codeFromStatus marks an envelope decoded from a body with no
	// errcode, whose Code was synthesized from the status.
	codeFromStatus bool
	// messagePresent records a string "error" member on the wire, even
	// an empty one.
	messagePresent bool
	// order lists the received member keys. body replays it so a
	// decoded envelope re-encodes in wire order.
	order []string
}

// NewError returns an envelope for a known kind.
func NewError(kind ErrorKind, message string) *ErrorEnvelope {
	return &ErrorEnvelope{Kind: kind, Code: kind.Code(), Message: message}
}

// NewUnrecognizedError returns an envelope carrying an errcode outside
// the known table, such as a vendor-prefixed code.
func NewUnrecognizedError(code, message string) *ErrorEnvelope {
	return &ErrorEnvelope{Kind: KindForCode(code), Code: code, Message: message}
}

func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.code(), e.Status(), e.Message)
}

func (e *ErrorEnvelope) code() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.Code()
}

// Status returns the HTTP status for the envelope: StatusCode when set,
// else the default for Kind.
func (e *ErrorEnvelope) Status() int {
	return e.StatusFor(nil)
}

// StatusFor is like Status but consults an endpoint's per-kind status
// overrides before the default table.
func (e *ErrorEnvelope) StatusFor(overrides map[ErrorKind]int) int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	if status, ok := overrides[e.Kind]; ok {
		return status
	}
	return e.Kind.DefaultStatus()
}

// ToWire returns the HTTP status and the body object. An envelope
// decoded by [FromWire] re-encodes its members in received order, with
// an empty "error" kept if one was received. A constructed envelope
// holds errcode, then error (omitted when empty), then the extra
// members in order. Extra members never override errcode or error.
func (e *ErrorEnvelope) ToWire() (int, wire.Value) {
	return e.Status(), e.body()
}

func (e *ErrorEnvelope) body() wire.Value {
	var body wire.Object
	for _, key := range e.order {
		if body.Has(key) {
			continue
		}
		switch {
		case key == "errcode" && !e.codeFromStatus:
			body.Set(key, wire.String(e.code()))
		case key == "error" && (e.messagePresent || e.Message != ""):
			body.Set(key, wire.String(e.Message))
		default:
			if value, ok := e.Extra.Get(key); ok {
				body.Set(key, value)
			}
		}
	}
	if !e.codeFromStatus && !body.Has("errcode") {
		body.Set("errcode", wire.String(e.code()))
	}
	if e.Message != "" && !body.Has("error") {
		body.Set("error", wire.String(e.Message))
	}
	for _, member := range e.Extra.Members() {
		if body.Has(member.Key) {
			continue
		}
		body.Set(member.Key, member.Value)
	}
	return wire.ObjectValue(body)
}

// FromWire decodes a non-2xx response. It never fails: a body without an
// errcode yields KindUnrecognized with the decimal status as its Code,
// and a body that is not a JSON object yields the same with a message
// describing the malformed body.
func FromWire(status int, body []byte) *ErrorEnvelope {
	envelope := &ErrorEnvelope{StatusCode: status}

	members, err := wire.ParseObjectMembers(body)
	if err != nil {
		envelope.Code = strconv.Itoa(status)
		envelope.codeFromStatus = true
		envelope.Message = fmt.Sprintf("malformed error response body: %v", err)
		return envelope
	}

	for _, member := range members.Members() {
		envelope.order = append(envelope.order, member.Key)
		switch member.Key {
		case "errcode":
			var code string
			if member.Value.Decode(&code) == nil && envelope.Code == "" {
				envelope.Code = code
				continue
			}
		case "error":
			var message string
			if member.Value.Decode(&message) == nil && !envelope.messagePresent {
				envelope.Message = message
				envelope.messagePresent = true
				continue
			}
		}
		envelope.Extra.Set(member.Key, member.Value)
	}

	if envelope.Code == "" {
		envelope.Code = strconv.Itoa(status)
		envelope.codeFromStatus = true
		return envelope
	}
	envelope.Kind = KindForCode(envelope.Code)
	return envelope
}

// Synthesized reports whether Code was derived from the HTTP status
// because the decoded body carried no errcode, as with a proxy's HTML
// error page.
func (e *ErrorEnvelope) Synthesized() bool {
	return e.codeFromStatus
}

// RetryAfter returns the retry_after_ms hint of a rate-limit error.
func (e *ErrorEnvelope) RetryAfter() (time.Duration, bool) {
	value, ok := e.Extra.Get("retry_after_ms")
	if !ok {
		return 0, false
	}
	var milliseconds int64
	if err := value.Decode(&milliseconds); err != nil || milliseconds < 0 {
		return 0, false
	}
	return time.Duration(milliseconds) * time.Millisecond, true
}

// IsErrorCode reports whether err is an *ErrorEnvelope of the given kind.
func IsErrorCode(err error, kind ErrorKind) bool {
	var envelope *ErrorEnvelope
	if errors.As(err, &envelope) {
		return envelope.Kind == kind
	}
	return false
}
