// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package api is the endpoint descriptor and transcoding engine shared
// by the Matrix endpoint catalogues under endpoints/.
//
// An endpoint is declared once, at package init, as an
// Endpoint[Req, Resp]: static [Metadata] (method, versioned path
// variants, auth requirement) plus two Go struct types whose tags say
// where each field lives on the wire:
//
//	type SendMessageEventRequest struct {
//	    RoomID    ref.RoomID        `path:"roomId"`
//	    EventType ref.EventType     `path:"eventType"`
//	    TxnID     ref.TransactionID `path:"txnId"`
//	    Content   wire.Value        `wire:"newtype"`
//	}
//
// Field placements are path, query, header, JSON body member (the
// default, keyed by the json tag), whole raw body, newtype (the whole
// body is one field), extra-fields capture and query map. They are
// compiled once per type; a declaration that breaks an invariant is a
// [ConfigurationError], and MustEndpoint panics with it at init.
//
// Client role: [Endpoint.NewRequest] selects a variant (explicit version
// or negotiation against a /versions response), fills the credential
// slot and encodes the request into an [OutgoingMessage].
// [Endpoint.ParseResponse] turns the reply into the typed response or an
// [ErrorEnvelope].
//
// Server role: [Router] dispatches an [IncomingMessage] to its endpoint,
// [Endpoint.ParseRequest] decodes it or rejects it with a [DecodeError]
// that converts to the protocol error the peer should receive, and
// [Endpoint.EncodeResponse] / [Endpoint.EncodeError] produce the reply.
//
// Bodies are handled as [wire.Value] trees where byte fidelity matters:
// unknown members are captured as raw spans and re-encoded verbatim, and
// object members keep their wire order.
//
// Everything here except the HTTP adapters in httpio.go is pure
// computation over immutable tables and safe for concurrent use.
package api
