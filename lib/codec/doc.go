// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR form of the transport envelopes in package
// api.
//
// The Matrix wire format is JSON and never passes through here. The
// envelopes around it do: an api.OutgoingMessage written by
// "matrix-wire encode -f cbor" and read back by "matrix-wire decode
// request -f cbor", or an api.IncomingMessage recorded for replay.
// Bodies stay opaque byte strings, so the JSON bytes survive unchanged.
//
// Encoding is deterministic (RFC 8949 §4.2), which keeps recorded
// envelopes diffable. Decoding ignores unknown fields and rejects
// trailing bytes.
package codec
