// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging sends typed Matrix requests over net/http.
//
// A [Client] holds the peer's base URL, the HTTP transport and the
// version policy. Every request goes through an [api.Endpoint]: the
// endpoint's builder picks a path variant, the client sends the
// resulting message, and the endpoint parses the response. Nothing in
// this package formats a URL or a JSON body by hand.
//
// When no protocol version is pinned, the client fetches
// /_matrix/client/versions once and negotiates every later request
// against the cached answer. [Client.ForgetVersions] drops the cache
// after a server upgrade.
//
// [Session] adds an access token. [Do] sends any endpoint through a
// Client, [Call] through a Session; the Session methods are thin
// wrappers over Call for the operations callers need most often.
//
// Errors from the server are returned as [*api.ErrorEnvelope], so
// [api.IsErrorCode] and errors.As work on every failure that reached
// the server. Transport failures are wrapped with a "messaging:" prefix.
//
// A non-nil prometheus.Registerer in [ClientConfig] enables request
// counters and latency histograms labelled by endpoint name, status and
// errcode.
package messaging
