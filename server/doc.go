// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server serves declared endpoints over HTTP.
//
// Handlers are registered per endpoint in a [Registry]. [Registry.Build]
// checks the whole set for routing ambiguity through [api.NewRouter] and
// returns a [Server], an immutable http.Handler. For every request the
// Server reads the body (bounded, Content-Encoding decoded), finds the
// one route that serves the method and path, parses the request through
// that endpoint, and writes either the handler's typed response or an
// error envelope. Handlers never see a request that failed to decode.
//
// A handler that returns an *api.ErrorEnvelope sends it as-is. Any other
// error is logged and answered with M_UNKNOWN and status 500, so
// internal error text never reaches the peer.
//
// [Listener] runs a Server on a TCP address with graceful shutdown.
package server
