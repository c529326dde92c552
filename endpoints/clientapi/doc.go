// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clientapi declares the client-server API endpoints this
// module speaks: version discovery, login, rooms, events, media upload,
// push rules and pushers.
//
// Each endpoint is a package-level *api.Endpoint built at init. Request
// and response types carry placement tags (path, query, header, json,
// wire) that the api package compiles once. Identifiers use the
// validated types from lib/ref; event content stays a [wire.Value] so
// unknown keys survive a round trip untouched.
//
// [Routes] lists every endpoint for registration with an [api.Router].
package clientapi
