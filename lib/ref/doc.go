// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated, immutable Matrix identifiers for use
// as typed endpoint fields.
//
// Every identifier that can appear in a request path, query string or
// body has a value type here: [UserID] (@local:server), [RoomID]
// (!opaque:server), [RoomAlias] (#alias:server), [RoomIDOrAlias] (either
// of the two room forms, dispatched on the sigil), [EventID] ($opaque,
// optionally :server for old room versions) and [ServerName].
//
// All of them implement encoding.TextMarshaler and
// encoding.TextUnmarshaler. The transcoder uses those methods for path,
// query and header placement, and encoding/json uses them for body
// fields, so an identifier received from a peer is validated at the
// boundary: a malformed room ID in a request path is a decode error, not
// a string that leaks into handler code.
//
// The zero value of each type is not a valid identifier; IsZero reports
// it. Marshaling a zero identifier produces the empty string.
package ref
