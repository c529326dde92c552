// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire is the intermediate value model for Matrix request and
// response bodies.
//
// A [Value] is a small tagged union over the JSON data model (null,
// bool, number, string, array, object) plus a Raw leaf that holds an
// already-encoded JSON span verbatim. Raw values are never interpreted:
// they are copied through unchanged on serialization, which is how
// fields a peer sent but this code does not understand survive a
// decode/re-encode cycle byte-for-byte.
//
// [Object] preserves member insertion order. [Marshal] never sorts keys
// and never fails, so the same Value always produces the same bytes.
// Peers that hash or sign request bodies depend on that.
//
// Numbers are stored as their literal text. A number parsed from the
// wire is written back exactly as received ("1.0" stays "1.0").
//
// Parsing entry points:
//
//   - [Parse] builds a full tree and fails with [ErrMalformed] on any
//     syntax error.
//   - [ParseObjectMembers] parses only the top level of an object and
//     keeps each member value as a Raw span of the input.
//   - [ParseJSONC] accepts JSON with comments and trailing commas, for
//     hand-authored fixture files.
package wire
