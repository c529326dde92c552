// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body I/O for the transport
// embeddings of the transcoding core.
//
// Every body read from the network goes through ReadLimited, so a
// misbehaving or malicious peer cannot make the process allocate an
// unbounded buffer. Bodies sent with Content-Encoding gzip or zstd are
// decompressed before the limit is applied, which bounds the decoded
// size rather than the compressed size.
//
// These helpers are for JSON API messages and media uploads, not for
// streaming responses, which should be read incrementally with io.Copy.
package netutil

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// MaxResponseSize is the bound on response body reads: 256 MB. This
// exists solely to prevent a pathological response from exhausting
// memory. Legitimate Matrix API responses are orders of magnitude
// smaller.
const MaxResponseSize int64 = 256 << 20

// MaxRequestSize is the default bound on request bodies accepted by a
// server: 100 MB, large enough for media uploads.
const MaxRequestSize int64 = 100 << 20

// ErrTooLarge is returned when a body exceeds its read limit.
var ErrTooLarge = errors.New("netutil: body exceeds size limit")

// ErrUnsupportedEncoding is returned for a Content-Encoding this package
// cannot decode.
var ErrUnsupportedEncoding = errors.New("netutil: unsupported content encoding")

// ReadLimited reads body completely, failing with ErrTooLarge when it
// holds more than limit bytes.
func ReadLimited(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}

// ReadEncoded decodes body according to a Content-Encoding header value
// and reads the decoded bytes with ReadLimited. Supported encodings are
// identity (or empty), gzip and zstd.
func ReadEncoded(body io.Reader, contentEncoding string, limit int64) ([]byte, error) {
	switch encoding := strings.ToLower(strings.TrimSpace(contentEncoding)); encoding {
	case "", "identity":
		return ReadLimited(body, limit)
	case "gzip", "x-gzip":
		reader, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("netutil: opening gzip body: %w", err)
		}
		defer reader.Close()
		return ReadLimited(reader, limit)
	case "zstd":
		decoder, err := zstd.NewReader(body, zstd.WithDecoderMaxMemory(uint64(limit)+1))
		if err != nil {
			return nil, fmt.Errorf("netutil: opening zstd body: %w", err)
		}
		defer decoder.Close()
		return ReadLimited(decoder, limit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}
}

// maxSnippet bounds Snippet output.
const maxSnippet = 512

// Snippet returns the start of a body for log and error messages: at
// most 512 bytes, cut on a rune boundary, with invalid UTF-8 replaced.
func Snippet(body []byte) string {
	if len(body) <= maxSnippet {
		return strings.ToValidUTF8(string(body), "\ufffd")
	}
	cut := maxSnippet
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return strings.ToValidUTF8(string(body[:cut]), "\ufffd") + fmt.Sprintf("... (%d bytes)", len(body))
}
