// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// QueryPair is one key=value pair of a query string, unescaped.
type QueryPair struct {
	Name  string `cbor:"name"`
	Value string `cbor:"value"`
}

// OutgoingMessage is a request ready to hand to a transport. It is built
// once and not modified afterwards, except for [OutgoingMessage.Sign]
// filling a reserved signature slot.
//
// The cbor tags define the socket-transport form; see lib/codec.
type OutgoingMessage struct {
	// Endpoint is the Metadata.Name the message was built from.
	Endpoint string `cbor:"endpoint"`
	Method   string `cbor:"method"`
	// BaseURL is the scheme and authority ("https://matrix.example.org")
	// the path is resolved against. Empty when the message was built
	// with [Endpoint.Encode] directly.
	BaseURL string `cbor:"base_url,omitempty"`
	// Path is percent-encoded and starts with "/".
	Path   string      `cbor:"path"`
	Query  []QueryPair `cbor:"query,omitempty"`
	Header http.Header `cbor:"header,omitempty"`
	Body   []byte      `cbor:"body,omitempty"`
	// NeedsSignature is set for server-signed endpoints whose
	// Authorization header has not been supplied yet.
	NeedsSignature bool `cbor:"needs_signature,omitempty"`
}

// RawQuery encodes Query in order.
func (m *OutgoingMessage) RawQuery() string {
	var builder strings.Builder
	for index, pair := range m.Query {
		if index > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(url.QueryEscape(pair.Name))
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(pair.Value))
	}
	return builder.String()
}

// URL returns BaseURL, path and query joined.
func (m *OutgoingMessage) URL() string {
	target := strings.TrimSuffix(m.BaseURL, "/") + m.Path
	if query := m.RawQuery(); query != "" {
		target += "?" + query
	}
	return target
}

// Sign fills the reserved signature slot with a precomputed
// Authorization header value ("X-Matrix origin=...,key=...,sig=...").
func (m *OutgoingMessage) Sign(authorization string) {
	if m.Header == nil {
		m.Header = make(http.Header)
	}
	m.Header.Set("Authorization", authorization)
	m.NeedsSignature = false
}

// HTTPRequest converts the message to an *http.Request. BaseURL must be
// set.
func (m *OutgoingMessage) HTTPRequest(ctx context.Context) (*http.Request, error) {
	if m.BaseURL == "" {
		return nil, fmt.Errorf("api: %s message has no base URL", m.Endpoint)
	}
	if m.NeedsSignature {
		return nil, fmt.Errorf("api: %s message is missing its server signature", m.Endpoint)
	}
	var body io.Reader
	if m.Body != nil {
		body = bytes.NewReader(m.Body)
	}
	request, err := http.NewRequestWithContext(ctx, m.Method, m.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("api: creating %s request: %w", m.Endpoint, err)
	}
	for name, values := range m.Header {
		for _, value := range values {
			request.Header.Add(name, value)
		}
	}
	return request, nil
}

// Incoming returns the message as a server would receive it.
func (m *OutgoingMessage) Incoming() *IncomingMessage {
	return &IncomingMessage{
		Method:   m.Method,
		Path:     m.Path,
		RawQuery: m.RawQuery(),
		Header:   m.Header.Clone(),
		Body:     bytes.Clone(m.Body),
	}
}

// IncomingMessage is a raw message received from a transport: a request
// (Method set) in the server role or a response (StatusCode set) in the
// client role.
type IncomingMessage struct {
	Method     string `cbor:"method,omitempty"`
	StatusCode int    `cbor:"status,omitempty"`
	// Path is the percent-encoded request path, as from
	// url.URL.EscapedPath. Empty for responses.
	Path     string      `cbor:"path,omitempty"`
	RawQuery string      `cbor:"query,omitempty"`
	Header   http.Header `cbor:"header,omitempty"`
	Body     []byte      `cbor:"body,omitempty"`
}

// OutgoingResponse is a response ready to hand to a transport in the
// server role.
type OutgoingResponse struct {
	StatusCode int         `cbor:"status"`
	Header     http.Header `cbor:"header,omitempty"`
	Body       []byte      `cbor:"body,omitempty"`
}

// Incoming returns the response as a client would receive it.
func (r *OutgoingResponse) Incoming() *IncomingMessage {
	return &IncomingMessage{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       bytes.Clone(r.Body),
	}
}

// Send writes the response to an http.ResponseWriter.
func (r *OutgoingResponse) Send(writer http.ResponseWriter) error {
	for name, values := range r.Header {
		for _, value := range values {
			writer.Header().Add(name, value)
		}
	}
	writer.WriteHeader(r.StatusCode)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := writer.Write(r.Body)
	return err
}
