// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"net/http"

	"github.com/bureau-foundation/matrixwire/lib/netutil"
)

// IncomingFromHTTPRequest reads a server-side *http.Request into an
// IncomingMessage. The body is decoded per Content-Encoding and bounded
// at limit bytes; a body over the limit fails with netutil.ErrTooLarge.
func IncomingFromHTTPRequest(request *http.Request, limit int64) (*IncomingMessage, error) {
	incoming := &IncomingMessage{
		Method:   request.Method,
		Path:     request.URL.EscapedPath(),
		RawQuery: request.URL.RawQuery,
		Header:   request.Header.Clone(),
	}
	if request.Body == nil || request.Body == http.NoBody {
		return incoming, nil
	}
	body, err := netutil.ReadEncoded(request.Body, request.Header.Get("Content-Encoding"), limit)
	if err != nil {
		return nil, fmt.Errorf("api: reading %s %s body: %w", request.Method, incoming.Path, err)
	}
	incoming.Body = body
	incoming.Header.Del("Content-Encoding")
	return incoming, nil
}

// IncomingFromHTTPResponse reads a client-side *http.Response into an
// IncomingMessage, bounded at netutil.MaxResponseSize. The caller still
// closes the response body.
func IncomingFromHTTPResponse(response *http.Response) (*IncomingMessage, error) {
	incoming := &IncomingMessage{
		StatusCode: response.StatusCode,
		Header:     response.Header.Clone(),
	}
	body, err := netutil.ReadEncoded(response.Body, response.Header.Get("Content-Encoding"), netutil.MaxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("api: reading HTTP %d response body: %w", response.StatusCode, err)
	}
	incoming.Body = body
	incoming.Header.Del("Content-Encoding")
	return incoming, nil
}
