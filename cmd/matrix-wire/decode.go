// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/cmd/matrix-wire/cli"
	"github.com/bureau-foundation/matrixwire/endpoints"
	"github.com/bureau-foundation/matrixwire/lib/codec"
	"github.com/bureau-foundation/matrixwire/lib/netutil"
)

func decodeCommand(stdio streams) *cli.Command {
	return &cli.Command{
		Name:    "decode",
		Summary: "Parse a received request or response",
		Description: `Parse a wire message the way the receiving side would, then print it
re-encoded. Rejected requests and error responses print the error
envelope and exit with status 1.`,
		Subcommands: []*cli.Command{
			decodeRequestCommand(stdio),
			decodeResponseCommand(stdio),
		},
	}
}

type decodeRequestParams struct {
	Endpoint string `flag:"endpoint,e" desc:"endpoint to parse with (default: route by method and path)"`
	Format   string `flag:"format,f" desc:"input format: http or cbor" default:"http"`
}

func decodeRequestCommand(stdio streams) *cli.Command {
	var params decodeRequestParams
	return &cli.Command{
		Name:    "request",
		Summary: "Parse a request as a server would",
		Description: `Read a raw HTTP/1.1 request or a CBOR socket envelope (as written by
"encode -f http" and "encode -f cbor"), route it to its endpoint and
print the normalized request.`,
		Usage: "matrix-wire decode request [file] [flags]",
		Examples: []cli.Example{
			{
				Description: "Round-trip a request through the parser",
				Command:     "matrix-wire encode client.whoami -f http | matrix-wire decode request",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("request", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("usage: matrix-wire decode request [file]")
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			input, err := cli.ReadInput(path, stdio.in)
			if err != nil {
				return err
			}
			return decodeRequest(stdio.out, input, params)
		},
	}
}

func decodeRequest(w io.Writer, input []byte, params decodeRequestParams) error {
	incoming, name, err := readIncomingRequest(input, params.Format)
	if err != nil {
		return err
	}
	if params.Endpoint != "" {
		name = params.Endpoint
	}

	var route api.Dynamic
	if name != "" {
		if route, err = findEndpoint(name); err != nil {
			return err
		}
	} else {
		router, err := api.NewRouter(endpoints.All()...)
		if err != nil {
			return err
		}
		matched, _, err := router.Lookup(incoming.Method, incoming.Path)
		if err != nil {
			return reportEnvelope(w, api.EncodeErrorResponse(lookupEnvelope(err)))
		}
		if route, err = findEndpoint(matched.Metadata().Name); err != nil {
			return err
		}
	}

	message, envelope := route.NormalizeRequest(incoming)
	if envelope != nil {
		return reportEnvelope(w, route.EncodeError(envelope))
	}
	return cli.WriteJSON(w, newMessageView(message))
}

func readIncomingRequest(input []byte, format string) (*api.IncomingMessage, string, error) {
	switch format {
	case "http":
		request, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(input)))
		if err != nil {
			return nil, "", fmt.Errorf("reading HTTP request: %w", err)
		}
		incoming, err := api.IncomingFromHTTPRequest(request, netutil.MaxRequestSize)
		if err != nil {
			return nil, "", err
		}
		return incoming, "", nil
	case "cbor":
		var message api.OutgoingMessage
		if err := codec.Unmarshal(input, &message); err != nil {
			return nil, "", fmt.Errorf("decoding CBOR envelope: %w", err)
		}
		return message.Incoming(), message.Endpoint, nil
	default:
		return nil, "", fmt.Errorf("unknown format %q (want http or cbor)", format)
	}
}

func lookupEnvelope(err error) *api.ErrorEnvelope {
	var decodeErr *api.DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Envelope()
	}
	return api.NewError(api.KindUnrecognizedRequest, err.Error())
}

type decodeResponseParams struct {
	Status int `flag:"status,s" desc:"HTTP status the body arrived with" default:"200"`
}

func decodeResponseCommand(stdio streams) *cli.Command {
	var params decodeResponseParams
	return &cli.Command{
		Name:    "response",
		Summary: "Parse a response body as a client would",
		Description: `Parse a response body received from an endpoint. Success bodies must
decode as the endpoint's response type; error bodies are read as error
envelopes, with unknown errcodes and extra members preserved.`,
		Usage: "matrix-wire decode response <endpoint> [file] [flags]",
		Examples: []cli.Example{
			{
				Description: "Check a rate-limit error",
				Command:     `echo '{"errcode":"M_LIMIT_EXCEEDED","retry_after_ms":500}' | matrix-wire decode response client.login -s 429`,
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("response", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("usage: matrix-wire decode response <endpoint> [file]")
			}
			route, err := findEndpoint(args[0])
			if err != nil {
				return err
			}
			var path string
			if len(args) == 2 {
				path = args[1]
			}
			input, err := cli.ReadInput(path, stdio.in)
			if err != nil {
				return err
			}
			return decodeResponse(stdio.out, route, params.Status, input)
		},
	}
}

func decodeResponse(w io.Writer, route api.Dynamic, status int, body []byte) error {
	response, err := route.NormalizeResponse(&api.IncomingMessage{StatusCode: status, Body: body})
	if err != nil {
		return err
	}
	return reportEnvelope(w, response)
}

// reportEnvelope prints response and turns a non-2xx status into exit
// status 1.
func reportEnvelope(w io.Writer, response *api.OutgoingResponse) error {
	if err := cli.WriteJSON(w, newResponseView(response)); err != nil {
		return err
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
