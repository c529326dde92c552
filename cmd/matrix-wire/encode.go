// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/cmd/matrix-wire/cli"
	"github.com/bureau-foundation/matrixwire/lib/codec"
)

type encodeParams struct {
	versionParams
	BaseURL   string `flag:"base-url" desc:"scheme and host the request is addressed to" default:"https://localhost"`
	TokenEnv  string `flag:"token-env" desc:"environment variable holding the access token" default:"MATRIXWIRE_ACCESS_TOKEN"`
	Signature string `flag:"signature" desc:"precomputed X-Matrix Authorization value for server-signed endpoints"`
	Format    string `flag:"format,f" desc:"output format: json, http, cbor or diag" default:"json"`
}

func encodeCommand(stdio streams) *cli.Command {
	var params encodeParams
	return &cli.Command{
		Name:    "encode",
		Summary: "Build the wire message for a request",
		Description: `Build the HTTP request an endpoint sends for the request described by a
fixture file (or stdin). The fixture is JSON with comments, with
optional "path", "query", "header" and "body" (or "body_text") members.

The path variant is the newest stable one unless --version, --unstable
or --versions-file say otherwise. Access-token endpoints read the token
from the variable named by --token-env.`,
		Usage: "matrix-wire encode <endpoint> [fixture] [flags]",
		Examples: []cli.Example{
			{
				Description: "Encode a createRoom request for an r0 homeserver",
				Command:     "matrix-wire encode client.create_room room.jsonc --version r0.6.1",
			},
			{
				Description: "Show the CBOR socket envelope in diagnostic notation",
				Command:     `echo '{"path": {"roomAlias": "#ops:example.org"}}' | matrix-wire encode client.get_room_alias -f diag`,
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("encode", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("usage: matrix-wire encode <endpoint> [fixture]")
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
			options, err := params.buildOptions()
			if err != nil {
				return err
			}
			options.BaseURL = params.BaseURL
			options.AccessToken = os.Getenv(params.TokenEnv)
			options.ServerSignature = params.Signature

			message, err := encodeRequest(route, input, options)
			if err != nil {
				return err
			}
			return writeMessage(ctx, stdio.out, message, params.Format)
		},
	}
}

func encodeRequest(route api.Dynamic, fixture []byte, options api.BuildOptions) (*api.OutgoingMessage, error) {
	parts, err := parseRequestFixture(fixture)
	if err != nil {
		return nil, err
	}
	return route.BuildParts(options, parts)
}

// writeMessage renders message as the JSON view, raw HTTP/1.1, the CBOR
// socket envelope or that envelope's diagnostic notation.
func writeMessage(ctx context.Context, w io.Writer, message *api.OutgoingMessage, format string) error {
	switch format {
	case "json":
		return cli.WriteJSON(w, newMessageView(message))
	case "http":
		request, err := message.HTTPRequest(ctx)
		if err != nil {
			return err
		}
		return request.Write(w)
	case "cbor":
		data, err := codec.Marshal(message)
		if err != nil {
			return fmt.Errorf("encoding CBOR: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "diag":
		data, err := codec.Marshal(message)
		if err != nil {
			return fmt.Errorf("encoding CBOR: %w", err)
		}
		diagnostic, err := codec.Diagnose(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, diagnostic)
		return err
	default:
		return fmt.Errorf("unknown format %q (want json, http, cbor or diag)", format)
	}
}
