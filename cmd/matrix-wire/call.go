// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/cmd/matrix-wire/cli"
	"github.com/bureau-foundation/matrixwire/lib/config"
	"github.com/bureau-foundation/matrixwire/messaging"
)

type callParams struct {
	configParams
	Signature string `flag:"signature" desc:"precomputed X-Matrix Authorization value for server-signed endpoints"`
}

func callCommand(stdio streams) *cli.Command {
	var params callParams
	return &cli.Command{
		Name:    "call",
		Summary: "Send a request to the configured homeserver",
		Description: `Build a request from a fixture (see "encode"), send it to the homeserver
named by client.homeserver and print the parsed response. The path
variant is negotiated against the server's /versions unless
client.version pins one; the access token comes from the variable named
by client.access_token_env.

Error responses print the envelope and exit with status 1.`,
		Usage: "matrix-wire call <endpoint> [fixture] [flags]",
		Examples: []cli.Example{
			{
				Description: "Check whose token is configured",
				Command:     "echo '{}' | matrix-wire call client.whoami --config matrix-wire.yaml",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("call", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("usage: matrix-wire call <endpoint> [fixture]")
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
			cfg, err := params.load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			client, err := newMessagingClient(cfg, logger)
			if err != nil {
				return err
			}
			defer client.CloseIdleConnections()
			return call(ctx, stdio.out, client, route, input, cfg.Client.AccessToken(), params.Signature)
		},
	}
}

func call(ctx context.Context, w io.Writer, client *messaging.Client, route api.Dynamic, fixture []byte, accessToken, signature string) error {
	options, err := client.BuildOptions(ctx, accessToken)
	if err != nil {
		return err
	}
	options.ServerSignature = signature
	message, err := encodeRequest(route, fixture, options)
	if err != nil {
		if errors.Is(err, api.ErrNeedsAuthentication) {
			return fmt.Errorf("%w (set the variable named by client.access_token_env)", err)
		}
		return err
	}
	if message.NeedsSignature {
		return fmt.Errorf("%s is server-signed; pass --signature", route.Metadata().Name)
	}

	incoming, err := client.Exchange(ctx, message)
	if err != nil {
		return err
	}
	response, err := route.NormalizeResponse(incoming)
	if err != nil {
		return err
	}
	return reportEnvelope(w, response)
}

// newMessagingClient builds a client for the configured homeserver.
func newMessagingClient(cfg *config.Config, logger *slog.Logger) (*messaging.Client, error) {
	if cfg.Client.Homeserver == "" {
		return nil, errors.New("client.homeserver is not configured")
	}
	timeout, err := cfg.Client.RequestTimeout()
	if err != nil {
		return nil, err
	}
	var version *api.Version
	if cfg.Client.Version != "" {
		parsed, err := api.ParseVersion(cfg.Client.Version)
		if err != nil {
			return nil, fmt.Errorf("client.version: %w", err)
		}
		version = &parsed
	}
	return messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Client.Homeserver,
		HTTPClient:    &http.Client{Timeout: timeout},
		Logger:        logger,
		Version:       version,
		AllowUnstable: cfg.Client.AllowUnstable,
	})
}
