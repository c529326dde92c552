// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/cmd/matrix-wire/cli"
	"github.com/bureau-foundation/matrixwire/endpoints"
	"github.com/bureau-foundation/matrixwire/lib/config"
)

// streams are the command's standard input and output. Tests replace
// them with buffers.
type streams struct {
	in  io.Reader
	out io.Writer
}

func root(stdio streams) *cli.Command {
	return &cli.Command{
		Name:    "matrix-wire",
		Summary: "Inspect, transcode and serve Matrix endpoint messages",
		Description: `matrix-wire works with the Matrix endpoint catalogue: the client-server,
federation, application service, identity and push gateway endpoints
described by the api package.

Offline commands (routes, encode, decode, negotiate) need no server.
"call" sends a request to the homeserver named in the configuration file
and "serve" answers requests from a directory of canned responses.`,
		Subcommands: []*cli.Command{
			routesCommand(stdio),
			encodeCommand(stdio),
			decodeCommand(stdio),
			negotiateCommand(stdio),
			callCommand(stdio),
			serveCommand(stdio),
			versionCommand(stdio),
		},
	}
}

// configParams adds --config to commands that read matrix-wire.yaml.
type configParams struct {
	ConfigPath string `flag:"config,c" desc:"configuration file (default: $MATRIXWIRE_CONFIG, else built-in defaults)"`
}

// load reads the configuration named by --config, then by
// MATRIXWIRE_CONFIG, falling back to the defaults.
func (p configParams) load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case p.ConfigPath != "":
		cfg, err = config.LoadFile(p.ConfigPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	return cli.NewCommandLogger(level, cfg.Log.Format)
}

// findEndpoint returns the catalogue endpoint with the given name.
func findEndpoint(name string) (api.Dynamic, error) {
	route, ok := endpoints.Find(name)
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %q (run 'matrix-wire routes' for the list)", name)
	}
	dynamic, ok := route.(api.Dynamic)
	if !ok {
		return nil, fmt.Errorf("endpoint %q cannot be used by name", name)
	}
	return dynamic, nil
}

// versionParams select the path variant for commands that build
// requests offline.
type versionParams struct {
	Version      string `flag:"version" desc:"pin the protocol version (e.g. v1.11, r0.6.1); default is the newest stable variant"`
	Unstable     bool   `flag:"unstable" desc:"allow unstable path variants"`
	VersionsFile string `flag:"versions-file" desc:"negotiate against a saved /versions response instead"`
}

func (p versionParams) buildOptions() (api.BuildOptions, error) {
	options := api.BuildOptions{AllowUnstable: p.Unstable}
	if p.Version != "" {
		version, err := api.ParseVersion(p.Version)
		if err != nil {
			return options, fmt.Errorf("--version: %w", err)
		}
		options.Version = &version
	}
	if p.VersionsFile != "" {
		data, err := os.ReadFile(p.VersionsFile)
		if err != nil {
			return options, err
		}
		supported, err := parseSupportedVersions(data)
		if err != nil {
			return options, fmt.Errorf("%s: %w", p.VersionsFile, err)
		}
		options.Supported = &supported
	}
	return options, nil
}
