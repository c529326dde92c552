// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/cmd/matrix-wire/cli"
	"github.com/bureau-foundation/matrixwire/endpoints"
)

type negotiateParams struct {
	configParams
	cli.JSONOutput
	VersionsFile string `flag:"versions-file" desc:"saved /versions response to negotiate against (default: ask the configured homeserver)"`
}

type negotiationView struct {
	Endpoint  string `json:"endpoint"`
	Version   string `json:"version,omitempty"`
	Stability string `json:"stability,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

func negotiateCommand(stdio streams) *cli.Command {
	var params negotiateParams
	return &cli.Command{
		Name:    "negotiate",
		Summary: "Show the path variant chosen against a server's /versions",
		Description: `For each named endpoint (all by default) show the path variant a client
would use against a server: the newest variant that is either stable at
or below the newest version the server advertises, or unstable with a
feature flag the server enables.`,
		Usage: "matrix-wire negotiate [endpoint...] [flags]",
		Examples: []cli.Example{
			{
				Description: "Against a saved response",
				Command:     "matrix-wire negotiate client.get_hierarchy --versions-file versions.json",
			},
			{
				Description: "Against the configured homeserver",
				Command:     "matrix-wire negotiate --config matrix-wire.yaml",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("negotiate", &params) },
		Run: func(ctx context.Context, args []string) error {
			supported, err := loadSupportedVersions(ctx, params)
			if err != nil {
				return err
			}
			return negotiate(stdio.out, supported, args, params.JSONOutput)
		},
	}
}

func loadSupportedVersions(ctx context.Context, params negotiateParams) (api.SupportedVersions, error) {
	if params.VersionsFile != "" {
		data, err := os.ReadFile(params.VersionsFile)
		if err != nil {
			return api.SupportedVersions{}, err
		}
		supported, err := parseSupportedVersions(data)
		if err != nil {
			return api.SupportedVersions{}, fmt.Errorf("%s: %w", params.VersionsFile, err)
		}
		return supported, nil
	}

	cfg, err := params.load()
	if err != nil {
		return api.SupportedVersions{}, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return api.SupportedVersions{}, err
	}
	client, err := newMessagingClient(cfg, logger)
	if err != nil {
		return api.SupportedVersions{}, err
	}
	defer client.CloseIdleConnections()
	supported, err := client.ServerVersions(ctx)
	if err != nil {
		return api.SupportedVersions{}, err
	}
	return *supported, nil
}

func negotiate(w io.Writer, supported api.SupportedVersions, names []string, output cli.JSONOutput) error {
	var routes []api.Route
	if len(names) == 0 {
		routes = endpoints.All()
	}
	for _, name := range names {
		route, err := findEndpoint(name)
		if err != nil {
			return err
		}
		routes = append(routes, route)
	}

	views := make([]negotiationView, 0, len(routes))
	for _, route := range routes {
		metadata := route.Metadata()
		view := negotiationView{Endpoint: metadata.Name}
		if variant, err := api.Negotiate(metadata, supported); err != nil {
			view.Error = err.Error()
		} else {
			view.Version = variant.Version.String()
			view.Stability = variant.Stability.String()
			view.Path = variant.Template.String()
		}
		views = append(views, view)
	}

	if done, err := output.EmitJSON(w, views); done {
		return err
	}

	if latest, ok := supported.Latest(); ok {
		fmt.Fprintf(w, "server advertises %s (newest), %d unstable features\n\n", latest, len(supported.UnstableFeatures))
	} else {
		fmt.Fprintf(w, "server advertises no recognized versions\n\n")
	}
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENDPOINT\tVERSION\tPATH")
	for _, view := range views {
		if view.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t%s\n", view.Endpoint, view.Error)
			continue
		}
		version := view.Version
		if view.Stability == api.Unstable.String() {
			version += " unstable"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", view.Endpoint, version, view.Path)
	}
	return tw.Flush()
}
