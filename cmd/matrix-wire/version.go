// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/cmd/matrix-wire/cli"
	"github.com/bureau-foundation/matrixwire/endpoints"
	"github.com/bureau-foundation/matrixwire/lib/version"
)

type versionView struct {
	version.Build
	Endpoints     int    `json:"endpoints"`
	NewestVersion string `json:"newest_matrix_version"`
	OldestVersion string `json:"oldest_matrix_version"`
}

func versionCommand(stdio streams) *cli.Command {
	var params cli.JSONOutput
	return &cli.Command{
		Name:    "version",
		Summary: "Print build and catalogue information",
		Usage:   "matrix-wire version [--json]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("version", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			view := newVersionView(version.Current(), endpoints.All())
			if done, err := params.EmitJSON(stdio.out, view); done {
				return err
			}
			fmt.Fprintln(stdio.out, view.Full())
			fmt.Fprintf(stdio.out, "  Endpoints: %d (Matrix %s through %s)\n", view.Endpoints, view.OldestVersion, view.NewestVersion)
			return nil
		},
	}
}

// newVersionView summarizes the catalogue by the span of stable
// versions its variants are introduced at.
func newVersionView(build version.Build, routes []api.Route) versionView {
	view := versionView{Build: build, Endpoints: len(routes)}
	var oldest, newest *api.Version
	for _, route := range routes {
		for _, variant := range route.Metadata().Variants {
			if variant.Stability == api.Unstable {
				continue
			}
			current := variant.Version
			if oldest == nil || current.Compare(*oldest) < 0 {
				oldest = &current
			}
			if newest == nil || current.Compare(*newest) > 0 {
				newest = &current
			}
		}
	}
	if oldest != nil {
		view.OldestVersion, view.NewestVersion = oldest.String(), newest.String()
	}
	return view
}
