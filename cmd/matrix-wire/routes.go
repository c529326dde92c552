// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/cmd/matrix-wire/cli"
	"github.com/bureau-foundation/matrixwire/endpoints"
)

type routesParams struct {
	cli.JSONOutput
	API string `flag:"api" desc:"only list endpoints of one API (client, federation, appservice, identity, push)"`
}

type variantView struct {
	Version   string `json:"version"`
	Stability string `json:"stability"`
	Feature   string `json:"feature,omitempty"`
	Template  string `json:"template"`
}

type routeView struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Method       string        `json:"method"`
	Auth         string        `json:"auth"`
	AuthRequired bool          `json:"auth_required,omitempty"`
	RateLimited  bool          `json:"rate_limited,omitempty"`
	Experimental bool          `json:"experimental,omitempty"`
	Variants     []variantView `json:"variants"`
}

func routesCommand(stdio streams) *cli.Command {
	var params routesParams
	return &cli.Command{
		Name:    "routes",
		Summary: "List endpoint descriptors",
		Description: `List every endpoint in the catalogue with its method, credential
requirement and path variants, newest first.`,
		Usage: "matrix-wire routes [flags]",
		Examples: []cli.Example{
			{Description: "Federation endpoints as JSON", Command: "matrix-wire routes --api federation --json"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("routes", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return listRoutes(stdio.out, params)
		},
	}
}

func listRoutes(w io.Writer, params routesParams) error {
	var views []routeView
	for _, route := range endpoints.All() {
		metadata := route.Metadata()
		if params.API != "" && !strings.HasPrefix(metadata.Name, params.API+".") {
			continue
		}
		views = append(views, newRouteView(metadata))
	}
	if params.API != "" && len(views) == 0 {
		return fmt.Errorf("no endpoints for API %q", params.API)
	}

	if done, err := params.EmitJSON(w, views); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMETHOD\tAUTH\tVERSION\tPATH")
	for _, view := range views {
		auth := view.Auth
		if view.Auth != api.AuthNone.String() && !view.AuthRequired {
			auth += " (optional)"
		}
		for index, variant := range view.Variants {
			name, method := view.Name, view.Method
			if index > 0 {
				name, method, auth = "", "", ""
			}
			version := variant.Version
			if variant.Stability == api.Unstable.String() {
				version += " unstable"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, method, auth, version, variant.Template)
		}
	}
	return tw.Flush()
}

func newRouteView(metadata api.Metadata) routeView {
	view := routeView{
		Name:         metadata.Name,
		Description:  metadata.Description,
		Method:       metadata.Method,
		Auth:         metadata.Auth.Scheme.String(),
		AuthRequired: metadata.Auth.Required,
		RateLimited:  metadata.RateLimited,
		Experimental: metadata.Experimental,
	}
	for _, variant := range metadata.Variants {
		view.Variants = append(view.Variants, variantView{
			Version:   variant.Version.String(),
			Stability: variant.Stability.String(),
			Feature:   variant.Feature,
			Template:  variant.Template.String(),
		})
	}
	return view
}
