// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package endpoints collects the endpoint catalogues into one route
// list, used by the CLI and by tests that check the whole set for
// routing ambiguity.
package endpoints

import (
	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/endpoints/appserviceapi"
	"github.com/bureau-foundation/matrixwire/endpoints/clientapi"
	"github.com/bureau-foundation/matrixwire/endpoints/federationapi"
	"github.com/bureau-foundation/matrixwire/endpoints/identityapi"
	"github.com/bureau-foundation/matrixwire/endpoints/pushgatewayapi"
)

// All returns every declared endpoint, grouped by API.
func All() []api.Route {
	var routes []api.Route
	routes = append(routes, clientapi.Routes()...)
	routes = append(routes, federationapi.Routes()...)
	routes = append(routes, appserviceapi.Routes()...)
	routes = append(routes, identityapi.Routes()...)
	routes = append(routes, pushgatewayapi.Routes()...)
	return routes
}

// Find returns the endpoint with the given Metadata.Name.
func Find(name string) (api.Route, bool) {
	for _, route := range All() {
		if route.Metadata().Name == name {
			return route, true
		}
	}
	return nil, false
}
