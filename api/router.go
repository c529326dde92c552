// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
)

// Route is the type-erased view of an endpoint that a Router dispatches
// on. Every *Endpoint implements it.
type Route interface {
	Metadata() Metadata
}

// Router maps an observed method and path to the single route that
// serves it. It is built once from a fixed set of routes and is
// immutable afterwards.
type Router struct {
	routes []Route
}

// NewRouter builds a router. Two routes with the same method whose
// variant templates can match a common concrete path are rejected, as
// are duplicate endpoint names: dispatch must never depend on
// declaration order.
func NewRouter(routes ...Route) (*Router, error) {
	names := make(map[string]bool, len(routes))
	for _, route := range routes {
		metadata := route.Metadata()
		if names[metadata.Name] {
			return nil, configErrorf(metadata.Name, "endpoint registered twice")
		}
		names[metadata.Name] = true
	}

	for i := range routes {
		for j := i + 1; j < len(routes); j++ {
			left, right := routes[i].Metadata(), routes[j].Metadata()
			if left.Method != right.Method {
				continue
			}
			for _, leftVariant := range left.Variants {
				for _, rightVariant := range right.Variants {
					if pathtemplate.Overlaps(leftVariant.Template, rightVariant.Template) {
						return nil, configErrorf(left.Name,
							"%s %s overlaps %s %s of %s",
							left.Method, leftVariant.Template,
							right.Method, rightVariant.Template, right.Name)
					}
				}
			}
		}
	}
	return &Router{routes: slices.Clone(routes)}, nil
}

// MustRouter is like NewRouter but panics on error.
func MustRouter(routes ...Route) *Router {
	router, err := NewRouter(routes...)
	if err != nil {
		panic(err)
	}
	return router
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []Route { return slices.Clone(r.routes) }

// Lookup finds the route serving method and path (percent-encoded, no
// query). It fails with an UnmatchedPath DecodeError when no template
// matches and a MethodMismatch DecodeError when templates match only
// under other methods.
func (r *Router) Lookup(method, path string) (Route, PathVariant, error) {
	var allowed []string
	for _, route := range r.routes {
		metadata := route.Metadata()
		for _, variant := range metadata.Variants {
			if _, ok := variant.Template.Match(path); !ok {
				continue
			}
			if metadata.Method == method {
				return route, variant, nil
			}
			if !slices.Contains(allowed, metadata.Method) {
				allowed = append(allowed, metadata.Method)
			}
		}
	}
	if len(allowed) > 0 {
		slices.Sort(allowed)
		return nil, PathVariant{}, &DecodeError{
			Kind:   MethodMismatch,
			Detail: fmt.Sprintf("%s %s: allowed methods %s", method, path, strings.Join(allowed, ", ")),
		}
	}
	return nil, PathVariant{}, &DecodeError{Kind: UnmatchedPath, Detail: fmt.Sprintf("no endpoint serves %s %s", method, path)}
}

// AllowedMethods returns the methods registered for path, sorted.
func (r *Router) AllowedMethods(path string) []string {
	var allowed []string
	for _, route := range r.routes {
		metadata := route.Metadata()
		for _, variant := range metadata.Variants {
			if _, ok := variant.Template.Match(path); ok && !slices.Contains(allowed, metadata.Method) {
				allowed = append(allowed, metadata.Method)
			}
		}
	}
	slices.Sort(allowed)
	return allowed
}
