// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bureau-foundation/matrixwire/api"
)

// Handler serves one decoded request. The request is always in the
// Decoded state.
type Handler[Req, Resp any] func(ctx context.Context, request *api.IncomingRequest[Req]) (Resp, error)

type serveFunc func(ctx context.Context, incoming *api.IncomingMessage, logger *slog.Logger) *api.OutgoingResponse

type registration struct {
	route api.Dynamic
	serve serveFunc
}

// Registry collects handlers before the router is built. It is not safe
// for concurrent use.
type Registry struct {
	registrations []registration
	errs          []error
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register attaches handler to endpoint. Registering the same endpoint
// name twice is reported by Build.
func Register[Req, Resp any](registry *Registry, endpoint *api.Endpoint[Req, Resp], handler Handler[Req, Resp]) {
	registry.registrations = append(registry.registrations, registration{
		route: endpoint,
		serve: func(ctx context.Context, incoming *api.IncomingMessage, logger *slog.Logger) *api.OutgoingResponse {
			parsed := endpoint.ParseRequest(incoming)
			if parsed.State == api.Rejected {
				return endpoint.EncodeError(parsed.Envelope())
			}

			response, err := handler(ctx, parsed)
			if err != nil {
				return endpoint.EncodeError(handlerEnvelope(endpoint.Metadata().Name, err, logger))
			}
			encoded, err := endpoint.EncodeResponse(response)
			if err != nil {
				return endpoint.EncodeError(handlerEnvelope(endpoint.Metadata().Name, err, logger))
			}
			return encoded
		},
	})
}

// RegisterFixture answers every valid request to route with a canned
// response. Required credentials are checked as for [Register]. The fixture is parsed once, here, as a response with the
// given status: a 2xx body must decode as the endpoint's response type,
// and anything else is treated as an error envelope.
func (r *Registry) RegisterFixture(route api.Dynamic, status int, body []byte) {
	fixture, err := route.NormalizeResponse(&api.IncomingMessage{StatusCode: status, Body: body})
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("server: fixture for %s: %w", route.Metadata().Name, err))
		return
	}
	r.registrations = append(r.registrations, registration{
		route: route,
		serve: func(ctx context.Context, incoming *api.IncomingMessage, logger *slog.Logger) *api.OutgoingResponse {
			if _, envelope := route.NormalizeRequest(incoming); envelope != nil {
				return route.EncodeError(envelope)
			}
			return &api.OutgoingResponse{
				StatusCode: fixture.StatusCode,
				Header:     fixture.Header.Clone(),
				Body:       fixture.Body,
			}
		},
	})
}

// Build checks the registered routes for ambiguity and returns the
// Server. Fixture errors from RegisterFixture are reported here.
func (r *Registry) Build(config Config) (*Server, error) {
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	routes := make([]api.Route, len(r.registrations))
	handlers := make(map[string]serveFunc, len(r.registrations))
	for index, registration := range r.registrations {
		routes[index] = registration.route
		handlers[registration.route.Metadata().Name] = requireCredentials(registration.route, registration.serve)
	}
	router, err := api.NewRouter(routes...)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	return newServer(router, handlers, config)
}

// requireCredentials runs the credential check before serve decodes
// anything, so a request missing its token is answered with 401 even
// when its body is also malformed.
func requireCredentials(route api.Dynamic, serve serveFunc) serveFunc {
	auth := route.Metadata().Auth
	return func(ctx context.Context, incoming *api.IncomingMessage, logger *slog.Logger) *api.OutgoingResponse {
		accessToken, signature := api.Credentials(incoming)
		if envelope := checkCredentials(auth, accessToken, signature); envelope != nil {
			return route.EncodeError(envelope)
		}
		return serve(ctx, incoming, logger)
	}
}

// checkCredentials rejects a request that lacks the credential its
// endpoint requires. Whether the credential is valid is up to the
// handler.
func checkCredentials(auth api.AuthRequirement, accessToken, signature string) *api.ErrorEnvelope {
	if !auth.Required {
		return nil
	}
	switch auth.Scheme {
	case api.AuthAccessToken:
		if accessToken == "" {
			return api.NewError(api.KindMissingToken, "Missing access token")
		}
	case api.AuthServerSignature:
		if signature == "" {
			return api.NewError(api.KindUnauthorized, "Missing X-Matrix authorization")
		}
	}
	return nil
}

func handlerEnvelope(endpoint string, err error, logger *slog.Logger) *api.ErrorEnvelope {
	var envelope *api.ErrorEnvelope
	if errors.As(err, &envelope) {
		return envelope
	}
	logger.Error("handler failed", "endpoint", endpoint, "error", err)
	return &api.ErrorEnvelope{
		Kind:       api.KindUnknown,
		Code:       api.KindUnknown.Code(),
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
}
